// Package recovery shields archive servers from panics in user-provided
// Archive implementations.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError is returned in place of a recovered panic.
type PanicError struct {
	Operation string
	Value     any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Operation, e.Value)
}

// Call runs fn and converts a panic into a *PanicError. The panic is
// logged with its stack trace.
//
// Example:
//
//	rdr, err := recovery.Call(logger, "Search", func() (array.RecordReader, error) {
//	    return archive.Search(ctx, reg)
//	})
func Call[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = &PanicError{Operation: operation, Value: r}
		}
	}()

	return fn()
}

// Run is Call for functions returning only an error.
func Run(logger *slog.Logger, operation string, fn func() error) error {
	_, err := Call(logger, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
