// Package dalerr defines the error kinds surfaced by the SIA client.
//
// Every kind is a pointer type usable with errors.As, and every kind also
// matches a sentinel with errors.Is:
//
//	var verr *dalerr.ValidationError
//	if errors.As(err, &verr) {
//	    log.Printf("bad %s value: %s", verr.Keyword, verr.Reason)
//	}
//	if errors.Is(err, dalerr.ErrService) {
//	    // connectivity problem, maybe retry later
//	}
package dalerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinels matched by the corresponding error kinds through errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("no usable service endpoint")
	ErrService       = errors.New("service unreachable")
	ErrQuery         = errors.New("query rejected by service")
	ErrFormat        = errors.New("unparseable response")
	ErrMissingField  = errors.New("mandatory field missing")
)

// ValidationError reports a constraint value that failed its shape or domain
// check. It is raised before any request is sent.
type ValidationError struct {
	Keyword string
	Value   any
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Keyword == "" {
		return fmt.Sprintf("invalid value %v: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s value %v: %s", e.Keyword, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validationf builds a ValidationError with a formatted reason.
func Validationf(keyword string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Keyword: keyword, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports that no endpoint could be resolved for the
// target protocol.
type ConfigurationError struct {
	BaseURL string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.BaseURL == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error for %s: %s", e.BaseURL, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ServiceError reports a transport or connectivity failure. StatusCode is the
// HTTP status when one was received, 0 otherwise.
type ServiceError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("service error from %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("service error from %s (HTTP %d)", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("service error from %s: %v", e.URL, e.Err)
	}
	return "service error from " + e.URL
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrService }

// QueryError reports that the service accepted the connection but rejected
// the request.
type QueryError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *QueryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("query rejected by %s (HTTP %d): %s", e.URL, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("query rejected by %s: %s", e.URL, e.Reason)
}

func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// FormatError reports a response that could not be parsed into a table.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("format error: %v", e.Err)
	}
	return fmt.Sprintf("format error (%s): %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Formatf builds a FormatError with a formatted cause.
func Formatf(format string, msg string, args ...any) *FormatError {
	return &FormatError{Format: format, Err: errors.Newf(msg, args...)}
}

// MissingFieldError reports a mandatory record column that is absent from
// the response, or present but null.
type MissingFieldError struct {
	Column string
	Null   bool
}

func (e *MissingFieldError) Error() string {
	if e.Null {
		return fmt.Sprintf("mandatory field %q is null", e.Column)
	}
	return fmt.Sprintf("mandatory field %q is missing", e.Column)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }
