package archive

import (
	"context"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/internal/recovery"
	"github.com/hugr-lab/sia-go/param"
)

// engine holds what the Flight and HTTP front ends share: archive routing,
// authorization, record limits and panic recovery.
type engine struct {
	archives          *archiveSet
	auth              auth.Authenticator
	alloc             memory.Allocator
	logger            *slog.Logger
	maxRecords        int
	defaultMaxRecords int
}

func newEngine(cfg Config) (*engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "archive config"), ErrInvalidConfig)
	}
	set, err := newArchiveSet(cfg.Archives)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "archive config"), ErrInvalidConfig)
	}

	alloc := cfg.Allocator
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &engine{
		archives:          set,
		auth:              cfg.Auth,
		alloc:             alloc,
		logger:            logger,
		maxRecords:        cfg.MaxRecords,
		defaultMaxRecords: cfg.DefaultMaxRecords,
	}, nil
}

// search runs q against the named archive. The returned limit is the
// record cap to apply to the stream, 0 meaning none.
func (e *engine) search(ctx context.Context, name string, q *param.Registry) (array.RecordReader, int, error) {
	a, err := e.archives.lookup(name)
	if err != nil {
		return nil, 0, err
	}
	if e.auth != nil {
		ctx, err = auth.AuthorizeArchive(ctx, e.auth, name)
		if err != nil {
			return nil, 0, err
		}
	}

	rdr, err := recovery.Call(e.logger, "Search", func() (array.RecordReader, error) {
		return a.Search(ctx, q)
	})
	if err != nil {
		return nil, 0, err
	}
	if rdr == nil {
		return nil, 0, errors.Newf("archive %q returned no records reader", a.Name())
	}
	return rdr, e.limit(q), nil
}

// limit combines MAXREC with the configured defaults. The service limit
// wins over a larger MAXREC.
func (e *engine) limit(q *param.Registry) int {
	n, ok := q.MaxRec()
	if !ok {
		n = e.defaultMaxRecords
	}
	if e.maxRecords > 0 && (n == 0 || n > e.maxRecords) {
		n = e.maxRecords
	}
	return n
}

// truncate passes the records of rdr to emit until limit rows have been
// emitted; limit 0 passes everything. It reports the emitted row count and
// whether rows were left out. emit must retain records it keeps.
func truncate(ctx context.Context, rdr array.RecordReader, limit int, emit func(arrow.Record) error) (int64, bool, error) {
	var rows int64
	for rdr.Next() {
		if err := ctx.Err(); err != nil {
			return rows, false, err
		}

		rec := rdr.Record()
		n := rec.NumRows()
		if n == 0 {
			continue
		}
		if limit > 0 && rows == int64(limit) {
			return rows, true, nil
		}
		if limit > 0 && rows+n > int64(limit) {
			part := rec.NewSlice(0, int64(limit)-rows)
			err := emit(part)
			part.Release()
			if err != nil {
				return rows, false, err
			}
			return int64(limit), true, nil
		}
		if err := emit(rec); err != nil {
			return rows, false, err
		}
		rows += n
	}

	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return rows, false, err
	}
	return rows, false, nil
}
