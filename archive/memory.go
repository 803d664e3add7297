package archive

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

// MemoryArchive serves searches from an in-memory ObsCore table. Rows are
// filtered with Match.
type MemoryArchive struct {
	name string
	tbl  *table.Table
}

var _ Archive = (*MemoryArchive)(nil)

// NewMemoryArchive wraps an ObsCore table. The archive takes its own
// reference to the table's record.
func NewMemoryArchive(name string, t *table.Table) *MemoryArchive {
	return &MemoryArchive{name: name, tbl: table.New(t.Record())}
}

// LoadMemoryArchive decodes an ObsCore table in any supported format
// (VOTable, CSV, Arrow IPC). CSV columns get their ObsCore types.
func LoadMemoryArchive(name, contentType string, r io.Reader) (*MemoryArchive, error) {
	t, err := table.Decode(contentType, r, table.Options{ColumnTypes: obscore.ColumnTypes()})
	if err != nil {
		return nil, errors.Wrapf(err, "load archive %q", name)
	}
	defer t.Release()
	return NewMemoryArchive(name, t), nil
}

// Name returns the archive name.
func (a *MemoryArchive) Name() string { return a.name }

// Len returns the number of rows held.
func (a *MemoryArchive) Len() int { return a.tbl.NumRows() }

// Close releases the table.
func (a *MemoryArchive) Close() { a.tbl.Release() }

// Search returns the matching rows in table order. Runs of consecutive
// matches are emitted as zero-copy slices.
func (a *MemoryArchive) Search(ctx context.Context, q *param.Registry) (array.RecordReader, error) {
	rec := a.tbl.Record()
	n := a.tbl.NumRows()

	var parts []arrow.Record
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()

	start := -1
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ok := Match(q, obscore.New(a.tbl.Row(i)))
		switch {
		case ok && start < 0:
			start = i
		case !ok && start >= 0:
			parts = append(parts, rec.NewSlice(int64(start), int64(i)))
			start = -1
		}
	}
	if start >= 0 {
		parts = append(parts, rec.NewSlice(int64(start), int64(n)))
	}

	return array.NewRecordReader(rec.Schema(), parts)
}
