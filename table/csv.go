package table

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/cockroachdb/errors"
)

// DecodeCSV parses a CSV document with a header line. Column types are
// inferred from the first data row unless pinned in opts.ColumnTypes; empty
// cells are null.
func DecodeCSV(r io.Reader, opts Options) (*Table, error) {
	copts := []csv.Option{
		csv.WithHeader(true),
		csv.WithAllocator(opts.allocator()),
		csv.WithNullReader(true, ""),
	}
	if len(opts.ColumnTypes) > 0 {
		copts = append(copts, csv.WithColumnTypes(opts.ColumnTypes))
	}
	rdr := csv.NewInferringReader(r, copts...)
	defer rdr.Release()

	t, err := FromReader(opts.allocator(), rdr)
	if err != nil {
		return nil, formatErr(FormatCSV, err)
	}
	return t, nil
}

// EncodeCSV writes the table as CSV with a header line. Nulls are empty
// cells.
func EncodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w, t.Schema(),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)
	if err := cw.Write(t.Record()); err != nil {
		return errors.Wrap(err, "write CSV")
	}
	return errors.Wrap(cw.Flush(), "flush CSV")
}
