package table

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/cockroachdb/errors"
)

// DecodeArrow parses an Arrow IPC stream.
func DecodeArrow(r io.Reader, opts Options) (*Table, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(opts.allocator()))
	if err != nil {
		return nil, formatErr(FormatArrow, errors.Wrap(err, "open IPC stream"))
	}
	defer rdr.Release()

	t, err := FromReader(opts.allocator(), rdr)
	if err != nil {
		return nil, formatErr(FormatArrow, err)
	}
	return t, nil
}

// EncodeArrow writes the table as an Arrow IPC stream.
func EncodeArrow(w io.Writer, t *Table) error {
	wr := ipc.NewWriter(w, ipc.WithSchema(t.Schema()))
	if err := wr.Write(t.Record()); err != nil {
		wr.Close()
		return errors.Wrap(err, "write IPC record")
	}
	return wr.Close()
}
