package table

import (
	"bufio"
	"bytes"
	"io"
	"mime"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/sia-go/dalerr"
)

// Format is a response serialization.
type Format string

const (
	FormatVOTable Format = "votable"
	FormatCSV     Format = "csv"
	FormatArrow   Format = "arrow"
)

// MIME types of the supported formats.
const (
	MIMEVOTable = "application/x-votable+xml"
	MIMECSV     = "text/csv"
	MIMEArrow   = "application/vnd.apache.arrow.stream"
)

// MIMEType returns the canonical media type of the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return MIMECSV
	case FormatArrow:
		return MIMEArrow
	}
	return MIMEVOTable
}

// FormatFor maps a Content-Type or RESPONSEFORMAT value to a format. The
// boolean is false for unknown media types.
func FormatFor(contentType string) (Format, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case mt == "votable", strings.Contains(mt, "votable"), mt == "text/xml", mt == "application/xml":
		return FormatVOTable, true
	case mt == "csv", mt == MIMECSV, mt == "text/comma-separated-values":
		return FormatCSV, true
	case mt == "arrow", strings.HasPrefix(mt, "application/vnd.apache.arrow"):
		return FormatArrow, true
	}
	return "", false
}

// Options tune decoding.
type Options struct {
	// Allocator for Arrow buffers. Defaults to memory.DefaultAllocator.
	Allocator memory.Allocator
	// ColumnTypes pins the Arrow type of named columns in formats that
	// carry no type information (CSV).
	ColumnTypes map[string]arrow.DataType
}

func (o Options) allocator() memory.Allocator {
	if o.Allocator == nil {
		return memory.DefaultAllocator
	}
	return o.Allocator
}

// Decode parses a response body. The format is taken from contentType when
// recognized and sniffed from the payload otherwise. Failures are
// *dalerr.FormatError, except a VOTable carrying QUERY_STATUS=ERROR which is
// a *dalerr.QueryError.
func Decode(contentType string, r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReader(r)
	f, ok := FormatFor(contentType)
	if !ok {
		f = sniff(br)
	}
	switch f {
	case FormatCSV:
		return DecodeCSV(br, opts)
	case FormatArrow:
		return DecodeArrow(br, opts)
	}
	return DecodeVOTable(br, opts)
}

var arrowContinuation = []byte{0xff, 0xff, 0xff, 0xff}

func sniff(br *bufio.Reader) Format {
	head, _ := br.Peek(512)
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	switch {
	case bytes.HasPrefix(head, arrowContinuation):
		return FormatArrow
	case bytes.HasPrefix(trimmed, []byte("<")):
		return FormatVOTable
	case len(trimmed) > 0:
		return FormatCSV
	}
	return FormatVOTable
}

func formatErr(f Format, err error) error {
	return &dalerr.FormatError{Format: string(f), Err: err}
}

// Encode writes the table in format f.
func Encode(w io.Writer, f Format, t *Table) error {
	switch f {
	case FormatCSV:
		return EncodeCSV(w, t)
	case FormatArrow:
		return EncodeArrow(w, t)
	}
	return WriteVOTable(w, t)
}
