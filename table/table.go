// Package table holds tabular service responses in Apache Arrow memory and
// exposes the generic row access the typed record layers are built on.
package table

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
)

// Field metadata keys carried over from the response column descriptions.
const (
	MetaUnit     = "unit"
	MetaUCD      = "ucd"
	MetaUtype    = "utype"
	MetaDatatype = "datatype"
	MetaXtype    = "xtype"
)

// Table is an immutable, fully materialized response table.
type Table struct {
	rec      arrow.Record
	index    map[string]int
	folded   map[string]int
	overflow bool
	infos    map[string]string
}

// New wraps a record. The table takes its own reference.
func New(rec arrow.Record) *Table {
	rec.Retain()
	t := &Table{
		rec:    rec,
		index:  make(map[string]int, rec.NumCols()),
		folded: make(map[string]int, rec.NumCols()),
		infos:  make(map[string]string),
	}
	for i, f := range rec.Schema().Fields() {
		if _, dup := t.index[f.Name]; !dup {
			t.index[f.Name] = i
		}
		lower := strings.ToLower(f.Name)
		if _, dup := t.folded[lower]; !dup {
			t.folded[lower] = i
		}
	}
	return t
}

// FromReader drains a record reader into a single table. Batches are
// concatenated column by column.
func FromReader(mem memory.Allocator, rdr array.RecordReader) (*Table, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	var recs []arrow.Record
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()

	for rdr.Next() {
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, err
	}

	schema := rdr.Schema()
	if schema == nil && len(recs) > 0 {
		schema = recs[0].Schema()
	}
	if schema == nil {
		// header-only CSV yields no schema
		schema = arrow.NewSchema(nil, nil)
	}

	rec, err := concat(mem, schema, recs)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return New(rec), nil
}

func concat(mem memory.Allocator, schema *arrow.Schema, recs []arrow.Record) (arrow.Record, error) {
	switch len(recs) {
	case 0:
		b := array.NewRecordBuilder(mem, schema)
		defer b.Release()
		return b.NewRecord(), nil
	case 1:
		recs[0].Retain()
		return recs[0], nil
	}

	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	var rows int64
	for _, r := range recs {
		rows += r.NumRows()
	}
	for i := range cols {
		parts := make([]arrow.Array, len(recs))
		for j, r := range recs {
			parts[j] = r.Column(i)
		}
		c, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, errors.Wrapf(err, "concatenate column %s", schema.Field(i).Name)
		}
		cols[i] = c
	}
	return array.NewRecord(schema, cols, rows), nil
}

// Release frees the Arrow buffers. The table must not be used afterwards.
func (t *Table) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

// Record returns the underlying record without adding a reference.
func (t *Table) Record() arrow.Record { return t.rec }

// Schema returns the Arrow schema.
func (t *Table) Schema() *arrow.Schema { return t.rec.Schema() }

// NumRows returns the row count.
func (t *Table) NumRows() int { return int(t.rec.NumRows()) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	fields := t.rec.Schema().Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func (t *Table) lookup(name string) (int, bool) {
	if i, ok := t.index[name]; ok {
		return i, true
	}
	i, ok := t.folded[strings.ToLower(name)]
	return i, ok
}

// HasColumn reports whether the table has the column. Names match exactly
// first, then case-insensitively.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

// Column returns the Arrow array of a column.
func (t *Table) Column(name string) (arrow.Array, bool) {
	i, ok := t.lookup(name)
	if !ok {
		return nil, false
	}
	return t.rec.Column(i), true
}

// Field returns the Arrow field of a column.
func (t *Table) Field(name string) (arrow.Field, bool) {
	i, ok := t.lookup(name)
	if !ok {
		return arrow.Field{}, false
	}
	return t.rec.Schema().Field(i), true
}

// Unit returns the unit declared for a column, or "".
func (t *Table) Unit(name string) string {
	f, ok := t.Field(name)
	if !ok {
		return ""
	}
	u, _ := f.Metadata.GetValue(MetaUnit)
	return u
}

// Value returns the cell at (row, name). The boolean reports whether the
// column exists; a null cell is returned as nil.
func (t *Table) Value(row int, name string) (any, bool) {
	col, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	return cell(col, row), true
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Overflow reports whether the service truncated the result.
func (t *Table) Overflow() bool { return t.overflow }

// SetOverflow marks the table as truncated.
func (t *Table) SetOverflow(v bool) { t.overflow = v }

// Info returns a service INFO value attached to the response.
func (t *Table) Info(name string) (string, bool) {
	v, ok := t.infos[name]
	return v, ok
}

// SetInfo attaches a service INFO value.
func (t *Table) SetInfo(name, value string) { t.infos[name] = value }

// cell converts an Arrow value to a plain Go value: int64, uint64, float64,
// bool, string, []byte or time.Time.
func cell(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return append([]byte(nil), a.Value(i)...)
	case *array.LargeBinary:
		return append([]byte(nil), a.Value(i)...)
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return uint64(a.Value(i))
	case *array.Uint16:
		return uint64(a.Value(i))
	case *array.Uint32:
		return uint64(a.Value(i))
	case *array.Uint64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return a.Value(i).ToTime().UTC()
	case *array.Date64:
		return a.Value(i).ToTime().UTC()
	}
	return col.GetOneForMarshal(i)
}
