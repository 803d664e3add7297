package table

// Row is the generic access capability for one table row. Typed accessor
// sets are layered on top of it.
type Row struct {
	t *Table
	i int
}

// Index returns the row number.
func (r Row) Index() int { return r.i }

// Get returns the cell in column name. ok is false only when the column
// does not exist; a null cell is (nil, true).
func (r Row) Get(name string) (v any, ok bool) { return r.t.Value(r.i, name) }

// GetOr returns the cell in column name, or def when the column is absent
// or the cell is null.
func (r Row) GetOr(name string, def any) any {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return def
	}
	return v
}

// Has reports whether the column exists.
func (r Row) Has(name string) bool { return r.t.HasColumn(name) }

// Names returns the column names.
func (r Row) Names() []string { return r.t.Columns() }

// Unit returns the declared unit of a column.
func (r Row) Unit(name string) string { return r.t.Unit(name) }
