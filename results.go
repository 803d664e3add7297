package sia

import (
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/table"
)

// Results is the decoded response of one query. It is read-only; Release
// frees the underlying Arrow buffers, after which neither the Results nor
// its Records may be used.
type Results struct {
	tbl      *table.Table
	queryURL string
	followUp FollowUp
}

func newResults(tbl *table.Table, queryURL string) *Results {
	return &Results{
		tbl:      tbl,
		queryURL: queryURL,
		followUp: NewFollowUp(queryURL),
	}
}

// Len returns the number of records.
func (r *Results) Len() int { return r.tbl.NumRows() }

// FieldNames returns the column names in response order.
func (r *Results) FieldNames() []string { return r.tbl.Columns() }

// Column returns a column as an Arrow array.
func (r *Results) Column(name string) (arrow.Array, bool) { return r.tbl.Column(name) }

// Table returns the underlying table.
func (r *Results) Table() *table.Table { return r.tbl }

// QueryURL returns the URL of the query that produced the results.
func (r *Results) QueryURL() string { return r.queryURL }

// Overflow reports whether the service truncated the results at MAXREC.
func (r *Results) Overflow() bool { return r.tbl.Overflow() }

// Record returns the record at index i.
func (r *Results) Record(i int) (Record, error) {
	if i < 0 || i >= r.Len() {
		return Record{}, errors.Newf("record index %d out of range [0, %d)", i, r.Len())
	}
	return r.record(i), nil
}

func (r *Results) record(i int) Record {
	row := r.tbl.Row(i)
	return newRecord(row, r.followUp)
}

// All iterates over the records in order.
func (r *Results) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i := range r.Len() {
			if !yield(i, r.record(i)) {
				return
			}
		}
	}
}

// Release frees the result table.
func (r *Results) Release() { r.tbl.Release() }
