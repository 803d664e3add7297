// Package obscore projects loosely typed result rows onto the ObsCore data
// model. Metadata wraps any Getter and exposes one accessor per ObsCore
// attribute:
//
//   - mandatory attributes return (T, error) and fail with
//     *dalerr.MissingFieldError when the column is absent or null;
//   - optional attributes return (T, bool) where false marks absence;
//   - numeric attributes come back as quantity.Quantity in the documented
//     unit, converted from the column's declared unit when the getter
//     reports one.
package obscore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/quantity"
)

// Getter is the generic row capability the accessors are built on. ok is
// false when the column does not exist; a null cell is (nil, true).
type Getter interface {
	Get(name string) (v any, ok bool)
}

// UnitGetter is optionally implemented by getters that know the declared
// unit of a column.
type UnitGetter interface {
	Unit(name string) string
}

// Metadata is the typed ObsCore view of one row.
type Metadata struct {
	g Getter
}

// New returns the ObsCore view over g.
func New(g Getter) Metadata { return Metadata{g: g} }

// lookup returns the cell, or a MissingFieldError when absent or null.
func (m Metadata) lookup(col string) (any, error) {
	if m.g == nil {
		return nil, &dalerr.MissingFieldError{Column: col}
	}
	v, ok := m.g.Get(col)
	if !ok {
		return nil, &dalerr.MissingFieldError{Column: col}
	}
	if v == nil {
		return nil, &dalerr.MissingFieldError{Column: col, Null: true}
	}
	return v, nil
}

func invalid(col string, v any, err error) error {
	return &dalerr.FormatError{
		Format: "obscore",
		Err:    errors.Wrapf(err, "column %s: cannot interpret %v (%T)", col, v, v),
	}
}

func (m Metadata) str(col string) (string, error) {
	v, err := m.lookup(col)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

func (m Metadata) optStr(col string) (string, bool) {
	s, err := m.str(col)
	return s, err == nil
}

func (m Metadata) float(col string) (float64, error) {
	v, err := m.lookup(col)
	if err != nil {
		return 0, err
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, invalid(col, v, err)
	}
	return f, nil
}

func (m Metadata) optFloat(col string) (float64, bool) {
	f, err := m.float(col)
	return f, err == nil
}

func (m Metadata) int(col string) (int64, error) {
	v, err := m.lookup(col)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, invalid(col, v, err)
	}
	return n, nil
}

// quantity returns the column in unit u. A declared column unit of the same
// dimension is honored; anything else is taken to be u already.
func (m Metadata) quantity(col string, u quantity.Unit) (quantity.Quantity, error) {
	f, err := m.float(col)
	if err != nil {
		return quantity.Quantity{}, err
	}
	q := quantity.New(f, u)
	if ug, ok := m.g.(UnitGetter); ok {
		if declared, err := quantity.ParseUnit(ug.Unit(col)); err == nil && declared.Dim == u.Dim && declared.Name != "" {
			q = quantity.New(f, declared).MustTo(u)
		}
	}
	return q, nil
}

func (m Metadata) optQuantity(col string, u quantity.Unit) (quantity.Quantity, bool) {
	q, err := m.quantity(col, u)
	return q, err == nil
}

func (m Metadata) optTime(col string) (time.Time, bool) {
	v, err := m.lookup(col)
	if err != nil {
		return time.Time{}, false
	}
	t, err := toTime(v)
	return t, err == nil
}

// mjd returns an MJD column as a time. Timestamp columns pass through.
func (m Metadata) mjd(col string) (time.Time, error) {
	v, err := m.lookup(col)
	if err != nil {
		return time.Time{}, err
	}
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return time.Time{}, invalid(col, v, err)
	}
	return quantity.FromMJD(f), nil
}

func toString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	}
	return 0, errors.Newf("not a number")
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, errors.New("integer overflow")
		}
		return int64(v), nil
	case float64, float32:
		f, _ := toFloat(v)
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, errors.New("not an integer")
		}
		return int64(f), nil
	case string, []byte:
		s := strings.TrimSpace(toString(v))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return 0, errors.New("not an integer")
		}
		return int64(f), nil
	}
	return 0, errors.New("not an integer")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// toTime accepts timestamps, ISO 8601 text and MJD numbers.
func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string, []byte:
		s := strings.TrimSpace(toString(v))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.Newf("unrecognized timestamp %q", s)
	}
	f, err := toFloat(v)
	if err != nil {
		return time.Time{}, err
	}
	return quantity.FromMJD(f), nil
}
