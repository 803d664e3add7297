package param

import (
	"reflect"

	"github.com/paulmach/orb"
)

// Normalize turns a caller-supplied constraint into the sequence of values
// to add. nil, empty strings and empty slices yield nothing; slices yield
// their elements; anything else is a one-element sequence. Fixed-size
// arrays are single values, so a [2]float64 stays one (lo, hi) pair. Byte
// slices and orb geometries are treated as single values.
func Normalize(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return []any{x}
	case []byte, orb.Ring, orb.Polygon:
		return []any{x}
	case []any:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return []any{v}
}
