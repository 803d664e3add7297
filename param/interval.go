package param

import (
	"math"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/quantity"
)

// Interval is a closed numeric range in the parameter's default unit. Either
// bound may be infinite to leave that side open.
type Interval struct {
	Lo, Hi float64
}

// AtLeast returns the interval [lo, +Inf).
func AtLeast(lo float64) Interval { return Interval{Lo: lo, Hi: math.Inf(1)} }

// AtMost returns the interval (-Inf, hi].
func AtMost(hi float64) Interval { return Interval{Lo: math.Inf(-1), Hi: hi} }

// Token returns the wire form "lo hi".
func (i Interval) Token() string { return FormatFloat(i.Lo) + " " + FormatFloat(i.Hi) }

// Contains reports whether v lies within the interval.
func (i Interval) Contains(v float64) bool { return v >= i.Lo && v <= i.Hi }

// Overlaps reports whether the interval shares at least one point with o.
func (i Interval) Overlaps(o Interval) bool { return i.Lo <= o.Hi && o.Lo <= i.Hi }

// QuantityInterval is an interval whose bounds carry units. It is converted to
// the parameter's default unit when added.
type QuantityInterval struct {
	Lo, Hi quantity.Quantity
}

// TimeInterval is an interval of instants for the TIME parameter. A zero
// bound is open.
type TimeInterval struct {
	Start, End time.Time
}

// IntervalParam holds numeric ranges for one axis.
type IntervalParam struct {
	base
	unit     quantity.Unit
	spectral bool
	mjd      bool
	values   []Interval
}

// NewIntervalParam creates an interval parameter in the given default unit.
func NewIntervalParam(keyword string, unit quantity.Unit) *IntervalParam {
	return &IntervalParam{base: base{keyword: keyword}, unit: unit}
}

func newSpectralParam(keyword string) *IntervalParam {
	p := NewIntervalParam(keyword, quantity.Meter)
	p.spectral = true
	return p
}

func newTimeParam(keyword string) *IntervalParam {
	p := NewIntervalParam(keyword, quantity.Day)
	p.mjd = true
	return p
}

func (p *IntervalParam) Kind() Kind { return KindInterval }

// Unit returns the default unit of the serialized bounds. TIME bounds are
// MJD days.
func (p *IntervalParam) Unit() quantity.Unit { return p.unit }

func (p *IntervalParam) Add(v any) error {
	iv, err := p.convert(v)
	if err != nil {
		return err
	}
	p.values = append(p.values, iv)
	p.push(iv.Token())
	return nil
}

func (p *IntervalParam) Remove(v any) {
	iv, err := p.convert(v)
	if err != nil {
		return
	}
	if i := p.drop(iv.Token()); i >= 0 {
		p.values = append(p.values[:i], p.values[i+1:]...)
	}
}

func (p *IntervalParam) Clear() {
	p.values = nil
	p.reset()
}

// Values returns the stored intervals in the default unit.
func (p *IntervalParam) Values() []Interval {
	out := make([]Interval, len(p.values))
	copy(out, p.values)
	return out
}

// Matches reports whether v (in the default unit) lies in any stored
// interval. An empty parameter matches everything.
func (p *IntervalParam) Matches(v float64) bool {
	if len(p.values) == 0 {
		return true
	}
	for _, iv := range p.values {
		if iv.Contains(v) {
			return true
		}
	}
	return false
}

// MatchesRange reports whether [lo, hi] overlaps any stored interval. An
// empty parameter matches everything.
func (p *IntervalParam) MatchesRange(lo, hi float64) bool {
	if len(p.values) == 0 {
		return true
	}
	for _, iv := range p.values {
		if iv.Overlaps(Interval{Lo: lo, Hi: hi}) {
			return true
		}
	}
	return false
}

func (p *IntervalParam) convert(v any) (Interval, error) {
	var iv Interval
	switch x := v.(type) {
	case Interval:
		iv = x
	case *Interval:
		if x == nil {
			return Interval{}, p.invalid(v, "nil interval")
		}
		iv = *x
	case QuantityInterval:
		lo, err := p.toUnit(x.Lo)
		if err != nil {
			return Interval{}, p.invalid(v, err.Error())
		}
		hi, err := p.toUnit(x.Hi)
		if err != nil {
			return Interval{}, p.invalid(v, err.Error())
		}
		iv = Interval{Lo: lo, Hi: hi}
		if p.spectral && iv.Lo > iv.Hi {
			// frequency and energy run opposite to wavelength
			iv.Lo, iv.Hi = iv.Hi, iv.Lo
		}
	case quantity.Quantity:
		f, err := p.toUnit(x)
		if err != nil {
			return Interval{}, p.invalid(v, err.Error())
		}
		iv = Interval{Lo: f, Hi: f}
	case TimeInterval:
		if !p.mjd {
			return Interval{}, p.invalid(v, "time intervals are only valid for TIME")
		}
		iv = Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}
		if !x.Start.IsZero() {
			iv.Lo = quantity.ToMJD(x.Start)
		}
		if !x.End.IsZero() {
			iv.Hi = quantity.ToMJD(x.End)
		}
	case time.Time:
		if !p.mjd {
			return Interval{}, p.invalid(v, "instants are only valid for TIME")
		}
		if x.IsZero() {
			return Interval{}, p.invalid(v, "zero time")
		}
		m := quantity.ToMJD(x)
		iv = Interval{Lo: m, Hi: m}
	default:
		if lo, hi, ok := pair(v); ok {
			iv = Interval{Lo: lo, Hi: hi}
			break
		}
		f, ok := toFloat(v)
		if !ok {
			return Interval{}, p.invalid(v, "expected a number or an interval")
		}
		iv = Interval{Lo: f, Hi: f}
	}

	if math.IsNaN(iv.Lo) || math.IsNaN(iv.Hi) {
		return Interval{}, p.invalid(v, "NaN bound")
	}
	if math.IsInf(iv.Lo, 1) || math.IsInf(iv.Hi, -1) {
		return Interval{}, p.invalid(v, "interval is empty at infinity")
	}
	if iv.Lo > iv.Hi {
		return Interval{}, p.invalid(v, "lower bound greater than upper bound")
	}
	return iv, nil
}

func (p *IntervalParam) toUnit(q quantity.Quantity) (float64, error) {
	var (
		c   quantity.Quantity
		err error
	)
	switch {
	case p.mjd:
		return 0, errors.New("use time.Time or MJD numbers")
	case p.spectral:
		c, err = q.ToSpectral(p.unit)
	default:
		c, err = q.To(p.unit)
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

func (p *IntervalParam) invalid(v any, reason string) error {
	return &dalerr.ValidationError{Keyword: p.keyword, Value: v, Reason: reason}
}

// pair decodes a two-element numeric array such as [2]float64 as (lo, hi).
func pair(v any) (float64, float64, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array || rv.Len() != 2 {
		return 0, 0, false
	}
	lo, ok := toFloat(rv.Index(0).Interface())
	if !ok {
		return 0, 0, false
	}
	hi, ok := toFloat(rv.Index(1).Interface())
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}
