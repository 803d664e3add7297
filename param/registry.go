package param

import (
	"slices"
	"strconv"

	"github.com/hugr-lab/sia-go/dalerr"
)

// Registry owns one parameter per axis and the current wire serialization
// of each keyword. Every axis slot exists from creation; a slot with no
// values is simply absent from Values.
type Registry struct {
	params  [numAxes]Param
	entries map[string][]string
	maxRec  int
	ignored []string
}

// NewRegistry returns a registry with an empty parameter for every axis.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string][]string)}
	for _, a := range Axes() {
		p := newParam(a)
		r.attach(p)
		r.params[a] = p
	}
	return r
}

func newParam(a Axis) Param {
	def := axisTable[a]
	switch {
	case a == Pos:
		return NewPositionParam(def.keyword)
	case a == Band:
		return newSpectralParam(def.keyword)
	case a == Time:
		return newTimeParam(def.keyword)
	case a == Pol:
		return NewEnumParam(def.keyword, PolStates)
	case a == Calib:
		return NewEnumParam(def.keyword, CalibLevels)
	case def.kind == KindInterval:
		return NewIntervalParam(def.keyword, def.unit)
	}
	return NewStringSetParam(def.keyword)
}

func (r *Registry) attach(p Param) {
	hook := func(keyword string, tokens []string) {
		if len(tokens) == 0 {
			delete(r.entries, keyword)
			return
		}
		r.entries[keyword] = tokens
	}
	switch p := p.(type) {
	case *IntervalParam:
		p.notify = hook
	case *EnumParam:
		p.notify = hook
	case *StringSetParam:
		p.notify = hook
	case *PositionParam:
		p.notify = hook
	}
}

// Touch returns the parameter of an axis. It panics on an unknown axis.
func (r *Registry) Touch(a Axis) Param {
	if !a.Valid() {
		panic("param: unknown axis")
	}
	return r.params[a]
}

// Interval returns the interval parameter of a, or nil if a is not an
// interval axis.
func (r *Registry) Interval(a Axis) *IntervalParam {
	p, _ := r.Touch(a).(*IntervalParam)
	return p
}

// Enum returns the enumerated parameter of a, or nil.
func (r *Registry) Enum(a Axis) *EnumParam {
	p, _ := r.Touch(a).(*EnumParam)
	return p
}

// StringSet returns the string-set parameter of a, or nil.
func (r *Registry) StringSet(a Axis) *StringSetParam {
	p, _ := r.Touch(a).(*StringSetParam)
	return p
}

// Position returns the POS parameter.
func (r *Registry) Position() *PositionParam {
	return r.params[Pos].(*PositionParam)
}

// Add normalizes v with Normalize and adds each element to the parameter of
// axis a. Elements are validated before any is stored, so a failure leaves
// the parameter unchanged.
func (r *Registry) Add(a Axis, v any) error {
	p := r.Touch(a)
	items := Normalize(v)
	probe := newParam(a)
	for _, it := range items {
		if err := probe.Add(it); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := p.Add(it); err != nil {
			return err
		}
	}
	return nil
}

// SetMaxRec sets the MAXREC cap. n must be positive.
func (r *Registry) SetMaxRec(n int) error {
	if n <= 0 {
		return dalerr.Validationf(MaxRecKeyword, n, "must be a positive integer")
	}
	r.maxRec = n
	return nil
}

// ClearMaxRec removes the MAXREC cap.
func (r *Registry) ClearMaxRec() { r.maxRec = 0 }

// MaxRec returns the MAXREC cap, if set.
func (r *Registry) MaxRec() (int, bool) { return r.maxRec, r.maxRec > 0 }

// Get returns the serialized values of a keyword.
func (r *Registry) Get(keyword string) []string {
	if keyword == MaxRecKeyword {
		if n, ok := r.MaxRec(); ok {
			return []string{strconv.Itoa(n)}
		}
		return nil
	}
	return slices.Clone(r.entries[keyword])
}

// Values returns the non-empty keywords in wire order, MAXREC last.
func (r *Registry) Values() Values {
	var out Values
	for _, a := range Axes() {
		kw := axisTable[a].keyword
		if tokens, ok := r.entries[kw]; ok {
			out = append(out, Entry{Keyword: kw, Values: slices.Clone(tokens)})
		}
	}
	if vals := r.Get(MaxRecKeyword); vals != nil {
		out = append(out, Entry{Keyword: MaxRecKeyword, Values: vals})
	}
	return out
}

// Empty reports whether no constraint and no cap is set.
func (r *Registry) Empty() bool { return len(r.entries) == 0 && r.maxRec == 0 }

// Ignored returns the keywords dropped by ParseValues because they are not
// part of the query vocabulary.
func (r *Registry) Ignored() []string { return slices.Clone(r.ignored) }
