package param

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/geometry"
)

// ParseValues rebuilds a typed registry from wire values. Keywords match
// case-insensitively; unknown keywords are skipped and reported by
// Registry.Ignored.
func ParseValues(v Values) (*Registry, error) {
	r := NewRegistry()
	for _, e := range v {
		kw := strings.ToUpper(strings.TrimSpace(e.Keyword))
		if kw == MaxRecKeyword {
			if len(e.Values) == 0 {
				continue
			}
			raw := e.Values[len(e.Values)-1]
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, dalerr.Validationf(MaxRecKeyword, raw, "not an integer")
			}
			if err := r.SetMaxRec(n); err != nil {
				return nil, err
			}
			continue
		}

		a, ok := axisByKeyword(kw)
		if !ok {
			r.ignored = append(r.ignored, e.Keyword)
			continue
		}
		p := r.Touch(a)
		for _, tok := range e.Values {
			val, err := parseToken(p, tok)
			if err != nil {
				return nil, err
			}
			if err := p.Add(val); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// ParseQuery is ParseValues for url.Values. Axes are applied in wire order
// and unknown keywords are reported sorted.
func ParseQuery(q url.Values) (*Registry, error) {
	var v Values
	for _, a := range Axes() {
		kw := axisTable[a].keyword
		var keys []string
		for k := range q {
			if strings.EqualFold(k, kw) {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			v = append(v, Entry{Keyword: kw, Values: q[k]})
		}
	}
	var maxRec, unknown []string
	for k := range q {
		if strings.EqualFold(k, MaxRecKeyword) {
			maxRec = append(maxRec, k)
			continue
		}
		if _, ok := axisByKeyword(strings.ToUpper(k)); !ok {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(maxRec)
	for _, k := range maxRec {
		v = append(v, Entry{Keyword: MaxRecKeyword, Values: q[k]})
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		v = append(v, Entry{Keyword: k, Values: q[k]})
	}
	return ParseValues(v)
}

func axisByKeyword(kw string) (Axis, bool) {
	for i, def := range axisTable {
		if def.keyword == kw {
			return Axis(i), true
		}
	}
	return 0, false
}

func parseToken(p Param, tok string) (any, error) {
	switch p.Kind() {
	case KindInterval:
		return ParseInterval(p.Keyword(), tok)
	case KindPosition:
		return ParseShape(p.Keyword(), tok)
	}
	return tok, nil
}

// ParseInterval parses "lo hi" or a single number. Infinity literals are
// accepted in any case.
func ParseInterval(keyword, tok string) (Interval, error) {
	f := strings.Fields(tok)
	nums := make([]float64, len(f))
	for i, s := range f {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Interval{}, dalerr.Validationf(keyword, tok, "bad number %q", s)
		}
		nums[i] = n
	}
	switch len(nums) {
	case 1:
		return Interval{Lo: nums[0], Hi: nums[0]}, nil
	case 2:
		return Interval{Lo: nums[0], Hi: nums[1]}, nil
	}
	return Interval{}, dalerr.Validationf(keyword, tok, "expected one or two numbers")
}

// ParseShape parses a POS token: CIRCLE, RANGE or POLYGON followed by
// numbers.
func ParseShape(keyword, tok string) (geometry.Shape, error) {
	f := strings.Fields(tok)
	if len(f) == 0 {
		return nil, dalerr.Validationf(keyword, tok, "empty position")
	}
	nums := make([]float64, len(f)-1)
	for i, s := range f[1:] {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, dalerr.Validationf(keyword, tok, "bad number %q", s)
		}
		nums[i] = n
	}

	switch strings.ToUpper(f[0]) {
	case "CIRCLE":
		if len(nums) != 3 {
			return nil, dalerr.Validationf(keyword, tok, "CIRCLE takes 3 numbers")
		}
		return geometry.Circle{RA: nums[0], Dec: nums[1], Radius: nums[2]}, nil
	case "RANGE":
		if len(nums) != 4 {
			return nil, dalerr.Validationf(keyword, tok, "RANGE takes 4 numbers")
		}
		return geometry.Range{Lon1: nums[0], Lon2: nums[1], Lat1: nums[2], Lat2: nums[3]}, nil
	case "POLYGON":
		if len(nums) < 6 || len(nums)%2 != 0 {
			return nil, dalerr.Validationf(keyword, tok, "POLYGON takes an even count of at least 6 numbers")
		}
		poly := geometry.Polygon{}
		for i := 0; i < len(nums); i += 2 {
			poly.Vertices = append(poly.Vertices, orb.Point{nums[i], nums[i+1]})
		}
		return poly, nil
	}
	return nil, dalerr.Validationf(keyword, tok, "unknown shape %q", f[0])
}
