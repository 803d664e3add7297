package geometry

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// STC-S coordinate frames, reference positions and flavors that may precede
// the numeric part of a region.
var stcsQualifiers = map[string]bool{}

func init() {
	for _, q := range []string{
		"ICRS", "FK4", "FK5", "J2000", "B1950", "GALACTIC", "ECLIPTIC",
		"GEO_C", "GEO_D", "UNKNOWNFRAME",
		"BARYCENTER", "GEOCENTER", "HELIOCENTER", "TOPOCENTER", "LSR", "UNKNOWNREFPOS",
		"SPHERICAL2", "CARTESIAN2",
	} {
		stcsQualifiers[q] = true
	}
}

// ParseSTCS parses an ObsCore s_region string (STC-S) into an orb geometry.
// Supported shapes are Position, Circle, Box and Polygon, plus Union of
// those which yields a collection.
func ParseSTCS(s string) (orb.Geometry, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, errors.New("empty STC-S region")
	}
	g, rest, err := parseSTCSShape(fields)
	if err != nil {
		return nil, errors.Wrapf(err, "STC-S %q", s)
	}
	if len(rest) != 0 {
		return nil, errors.Newf("STC-S %q: trailing tokens %v", s, rest)
	}
	return g, nil
}

func parseSTCSShape(fields []string) (orb.Geometry, []string, error) {
	kind := strings.ToUpper(fields[0])
	fields = skipQualifiers(fields[1:])

	switch kind {
	case "POSITION":
		nums, rest, err := takeNumbers(fields, 2)
		if err != nil {
			return nil, nil, err
		}
		return orb.Point{nums[0], nums[1]}, rest, nil

	case "CIRCLE":
		nums, rest, err := takeNumbers(fields, 3)
		if err != nil {
			return nil, nil, err
		}
		return Circle{RA: nums[0], Dec: nums[1], Radius: nums[2]}.Geometry(), rest, nil

	case "BOX":
		nums, rest, err := takeNumbers(fields, 4)
		if err != nil {
			return nil, nil, err
		}
		ra, dec, w, h := nums[0], nums[1], nums[2]/2, nums[3]/2
		return orb.Bound{
			Min: orb.Point{ra - w, dec - h},
			Max: orb.Point{ra + w, dec + h},
		}.ToPolygon(), rest, nil

	case "POLYGON":
		n := 0
		for n < len(fields) && isNumber(fields[n]) {
			n++
		}
		if n < 6 || n%2 != 0 {
			return nil, nil, errors.Newf("polygon needs an even count of at least 6 numbers, has %d", n)
		}
		nums, rest, err := takeNumbers(fields, n)
		if err != nil {
			return nil, nil, err
		}
		p := Polygon{}
		for i := 0; i < n; i += 2 {
			p.Vertices = append(p.Vertices, orb.Point{nums[i], nums[i+1]})
		}
		return p.Geometry(), rest, nil

	case "UNION":
		if len(fields) == 0 || fields[0] != "(" {
			return nil, nil, errors.New("union must be followed by (")
		}
		fields = fields[1:]
		var coll orb.Collection
		for len(fields) > 0 && fields[0] != ")" {
			g, rest, err := parseSTCSShape(fields)
			if err != nil {
				return nil, nil, err
			}
			coll = append(coll, g)
			fields = rest
		}
		if len(fields) == 0 {
			return nil, nil, errors.New("unterminated union")
		}
		if len(coll) == 0 {
			return nil, nil, errors.New("empty union")
		}
		return coll, fields[1:], nil
	}
	return nil, nil, errors.Newf("unsupported shape %q", kind)
}

func skipQualifiers(fields []string) []string {
	for len(fields) > 0 && stcsQualifiers[strings.ToUpper(fields[0])] {
		fields = fields[1:]
	}
	return fields
}

func takeNumbers(fields []string, n int) ([]float64, []string, error) {
	if len(fields) < n {
		return nil, nil, errors.Newf("expected %d numbers, got %d tokens", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, nil, errors.Newf("bad number %q", fields[i])
		}
		out[i] = v
	}
	return out, fields[n:], nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
