package archive

import (
	"strconv"

	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/quantity"
)

// Match reports whether an ObsCore row satisfies q: values of one
// parameter are alternatives and every constrained parameter must hold.
// A constrained axis whose columns are missing or null does not match.
func Match(q *param.Registry, m obscore.Metadata) bool {
	for _, a := range param.Axes() {
		if q.Touch(a).Len() == 0 {
			continue
		}
		if !matchAxis(q, a, m) {
			return false
		}
	}
	return true
}

func matchAxis(q *param.Registry, a param.Axis, m obscore.Metadata) bool {
	switch a {
	case param.Pos:
		if g, err := m.RegionShape(); err == nil {
			return q.Position().MatchesRegion(g)
		}
		c, err := m.Pos()
		return err == nil && q.Position().Matches(c.Point())

	case param.Band:
		b, err := m.SpectralBounds()
		return err == nil && q.Interval(a).MatchesRange(b[0].Value, b[1].Value)

	case param.Time:
		b, err := m.TimeBounds()
		return err == nil && q.Interval(a).MatchesRange(quantity.ToMJD(b[0]), quantity.ToMJD(b[1]))

	case param.Pol:
		states, ok := m.PolStates()
		if !ok {
			return false
		}
		for _, s := range states {
			if q.Enum(a).Matches(s) {
				return true
			}
		}
		return false

	case param.FOV:
		r, err := m.Radius()
		return err == nil && q.Interval(a).Matches(2*r.Value)
	case param.SpatRes:
		return matchQuantity(q.Interval(a), m.SpatialResolution)
	case param.SpecRP:
		v, err := m.ResolvingPower()
		return err == nil && q.Interval(a).Matches(v)
	case param.ExpTime:
		return matchQuantity(q.Interval(a), m.ExpTime)
	case param.TimeRes:
		return matchQuantity(q.Interval(a), m.TimeResolution)

	case param.Calib:
		level, err := m.CalibLevel()
		return err == nil && q.Enum(a).Matches(strconv.Itoa(level))

	case param.ID:
		return matchString(q.StringSet(a), m.GlobalID)
	case param.Facility:
		v, ok := m.Facility()
		return ok && q.StringSet(a).Matches(v)
	case param.Collection:
		return matchString(q.StringSet(a), m.Collection)
	case param.Instrument:
		return matchString(q.StringSet(a), m.Instrument)
	case param.DataType:
		return matchString(q.StringSet(a), m.DataType)
	case param.Target:
		return matchString(q.StringSet(a), m.TargetName)
	case param.Format:
		return matchString(q.StringSet(a), m.AccessFormat)
	}
	return true
}

func matchQuantity(p *param.IntervalParam, get func() (quantity.Quantity, error)) bool {
	v, err := get()
	if err != nil {
		return false
	}
	v, err = v.To(p.Unit())
	return err == nil && p.Matches(v.Value)
}

func matchString(p *param.StringSetParam, get func() (string, error)) bool {
	v, err := get()
	return err == nil && p.Matches(v)
}
