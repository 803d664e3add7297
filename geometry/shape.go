// Package geometry provides the sky shapes used by positional constraints
// and ObsCore spatial columns, rendered as github.com/paulmach/orb
// geometries in a planar (RA, Dec) degree frame.
package geometry

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
)

// circleSegments is the vertex count used when a circle is approximated by a
// polygon.
const circleSegments = 32

// Shape is a region on the sky.
type Shape interface {
	// Validate reports whether the coordinates are in range.
	Validate() error
	// Geometry returns the shape as an orb geometry in degrees.
	Geometry() orb.Geometry
}

// Circle is a cone around (RA, Dec) with a radius, all in degrees.
type Circle struct {
	RA, Dec, Radius float64
}

func (c Circle) Validate() error {
	if err := checkRA(c.RA); err != nil {
		return err
	}
	if err := checkDec(c.Dec); err != nil {
		return err
	}
	if math.IsNaN(c.Radius) || c.Radius <= 0 || c.Radius > 180 {
		return errors.Newf("radius %v is outside (0, 180]", c.Radius)
	}
	return nil
}

// Geometry approximates the circle with a closed polygon. The RA extent is
// stretched by 1/cos(Dec) so the outline stays round on the sky.
func (c Circle) Geometry() orb.Geometry {
	stretch := math.Cos(c.Dec * math.Pi / 180)
	if stretch < 1e-6 {
		stretch = 1e-6
	}
	ring := make(orb.Ring, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		ring = append(ring, orb.Point{
			c.RA + c.Radius*math.Cos(a)/stretch,
			clampDec(c.Dec + c.Radius*math.Sin(a)),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// Center returns the circle center.
func (c Circle) Center() orb.Point { return orb.Point{c.RA, c.Dec} }

// Range is a longitude/latitude box. Infinite bounds are open ends.
type Range struct {
	Lon1, Lon2, Lat1, Lat2 float64
}

func (r Range) Validate() error {
	for _, v := range []float64{r.Lon1, r.Lon2} {
		if math.IsNaN(v) || (!math.IsInf(v, 0) && (v < 0 || v > 360)) {
			return errors.Newf("longitude %v is outside [0, 360]", v)
		}
	}
	for _, v := range []float64{r.Lat1, r.Lat2} {
		if math.IsNaN(v) || (!math.IsInf(v, 0) && (v < -90 || v > 90)) {
			return errors.Newf("latitude %v is outside [-90, 90]", v)
		}
	}
	if r.Lon1 > r.Lon2 {
		return errors.Newf("longitude bounds out of order: %v > %v", r.Lon1, r.Lon2)
	}
	if r.Lat1 > r.Lat2 {
		return errors.Newf("latitude bounds out of order: %v > %v", r.Lat1, r.Lat2)
	}
	return nil
}

// Bound returns the box with open ends clamped to the sky.
func (r Range) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Max(r.Lon1, 0), math.Max(r.Lat1, -90)},
		Max: orb.Point{math.Min(r.Lon2, 360), math.Min(r.Lat2, 90)},
	}
}

func (r Range) Geometry() orb.Geometry { return r.Bound().ToPolygon() }

// Polygon is a spherical polygon given by its vertices as (RA, Dec) points
// in degrees. The ring is implicitly closed.
type Polygon struct {
	Vertices []orb.Point
}

func (p Polygon) Validate() error {
	if len(p.Vertices) < 3 {
		return errors.Newf("polygon needs at least 3 vertices, has %d", len(p.Vertices))
	}
	for i, v := range p.Vertices {
		if err := checkRA(v.X()); err != nil {
			return errors.Wrapf(err, "vertex %d", i)
		}
		if err := checkDec(v.Y()); err != nil {
			return errors.Wrapf(err, "vertex %d", i)
		}
	}
	return nil
}

func (p Polygon) Geometry() orb.Geometry {
	ring := make(orb.Ring, 0, len(p.Vertices)+1)
	ring = append(ring, p.Vertices...)
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

func checkRA(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 360 {
		return errors.Newf("right ascension %v is outside [0, 360]", v)
	}
	return nil
}

func checkDec(v float64) error {
	if math.IsNaN(v) || v < -90 || v > 90 {
		return errors.Newf("declination %v is outside [-90, 90]", v)
	}
	return nil
}

func clampDec(v float64) float64 {
	return math.Max(-90, math.Min(90, v))
}
