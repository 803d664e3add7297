package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/hugr-lab/sia-go/quantity"
)

// ICRS is the reference frame of ObsCore s_ra/s_dec.
const ICRS = "ICRS"

// SkyCoord is a celestial position.
type SkyCoord struct {
	RA    quantity.Quantity
	Dec   quantity.Quantity
	Frame string
}

// NewSkyCoord returns an ICRS position from degree values.
func NewSkyCoord(ra, dec float64) SkyCoord {
	return SkyCoord{
		RA:    quantity.New(ra, quantity.Degree),
		Dec:   quantity.New(dec, quantity.Degree),
		Frame: ICRS,
	}
}

// Point returns the position as an orb point in degrees.
func (c SkyCoord) Point() orb.Point {
	ra, err := c.RA.To(quantity.Degree)
	if err != nil {
		ra = c.RA
	}
	dec, err := c.Dec.To(quantity.Degree)
	if err != nil {
		dec = c.Dec
	}
	return orb.Point{ra.Value, dec.Value}
}

func (c SkyCoord) String() string {
	p := c.Point()
	return fmt.Sprintf("(%g, %g) deg %s", p.X(), p.Y(), c.Frame)
}

// Contains reports whether the point lies inside the shape. Circles use the
// great-circle distance; boxes and polygons are tested in the planar
// (RA, Dec) frame.
func Contains(s Shape, p orb.Point) bool {
	switch s := s.(type) {
	case Range:
		return s.Bound().Contains(p)
	case Circle:
		return Separation(s.Center(), p) <= s.Radius
	}
	if poly, ok := s.Geometry().(orb.Polygon); ok {
		return planar.PolygonContains(poly, p)
	}
	return false
}

// Separation returns the great-circle distance in degrees between two
// (RA, Dec) points given in degrees.
func Separation(a, b orb.Point) float64 {
	const rad = math.Pi / 180
	ra1, dec1 := a.X()*rad, a.Y()*rad
	ra2, dec2 := b.X()*rad, b.Y()*rad
	sdd := math.Sin((dec2 - dec1) / 2)
	sda := math.Sin((ra2 - ra1) / 2)
	h := sdd*sdd + math.Cos(dec1)*math.Cos(dec2)*sda*sda
	return 2 * math.Asin(math.Min(1, math.Sqrt(h))) / rad
}

// Intersects reports whether the shape overlaps the geometry g. It checks
// bounding boxes first, then vertex containment in either direction.
func Intersects(s Shape, g orb.Geometry) bool {
	if g == nil {
		return false
	}
	sg := s.Geometry()
	if !sg.Bound().Intersects(g.Bound()) {
		return false
	}
	poly, ok := sg.(orb.Polygon)
	if !ok {
		return true
	}
	switch g := g.(type) {
	case orb.Point:
		return Contains(s, g)
	case orb.Polygon:
		if len(g) == 0 {
			return false
		}
		for _, v := range g[0] {
			if Contains(s, v) {
				return true
			}
		}
		for _, v := range poly[0] {
			if planar.PolygonContains(g, v) {
				return true
			}
		}
		return false
	}
	return true
}
