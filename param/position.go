package param

import (
	"strings"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/geometry"
)

// Position shapes, in degrees.
type (
	Circle  = geometry.Circle
	Range   = geometry.Range
	Polygon = geometry.Polygon
)

// PositionParam holds sky regions for POS.
type PositionParam struct {
	base
	shapes []geometry.Shape
}

// NewPositionParam creates a positional parameter.
func NewPositionParam(keyword string) *PositionParam {
	return &PositionParam{base: base{keyword: keyword}}
}

func (p *PositionParam) Kind() Kind { return KindPosition }

func (p *PositionParam) Add(v any) error {
	s, err := p.shape(v)
	if err != nil {
		return err
	}
	p.shapes = append(p.shapes, s)
	p.push(ShapeToken(s))
	return nil
}

func (p *PositionParam) Remove(v any) {
	s, err := p.shape(v)
	if err != nil {
		return
	}
	if i := p.drop(ShapeToken(s)); i >= 0 {
		p.shapes = append(p.shapes[:i], p.shapes[i+1:]...)
	}
}

func (p *PositionParam) Clear() {
	p.shapes = nil
	p.reset()
}

// Values returns the stored shapes.
func (p *PositionParam) Values() []geometry.Shape {
	out := make([]geometry.Shape, len(p.shapes))
	copy(out, p.shapes)
	return out
}

// Matches reports whether the point lies in any stored shape. An empty
// parameter matches everything.
func (p *PositionParam) Matches(pt orb.Point) bool {
	if len(p.shapes) == 0 {
		return true
	}
	for _, s := range p.shapes {
		if geometry.Contains(s, pt) {
			return true
		}
	}
	return false
}

// MatchesRegion reports whether the region overlaps any stored shape. An
// empty parameter matches everything.
func (p *PositionParam) MatchesRegion(g orb.Geometry) bool {
	if len(p.shapes) == 0 {
		return true
	}
	for _, s := range p.shapes {
		if geometry.Intersects(s, g) {
			return true
		}
	}
	return false
}

func (p *PositionParam) shape(v any) (geometry.Shape, error) {
	var s geometry.Shape
	switch x := v.(type) {
	case geometry.Circle:
		s = x
	case geometry.Range:
		s = x
	case geometry.Polygon:
		s = x
	case *geometry.Circle:
		if x != nil {
			s = *x
		}
	case *geometry.Range:
		if x != nil {
			s = *x
		}
	case *geometry.Polygon:
		if x != nil {
			s = *x
		}
	case orb.Bound:
		s = geometry.Range{Lon1: x.Min.X(), Lon2: x.Max.X(), Lat1: x.Min.Y(), Lat2: x.Max.Y()}
	case orb.Ring:
		s = ringPolygon(x)
	case orb.Polygon:
		if len(x) == 0 {
			return nil, dalerr.Validationf(p.keyword, v, "polygon has no rings")
		}
		s = ringPolygon(x[0])
	}
	if s == nil {
		return nil, dalerr.Validationf(p.keyword, v, "expected a Circle, Range or Polygon, got %T", v)
	}
	if err := s.Validate(); err != nil {
		return nil, dalerr.Validationf(p.keyword, v, "%s", err.Error())
	}
	return s, nil
}

// ringPolygon drops the closing vertex of an orb ring.
func ringPolygon(r orb.Ring) geometry.Polygon {
	pts := []orb.Point(r)
	if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return geometry.Polygon{Vertices: append([]orb.Point(nil), pts...)}
}

// ShapeToken returns the POS wire form of a shape.
func ShapeToken(s geometry.Shape) string {
	var nums []float64
	var b strings.Builder
	switch x := s.(type) {
	case geometry.Circle:
		b.WriteString("CIRCLE")
		nums = []float64{x.RA, x.Dec, x.Radius}
	case geometry.Range:
		b.WriteString("RANGE")
		nums = []float64{x.Lon1, x.Lon2, x.Lat1, x.Lat2}
	case geometry.Polygon:
		b.WriteString("POLYGON")
		for _, v := range x.Vertices {
			nums = append(nums, v.X(), v.Y())
		}
	}
	for _, n := range nums {
		b.WriteByte(' ')
		b.WriteString(FormatFloat(n))
	}
	return b.String()
}
