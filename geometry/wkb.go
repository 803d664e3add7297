package geometry

import (
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// EncodeWKB converts a geometry to WKB, the binary form archives use for
// region columns.
func EncodeWKB(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, errors.New("cannot encode nil geometry")
	}
	if err := Validate(geom); err != nil {
		return nil, err
	}
	return wkb.Marshal(geom)
}

// DecodeWKB converts WKB bytes to a geometry.
func DecodeWKB(b []byte) (orb.Geometry, error) {
	if len(b) == 0 {
		return nil, errors.New("cannot decode empty WKB data")
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, errors.Wrap(err, "decode WKB region")
	}
	return g, nil
}

// Validate checks that a region geometry is well formed.
func Validate(geom orb.Geometry) error {
	if geom == nil {
		return errors.New("geometry is nil")
	}

	switch g := geom.(type) {
	case orb.Point:
		return nil

	case orb.Polygon:
		if len(g) == 0 {
			return errors.New("polygon has no rings")
		}
		for i, ring := range g {
			if len(ring) < 4 {
				return errors.Newf("polygon ring %d must have at least 4 points, has %d", i, len(ring))
			}
			if !ring.Closed() {
				return errors.Newf("polygon ring %d is not closed", i)
			}
		}
		return nil

	case orb.MultiPolygon:
		if len(g) == 0 {
			return errors.New("multipolygon is empty")
		}
		for i, poly := range g {
			if err := Validate(poly); err != nil {
				return errors.Wrapf(err, "multipolygon[%d]", i)
			}
		}
		return nil

	case orb.Collection:
		if len(g) == 0 {
			return errors.New("geometry collection is empty")
		}
		for i, sub := range g {
			if err := Validate(sub); err != nil {
				return errors.Wrapf(err, "collection[%d]", i)
			}
		}
		return nil

	case orb.Bound:
		return errors.New("bounds cannot be stored as WKB, convert to polygon")
	}
	return errors.Newf("unsupported region geometry %T", geom)
}
