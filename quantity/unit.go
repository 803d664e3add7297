// Package quantity carries dimensioned numeric values for the SIA client:
// a small unit table, conversions within a dimension, the spectral
// equivalency between wavelength, frequency and energy, and helpers for the
// Modified Julian Date time scale used on the wire.
package quantity

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Dimension is the physical dimension of a unit.
type Dimension int

const (
	Dimensionless Dimension = iota
	Length
	Duration
	Angle
	Frequency
	Energy
	DataSize
)

func (d Dimension) String() string {
	switch d {
	case Dimensionless:
		return "dimensionless"
	case Length:
		return "length"
	case Duration:
		return "time"
	case Angle:
		return "angle"
	case Frequency:
		return "frequency"
	case Energy:
		return "energy"
	case DataSize:
		return "data size"
	}
	return "unknown"
}

// Unit is a named unit with its scale relative to the base unit of its
// dimension (m, s, deg, Hz, eV, byte). Units are comparable values.
type Unit struct {
	Name  string
	Dim   Dimension
	Scale float64
}

func (u Unit) String() string { return u.Name }

// Known units.
var (
	One = Unit{"", Dimensionless, 1}

	Meter      = Unit{"m", Length, 1}
	Kilometer  = Unit{"km", Length, 1e3}
	Centimeter = Unit{"cm", Length, 1e-2}
	Millimeter = Unit{"mm", Length, 1e-3}
	Micrometer = Unit{"um", Length, 1e-6}
	Nanometer  = Unit{"nm", Length, 1e-9}
	Angstrom   = Unit{"Angstrom", Length, 1e-10}

	Second      = Unit{"s", Duration, 1}
	Millisecond = Unit{"ms", Duration, 1e-3}
	Minute      = Unit{"min", Duration, 60}
	Hour        = Unit{"h", Duration, 3600}
	Day         = Unit{"d", Duration, 86400}

	Degree         = Unit{"deg", Angle, 1}
	Radian         = Unit{"rad", Angle, 180 / math.Pi}
	Arcminute      = Unit{"arcmin", Angle, 1.0 / 60}
	Arcsecond      = Unit{"arcsec", Angle, 1.0 / 3600}
	Milliarcsecond = Unit{"mas", Angle, 1.0 / 3600e3}

	Hertz     = Unit{"Hz", Frequency, 1}
	Kilohertz = Unit{"kHz", Frequency, 1e3}
	Megahertz = Unit{"MHz", Frequency, 1e6}
	Gigahertz = Unit{"GHz", Frequency, 1e9}

	ElectronVolt     = Unit{"eV", Energy, 1}
	KiloElectronVolt = Unit{"keV", Energy, 1e3}

	Byte     = Unit{"byte", DataSize, 1}
	Kilobyte = Unit{"kB", DataSize, 1e3}
)

var unitsByName = map[string]Unit{}

func init() {
	for _, u := range []Unit{
		Meter, Kilometer, Centimeter, Millimeter, Micrometer, Nanometer, Angstrom,
		Second, Millisecond, Minute, Hour, Day,
		Degree, Radian, Arcminute, Arcsecond, Milliarcsecond,
		Hertz, Kilohertz, Megahertz, Gigahertz,
		ElectronVolt, KiloElectronVolt,
		Byte, Kilobyte,
	} {
		unitsByName[u.Name] = u
	}
	aliases := map[string]Unit{
		"micron":   Micrometer,
		"µm":       Micrometer,
		"angstrom": Angstrom,
		"AA":       Angstrom,
		"sec":      Second,
		"day":      Day,
		"degree":   Degree,
		"kbyte":    Kilobyte,
		"B":        Byte,
	}
	for name, u := range aliases {
		unitsByName[name] = u
	}
}

// ParseUnit looks a unit up by its symbol as found in VOTable FIELD unit
// attributes. The empty string is the dimensionless unit.
func ParseUnit(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return One, nil
	}
	if u, ok := unitsByName[s]; ok {
		return u, nil
	}
	return Unit{}, errors.Newf("unknown unit %q", s)
}
