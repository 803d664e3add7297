package quantity

import (
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// SpeedOfLight in m/s.
	SpeedOfLight = 299792458.0
	// planckEVSeconds is the Planck constant in eV*s.
	planckEVSeconds = 4.135667696e-15
)

// Quantity is a numeric value with an attached unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// New returns v in unit u.
func New(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u} }

func (q Quantity) String() string {
	s := strconv.FormatFloat(q.Value, 'g', -1, 64)
	if q.Unit.Name == "" {
		return s
	}
	return s + " " + q.Unit.Name
}

// To converts q to unit u of the same dimension.
func (q Quantity) To(u Unit) (Quantity, error) {
	if q.Unit.Dim != u.Dim {
		return Quantity{}, errors.Newf("cannot convert %s (%s) to %s (%s)", q.Unit, q.Unit.Dim, u, u.Dim)
	}
	if q.Unit == u {
		return q, nil
	}
	return Quantity{Value: q.Value * q.Unit.Scale / u.Scale, Unit: u}, nil
}

// MustTo is To for conversions known to be valid; it panics otherwise.
func (q Quantity) MustTo(u Unit) Quantity {
	c, err := q.To(u)
	if err != nil {
		panic(err)
	}
	return c
}

// ToSpectral converts q to u, additionally allowing conversions between
// wavelength, frequency and photon energy.
func (q Quantity) ToSpectral(u Unit) (Quantity, error) {
	if q.Unit.Dim == u.Dim {
		return q.To(u)
	}
	if !isSpectral(q.Unit.Dim) || !isSpectral(u.Dim) {
		return Quantity{}, errors.Newf("no spectral equivalency between %s and %s", q.Unit, u)
	}

	// Everything goes through Hz.
	hz := q.Value * q.Unit.Scale
	switch q.Unit.Dim {
	case Length:
		hz = SpeedOfLight / hz
	case Energy:
		hz = hz / planckEVSeconds
	}

	v := hz
	switch u.Dim {
	case Length:
		v = SpeedOfLight / hz
	case Energy:
		v = hz * planckEVSeconds
	}
	return Quantity{Value: v / u.Scale, Unit: u}, nil
}

func isSpectral(d Dimension) bool {
	return d == Length || d == Frequency || d == Energy
}

// IsInf reports whether the value is infinite.
func (q Quantity) IsInf() bool { return math.IsInf(q.Value, 0) }

// Modified Julian Date helpers. MJD 0 is 1858-11-17T00:00:00 UTC and the Unix
// epoch falls on MJD 40587.
const unixEpochMJD = 40587.0

// MJDEpoch is the instant of MJD 0.
var MJDEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// ToMJD converts t to a Modified Julian Date.
func ToMJD(t time.Time) float64 {
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return secs/86400 + unixEpochMJD
}

// FromMJD converts a Modified Julian Date to a UTC time, rounded to the
// microsecond.
func FromMJD(mjd float64) time.Time {
	secs := (mjd - unixEpochMJD) * 86400
	whole := math.Floor(secs)
	nsec := math.Round((secs-whole)*1e6) * 1e3
	return time.Unix(int64(whole), int64(nsec)).UTC()
}
