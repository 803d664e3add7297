package obscore

import (
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/geometry"
	"github.com/hugr-lab/sia-go/quantity"
)

// Observation and target.

// DataType is the data product type (image, cube, ...).
func (m Metadata) DataType() (string, error) { return m.str(ColDataType) }

func (m Metadata) DataSubtype() (string, bool) { return m.optStr(ColDataSubtype) }

// CalibLevel is the calibration level, 0 to 4.
func (m Metadata) CalibLevel() (int, error) {
	n, err := m.int(ColCalibLevel)
	return int(n), err
}

func (m Metadata) TargetName() (string, error) { return m.str(ColTargetName) }

func (m Metadata) TargetClass() (string, bool) { return m.optStr(ColTargetClass) }

func (m Metadata) ObsID() (string, error) { return m.str(ColObsID) }

func (m Metadata) Title() (string, bool) { return m.optStr(ColTitle) }

func (m Metadata) Collection() (string, error) { return m.str(ColCollection) }

func (m Metadata) CreateDate() (time.Time, bool) { return m.optTime(ColCreateDate) }

func (m Metadata) CreatorName() (string, bool) { return m.optStr(ColCreatorName) }

func (m Metadata) CreatorDID() (string, bool) { return m.optStr(ColCreatorDID) }

func (m Metadata) ReleaseDate() (time.Time, bool) { return m.optTime(ColReleaseDate) }

// GlobalID is the publisher dataset identifier (obs_publisher_did).
func (m Metadata) GlobalID() (string, error) { return m.str(ColPublisherDID) }

func (m Metadata) PublisherID() (string, bool) { return m.optStr(ColPublisherID) }

func (m Metadata) BibReference() (string, bool) { return m.optStr(ColBibReference) }

func (m Metadata) DataRights() (string, bool) { return m.optStr(ColDataRights) }

// Access.

func (m Metadata) AccessURL() (string, error) { return m.str(ColAccessURL) }

func (m Metadata) AccessFormat() (string, error) { return m.str(ColAccessFormat) }

// AccessEstSize is the estimated download size in bytes. The column is
// published in kB.
func (m Metadata) AccessEstSize() (quantity.Quantity, error) {
	q, err := m.quantity(ColAccessEstSize, quantity.Kilobyte)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return q.MustTo(quantity.Byte), nil
}

// Spatial axis.

// Pos is the ICRS position of the observation center.
func (m Metadata) Pos() (geometry.SkyCoord, error) {
	ra, err := m.quantity(ColRA, quantity.Degree)
	if err != nil {
		return geometry.SkyCoord{}, err
	}
	dec, err := m.quantity(ColDec, quantity.Degree)
	if err != nil {
		return geometry.SkyCoord{}, err
	}
	return geometry.SkyCoord{RA: ra, Dec: dec, Frame: geometry.ICRS}, nil
}

// Radius is half of the field of view.
func (m Metadata) Radius() (quantity.Quantity, error) {
	fov, err := m.quantity(ColFOV, quantity.Degree)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return quantity.New(fov.Value/2, quantity.Degree), nil
}

// Region is the raw s_region value as text.
func (m Metadata) Region() (string, error) { return m.str(ColRegion) }

// RegionShape decodes s_region. Text is read as STC-S, binary values as
// WKB.
func (m Metadata) RegionShape() (orb.Geometry, error) {
	v, err := m.lookup(ColRegion)
	if err != nil {
		return nil, err
	}
	var g orb.Geometry
	if b, ok := v.([]byte); ok {
		g, err = geometry.DecodeWKB(b)
	} else {
		g, err = geometry.ParseSTCS(toString(v))
	}
	if err != nil {
		return nil, invalid(ColRegion, v, err)
	}
	return g, nil
}

func (m Metadata) SpatialResolution() (quantity.Quantity, error) {
	return m.quantity(ColSpatialResolution, quantity.Arcsecond)
}

// SpatialXel is the number of pixels along each spatial axis.
func (m Metadata) SpatialXel() ([2]int64, error) {
	x1, err := m.int(ColXel1)
	if err != nil {
		return [2]int64{}, err
	}
	x2, err := m.int(ColXel2)
	if err != nil {
		return [2]int64{}, err
	}
	return [2]int64{x1, x2}, nil
}

func (m Metadata) SpatialUCD() (string, bool) { return m.optStr(ColSpatialUCD) }

func (m Metadata) SpatialUnit() (string, bool) { return m.optStr(ColSpatialUnit) }

func (m Metadata) ResolutionMin() (quantity.Quantity, bool) {
	return m.optQuantity(ColResolutionMin, quantity.Arcsecond)
}

func (m Metadata) ResolutionMax() (quantity.Quantity, bool) {
	return m.optQuantity(ColResolutionMax, quantity.Arcsecond)
}

func (m Metadata) SpatialCalibStatus() (string, bool) { return m.optStr(ColSpatialCalibStatus) }

func (m Metadata) SpatialStatError() (quantity.Quantity, bool) {
	return m.optQuantity(ColSpatialStatError, quantity.Arcsecond)
}

func (m Metadata) PixelScale() (quantity.Quantity, bool) {
	return m.optQuantity(ColPixelScale, quantity.Arcsecond)
}

// Time axis.

func (m Metadata) TimeXel() (int64, error) { return m.int(ColTimeXel) }

func (m Metadata) RefPos() (string, bool) { return m.optStr(ColRefPos) }

// TimeBounds converts t_min and t_max from MJD.
func (m Metadata) TimeBounds() ([2]time.Time, error) {
	lo, err := m.mjd(ColTimeMin)
	if err != nil {
		return [2]time.Time{}, err
	}
	hi, err := m.mjd(ColTimeMax)
	if err != nil {
		return [2]time.Time{}, err
	}
	return [2]time.Time{lo, hi}, nil
}

func (m Metadata) ExpTime() (quantity.Quantity, error) {
	return m.quantity(ColExpTime, quantity.Second)
}

func (m Metadata) TimeResolution() (quantity.Quantity, error) {
	return m.quantity(ColTimeResolution, quantity.Second)
}

func (m Metadata) TimeCalibStatus() (string, bool) { return m.optStr(ColTimeCalibStatus) }

func (m Metadata) TimeStatError() (quantity.Quantity, bool) {
	return m.optQuantity(ColTimeStatError, quantity.Second)
}

// Spectral axis.

func (m Metadata) SpectralXel() (int64, error) { return m.int(ColSpectralXel) }

func (m Metadata) SpectralUCD() (string, bool) { return m.optStr(ColSpectralUCD) }

func (m Metadata) SpectralUnit() (string, bool) { return m.optStr(ColSpectralUnit) }

func (m Metadata) SpectralCalibStatus() (string, bool) { return m.optStr(ColSpectralCalibStatus) }

// SpectralBounds are em_min and em_max as wavelengths.
func (m Metadata) SpectralBounds() ([2]quantity.Quantity, error) {
	lo, err := m.quantity(ColSpectralMin, quantity.Meter)
	if err != nil {
		return [2]quantity.Quantity{}, err
	}
	hi, err := m.quantity(ColSpectralMax, quantity.Meter)
	if err != nil {
		return [2]quantity.Quantity{}, err
	}
	return [2]quantity.Quantity{lo, hi}, nil
}

func (m Metadata) ResolvingPower() (float64, error) { return m.float(ColResolvingPower) }

func (m Metadata) ResolvingPowerMin() (float64, bool) { return m.optFloat(ColResolvingPowerMin) }

func (m Metadata) ResolvingPowerMax() (float64, bool) { return m.optFloat(ColResolvingPowerMax) }

func (m Metadata) SpectralResolution() (quantity.Quantity, bool) {
	return m.optQuantity(ColSpectralResolution, quantity.Meter)
}

func (m Metadata) SpectralStatError() (quantity.Quantity, bool) {
	return m.optQuantity(ColSpectralStatError, quantity.Meter)
}

// Observable axis.

func (m Metadata) ObsUCD() (string, bool) { return m.optStr(ColObsUCD) }

func (m Metadata) ObsUnit() (string, bool) { return m.optStr(ColObsUnit) }

func (m Metadata) ObsCalibStatus() (string, bool) { return m.optStr(ColObsCalibStatus) }

func (m Metadata) ObsStatError() (float64, bool) { return m.optFloat(ColObsStatError) }

// Polarization axis.

func (m Metadata) PolXel() (int64, error) { return m.int(ColPolXel) }

// Pol is the raw pol_states value, e.g. "/I/Q/U/".
func (m Metadata) Pol() (string, bool) { return m.optStr(ColPolStates) }

// PolStates splits pol_states into its states.
func (m Metadata) PolStates() ([]string, bool) {
	raw, ok := m.Pol()
	if !ok {
		return nil, false
	}
	return ParsePolStates(raw), true
}

// ParsePolStates splits a slash-separated polarization list. Empty
// segments are dropped.
func ParsePolStates(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "/") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Provenance.

func (m Metadata) Instrument() (string, error) { return m.str(ColInstrument) }

func (m Metadata) Facility() (string, bool) { return m.optStr(ColFacility) }

func (m Metadata) ProposalID() (string, bool) { return m.optStr(ColProposalID) }

// Missing lists the mandatory columns absent or null in the row.
func (m Metadata) Missing() []*dalerr.MissingFieldError {
	var missing []*dalerr.MissingFieldError
	for _, c := range columns {
		if !c.Mandatory {
			continue
		}
		if _, err := m.lookup(c.Name); err != nil {
			missing = append(missing, err.(*dalerr.MissingFieldError))
		}
	}
	return missing
}
