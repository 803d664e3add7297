package obscore

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/sia-go/table"
)

// ObsCore column names.
const (
	ColDataType            = "dataproduct_type"
	ColDataSubtype         = "dataproduct_subtype"
	ColCalibLevel          = "calib_level"
	ColTargetName          = "target_name"
	ColTargetClass         = "target_class"
	ColObsID               = "obs_id"
	ColTitle               = "obs_title"
	ColCollection          = "obs_collection"
	ColCreateDate          = "obs_create_date"
	ColCreatorName         = "obs_creator_name"
	ColCreatorDID          = "obs_creator_did"
	ColReleaseDate         = "obs_release_date"
	ColPublisherDID        = "obs_publisher_did"
	ColPublisherID         = "publisher_id"
	ColBibReference        = "bib_reference"
	ColDataRights          = "data_rights"
	ColAccessURL           = "access_url"
	ColAccessFormat        = "access_format"
	ColAccessEstSize       = "access_estsize"
	ColRA                  = "s_ra"
	ColDec                 = "s_dec"
	ColFOV                 = "s_fov"
	ColRegion              = "s_region"
	ColSpatialResolution   = "s_resolution"
	ColXel1                = "s_xel1"
	ColXel2                = "s_xel2"
	ColSpatialUCD          = "s_ucd"
	ColSpatialUnit         = "s_unit"
	ColResolutionMin       = "s_resolution_min"
	ColResolutionMax       = "s_resolution_max"
	ColSpatialCalibStatus  = "s_calib_status"
	ColSpatialStatError    = "s_stat_error"
	ColPixelScale          = "s_pixel_scale"
	ColTimeXel             = "t_xel"
	ColRefPos              = "t_ref_pos"
	ColTimeMin             = "t_min"
	ColTimeMax             = "t_max"
	ColExpTime             = "t_exptime"
	ColTimeResolution      = "t_resolution"
	ColTimeCalibStatus     = "t_calib_status"
	ColTimeStatError       = "t_stat_error"
	ColSpectralXel         = "em_xel"
	ColSpectralUCD         = "em_ucd"
	ColSpectralUnit        = "em_unit"
	ColSpectralCalibStatus = "em_calib_status"
	ColSpectralMin         = "em_min"
	ColSpectralMax         = "em_max"
	ColResolvingPower      = "em_res_power"
	ColResolvingPowerMin   = "em_res_power_min"
	ColResolvingPowerMax   = "em_res_power_max"
	ColSpectralResolution  = "em_resolution"
	ColSpectralStatError   = "em_stat_error"
	ColObsUCD              = "o_ucd"
	ColObsUnit             = "o_unit"
	ColObsCalibStatus      = "o_calib_status"
	ColObsStatError        = "o_stat_error"
	ColPolXel              = "pol_xel"
	ColPolStates           = "pol_states"
	ColFacility            = "facility_name"
	ColInstrument          = "instrument_name"
	ColProposalID          = "proposal_id"
)

// Column describes one ObsCore column.
type Column struct {
	Name      string
	Type      arrow.DataType
	Unit      string
	Mandatory bool
}

var (
	tString  = arrow.BinaryTypes.String
	tFloat64 = arrow.PrimitiveTypes.Float64
	tInt64   = arrow.PrimitiveTypes.Int64
)

var columns = []Column{
	{ColDataType, tString, "", true},
	{ColDataSubtype, tString, "", false},
	{ColCalibLevel, tInt64, "", true},
	{ColCollection, tString, "", true},
	{ColObsID, tString, "", true},
	{ColTitle, tString, "", false},
	{ColCreateDate, tString, "", false},
	{ColCreatorName, tString, "", false},
	{ColCreatorDID, tString, "", false},
	{ColReleaseDate, tString, "", false},
	{ColPublisherDID, tString, "", true},
	{ColPublisherID, tString, "", false},
	{ColBibReference, tString, "", false},
	{ColDataRights, tString, "", false},
	{ColAccessURL, tString, "", true},
	{ColAccessFormat, tString, "", true},
	{ColAccessEstSize, tInt64, "kbyte", true},
	{ColTargetName, tString, "", true},
	{ColTargetClass, tString, "", false},
	{ColRA, tFloat64, "deg", true},
	{ColDec, tFloat64, "deg", true},
	{ColFOV, tFloat64, "deg", true},
	{ColRegion, tString, "", true},
	{ColSpatialResolution, tFloat64, "arcsec", true},
	{ColXel1, tInt64, "", true},
	{ColXel2, tInt64, "", true},
	{ColSpatialUCD, tString, "", false},
	{ColSpatialUnit, tString, "", false},
	{ColResolutionMin, tFloat64, "arcsec", false},
	{ColResolutionMax, tFloat64, "arcsec", false},
	{ColSpatialCalibStatus, tString, "", false},
	{ColSpatialStatError, tFloat64, "arcsec", false},
	{ColPixelScale, tFloat64, "arcsec", false},
	{ColTimeXel, tInt64, "", true},
	{ColRefPos, tString, "", false},
	{ColTimeMin, tFloat64, "d", true},
	{ColTimeMax, tFloat64, "d", true},
	{ColExpTime, tFloat64, "s", true},
	{ColTimeResolution, tFloat64, "s", true},
	{ColTimeCalibStatus, tString, "", false},
	{ColTimeStatError, tFloat64, "s", false},
	{ColSpectralXel, tInt64, "", true},
	{ColSpectralUCD, tString, "", false},
	{ColSpectralUnit, tString, "", false},
	{ColSpectralCalibStatus, tString, "", false},
	{ColSpectralMin, tFloat64, "m", true},
	{ColSpectralMax, tFloat64, "m", true},
	{ColResolvingPower, tFloat64, "", true},
	{ColResolvingPowerMin, tFloat64, "", false},
	{ColResolvingPowerMax, tFloat64, "", false},
	{ColSpectralResolution, tFloat64, "m", false},
	{ColSpectralStatError, tFloat64, "m", false},
	{ColObsUCD, tString, "", false},
	{ColObsUnit, tString, "", false},
	{ColObsCalibStatus, tString, "", false},
	{ColObsStatError, tFloat64, "", false},
	{ColPolXel, tInt64, "", true},
	{ColPolStates, tString, "", false},
	{ColFacility, tString, "", false},
	{ColInstrument, tString, "", true},
	{ColProposalID, tString, "", false},
}

// Columns returns the ObsCore column catalogue.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// ColumnTypes returns the Arrow type of every ObsCore column. It is meant
// for table.Options.ColumnTypes so CSV responses keep identifiers such as
// obs_id as text even when they look numeric.
func ColumnTypes() map[string]arrow.DataType {
	m := make(map[string]arrow.DataType, len(columns))
	for _, c := range columns {
		m[c.Name] = c.Type
	}
	return m
}

// Schema returns an Arrow schema with the named ObsCore columns, in the
// given order, carrying their units as field metadata. With no names the
// full catalogue is used. Unknown names are skipped.
func Schema(names ...string) *arrow.Schema {
	byName := make(map[string]Column, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	if len(names) == 0 {
		for _, c := range columns {
			names = append(names, c.Name)
		}
	}

	fields := make([]arrow.Field, 0, len(names))
	for _, n := range names {
		c, ok := byName[n]
		if !ok {
			continue
		}
		f := arrow.Field{Name: c.Name, Type: c.Type, Nullable: true}
		if c.Unit != "" {
			f.Metadata = arrow.MetadataFrom(map[string]string{table.MetaUnit: c.Unit})
		}
		fields = append(fields, f)
	}
	return arrow.NewSchema(fields, nil)
}
