package param

import (
	"strings"

	"github.com/hugr-lab/sia-go/quantity"
)

// Axis identifies one constraint slot of a query.
type Axis int

// Axes in wire order.
const (
	Pos Axis = iota
	Band
	Time
	Pol
	FOV
	SpatRes
	SpecRP
	ExpTime
	TimeRes
	ID
	Facility
	Collection
	Instrument
	DataType
	Calib
	Target
	Format

	numAxes
)

// MaxRecKeyword is the keyword of the result cap.
const MaxRecKeyword = "MAXREC"

type axisDef struct {
	keyword string
	name    string
	kind    Kind
	unit    quantity.Unit
}

var axisTable = [numAxes]axisDef{
	Pos:        {"POS", "position", KindPosition, quantity.Degree},
	Band:       {"BAND", "band", KindInterval, quantity.Meter},
	Time:       {"TIME", "time", KindInterval, quantity.Day},
	Pol:        {"POL", "pol", KindEnum, quantity.One},
	FOV:        {"FOV", "field_of_view", KindInterval, quantity.Degree},
	SpatRes:    {"SPATRES", "spatial_resolution", KindInterval, quantity.Arcsecond},
	SpecRP:     {"SPECRP", "spectral_resolving_power", KindInterval, quantity.One},
	ExpTime:    {"EXPTIME", "exptime", KindInterval, quantity.Second},
	TimeRes:    {"TIMERES", "timeres", KindInterval, quantity.Second},
	ID:         {"ID", "publisher_did", KindStringSet, quantity.One},
	Facility:   {"FACILITY", "facility", KindStringSet, quantity.One},
	Collection: {"COLLECTION", "collection", KindStringSet, quantity.One},
	Instrument: {"INSTRUMENT", "instrument", KindStringSet, quantity.One},
	DataType:   {"DPTYPE", "data_type", KindStringSet, quantity.One},
	Calib:      {"CALIB", "calib_level", KindEnum, quantity.One},
	Target:     {"TARGET", "target_name", KindStringSet, quantity.One},
	Format:     {"FORMAT", "res_format", KindStringSet, quantity.One},
}

// Axes returns every axis in wire order.
func Axes() []Axis {
	out := make([]Axis, numAxes)
	for i := range out {
		out[i] = Axis(i)
	}
	return out
}

// Valid reports whether a is a known axis.
func (a Axis) Valid() bool { return a >= 0 && a < numAxes }

// String returns the snake_case name of the axis.
func (a Axis) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return axisTable[a].name
}

// Kind returns the value kind of the axis.
func (a Axis) Kind() Kind { return axisTable[a].kind }

// Unit returns the default unit of the axis.
func (a Axis) Unit() quantity.Unit { return axisTable[a].unit }

// KeywordFor returns the wire keyword of an axis, or "" for an unknown axis.
func KeywordFor(a Axis) string {
	if !a.Valid() {
		return ""
	}
	return axisTable[a].keyword
}

// AxisFor resolves a wire keyword or an axis name, case-insensitively.
func AxisFor(name string) (Axis, bool) {
	for i, def := range axisTable {
		if strings.EqualFold(name, def.keyword) || strings.EqualFold(name, def.name) {
			return Axis(i), true
		}
	}
	return 0, false
}
