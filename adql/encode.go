// Package adql translates SIA v2 constraints into the equivalent ObsTAP
// ADQL query over an ObsCore table, following the SIA-to-ObsCore column
// mapping. It lets the same search run against a TAP service or be logged
// in a form archive operators can replay.
package adql

import (
	"math"
	"strconv"
	"strings"

	"github.com/hugr-lab/sia-go/geometry"
	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/param"
)

// DefaultTable is the standard ObsCore table name.
const DefaultTable = "ivoa.obscore"

// Options configures encoding behavior.
type Options struct {
	// Table is the queried table.
	// Defaults to DefaultTable.
	Table string

	// Columns is the select list. Empty selects all columns.
	Columns []string

	// ColumnMapping maps ObsCore column names to target names.
	// Columns not in the map use their ObsCore names.
	ColumnMapping map[string]string
}

// Encoder converts a parameter registry into ADQL.
type Encoder struct {
	opts Options
}

// NewEncoder creates an ADQL encoder. If opts is nil, default options are
// used.
func NewEncoder(opts *Options) *Encoder {
	e := &Encoder{}
	if opts != nil {
		e.opts = *opts
	}
	if e.opts.Table == "" {
		e.opts.Table = DefaultTable
	}
	return e
}

// Encode returns the full SELECT statement for the registry. MAXREC
// becomes a TOP clause.
func (e *Encoder) Encode(reg *param.Registry) string {
	var sb strings.Builder
	sb.WriteString("SELECT")
	if n, ok := reg.MaxRec(); ok {
		sb.WriteString(" TOP ")
		sb.WriteString(strconv.Itoa(n))
	}

	sb.WriteString(" ")
	if len(e.opts.Columns) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(e.opts.Columns))
		for i, c := range e.opts.Columns {
			cols[i] = e.column(c)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}

	sb.WriteString("\nFROM ")
	sb.WriteString(quoteIdentifier(e.opts.Table))

	if where := e.EncodeFilters(reg); where != "" {
		sb.WriteString("\nWHERE ")
		sb.WriteString(where)
	}
	return sb.String()
}

// EncodeFilters converts all constraints to a WHERE clause body, one
// parenthesized condition per axis joined with AND. Returns an empty string
// when nothing is constrained.
func (e *Encoder) EncodeFilters(reg *param.Registry) string {
	var parts []string
	for _, a := range param.Axes() {
		if cond := e.EncodeAxis(reg, a); cond != "" {
			parts = append(parts, cond)
		}
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ")\n  AND (") + ")"
}

// EncodeAxis converts the values of one axis to a condition; the values
// are OR-ed. Returns an empty string for an unconstrained axis.
func (e *Encoder) EncodeAxis(reg *param.Registry, a param.Axis) string {
	switch a {
	case param.Pos:
		return e.encodePosition(reg.Position().Values())
	case param.Band:
		return e.encodeOverlap(reg.Interval(a).Values(), obscore.ColSpectralMin, obscore.ColSpectralMax)
	case param.Time:
		return e.encodeOverlap(reg.Interval(a).Values(), obscore.ColTimeMin, obscore.ColTimeMax)
	case param.Pol:
		return e.encodePol(reg.Enum(a).Values())
	case param.FOV:
		return e.encodeRange(reg.Interval(a).Values(), obscore.ColFOV)
	case param.SpatRes:
		return e.encodeRange(reg.Interval(a).Values(), obscore.ColSpatialResolution)
	case param.SpecRP:
		return e.encodeRange(reg.Interval(a).Values(), obscore.ColResolvingPower)
	case param.ExpTime:
		return e.encodeRange(reg.Interval(a).Values(), obscore.ColExpTime)
	case param.TimeRes:
		return e.encodeRange(reg.Interval(a).Values(), obscore.ColTimeResolution)
	case param.Calib:
		return e.encodeIn(obscore.ColCalibLevel, reg.Enum(a).Values(), false)
	}
	if col, ok := stringColumns[a]; ok {
		return e.encodeIn(col, reg.StringSet(a).Values(), true)
	}
	return ""
}

// stringColumns maps string-set axes to their ObsCore column.
var stringColumns = map[param.Axis]string{
	param.ID:         obscore.ColPublisherDID,
	param.Facility:   obscore.ColFacility,
	param.Collection: obscore.ColCollection,
	param.Instrument: obscore.ColInstrument,
	param.DataType:   obscore.ColDataType,
	param.Target:     obscore.ColTargetName,
	param.Format:     obscore.ColAccessFormat,
}

// column returns the target name of an ObsCore column.
func (e *Encoder) column(name string) string {
	if mapped, ok := e.opts.ColumnMapping[name]; ok {
		name = mapped
	}
	return quoteIdentifier(name)
}

func (e *Encoder) encodeIn(col string, values []string, text bool) string {
	if len(values) == 0 {
		return ""
	}
	lits := make([]string, len(values))
	for i, v := range values {
		if text {
			lits[i] = quoteLiteral(v)
		} else {
			lits[i] = v
		}
	}
	if len(lits) == 1 {
		return e.column(col) + " = " + lits[0]
	}
	return e.column(col) + " IN (" + strings.Join(lits, ", ") + ")"
}

// encodeRange matches a scalar column inside any of the intervals.
func (e *Encoder) encodeRange(values []param.Interval, col string) string {
	c := e.column(col)
	conds := make([]string, 0, len(values))
	for _, v := range values {
		loOpen, hiOpen := math.IsInf(v.Lo, -1), math.IsInf(v.Hi, 1)
		switch {
		case loOpen && hiOpen:
			conds = append(conds, c+" IS NOT NULL")
		case loOpen:
			conds = append(conds, c+" <= "+numberLiteral(v.Hi))
		case hiOpen:
			conds = append(conds, c+" >= "+numberLiteral(v.Lo))
		default:
			conds = append(conds, c+" BETWEEN "+numberLiteral(v.Lo)+" AND "+numberLiteral(v.Hi))
		}
	}
	return or(conds)
}

// encodeOverlap matches a [minCol, maxCol] column pair overlapping any of
// the intervals.
func (e *Encoder) encodeOverlap(values []param.Interval, minCol, maxCol string) string {
	lo, hi := e.column(minCol), e.column(maxCol)
	conds := make([]string, 0, len(values))
	for _, v := range values {
		var terms []string
		if !math.IsInf(v.Hi, 1) {
			terms = append(terms, lo+" <= "+numberLiteral(v.Hi))
		}
		if !math.IsInf(v.Lo, -1) {
			terms = append(terms, hi+" >= "+numberLiteral(v.Lo))
		}
		if len(terms) == 0 {
			terms = append(terms, lo+" IS NOT NULL")
		}
		cond := strings.Join(terms, " AND ")
		if len(terms) > 1 && len(values) > 1 {
			cond = "(" + cond + ")"
		}
		conds = append(conds, cond)
	}
	return or(conds)
}

func (e *Encoder) encodePol(states []string) string {
	conds := make([]string, len(states))
	for i, s := range states {
		conds[i] = e.column(obscore.ColPolStates) + " LIKE " + quoteLiteral("%/"+s+"/%")
	}
	return or(conds)
}

// encodePosition intersects s_region with circles and polygons. Ranges
// constrain the s_ra/s_dec center, with open ends dropped.
func (e *Encoder) encodePosition(shapes []geometry.Shape) string {
	conds := make([]string, 0, len(shapes))
	region := e.column(obscore.ColRegion)
	for _, s := range shapes {
		switch s := s.(type) {
		case geometry.Circle:
			conds = append(conds, "1 = INTERSECTS("+region+", CIRCLE('ICRS', "+
				numberLiteral(s.RA)+", "+numberLiteral(s.Dec)+", "+numberLiteral(s.Radius)+"))")
		case geometry.Polygon:
			coords := make([]string, 0, 2*len(s.Vertices))
			for _, v := range s.Vertices {
				coords = append(coords, numberLiteral(v.X()), numberLiteral(v.Y()))
			}
			conds = append(conds, "1 = INTERSECTS("+region+", POLYGON('ICRS', "+strings.Join(coords, ", ")+"))")
		case geometry.Range:
			ra := e.encodeRange([]param.Interval{{Lo: s.Lon1, Hi: s.Lon2}}, obscore.ColRA)
			dec := e.encodeRange([]param.Interval{{Lo: s.Lat1, Hi: s.Lat2}}, obscore.ColDec)
			cond := ra + " AND " + dec
			if len(shapes) > 1 {
				cond = "(" + cond + ")"
			}
			conds = append(conds, cond)
		}
	}
	return or(conds)
}

func or(conds []string) string {
	switch len(conds) {
	case 0:
		return ""
	case 1:
		return conds[0]
	}
	return strings.Join(conds, " OR ")
}
