package obscore

import (
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/geometry"
	"github.com/hugr-lab/sia-go/quantity"
	"github.com/hugr-lab/sia-go/table"
)

type row map[string]any

func (r row) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

type unitRow struct {
	row
	units map[string]string
}

func (u unitRow) Unit(name string) string { return u.units[name] }

func TestMandatoryMissing(t *testing.T) {
	m := New(row{ColObsID: nil})

	_, err := m.ObsID()
	require.Error(t, err)
	var merr *dalerr.MissingFieldError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, ColObsID, merr.Column)
	assert.True(t, merr.Null)

	_, err = m.Collection()
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, ColCollection, merr.Column)
	assert.False(t, merr.Null)
	assert.True(t, errors.Is(err, dalerr.ErrMissingField))

	_, err = m.Pos()
	assert.True(t, errors.Is(err, dalerr.ErrMissingField))
	_, err = New(nil).ObsID()
	assert.True(t, errors.Is(err, dalerr.ErrMissingField))
}

func TestOptionalAbsent(t *testing.T) {
	m := New(row{ColTitle: nil})

	_, ok := m.Title()
	assert.False(t, ok)
	_, ok = m.DataSubtype()
	assert.False(t, ok)
	_, ok = m.PixelScale()
	assert.False(t, ok)
	_, ok = m.ReleaseDate()
	assert.False(t, ok)
	_, ok = m.PolStates()
	assert.False(t, ok)
	_, ok = m.ResolvingPowerMin()
	assert.False(t, ok)
}

func TestStrings(t *testing.T) {
	m := New(row{
		ColObsID:       int64(12345),
		ColTargetName:  []byte("M31"),
		ColInstrument:  "ACS/WFC",
		ColTargetClass: "galaxy",
	})

	id, err := m.ObsID()
	require.NoError(t, err)
	assert.Equal(t, "12345", id)

	target, err := m.TargetName()
	require.NoError(t, err)
	assert.Equal(t, "M31", target)

	inst, err := m.Instrument()
	require.NoError(t, err)
	assert.Equal(t, "ACS/WFC", inst)

	class, ok := m.TargetClass()
	assert.True(t, ok)
	assert.Equal(t, "galaxy", class)
}

func TestCalibLevel(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr error
	}{
		{"int64", int64(2), 2, nil},
		{"string", " 3 ", 3, nil},
		{"integral float", 1.0, 1, nil},
		{"fractional float", 1.5, 0, dalerr.ErrFormat},
		{"text", "high", 0, dalerr.ErrFormat},
		{"null", nil, 0, dalerr.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(row{ColCalibLevel: tt.value}).CalibLevel()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantities(t *testing.T) {
	m := New(row{
		ColAccessEstSize:     int64(150),
		ColRA:                10.5,
		ColDec:               -5.25,
		ColFOV:               0.5,
		ColSpatialResolution: "0.1",
		ColExpTime:           int64(300),
		ColTimeResolution:    1.5,
		ColSpectralMin:       4e-7,
		ColSpectralMax:       7e-7,
		ColSpectralStatError: 1e-10,
		ColResolvingPower:    2000.0,
	})

	size, err := m.AccessEstSize()
	require.NoError(t, err)
	assert.Equal(t, quantity.Byte, size.Unit)
	assert.InDelta(t, 150000, size.Value, 1e-9)

	pos, err := m.Pos()
	require.NoError(t, err)
	assert.Equal(t, geometry.ICRS, pos.Frame)
	assert.Equal(t, orb.Point{10.5, -5.25}, pos.Point())

	r, err := m.Radius()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(0.25, quantity.Degree), r)

	res, err := m.SpatialResolution()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(0.1, quantity.Arcsecond), res)

	exp, err := m.ExpTime()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(300, quantity.Second), exp)

	tres, err := m.TimeResolution()
	require.NoError(t, err)
	assert.Equal(t, quantity.Second, tres.Unit)

	em, err := m.SpectralBounds()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(4e-7, quantity.Meter), em[0])
	assert.Equal(t, quantity.New(7e-7, quantity.Meter), em[1])

	stat, ok := m.SpectralStatError()
	assert.True(t, ok)
	assert.Equal(t, quantity.Meter, stat.Unit)

	rp, err := m.ResolvingPower()
	require.NoError(t, err)
	assert.Equal(t, 2000.0, rp)
}

func TestDeclaredUnits(t *testing.T) {
	m := New(unitRow{
		row: row{
			ColFOV:               30.0,
			ColSpatialResolution: 500.0,
			ColExpTime:           2.0,
			ColAccessEstSize:     int64(3),
		},
		units: map[string]string{
			ColFOV:               "arcmin",
			ColSpatialResolution: "mas",
			ColExpTime:           "furlong",
			ColAccessEstSize:     "kbyte",
		},
	})

	r, err := m.Radius()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, r.Value, 1e-12)

	res, err := m.SpatialResolution()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Value, 1e-12)
	assert.Equal(t, quantity.Arcsecond, res.Unit)

	// unknown unit: the documented one is assumed
	exp, err := m.ExpTime()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(2, quantity.Second), exp)

	size, err := m.AccessEstSize()
	require.NoError(t, err)
	assert.InDelta(t, 3000, size.Value, 1e-9)
}

func TestTimes(t *testing.T) {
	m := New(row{
		ColTimeMin:     51544.5,
		ColTimeMax:     "51545.5",
		ColReleaseDate: "2020-05-01T10:30:00",
		ColCreateDate:  "2019-12-31",
	})

	bounds, err := m.TimeBounds()
	require.NoError(t, err)
	assert.True(t, bounds[0].Equal(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, bounds[1].Equal(time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC)))

	rel, ok := m.ReleaseDate()
	assert.True(t, ok)
	assert.True(t, rel.Equal(time.Date(2020, 5, 1, 10, 30, 0, 0, time.UTC)))

	created, ok := m.CreateDate()
	assert.True(t, ok)
	assert.Equal(t, 2019, created.Year())
}

func TestRegionShape(t *testing.T) {
	m := New(row{ColRegion: "Polygon ICRS 10 10 11 10 11 11"})
	raw, err := m.Region()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "Polygon"))

	g, err := m.RegionShape()
	require.NoError(t, err)
	poly, ok := g.(orb.Polygon)
	require.True(t, ok)
	assert.True(t, poly[0].Closed())

	wkb, err := geometry.EncodeWKB(orb.Point{10, 20})
	require.NoError(t, err)
	g, err = New(row{ColRegion: wkb}).RegionShape()
	require.NoError(t, err)
	assert.Equal(t, orb.Point{10, 20}, g)

	_, err = New(row{ColRegion: "Hexagon 1 2"}).RegionShape()
	assert.True(t, errors.Is(err, dalerr.ErrFormat))
}

func TestSpatialXel(t *testing.T) {
	xel, err := New(row{ColXel1: int64(4096), ColXel2: uint64(2048)}).SpatialXel()
	require.NoError(t, err)
	assert.Equal(t, [2]int64{4096, 2048}, xel)

	_, err = New(row{ColXel1: int64(4096)}).SpatialXel()
	assert.True(t, errors.Is(err, dalerr.ErrMissingField))
}

func TestPolStates(t *testing.T) {
	m := New(row{ColPolStates: "/I/Q/U/"})
	raw, ok := m.Pol()
	assert.True(t, ok)
	assert.Equal(t, "/I/Q/U/", raw)

	states, ok := m.PolStates()
	assert.True(t, ok)
	assert.Equal(t, []string{"I", "Q", "U"}, states)

	assert.Nil(t, ParsePolStates("//"))
	assert.Equal(t, []string{"RR", "LL"}, ParsePolStates("RR/LL"))
}

func TestMissing(t *testing.T) {
	var mandatory int
	for _, c := range Columns() {
		if c.Mandatory {
			mandatory++
		}
	}
	assert.Len(t, New(row{}).Missing(), mandatory)

	missing := New(row{ColObsID: "x", ColCollection: nil}).Missing()
	assert.Len(t, missing, mandatory-1)
	for _, m := range missing {
		assert.NotEqual(t, ColObsID, m.Column)
		if m.Column == ColCollection {
			assert.True(t, m.Null)
		}
	}
}

func TestColumnTypes(t *testing.T) {
	types := ColumnTypes()
	assert.Equal(t, arrow.BinaryTypes.String, types[ColObsID])
	assert.Equal(t, arrow.PrimitiveTypes.Int64, types[ColCalibLevel])
	assert.Equal(t, arrow.PrimitiveTypes.Float64, types[ColRA])

	schema := Schema(ColObsID, ColExpTime, "not_a_column")
	require.Equal(t, 2, schema.NumFields())
	unit, ok := schema.Field(1).Metadata.GetValue(table.MetaUnit)
	assert.True(t, ok)
	assert.Equal(t, "s", unit)

	assert.Equal(t, len(Columns()), Schema().NumFields())
}

func TestFromTableRow(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<VOTABLE version="1.3" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
 <RESOURCE type="results">
  <TABLE>
   <FIELD name="obs_id" datatype="char" arraysize="*"/>
   <FIELD name="s_fov" datatype="double" unit="arcmin"/>
   <FIELD name="calib_level" datatype="short"/>
   <DATA><TABLEDATA>
    <TR><TD>hst-1</TD><TD>6</TD><TD>2</TD></TR>
   </TABLEDATA></DATA>
  </TABLE>
 </RESOURCE>
</VOTABLE>`
	tbl, err := table.DecodeVOTable(strings.NewReader(doc), table.Options{})
	require.NoError(t, err)
	defer tbl.Release()

	m := New(tbl.Row(0))
	id, err := m.ObsID()
	require.NoError(t, err)
	assert.Equal(t, "hst-1", id)

	r, err := m.Radius()
	require.NoError(t, err)
	assert.InDelta(t, 0.05, r.Value, 1e-12)

	lvl, err := m.CalibLevel()
	require.NoError(t, err)
	assert.Equal(t, 2, lvl)

	_, ok := m.Facility()
	assert.False(t, ok)
}
