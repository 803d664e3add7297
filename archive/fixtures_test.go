package archive

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

var fixtureColumns = []string{
	obscore.ColObsID, obscore.ColPublisherDID, obscore.ColCollection,
	obscore.ColDataType, obscore.ColCalibLevel, obscore.ColTargetName,
	obscore.ColRA, obscore.ColDec, obscore.ColFOV, obscore.ColRegion,
	obscore.ColSpatialResolution, obscore.ColTimeMin, obscore.ColTimeMax,
	obscore.ColExpTime, obscore.ColSpectralMin, obscore.ColSpectralMax,
	obscore.ColPolStates, obscore.ColFacility, obscore.ColInstrument,
	obscore.ColAccessURL, obscore.ColAccessFormat,
}

// fixtureRows follow fixtureColumns; nil is a null cell.
var fixtureRows = [][]any{
	{"hst-1", "ivo://arch/hst-1", "HST", "image", int64(2), "M31",
		10.68, 41.27, 0.1, "CIRCLE ICRS 10.68 41.27 0.05",
		0.1, 60000.0, 60000.1, 300.0, 5e-7, 7e-7,
		"/I/", "HST", "WFC3", "https://arch.example/hst-1.fits", "application/fits"},
	{"hst-2", "ivo://arch/hst-2", "HST", "cube", int64(3), "M31",
		10.7, 41.3, 0.2, "CIRCLE ICRS 10.7 41.3 0.1",
		0.2, 60001.0, 60001.5, 1200.0, 1e-6, 2e-6,
		"/I/Q/U/", "HST", "ACS", "https://arch.example/hst-2.fits", "application/fits"},
	{"jwst-1", "ivo://arch/jwst-1", "JWST", "image", int64(1), "M42",
		83.82, -5.39, 0.05, "POLYGON ICRS 83.8 -5.4 83.85 -5.4 83.85 -5.35 83.8 -5.35",
		0.05, 60100.0, 60100.2, 30.0, 2e-6, 5e-6,
		nil, "JWST", "NIRCam", "https://arch.example/jwst-1.fits", "application/fits"},
}

func fixtureTable(t *testing.T) *table.Table {
	t.Helper()
	b := array.NewRecordBuilder(memory.DefaultAllocator, obscore.Schema(fixtureColumns...))
	defer b.Release()

	for _, row := range fixtureRows {
		for i, v := range row {
			switch fb := b.Field(i).(type) {
			case *array.StringBuilder:
				if v == nil {
					fb.AppendNull()
				} else {
					fb.Append(v.(string))
				}
			case *array.Int64Builder:
				fb.Append(v.(int64))
			case *array.Float64Builder:
				fb.Append(v.(float64))
			default:
				t.Fatalf("unexpected builder %T", fb)
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	return table.New(rec)
}

func fixtureArchive(t *testing.T, name string) *MemoryArchive {
	t.Helper()
	tbl := fixtureTable(t)
	defer tbl.Release()
	a := NewMemoryArchive(name, tbl)
	t.Cleanup(a.Close)
	return a
}

// obsIDs drains a reader and returns the obs_id column.
func obsIDs(t *testing.T, rdr array.RecordReader) []string {
	t.Helper()
	defer rdr.Release()
	tbl, err := table.FromReader(nil, rdr)
	require.NoError(t, err)
	defer tbl.Release()
	return tableIDs(tbl)
}

func tableIDs(tbl *table.Table) []string {
	ids := []string{}
	for i := 0; i < tbl.NumRows(); i++ {
		v, _ := tbl.Value(i, obscore.ColObsID)
		ids = append(ids, v.(string))
	}
	return ids
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type panicArchive struct{}

func (panicArchive) Name() string { return "broken" }

func (panicArchive) Search(context.Context, *param.Registry) (array.RecordReader, error) {
	panic("index out of range")
}
