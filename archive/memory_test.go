package archive

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/sia-go/geometry"
	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

func TestMemoryArchiveSearch(t *testing.T) {
	a := fixtureArchive(t, "main")
	require.Equal(t, 3, a.Len())

	tests := []struct {
		name  string
		build func(r *param.Registry) error
		want  []string
	}{
		{
			name:  "no constraints",
			build: func(r *param.Registry) error { return nil },
			want:  []string{"hst-1", "hst-2", "jwst-1"},
		},
		{
			name:  "collection",
			build: func(r *param.Registry) error { return r.Add(param.Collection, "HST") },
			want:  []string{"hst-1", "hst-2"},
		},
		{
			name: "parameters are combined",
			build: func(r *param.Registry) error {
				if err := r.Add(param.Calib, []int{2, 3}); err != nil {
					return err
				}
				return r.Add(param.ExpTime, param.AtLeast(1000))
			},
			want: []string{"hst-2"},
		},
		{
			name: "cone around M31",
			build: func(r *param.Registry) error {
				return r.Add(param.Pos, geometry.Circle{RA: 10.7, Dec: 41.3, Radius: 0.5})
			},
			want: []string{"hst-1", "hst-2"},
		},
		{
			name: "cone around M42 hits polygon region",
			build: func(r *param.Registry) error {
				return r.Add(param.Pos, geometry.Circle{RA: 83.82, Dec: -5.37, Radius: 0.1})
			},
			want: []string{"jwst-1"},
		},
		{
			name:  "band",
			build: func(r *param.Registry) error { return r.Add(param.Band, 6e-7) },
			want:  []string{"hst-1"},
		},
		{
			name: "time overlap",
			build: func(r *param.Registry) error {
				return r.Add(param.Time, param.Interval{Lo: 60000.9, Hi: 60001.1})
			},
			want: []string{"hst-2"},
		},
		{
			name:  "pol skips null pol_states",
			build: func(r *param.Registry) error { return r.Add(param.Pol, "Q") },
			want:  []string{"hst-2"},
		},
		{
			name:  "field of view",
			build: func(r *param.Registry) error { return r.Add(param.FOV, param.Interval{Lo: 0.15, Hi: 1}) },
			want:  []string{"hst-2"},
		},
		{
			name:  "spatial resolution",
			build: func(r *param.Registry) error { return r.Add(param.SpatRes, param.AtMost(0.15)) },
			want:  []string{"hst-1", "jwst-1"},
		},
		{
			name:  "instruments are alternatives",
			build: func(r *param.Registry) error { return r.Add(param.Instrument, []string{"ACS", "NIRCam"}) },
			want:  []string{"hst-2", "jwst-1"},
		},
		{
			name:  "target",
			build: func(r *param.Registry) error { return r.Add(param.Target, "M42") },
			want:  []string{"jwst-1"},
		},
		{
			name:  "publisher did",
			build: func(r *param.Registry) error { return r.Add(param.ID, "ivo://arch/hst-1") },
			want:  []string{"hst-1"},
		},
		{
			name:  "data product type",
			build: func(r *param.Registry) error { return r.Add(param.DataType, "cube") },
			want:  []string{"hst-2"},
		},
		{
			name:  "facility",
			build: func(r *param.Registry) error { return r.Add(param.Facility, "JWST") },
			want:  []string{"jwst-1"},
		},
		{
			name:  "format",
			build: func(r *param.Registry) error { return r.Add(param.Format, "application/fits") },
			want:  []string{"hst-1", "hst-2", "jwst-1"},
		},
		{
			name:  "missing column never matches",
			build: func(r *param.Registry) error { return r.Add(param.SpecRP, param.AtLeast(1)) },
			want:  []string{},
		},
		{
			name:  "nothing matches",
			build: func(r *param.Registry) error { return r.Add(param.Collection, "Chandra") },
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := param.NewRegistry()
			require.NoError(t, tt.build(reg))
			rdr, err := a.Search(context.Background(), reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, obsIDs(t, rdr))
		})
	}
}

func TestMemoryArchiveCanceled(t *testing.T) {
	a := fixtureArchive(t, "main")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Search(ctx, param.NewRegistry())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMemoryArchive(t *testing.T) {
	doc := "obs_id,obs_collection,calib_level,t_exptime\n" +
		"001,HST,2,30\n" +
		"002,JWST,1,300\n"
	a, err := LoadMemoryArchive("csv", table.MIMECSV, strings.NewReader(doc))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "csv", a.Name())
	assert.Equal(t, 2, a.Len())

	reg := param.NewRegistry()
	require.NoError(t, reg.Add(param.ExpTime, param.AtLeast(100)))
	rdr, err := a.Search(context.Background(), reg)
	require.NoError(t, err)
	// obs_id keeps its ObsCore string type
	assert.Equal(t, []string{"002"}, obsIDs(t, rdr))
}

func TestMatch(t *testing.T) {
	tbl := fixtureTable(t)
	defer tbl.Release()

	reg := param.NewRegistry()
	require.NoError(t, reg.Add(param.Collection, "HST"))
	require.NoError(t, reg.Add(param.Calib, 2))

	assert.True(t, Match(reg, obscore.New(tbl.Row(0))))
	assert.False(t, Match(reg, obscore.New(tbl.Row(1))))
	assert.False(t, Match(reg, obscore.New(tbl.Row(2))))
	assert.True(t, Match(param.NewRegistry(), obscore.New(tbl.Row(2))))
}
