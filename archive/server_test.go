package archive

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/hugr-lab/sia-go"
	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/transport"
)

func startServer(t *testing.T, cfg Config, token string) (*Server, *transport.FlightClient) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(ServerOptions(cfg)...)
	srv, err := NewServer(gs, cfg)
	require.NoError(t, err)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return srv, transport.NewFlightClient(conn, transport.FlightConfig{Token: token, Logger: quietLogger()})
}

func values(t *testing.T, build func(r *param.Registry)) param.Values {
	t.Helper()
	r := param.NewRegistry()
	build(r)
	return r.Values()
}

func TestServerQuery(t *testing.T) {
	_, client := startServer(t, Config{
		Archives: []Archive{fixtureArchive(t, "main"), fixtureArchive(t, "mirror")},
	}, "")
	ctx := context.Background()

	tests := []struct {
		name     string
		endpoint string
		values   param.Values
		want     []string
		overflow bool
	}{
		{
			name:     "default archive",
			endpoint: "",
			want:     []string{"hst-1", "hst-2", "jwst-1"},
		},
		{
			name:     "named archive with constraint",
			endpoint: "grpc://bufnet/mirror",
			values: values(t, func(r *param.Registry) {
				require.NoError(t, r.Add(param.Collection, "HST"))
			}),
			want: []string{"hst-1", "hst-2"},
		},
		{
			name:     "maxrec cuts the result",
			endpoint: "main",
			values: values(t, func(r *param.Registry) {
				require.NoError(t, r.SetMaxRec(2))
			}),
			want:     []string{"hst-1", "hst-2"},
			overflow: true,
		},
		{
			name:     "maxrec equal to the result size",
			endpoint: "main",
			values: values(t, func(r *param.Registry) {
				require.NoError(t, r.SetMaxRec(3))
			}),
			want: []string{"hst-1", "hst-2", "jwst-1"},
		},
		{
			name:     "empty result keeps the schema",
			endpoint: "main",
			values: values(t, func(r *param.Registry) {
				require.NoError(t, r.Add(param.Target, "M1"))
			}),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := client.Query(ctx, tt.endpoint, tt.values)
			require.NoError(t, err)
			defer tbl.Release()

			assert.Equal(t, tt.want, tableIDs(tbl))
			assert.Equal(t, tt.overflow, tbl.Overflow())
			assert.True(t, tbl.HasColumn("s_region"))
		})
	}
}

func TestServerErrors(t *testing.T) {
	_, client := startServer(t, Config{
		Archives: []Archive{fixtureArchive(t, "main"), panicArchive{}},
	}, "")
	ctx := context.Background()

	t.Run("unknown archive", func(t *testing.T) {
		_, err := client.Query(ctx, "grpc://bufnet/nope", nil)
		var qerr *dalerr.QueryError
		require.True(t, errors.As(err, &qerr), "got %v", err)
		assert.Equal(t, http.StatusNotFound, qerr.StatusCode)
	})

	t.Run("invalid parameter", func(t *testing.T) {
		_, err := client.Query(ctx, "main", param.Values{{Keyword: "CALIB", Values: []string{"9"}}})
		var qerr *dalerr.QueryError
		require.True(t, errors.As(err, &qerr), "got %v", err)
		assert.Equal(t, http.StatusBadRequest, qerr.StatusCode)
		assert.Contains(t, qerr.Reason, "CALIB")
	})

	t.Run("archive panic", func(t *testing.T) {
		_, err := client.Query(ctx, "broken", nil)
		assert.True(t, errors.Is(err, dalerr.ErrService), "got %v", err)
	})
}

func TestServerRecordLimits(t *testing.T) {
	_, client := startServer(t, Config{
		Archives:          []Archive{fixtureArchive(t, "main")},
		MaxRecords:        2,
		DefaultMaxRecords: 1,
	}, "")
	ctx := context.Background()

	tbl, err := client.Query(ctx, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hst-1"}, tableIDs(tbl))
	assert.True(t, tbl.Overflow())
	tbl.Release()

	tbl, err = client.Query(ctx, "main", param.Values{{Keyword: "MAXREC", Values: []string{"50"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"hst-1", "hst-2"}, tableIDs(tbl))
	assert.True(t, tbl.Overflow())
	tbl.Release()
}

func TestServerAuth(t *testing.T) {
	authenticator := auth.WithArchiveACL(
		auth.StaticTokens(map[string]string{"t-alice": "alice", "t-bob": "bob"}),
		map[string][]string{"alice": {"main"}, "bob": {"other"}},
	)
	cfg := Config{Archives: []Archive{fixtureArchive(t, "main")}, Auth: authenticator}
	ctx := context.Background()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"authorized", "t-alice", 0},
		{"no token", "", http.StatusUnauthorized},
		{"unknown token", "t-eve", http.StatusUnauthorized},
		{"archive not allowed", "t-bob", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := startServer(t, cfg, tt.token)
			tbl, err := client.Query(ctx, "main", nil)
			if tt.status == 0 {
				require.NoError(t, err)
				assert.Equal(t, 3, tbl.NumRows())
				tbl.Release()
				return
			}
			var qerr *dalerr.QueryError
			require.True(t, errors.As(err, &qerr), "got %v", err)
			assert.Equal(t, tt.status, qerr.StatusCode)
		})
	}
}

func TestServerWithClient(t *testing.T) {
	_, flightClient := startServer(t, Config{Archives: []Archive{fixtureArchive(t, "main")}}, "")

	q, err := sia.NewQuery("grpc://bufnet/main", sia.Constraints{
		Pos:        param.Circle{RA: 10.7, Dec: 41.3, Radius: 0.5},
		CalibLevel: []int{2, 3},
		ExpTime:    param.AtLeast(1000),
	}, sia.WithQuerier(flightClient), sia.WithLogger(quietLogger()))
	require.NoError(t, err)

	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	defer res.Release()

	require.Equal(t, 1, res.Len())
	rec, err := res.Record(0)
	require.NoError(t, err)

	id, err := rec.ObsID()
	require.NoError(t, err)
	assert.Equal(t, "hst-2", id)
	states, ok := rec.PolStates()
	require.True(t, ok)
	assert.Equal(t, []string{"I", "Q", "U"}, states)
	exp, err := rec.ExpTime()
	require.NoError(t, err)
	assert.Equal(t, 1200.0, exp.Value)
	assert.False(t, res.Overflow())
}

func TestServerArchives(t *testing.T) {
	srv, client := startServer(t, Config{Archives: []Archive{fixtureArchive(t, "main")}}, "")
	assert.Equal(t, []string{"main"}, srv.Archives())

	require.NoError(t, srv.AddArchive(fixtureArchive(t, "extra")))
	assert.Equal(t, DuplicateArchiveError{Name: "extra"}, srv.AddArchive(fixtureArchive(t, "extra")))

	tbl, err := client.Query(context.Background(), "extra", nil)
	require.NoError(t, err)
	tbl.Release()

	require.NoError(t, srv.RemoveArchive("extra"))
	assert.True(t, errors.Is(srv.RemoveArchive("extra"), ErrArchiveNotFound))
	_, err = client.Query(context.Background(), "extra", nil)
	assert.True(t, errors.Is(err, dalerr.ErrQuery))
}

func TestNewServerInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no archives", Config{}},
		{"nil archive", Config{Archives: []Archive{nil}}},
		{"duplicate names", Config{Archives: []Archive{fixtureArchive(t, "a"), fixtureArchive(t, "a")}}},
		{"negative limit", Config{Archives: []Archive{fixtureArchive(t, "a")}, MaxRecords: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServer(grpc.NewServer(), tt.cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestTruncate(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "n", Type: arrow.PrimitiveTypes.Int64}}, nil)
	batch := func(vals ...int64) arrow.Record {
		b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		defer b.Release()
		b.Field(0).(*array.Int64Builder).AppendValues(vals, nil)
		return b.NewRecord()
	}

	tests := []struct {
		name     string
		limit    int
		rows     int64
		overflow bool
	}{
		{"unlimited", 0, 5, false},
		{"inside first batch", 2, 2, true},
		{"at batch boundary", 3, 3, true},
		{"inside second batch", 4, 4, true},
		{"exact total", 5, 5, false},
		{"above total", 10, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b1, empty, b2 := batch(1, 2, 3), batch(), batch(4, 5)
			rdr, err := array.NewRecordReader(schema, []arrow.Record{b1, empty, b2})
			require.NoError(t, err)
			b1.Release()
			empty.Release()
			b2.Release()
			defer rdr.Release()

			var emitted int64
			rows, overflow, err := truncate(context.Background(), rdr, tt.limit, func(rec arrow.Record) error {
				emitted += rec.NumRows()
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.rows, rows)
			assert.Equal(t, tt.rows, emitted)
			assert.Equal(t, tt.overflow, overflow)
		})
	}
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{dalerr.Validationf("POS", "x", "bad"), codes.InvalidArgument},
		{&dalerr.QueryError{Reason: "no"}, codes.InvalidArgument},
		{&dalerr.ConfigurationError{Reason: "no"}, codes.FailedPrecondition},
		{errors.Wrap(ErrArchiveNotFound, "x"), codes.NotFound},
		{auth.ErrForbidden, codes.PermissionDenied},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.ResourceExhausted, "busy"), codes.ResourceExhausted},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, grpcCode(tt.err))
		})
	}
	assert.Equal(t, http.StatusTooManyRequests, httpStatus(status.Error(codes.ResourceExhausted, "busy")))
	assert.Equal(t, http.StatusBadRequest, httpStatus(dalerr.Validationf("POS", "x", "bad")))
}
