package sia

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugr-lab/sia-go/capability"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/quantity"
	"github.com/hugr-lab/sia-go/table"
	"github.com/hugr-lab/sia-go/transport"
)

const oneRowVOTable = `<?xml version="1.0"?>
<VOTABLE version="1.3" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
 <RESOURCE type="results">
  <INFO name="QUERY_STATUS" value="OK"/>
  <TABLE>
   <FIELD name="obs_id" datatype="char" arraysize="*"/>
   <FIELD name="calib_level" datatype="short"/>
   <FIELD name="t_exptime" datatype="double" unit="s"/>
   <FIELD name="access_url" datatype="char" arraysize="*"/>
   <DATA><TABLEDATA>
    <TR><TD>obs-1</TD><TD>1</TD><TD>120</TD><TD>files/obs-1.fits</TD></TR>
   </TABLEDATA></DATA>
  </TABLE>
 </RESOURCE>
</VOTABLE>`

type fakeQuerier struct {
	doc      string
	err      error
	calls    int
	endpoint string
	values   param.Values
}

func (f *fakeQuerier) Query(_ context.Context, endpoint string, values param.Values) (*table.Table, error) {
	f.calls++
	f.endpoint = endpoint
	f.values = values
	if f.err != nil {
		return nil, f.err
	}
	return table.DecodeVOTable(strings.NewReader(f.doc), table.Options{})
}

func assertOneRowResult(t *testing.T, res *Results) {
	t.Helper()
	require.Equal(t, 1, res.Len())

	rec, err := res.Record(0)
	require.NoError(t, err)

	lvl, err := rec.CalibLevel()
	require.NoError(t, err)
	assert.Equal(t, 1, lvl)

	exp, err := rec.ExpTime()
	require.NoError(t, err)
	assert.Equal(t, quantity.New(120, quantity.Second), exp)

	_, ok := rec.Title()
	assert.False(t, ok)
}

func TestEndToEndCalibAndExpTime(t *testing.T) {
	fq := &fakeQuerier{doc: oneRowVOTable}
	q, err := NewQuery("https://archive.example/sia/query", Constraints{
		CalibLevel: []int{0, 1},
		ExpTime:    param.Interval{Lo: 30, Hi: math.Inf(1)},
	}, WithQuerier(fq))
	require.NoError(t, err)

	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, 1, fq.calls)
	assert.Equal(t, "https://archive.example/sia/query", fq.endpoint)
	assert.Equal(t, param.Values{
		{Keyword: "EXPTIME", Values: []string{"30 Infinity"}},
		{Keyword: "CALIB", Values: []string{"0", "1"}},
	}, fq.values)

	assertOneRowResult(t, res)
	assert.Equal(t, "https://archive.example/sia/query?EXPTIME=30+Infinity&CALIB=0&CALIB=1", res.QueryURL())
}

func TestScalarEqualsSequence(t *testing.T) {
	tests := []struct {
		name   string
		scalar Constraints
		list   Constraints
	}{
		{"pos", Constraints{Pos: param.Circle{RA: 1, Dec: 2, Radius: 3}}, Constraints{Pos: []param.Circle{{RA: 1, Dec: 2, Radius: 3}}}},
		{"band", Constraints{Band: param.Interval{Lo: 1e-7, Hi: 2e-7}}, Constraints{Band: []any{param.Interval{Lo: 1e-7, Hi: 2e-7}}}},
		{"pol", Constraints{Pol: "I"}, Constraints{Pol: []string{"I"}}},
		{"calib", Constraints{CalibLevel: 2}, Constraints{CalibLevel: []int{2}}},
		{"collection", Constraints{Collection: "HST"}, Constraints{Collection: []any{"HST"}}},
		{"fov", Constraints{FieldOfView: 0.5}, Constraints{FieldOfView: []float64{0.5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewQuery("http://x", tt.scalar, WithQuerier(&fakeQuerier{}))
			require.NoError(t, err)
			b, err := NewQuery("http://x", tt.list, WithQuerier(&fakeQuerier{}))
			require.NoError(t, err)
			assert.Equal(t, a.Values(), b.Values())
			assert.Len(t, a.Values(), 1)
		})
	}
}

func TestEmptyConstraintsAddNothing(t *testing.T) {
	q, err := NewQuery("http://x", Constraints{
		Pos:        nil,
		Collection: "",
		CalibLevel: []int{},
		TargetName: []string(nil),
	}, WithQuerier(&fakeQuerier{}))
	require.NoError(t, err)
	assert.Empty(t, q.Values())
	assert.Equal(t, "http://x", q.URL())
}

func TestInvalidConstraint(t *testing.T) {
	fq := &fakeQuerier{}
	_, err := NewQuery("http://x", Constraints{CalibLevel: 7}, WithQuerier(fq))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "CALIB", verr.Keyword)

	_, err = NewQuery("http://x", Constraints{ExpTime: param.Interval{Lo: 10, Hi: 1}}, WithQuerier(fq))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 0, fq.calls)
}

func TestMaxRecords(t *testing.T) {
	for _, v := range []any{0, -5, 2.5, "50", int64(math.MinInt64)} {
		_, err := NewQuery("http://x", Constraints{MaxRecords: v}, WithQuerier(&fakeQuerier{}))
		assert.True(t, errors.Is(err, ErrValidation), "value %v", v)
	}

	for _, v := range []any{50, uint8(50), int64(50)} {
		q, err := NewQuery("http://x", Constraints{MaxRecords: v}, WithQuerier(&fakeQuerier{}))
		require.NoError(t, err)
		assert.Equal(t, param.Values{{Keyword: "MAXREC", Values: []string{"50"}}}, q.Values())
	}

	q, err := NewQuery("http://x", Constraints{}, WithQuerier(&fakeQuerier{}))
	require.NoError(t, err)
	assert.True(t, errors.Is(q.SetMaxRecords(0), ErrValidation))
	assert.True(t, errors.Is(q.SetMaxRecords(-5), ErrValidation))
	require.NoError(t, q.SetMaxRecords(50))
	n, ok := q.MaxRecords()
	assert.True(t, ok)
	assert.Equal(t, 50, n)
	q.ClearMaxRecords()
	assert.Empty(t, q.Values())
}

func TestBuilderMethods(t *testing.T) {
	q, err := NewQuery("http://x/query?lang=en", Constraints{}, WithQuerier(&fakeQuerier{}))
	require.NoError(t, err)

	require.NoError(t, q.Pos().Add(param.Circle{RA: 10, Dec: 20, Radius: 0.5}))
	require.NoError(t, q.CalibLevel().Add(1))
	require.NoError(t, q.CalibLevel().Add(1))
	require.NoError(t, q.Collection().Add("HST"))
	require.NoError(t, q.Add(param.Pol, []string{"I", "Q"}))
	require.NoError(t, q.ExpTime().Add(param.AtLeast(30)))

	assert.Equal(t, []string{"1", "1"}, q.CalibLevel().Serialize())
	assert.Equal(t,
		"http://x/query?lang=en&POS=CIRCLE+10+20+0.5&POL=I&POL=Q&EXPTIME=30+Infinity&COLLECTION=HST&CALIB=1&CALIB=1",
		q.URL())

	q.Pol().Remove("Q")
	assert.Equal(t, []string{"I"}, q.Values().Get("POL"))

	assert.NotNil(t, q.Band())
	assert.NotNil(t, q.Time())
	assert.NotNil(t, q.FieldOfView())
	assert.NotNil(t, q.SpatialResolution())
	assert.NotNil(t, q.SpectralResolvingPower())
	assert.NotNil(t, q.TimeResolution())
	assert.NotNil(t, q.GlobalID())
	assert.NotNil(t, q.Facility())
	assert.NotNil(t, q.Instrument())
	assert.NotNil(t, q.DataType())
	assert.NotNil(t, q.TargetName())
	assert.NotNil(t, q.ResponseFormat())
}

func TestExecuteWithoutEndpoint(t *testing.T) {
	fq := &fakeQuerier{doc: oneRowVOTable}
	q, err := NewQuery("", Constraints{CalibLevel: 1}, WithQuerier(fq))
	require.NoError(t, err)

	_, err = q.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	var cerr *ConfigurationError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, 0, fq.calls)
}

func TestExecuteErrorsPassThrough(t *testing.T) {
	want := &QueryError{URL: "http://x", Reason: "bad request"}
	q, err := NewQuery("http://x", Constraints{}, WithQuerier(&fakeQuerier{err: want}))
	require.NoError(t, err)

	_, err = q.Execute(context.Background())
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Same(t, want, qerr)
}

func TestResults(t *testing.T) {
	q, err := NewQuery("https://archive.example/sia/query", Constraints{}, WithQuerier(&fakeQuerier{doc: oneRowVOTable}))
	require.NoError(t, err)
	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, []string{"obs_id", "calib_level", "t_exptime", "access_url"}, res.FieldNames())
	assert.False(t, res.Overflow())

	col, ok := res.Column("t_exptime")
	require.True(t, ok)
	assert.Equal(t, 1, col.Len())

	_, err = res.Record(1)
	assert.Error(t, err)
	_, err = res.Record(-1)
	assert.Error(t, err)

	var n int
	for i, rec := range res.All() {
		assert.Equal(t, i, rec.Index())
		assert.True(t, rec.Has("obs_id"))
		assert.Equal(t, "s", rec.Unit("t_exptime"))
		assert.Equal(t, "fallback", rec.GetOr("obs_title", "fallback"))

		v, ok := rec.Get("obs_id")
		assert.True(t, ok)
		assert.Equal(t, "obs-1", v)

		u, err := rec.ResolvedAccessURL()
		require.NoError(t, err)
		assert.Equal(t, "https://archive.example/sia/files/obs-1.fits", u)
		n++
	}
	assert.Equal(t, 1, n)

	rec, err := res.Record(0)
	require.NoError(t, err)
	_, err = rec.Collection()
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestFollowUp(t *testing.T) {
	f := NewFollowUp("https://a.example/sia/query?POS=x")
	u, err := f.Resolve("/data/1")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/data/1", u)

	u, err = f.Resolve("https://b.example/x")
	require.NoError(t, err)
	assert.Equal(t, "https://b.example/x", u)

	_, err = NewFollowUp("").Resolve("data/1")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewQuery("http://x", Constraints{}, WithConfig(ClientConfig{
		HTTP: transport.HTTPConfig{MaxRetries: -1},
	}))
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func capabilitiesDoc(t *testing.T, caps []capability.Capability) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, capability.Write(&buf, caps))
	return buf.Bytes()
}

func newSIAServer(t *testing.T, security []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	caps := []capability.Capability{
		{StandardID: "ivo://ivoa.net/std/VOSI#capabilities", Interfaces: []capability.Interface{
			{AccessURLs: []capability.AccessURL{{URL: srv.URL + "/capabilities"}}},
		}},
		{StandardID: capability.SIA2Query, Interfaces: []capability.Interface{
			{Type: "vs:ParamHTTP", AccessURLs: []capability.AccessURL{{URL: srv.URL + "/query", Use: "base"}}, SecurityMethods: security},
		}},
	}
	doc := capabilitiesDoc(t, caps)

	mux.HandleFunc("/capabilities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write(doc)
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query()["CALIB"] == nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "CALIB required")
			return
		}
		w.Header().Set("Content-Type", table.MIMEVOTable)
		_, _ = io.WriteString(w, oneRowVOTable)
	})
	return srv
}

func TestSearchOverHTTP(t *testing.T) {
	srv := newSIAServer(t, nil)

	res, err := Search(context.Background(), srv.URL+"/", Constraints{
		CalibLevel: []int{0, 1},
		ExpTime:    param.Interval{Lo: 30, Hi: math.Inf(1)},
	}, ClientConfig{})
	require.NoError(t, err)
	defer res.Release()

	assertOneRowResult(t, res)
	assert.True(t, strings.HasPrefix(res.QueryURL(), srv.URL+"/query?"))
}

func TestServiceQueryRejected(t *testing.T) {
	srv := newSIAServer(t, nil)

	svc, err := NewService(context.Background(), srv.URL, ClientConfig{})
	require.NoError(t, err)
	ep, ok := svc.Endpoint()
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/query", ep)
	assert.Len(t, svc.Capabilities(), 2)

	_, err = svc.Search(context.Background(), Constraints{})
	require.Error(t, err)
	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, http.StatusBadRequest, qerr.StatusCode)
	assert.Equal(t, "CALIB required", qerr.Reason)
}

func TestServiceSecurity(t *testing.T) {
	srv := newSIAServer(t, []string{capability.SecurityBasicAA})

	svc, err := NewService(context.Background(), srv.URL, ClientConfig{})
	require.NoError(t, err)
	_, ok := svc.Endpoint()
	assert.False(t, ok)

	_, err = svc.Search(context.Background(), Constraints{CalibLevel: 1})
	assert.True(t, errors.Is(err, ErrConfiguration))

	svc, err = NewService(context.Background(), srv.URL, ClientConfig{
		HTTP: transport.HTTPConfig{Auth: transport.BasicAuth{Username: "u", Password: "p"}},
	})
	require.NoError(t, err)
	ep, ok := svc.Endpoint()
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/query", ep)

	svc, err = NewServiceFromCapabilities(srv.URL, svc.Capabilities(), ClientConfig{
		SecurityMethods: []string{capability.SecurityBasicAA},
	})
	require.NoError(t, err)
	_, ok = svc.Endpoint()
	assert.True(t, ok)
}

func TestServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewService(context.Background(), url, ClientConfig{})
	assert.True(t, errors.Is(err, ErrService))

	_, err = NewService(context.Background(), "", ClientConfig{})
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestNewQueryFromValues(t *testing.T) {
	fq := &fakeQuerier{doc: oneRowVOTable}
	q, err := NewQueryFromValues("http://x/query", param.Values{
		{Keyword: "CALIB", Values: []string{"1", "2"}},
		{Keyword: "NOT_A_KEYWORD", Values: []string{"x"}},
		{Keyword: "MAXREC", Values: []string{"10"}},
	}, WithQuerier(fq))
	require.NoError(t, err)

	assert.Equal(t, param.Values{
		{Keyword: "CALIB", Values: []string{"1", "2"}},
		{Keyword: "MAXREC", Values: []string{"10"}},
	}, q.Values())
	assert.Equal(t, []string{"NOT_A_KEYWORD"}, q.Registry().Ignored())

	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	defer res.Release()
	assertOneRowResult(t, res)

	_, err = NewQueryFromValues("http://x/query", param.Values{{Keyword: "CALIB", Values: []string{"7"}}}, WithQuerier(fq))
	assert.True(t, errors.Is(err, ErrValidation))
}
