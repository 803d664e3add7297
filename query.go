package sia

import (
	"context"
	"log/slog"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/transport"
)

// Constraints holds the search constraints of a query, one field per axis.
// Each field takes a single value or a slice or array of values; nil, empty
// slices and empty strings add nothing. See the param package for the value
// shapes each axis accepts.
type Constraints struct {
	Pos                    any // param.Circle, param.Range, param.Polygon
	Band                   any // param.Interval in m, param.QuantityInterval
	Time                   any // param.TimeInterval, time.Time, MJD param.Interval
	Pol                    any // polarization states
	FieldOfView            any // param.Interval in deg
	SpatialResolution      any // param.Interval in arcsec
	SpectralResolvingPower any
	ExpTime                any // param.Interval in s
	TimeResolution         any // param.Interval in s
	GlobalID               any
	Facility               any
	Collection             any
	Instrument             any
	DataType               any
	CalibLevel             any // 0 to 4
	TargetName             any
	ResponseFormat         any

	// MaxRecords caps the number of returned records. Any integer type is
	// accepted; nil means no cap.
	MaxRecords any
}

func (c Constraints) byAxis() []struct {
	axis  param.Axis
	value any
} {
	return []struct {
		axis  param.Axis
		value any
	}{
		{param.Pos, c.Pos},
		{param.Band, c.Band},
		{param.Time, c.Time},
		{param.Pol, c.Pol},
		{param.FOV, c.FieldOfView},
		{param.SpatRes, c.SpatialResolution},
		{param.SpecRP, c.SpectralResolvingPower},
		{param.ExpTime, c.ExpTime},
		{param.TimeRes, c.TimeResolution},
		{param.ID, c.GlobalID},
		{param.Facility, c.Facility},
		{param.Collection, c.Collection},
		{param.Instrument, c.Instrument},
		{param.DataType, c.DataType},
		{param.Calib, c.CalibLevel},
		{param.Target, c.TargetName},
		{param.Format, c.ResponseFormat},
	}
}

// Query is an SIA v2 search against one endpoint. A Query is not safe for
// concurrent mutation; independent queries share nothing.
type Query struct {
	endpoint string
	reg      *param.Registry
	client   *client
}

// QueryOption configures a Query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	cfg    ClientConfig
	client *client
}

// WithConfig sets the client configuration of the query.
func WithConfig(cfg ClientConfig) QueryOption {
	return func(o *queryOptions) { o.cfg = cfg }
}

// WithQuerier sets the transport used by Execute.
func WithQuerier(q transport.Querier) QueryOption {
	return func(o *queryOptions) { o.cfg.Querier = q }
}

// WithLogger sets the logger of the query.
func WithLogger(l *slog.Logger) QueryOption {
	return func(o *queryOptions) { o.cfg.Logger = l }
}

func withClient(c *client) QueryOption {
	return func(o *queryOptions) { o.client = c }
}

// NewQuery creates a query for endpoint with the given constraints. Every
// constraint is validated; the first invalid value fails the call with a
// *ValidationError. An empty endpoint is accepted here and reported by
// Execute.
func NewQuery(endpoint string, c Constraints, opts ...QueryOption) (*Query, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	cl := o.client
	if cl == nil {
		var err error
		if cl, err = newClient(o.cfg); err != nil {
			return nil, err
		}
	}

	q := &Query{
		endpoint: endpoint,
		reg:      param.NewRegistry(),
		client:   cl,
	}
	for _, ax := range c.byAxis() {
		if err := q.reg.Add(ax.axis, ax.value); err != nil {
			return nil, err
		}
	}
	if c.MaxRecords != nil {
		n, err := maxRecords(c.MaxRecords)
		if err != nil {
			return nil, err
		}
		if err := q.SetMaxRecords(n); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// NewQueryFromValues creates a query from wire values, for callers that
// hold constraints in their serialized form. Unknown keywords are dropped.
func NewQueryFromValues(endpoint string, v param.Values, opts ...QueryOption) (*Query, error) {
	reg, err := param.ParseValues(v)
	if err != nil {
		return nil, err
	}
	q, err := NewQuery(endpoint, Constraints{}, opts...)
	if err != nil {
		return nil, err
	}
	q.reg = reg
	return q, nil
}

// maxRecords accepts any integer kind.
func maxRecords(v any) (int, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n > int64(^uint(0)>>1) {
			break
		}
		return int(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > uint64(^uint(0)>>1) {
			break
		}
		return int(n), nil
	}
	return 0, dalerr.Validationf(param.MaxRecKeyword, v, "must be a positive integer")
}

// Endpoint returns the query endpoint URL.
func (q *Query) Endpoint() string { return q.endpoint }

// Registry returns the parameter registry backing the query.
func (q *Query) Registry() *param.Registry { return q.reg }

// Add normalizes v and adds each element to the parameter of axis a. Either
// all elements are added or none.
func (q *Query) Add(a param.Axis, v any) error { return q.reg.Add(a, v) }

func (q *Query) Pos() *param.PositionParam { return q.reg.Position() }

func (q *Query) Band() *param.IntervalParam { return q.reg.Interval(param.Band) }

func (q *Query) Time() *param.IntervalParam { return q.reg.Interval(param.Time) }

func (q *Query) Pol() *param.EnumParam { return q.reg.Enum(param.Pol) }

func (q *Query) FieldOfView() *param.IntervalParam { return q.reg.Interval(param.FOV) }

func (q *Query) SpatialResolution() *param.IntervalParam { return q.reg.Interval(param.SpatRes) }

func (q *Query) SpectralResolvingPower() *param.IntervalParam {
	return q.reg.Interval(param.SpecRP)
}

func (q *Query) ExpTime() *param.IntervalParam { return q.reg.Interval(param.ExpTime) }

func (q *Query) TimeResolution() *param.IntervalParam { return q.reg.Interval(param.TimeRes) }

func (q *Query) GlobalID() *param.StringSetParam { return q.reg.StringSet(param.ID) }

func (q *Query) Facility() *param.StringSetParam { return q.reg.StringSet(param.Facility) }

func (q *Query) Collection() *param.StringSetParam { return q.reg.StringSet(param.Collection) }

func (q *Query) Instrument() *param.StringSetParam { return q.reg.StringSet(param.Instrument) }

func (q *Query) DataType() *param.StringSetParam { return q.reg.StringSet(param.DataType) }

func (q *Query) CalibLevel() *param.EnumParam { return q.reg.Enum(param.Calib) }

func (q *Query) TargetName() *param.StringSetParam { return q.reg.StringSet(param.Target) }

func (q *Query) ResponseFormat() *param.StringSetParam { return q.reg.StringSet(param.Format) }

// SetMaxRecords sets the MAXREC cap; n must be positive.
func (q *Query) SetMaxRecords(n int) error { return q.reg.SetMaxRec(n) }

// ClearMaxRecords removes the MAXREC cap.
func (q *Query) ClearMaxRecords() { q.reg.ClearMaxRec() }

// MaxRecords returns the MAXREC cap, if set.
func (q *Query) MaxRecords() (int, bool) { return q.reg.MaxRec() }

// Values returns the wire parameters in their fixed order.
func (q *Query) Values() param.Values { return q.reg.Values() }

// URL returns the GET URL the query is sent as by the HTTP transport.
func (q *Query) URL() string {
	enc := q.reg.Values().Encode()
	if enc == "" {
		return q.endpoint
	}
	sep := "?"
	if strings.Contains(q.endpoint, "?") {
		sep = "&"
	}
	return q.endpoint + sep + enc
}

// Execute sends the query and returns its results. Transport and decoding
// failures are returned as the typed error kinds. The caller releases the
// results.
func (q *Query) Execute(ctx context.Context) (*Results, error) {
	if q.endpoint == "" {
		return nil, errors.WithHint(
			&dalerr.ConfigurationError{Reason: "no SIA v2 query endpoint resolved"},
			"the service advertises no usable SIA v2 interface for the supported security methods",
		)
	}

	values := q.reg.Values()
	q.client.logger.Debug("executing SIA query",
		"endpoint", q.endpoint,
		"keywords", values.Keys(),
	)

	tbl, err := q.client.querier.Query(ctx, q.endpoint, values)
	if err != nil {
		q.client.logger.Debug("SIA query failed", "endpoint", q.endpoint, "error", err)
		return nil, err
	}
	return newResults(tbl, q.URL()), nil
}
