package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sia-go/capability"
	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/internal/ticket"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

// Flight metadata keys shared with the archive server.
const (
	// OverflowTrailer is set to "true" in the DoGet trailer when MAXREC
	// truncated the result.
	OverflowTrailer = "x-sia-overflow"
	// RequestIDMetadata carries the request correlation id.
	RequestIDMetadata = "x-request-id"
)

// FlightConfig configures the Arrow Flight transport.
type FlightConfig struct {
	// Token is sent as a bearer token on every call.
	// OPTIONAL.
	Token string

	// Allocator backs decoded records.
	// OPTIONAL: defaults to memory.DefaultAllocator.
	Allocator memory.Allocator

	// DialOptions are passed to grpc.NewClient by DialFlight.
	// OPTIONAL: defaults to insecure transport credentials.
	DialOptions []grpc.DialOption

	// Logger receives debug output.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// FlightClient queries an SIA archive server over Arrow Flight DoGet.
// Endpoints are "grpc://host:port/<archive>" URLs or bare archive names;
// the connection itself is fixed when the client is created.
type FlightClient struct {
	conn   *grpc.ClientConn
	client flight.FlightServiceClient
	cfg    FlightConfig
	logger *slog.Logger
}

var (
	_ Querier       = (*FlightClient)(nil)
	_ SecurityAware = (*FlightClient)(nil)
)

// DialFlight connects to a Flight server at target.
func DialFlight(target string, cfg FlightConfig) (*FlightClient, error) {
	opts := cfg.DialOptions
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, &dalerr.ConfigurationError{BaseURL: target, Reason: err.Error()}
	}
	c := NewFlightClient(conn, cfg)
	c.conn = conn
	return c, nil
}

// NewFlightClient wraps an existing connection. Close does not close conn.
func NewFlightClient(conn grpc.ClientConnInterface, cfg FlightConfig) *FlightClient {
	if cfg.Allocator == nil {
		cfg.Allocator = memory.DefaultAllocator
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightClient{
		client: flight.NewFlightServiceClient(conn),
		cfg:    cfg,
		logger: logger,
	}
}

// Close closes the connection opened by DialFlight.
func (c *FlightClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SecurityMethods reports token security when a token is configured.
func (c *FlightClient) SecurityMethods() []string {
	if c.cfg.Token == "" {
		return nil
	}
	return []string{capability.SecurityToken}
}

// Query runs the search as a DoGet and collects the streamed batches.
func (c *FlightClient) Query(ctx context.Context, endpoint string, values param.Values) (*table.Table, error) {
	reqID := uuid.NewString()
	data, err := ticket.Encode(ticket.Ticket{
		Archive:   ArchiveName(endpoint),
		Params:    values,
		RequestID: reqID,
	})
	if err != nil {
		return nil, &dalerr.ConfigurationError{BaseURL: endpoint, Reason: err.Error()}
	}

	md := metadata.Pairs(RequestIDMetadata, reqID)
	if c.cfg.Token != "" {
		md.Append("authorization", "Bearer "+c.cfg.Token)
	}
	ctx = metadata.NewOutgoingContext(ctx, md)

	stream, err := c.client.DoGet(ctx, &flight.Ticket{Ticket: data})
	if err != nil {
		return nil, mapFlightError(endpoint, err)
	}

	rdr, err := flight.NewRecordReader(stream, ipc.WithAllocator(c.cfg.Allocator))
	if err != nil {
		return nil, mapFlightError(endpoint, err)
	}
	defer rdr.Release()

	tbl, err := table.FromReader(c.cfg.Allocator, rdr)
	if err != nil {
		return nil, mapFlightError(endpoint, err)
	}

	trailer := stream.Trailer()
	if v := trailer.Get(OverflowTrailer); len(v) > 0 && v[0] == "true" {
		tbl.SetOverflow(true)
	}

	c.logger.Debug("SIA flight query completed",
		"endpoint", endpoint,
		"request_id", reqID,
		"rows", tbl.NumRows(),
		"overflow", tbl.Overflow(),
	)
	return tbl, nil
}

// ArchiveName extracts the archive name from a Flight endpoint. URLs
// contribute their path; anything else is taken as the name itself.
func ArchiveName(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return strings.Trim(u.Path, "/")
	}
	return strings.Trim(endpoint, "/")
}

// mapFlightError converts gRPC status codes to the dalerr kinds. Errors
// without a status come from decoding the stream.
func mapFlightError(endpoint string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &dalerr.FormatError{Format: "arrow-flight", Err: err}
	}

	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return &dalerr.QueryError{URL: endpoint, StatusCode: http.StatusBadRequest, Reason: st.Message()}
	case codes.NotFound:
		return &dalerr.QueryError{URL: endpoint, StatusCode: http.StatusNotFound, Reason: st.Message()}
	case codes.Unauthenticated:
		return &dalerr.QueryError{URL: endpoint, StatusCode: http.StatusUnauthorized, Reason: st.Message()}
	case codes.PermissionDenied:
		return &dalerr.QueryError{URL: endpoint, StatusCode: http.StatusForbidden, Reason: st.Message()}
	case codes.ResourceExhausted:
		return &dalerr.ServiceError{URL: endpoint, StatusCode: http.StatusTooManyRequests, Err: errors.New(st.Message())}
	case codes.Canceled:
		return &dalerr.ServiceError{URL: endpoint, Err: context.Canceled}
	case codes.DeadlineExceeded:
		return &dalerr.ServiceError{URL: endpoint, Err: context.DeadlineExceeded}
	}
	return &dalerr.ServiceError{URL: endpoint, StatusCode: http.StatusServiceUnavailable, Err: errors.New(st.Message())}
}
