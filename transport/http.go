package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/internal/compress"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// DefaultUserAgent is sent when HTTPConfig.UserAgent is empty.
const DefaultUserAgent = "sia-go/1.0"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// OverflowHeader is set to "true" when MAXREC truncated a response whose
// format has no QUERY_STATUS of its own (CSV, Arrow).
const OverflowHeader = "X-SIA-Overflow"

// acceptFormats lists the response media types the decoders understand.
var acceptFormats = strings.Join([]string{table.MIMEVOTable, table.MIMEArrow, table.MIMECSV, "text/xml;q=0.9"}, ", ")

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Timeout bounds each request attempt.
	// OPTIONAL: defaults to 30s.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a connectivity
	// failure or a 429/5xx answer.
	// OPTIONAL: defaults to 0, a single attempt.
	MaxRetries int

	// RateLimit caps requests per second.
	// OPTIONAL: 0 disables rate limiting.
	RateLimit float64

	// RateBurst is the limiter burst size.
	// OPTIONAL: defaults to 1.
	RateBurst int

	// UserAgent is the User-Agent header.
	// OPTIONAL: defaults to DefaultUserAgent.
	UserAgent string

	// Headers are added to every request.
	// OPTIONAL.
	Headers map[string]string

	// Auth decorates every request.
	// OPTIONAL: defaults to NoAuth.
	Auth Credentials

	// UsePOST sends query parameters as a form body instead of the URL.
	// OPTIONAL.
	UsePOST bool

	// Transport is the underlying round tripper.
	// OPTIONAL: defaults to http.DefaultTransport.
	Transport http.RoundTripper

	// Decode tunes response decoding.
	// OPTIONAL.
	Decode table.Options

	// Logger receives debug output.
	// OPTIONAL: defaults to slog.Default().
	Logger *slog.Logger
}

// =============================================================================
// CLIENT
// =============================================================================

// HTTPClient is the HTTP implementation of Querier and Fetcher.
type HTTPClient struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var (
	_ Querier       = (*HTTPClient)(nil)
	_ Fetcher       = (*HTTPClient)(nil)
	_ SecurityAware = (*HTTPClient)(nil)
)

// NewHTTPClient creates an HTTP transport.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Auth == nil {
		cfg.Auth = NoAuth{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &HTTPClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
		logger:  logger,
	}
}

// SecurityMethods reports the IVOA security method of the configured
// credentials, if any.
func (c *HTTPClient) SecurityMethods() []string {
	if m := c.cfg.Auth.SecurityMethod(); m != "" {
		return []string{m}
	}
	return nil
}

// Query sends the values to endpoint and decodes the response table.
func (c *HTTPClient) Query(ctx context.Context, endpoint string, values param.Values) (*table.Table, error) {
	target := endpoint
	var form string
	if c.cfg.UsePOST {
		form = values.Encode()
	} else if enc := values.Encode(); enc != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		target = endpoint + sep + enc
	}

	var tbl *table.Table
	err := c.withRetries(ctx, target, func(reqID string) error {
		method := http.MethodGet
		var rd io.Reader
		if c.cfg.UsePOST {
			method = http.MethodPost
			rd = strings.NewReader(form)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return &dalerr.ConfigurationError{BaseURL: endpoint, Reason: err.Error()}
		}
		if c.cfg.UsePOST {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		req.Header.Set("Accept", acceptFormats)
		c.decorate(req, reqID)

		resp, err := c.client.Do(req)
		if err != nil {
			return &dalerr.ServiceError{URL: target, Err: err}
		}
		defer resp.Body.Close()

		if err := checkStatus(target, resp); err != nil {
			return err
		}

		body, err := compress.NewReader(resp.Header.Get("Content-Encoding"), resp.Body)
		if err != nil {
			return &dalerr.FormatError{Format: "content-encoding", Err: err}
		}
		defer body.Close()

		tbl, err = table.Decode(resp.Header.Get("Content-Type"), body, c.cfg.Decode)
		if err != nil {
			var qerr *dalerr.QueryError
			if errors.As(err, &qerr) && qerr.URL == "" {
				qerr.URL = target
			}
			return err
		}
		if strings.EqualFold(resp.Header.Get(OverflowHeader), "true") {
			tbl.SetOverflow(true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("SIA query completed",
		"endpoint", endpoint,
		"keywords", values.Keys(),
		"rows", tbl.NumRows(),
		"overflow", tbl.Overflow(),
	)
	return tbl, nil
}

// Fetch retrieves url with the same headers, credentials and retry policy as
// Query. The caller closes the returned body.
func (c *HTTPClient) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var out io.ReadCloser
	err := c.withRetries(ctx, url, func(reqID string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return &dalerr.ConfigurationError{BaseURL: url, Reason: err.Error()}
		}
		c.decorate(req, reqID)

		resp, err := c.client.Do(req)
		if err != nil {
			return &dalerr.ServiceError{URL: url, Err: err}
		}
		if err := checkStatus(url, resp); err != nil {
			resp.Body.Close()
			return err
		}

		rd, err := compress.NewReader(resp.Header.Get("Content-Encoding"), resp.Body)
		if err != nil {
			resp.Body.Close()
			return &dalerr.FormatError{Format: "content-encoding", Err: err}
		}
		out = &bodyCloser{ReadCloser: rd, body: resp.Body}
		return nil
	})
	return out, err
}

func (c *HTTPClient) decorate(req *http.Request, reqID string) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Encoding", compress.AcceptEncoding)
	req.Header.Set(RequestIDHeader, reqID)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	c.cfg.Auth.Apply(req)
}

// withRetries runs fn under the rate limiter, retrying retryable failures
// with exponential backoff.
func (c *HTTPClient) withRetries(ctx context.Context, target string, fn func(reqID string) error) error {
	reqID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &dalerr.ServiceError{URL: target, Err: errors.Wrap(err, "rate limiter")}
		}

		err := fn(reqID)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * 100 * time.Millisecond
		c.logger.Debug("retrying SIA request",
			"url", target,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return &dalerr.ServiceError{URL: target, Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	var serr *dalerr.ServiceError
	if !errors.As(err, &serr) {
		return false
	}
	if errors.Is(serr.Err, context.Canceled) || errors.Is(serr.Err, context.DeadlineExceeded) {
		return false
	}
	return serr.StatusCode == 0 || serr.StatusCode == http.StatusTooManyRequests || serr.StatusCode >= 500
}

// maxErrorBody bounds how much of an error response is kept as the reason.
const maxErrorBody = 512

// checkStatus maps non-2xx answers to typed errors: 429 and 5xx are
// *dalerr.ServiceError, other 4xx are *dalerr.QueryError.
func checkStatus(url string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	reason := errorReason(resp)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &dalerr.ServiceError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(reason)}
	}
	return &dalerr.QueryError{URL: url, StatusCode: resp.StatusCode, Reason: reason}
}

// errorReason extracts a message from an error response, preferring the
// QUERY_STATUS text of a VOTable error document.
func errorReason(resp *http.Response) string {
	rd, err := compress.NewReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return http.StatusText(resp.StatusCode)
	}
	defer rd.Close()
	raw, _ := io.ReadAll(io.LimitReader(rd, 64*1024))

	if f, ok := table.FormatFor(resp.Header.Get("Content-Type")); ok && f == table.FormatVOTable {
		tbl, err := table.DecodeVOTable(bytes.NewReader(raw), table.Options{})
		var qerr *dalerr.QueryError
		if errors.As(err, &qerr) {
			return qerr.Reason
		}
		if err == nil {
			tbl.Release()
		}
	}

	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return msg
}

type bodyCloser struct {
	io.ReadCloser
	body io.Closer
}

func (b *bodyCloser) Close() error {
	err := b.ReadCloser.Close()
	if cerr := b.body.Close(); err == nil {
		err = cerr
	}
	return err
}
