package sia

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/capability"
	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/obscore"
	"github.com/hugr-lab/sia-go/transport"
)

// ClientConfig contains configuration for SIA services and queries.
type ClientConfig struct {
	// Querier executes searches.
	// OPTIONAL: If nil, an HTTP transport is built from HTTP.
	Querier transport.Querier

	// Fetcher retrieves VOSI capabilities documents.
	// OPTIONAL: If nil, Querier is used when it implements transport.Fetcher,
	// otherwise the HTTP transport.
	Fetcher transport.Fetcher

	// HTTP configures the default HTTP transport.
	// OPTIONAL: Unused when both Querier and Fetcher are set.
	// Decode.ColumnTypes defaults to the ObsCore column types.
	HTTP transport.HTTPConfig

	// SecurityMethods lists IVOA security method ids the caller can satisfy,
	// in addition to anonymous and cookie access and the methods reported by
	// the transports. Endpoints requiring only other methods are skipped.
	// OPTIONAL.
	SecurityMethods []string

	// Logger for client logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: Only used if Logger is nil.
	LogLevel *slog.Level
}

// client is the resolved form of a ClientConfig.
type client struct {
	querier  transport.Querier
	fetcher  transport.Fetcher
	security capability.SecuritySupport
	logger   *slog.Logger
}

func newClient(cfg ClientConfig) (*client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		if cfg.LogLevel != nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: *cfg.LogLevel,
			}))
		} else {
			logger = slog.Default()
		}
	}

	c := &client{
		querier:  cfg.Querier,
		fetcher:  cfg.Fetcher,
		security: capability.DefaultSecurity(),
		logger:   logger,
	}

	if c.fetcher == nil {
		if f, ok := c.querier.(transport.Fetcher); ok {
			c.fetcher = f
		}
	}
	if c.querier == nil || c.fetcher == nil {
		httpCfg := cfg.HTTP
		if httpCfg.Decode.ColumnTypes == nil {
			httpCfg.Decode.ColumnTypes = obscore.ColumnTypes()
		}
		if httpCfg.Logger == nil {
			httpCfg.Logger = logger
		}
		hc := transport.NewHTTPClient(httpCfg)
		if c.querier == nil {
			c.querier = hc
		}
		if c.fetcher == nil {
			c.fetcher = hc
		}
	}

	for _, m := range cfg.SecurityMethods {
		c.security[m] = true
	}
	for _, t := range []any{c.querier, c.fetcher} {
		if sa, ok := t.(transport.SecurityAware); ok {
			for _, m := range sa.SecurityMethods() {
				c.security[m] = true
			}
		}
	}
	return c, nil
}

// validateConfig checks the ClientConfig fields that have constraints.
func validateConfig(cfg ClientConfig) error {
	var reason string
	switch {
	case cfg.HTTP.Timeout < 0:
		reason = "HTTP timeout must not be negative"
	case cfg.HTTP.MaxRetries < 0:
		reason = "HTTP max retries must not be negative"
	case cfg.HTTP.RateLimit < 0:
		reason = "HTTP rate limit must not be negative"
	default:
		return nil
	}
	return errors.WithHint(&dalerr.ConfigurationError{Reason: reason}, "check sia.ClientConfig.HTTP")
}
