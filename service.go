package sia

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/capability"
	"github.com/hugr-lab/sia-go/dalerr"
)

// CapabilitiesPath is appended to a service base URL to fetch its VOSI
// capabilities.
const CapabilitiesPath = "/capabilities"

// Service is an SIA v2 service whose query endpoint was resolved from its
// capabilities.
type Service struct {
	baseURL  string
	endpoint string
	caps     []capability.Capability
	client   *client
}

// NewService fetches the capabilities of the service at baseURL and
// resolves its SIA v2 query endpoint. When no interface qualifies the
// service is still returned, and every search fails with a
// *ConfigurationError.
func NewService(ctx context.Context, baseURL string, cfg ClientConfig) (*Service, error) {
	cl, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, &dalerr.ConfigurationError{Reason: "empty service URL"}
	}

	capsURL := baseURL + CapabilitiesPath
	rc, err := cl.fetcher.Fetch(ctx, capsURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	caps, err := capability.Parse(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "capabilities of %s", baseURL)
	}
	return newService(baseURL, caps, cl), nil
}

// NewServiceFromCapabilities resolves the query endpoint from already known
// capabilities without any I/O.
func NewServiceFromCapabilities(baseURL string, caps []capability.Capability, cfg ClientConfig) (*Service, error) {
	cl, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return newService(strings.TrimRight(baseURL, "/"), caps, cl), nil
}

func newService(baseURL string, caps []capability.Capability, cl *client) *Service {
	endpoint, ok := capability.Resolve(caps, capability.SIA2Query, cl.security)
	if ok {
		cl.logger.Debug("resolved SIA endpoint", "service", baseURL, "endpoint", endpoint)
	} else {
		cl.logger.Warn("no usable SIA v2 endpoint", "service", baseURL, "capabilities", len(caps))
	}
	return &Service{
		baseURL:  baseURL,
		endpoint: endpoint,
		caps:     caps,
		client:   cl,
	}
}

// BaseURL returns the service base URL.
func (s *Service) BaseURL() string { return s.baseURL }

// Endpoint returns the resolved query endpoint.
func (s *Service) Endpoint() (string, bool) { return s.endpoint, s.endpoint != "" }

// Capabilities returns the advertised capabilities.
func (s *Service) Capabilities() []capability.Capability { return s.caps }

// NewQuery creates a query against the resolved endpoint.
func (s *Service) NewQuery(c Constraints) (*Query, error) {
	return NewQuery(s.endpoint, c, withClient(s.client))
}

// Search builds and executes a query in one step.
func (s *Service) Search(ctx context.Context, c Constraints) (*Results, error) {
	if s.endpoint == "" {
		return nil, errors.WithHint(
			&dalerr.ConfigurationError{BaseURL: s.baseURL, Reason: "no SIA v2 query endpoint resolved"},
			"the service advertises no usable SIA v2 interface for the supported security methods",
		)
	}
	q, err := s.NewQuery(c)
	if err != nil {
		return nil, err
	}
	return q.Execute(ctx)
}

// Search discovers the SIA v2 service at url and runs one search.
func Search(ctx context.Context, url string, c Constraints, cfg ClientConfig) (*Results, error) {
	svc, err := NewService(ctx, url, cfg)
	if err != nil {
		return nil, err
	}
	return svc.Search(ctx, c)
}
