// Package transport moves SIA queries to services and brings back decoded
// tables. The client core only sees the Querier and Fetcher contracts; HTTP
// and Arrow Flight implementations are provided.
package transport

import (
	"context"
	"io"

	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/table"
)

// Querier executes one query against an endpoint. Errors are typed with the
// dalerr kinds: *dalerr.ServiceError for connectivity problems,
// *dalerr.QueryError for rejected requests and *dalerr.FormatError for
// undecodable responses.
type Querier interface {
	Query(ctx context.Context, endpoint string, values param.Values) (*table.Table, error)
}

// Fetcher retrieves an auxiliary document such as a VOSI capabilities
// listing.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// SecurityAware is implemented by transports that can satisfy IVOA security
// methods beyond anonymous access.
type SecurityAware interface {
	SecurityMethods() []string
}
