package commands

import (
	"context"
	"net/url"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hugr-lab/sia-go"
	"github.com/hugr-lab/sia-go/transport"
)

// SearchCmd runs an image search.
var SearchCmd = &cobra.Command{
	Use:   "search <service-url | query-url | grpc://host:port/archive>",
	Short: "Run an image search",
	Long: `Run an SIA v2 image search.

HTTP services are resolved through their VOSI capabilities unless --direct
is given, in which case the URL is queried as is. grpc:// URLs address an
archive on an Arrow Flight server.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchConstraints *constraintFlags
	searchDirect      bool
	searchOutput      string
	searchColumns     []string
)

func init() {
	searchConstraints = addConstraintFlags(SearchCmd)
	SearchCmd.Flags().BoolVar(&searchDirect, "direct", false, "Query the URL without capability discovery")
	SearchCmd.Flags().StringVarP(&searchOutput, "output", "o", "table", "Output: table, csv, votable or arrow")
	SearchCmd.Flags().StringSliceVar(&searchColumns, "columns", defaultColumns, "Columns shown by the table output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

	q, closeFn, err := newSearchQuery(ctx, target)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Debug("Running search", "endpoint", q.Endpoint(), "keywords", q.Values().Keys())

	var spinner *pterm.SpinnerPrinter
	if searchOutput == "table" {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone().Start("Searching " + q.Endpoint())
	}
	res, err := q.Execute(ctx)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}
	defer res.Release()

	return writeResults(cmd.OutOrStdout(), res, searchOutput, searchColumns)
}

// newSearchQuery picks the transport for target and builds the query. The
// returned function releases the transport.
func newSearchQuery(ctx context.Context, target string) (*sia.Query, func(), error) {
	values := searchConstraints.Values()
	noop := func() {}

	u, err := url.Parse(target)
	if err == nil && strings.EqualFold(u.Scheme, "grpc") {
		client, err := transport.DialFlight(u.Host, transport.FlightConfig{Token: cfg.Flight.Token, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		q, err := sia.NewQueryFromValues(target, values, sia.WithQuerier(client), sia.WithLogger(logger))
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return q, func() { _ = client.Close() }, nil
	}

	endpoint := target
	if !searchDirect {
		svc, err := sia.NewService(ctx, target, clientConfig())
		if err != nil {
			return nil, nil, err
		}
		resolved, ok := svc.Endpoint()
		if !ok {
			return nil, nil, &sia.ConfigurationError{BaseURL: target, Reason: "no usable SIA v2 query endpoint advertised"}
		}
		endpoint = resolved
	}

	q, err := sia.NewQueryFromValues(endpoint, values, sia.WithConfig(clientConfig()))
	if err != nil {
		return nil, nil, err
	}
	return q, noop, nil
}
