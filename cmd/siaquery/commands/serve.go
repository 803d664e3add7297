package commands

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/hugr-lab/sia-go/archive"
	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/table"
)

// ServeCmd serves an ObsCore table as an SIA v2 archive.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Serve an ObsCore table as an SIA v2 archive",
	Long: `Load an ObsCore table (CSV, VOTable or Arrow IPC) into memory and serve
it over the SIA v2 HTTP interface, Arrow Flight, or both.

Bearer tokens map to identities with --tokens secret=alice; without tokens
the archive is public.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlagKeys = map[string]string{
	"data":                "serve.data",
	"archive":             "serve.archive",
	"http":                "serve.http",
	"flight":              "serve.flight",
	"public-url":          "serve.public_url",
	"max-records":         "serve.max_records",
	"default-max-records": "serve.default_max_records",
	"tokens":              "serve.tokens",
}

func init() {
	flags := ServeCmd.Flags()
	flags.String("data", "", "ObsCore table file (.csv, .xml, .vot, .arrow)")
	flags.String("archive", "default", "Archive name")
	flags.String("http", ":8080", "HTTP listen address, empty to disable")
	flags.String("flight", "", "Arrow Flight listen address, empty to disable")
	flags.String("public-url", "", "Base URL advertised in capabilities")
	flags.Int("max-records", 0, "Hard cap on returned records, 0 for none")
	flags.Int("default-max-records", 1000, "Records returned when MAXREC is absent")
	flags.StringToString("tokens", nil, "Bearer tokens, token=identity")
}

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	sc := cfg.Serve
	if sc.Data == "" {
		return errors.New("--data is required")
	}
	if sc.HTTPAddr == "" && sc.FlightAddr == "" {
		return errors.New("nothing to serve: both --http and --flight are empty")
	}

	a, err := loadArchive(sc.Archive, sc.Data)
	if err != nil {
		return err
	}
	defer a.Close()

	acfg := archive.Config{
		Archives:          []archive.Archive{a},
		Logger:            logger,
		MaxRecords:        sc.MaxRecords,
		DefaultMaxRecords: sc.DefaultMaxRecords,
		PublicURL:         sc.PublicURL,
	}
	if len(sc.Tokens) > 0 {
		acfg.Auth = auth.StaticTokens(sc.Tokens)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if sc.HTTPAddr != "" {
		h, err := archive.NewHandler(acfg)
		if err != nil {
			return err
		}
		srv := &http.Server{Addr: sc.HTTPAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "http server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(sctx)
		})
		pterm.Info.Printfln("SIA v2 HTTP interface on %s", sc.HTTPAddr)
	}

	if sc.FlightAddr != "" {
		lis, err := net.Listen("tcp", sc.FlightAddr)
		if err != nil {
			return errors.Wrapf(err, "listen on %s", sc.FlightAddr)
		}
		gs := grpc.NewServer(archive.ServerOptions(acfg)...)
		if _, err := archive.NewServer(gs, acfg); err != nil {
			_ = lis.Close()
			return err
		}
		g.Go(func() error {
			return errors.Wrap(gs.Serve(lis), "flight server")
		})
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
		pterm.Info.Printfln("Arrow Flight interface on %s", lis.Addr())
	}

	pterm.Success.Printfln("Serving %d records as archive %q", a.Len(), a.Name())
	return g.Wait()
}

// loadArchive reads an ObsCore table, picking the decoder from the file
// extension.
func loadArchive(name, path string) (*archive.MemoryArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open data file")
	}
	defer f.Close()

	a, err := archive.LoadMemoryArchive(name, contentTypeFor(path), f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	logger.Info("Loaded archive", "archive", name, "file", path, "records", a.Len())
	return a, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return table.MIMECSV
	case ".arrow", ".arrows", ".ipc":
		return table.MIMEArrow
	}
	return table.MIMEVOTable
}
