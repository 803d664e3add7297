// Package archive serves SIA v2 searches from user-provided Archive
// implementations. The same archives can be exposed over Arrow Flight
// (NewServer) and over the HTTP query interface (NewHandler).
//
// Basic Flight example:
//
//	grpcServer := grpc.NewServer(archive.ServerOptions(cfg)...)
//	if _, err := archive.NewServer(grpcServer, cfg); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
package archive

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cockroachdb/errors"

	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/param"
)

// Archive answers SIA v2 searches over one ObsCore collection.
// Implementations MUST be goroutine-safe.
type Archive interface {
	// Name identifies the archive in Flight tickets and HTTP paths.
	Name() string

	// Search returns the rows matching every constraint of q, as ObsCore
	// columns. The server applies MAXREC to the returned stream.
	Search(ctx context.Context, q *param.Registry) (array.RecordReader, error)
}

// Config contains configuration for archive servers.
type Config struct {
	// Archives are the searchable collections. The first one also answers
	// requests that name no archive.
	// REQUIRED: at least one, with unique names.
	Archives []Archive

	// Auth provides authentication logic.
	// OPTIONAL: If nil, no authentication (all requests allowed).
	Auth auth.Authenticator

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// MaxRecords is the service limit applied to every search, whatever
	// MAXREC asks for. Results cut by it are flagged as overflowed.
	// OPTIONAL: If 0, results are unbounded.
	MaxRecords int

	// DefaultMaxRecords applies to searches without MAXREC.
	// OPTIONAL: If 0, MaxRecords alone applies.
	DefaultMaxRecords int

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	MaxMessageSize int

	// PublicURL is the externally visible base URL of the HTTP interface,
	// used in the capabilities document.
	// OPTIONAL: If empty, derived from each request.
	PublicURL string
}

// Standard errors returned by the archive package.
var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid archive server config")

	// ErrArchiveNotFound indicates a request named an unknown archive.
	ErrArchiveNotFound = errors.New("archive not found")
)

func validateConfig(cfg Config) error {
	if len(cfg.Archives) == 0 {
		return errors.New("at least one archive is required")
	}
	if cfg.MaxRecords < 0 || cfg.DefaultMaxRecords < 0 {
		return errors.New("record limits cannot be negative")
	}
	if cfg.MaxMessageSize < 0 {
		return errors.New("max message size cannot be negative")
	}
	return nil
}
