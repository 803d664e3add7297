package archive

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc"

	"github.com/hugr-lab/sia-go/auth"
)

// Server implements the Flight DoGet handler for SIA searches.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer
	*engine
}

// NewServer registers the archive Flight service on the provided gRPC
// server. It does NOT start the gRPC server; the caller controls the
// lifecycle via grpcServer.Serve().
//
// For authentication, create the gRPC server with ServerOptions:
//
//	grpcServer := grpc.NewServer(archive.ServerOptions(cfg)...)
//	srv, err := archive.NewServer(grpcServer, cfg)
func NewServer(grpcServer *grpc.Server, cfg Config) (*Server, error) {
	e, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	srv := &Server{engine: e}
	flight.RegisterFlightServiceServer(grpcServer, srv)

	e.logger.Info("SIA archive Flight server registered",
		"archives", e.archives.names(),
		"has_auth", cfg.Auth != nil,
		"max_records", cfg.MaxRecords,
	)
	return srv, nil
}

// ServerOptions returns gRPC server options with authentication
// interceptors and message size limits from cfg.
func ServerOptions(cfg Config) []grpc.ServerOption {
	var opts []grpc.ServerOption

	if cfg.Auth != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(auth.UnaryServerInterceptor(cfg.Auth)),
			grpc.StreamInterceptor(auth.StreamServerInterceptor(cfg.Auth)),
		)
	}

	if cfg.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(cfg.MaxMessageSize),
			grpc.MaxSendMsgSize(cfg.MaxMessageSize),
		)
	}
	return opts
}

// AddArchive registers an archive at runtime.
func (s *Server) AddArchive(a Archive) error {
	return s.archives.add(a)
}

// RemoveArchive unregisters an archive by name. In-flight searches
// complete normally.
func (s *Server) RemoveArchive(name string) error {
	return s.archives.remove(name)
}

// Archives returns the registered archive names; the first is the default.
func (s *Server) Archives() []string {
	return s.archives.names()
}
