package archive

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sia-go/internal/ticket"
	"github.com/hugr-lab/sia-go/param"
	"github.com/hugr-lab/sia-go/transport"
)

// DoGet runs the search carried by the ticket and streams the matching
// rows as Arrow record batches.
//
// The handler:
//  1. Decodes the ticket and parses its wire values into a registry
//  2. Resolves and authorizes the target archive
//  3. Streams the archive's records, cut at the effective MAXREC
//  4. Flags a cut result with the overflow trailer
func (s *Server) DoGet(tkt *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := stream.Context()

	t, err := ticket.Decode(tkt.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	logger := s.logger.With("archive", t.Archive, "request_id", requestID(stream, t))
	logger.Debug("DoGet request", "keywords", t.Params.Keys())

	q, err := param.ParseValues(t.Params)
	if err != nil {
		logger.Debug("Rejected search parameters", "error", err)
		return toStatus(err)
	}
	if ignored := q.Ignored(); len(ignored) > 0 {
		logger.Debug("Ignoring unknown keywords", "keywords", ignored)
	}

	rdr, limit, err := s.search(ctx, t.Archive, q)
	if err != nil {
		logger.Error("Search failed", "error", err)
		return toStatus(err)
	}
	defer rdr.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(rdr.Schema()), ipc.WithAllocator(s.alloc))
	defer writer.Close()

	batches := 0
	rows, overflow, err := truncate(ctx, rdr, limit, func(rec arrow.Record) error {
		batches++
		return writer.Write(rec)
	})
	if err != nil {
		logger.Error("Streaming failed", "batch", batches, "error", err)
		return toStatus(err)
	}

	if overflow {
		stream.SetTrailer(metadata.Pairs(transport.OverflowTrailer, "true"))
	}

	logger.Debug("DoGet completed",
		"batches_sent", batches,
		"total_rows", rows,
		"overflow", overflow,
	)
	return nil
}

// requestID prefers the id in the call metadata over the ticket's.
func requestID(stream flight.FlightService_DoGetServer, t *ticket.Ticket) string {
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if v := md.Get(transport.RequestIDMetadata); len(v) > 0 {
			return v[0]
		}
	}
	return t.RequestID
}
