package archive

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/sia-go/auth"
	"github.com/hugr-lab/sia-go/dalerr"
	"github.com/hugr-lab/sia-go/internal/recovery"
)

// grpcCode classifies a search failure. Status errors returned by an
// Archive keep their code.
func grpcCode(err error) codes.Code {
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Code()
	}

	var pe *recovery.PanicError
	switch {
	case errors.As(err, &pe):
		return codes.Internal
	case errors.Is(err, auth.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, auth.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, ErrArchiveNotFound):
		return codes.NotFound
	case errors.Is(err, dalerr.ErrValidation), errors.Is(err, dalerr.ErrQuery):
		return codes.InvalidArgument
	case errors.Is(err, dalerr.ErrConfiguration):
		return codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// toStatus converts a search failure to a gRPC status error.
func toStatus(err error) error {
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Err()
	}
	return status.Error(grpcCode(err), err.Error())
}

// httpStatus maps a search failure to an HTTP status code.
func httpStatus(err error) int {
	switch grpcCode(err) {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded, codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
