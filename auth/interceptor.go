package auth

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ExtractToken returns the bearer token of the "authorization" call
// metadata, or "" when the call carries none.
func ExtractToken(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", nil
	}
	return TokenFromAuthorizationHeader(values[0])
}

// Status converts an authentication or authorization failure to a gRPC
// status: PermissionDenied for ErrForbidden, Unauthenticated otherwise.
func Status(err error) error {
	code := codes.Unauthenticated
	if errors.Is(err, ErrForbidden) {
		code = codes.PermissionDenied
	}
	return status.Error(code, err.Error())
}

func authenticate(ctx context.Context, authenticator Authenticator) (context.Context, error) {
	token, err := ExtractToken(ctx)
	if err == nil {
		ctx, err = ValidateToken(ctx, token, authenticator)
	}
	if err != nil {
		return ctx, Status(err)
	}
	return ctx, nil
}

// UnaryServerInterceptor authenticates unary calls and stores the identity
// in the handler context. A nil authenticator disables the check.
func UnaryServerInterceptor(authenticator Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if authenticator == nil {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, authenticator)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is UnaryServerInterceptor for streaming calls
// such as DoGet.
func StreamServerInterceptor(authenticator Authenticator) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if authenticator == nil {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), authenticator)
		if err != nil {
			return err
		}
		return handler(srv, identityStream{ServerStream: ss, ctx: ctx})
	}
}

// identityStream overrides the stream context with the authenticated one.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s identityStream) Context() context.Context { return s.ctx }
