// Package auth provides bearer token authentication for SIA archive
// servers, over both Arrow Flight (gRPC interceptors) and plain HTTP.
//
// An Authenticator maps a token to an identity. Authenticators that also
// implement ArchiveAuthorizer decide per archive whether that identity may
// search it; the check runs once the archive of a request is resolved.
package auth

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidAuthHeader reports an Authorization header without the
	// Bearer scheme.
	ErrInvalidAuthHeader = errors.New("authorization header must use Bearer scheme")

	// ErrTokenIsEmpty reports a request without a bearer token.
	ErrTokenIsEmpty = errors.New("authorization token is empty")

	// ErrUnauthenticated marks a token the authenticator rejected.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden marks an identity that may not search an archive.
	ErrForbidden = errors.New("archive access denied")
)

// AnonymousIdentity is the identity given to every caller by NoAuth.
const AnonymousIdentity = "anonymous"

// Authenticator resolves bearer tokens to identities. It is called
// concurrently and must be safe for that.
type Authenticator interface {
	// Authenticate returns the identity owning token, or an error when the
	// token is unknown or expired. ctx bounds calls to remote backends.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// ArchiveAuthorizer restricts authenticated identities to some archives.
// AuthorizeArchive sees the context returned by authentication, so
// IdentityFromContext works inside it; archive is the resolved archive
// name. The returned context replaces the request context.
type ArchiveAuthorizer interface {
	AuthorizeArchive(ctx context.Context, archive string) (context.Context, error)
}

type anonymous struct{}

// NoAuth accepts any token, including none, as AnonymousIdentity. Meant
// for local development.
func NoAuth() Authenticator { return anonymous{} }

func (anonymous) Authenticate(context.Context, string) (string, error) {
	return AnonymousIdentity, nil
}

type identityKey struct{}

// IdentityFromContext returns the identity stored by WithIdentity, or ""
// for unauthenticated requests.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

// WithIdentity returns ctx carrying identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// TokenFromAuthorizationHeader extracts the token of a "Bearer <token>"
// header value. The scheme is matched case-insensitively.
func TokenFromAuthorizationHeader(header string) (string, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidAuthHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrTokenIsEmpty
	}
	return token, nil
}

// ValidateToken authenticates token and stores the identity in the
// returned context. Rejections are marked with ErrUnauthenticated.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, ErrTokenIsEmpty
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, errors.Mark(errors.Wrap(err, "invalid token"), ErrUnauthenticated)
	}
	return WithIdentity(ctx, identity), nil
}

// AuthorizeArchive runs the archive check of authenticator when it
// implements ArchiveAuthorizer. Other authenticators allow every archive.
// Denials are marked with ErrForbidden.
func AuthorizeArchive(ctx context.Context, authenticator Authenticator, archive string) (context.Context, error) {
	az, ok := authenticator.(ArchiveAuthorizer)
	if !ok {
		return ctx, nil
	}
	out, err := az.AuthorizeArchive(ctx, archive)
	if err != nil {
		return ctx, errors.Mark(errors.Wrapf(err, "archive %q", archive), ErrForbidden)
	}
	return out, nil
}
