package auth

import (
	"context"

	"github.com/cockroachdb/errors"
)

// TokenFunc resolves a token to an identity.
type TokenFunc func(token string) (identity string, err error)

// Authenticate implements Authenticator.
func (f TokenFunc) Authenticate(_ context.Context, token string) (string, error) {
	return f(token)
}

// BearerAuth turns a validation function into an Authenticator:
//
//	a := auth.BearerAuth(func(token string) (string, error) {
//		claims, err := verifyJWT(token)
//		if err != nil {
//			return "", err
//		}
//		return claims.Subject, nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return TokenFunc(validate)
}

// StaticTokens authenticates against a fixed token to identity table.
// The map must not be modified after the call.
func StaticTokens(tokens map[string]string) Authenticator {
	return BearerAuth(func(token string) (string, error) {
		identity, ok := tokens[token]
		if !ok {
			return "", errors.New("unknown token")
		}
		return identity, nil
	})
}

// archiveACL restricts identities to listed archives.
type archiveACL struct {
	Authenticator
	allowed map[string][]string
}

// WithArchiveACL wraps an authenticator so that each identity may only
// search the archives listed for it. Identities missing from the table are
// denied everywhere.
func WithArchiveACL(a Authenticator, allowed map[string][]string) Authenticator {
	return &archiveACL{Authenticator: a, allowed: allowed}
}

func (a *archiveACL) AuthorizeArchive(ctx context.Context, archive string) (context.Context, error) {
	identity := IdentityFromContext(ctx)
	for _, name := range a.allowed[identity] {
		if name == archive {
			return ctx, nil
		}
	}
	return ctx, errors.Newf("identity %q may not search this archive", identity)
}
