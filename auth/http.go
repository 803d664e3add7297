package auth

import (
	"net/http"
)

// Middleware authenticates HTTP requests with the Authorization header.
// Failures are answered with 401 and a Bearer challenge. A nil
// authenticator passes every request through.
func Middleware(authenticator Authenticator, next http.Handler) http.Handler {
	if authenticator == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromAuthorizationHeader(r.Header.Get("Authorization"))
		if err != nil {
			unauthorized(w, err)
			return
		}
		ctx, err := ValidateToken(r.Context(), token, authenticator)
		if err != nil {
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="sia"`)
	http.Error(w, err.Error(), http.StatusUnauthorized)
}
