package authenticator

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// bearerToken extracts the token from an Authorization value. Both
// "Bearer <token>" and a bare token are accepted.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, common.BearerScheme) {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(header, common.BearerScheme) {
		return ""
	}
	return header
}

// Identify resolves the bearer token of rc, if any. On success rc is marked
// authenticated with the token claims; otherwise rc is left untouched.
func (a *Authenticator) Identify(ctx context.Context, rc RequestContext) {
	header, ok := rc.GetReqHeader(common.AuthorizationHeaderName)
	if !ok {
		return
	}
	token := bearerToken(header)
	if token == "" {
		return
	}

	claims, err := a.VerifyAuthToken(token)
	if err != nil {
		a.logger.Debug(ctx, "bearer token rejected", "error", err)
		return
	}

	rc.SetAuth(true)
	rc.SetUser(claims)
}

// Middleware is the per-request hook: it identifies the caller if it can
// and then always runs next. Rejecting anonymous requests is left to the
// handlers behind it.
func (a *Authenticator) Middleware(ctx context.Context, rc RequestContext, next func()) {
	a.Identify(ctx, rc)
	next()
}

// Logout clears the authentication state of rc. The token itself is not
// revoked and keeps verifying.
func (a *Authenticator) Logout(rc RequestContext) {
	rc.SetAuth(false)
	rc.SetUser(nil)
}

// HTTPMiddleware adapts Middleware to net/http. The Request it builds is
// stored in the request context, where handlers read it with
// RequestFromContext or ClaimsFromContext. next always runs.
func (a *Authenticator) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := NewRequest(r.Header)
		ctx := WithRequest(r.Context(), req)
		a.Middleware(ctx, req, func() {
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
}

// RequireAuth answers 401 for requests that HTTPMiddleware did not
// authenticate. It must be mounted behind HTTPMiddleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
