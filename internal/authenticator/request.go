package authenticator

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/auth"
)

// RequestContext is what the middleware hook needs from a host framework's
// request: a header accessor and somewhere to record the resolved identity.
type RequestContext interface {
	GetReqHeader(name string) (string, bool)
	SetAuth(bool)
	SetUser(*auth.Claims)
}

// Request is the per-request authentication state. Transports create one
// per inbound request and pass it through the call chain.
type Request struct {
	Header http.Header
	Auth   bool
	User   *auth.Claims
}

// NewRequest returns an unauthenticated Request over the given headers.
func NewRequest(h http.Header) *Request {
	if h == nil {
		h = http.Header{}
	}
	return &Request{Header: h}
}

// GetReqHeader returns the first value of the named header.
func (r *Request) GetReqHeader(name string) (string, bool) {
	values := r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// SetAuth records whether the request carries a verified token.
func (r *Request) SetAuth(v bool) { r.Auth = v }

// SetUser records the claims of the verified token, or nil to clear them.
func (r *Request) SetUser(c *auth.Claims) { r.User = c }

// Authenticated reports whether the request is marked authenticated and has
// claims attached.
func (r *Request) Authenticated() bool { return r.Auth && r.User != nil }

type contextKey int

const requestKey contextKey = iota

// WithRequest returns a copy of ctx carrying req.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// RequestFromContext returns the Request stored by WithRequest, or nil.
func RequestFromContext(ctx context.Context) *Request {
	req, _ := ctx.Value(requestKey).(*Request)
	return req
}

// ClaimsFromContext returns the resolved identity of the request in ctx,
// or nil when the request is anonymous.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	req := RequestFromContext(ctx)
	if req == nil || !req.Auth {
		return nil
	}
	return req.User
}
