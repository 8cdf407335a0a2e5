package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/valedict/authgate"
)

type authContextKey struct{}

// AuthFromContext returns the authenticated identity attached by
// RequireAuth or OptionalAuth, or nil.
func AuthFromContext(ctx context.Context) *authgate.AuthResult {
	auth, _ := ctx.Value(authContextKey{}).(*authgate.AuthResult)
	return auth
}

// ClientContext attaches the client address, user agent, and route to
// the request context for rate limiting and audit events. Install it
// outermost.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = authgate.WithClientIP(ctx, clientIP(r))
		ctx = authgate.WithUserAgent(ctx, r.UserAgent())
		ctx = authgate.WithEndpoint(ctx, r.Method+" "+r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth validates the bearer token and rejects the request when
// authentication fails. The identity is available downstream via
// AuthFromContext.
func RequireAuth(engine *authgate.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := engine.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey{}, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches an identity when a valid token is present and
// proceeds anonymously otherwise.
func OptionalAuth(engine *authgate.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := engine.AuthenticateOptional(r.Context(), bearerToken(r)); auth != nil {
			r = r.WithContext(context.WithValue(r.Context(), authContextKey{}, auth))
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit enforces the named route class before the handler runs.
// Rejections carry a Retry-After header.
func RateLimit(engine *authgate.Engine, class string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, err := engine.AllowRate(r.Context(), class)
		if err != nil {
			writeError(w, err)
			return
		}
		if !decision.Allowed {
			seconds := int(decision.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, authgate.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CSRF runs the double-submit check on state-changing methods. Safe
// methods pass through untouched.
func CSRF(engine *authgate.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if err := engine.CheckCSRF(r.Context(), r); err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}

func clientIP(r *http.Request) string {
	// First hop in X-Forwarded-For wins when a proxy set it.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = forwarded[:i]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(authgate.HTTPStatus(err))
	_, _ = w.Write([]byte(`{"error":"` + authgate.ErrorKind(err) + `"}`))
}
