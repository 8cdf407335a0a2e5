package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"
)

const tokenBytes = 32

// ErrMismatch reports that the header token and cookie token do not
// match, or that one of them is absent.
var ErrMismatch = errors.New("csrf token mismatch")

// Config controls cookie attributes for issued tokens.
type Config struct {
	CookieName string
	HeaderName string
	TTL        time.Duration
	// Secure marks the cookie HTTPS-only. Leave false only in local
	// development.
	Secure   bool
	SameSite http.SameSite
	Path     string
}

// DefaultConfig returns the standard double-submit settings.
func DefaultConfig() Config {
	return Config{
		CookieName: "csrf_token",
		HeaderName: "X-CSRF-Token",
		TTL:        12 * time.Hour,
		Secure:     true,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// Guard implements the double-submit cookie pattern. The token is not
// bound to a session: the guarantee comes from cross-origin pages being
// unable to read the cookie value to replay it in a header.
type Guard struct {
	config Config
}

func NewGuard(cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}

	return &Guard{config: cfg}
}

// CookieName returns the configured cookie name.
func (g *Guard) CookieName() string { return g.config.CookieName }

// HeaderName returns the configured header name.
func (g *Guard) HeaderName() string { return g.config.HeaderName }

// Issue generates a fresh token, sets it as a cookie on w, and returns
// the token value for the client to echo in the header. The cookie is
// deliberately not HttpOnly so same-origin scripts can read it.
func (g *Guard) Issue(w http.ResponseWriter) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}

	token := base64.RawURLEncoding.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     g.config.CookieName,
		Value:    token,
		Path:     g.config.Path,
		MaxAge:   int(g.config.TTL.Seconds()),
		Secure:   g.config.Secure,
		HttpOnly: false,
		SameSite: g.config.SameSite,
	})

	return token, nil
}

// Check compares the header and cookie token values in constant time.
// Both must be present and equal.
func (g *Guard) Check(headerToken, cookieToken string) error {
	if headerToken == "" || cookieToken == "" {
		return ErrMismatch
	}

	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) != 1 {
		return ErrMismatch
	}

	return nil
}

// CheckRequest extracts the header and cookie from r and runs Check.
func (g *Guard) CheckRequest(r *http.Request) error {
	cookie, err := r.Cookie(g.config.CookieName)
	if err != nil {
		return ErrMismatch
	}

	return g.Check(r.Header.Get(g.config.HeaderName), cookie.Value)
}
