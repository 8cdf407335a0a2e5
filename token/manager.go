package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind is the closed set of token uses. Verification matches the embedded
// kind against the expected one, so a refresh token can never be replayed
// where an access token is required and vice versa.
type Kind uint8

const (
	// KindAccess marks short-lived, self-contained identity tokens.
	KindAccess Kind = iota + 1
	// KindRefresh marks longer-lived tokens bound to a session id.
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

func parseKind(claim string) (Kind, error) {
	switch claim {
	case "access":
		return KindAccess, nil
	case "refresh":
		return KindRefresh, nil
	default:
		return 0, fmt.Errorf("%w: unknown token kind %q", ErrMalformed, claim)
	}
}

var (
	// ErrExpired is returned for structurally valid tokens past their expiry.
	ErrExpired = errors.New("token expired")
	// ErrMalformed covers undecodable tokens and claim validation failures
	// other than expiry and signature.
	ErrMalformed = errors.New("token malformed")
	// ErrWrongKind is returned when a token's kind does not match its use.
	ErrWrongKind = errors.New("token kind mismatch")
	// ErrSignature is returned when signature verification fails.
	ErrSignature = errors.New("token signature invalid")
)

// Config defines issuance and verification parameters. Secret is mandatory;
// engines refuse to start without one.
type Config struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// AccountSnapshot is the denormalized account slice embedded in access
// claims. It spares a store round-trip for display purposes; callers that
// need live state (active/locked flags) must still re-read the account.
type AccountSnapshot struct {
	ID       string
	Email    string
	Username string
	Active   bool
	// SessionID is the session the token was issued under.
	SessionID string
}

// Claims is the signed claim set carried by both token kinds. Access tokens
// carry the account snapshot; both kinds carry the session id that
// produced them.
type Claims struct {
	TokenKind string `json:"knd"`
	Email     string `json:"eml,omitempty"`
	Username  string `json:"unm,omitempty"`
	Active    bool   `json:"act,omitempty"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Kind returns the parsed token kind of the claim set.
func (c *Claims) Kind() (Kind, error) {
	return parseKind(c.TokenKind)
}

// Manager issues and verifies HMAC-signed tokens. It is stateless after
// construction and safe for concurrent use.
type Manager struct {
	config Config
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("refresh TTL must exceed access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// IssueAccess signs a short-lived access token for the given account
// snapshot. The claims are self-contained: verification needs no store.
func (m *Manager) IssueAccess(acct AccountSnapshot) (string, error) {
	return m.sign(Claims{
		TokenKind: KindAccess.String(),
		Email:     acct.Email,
		Username:  acct.Username,
		Active:    acct.Active,
		SessionID: acct.SessionID,
	}, acct.ID, m.config.AccessTTL)
}

// IssueRefresh signs a refresh token bound to a session id.
func (m *Manager) IssueRefresh(subjectID, sessionID string) (string, error) {
	return m.sign(Claims{
		TokenKind: KindRefresh.String(),
		SessionID: sessionID,
	}, subjectID, m.config.RefreshTTL)
}

func (m *Manager) sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// Verify checks signature, expiry, not-before, issuer, audience, and that
// the embedded kind matches the expected use. Failures map onto exactly one
// of [ErrExpired], [ErrSignature], [ErrWrongKind], or [ErrMalformed].
func (m *Manager) Verify(tokenStr string, expected Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}

	kind, err := claims.Kind()
	if err != nil {
		return nil, err
	}
	if kind != expected {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongKind, kind, expected)
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignature, err)
	default:
		// Undecodable input, bad issuer/audience, not-before violations, and
		// anything else collapse into the malformed bucket.
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
