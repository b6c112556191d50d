package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/coffee-service/internal/domain"
)

// AuthoritiesClaim names the claim carrying the comma-joined authorities.
const AuthoritiesClaim = "auth"

// MinKeyLength is the smallest accepted HS512 key, in bytes.
const MinKeyLength = 32

var signingMethod = jwt.SigningMethodHS512

// Claims describes JWT payload.
type Claims struct {
	Authorities string `json:"auth"`
	jwt.RegisteredClaims
}

// TokenSettings is the process-wide signing key plus the two validity windows.
// It is built once at startup and only read afterwards.
type TokenSettings struct {
	key                []byte
	validity           time.Duration
	rememberMeValidity time.Duration
}

// NewTokenSettings validates and freezes token configuration.
func NewTokenSettings(secret string, validity, rememberMeValidity time.Duration) (*TokenSettings, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	if len(secret) < MinKeyLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinKeyLength)
	}
	if validity <= 0 || rememberMeValidity <= 0 {
		return nil, errors.New("token validity must be positive")
	}
	return &TokenSettings{
		key:                []byte(secret),
		validity:           validity,
		rememberMeValidity: rememberMeValidity,
	}, nil
}

// Validity returns the lifetime for a token issued with the given remember-me choice.
func (s *TokenSettings) Validity(rememberMe bool) time.Duration {
	if rememberMe {
		return s.rememberMeValidity
	}
	return s.validity
}

// Option customises an issuer or verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TokenIssuer signs tokens for authenticated identities.
type TokenIssuer struct {
	settings *TokenSettings
	now      func() time.Time
}

// NewTokenIssuer builds an issuer bound to settings.
func NewTokenIssuer(settings *TokenSettings, opts ...Option) *TokenIssuer {
	o := buildOptions(opts)
	return &TokenIssuer{settings: settings, now: o.now}
}

// Issue builds and signs a JWT for login carrying authorities.
func (ti *TokenIssuer) Issue(login string, authorities []string, rememberMe bool) (domain.IssuedToken, error) {
	if login == "" {
		return domain.IssuedToken{}, errors.New("login is empty")
	}
	joined, err := joinAuthorities(authorities)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	// exp has whole-second precision; round up so the window is never shortened.
	expiresAt := ti.now().Add(ti.settings.Validity(rememberMe)).Add(time.Second - 1).Truncate(time.Second)
	claims := &Claims{
		Authorities: joined,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	tokenString, err := token.SignedString(ti.settings.key)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{Value: tokenString, ExpiresAt: expiresAt}, nil
}

// TokenVerifier checks tokens produced by a TokenIssuer sharing the same settings.
// Every call verifies from scratch; nothing is cached.
type TokenVerifier struct {
	settings *TokenSettings
	parser   *jwt.Parser
}

// NewTokenVerifier builds a verifier bound to settings.
func NewTokenVerifier(settings *TokenSettings, opts ...Option) *TokenVerifier {
	o := buildOptions(opts)
	return &TokenVerifier{
		settings: settings,
		parser: jwt.NewParser(
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(o.now),
		),
	}
}

// Verify validates the token and returns the principal it asserts.
// Failures are *TokenError values carrying the FailureReason.
func (tv *TokenVerifier) Verify(tokenStr string) (*domain.Principal, error) {
	claims := &Claims{}
	parsed, err := tv.parser.ParseWithClaims(tokenStr, claims, tv.key)
	if err != nil {
		return nil, tv.classify(tokenStr, parsed, err)
	}
	if !parsed.Valid {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("token not valid")}
	}
	if claims.Subject == "" {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("missing subject")}
	}

	return &domain.Principal{
		Login:       claims.Subject,
		Authorities: splitAuthorities(claims.Authorities),
	}, nil
}

// key refuses anything but HS512 JWTs before the MAC is checked, so a token
// can never pick the algorithm it is verified with.
func (tv *TokenVerifier) key(token *jwt.Token) (interface{}, error) {
	if token.Method != signingMethod {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if typ, ok := token.Header["typ"]; ok {
		s, _ := typ.(string)
		if !strings.EqualFold(s, "JWT") {
			return nil, fmt.Errorf("unexpected token type: %v", typ)
		}
	}
	return tv.settings.key, nil
}

// classify maps a parse failure to its reason. Strict decoding refuses a
// signature segment whose unused trailing bits are set; such a segment is an
// altered signature, not a malformed token.
func (tv *TokenVerifier) classify(tokenStr string, parsed *jwt.Token, err error) *TokenError {
	if errors.Is(err, jwt.ErrTokenMalformed) && parsed != nil && parsed.Method != nil && looseSignature(tokenStr) {
		if _, keyErr := tv.key(parsed); keyErr != nil {
			return &TokenError{Reason: ReasonUnsupportedType, Err: keyErr}
		}
		return &TokenError{Reason: ReasonInvalidSignature, Err: err}
	}
	return classifyError(err)
}

func looseSignature(tokenStr string) bool {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(parts[2])
	return err == nil
}

func classifyError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Reason: ReasonMalformed, Err: err}
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Reason: ReasonUnsupportedType, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Reason: ReasonInvalidSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Reason: ReasonExpired, Err: err}
	default:
		return &TokenError{Reason: ReasonMalformed, Err: err}
	}
}

// joinAuthorities renders the authority set as one sorted, de-duplicated claim.
// Entries that could not be split back unchanged are refused.
func joinAuthorities(authorities []string) (string, error) {
	seen := make(map[string]struct{}, len(authorities))
	out := make([]string, 0, len(authorities))
	for _, a := range authorities {
		if a == "" {
			return "", errors.New("authority is empty")
		}
		if strings.Contains(a, ",") {
			return "", fmt.Errorf("authority %q contains a comma", a)
		}
		if strings.TrimSpace(a) != a {
			return "", fmt.Errorf("authority %q has surrounding whitespace", a)
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return strings.Join(out, ","), nil
}

func splitAuthorities(joined string) []string {
	out := []string{}
	if joined == "" {
		return out
	}
	for _, a := range strings.Split(joined, ",") {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}
