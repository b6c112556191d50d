package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-0123456789"

var issuedAt = time.Unix(1_700_000_000, 0)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestPair(t *testing.T, validity, rememberMe time.Duration) (*TokenIssuer, *TokenVerifier, *fakeClock) {
	t.Helper()
	settings, err := NewTokenSettings(testSecret, validity, rememberMe)
	require.NoError(t, err)
	clock := &fakeClock{now: issuedAt}
	return NewTokenIssuer(settings, WithClock(clock.Now)), NewTokenVerifier(settings, WithClock(clock.Now)), clock
}

func requireReason(t *testing.T, err error, want FailureReason) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTokenRejected), "error %v should match ErrTokenRejected", err)
	got, ok := ReasonOf(err)
	require.True(t, ok, "error %v carries no reason", err)
	assert.Equal(t, want, got, "error: %v", err)
}

func signWith(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewTokenSettings_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		validity   time.Duration
		rememberMe time.Duration
	}{
		{name: "empty secret", secret: "", validity: time.Hour, rememberMe: time.Hour},
		{name: "short secret", secret: "short", validity: time.Hour, rememberMe: time.Hour},
		{name: "zero validity", secret: testSecret, validity: 0, rememberMe: time.Hour},
		{name: "negative remember-me", secret: testSecret, validity: time.Hour, rememberMe: -time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := NewTokenSettings(tt.secret, tt.validity, tt.rememberMe)
			assert.Error(t, err)
			assert.Nil(t, settings)
		})
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	issuer, verifier, _ := newTestPair(t, time.Hour, 24*time.Hour)

	tests := []struct {
		name        string
		login       string
		authorities []string
		rememberMe  bool
		want        []string
	}{
		{name: "no authorities", login: "joe", authorities: nil, want: []string{}},
		{name: "empty set remember me", login: "joe", authorities: []string{}, rememberMe: true, want: []string{}},
		{name: "single", login: "anna", authorities: []string{"ROLE_USER"}, want: []string{"ROLE_USER"}},
		{name: "several", login: "admin", authorities: []string{"ROLE_USER", "ROLE_ADMIN"}, rememberMe: true, want: []string{"ROLE_USER", "ROLE_ADMIN"}},
		{name: "duplicates collapse", login: "bob", authorities: []string{"read", "write", "read"}, want: []string{"read", "write"}},
		{name: "unicode login", login: "zoë@example.com", authorities: []string{"coffee:brew"}, want: []string{"coffee:brew"}},
		{name: "inner whitespace kept", login: "joe", authorities: []string{"brew coffee", "ROLE_USER"}, want: []string{"brew coffee", "ROLE_USER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issued, err := issuer.Issue(tt.login, tt.authorities, tt.rememberMe)
			require.NoError(t, err)
			require.NotEmpty(t, issued.Value)

			principal, err := verifier.Verify(issued.Value)
			require.NoError(t, err)
			assert.Equal(t, tt.login, principal.Login)
			assert.ElementsMatch(t, tt.want, principal.Authorities)
		})
	}
}

func TestIssue_RejectsInvalidInput(t *testing.T) {
	issuer, _, _ := newTestPair(t, time.Hour, time.Hour)

	_, err := issuer.Issue("", nil, false)
	assert.Error(t, err)

	for _, authorities := range [][]string{
		{"a,b"},
		{""},
		{"read", ""},
		{" read", "write "},
		{"read\t"},
	} {
		_, err = issuer.Issue("joe", authorities, false)
		assert.Error(t, err, "authorities %q", authorities)
	}
}

func TestVerify_AuthoritiesSplitVerbatim(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)

	token := signWith(t, jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "joe",
		"auth": " read,write ",
		"exp":  issuedAt.Add(time.Hour).Unix(),
	}, []byte(testSecret))

	principal, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, []string{" read", "write "}, principal.Authorities)
}

func TestIssue_FractionalSecondKeepsFullWindow(t *testing.T) {
	issuer, verifier, clock := newTestPair(t, time.Hour, time.Hour)
	clock.Set(issuedAt.Add(500 * time.Millisecond))

	issued, err := issuer.Issue("joe", nil, false)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour+time.Second), issued.ExpiresAt)

	clock.Set(issuedAt.Add(500*time.Millisecond + time.Hour - time.Nanosecond))
	_, err = verifier.Verify(issued.Value)
	require.NoError(t, err)

	clock.Set(issuedAt.Add(time.Hour + time.Second))
	_, err = verifier.Verify(issued.Value)
	requireReason(t, err, ReasonExpired)
}

func TestIssue_WireFormat(t *testing.T) {
	issuer, _, _ := newTestPair(t, time.Hour, 24*time.Hour)

	issued, err := issuer.Issue("joe", []string{"ROLE_USER", "ROLE_ADMIN"}, false)
	require.NoError(t, err)

	parts := strings.Split(issued.Value, ".")
	require.Len(t, parts, 3)

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header map[string]interface{}
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "HS512", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(payloadJSON, &payload))
	assert.Equal(t, "joe", payload["sub"])
	assert.Equal(t, "ROLE_ADMIN,ROLE_USER", payload[AuthoritiesClaim])
	assert.Equal(t, float64(issuedAt.Add(time.Hour).Unix()), payload["exp"])

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	assert.Len(t, sig, 64)

	assert.Equal(t, issuedAt.Add(time.Hour), issued.ExpiresAt)
}

func TestVerify_StandardWindowExample(t *testing.T) {
	issuer, verifier, clock := newTestPair(t, 3600*time.Second, 7*24*time.Hour)

	issued, err := issuer.Issue("joe", []string{}, false)
	require.NoError(t, err)

	for _, offset := range []time.Duration{0, time.Second, 30 * time.Minute, 3599 * time.Second} {
		clock.Set(issuedAt.Add(offset))
		principal, err := verifier.Verify(issued.Value)
		require.NoError(t, err, "offset %s", offset)
		assert.Equal(t, "joe", principal.Login)
		assert.Empty(t, principal.Authorities)
	}

	for _, offset := range []time.Duration{3600 * time.Second, 3601 * time.Second, 48 * time.Hour} {
		clock.Set(issuedAt.Add(offset))
		_, err := verifier.Verify(issued.Value)
		requireReason(t, err, ReasonExpired)
	}
}

func TestIssue_RememberMeWindow(t *testing.T) {
	issuer, verifier, clock := newTestPair(t, time.Hour, 24*time.Hour)

	standard, err := issuer.Issue("joe", []string{"ROLE_USER"}, false)
	require.NoError(t, err)
	extended, err := issuer.Issue("joe", []string{"ROLE_USER"}, true)
	require.NoError(t, err)

	assert.NotEqual(t, standard.Value, extended.Value)
	assert.NotEqual(t, strings.Split(standard.Value, ".")[2], strings.Split(extended.Value, ".")[2])
	assert.True(t, extended.ExpiresAt.After(standard.ExpiresAt))

	clock.Set(issuedAt.Add(2 * time.Hour))
	_, err = verifier.Verify(standard.Value)
	requireReason(t, err, ReasonExpired)

	principal, err := verifier.Verify(extended.Value)
	require.NoError(t, err)
	assert.Equal(t, "joe", principal.Login)

	clock.Set(issuedAt.Add(24 * time.Hour))
	_, err = verifier.Verify(extended.Value)
	requireReason(t, err, ReasonExpired)
}

func TestIssue_DifferentAuthoritiesDifferentToken(t *testing.T) {
	issuer, _, _ := newTestPair(t, time.Hour, time.Hour)

	a, err := issuer.Issue("joe", []string{"read"}, false)
	require.NoError(t, err)
	b, err := issuer.Issue("joe", []string{"read", "write"}, false)
	require.NoError(t, err)

	assert.NotEqual(t, a.Value, b.Value)
}

func TestVerify_TamperedSignature(t *testing.T) {
	issuer, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	issued, err := issuer.Issue("joe", []string{"ROLE_USER"}, false)
	require.NoError(t, err)

	parts := strings.Split(issued.Value, ".")
	sig := []byte(parts[2])
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	for i := range sig {
		altered := append([]byte(nil), sig...)
		if altered[i] == 'A' {
			altered[i] = 'B'
		} else {
			altered[i] = 'A'
		}
		_, err := verifier.Verify(parts[0] + "." + parts[1] + "." + string(altered))
		requireReason(t, err, ReasonInvalidSignature)
	}

	// every other value of the final character, including ones that differ only in unused bits
	last := len(sig) - 1
	for _, c := range []byte(alphabet) {
		if c == sig[last] {
			continue
		}
		altered := append([]byte(nil), sig...)
		altered[last] = c
		_, err := verifier.Verify(parts[0] + "." + parts[1] + "." + string(altered))
		requireReason(t, err, ReasonInvalidSignature)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	issuer, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	issued, err := issuer.Issue("joe", nil, false)
	require.NoError(t, err)

	parts := strings.Split(issued.Value, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"auth":"ROLE_ADMIN","sub":"joe","exp":4102444800}`))

	_, err = verifier.Verify(parts[0] + "." + forged + "." + parts[2])
	requireReason(t, err, ReasonInvalidSignature)
}

func TestVerify_WrongKey(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	otherSettings, err := NewTokenSettings("another-secret-key-for-jwt-signing-9876543210", time.Hour, time.Hour)
	require.NoError(t, err)
	other := NewTokenIssuer(otherSettings, WithClock(func() time.Time { return issuedAt }))

	issued, err := other.Issue("joe", nil, false)
	require.NoError(t, err)

	_, err = verifier.Verify(issued.Value)
	requireReason(t, err, ReasonInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS512","typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-jwt-token"},
		{name: "two segments", token: "aGVhZGVy.cGF5bG9hZA"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "bad base64", token: "###.$$$.%%%"},
		{name: "header is not json", token: "aGVhZGVy.cGF5bG9hZA.c2ln"},
		{name: "payload is not json", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte("payload")) + ".c2ln"},
		{name: "bad signature encoding", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"joe"}`)) + ".!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			requireReason(t, err, ReasonMalformed)
		})
	}
}

func TestVerify_MissingClaims(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	key := []byte(testSecret)
	exp := issuedAt.Add(time.Hour).Unix()

	noExp := signWith(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "joe", "auth": ""}, key)
	_, err := verifier.Verify(noExp)
	requireReason(t, err, ReasonMalformed)

	noSub := signWith(t, jwt.SigningMethodHS512, jwt.MapClaims{"auth": "", "exp": exp}, key)
	_, err = verifier.Verify(noSub)
	requireReason(t, err, ReasonMalformed)
}

func TestVerify_ExpiredWithValidSignature(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)

	token := signWith(t, jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":  "joe",
		"auth": "ROLE_USER",
		"exp":  issuedAt.Add(-time.Second).Unix(),
	}, []byte(testSecret))

	_, err := verifier.Verify(token)
	requireReason(t, err, ReasonExpired)
}

func TestVerify_UnsupportedType(t *testing.T) {
	_, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	key := []byte(testSecret)
	claims := jwt.MapClaims{"sub": "joe", "auth": "", "exp": issuedAt.Add(time.Hour).Unix()}

	hs256 := signWith(t, jwt.SigningMethodHS256, claims, key)
	none := signWith(t, jwt.SigningMethodNone, claims, jwt.UnsafeAllowNoneSignatureType)

	wrongTyp := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	wrongTyp.Header["typ"] = "at+jwt"
	wrongTypStr, err := wrongTyp.SignedString(key)
	require.NoError(t, err)

	unknownAlg := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XS999","typ":"JWT"}`)) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"joe","exp":4102444800}`)) + ".c2ln"

	tests := map[string]string{
		"HS256":          hs256,
		"alg none":       none,
		"unexpected typ": wrongTypStr,
		"unknown alg":    unknownAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(token)
			requireReason(t, err, ReasonUnsupportedType)
		})
	}
}

func TestVerify_Concurrent(t *testing.T) {
	issuer, verifier, _ := newTestPair(t, time.Hour, time.Hour)
	issued, err := issuer.Issue("joe", []string{"ROLE_USER"}, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := verifier.Verify(issued.Value); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestFailureReason_String(t *testing.T) {
	assert.Equal(t, "malformed", ReasonMalformed.String())
	assert.Equal(t, "invalid_signature", ReasonInvalidSignature.String())
	assert.Equal(t, "expired", ReasonExpired.String())
	assert.Equal(t, "unsupported_type", ReasonUnsupportedType.String())
	assert.Equal(t, "unknown", FailureReason(0).String())
}
