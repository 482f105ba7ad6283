package ws

import (
	"net/http/httptest"
	"testing"

	"github.com/artpar/socketgate/core/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseTokenClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"role":  "editor",
		"admin": true,
	})

	acct, err := parseToken(token, testSecret)
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	if acct.UserID != "user-1" || acct.Role != "editor" || !acct.Admin {
		t.Errorf("acct = %+v", acct)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-1"})

	if _, err := parseToken(token, "other-secret"); err == nil {
		t.Error("token with wrong secret accepted")
	}
}

func TestParseTokenRequiresSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"role": "editor"})

	if _, err := parseToken(token, testSecret); err == nil {
		t.Error("token without subject accepted")
	}
}

func TestParseTokenRejectsUnsignedToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := parseToken(token, testSecret); err == nil {
		t.Error("unsigned token accepted")
	}
}

func newAuthChannel(t *testing.T, require bool) *Channel {
	t.Helper()
	return New(events.NewBus(zerolog.Nop()), Config{
		JWTSecret:   testSecret,
		RequireAuth: require,
	}, zerolog.Nop(), nil)
}

func TestAuthenticateAnonymous(t *testing.T) {
	channel := newAuthChannel(t, false)

	r := httptest.NewRequest("GET", "/ws", nil)
	acct, err := channel.authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if acct.UserID != "" || acct.Admin {
		t.Errorf("acct = %+v, want anonymous", acct)
	}
}

func TestAuthenticateRequired(t *testing.T) {
	channel := newAuthChannel(t, true)

	r := httptest.NewRequest("GET", "/ws", nil)
	if _, err := channel.authenticate(r); err == nil {
		t.Error("tokenless connection accepted with auth required")
	}
}

func TestAuthenticateQueryToken(t *testing.T) {
	channel := newAuthChannel(t, true)
	token := signToken(t, jwt.MapClaims{"sub": "user-1"})

	r := httptest.NewRequest("GET", "/ws?token="+token, nil)
	acct, err := channel.authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if acct.UserID != "user-1" {
		t.Errorf("acct = %+v", acct)
	}
}

func TestAuthenticateBearerHeader(t *testing.T) {
	channel := newAuthChannel(t, true)
	token := signToken(t, jwt.MapClaims{"sub": "user-2"})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	acct, err := channel.authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if acct.UserID != "user-2" {
		t.Errorf("acct = %+v", acct)
	}
}
