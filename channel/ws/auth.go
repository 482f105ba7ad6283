package ws

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/artpar/socketgate/core/schema"
	"github.com/golang-jwt/jwt/v5"
)

// authenticate establishes the caller identity for a connection request.
// Tokens come from the "token" query parameter or an Authorization bearer
// header. Without a token the caller is anonymous, unless the channel
// requires authentication.
func (c *Channel) authenticate(r *http.Request) (schema.Accountability, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	if token == "" {
		if c.cfg.RequireAuth {
			return schema.Accountability{}, fmt.Errorf("authentication required")
		}
		return schema.Accountability{}, nil
	}

	return parseToken(token, c.cfg.JWTSecret)
}

// parseToken validates a HMAC-signed JWT and extracts accountability claims.
func parseToken(token, secret string) (schema.Accountability, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return schema.Accountability{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return schema.Accountability{}, fmt.Errorf("unexpected claims type")
	}

	var acct schema.Accountability
	if sub, err := claims.GetSubject(); err == nil {
		acct.UserID = sub
	}
	if role, ok := claims["role"].(string); ok {
		acct.Role = role
	}
	if admin, ok := claims["admin"].(bool); ok {
		acct.Admin = admin
	}

	if acct.UserID == "" {
		return schema.Accountability{}, fmt.Errorf("token has no subject")
	}

	return acct, nil
}
