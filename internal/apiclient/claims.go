package apiclient

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims is what the profile page shows about the session token.
type Claims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's exp has passed. Tokens without exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// TokenClaims decodes a JWT without verifying its signature; the service does
// that. ok is false when token is not a JWT.
func TokenClaims(token string) (Claims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, false
	}

	var out Claims
	out.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	switch v := claims["role"].(type) {
	case string:
		out.Role = v
	case []any:
		if len(v) > 0 {
			out.Role, _ = v[0].(string)
		}
	}
	return out, true
}
