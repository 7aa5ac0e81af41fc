package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/libraryhub/libraryhub-web/internal/id"
)

const (
	cookieIssuer   = "libraryhub-web"
	cookieAudience = "libraryhub-browser"
)

// CookieClaims are the decrypted contents of a session cookie.
type CookieClaims struct {
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"` // session ID
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// SessionID returns the session the cookie points at.
func (c *CookieClaims) SessionID() string {
	return c.Subject
}

// CookieCodec encrypts session IDs into PASETO v4.local cookie values.
type CookieCodec struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewCookieCodec creates a codec. Cookies it issues expire after ttl.
func NewCookieCodec(key []byte, ttl time.Duration) (*CookieCodec, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("cookie key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &CookieCodec{key: k, ttl: ttl, now: time.Now}, nil
}

// TTL returns the cookie lifetime.
func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

// Encode returns an encrypted cookie value naming sessionID.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	now := c.now()

	token := paseto.NewToken()
	token.SetIssuer(cookieIssuer)
	token.SetSubject(sessionID)
	token.SetAudience(cookieAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(c.ttl))

	jti, err := id.Generate("ck")
	if err != nil {
		return "", fmt.Errorf("generate cookie ID: %w", err)
	}
	token.SetJti(jti)

	return token.V4Encrypt(c.key, nil), nil
}

// Decode decrypts and validates a cookie value.
func (c *CookieCodec) Decode(value string) (*CookieClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(cookieAudience))
	parser.AddRule(paseto.IssuedBy(cookieIssuer))
	parser.AddRule(paseto.ValidAt(c.now()))

	token, err := parser.ParseV4Local(c.key, value, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid session cookie: %w", err)
	}

	var claims CookieClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse cookie claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid session cookie: missing subject")
	}

	return &claims, nil
}
