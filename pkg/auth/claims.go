package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies an anonymous shopper. The JWT ID doubles as the
// session id that namespaces the cart, preferences and confirmation keys.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session identifier carried by the token.
func (c *SessionClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
