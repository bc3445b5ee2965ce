package core

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes the ID token payload without verifying its signature. The
// result is suitable for display purposes only; hosts that act on claims must
// verify the token against the issuer's signing keys.
func (c *Credentials) Claims() (jwt.MapClaims, error) {
	if c == nil || strings.TrimSpace(c.IDToken) == "" {
		return nil, fmt.Errorf("core: credentials carry no id token")
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(c.IDToken, claims); err != nil {
		return nil, fmt.Errorf("core: decode id token: %w", err)
	}
	return claims, nil
}
