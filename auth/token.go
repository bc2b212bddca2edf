// Package auth inspects the bearer credential on the client side.
// Issuing and verifying tokens is the server's business; the client only
// needs to know whether the credential it holds is still usable.
package auth

import (
	"fmt"
	"time"

	"chat-sync/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Credential wraps a bearer JWT and its expiry.
type Credential struct {
	raw string
	exp time.Time
	now func() time.Time
}

// NewCredential parses the token without verifying its signature (the
// client has no key material) to read the expiry claim.
func NewCredential(raw string) (*Credential, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", errors.ErrAuthExpired)
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	cred := &Credential{raw: raw, now: time.Now}
	if claims.ExpiresAt != nil {
		cred.exp = claims.ExpiresAt.Time
	}
	return cred, nil
}

// Token returns the raw bearer string, or ErrAuthExpired once past expiry.
// Implements contract.TokenSource.
func (c *Credential) Token() (string, error) {
	if !c.exp.IsZero() && c.now().After(c.exp) {
		return "", errors.ErrAuthExpired
	}
	return c.raw, nil
}

// ExpiresAt is zero when the token carries no exp claim.
func (c *Credential) ExpiresAt() time.Time { return c.exp }
