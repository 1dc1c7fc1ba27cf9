package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Code policy defaults. The cooldown throttles re-issuance; the TTL
// bounds how long an issued code stays redeemable. Both are evaluated
// against the account's LastVerificationSentAt timestamp.
const (
	DefaultCodeLength   = 32
	DefaultCodeCooldown = 2 * time.Minute
	DefaultCodeTTL      = 24 * time.Hour
)

// CodeIssuer generates and judges one-time verification/reset codes.
// The issuer itself is stateless; the code and its issuance time live
// on the Account.
type CodeIssuer struct {
	// Code length in random bytes (hex doubles it on the wire).
	Length int

	// Minimum interval between issuances for one account.
	Cooldown time.Duration

	// How long an issued code stays redeemable.
	TTL time.Duration
}

func (c *CodeIssuer) length() int {
	if c.Length > 0 {
		return c.Length
	}
	return DefaultCodeLength
}

func (c *CodeIssuer) cooldown() time.Duration {
	if c.Cooldown > 0 {
		return c.Cooldown
	}
	return DefaultCodeCooldown
}

func (c *CodeIssuer) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultCodeTTL
}

// NewCode returns a fresh hex-encoded random code. Codes are high
// entropy and globally unique in practice, which is what lets
// verify-email and reset-password look them up without an email.
func (c *CodeIssuer) NewCode() (string, error) {
	b := make([]byte, c.length())
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Expired reports whether a code issued at sentAt is past its TTL.
func (c *CodeIssuer) Expired(sentAt, now time.Time) bool {
	return now.Sub(sentAt) > c.ttl()
}

// RateLimited reports whether issuing a new code at now would fall
// inside the cooldown window. A zero sentAt means nothing was ever
// sent and never rate-limits.
func (c *CodeIssuer) RateLimited(sentAt, now time.Time) bool {
	if sentAt.IsZero() {
		return false
	}
	return now.Sub(sentAt) < c.cooldown()
}
