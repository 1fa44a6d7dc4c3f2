package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

// CodeTTL is how long an authorization code stays exchangeable, measured from
// its creation time.
const CodeTTL = 10 * time.Minute

// ErrCodeNotFound is returned by Retrieve for any code that cannot be
// exchanged. Missing, expired and already-used codes are deliberately
// indistinguishable so an attacker probing codes learns nothing.
var ErrCodeNotFound = errors.New("authorization code not found")

// Grant is the metadata bound to an authorization code when the user logs in.
type Grant struct {
	Username            string    `json:"username"`
	UserID              uint      `json:"user_id"`
	IsAdmin             bool      `json:"is_admin"`
	RedirectURI         string    `json:"redirect_uri"`
	CodeChallenge       string    `json:"code_challenge"`
	CodeChallengeMethod string    `json:"code_challenge_method"`
	State               string    `json:"state"`
	Scope               string    `json:"scope"`
	CreatedAt           time.Time `json:"created_at"`
}

// Expired reports whether the grant's code TTL has elapsed at instant now.
func (g *Grant) Expired(now time.Time) bool {
	return now.Sub(g.CreatedAt) > CodeTTL
}

// CodeStore persists one-time authorization codes.
//
// Retrieve and MarkUsed together form the consume step of the token exchange:
// Retrieve returns the grant only while the code is unused and unexpired, and
// MarkUsed is the atomic check-and-set that decides which of several
// concurrent exchange attempts wins. MarkUsed never errors for an unknown or
// already-used code; it reports via its bool whether this call flipped the
// flag. Storage I/O failures are always returned as errors, never folded into
// ErrCodeNotFound.
type CodeStore interface {
	Store(ctx context.Context, code string, grant Grant) error
	Retrieve(ctx context.Context, code string) (*Grant, error)
	MarkUsed(ctx context.Context, code string) (bool, error)
}

// GenerateCode returns a new opaque authorization code: 32 bytes from
// crypto/rand, base64url-encoded without padding (256 bits of entropy).
func GenerateCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
