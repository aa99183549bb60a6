package domain

import "time"

// AuthorizationCode is a pending grant awaiting redemption at the token endpoint.
// The code itself is never stored, only its fingerprint.
type AuthorizationCode struct {
	CodeHash            string
	ClientID            string
	RedirectURI         string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	UsedAt              *time.Time
	CreatedAt           time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Used reports whether the code was already redeemed.
func (c AuthorizationCode) Used() bool {
	return c.UsedAt != nil
}
