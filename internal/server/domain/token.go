package domain

import "time"

// TokenKind separates access tokens from refresh tokens. A token of one kind
// is never accepted where the other is expected.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Token is an issued opaque token, keyed by its fingerprint.
type Token struct {
	TokenHash string
	Kind      TokenKind
	ClientID  string
	Scopes    []string
	// ParentHash links an access token to the refresh token it was minted
	// alongside or from, so revoking the refresh token can cascade.
	ParentHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenPair is what the token endpoint hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Scope        string // space-delimited
}
