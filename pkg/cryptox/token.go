package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Entropy sizes in bytes. Tokens are hex encoded, so the string is twice as long.
const (
	TokenSize128 = 16 // client_id suffix
	TokenSize256 = 32 // codes, access and refresh tokens, client secrets, PKCE verifiers
)

// GenerateToken returns size random bytes as lowercase hex.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateIdentifier returns prefix_<32 hex chars>, e.g.
// influxdb_mcp_0f3a... for a client_id.
func GenerateIdentifier(prefix string) (string, error) {
	suffix, err := GenerateToken(TokenSize128)
	if err != nil {
		return "", err
	}
	return prefix + "_" + suffix, nil
}

// FingerprintToken is the storage key for a bearer secret: the unpadded
// base64url SHA-256 of the token, 43 characters. Codes and tokens are only
// ever persisted under their fingerprint.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
