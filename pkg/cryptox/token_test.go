package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mustToken is GenerateToken for tests.
func mustToken(t *testing.T, size int) string {
	t.Helper()
	tok, err := GenerateToken(size)
	require.NoError(t, err)
	return tok
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantLen int
		wantErr bool
	}{
		{"client id suffix", TokenSize128, 32, false},
		{"bearer token", TokenSize256, 64, false},
		{"odd size", 5, 10, false},
		{"zero", 0, 0, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tok, err := GenerateToken(tt.size)
			if tt.wantErr {
				require.Error(t, err)
				require.Empty(t, tok)
				return
			}
			require.NoError(t, err)
			require.Len(t, tok, tt.wantLen)
			require.Regexp(t, `^[0-9a-f]+$`, tok)
		})
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	for range 100 {
		tok := mustToken(t, TokenSize256)
		require.NotContains(t, seen, tok)
		seen[tok] = struct{}{}
	}
}

func TestGenerateIdentifier(t *testing.T) {
	t.Parallel()

	id, err := GenerateIdentifier("influxdb_mcp")
	require.NoError(t, err)
	require.Regexp(t, `^influxdb_mcp_[0-9a-f]{32}$`, id)
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := FingerprintToken("access-token")
	require.Equal(t, a, FingerprintToken("access-token"))
	require.NotEqual(t, a, FingerprintToken("refresh-token"))
	require.Len(t, a, 43)
	require.NotContains(t, a, "=")

	// Known vector: SHA-256("abc").
	require.Equal(t, "ungWv48Bz-pBQUDeXa4iI7ADYaOWF3qctBD_YfIAFa0", FingerprintToken("abc"))
}
