// Package storetest holds behaviour tests shared by every store driver.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
	"github.com/stretchr/testify/require"
)

// Run exercises a driver. newStore must return an empty, migrated store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("clients", func(t *testing.T) { testClients(t, newStore(t)) })
	t.Run("authorization codes", func(t *testing.T) { testAuthorizationCodes(t, newStore(t)) })
	t.Run("single use under contention", func(t *testing.T) { testMarkUsedRace(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
	t.Run("transactions roll back", func(t *testing.T) { testTxRollback(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(t.Context())) })
}

var base = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleClient(id string) domain.Client {
	return domain.Client{
		ID:                      id,
		Name:                    "Test Client",
		SecretHash:              "$argon2id$placeholder",
		RedirectURIs:            []string{"https://x/cb", "https://x/cb?with=query"},
		GrantTypes:              []string{domain.GrantTypeAuthorizationCode, domain.GrantTypeRefreshToken},
		ResponseTypes:           []string{domain.ResponseTypeCode},
		Scopes:                  []string{"mcp:tools", "influxdb:read"},
		TokenEndpointAuthMethod: domain.TokenEndpointAuthNone,
		Contacts:                []string{"ops@example.com"},
		SoftwareID:              "influxdb-mcp-server",
		SoftwareVersion:         "1.0.0",
		CreatedAt:               base,
	}
}

func sampleCode(hash, clientID string) domain.AuthorizationCode {
	return domain.AuthorizationCode{
		CodeHash:            hash,
		ClientID:            clientID,
		RedirectURI:         "https://x/cb",
		Scopes:              []string{"mcp:tools"},
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		ExpiresAt:           base.Add(10 * time.Minute),
		CreatedAt:           base,
	}
}

func testClients(t *testing.T, s store.Store) {
	ctx := t.Context()
	c := sampleClient("influxdb_mcp_1")

	require.NoError(t, s.Clients().CreateClient(ctx, c))
	require.ErrorIs(t, s.Clients().CreateClient(ctx, c), store.ErrAlreadyExists)

	got, err := s.Clients().GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c, got)

	_, err = s.Clients().GetClient(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testAuthorizationCodes(t *testing.T, s store.Store) {
	ctx := t.Context()
	require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("c1")))

	code := sampleCode("h1", "c1")
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, code))

	got, err := s.AuthorizationCodes().GetAuthorizationCode(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, code, got)
	require.False(t, got.Used())

	usedAt := base.Add(time.Minute)
	require.NoError(t, s.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, "h1", usedAt))
	require.ErrorIs(t, s.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, "h1", usedAt), store.ErrConflict)
	require.ErrorIs(t, s.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, "nope", usedAt), store.ErrNotFound)

	got, err = s.AuthorizationCodes().GetAuthorizationCode(ctx, "h1")
	require.NoError(t, err)
	require.True(t, got.Used())
	require.True(t, usedAt.Equal(*got.UsedAt))

	require.NoError(t, s.AuthorizationCodes().DeleteAuthorizationCode(ctx, "h1"))
	_, err = s.AuthorizationCodes().GetAuthorizationCode(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Expiry sweep keeps live codes.
	live := sampleCode("live", "c1")
	stale := sampleCode("stale", "c1")
	stale.ExpiresAt = base.Add(-time.Second)
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, live))
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, stale))

	n, err := s.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, base)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.AuthorizationCodes().GetAuthorizationCode(ctx, "live")
	require.NoError(t, err)
}

func testMarkUsedRace(t *testing.T, s store.Store) {
	ctx := t.Context()
	require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("c1")))
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, sampleCode("race", "c1")))

	const workers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(context.Background(), func(tx store.Tx) error {
				return tx.AuthorizationCodes().MarkAuthorizationCodeUsed(context.Background(), "race", base)
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, store.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, workers-1, conflicts.Load())
}

func testTokens(t *testing.T, s store.Store) {
	ctx := t.Context()
	require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("c1")))
	require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("c2")))

	refresh := domain.Token{
		TokenHash: "r1", Kind: domain.TokenKindRefresh, ClientID: "c1",
		Scopes: []string{"mcp:tools"}, ExpiresAt: base.Add(720 * time.Hour), CreatedAt: base,
	}
	access := domain.Token{
		TokenHash: "a1", Kind: domain.TokenKindAccess, ClientID: "c1", ParentHash: "r1",
		Scopes: []string{"mcp:tools"}, ExpiresAt: base.Add(time.Hour), CreatedAt: base,
	}
	expired := domain.Token{
		TokenHash: "a2", Kind: domain.TokenKindAccess, ClientID: "c2",
		ExpiresAt: base.Add(-time.Minute), CreatedAt: base.Add(-time.Hour),
	}
	for _, tok := range []domain.Token{refresh, access, expired} {
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
	}
	require.ErrorIs(t, s.Tokens().CreateToken(ctx, access), store.ErrAlreadyExists)

	got, err := s.Tokens().GetToken(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, access, got)

	n, err := s.Tokens().DeleteExpiredTokens(ctx, base)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	// Deleting the refresh token cascades to the access token minted from it.
	require.NoError(t, s.Tokens().DeleteToken(ctx, "r1"))
	_, err = s.Tokens().GetToken(ctx, "a1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := t.Context()
	require.NoError(t, s.Clients().CreateClient(ctx, sampleClient("c1")))
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, sampleCode("h1", "c1")))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, "h1", base); err != nil {
			return err
		}
		if err := tx.Tokens().CreateToken(ctx, domain.Token{
			TokenHash: "a1", Kind: domain.TokenKindAccess, ClientID: "c1", ExpiresAt: base.Add(time.Hour), CreatedAt: base,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	code, err := s.AuthorizationCodes().GetAuthorizationCode(ctx, "h1")
	require.NoError(t, err)
	require.False(t, code.Used(), "rolled back transaction must not consume the code")

	_, err = s.Tokens().GetToken(ctx, "a1")
	require.ErrorIs(t, err, store.ErrNotFound)
}
