package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/store/drivers/memory"
	"github.com/aussiebroadwan/influxmcp/pkg/cryptox"
	"github.com/aussiebroadwan/influxmcp/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store     *memory.Store
	clock     *fakeClock
	authorize *AuthorizeService
	tokens    *TokenService
	register  *RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.NewStore()
	t.Cleanup(func() { _ = s.Close() })
	clk := newFakeClock()

	return &fixture{
		store: s,
		clock: clk,
		authorize: &AuthorizeService{
			Store:                    s,
			CodeTTL:                  10 * time.Minute,
			AllowUnregisteredClients: true,
			Now:                      clk.Now,
		},
		tokens: &TokenService{
			Store:      s,
			AccessTTL:  time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
			Now:        clk.Now,
		},
		register: &RegistrationService{Store: s, Now: clk.Now},
	}
}

const (
	testRedirect = "https://x/cb"
	testVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

// issueCode registers nothing and relies on auto-registration.
func (f *fixture) issueCode(t *testing.T, clientID string) string {
	t.Helper()
	resp, err := f.authorize.IssueAuthorizationCode(context.Background(), AuthorizeRequest{
		ResponseType:  "code",
		ClientID:      clientID,
		RedirectURI:   testRedirect,
		CodeChallenge: cryptox.S256Challenge(testVerifier),
	})
	require.NoError(t, err)
	return resp.Code
}

func TestHousekeepingSweep(t *testing.T) {
	f := newFixture(t)
	_ = f.issueCode(t, "c1")
	code := f.issueCode(t, "c1")

	pair, err := f.tokens.ExchangeAuthorizationCode(context.Background(), ExchangeCodeRequest{Code: code, CodeVerifier: testVerifier})
	require.NoError(t, err)

	hk := NewHousekeepingService(f.store, slogx.Discard(), time.Hour)
	hk.Now = f.clock.Now

	require.EqualValues(t, 0, hk.Sweep(context.Background()))

	// Past the code TTL and the access TTL: one code, one access token.
	f.clock.Advance(2 * time.Hour)
	require.EqualValues(t, 2, hk.Sweep(context.Background()))

	_, err = f.tokens.ExchangeRefreshToken(context.Background(), pair.RefreshToken, "")
	require.NoError(t, err, "refresh token outlives the sweep")
}

func TestHousekeepingStartStop(t *testing.T) {
	hk := NewHousekeepingService(memory.NewStore(), slogx.Discard(), 0)
	require.Equal(t, 5*time.Minute, hk.Interval)

	hk.Start()
	hk.Stop()
	hk.Stop()
}
