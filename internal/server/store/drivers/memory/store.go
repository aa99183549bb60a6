// Package memory is the process-local store driver. State lives in
// mutex-guarded maps and is lost on restart.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
)

var errClosed = errors.New("memory store: closed")

type state struct {
	clients map[string]domain.Client
	codes   map[string]domain.AuthorizationCode
	tokens  map[string]domain.Token
}

func newState() *state {
	return &state{
		clients: make(map[string]domain.Client),
		codes:   make(map[string]domain.AuthorizationCode),
		tokens:  make(map[string]domain.Token),
	}
}

func (s *state) clone() *state {
	return &state{
		clients: maps.Clone(s.clients),
		codes:   maps.Clone(s.codes),
		tokens:  maps.Clone(s.tokens),
	}
}

// Store keeps every record in memory. All operations, including whole
// transactions, are serialised by a single mutex.
type Store struct {
	mu     sync.Mutex
	st     *state
	closed bool
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// view runs fn against a state. The root store locks around each call, a
// transaction already holds the lock and works on its private copy.
type view interface {
	do(fn func(st *state) error) error
}

func (s *Store) do(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	return fn(s.st)
}

func (s *Store) Clients() store.Clients                       { return &clientsRepo{v: s} }
func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return &codesRepo{v: s} }
func (s *Store) Tokens() store.Tokens                         { return &tokensRepo{v: s} }

func (s *Store) ApplyMigrations() error { return nil }

// WithTx runs fn on a copy of the current state and installs the copy only
// when fn succeeds. fn must use tx, never s, or it will deadlock.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &txStore{st: s.st.clone()}
	if err := fn(t); err != nil {
		return err
	}

	s.st = t.st
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.do(func(*state) error { return ctx.Err() })
}

type txStore struct {
	st *state
}

func (t *txStore) do(fn func(st *state) error) error { return fn(t.st) }

func (t *txStore) Clients() store.Clients                       { return &clientsRepo{v: t} }
func (t *txStore) AuthorizationCodes() store.AuthorizationCodes { return &codesRepo{v: t} }
func (t *txStore) Tokens() store.Tokens                         { return &tokensRepo{v: t} }

func cloneClient(c domain.Client) domain.Client {
	c.RedirectURIs = slices.Clone(c.RedirectURIs)
	c.GrantTypes = slices.Clone(c.GrantTypes)
	c.ResponseTypes = slices.Clone(c.ResponseTypes)
	c.Scopes = slices.Clone(c.Scopes)
	c.Contacts = slices.Clone(c.Contacts)
	return c
}

func cloneCode(c domain.AuthorizationCode) domain.AuthorizationCode {
	c.Scopes = slices.Clone(c.Scopes)
	if c.UsedAt != nil {
		at := *c.UsedAt
		c.UsedAt = &at
	}
	return c
}

func cloneToken(t domain.Token) domain.Token {
	t.Scopes = slices.Clone(t.Scopes)
	return t
}
