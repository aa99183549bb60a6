package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict is returned when a compare-and-set loses to a concurrent writer.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface implemented by the memory and
// sqlite drivers. Sub-repositories keep concerns tidy and make it obvious
// when a caller is inside a transaction.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	Tokens() Tokens

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error every
	// write made through tx is discarded, otherwise they are committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the repositories.
type Tx interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	Tokens() Tokens
}

type Clients interface {
	// CreateClient inserts a registration. Returns ErrAlreadyExists on id collision.
	CreateClient(ctx context.Context, c domain.Client) error

	// GetClient fetches a registration by client id.
	GetClient(ctx context.Context, id string) (domain.Client, error)
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted authorization code.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCode fetches a code by its fingerprint when redeeming.
	GetAuthorizationCode(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// MarkAuthorizationCodeUsed flips an unused code to used. It is the
	// single-use gate: exactly one caller wins, the rest get ErrConflict.
	MarkAuthorizationCodeUsed(ctx context.Context, hash string, at time.Time) error

	// DeleteAuthorizationCode removes a code.
	DeleteAuthorizationCode(ctx context.Context, hash string) error

	// DeleteExpiredAuthorizationCodes removes codes that expired before now
	// and returns how many were removed.
	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}

type Tokens interface {
	// CreateToken stores an issued access or refresh token.
	CreateToken(ctx context.Context, t domain.Token) error

	// GetToken fetches a token by its fingerprint.
	GetToken(ctx context.Context, hash string) (domain.Token, error)

	// DeleteToken removes a token and any access tokens whose parent it is.
	DeleteToken(ctx context.Context, hash string) error

	// DeleteExpiredTokens removes tokens that expired before now and returns
	// how many were removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
