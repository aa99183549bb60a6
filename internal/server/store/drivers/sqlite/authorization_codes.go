package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
)

type codesRepo struct {
	q querier
}

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO authorization_codes
			(code_hash, client_id, redirect_uri, scopes, code_challenge, code_challenge_method, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		code.CodeHash,
		code.ClientID,
		code.RedirectURI,
		joinFields(code.Scopes),
		code.CodeChallenge,
		code.CodeChallengeMethod,
		toMillis(code.ExpiresAt),
		toMillis(code.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *codesRepo) GetAuthorizationCode(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var (
		c                    domain.AuthorizationCode
		scopes               string
		expiresAt, createdAt int64
		usedAt               sql.NullInt64
	)

	err := r.q.QueryRowContext(ctx,
		`SELECT code_hash, client_id, redirect_uri, scopes, code_challenge, code_challenge_method,
			expires_at, used_at, created_at
		 FROM authorization_codes WHERE code_hash = ?`, hash,
	).Scan(
		&c.CodeHash,
		&c.ClientID,
		&c.RedirectURI,
		&scopes,
		&c.CodeChallenge,
		&c.CodeChallengeMethod,
		&expiresAt,
		&usedAt,
		&createdAt,
	)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}

	c.Scopes = splitAndFilter(scopes)
	c.ExpiresAt = fromMillis(expiresAt)
	c.CreatedAt = fromMillis(createdAt)
	if usedAt.Valid {
		at := fromMillis(usedAt.Int64)
		c.UsedAt = &at
	}
	return c, nil
}

func (r *codesRepo) MarkAuthorizationCodeUsed(ctx context.Context, hash string, at time.Time) error {
	n, err := rowsAffected(r.q.ExecContext(ctx,
		`UPDATE authorization_codes SET used_at = ? WHERE code_hash = ? AND used_at IS NULL`,
		toMillis(at), hash,
	))
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Nothing updated: either the code is gone or someone else used it first.
	var exists int
	err = r.q.QueryRowContext(ctx, `SELECT 1 FROM authorization_codes WHERE code_hash = ?`, hash).Scan(&exists)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrConflict
}

func (r *codesRepo) DeleteAuthorizationCode(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM authorization_codes WHERE code_hash = ?`, hash)
	return err
}

func (r *codesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.q.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE expires_at < ?`, toMillis(now),
	))
}
