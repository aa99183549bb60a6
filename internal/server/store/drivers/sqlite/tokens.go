package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
)

type tokensRepo struct {
	q querier
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tokens (token_hash, kind, client_id, scopes, parent_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TokenHash,
		string(t.Kind),
		t.ClientID,
		joinFields(t.Scopes),
		t.ParentHash,
		toMillis(t.ExpiresAt),
		toMillis(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, hash string) (domain.Token, error) {
	var (
		t                    domain.Token
		kind, scopes         string
		expiresAt, createdAt int64
	)

	err := r.q.QueryRowContext(ctx,
		`SELECT token_hash, kind, client_id, scopes, parent_hash, expires_at, created_at
		 FROM tokens WHERE token_hash = ?`, hash,
	).Scan(&t.TokenHash, &kind, &t.ClientID, &scopes, &t.ParentHash, &expiresAt, &createdAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}

	t.Kind = domain.TokenKind(kind)
	t.Scopes = splitAndFilter(scopes)
	t.ExpiresAt = fromMillis(expiresAt)
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

func (r *tokensRepo) DeleteToken(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM tokens WHERE token_hash = ? OR parent_hash = ?`, hash, hash,
	)
	return err
}


func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(r.q.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at < ?`, toMillis(now)))
}
