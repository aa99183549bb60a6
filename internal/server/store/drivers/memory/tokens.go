package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
)

type tokensRepo struct {
	v view
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.tokens[t.TokenHash]; ok {
			return store.ErrAlreadyExists
		}
		st.tokens[t.TokenHash] = cloneToken(t)
		return nil
	})
}

func (r *tokensRepo) GetToken(ctx context.Context, hash string) (domain.Token, error) {
	var out domain.Token
	err := r.v.do(func(st *state) error {
		t, ok := st.tokens[hash]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneToken(t)
		return nil
	})
	return out, err
}

func (r *tokensRepo) DeleteToken(ctx context.Context, hash string) error {
	return r.v.do(func(st *state) error {
		delete(st.tokens, hash)
		for h, t := range st.tokens {
			if t.ParentHash == hash {
				delete(st.tokens, h)
			}
		}
		return nil
	})
}


func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for h, t := range st.tokens {
			if t.Expired(now) {
				delete(st.tokens, h)
				n++
			}
		}
		return nil
	})
	return n, err
}
