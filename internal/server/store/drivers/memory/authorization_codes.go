package memory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
)

type codesRepo struct {
	v view
}

func (r *codesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.codes[code.CodeHash]; ok {
			return store.ErrAlreadyExists
		}
		st.codes[code.CodeHash] = cloneCode(code)
		return nil
	})
}

func (r *codesRepo) GetAuthorizationCode(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	var out domain.AuthorizationCode
	err := r.v.do(func(st *state) error {
		c, ok := st.codes[hash]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneCode(c)
		return nil
	})
	return out, err
}

func (r *codesRepo) MarkAuthorizationCodeUsed(ctx context.Context, hash string, at time.Time) error {
	return r.v.do(func(st *state) error {
		c, ok := st.codes[hash]
		if !ok {
			return store.ErrNotFound
		}
		if c.UsedAt != nil {
			return store.ErrConflict
		}
		c.UsedAt = &at
		st.codes[hash] = c
		return nil
	})
}

func (r *codesRepo) DeleteAuthorizationCode(ctx context.Context, hash string) error {
	return r.v.do(func(st *state) error {
		delete(st.codes, hash)
		return nil
	})
}

func (r *codesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.v.do(func(st *state) error {
		for hash, c := range st.codes {
			if c.Expired(now) {
				delete(st.codes, hash)
				n++
			}
		}
		return nil
	})
	return n, err
}
