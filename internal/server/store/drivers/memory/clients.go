package memory

import (
	"context"

	"github.com/aussiebroadwan/influxmcp/internal/server/domain"
	"github.com/aussiebroadwan/influxmcp/internal/server/store"
)

type clientsRepo struct {
	v view
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.clients[c.ID]; ok {
			return store.ErrAlreadyExists
		}
		st.clients[c.ID] = cloneClient(c)
		return nil
	})
}

func (r *clientsRepo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	var out domain.Client
	err := r.v.do(func(st *state) error {
		c, ok := st.clients[id]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneClient(c)
		return nil
	})
	return out, err
}
