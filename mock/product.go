package mock

import (
	"context"

	"github.com/kwalis/relay"
)

type ProductStore struct {
	ByNameFn func(ctx context.Context, name string) (relay.ProductConfig, error)
}

func (s ProductStore) ByName(ctx context.Context, name string) (relay.ProductConfig, error) {
	return s.ByNameFn(ctx, name)
}
