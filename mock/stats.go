package mock

import (
	"context"

	"github.com/kwalis/relay"
)

type StatsStore struct {
	RecordCheckFn    func(ctx context.Context, product string, updateServed bool) error
	RecordDownloadFn func(ctx context.Context, product string) error
	ByProductFn      func(ctx context.Context, product string) (relay.CheckStats, error)
}

func (s StatsStore) RecordCheck(ctx context.Context, product string, updateServed bool) error {
	if s.RecordCheckFn == nil {
		return nil
	}
	return s.RecordCheckFn(ctx, product, updateServed)
}

func (s StatsStore) RecordDownload(ctx context.Context, product string) error {
	if s.RecordDownloadFn == nil {
		return nil
	}
	return s.RecordDownloadFn(ctx, product)
}

func (s StatsStore) ByProduct(ctx context.Context, product string) (relay.CheckStats, error) {
	return s.ByProductFn(ctx, product)
}
