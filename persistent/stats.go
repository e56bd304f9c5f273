package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kwalis/relay"
	"github.com/tidwall/buntdb"
)

// StatsStore keeps per-product traffic counters in buntdb. Counters
// are operational telemetry; callers record them best-effort and must
// not fail requests on store errors.
type StatsStore struct {
	Buntdb *buntdb.DB
}

func statsKey(product string) string {
	return "stats:" + strings.ToLower(product)
}

func (s *StatsStore) RecordCheck(ctx context.Context, product string, updateServed bool) error {
	return s.update(product, func(stats *relay.CheckStats) {
		stats.Checks++
		if updateServed {
			stats.UpdatesServed++
		}
	})
}

func (s *StatsStore) RecordDownload(ctx context.Context, product string) error {
	return s.update(product, func(stats *relay.CheckStats) {
		stats.Downloads++
	})
}

func (s *StatsStore) ByProduct(ctx context.Context, product string) (relay.CheckStats, error) {
	var stats relay.CheckStats
	err := s.Buntdb.View(func(tx *buntdb.Tx) error {
		serialized, err := tx.Get(statsKey(product))
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if err := json.Unmarshal([]byte(serialized), &stats); err != nil {
			return fmt.Errorf("deserialize stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, buntdb.ErrNotFound) {
			// Unknown product simply has no traffic yet.
			return relay.CheckStats{}, nil
		}
		return relay.CheckStats{}, fmt.Errorf("buntdb view: %w", err)
	}
	return stats, nil
}

func (s *StatsStore) update(product string, mutate func(*relay.CheckStats)) error {
	err := s.Buntdb.Update(func(tx *buntdb.Tx) error {
		var stats relay.CheckStats
		serialized, err := tx.Get(statsKey(product))
		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("get stats: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal([]byte(serialized), &stats); err != nil {
				return fmt.Errorf("deserialize stats: %w", err)
			}
		}

		mutate(&stats)

		updated, err := json.Marshal(&stats)
		if err != nil {
			return fmt.Errorf("serialize stats: %w", err)
		}
		_, _, err = tx.Set(statsKey(product), string(updated), nil)
		if err != nil {
			return fmt.Errorf("set stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bunt update: %w", err)
	}
	return nil
}
