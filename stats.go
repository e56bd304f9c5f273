package relay

import "context"

// Per-product counters of relayed traffic. Operational telemetry only;
// recording is best-effort and must never fail a client request.
type CheckStats struct {
	Checks        int64 `json:"checks"`
	UpdatesServed int64 `json:"updatesServed"`
	Downloads     int64 `json:"downloads"`
}

type StatsStore interface {
	RecordCheck(ctx context.Context, product string, updateServed bool) error
	RecordDownload(ctx context.Context, product string) error
	ByProduct(ctx context.Context, product string) (CheckStats, error)
}
