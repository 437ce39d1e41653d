package port

import (
	"context"
	"time"

	"pulse/internal/domain/model"
)

// Store persists normalized market records. Every insert deduplicates by the
// record's natural key atomically (insert-if-absent, no separate existence
// check) and reports whether a row was actually written.
type Store interface {
	InsertPriceBar(ctx context.Context, bar model.PriceBar) (inserted bool, err error)
	InsertEconomicEvent(ctx context.Context, ev model.EconomicEvent) (inserted bool, err error)
	InsertCotRecord(ctx context.Context, rec model.CotRecord) (inserted bool, err error)
	InsertNewsItem(ctx context.Context, item model.NewsItem) (inserted bool, err error)

	// DataStatus returns per-source counts and freshness in one query path.
	DataStatus(ctx context.Context) (*model.DataStatus, error)

	// PruneBefore deletes rows of the source older than cutoff and returns
	// how many were removed.
	PruneBefore(ctx context.Context, source model.Source, cutoff time.Time) (int64, error)

	Close() error
}

// QuoteCache keeps the latest bar per symbol hot for dashboard reads.
type QuoteCache interface {
	SetLatestBar(ctx context.Context, bar model.PriceBar) error
	Close() error
}
