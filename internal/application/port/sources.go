package port

import (
	"context"
	"time"

	"pulse/internal/domain/model"
)

// SourceClass groups external endpoints that share one rate-limit budget.
type SourceClass string

const (
	ClassPrice    SourceClass = "price"
	ClassFeed     SourceClass = "feed"
	ClassCalendar SourceClass = "calendar"
)

// Limiter spaces outbound requests with a fixed per-class delay.
type Limiter interface {
	// Wait blocks for the class's delay; it only errors on ctx cancellation.
	Wait(ctx context.Context, class SourceClass) error
}

// PriceSource returns intraday bars for one symbol over a time window.
type PriceSource interface {
	Bars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]model.PriceBar, error)
}

// CalendarSource returns the economic events listed for one day.
type CalendarSource interface {
	Events(ctx context.Context, day time.Time) ([]model.EconomicEvent, error)
}

// CotSource returns the records of the current weekly positioning report.
type CotSource interface {
	WeeklyReport(ctx context.Context) ([]model.CotRecord, error)
}

// NewsSource returns the items of one feed URL.
type NewsSource interface {
	Feed(ctx context.Context, url string) ([]model.NewsItem, error)
}

// Fetcher drives one fetch cycle per external source. Implementations skip
// failing units (one symbol, one feed, one report line) with a logged warning
// and only return an error when the cycle cannot run at all.
type Fetcher interface {
	FetchPrices(ctx context.Context) error
	FetchCalendar(ctx context.Context) error
	FetchCot(ctx context.Context) error
	FetchNews(ctx context.Context) error

	// PruneExpired applies the configured per-source retention windows.
	PruneExpired(ctx context.Context) error

	// Status aggregates stored record counts and freshness per source.
	Status(ctx context.Context) (*model.DataStatus, error)
}
