package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// FetcherConfig carries the ingestion universe and windows. Zero values are
// filled by the config package; the service trusts what it is given.
type FetcherConfig struct {
	Instruments []string
	Timeframe   string
	WindowDays  int
	NewsFeeds   []string

	// RetentionDays per source; zero disables pruning for that source.
	RetentionDays map[model.Source]int
}

// Fetcher runs one fetch cycle per external source: page through the unit
// set, rate-limit, parse, insert-if-absent. Per-unit failures are logged and
// skipped; only a cycle that cannot run at all returns an error.
type Fetcher struct {
	store    port.Store
	prices   port.PriceSource
	calendar port.CalendarSource
	cot      port.CotSource
	news     port.NewsSource
	limiter  port.Limiter
	cfg      FetcherConfig

	now func() time.Time
}

func NewFetcher(
	store port.Store,
	prices port.PriceSource,
	calendar port.CalendarSource,
	cot port.CotSource,
	news port.NewsSource,
	limiter port.Limiter,
	cfg FetcherConfig,
) *Fetcher {
	return &Fetcher{
		store:    store,
		prices:   prices,
		calendar: calendar,
		cot:      cot,
		news:     news,
		limiter:  limiter,
		cfg:      cfg,
		now:      time.Now,
	}
}

// FetchPrices pulls a trailing window of intraday bars for every configured
// instrument. One instrument failing does not abort the rest.
func (f *Fetcher) FetchPrices(ctx context.Context) error {
	log.Info().Int("instruments", len(f.cfg.Instruments)).Msg("price fetch started")

	end := f.now().UTC()
	start := end.AddDate(0, 0, -f.cfg.WindowDays)

	var fetched, inserted int
	for _, symbol := range f.cfg.Instruments {
		if err := f.limiter.Wait(ctx, port.ClassPrice); err != nil {
			return err
		}

		bars, err := f.prices.Bars(ctx, symbol, start, end, f.cfg.Timeframe)
		if err != nil {
			log.Warn().Str("symbol", symbol).Err(err).Msg("price fetch failed for instrument")
			continue
		}

		n := f.insertBars(ctx, bars)
		fetched += len(bars)
		inserted += n
		if n > 0 {
			log.Debug().Str("symbol", symbol).Int("inserted", n).Msg("instrument updated")
		}
	}

	log.Info().Int("fetched", fetched).Int("inserted", inserted).Msg("price fetch completed")
	return nil
}

func (f *Fetcher) insertBars(ctx context.Context, bars []model.PriceBar) int {
	var inserted int
	for _, bar := range bars {
		ok, err := f.store.InsertPriceBar(ctx, bar)
		if err != nil {
			log.Warn().Str("symbol", bar.Symbol).Time("ts", bar.Timestamp).Err(err).Msg("bar insert failed")
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted
}

// FetchCalendar pulls today's economic calendar page. The page fetch is the
// whole cycle, so its failure propagates.
func (f *Fetcher) FetchCalendar(ctx context.Context) error {
	log.Info().Msg("calendar fetch started")

	if err := f.limiter.Wait(ctx, port.ClassCalendar); err != nil {
		return err
	}

	today := f.now().UTC()
	events, err := f.calendar.Events(ctx, today)
	if err != nil {
		return fmt.Errorf("fetching calendar: %w", err)
	}

	var inserted int
	for _, ev := range events {
		ok, err := f.store.InsertEconomicEvent(ctx, ev)
		if err != nil {
			log.Warn().Str("title", ev.Title).Err(err).Msg("event insert failed")
			continue
		}
		if ok {
			inserted++
		}
	}

	log.Info().Int("fetched", len(events)).Int("inserted", inserted).Msg("calendar fetch completed")
	return nil
}

// FetchCot pulls the weekly positioning report. Unparseable lines were
// already dropped by the source; the report fetch itself failing propagates.
func (f *Fetcher) FetchCot(ctx context.Context) error {
	log.Info().Msg("cot fetch started")

	records, err := f.cot.WeeklyReport(ctx)
	if err != nil {
		return fmt.Errorf("fetching cot report: %w", err)
	}

	var inserted int
	for _, rec := range records {
		ok, err := f.store.InsertCotRecord(ctx, rec)
		if err != nil {
			log.Warn().Str("symbol", rec.Symbol).Str("trader_type", string(rec.TraderType)).Err(err).Msg("cot insert failed")
			continue
		}
		if ok {
			inserted++
		}
	}

	log.Info().Int("fetched", len(records)).Int("inserted", inserted).Msg("cot fetch completed")
	return nil
}

// FetchNews walks the configured feed list. A feed that fails to load or
// parse is logged and skipped; the remaining feeds still run.
func (f *Fetcher) FetchNews(ctx context.Context) error {
	log.Info().Int("feeds", len(f.cfg.NewsFeeds)).Msg("news fetch started")

	var fetched, inserted int
	for _, feedURL := range f.cfg.NewsFeeds {
		if err := f.limiter.Wait(ctx, port.ClassFeed); err != nil {
			return err
		}

		items, err := f.news.Feed(ctx, feedURL)
		if err != nil {
			log.Warn().Str("feed", feedURL).Err(err).Msg("feed fetch failed")
			continue
		}

		fetched += len(items)
		for _, item := range items {
			ok, err := f.store.InsertNewsItem(ctx, item)
			if err != nil {
				log.Warn().Str("link", item.Link).Err(err).Msg("news insert failed")
				continue
			}
			if ok {
				inserted++
			}
		}
	}

	log.Info().Int("fetched", fetched).Int("inserted", inserted).Msg("news fetch completed")
	return nil
}

// PruneExpired trims each source to its configured retention window.
func (f *Fetcher) PruneExpired(ctx context.Context) error {
	now := f.now().UTC()
	for source, days := range f.cfg.RetentionDays {
		if days <= 0 {
			continue
		}
		cutoff := now.AddDate(0, 0, -days)
		removed, err := f.store.PruneBefore(ctx, source, cutoff)
		if err != nil {
			return fmt.Errorf("pruning %s: %w", source, err)
		}
		if removed > 0 {
			log.Info().Str("source", string(source)).Int64("removed", removed).Time("cutoff", cutoff).Msg("retention prune")
		}
	}
	return nil
}

// Status aggregates stored counts and freshness per source. Any query
// failure surfaces as a single error, never partial results.
func (f *Fetcher) Status(ctx context.Context) (*model.DataStatus, error) {
	status, err := f.store.DataStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting data status: %w", err)
	}
	return status, nil
}

var _ port.Fetcher = (*Fetcher)(nil)
