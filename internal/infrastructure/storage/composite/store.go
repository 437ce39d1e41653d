package composite

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Store layers a quote cache over the durable store. The durable store is
// authoritative: cache write failures are logged and never fail the insert,
// and only bars that actually inserted refresh the cache.
type Store struct {
	durable port.Store
	cache   port.QuoteCache
}

func New(durable port.Store, cache port.QuoteCache) *Store {
	return &Store{durable: durable, cache: cache}
}

func (s *Store) InsertPriceBar(ctx context.Context, bar model.PriceBar) (bool, error) {
	inserted, err := s.durable.InsertPriceBar(ctx, bar)
	if err != nil || !inserted {
		return inserted, err
	}
	if s.cache != nil {
		if cerr := s.cache.SetLatestBar(ctx, bar); cerr != nil {
			log.Warn().Err(cerr).Str("symbol", bar.Symbol).Msg("latest-bar cache update failed")
		}
	}
	return true, nil
}

func (s *Store) InsertEconomicEvent(ctx context.Context, ev model.EconomicEvent) (bool, error) {
	return s.durable.InsertEconomicEvent(ctx, ev)
}

func (s *Store) InsertCotRecord(ctx context.Context, rec model.CotRecord) (bool, error) {
	return s.durable.InsertCotRecord(ctx, rec)
}

func (s *Store) InsertNewsItem(ctx context.Context, item model.NewsItem) (bool, error) {
	return s.durable.InsertNewsItem(ctx, item)
}

func (s *Store) DataStatus(ctx context.Context) (*model.DataStatus, error) {
	return s.durable.DataStatus(ctx)
}

func (s *Store) PruneBefore(ctx context.Context, source model.Source, cutoff time.Time) (int64, error) {
	return s.durable.PruneBefore(ctx, source, cutoff)
}

func (s *Store) Close() error {
	err := s.durable.Close()
	if s.cache != nil {
		if cerr := s.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ port.Store = (*Store)(nil)
