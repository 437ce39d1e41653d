package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// memStore deduplicates by natural key in memory, mirroring the store
// contract the SQL repos implement.
type memStore struct {
	bars   map[string]model.PriceBar
	events map[string]model.EconomicEvent
	cot    map[string]model.CotRecord
	news   map[string]model.NewsItem
	pruned map[model.Source]time.Time

	failInserts bool
}

func newMemStore() *memStore {
	return &memStore{
		bars:   make(map[string]model.PriceBar),
		events: make(map[string]model.EconomicEvent),
		cot:    make(map[string]model.CotRecord),
		news:   make(map[string]model.NewsItem),
		pruned: make(map[model.Source]time.Time),
	}
}

func (m *memStore) InsertPriceBar(ctx context.Context, bar model.PriceBar) (bool, error) {
	if m.failInserts {
		return false, errors.New("store unavailable")
	}
	key := fmt.Sprintf("%s|%s|%d", bar.Symbol, bar.Timeframe, bar.Timestamp.UnixMilli())
	if _, ok := m.bars[key]; ok {
		return false, nil
	}
	m.bars[key] = bar
	return true, nil
}

func (m *memStore) InsertEconomicEvent(ctx context.Context, ev model.EconomicEvent) (bool, error) {
	key := fmt.Sprintf("%s|%d", ev.Title, ev.EventTime.UnixMilli())
	if _, ok := m.events[key]; ok {
		return false, nil
	}
	m.events[key] = ev
	return true, nil
}

func (m *memStore) InsertCotRecord(ctx context.Context, rec model.CotRecord) (bool, error) {
	key := fmt.Sprintf("%s|%s|%d", rec.Symbol, rec.TraderType, rec.ReportDate.UnixMilli())
	if _, ok := m.cot[key]; ok {
		return false, nil
	}
	m.cot[key] = rec
	return true, nil
}

func (m *memStore) InsertNewsItem(ctx context.Context, item model.NewsItem) (bool, error) {
	if _, ok := m.news[item.Link]; ok {
		return false, nil
	}
	m.news[item.Link] = item
	return true, nil
}

func (m *memStore) DataStatus(ctx context.Context) (*model.DataStatus, error) {
	return &model.DataStatus{
		Prices:         model.SourceStatus{Count: int64(len(m.bars))},
		EconomicEvents: model.SourceStatus{Count: int64(len(m.events))},
		CotData:        model.SourceStatus{Count: int64(len(m.cot))},
		News:           model.SourceStatus{Count: int64(len(m.news))},
	}, nil
}

func (m *memStore) PruneBefore(ctx context.Context, source model.Source, cutoff time.Time) (int64, error) {
	m.pruned[source] = cutoff
	return 0, nil
}

func (m *memStore) Close() error { return nil }

type noWait struct{}

func (noWait) Wait(ctx context.Context, class port.SourceClass) error { return ctx.Err() }

type stubPriceSource struct {
	bars     map[string][]model.PriceBar
	failing  map[string]bool
	requests []string
}

func (s *stubPriceSource) Bars(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]model.PriceBar, error) {
	s.requests = append(s.requests, symbol)
	if s.failing[symbol] {
		return nil, errors.New("upstream 500")
	}
	return s.bars[symbol], nil
}

type stubCalendarSource struct {
	events []model.EconomicEvent
	err    error
}

func (s *stubCalendarSource) Events(ctx context.Context, day time.Time) ([]model.EconomicEvent, error) {
	return s.events, s.err
}

type stubCotSource struct {
	records []model.CotRecord
	err     error
}

func (s *stubCotSource) WeeklyReport(ctx context.Context) ([]model.CotRecord, error) {
	return s.records, s.err
}

type stubNewsSource struct {
	feeds map[string][]model.NewsItem
	fail  map[string]bool
}

func (s *stubNewsSource) Feed(ctx context.Context, url string) ([]model.NewsItem, error) {
	if s.fail[url] {
		return nil, errors.New("feed unreachable")
	}
	return s.feeds[url], nil
}

func bar(symbol string, ts time.Time) model.PriceBar {
	return model.PriceBar{Symbol: symbol, Timeframe: "15m", Open: 1, High: 2, Low: 0.5, Close: 1.5, Timestamp: ts}
}

func newTestFetcher(store port.Store, prices port.PriceSource, calendar port.CalendarSource, cot port.CotSource, news port.NewsSource, cfg FetcherConfig) *Fetcher {
	if prices == nil {
		prices = &stubPriceSource{}
	}
	if calendar == nil {
		calendar = &stubCalendarSource{}
	}
	if cot == nil {
		cot = &stubCotSource{}
	}
	if news == nil {
		news = &stubNewsSource{}
	}
	return NewFetcher(store, prices, calendar, cot, news, noWait{}, cfg)
}

func TestFetchPricesIdempotent(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	store := newMemStore()
	prices := &stubPriceSource{bars: map[string][]model.PriceBar{
		"EURUSD=X": {bar("EURUSD=X", ts), bar("EURUSD=X", ts.Add(15*time.Minute))},
	}}
	f := newTestFetcher(store, prices, nil, nil, nil, FetcherConfig{
		Instruments: []string{"EURUSD=X"}, Timeframe: "15m", WindowDays: 7,
	})

	ctx := context.Background()
	if err := f.FetchPrices(ctx); err != nil {
		t.Fatalf("first cycle failed: %v", err)
	}
	if err := f.FetchPrices(ctx); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}

	if len(store.bars) != 2 {
		t.Errorf("re-fetching the same window must not duplicate: got %d bars", len(store.bars))
	}
}

func TestFetchPricesPartialFailureIsolation(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	store := newMemStore()
	prices := &stubPriceSource{
		bars: map[string][]model.PriceBar{
			"GC=F":    {bar("GC=F", ts)},
			"BTC-USD": {bar("BTC-USD", ts)},
		},
		failing: map[string]bool{"EURUSD=X": true},
	}
	f := newTestFetcher(store, prices, nil, nil, nil, FetcherConfig{
		Instruments: []string{"EURUSD=X", "GC=F", "BTC-USD"}, Timeframe: "15m", WindowDays: 7,
	})

	if err := f.FetchPrices(context.Background()); err != nil {
		t.Fatalf("partial failure must not fail the cycle: %v", err)
	}
	if len(prices.requests) != 3 {
		t.Errorf("all instruments must be attempted, got %d requests", len(prices.requests))
	}
	if len(store.bars) != 2 {
		t.Errorf("expected surviving instruments persisted, got %d bars", len(store.bars))
	}
}

func TestFetchPricesInsertErrorsAreSkipped(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	store := newMemStore()
	store.failInserts = true
	prices := &stubPriceSource{bars: map[string][]model.PriceBar{
		"GC=F": {bar("GC=F", ts)},
	}}
	f := newTestFetcher(store, prices, nil, nil, nil, FetcherConfig{
		Instruments: []string{"GC=F"}, Timeframe: "15m", WindowDays: 7,
	})

	if err := f.FetchPrices(context.Background()); err != nil {
		t.Fatalf("insert failures must not fail the cycle: %v", err)
	}
	if len(store.bars) != 0 {
		t.Errorf("expected no bars persisted, got %d", len(store.bars))
	}
}

func TestFetchCalendarCycleFailurePropagates(t *testing.T) {
	store := newMemStore()
	calendar := &stubCalendarSource{err: errors.New("page unavailable")}
	f := newTestFetcher(store, nil, calendar, nil, nil, FetcherConfig{})

	if err := f.FetchCalendar(context.Background()); err == nil {
		t.Fatal("calendar page failure must propagate")
	}
}

func TestFetchCalendarInsertsEvents(t *testing.T) {
	store := newMemStore()
	evTime := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	calendar := &stubCalendarSource{events: []model.EconomicEvent{
		{Country: "USD", Title: "CPI m/m", Impact: model.ImpactHigh, EventTime: evTime},
		{Country: "USD", Title: "CPI m/m", Impact: model.ImpactHigh, EventTime: evTime}, // same key twice in one page
	}}
	f := newTestFetcher(store, nil, calendar, nil, nil, FetcherConfig{})

	if err := f.FetchCalendar(context.Background()); err != nil {
		t.Fatalf("FetchCalendar failed: %v", err)
	}
	if len(store.events) != 1 {
		t.Errorf("expected 1 event, got %d", len(store.events))
	}
}

func TestFetchNewsFeedFailureIsolation(t *testing.T) {
	store := newMemStore()
	published := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	news := &stubNewsSource{
		feeds: map[string][]model.NewsItem{
			"https://feeds.example.com/b": {
				{Headline: "h1", Link: "https://example.com/1", Source: "b", PublishedAt: published, Impact: model.ImpactLow},
				{Headline: "h2", Link: "https://example.com/2", Source: "b", PublishedAt: published, Impact: model.ImpactLow},
			},
		},
		fail: map[string]bool{"https://feeds.example.com/a": true},
	}
	f := newTestFetcher(store, nil, nil, nil, news, FetcherConfig{
		NewsFeeds: []string{"https://feeds.example.com/a", "https://feeds.example.com/b"},
	})

	if err := f.FetchNews(context.Background()); err != nil {
		t.Fatalf("failing feed must not fail the cycle: %v", err)
	}
	if len(store.news) != 2 {
		t.Errorf("expected 2 items from the healthy feed, got %d", len(store.news))
	}
}

func TestFetchCotInsertsRecords(t *testing.T) {
	store := newMemStore()
	report := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	cot := &stubCotSource{records: []model.CotRecord{
		{Symbol: "EUR/USD", TraderType: model.TraderCommercial, LongPositions: 1000, ShortPositions: 400, NetPositions: 600, ReportDate: report},
		{Symbol: "EUR/USD", TraderType: model.TraderNonCommercial, LongPositions: 250, ShortPositions: 700, NetPositions: -450, ReportDate: report},
	}}
	f := newTestFetcher(store, nil, nil, cot, nil, FetcherConfig{})

	ctx := context.Background()
	if err := f.FetchCot(ctx); err != nil {
		t.Fatalf("FetchCot failed: %v", err)
	}
	// a re-run over the same report inserts nothing new
	if err := f.FetchCot(ctx); err != nil {
		t.Fatalf("second FetchCot failed: %v", err)
	}
	if len(store.cot) != 2 {
		t.Errorf("expected 2 records, got %d", len(store.cot))
	}
}

func TestPruneExpired(t *testing.T) {
	store := newMemStore()
	f := newTestFetcher(store, nil, nil, nil, nil, FetcherConfig{
		RetentionDays: map[model.Source]int{
			model.SourcePrices: 30,
			model.SourceNews:   7,
			model.SourceCot:    0, // disabled
		},
	})
	f.now = func() time.Time { return time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC) }

	if err := f.PruneExpired(context.Background()); err != nil {
		t.Fatalf("PruneExpired failed: %v", err)
	}

	if cutoff := store.pruned[model.SourcePrices]; !cutoff.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected prices cutoff: %v", cutoff)
	}
	if cutoff := store.pruned[model.SourceNews]; !cutoff.Equal(time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected news cutoff: %v", cutoff)
	}
	if _, ok := store.pruned[model.SourceCot]; ok {
		t.Error("zero retention must disable pruning")
	}
}

func TestStatusAggregation(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	store := newMemStore()
	prices := &stubPriceSource{bars: map[string][]model.PriceBar{
		"GC=F": {bar("GC=F", ts), bar("GC=F", ts.Add(15*time.Minute)), bar("GC=F", ts.Add(30*time.Minute))},
	}}
	news := &stubNewsSource{feeds: map[string][]model.NewsItem{
		"https://feeds.example.com/a": {
			{Headline: "h1", Link: "https://example.com/1", Source: "a", PublishedAt: ts, Impact: model.ImpactLow},
			{Headline: "h2", Link: "https://example.com/2", Source: "a", PublishedAt: ts, Impact: model.ImpactLow},
		},
	}}
	f := newTestFetcher(store, prices, nil, nil, news, FetcherConfig{
		Instruments: []string{"GC=F"}, Timeframe: "15m", WindowDays: 7,
		NewsFeeds: []string{"https://feeds.example.com/a"},
	})

	ctx := context.Background()
	if err := f.FetchPrices(ctx); err != nil {
		t.Fatalf("FetchPrices failed: %v", err)
	}
	if err := f.FetchNews(ctx); err != nil {
		t.Fatalf("FetchNews failed: %v", err)
	}

	status, err := f.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Prices.Count < 3 {
		t.Errorf("expected at least 3 bars, got %d", status.Prices.Count)
	}
	if status.News.Count < 2 {
		t.Errorf("expected at least 2 news items, got %d", status.News.Count)
	}
}
