package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Repo is the Postgres store. The unique natural-key constraints double as
// the dedup backstop when more than one ingestion instance shares the
// database.
type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS price_bars (
  id BIGSERIAL PRIMARY KEY,
  symbol TEXT NOT NULL,
  timeframe TEXT NOT NULL,
  open DOUBLE PRECISION NOT NULL,
  high DOUBLE PRECISION NOT NULL,
  low DOUBLE PRECISION NOT NULL,
  close DOUBLE PRECISION NOT NULL,
  volume DOUBLE PRECISION NOT NULL DEFAULT 0,
  ts_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  UNIQUE(symbol, timeframe, ts_ms)
);
CREATE INDEX IF NOT EXISTS idx_price_bars_ts ON price_bars(ts_ms);

CREATE TABLE IF NOT EXISTS economic_events (
  id BIGSERIAL PRIMARY KEY,
  country TEXT NOT NULL,
  title TEXT NOT NULL,
  impact TEXT NOT NULL,
  actual TEXT NOT NULL DEFAULT '',
  forecast TEXT NOT NULL DEFAULT '',
  previous TEXT NOT NULL DEFAULT '',
  event_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  UNIQUE(title, event_ms)
);

CREATE TABLE IF NOT EXISTS cot_records (
  id BIGSERIAL PRIMARY KEY,
  symbol TEXT NOT NULL,
  trader_type TEXT NOT NULL,
  long_positions BIGINT NOT NULL DEFAULT 0,
  short_positions BIGINT NOT NULL DEFAULT 0,
  net_positions BIGINT NOT NULL DEFAULT 0,
  report_ms BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  UNIQUE(symbol, trader_type, report_ms)
);

CREATE TABLE IF NOT EXISTS news_items (
  id BIGSERIAL PRIMARY KEY,
  headline TEXT NOT NULL,
  summary TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  link TEXT NOT NULL UNIQUE,
  published_ms BIGINT NOT NULL,
  sentiment TEXT NOT NULL DEFAULT '',
  impact TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_items_published ON news_items(published_ms);
`)
	return err
}

func (r *Repo) InsertPriceBar(ctx context.Context, bar model.PriceBar) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO price_bars(symbol, timeframe, open, high, low, close, volume, ts_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(symbol, timeframe, ts_ms) DO NOTHING
	`, bar.Symbol, bar.Timeframe, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		bar.Timestamp.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *Repo) InsertEconomicEvent(ctx context.Context, ev model.EconomicEvent) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO economic_events(country, title, impact, actual, forecast, previous, event_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(title, event_ms) DO NOTHING
	`, ev.Country, ev.Title, string(ev.Impact), ev.Actual, ev.Forecast, ev.Previous,
		ev.EventTime.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *Repo) InsertCotRecord(ctx context.Context, rec model.CotRecord) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cot_records(symbol, trader_type, long_positions, short_positions, net_positions, report_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(symbol, trader_type, report_ms) DO NOTHING
	`, rec.Symbol, string(rec.TraderType), rec.LongPositions, rec.ShortPositions, rec.NetPositions,
		rec.ReportDate.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *Repo) InsertNewsItem(ctx context.Context, item model.NewsItem) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO news_items(headline, summary, source, link, published_ms, sentiment, impact, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT(link) DO NOTHING
	`, item.Headline, item.Summary, item.Source, item.Link, item.PublishedAt.UnixMilli(),
		item.Sentiment, string(item.Impact), time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

func (r *Repo) DataStatus(ctx context.Context) (*model.DataStatus, error) {
	var status model.DataStatus
	var err error

	if status.Prices, err = r.sourceStatus(ctx, "price_bars", "ts_ms"); err != nil {
		return nil, fmt.Errorf("prices status: %w", err)
	}
	if status.EconomicEvents, err = r.sourceStatus(ctx, "economic_events", "created_at"); err != nil {
		return nil, fmt.Errorf("events status: %w", err)
	}
	if status.CotData, err = r.sourceStatus(ctx, "cot_records", ""); err != nil {
		return nil, fmt.Errorf("cot status: %w", err)
	}
	if status.News, err = r.sourceStatus(ctx, "news_items", "published_ms"); err != nil {
		return nil, fmt.Errorf("news status: %w", err)
	}
	return &status, nil
}

func (r *Repo) sourceStatus(ctx context.Context, table, tsColumn string) (model.SourceStatus, error) {
	var status model.SourceStatus
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&status.Count); err != nil {
		return status, err
	}
	if tsColumn == "" {
		return status, nil
	}

	var latest sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(`+tsColumn+`) FROM `+table).Scan(&latest); err != nil {
		return status, err
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64).UTC()
		status.LastUpdate = &t
	}
	return status, nil
}

func (r *Repo) PruneBefore(ctx context.Context, source model.Source, cutoff time.Time) (int64, error) {
	var table, column string
	switch source {
	case model.SourcePrices:
		table, column = "price_bars", "ts_ms"
	case model.SourceEvents:
		table, column = "economic_events", "event_ms"
	case model.SourceCot:
		table, column = "cot_records", "report_ms"
	case model.SourceNews:
		table, column = "news_items", "published_ms"
	default:
		return 0, fmt.Errorf("unknown source %q", source)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` < $1`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ port.Store = (*Repo)(nil)
