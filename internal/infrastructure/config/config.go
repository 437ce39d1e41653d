package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`

	Storage struct {
		Driver      string `toml:"driver"` // "sqlite" or "postgres"
		SQLitePath  string `toml:"sqlite_path"`
		PostgresDSN string `toml:"postgres_dsn"`
	} `toml:"storage"`

	Cache struct {
		Enabled   bool   `toml:"enabled"`
		RedisAddr string `toml:"redis_addr"`
		Prefix    string `toml:"prefix"`
		TTLMin    int    `toml:"ttl_min"`
	} `toml:"cache"`

	Fetch struct {
		Timeframe   string   `toml:"timeframe"`
		WindowDays  int      `toml:"window_days"`
		Instruments []string `toml:"instruments"`
		NewsFeeds   []string `toml:"news_feeds"`

		RateLimitMS struct {
			Price    int `toml:"price"`
			Feed     int `toml:"feed"`
			Calendar int `toml:"calendar"`
		} `toml:"rate_limit_ms"`

		RetentionDays struct {
			Prices int `toml:"prices"`
			News   int `toml:"news"`
			Events int `toml:"events"`
			Cot    int `toml:"cot"`
		} `toml:"retention_days"`

		Keywords struct {
			High   []string `toml:"high"`
			Medium []string `toml:"medium"`
		} `toml:"keywords"`

		// CotSymbols maps the report's instrument names to dashboard symbols.
		CotSymbols map[string]string `toml:"cot_symbols"`
	} `toml:"fetch"`

	Sources struct {
		PriceURL    string `toml:"price_url"`
		CalendarURL string `toml:"calendar_url"`
		CotURL      string `toml:"cot_url"`
	} `toml:"sources"`

	// Cron expressions (5-field, evaluated in UTC).
	Schedule struct {
		Prices    string `toml:"prices"`
		Calendar  string `toml:"calendar"`
		Cot       string `toml:"cot"`
		News      string `toml:"news"`
		Retention string `toml:"retention"`
	} `toml:"schedule"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default reproduces the shipped configs/config.toml values for tests and
// for running without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/pulse.db"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "pulse"
	}
	if cfg.Cache.TTLMin <= 0 {
		cfg.Cache.TTLMin = 60
	}

	if cfg.Fetch.Timeframe == "" {
		cfg.Fetch.Timeframe = "15m"
	}
	if cfg.Fetch.WindowDays <= 0 {
		cfg.Fetch.WindowDays = 7
	}
	if len(cfg.Fetch.Instruments) == 0 {
		cfg.Fetch.Instruments = defaultInstruments()
	}
	if len(cfg.Fetch.NewsFeeds) == 0 {
		cfg.Fetch.NewsFeeds = []string{
			"https://feeds.finance.yahoo.com/rss/2.0/headline",
			"https://feeds.marketwatch.com/marketwatch/topstories/",
			"https://feeds.bloomberg.com/markets/news.rss",
			"https://www.investing.com/rss/news.rss",
		}
	}
	if cfg.Fetch.RateLimitMS.Price <= 0 {
		cfg.Fetch.RateLimitMS.Price = 100
	}
	if cfg.Fetch.RateLimitMS.Feed <= 0 {
		cfg.Fetch.RateLimitMS.Feed = 1000
	}
	if cfg.Fetch.RateLimitMS.Calendar <= 0 {
		cfg.Fetch.RateLimitMS.Calendar = 2000
	}
	if cfg.Fetch.RetentionDays.Prices <= 0 {
		cfg.Fetch.RetentionDays.Prices = 30
	}
	if cfg.Fetch.RetentionDays.News <= 0 {
		cfg.Fetch.RetentionDays.News = 7
	}
	if cfg.Fetch.RetentionDays.Events <= 0 {
		cfg.Fetch.RetentionDays.Events = 30
	}
	if cfg.Fetch.RetentionDays.Cot <= 0 {
		cfg.Fetch.RetentionDays.Cot = 365
	}
	if len(cfg.Fetch.Keywords.High) == 0 {
		cfg.Fetch.Keywords.High = []string{"fed", "inflation", "gdp", "employment", "rate", "crisis", "war"}
	}
	if len(cfg.Fetch.Keywords.Medium) == 0 {
		cfg.Fetch.Keywords.Medium = []string{"earnings", "trade", "policy", "election", "bank"}
	}
	if len(cfg.Fetch.CotSymbols) == 0 {
		cfg.Fetch.CotSymbols = map[string]string{
			"EURO FX - CHICAGO MERCANTILE EXCHANGE":                "EUR/USD",
			"BRITISH POUND STERLING - CHICAGO MERCANTILE EXCHANGE": "GBP/USD",
			"JAPANESE YEN - CHICAGO MERCANTILE EXCHANGE":           "USD/JPY",
			"GOLD - COMMODITY EXCHANGE INC.":                       "Gold",
			"SILVER - COMMODITY EXCHANGE INC.":                     "Silver",
			"LIGHT SWEET CRUDE OIL - NEW YORK MERCANTILE EXCHANGE": "Crude Oil",
		}
	}

	if cfg.Schedule.Prices == "" {
		cfg.Schedule.Prices = "*/15 * * * *"
	}
	if cfg.Schedule.Calendar == "" {
		cfg.Schedule.Calendar = "0 * * * *"
	}
	if cfg.Schedule.Cot == "" {
		cfg.Schedule.Cot = "0 21 * * 5"
	}
	if cfg.Schedule.News == "" {
		cfg.Schedule.News = "*/10 * * * *"
	}
	if cfg.Schedule.Retention == "" {
		cfg.Schedule.Retention = "0 3 * * *"
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
			return errors.New("storage.postgres_dsn empty but driver is postgres")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}

	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
		return errors.New("cache.redis_addr empty but cache enabled")
	}

	cfg.Fetch.Instruments = dedupe(cfg.Fetch.Instruments)
	if len(cfg.Fetch.Instruments) == 0 {
		return errors.New("fetch.instruments is empty")
	}
	cfg.Fetch.NewsFeeds = dedupe(cfg.Fetch.NewsFeeds)
	if len(cfg.Fetch.NewsFeeds) == 0 {
		return errors.New("fetch.news_feeds is empty")
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func defaultInstruments() []string {
	return []string{
		// forex
		"EURUSD=X", "GBPUSD=X", "USDJPY=X", "USDCHF=X", "AUDUSD=X", "USDCAD=X",
		"NZDUSD=X", "EURGBP=X", "EURJPY=X", "GBPJPY=X", "EURCHF=X", "GBPCHF=X",
		"CADCHF=X", "AUDCHF=X", "NZDCHF=X", "AUDCAD=X", "NZDCAD=X", "AUDNZD=X",
		// indices
		"^GSPC", "^DJI", "^IXIC", "^FTSE", "^GDAXI", "^FCHI", "^N225", "^HSI", "^AXJO",
		// commodities
		"GC=F", "SI=F", "CL=F", "BZ=F", "NG=F", "ZC=F", "ZS=F", "ZW=F",
		// crypto
		"BTC-USD", "ETH-USD", "BNB-USD", "XRP-USD", "ADA-USD",
		"SOL-USD", "DOGE-USD", "DOT-USD", "MATIC-USD", "LTC-USD",
	}
}
