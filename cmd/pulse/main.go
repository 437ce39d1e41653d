package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pulse/internal/application/port"
	"pulse/internal/application/service"
	"pulse/internal/domain/model"
	"pulse/internal/infrastructure/config"
	"pulse/internal/infrastructure/logger"
	"pulse/internal/infrastructure/source/cftc"
	"pulse/internal/infrastructure/source/forexfactory"
	"pulse/internal/infrastructure/source/rssfeed"
	"pulse/internal/infrastructure/source/yahoo"
	"pulse/internal/infrastructure/storage/composite"
	"pulse/internal/infrastructure/storage/postgres"
	pulseredis "pulse/internal/infrastructure/storage/redis"
	"pulse/internal/infrastructure/storage/sqlite"
	"pulse/internal/interfaces/httpapi"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Setup(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store failed")
	}
	defer store.Close()

	fetcher := service.NewFetcher(
		store,
		yahoo.NewClient(cfg.Sources.PriceURL),
		forexfactory.NewClient(cfg.Sources.CalendarURL),
		cftc.NewClient(cfg.Sources.CotURL, cfg.Fetch.CotSymbols),
		rssfeed.NewClient(cfg.Fetch.Keywords.High, cfg.Fetch.Keywords.Medium),
		service.NewRateLimiter(map[port.SourceClass]time.Duration{
			port.ClassPrice:    time.Duration(cfg.Fetch.RateLimitMS.Price) * time.Millisecond,
			port.ClassFeed:     time.Duration(cfg.Fetch.RateLimitMS.Feed) * time.Millisecond,
			port.ClassCalendar: time.Duration(cfg.Fetch.RateLimitMS.Calendar) * time.Millisecond,
		}),
		service.FetcherConfig{
			Instruments: cfg.Fetch.Instruments,
			Timeframe:   cfg.Fetch.Timeframe,
			WindowDays:  cfg.Fetch.WindowDays,
			NewsFeeds:   cfg.Fetch.NewsFeeds,
			RetentionDays: map[model.Source]int{
				model.SourcePrices: cfg.Fetch.RetentionDays.Prices,
				model.SourceEvents: cfg.Fetch.RetentionDays.Events,
				model.SourceCot:    cfg.Fetch.RetentionDays.Cot,
				model.SourceNews:   cfg.Fetch.RetentionDays.News,
			},
		},
	)

	scheduler, err := service.NewScheduler(fetcher, service.Cadences{
		Prices:    cfg.Schedule.Prices,
		Calendar:  cfg.Schedule.Calendar,
		Cot:       cfg.Schedule.Cot,
		News:      cfg.Schedule.News,
		Retention: cfg.Schedule.Retention,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build scheduler failed")
	}

	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.NewRouter(scheduler, fetcher),
	}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("pulse started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server exited")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

func buildStore(cfg *config.Config) (port.Store, error) {
	var durable port.Store
	var err error
	switch cfg.Storage.Driver {
	case "postgres":
		durable, err = postgres.New(cfg.Storage.PostgresDSN)
	default:
		durable, err = sqlite.New(cfg.Storage.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	var cache port.QuoteCache
	if cfg.Cache.Enabled {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Cache.RedisAddr})
		cache = pulseredis.New(rdb, cfg.Cache.Prefix, time.Duration(cfg.Cache.TTLMin)*time.Minute)
	}

	return composite.New(durable, cache), nil
}
