package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/raykavin/smarttrades/pkg/config"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/exchange"
	"github.com/raykavin/smarttrades/pkg/exchange/binance"
	"github.com/raykavin/smarttrades/pkg/exchange/threecommas"
	"github.com/raykavin/smarttrades/pkg/logger"
	lrlog "github.com/raykavin/smarttrades/pkg/logger/logrus"
	zlog "github.com/raykavin/smarttrades/pkg/logger/zerolog"
	"github.com/raykavin/smarttrades/pkg/storage"
)

const dryRunBalance = 10000

func buildLogger(cfg config.LogConfig) (logger.Logger, error) {
	if cfg.Backend == "logrus" {
		log, err := lrlog.New(cfg.Level)
		if err != nil {
			return nil, err
		}
		return log, nil
	}

	log, err := zlog.New(zlog.Config{
		Level:          cfg.Level,
		DateTimeLayout: "2006-01-02 15:04:05",
		Colored:        true,
		File:           cfg.File,
	})
	if err != nil {
		return nil, err
	}

	return zlog.NewAdapter(log), nil
}

// stores holds the opened backends, a SQL database serving both roles is opened once
type stores struct {
	sessions core.SessionStore
	stats    core.StatisticsLog
	closers  []io.Closer
}

func (s *stores) Close() error {
	var errs []error
	for _, closer := range s.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func openStores(cfg config.StorageConfig) (*stores, error) {
	opened := &stores{}
	sqlStores := make(map[string]*storage.SQLStore)

	openSQL := func(path string) (*storage.SQLStore, error) {
		if store, ok := sqlStores[path]; ok {
			return store, nil
		}
		store, err := storage.FromSQLite(path)
		if err != nil {
			return nil, err
		}
		sqlStores[path] = store
		opened.closers = append(opened.closers, store)
		return store, nil
	}

	switch cfg.Backend {
	case config.BackendSQL:
		store, err := openSQL(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
		}
		opened.sessions = store
	default:
		store, err := storage.FromFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", core.ErrPersistence, cfg.Path, err)
		}
		opened.sessions = store
		opened.closers = append(opened.closers, store)
	}

	switch cfg.StatsBackend {
	case config.BackendSQL:
		store, err := openSQL(cfg.StatsPath)
		if err != nil {
			_ = opened.Close()
			return nil, fmt.Errorf("%w: %v", core.ErrPersistence, err)
		}
		opened.stats = store
	default:
		opened.stats = storage.NewCSVStatisticsLog(cfg.StatsPath)
	}

	return opened, nil
}

// readStatistics loads the whole ledger for the report command
func readStatistics(cfg config.StorageConfig, opened *stores) ([]core.StatisticsRecord, error) {
	if store, ok := opened.stats.(*storage.SQLStore); ok {
		return store.Records("")
	}
	return storage.ReadStatistics(cfg.StatsPath)
}

func buildMarket(cfg *config.Config, log logger.Logger) (core.Venue, core.PriceFeed) {
	client := threecommas.NewClient(cfg.API.Key, cfg.API.Secret, log,
		threecommas.WithBaseURL(cfg.API.BaseURL),
		threecommas.WithRateLimit(cfg.API.RequestsPerSecond),
		threecommas.WithMarketCode(cfg.Strategy.MarketCode),
	)

	var feed core.PriceFeed = client
	if cfg.PriceSource == config.PriceSourceBinance || cfg.DryRun {
		feed = binance.NewPriceFeed()
	}

	if cfg.DryRun {
		log.Warn("dry run: SmartTrades are simulated by the paper venue")
		return exchange.NewPaperVenue(feed, log,
			exchange.WithPaperBalance(cfg.Strategy.AccountIDLong, dryRunBalance),
			exchange.WithPaperBalance(cfg.Strategy.AccountIDShort, dryRunBalance),
		), feed
	}

	return client, feed
}
