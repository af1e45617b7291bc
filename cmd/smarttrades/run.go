package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raykavin/smarttrades"
	"github.com/raykavin/smarttrades/pkg/config"
	"github.com/raykavin/smarttrades/pkg/metric"
	"github.com/raykavin/smarttrades/pkg/notification"
	"github.com/spf13/cobra"
)

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}

	opened, err := openStores(cfg.Storage)
	if err != nil {
		return err
	}
	defer opened.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	venue, feed := buildMarket(cfg, log)

	var bot *smarttrades.Bot
	options := []smarttrades.Option{
		smarttrades.WithLogger(log),
		smarttrades.WithSessionStore(opened.sessions),
		smarttrades.WithStatisticsLog(opened.stats),
		smarttrades.WithNotifier(notification.NewLog(log)),
	}

	if cfg.Strategy.Telegram.Enabled {
		telegram, err := notification.NewTelegram(cfg.Strategy.Telegram, log,
			notification.WithStatus(func() string { return bot.Status() }))
		if err != nil {
			return err
		}
		options = append(options, smarttrades.WithNotifier(telegram))
	}

	if cfg.Strategy.Mail.Enabled {
		options = append(options, smarttrades.WithNotifier(notification.NewMail(cfg.Strategy.Mail, log)))
	}

	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		options = append(options, smarttrades.WithMetrics(metric.NewMetrics(metric.DefaultNamespace, registry)))

		go func() {
			if err := metric.Serve(ctx, cfg.MetricsAddr, registry, log); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	bot, err = smarttrades.NewBot(cfg.Strategy, venue, feed, options...)
	if err != nil {
		return err
	}

	log.WithField("instruments", bot.Instruments()).Info("bot started")
	return bot.Run(ctx)
}
