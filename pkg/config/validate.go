package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/logger"
)

// Validate reports every invalid setting at once, wrapped in core.ErrConfiguration
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	if !c.DryRun {
		check(c.API.Key != "" && !strings.HasPrefix(c.API.Key, placeholder), "APIKey is not set")
		check(c.API.Secret != "" && !strings.HasPrefix(c.API.Secret, placeholder), "APISecret is not set")
	}
	check(c.API.BaseURL != "", "APIBaseURL is empty")
	check(c.API.RequestsPerSecond > 0, "RequestsPerSecond must be positive")

	s := c.Strategy
	check(s.AccountIDLong != 0, "AccountIDLong is not set")
	check(s.AccountIDShort != 0, "AccountIDShort is not set")
	check(s.AccountIDLong != s.AccountIDShort || s.AccountIDLong == 0, "AccountIDLong and AccountIDShort must differ")
	check(slices.Contains([]string{"market", "limit"}, s.OrderType), "OrderType %q must be market or limit", s.OrderType)
	check(s.AmountUSDT > 0, "AmountUSDT must be positive")
	check(s.TakeProfit1 > 0, "TakeProfit1 must be positive")
	check(s.TakeProfit2 > 0, "TakeProfit2 must be positive")
	check(s.TrailingStopLoss > 0 && s.TrailingStopLoss < 100, "TrailingStopLoss must be in (0, 100)")
	check(s.Leverage >= 1, "Leverage must be at least 1")
	check(s.CheckInterval > 0, "CheckInterval must be positive")
	check(s.HeartbeatPeriod > 0, "HeartbeatPeriod must be positive")
	check(len(s.Instruments) > 0, "no instruments configured")
	check(len(s.Statuses.TakeProfit) > 0, "TakeProfitStatuses is empty")
	check(len(s.Statuses.StopLoss) > 0, "StopLossStatuses is empty")
	check(!s.Telegram.Enabled || s.Telegram.ChatID != 0, "ChatID is required when BotToken is set")
	check(!s.Mail.Enabled || (s.Mail.From != "" && s.Mail.To != "" && s.Mail.Port > 0), "MailFrom, MailTo and MailPort are required when MailServer is set")

	check(slices.Contains([]string{BackendBunt, BackendSQL}, c.Storage.Backend), "StorageBackend %q must be buntdb or sql", c.Storage.Backend)
	check(slices.Contains([]string{BackendCSV, BackendSQL}, c.Storage.StatsBackend), "StatsBackend %q must be csv or sql", c.Storage.StatsBackend)
	check(c.Storage.Path != "", "StoragePath is empty")
	check(c.Storage.StatsPath != "", "StatsPath is empty")
	check(slices.Contains([]string{PriceSourceThreeCommas, PriceSourceBinance}, c.PriceSource), "PriceSource %q must be 3commas or binance", c.PriceSource)

	_, levelOK := logger.ParseLevel(c.Log.Level)
	check(levelOK, "LogLevel %q is unknown", c.Log.Level)
	check(slices.Contains([]string{"zerolog", "logrus"}, c.Log.Backend), "LogBackend %q must be zerolog or logrus", c.Log.Backend)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", core.ErrConfiguration, errors.Join(errs...))
	}

	return nil
}
