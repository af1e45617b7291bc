package core

import "time"

// Settings is the immutable strategy configuration handed to the bot at startup
type Settings struct {
	AccountIDLong  int64
	AccountIDShort int64
	OrderType      string
	MarketCode     string

	AmountUSDT       float64 // base notional per leg
	TakeProfit1      float64 // percent, first half of the volume
	TakeProfit2      float64 // percent, second half of the volume
	TrailingStopLoss float64 // percent
	Leverage         float64

	CheckInterval   time.Duration
	HeartbeatPeriod time.Duration

	Instruments     []string
	MultiInstrument bool

	Statuses StatusVocabulary
	Telegram TelegramSettings
	Mail     MailSettings
}

// StatusVocabulary maps venue status types to round outcomes
type StatusVocabulary struct {
	TakeProfit   []string
	StopLoss     []string
	FailedMarker string

	// Closed lists terminal statuses that are neither a take profit nor a stop
	// loss, a round stays open with a warning when a leg reaches one
	Closed []string
}

// TelegramSettings holds configuration for Telegram integration
type TelegramSettings struct {
	Enabled bool
	Token   string
	ChatID  int64
}

// MailSettings holds the SMTP account used for e-mail alerts
type MailSettings struct {
	Enabled  bool
	Server   string
	Port     int
	From     string
	To       string
	Password string
}

// AccountFor returns the sub-account used by a leg
func (s Settings) AccountFor(side Side) int64 {
	if side == SideShort {
		return s.AccountIDShort
	}
	return s.AccountIDLong
}
