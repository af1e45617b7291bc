package core

import (
	"context"
)

// Venue is the remote brokerage API used to place and follow SmartTrades
type Venue interface {
	Accounts(ctx context.Context) ([]Account, error)
	AccountBalance(ctx context.Context, accountID int64) (float64, error)
	PlaceSmartTrade(ctx context.Context, request SmartTradeRequest) (SmartTrade, error)
	SmartTrade(ctx context.Context, ref string) (SmartTrade, error)
	CancelSmartTrade(ctx context.Context, ref string) error
}

// PriceFeed resolves the last traded price of an instrument
type PriceFeed interface {
	LastQuote(ctx context.Context, instrument string) (float64, error)
}

// Notifier delivers short operator alerts. Delivery is best effort.
type Notifier interface {
	Notify(text string)
}

// SessionStore keeps the single checkpoint record of each instrument
type SessionStore interface {
	// Load returns ErrSessionNotFound when no checkpoint exists for the instrument
	Load(instrument string) (Session, error)

	// Save replaces the whole checkpoint record of the session instrument
	Save(session Session) error

	// Delete removes the checkpoint, the next run starts a fresh session
	Delete(instrument string) error
}

// StatisticsLog is the append-only ledger of resolved rounds
type StatisticsLog interface {
	Append(record StatisticsRecord) error
}
