package core

import "strings"

// Side identifies one leg of the paired position
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// PositionType maps the leg to the venue position direction
func (s Side) PositionType() string {
	if s == SideShort {
		return "sell"
	}
	return "buy"
}

// Account is a venue sub-account
type Account struct {
	ID         int64
	Name       string
	MarketCode string
}

// TakeProfitStep is one take-profit target of a SmartTrade
type TakeProfitStep struct {
	Price         float64
	VolumePercent float64
}

// SmartTradeRequest describes a bracket order: entry, take-profit steps and trailing stop-loss
type SmartTradeRequest struct {
	AccountID  int64
	Instrument string
	Side       Side
	OrderType  string
	Quantity   float64
	EntryPrice float64
	Leverage   float64
	Note       string

	TakeProfits     []TakeProfitStep
	StopLossPrice   float64
	TrailingPercent float64
}

// SmartTrade is the venue view of a placed bracket order
type SmartTrade struct {
	Ref         string
	Instrument  string
	StatusType  string
	StatusTitle string
	ProfitUSD   float64
}

// Failed reports whether the venue status text carries the failure marker
func (t SmartTrade) Failed(marker string) bool {
	if marker == "" {
		return false
	}
	marker = strings.ToLower(marker)
	return strings.Contains(strings.ToLower(t.StatusTitle), marker) ||
		strings.Contains(strings.ToLower(t.StatusType), marker)
}
