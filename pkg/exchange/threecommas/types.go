package threecommas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// number decodes amounts the API sends either as JSON numbers or as strings
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}

	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", data, err)
	}

	*n = number(value)
	return nil
}

// identifier decodes ids sent either as integers or as strings
type identifier string

func (i *identifier) UnmarshalJSON(data []byte) error {
	*i = identifier(bytes.Trim(data, `"`))
	return nil
}

type account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MarketCode string `json:"market_code"`
	UsdAmount  number `json:"usd_amount"`
}

type currencyRate struct {
	Last number `json:"last"`
}

type leverage struct {
	Enabled bool    `json:"enabled"`
	Type    string  `json:"type"`
	Value   float64 `json:"value"`
}

type units struct {
	Value float64 `json:"value"`
}

type position struct {
	Type      string `json:"type"`
	Units     units  `json:"units"`
	OrderType string `json:"order_type"`
}

type price struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type takeProfitStep struct {
	OrderType string  `json:"order_type"`
	Price     price   `json:"price"`
	Volume    float64 `json:"volume"`
}

type takeProfit struct {
	Enabled bool             `json:"enabled"`
	Steps   []takeProfitStep `json:"steps"`
}

type trailing struct {
	Enabled bool    `json:"enabled"`
	Percent float64 `json:"percent"`
}

type conditional struct {
	Price    price    `json:"price"`
	Trailing trailing `json:"trailing"`
}

type stopLoss struct {
	Enabled     bool        `json:"enabled"`
	OrderType   string      `json:"order_type"`
	Conditional conditional `json:"conditional"`
}

// smartTradeRequest is the body of POST smart_trades
type smartTradeRequest struct {
	AccountID  int64      `json:"account_id"`
	Instant    bool       `json:"instant"`
	Pair       string     `json:"pair"`
	Note       string     `json:"note,omitempty"`
	Leverage   leverage   `json:"leverage"`
	Position   position   `json:"position"`
	TakeProfit takeProfit `json:"take_profit"`
	StopLoss   stopLoss   `json:"stop_loss"`
}

type smartTradeStatus struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

type profit struct {
	Usd number `json:"usd"`
}

// smartTrade is the SmartTrade entity returned by the API
type smartTrade struct {
	ID     identifier       `json:"id"`
	Pair   string           `json:"pair"`
	Status smartTradeStatus `json:"status"`
	Profit profit           `json:"profit"`
}

var _ json.Unmarshaler = (*number)(nil)
