package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountForLevel(t *testing.T) {
	expected := []float64{100, 200, 400, 800, 1600, 3200, 6400}
	for i, amount := range expected {
		assert.Equal(t, amount, AmountForLevel(100, i+1), "level %d", i+1)
	}
	assert.Equal(t, 100.0, AmountForLevel(100, 0))
}

func TestSession_TotalPnl(t *testing.T) {
	session := NewSession("id", "USDT_BTC", 100, time.Now())
	session.PnlByLevel[1] = -2.5
	session.PnlByLevel[2] = -4
	session.PnlByLevel[3] = 12.25

	assert.InDelta(t, 5.75, session.TotalPnl(), 1e-9)
}

func TestSession_Validate(t *testing.T) {
	valid := NewSession("id", "USDT_BTC", 100, time.Now())
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"empty instrument", func(s *Session) { s.Instrument = "" }},
		{"level zero", func(s *Session) { s.Level = 0 }},
		{"level above max", func(s *Session) { s.Level = MaxLevel + 1; s.CurrentAmountQuote = AmountForLevel(100, MaxLevel+1) }},
		{"amount mismatch", func(s *Session) { s.Level = 3; s.CurrentAmountQuote = 300 }},
		{"half open", func(s *Session) { s.LongOrderRef = "1" }},
		{"non positive base", func(s *Session) { s.BaseAmountQuote = 0 }},
		{"negative counter", func(s *Session) { s.StopLossHits = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := valid
			tt.mutate(&session)
			err := session.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSession))
		})
	}
}

func TestSession_OpenRound(t *testing.T) {
	session := NewSession("id", "USDT_BTC", 100, time.Now())
	assert.False(t, session.HasOpenRound())

	session.LongOrderRef, session.ShortOrderRef = "10", "11"
	assert.True(t, session.HasOpenRound())

	cleared := session.WithoutRound()
	assert.False(t, cleared.HasOpenRound())
	assert.True(t, session.HasOpenRound())
}

func TestSmartTrade_Failed(t *testing.T) {
	trade := SmartTrade{StatusType: "failed", StatusTitle: "Failed"}
	assert.True(t, trade.Failed("failed"))
	assert.False(t, SmartTrade{StatusTitle: "Waiting targets"}.Failed("failed"))
	assert.False(t, trade.Failed(""))
}
