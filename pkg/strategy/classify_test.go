package strategy

import (
	"testing"

	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	vocabulary := testSettings().Statuses
	trade := func(status string) core.SmartTrade {
		return core.SmartTrade{StatusType: status}
	}

	tt := []struct {
		name     string
		long     string
		short    string
		expected core.Outcome
	}{
		{"both open", "waiting_targets", "waiting_targets", core.OutcomeOpen},
		{"long closed short open", "stop_loss_finished", "waiting_targets", core.OutcomeOpen},
		{"long take profit short open", "finished", "waiting_targets", core.OutcomeOpen},
		{"take profit and stop loss", "finished", "stop_loss_finished", core.OutcomeTakeProfit},
		{"stop loss and take profit", "stop_loss_finished", "take_profit_finished", core.OutcomeTakeProfit},
		{"both stop loss", "stop_loss_finished", "stop_loss_finished", core.OutcomeStopLoss},
		{"both take profit", "finished", "finished", core.OutcomeTakeProfit},
		{"case insensitive", "Stop_Loss_Finished", "STOP_LOSS_FINISHED", core.OutcomeStopLoss},
		{"unknown status", "panic_sold", "stop_loss_finished", core.OutcomeOpen},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(trade(tc.long), trade(tc.short), vocabulary))
		})
	}
}

func TestLegOutcome_CustomVocabulary(t *testing.T) {
	vocabulary := core.StatusVocabulary{
		TakeProfit: []string{"closed_tp"},
		StopLoss:   []string{"closed_sl"},
	}

	assert.Equal(t, core.OutcomeTakeProfit, LegOutcome(core.SmartTrade{StatusType: "closed_tp"}, vocabulary))
	assert.Equal(t, core.OutcomeStopLoss, LegOutcome(core.SmartTrade{StatusType: " closed_sl "}, vocabulary))
	assert.Equal(t, core.OutcomeOpen, LegOutcome(core.SmartTrade{StatusType: "finished"}, vocabulary))
}

func TestUnclassified(t *testing.T) {
	vocabulary := testSettings().Statuses
	vocabulary.Closed = []string{"cancelled", "panic_sold"}

	assert.True(t, Unclassified(core.SmartTrade{StatusType: "Panic_Sold"}, vocabulary))
	assert.True(t, Unclassified(core.SmartTrade{StatusType: "cancelled"}, vocabulary))
	assert.False(t, Unclassified(core.SmartTrade{StatusType: "waiting_targets"}, vocabulary))
	assert.False(t, Unclassified(core.SmartTrade{StatusType: "finished"}, vocabulary))

	vocabulary.TakeProfit = append(vocabulary.TakeProfit, "cancelled")
	assert.False(t, Unclassified(core.SmartTrade{StatusType: "cancelled"}, vocabulary))
}
