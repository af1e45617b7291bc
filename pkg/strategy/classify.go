package strategy

import (
	"slices"
	"strings"

	"github.com/raykavin/smarttrades/pkg/core"
)

// LegOutcome classifies a single SmartTrade from its status type
func LegOutcome(trade core.SmartTrade, vocabulary core.StatusVocabulary) core.Outcome {
	status := strings.ToLower(strings.TrimSpace(trade.StatusType))
	match := func(candidate string) bool {
		return strings.EqualFold(candidate, status)
	}

	switch {
	case slices.ContainsFunc(vocabulary.TakeProfit, match):
		return core.OutcomeTakeProfit
	case slices.ContainsFunc(vocabulary.StopLoss, match):
		return core.OutcomeStopLoss
	default:
		return core.OutcomeOpen
	}
}

// Unclassified reports whether a leg reached a terminal status that maps to
// neither outcome, such a round never resolves on its own
func Unclassified(trade core.SmartTrade, vocabulary core.StatusVocabulary) bool {
	if LegOutcome(trade, vocabulary) != core.OutcomeOpen {
		return false
	}

	status := strings.TrimSpace(trade.StatusType)
	return slices.ContainsFunc(vocabulary.Closed, func(candidate string) bool {
		return strings.EqualFold(candidate, status)
	})
}

// Classify resolves a round once both legs are closed. A round where any leg
// closed on take-profit is a take-profit, a round where both legs stopped out
// is a stop-loss and anything else is still open.
func Classify(long, short core.SmartTrade, vocabulary core.StatusVocabulary) core.Outcome {
	longOutcome := LegOutcome(long, vocabulary)
	shortOutcome := LegOutcome(short, vocabulary)

	if longOutcome == core.OutcomeOpen || shortOutcome == core.OutcomeOpen {
		return core.OutcomeOpen
	}

	if longOutcome == core.OutcomeTakeProfit || shortOutcome == core.OutcomeTakeProfit {
		return core.OutcomeTakeProfit
	}

	return core.OutcomeStopLoss
}
