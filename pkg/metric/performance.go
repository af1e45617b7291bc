package metric

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// noLossRatio is reported by Payoff and ProfitFactor when no round lost money
const noLossRatio = 10

// Mean is the average round profit, zero without rounds
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// WinRate is the share of rounds that did not lose money
func WinRate(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return float64(lo.CountBy(values, func(v float64) bool { return v >= 0 })) / float64(len(values))
}

// Payoff is the average win over the average loss
func Payoff(values []float64) float64 {
	wins, losses := partition(values)
	if len(losses) == 0 {
		return noLossRatio
	}

	avgLoss := stat.Mean(losses, nil)
	if avgLoss == 0 {
		return noLossRatio
	}

	return math.Abs(Mean(wins) / avgLoss)
}

// ProfitFactor is gross profit over gross loss
func ProfitFactor(values []float64) float64 {
	wins, losses := partition(values)
	if lo.Sum(losses) == 0 {
		return noLossRatio
	}

	return math.Abs(lo.Sum(wins) / lo.Sum(losses))
}

// MaxDrawdown is the largest drop of the cumulative profit curve from a previous peak
func MaxDrawdown(values []float64) float64 {
	var equity, peak, drawdown float64
	for _, value := range values {
		equity += value
		peak = math.Max(peak, equity)
		drawdown = math.Max(drawdown, peak-equity)
	}
	return drawdown
}

func partition(values []float64) (wins, losses []float64) {
	wins = lo.Filter(values, func(v float64, _ int) bool { return v >= 0 })
	losses = lo.Filter(values, func(v float64, _ int) bool { return v < 0 })
	return wins, losses
}
