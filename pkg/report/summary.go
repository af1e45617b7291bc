// Package report summarizes the statistics ledger of resolved rounds
package report

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/metric"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the resolved rounds of one instrument
type Summary struct {
	Instrument string
	Pnl        []float64
	Levels     []int

	TakeProfits int // rounds resolved by a take profit
	StopLosses  int // rounds resolved by a stop loss

	// counters of the last record, cumulative over the session
	CycleTakeProfits int
	CycleResets      int
}

// Summarize groups records by instrument, sorted by name
func Summarize(records []core.StatisticsRecord) []Summary {
	groups := lo.GroupBy(records, func(r core.StatisticsRecord) string { return r.Instrument })

	instruments := lo.Keys(groups)
	sort.Strings(instruments)

	return lo.Map(instruments, func(instrument string, _ int) Summary {
		group := groups[instrument]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Timestamp.Before(group[j].Timestamp) })

		last := group[len(group)-1]
		return Summary{
			Instrument: instrument,
			Pnl:        lo.Map(group, func(r core.StatisticsRecord, _ int) float64 { return r.Pnl }),
			Levels:     lo.Map(group, func(r core.StatisticsRecord, _ int) int { return r.Level }),
			TakeProfits: lo.CountBy(group, func(r core.StatisticsRecord) bool {
				return r.Outcome == core.OutcomeTakeProfit
			}),
			StopLosses: lo.CountBy(group, func(r core.StatisticsRecord) bool {
				return r.Outcome == core.OutcomeStopLoss
			}),
			CycleTakeProfits: last.TakeProfitHits,
			CycleResets:      last.StopLossHits,
		}
	})
}

// Rounds is the number of resolved rounds
func (s Summary) Rounds() int {
	return len(s.Pnl)
}

// Profit is the sum of the round profits
func (s Summary) Profit() float64 {
	return lo.Sum(s.Pnl)
}

// MaxLevel is the deepest level reached
func (s Summary) MaxLevel() int {
	return lo.Max(s.Levels)
}

// SQN is the system quality number, sqrt(n) * mean / stddev
func (s Summary) SQN() float64 {
	if len(s.Pnl) < 2 {
		return 0
	}

	mean, stdDev := stat.MeanStdDev(s.Pnl, nil)
	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	return math.Sqrt(float64(len(s.Pnl))) * mean / stdDev
}

// Options tune Write
type Options struct {
	Resamples  int
	Confidence float64
	Bins       int
	Rand       *rand.Rand
}

// DefaultOptions are used by the report command
func DefaultOptions() Options {
	return Options{
		Resamples:  10000,
		Confidence: 0.95,
		Bins:       15,
		Rand:       rand.New(rand.NewSource(1)),
	}
}

// Write renders a table per instrument plus totals, the level distribution,
// a histogram of round profits and bootstrap intervals.
func Write(w io.Writer, summaries []Summary, options Options) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No rounds registered.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Pair", "Rounds", "TP", "SL", "% Win", "Max level", "Cycles TP", "Resets", "Payoff", "Pr Fact.", "SQN", "Max DD", "PnL"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	var all []float64
	for _, summary := range summaries {
		all = append(all, summary.Pnl...)
		table.Append([]string{
			summary.Instrument,
			strconv.Itoa(summary.Rounds()),
			strconv.Itoa(summary.TakeProfits),
			strconv.Itoa(summary.StopLosses),
			fmt.Sprintf("%.1f %%", metric.WinRate(summary.Pnl)*100),
			strconv.Itoa(summary.MaxLevel()),
			strconv.Itoa(summary.CycleTakeProfits),
			strconv.Itoa(summary.CycleResets),
			fmt.Sprintf("%.3f", metric.Payoff(summary.Pnl)),
			fmt.Sprintf("%.3f", metric.ProfitFactor(summary.Pnl)),
			fmt.Sprintf("%.1f", summary.SQN()),
			fmt.Sprintf("%.2f", metric.MaxDrawdown(summary.Pnl)),
			fmt.Sprintf("%.2f", summary.Profit()),
		})
	}

	table.SetFooter([]string{
		"TOTAL",
		strconv.Itoa(len(all)),
		strconv.Itoa(lo.SumBy(summaries, func(s Summary) int { return s.TakeProfits })),
		strconv.Itoa(lo.SumBy(summaries, func(s Summary) int { return s.StopLosses })),
		fmt.Sprintf("%.1f %%", metric.WinRate(all)*100),
		strconv.Itoa(lo.Max(lo.Map(summaries, func(s Summary, _ int) int { return s.MaxLevel() }))),
		strconv.Itoa(lo.SumBy(summaries, func(s Summary) int { return s.CycleTakeProfits })),
		strconv.Itoa(lo.SumBy(summaries, func(s Summary) int { return s.CycleResets })),
		fmt.Sprintf("%.3f", metric.Payoff(all)),
		fmt.Sprintf("%.3f", metric.ProfitFactor(all)),
		"",
		fmt.Sprintf("%.2f", metric.MaxDrawdown(all)),
		fmt.Sprintf("%.2f", lo.Sum(all)),
	})
	table.Render()

	if _, err := fmt.Fprintf(w, "\n------ LEVELS -------\n%s\n", levelDistribution(summaries)); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "------ ROUND PNL -------"); err != nil {
		return err
	}
	if err := histogram.Fprint(w, histogram.Hist(options.Bins, all), histogram.Linear(10)); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\n------ CONFIDENCE INTERVAL (%.0f%%) -------\n", options.Confidence*100); err != nil {
		return err
	}
	for _, summary := range summaries {
		mean := metric.Bootstrap(summary.Pnl, metric.Mean, options.Resamples, options.Confidence, options.Rand)
		payoff := metric.Bootstrap(summary.Pnl, metric.Payoff, options.Resamples, options.Confidence, options.Rand)
		factor := metric.Bootstrap(summary.Pnl, metric.ProfitFactor, options.Resamples, options.Confidence, options.Rand)

		_, err := fmt.Fprintf(w, "| %s |\nPNL/ROUND:   %.2f (%.2f ~ %.2f)\nPAYOFF:      %.2f (%.2f ~ %.2f)\nPROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
			summary.Instrument,
			mean.Mean, mean.Lower, mean.Upper,
			payoff.Mean, payoff.Lower, payoff.Upper,
			factor.Mean, factor.Lower, factor.Upper)
		if err != nil {
			return err
		}
	}

	return nil
}

// levelDistribution counts resolved rounds per level
func levelDistribution(summaries []Summary) string {
	counts := make([]int, core.MaxLevel+1)
	for _, summary := range summaries {
		for _, level := range summary.Levels {
			if level >= 1 && level <= core.MaxLevel {
				counts[level]++
			}
		}
	}

	parts := make([]string, 0, core.MaxLevel)
	for level := 1; level <= core.MaxLevel; level++ {
		parts = append(parts, fmt.Sprintf("L%d: %d", level, counts[level]))
	}

	return strings.Join(parts, "  ")
}
