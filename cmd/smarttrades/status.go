package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/smarttrades/pkg/config"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/raykavin/smarttrades/pkg/report"
	"github.com/spf13/cobra"
)

type sessionLister interface {
	Sessions() ([]core.Session, error)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	opened, err := openStores(cfg.Storage)
	if err != nil {
		return err
	}
	defer opened.Close()

	lister, ok := opened.sessions.(sessionLister)
	if !ok {
		return fmt.Errorf("storage backend %s cannot list sessions", cfg.Storage.Backend)
	}

	sessions, err := lister.Sessions()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		cmd.Println("No session started.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Pair", "Level", "Amount", "Long", "Short", "Rounds", "TP", "SL", "PnL", "Updated"})
	for _, session := range sessions {
		table.Append([]string{
			session.Instrument,
			strconv.Itoa(session.Level),
			fmt.Sprintf("%.2f", session.CurrentAmountQuote),
			session.LongOrderRef,
			session.ShortOrderRef,
			strconv.Itoa(session.RoundsExecuted),
			strconv.Itoa(session.TakeProfitHits),
			strconv.Itoa(session.StopLossHits),
			fmt.Sprintf("%.2f", session.RealizedPnl),
			session.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()

	return nil
}

func runReport(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	opened, err := openStores(cfg.Storage)
	if err != nil {
		return err
	}
	defer opened.Close()

	records, err := readStatistics(cfg.Storage, opened)
	if err != nil {
		return err
	}

	if instrument != "" {
		filtered := records[:0]
		for _, record := range records {
			if record.Instrument == instrument {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	return report.Write(os.Stdout, report.Summarize(records), report.DefaultOptions())
}
