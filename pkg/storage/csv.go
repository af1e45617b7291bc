package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/raykavin/smarttrades/pkg/core"
)

const timestampLayout = "2006-01-02 15:04:05"

var statisticsHeader = []string{"TimeStamp", "Pair", "Trade count", "Level", "TP count", "TSL count", "Outcome", "PnL"}

// CSVStatisticsLog appends statistics records to a CSV file. The file is never
// truncated, the header is written only when the file is created.
type CSVStatisticsLog struct {
	mu   sync.Mutex
	path string
}

// NewCSVStatisticsLog creates the log, the file itself is created on the first append
func NewCSVStatisticsLog(path string) *CSVStatisticsLog {
	return &CSVStatisticsLog{path: path}
}

// Path returns the file backing the log
func (l *CSVStatisticsLog) Path() string {
	return l.path
}

// Append writes one record and syncs the file
func (l *CSVStatisticsLog) Append(record core.StatisticsRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create statistics directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat statistics file: %w", err)
	}

	writer := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := writer.Write(statisticsHeader); err != nil {
			return fmt.Errorf("failed to write statistics header: %w", err)
		}
	}

	if err := writer.Write(encodeRecord(record)); err != nil {
		return fmt.Errorf("failed to write statistics record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush statistics record: %w", err)
	}

	return file.Sync()
}

func encodeRecord(record core.StatisticsRecord) []string {
	return []string{
		record.Timestamp.Format(timestampLayout),
		record.Instrument,
		strconv.Itoa(record.RoundsExecuted),
		strconv.Itoa(record.Level),
		strconv.Itoa(record.TakeProfitHits),
		strconv.Itoa(record.StopLossHits),
		string(record.Outcome),
		strconv.FormatFloat(record.Pnl, 'f', -1, 64),
	}
}

// ReadStatistics loads every record of a statistics CSV file. Rows written
// before the Outcome and PnL columns existed are accepted.
func ReadStatistics(path string) ([]core.StatisticsRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statistics file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics header: %w", err)
	}

	if len(header) < 6 {
		return nil, fmt.Errorf("unexpected statistics header %v", header)
	}

	records := make([]core.StatisticsRecord, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read statistics line %d: %w", line, err)
		}

		record, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("statistics line %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func decodeRecord(row []string) (core.StatisticsRecord, error) {
	if len(row) < 6 {
		return core.StatisticsRecord{}, fmt.Errorf("expected at least 6 columns, got %d", len(row))
	}

	timestamp, err := time.ParseInLocation(timestampLayout, row[0], time.Local)
	if err != nil {
		return core.StatisticsRecord{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	ints := make([]int, 4)
	for i := range ints {
		ints[i], err = strconv.Atoi(row[i+2])
		if err != nil {
			return core.StatisticsRecord{}, fmt.Errorf("invalid %s: %w", statisticsHeader[i+2], err)
		}
	}

	record := core.StatisticsRecord{
		Timestamp:      timestamp,
		Instrument:     row[1],
		RoundsExecuted: ints[0],
		Level:          ints[1],
		TakeProfitHits: ints[2],
		StopLossHits:   ints[3],
	}

	if len(row) > 6 {
		record.Outcome = core.Outcome(row[6])
	}

	if len(row) > 7 && row[7] != "" {
		record.Pnl, err = strconv.ParseFloat(row[7], 64)
		if err != nil {
			return core.StatisticsRecord{}, fmt.Errorf("invalid PnL: %w", err)
		}
	}

	return record, nil
}
