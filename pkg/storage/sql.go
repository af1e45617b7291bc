package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRow is the checkpoint table layout, one row per instrument
type sessionRow struct {
	Instrument         string `gorm:"primaryKey"`
	SessionID          string
	Level              int
	BaseAmountQuote    float64
	CurrentAmountQuote float64
	LongOrderRef       string
	ShortOrderRef      string
	Pnl                float64
	PnlByLevel         []float64 `gorm:"serializer:json"`
	RealizedPnl        float64
	RoundsExecuted     int
	TakeProfitHits     int
	StopLossHits       int
	StartTime          time.Time
	CheckpointAt       time.Time
}

func (sessionRow) TableName() string {
	return "sessions"
}

// statisticsRow is one line of the insert-only statistics ledger
type statisticsRow struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	Timestamp      time.Time
	Instrument     string `gorm:"index"`
	RoundsExecuted int
	Level          int
	TakeProfitHits int
	StopLossHits   int
	Outcome        string
	Pnl            float64
}

func (statisticsRow) TableName() string {
	return "statistics_records"
}

func toSessionRow(session core.Session) sessionRow {
	return sessionRow{
		Instrument:         session.Instrument,
		SessionID:          session.SessionID,
		Level:              session.Level,
		BaseAmountQuote:    session.BaseAmountQuote,
		CurrentAmountQuote: session.CurrentAmountQuote,
		LongOrderRef:       session.LongOrderRef,
		ShortOrderRef:      session.ShortOrderRef,
		Pnl:                session.TotalPnl(),
		PnlByLevel:         session.PnlByLevel[:],
		RealizedPnl:        session.RealizedPnl,
		RoundsExecuted:     session.RoundsExecuted,
		TakeProfitHits:     session.TakeProfitHits,
		StopLossHits:       session.StopLossHits,
		StartTime:          session.StartTime,
		CheckpointAt:       session.UpdatedAt,
	}
}

func (r sessionRow) session() core.Session {
	session := core.Session{
		SessionID:          r.SessionID,
		Instrument:         r.Instrument,
		Level:              r.Level,
		BaseAmountQuote:    r.BaseAmountQuote,
		CurrentAmountQuote: r.CurrentAmountQuote,
		LongOrderRef:       r.LongOrderRef,
		ShortOrderRef:      r.ShortOrderRef,
		RealizedPnl:        r.RealizedPnl,
		RoundsExecuted:     r.RoundsExecuted,
		TakeProfitHits:     r.TakeProfitHits,
		StopLossHits:       r.StopLossHits,
		StartTime:          r.StartTime,
		UpdatedAt:          r.CheckpointAt,
	}
	copy(session.PnlByLevel[:], r.PnlByLevel)
	return session
}

// SQLStore keeps checkpoints and statistics in a SQL database via GORM
type SQLStore struct {
	db *gorm.DB
}

// FromSQLite opens a pure Go SQLite database. A single connection is kept so
// in-memory databases survive between calls.
func FromSQLite(path string, opts ...gorm.Option) (*SQLStore, error) {
	return newSQLStore(sqlite.Open(path), func(sqlDB *sql.DB) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}, opts...)
}

// FromSQL creates a new SQL store with any GORM dialect
func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (*SQLStore, error) {
	return newSQLStore(dialect, func(sqlDB *sql.DB) {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}, opts...)
}

func newSQLStore(dialect gorm.Dialector, pool func(*sql.DB), opts ...gorm.Option) (*SQLStore, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	pool(sqlDB)

	if err := db.AutoMigrate(&sessionRow{}, &statisticsRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Load returns the checkpoint of an instrument
func (s *SQLStore) Load(instrument string) (core.Session, error) {
	var row sessionRow

	result := s.db.First(&row, "instrument = ?", instrument)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return core.Session{}, core.ErrSessionNotFound
	}
	if result.Error != nil {
		return core.Session{}, fmt.Errorf("failed to read session: %w", result.Error)
	}

	return row.session(), nil
}

// Save upserts the whole checkpoint row of the session instrument
func (s *SQLStore) Save(session core.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	row := toSessionRow(session)
	result := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to store session: %w", result.Error)
	}

	return nil
}

// Delete removes the checkpoint of an instrument
func (s *SQLStore) Delete(instrument string) error {
	result := s.db.Delete(&sessionRow{}, "instrument = ?", instrument)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// Sessions lists every checkpoint ordered by last update
func (s *SQLStore) Sessions() ([]core.Session, error) {
	var rows []sessionRow

	result := s.db.Order("checkpoint_at").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", result.Error)
	}

	return lo.Map(rows, func(row sessionRow, _ int) core.Session {
		return row.session()
	}), nil
}

// Append inserts a statistics record
func (s *SQLStore) Append(record core.StatisticsRecord) error {
	row := statisticsRow{
		Timestamp:      record.Timestamp,
		Instrument:     record.Instrument,
		RoundsExecuted: record.RoundsExecuted,
		Level:          record.Level,
		TakeProfitHits: record.TakeProfitHits,
		StopLossHits:   record.StopLossHits,
		Outcome:        string(record.Outcome),
		Pnl:            record.Pnl,
	}

	if result := s.db.Create(&row); result.Error != nil {
		return fmt.Errorf("failed to append statistics: %w", result.Error)
	}

	return nil
}

// Records returns the statistics of an instrument in insertion order, every
// instrument when empty
func (s *SQLStore) Records(instrument string) ([]core.StatisticsRecord, error) {
	var rows []statisticsRow

	query := s.db.Order("id")
	if instrument != "" {
		query = query.Where("instrument = ?", instrument)
	}

	if result := query.Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("failed to fetch statistics: %w", result.Error)
	}

	return lo.Map(rows, func(row statisticsRow, _ int) core.StatisticsRecord {
		return core.StatisticsRecord{
			Timestamp:      row.Timestamp,
			Instrument:     row.Instrument,
			RoundsExecuted: row.RoundsExecuted,
			Level:          row.Level,
			TakeProfitHits: row.TakeProfitHits,
			StopLossHits:   row.StopLossHits,
			Outcome:        core.Outcome(row.Outcome),
			Pnl:            row.Pnl,
		}
	}), nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
