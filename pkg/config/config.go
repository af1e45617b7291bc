// Package config loads the bot settings file using Viper
package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/joho/godotenv"
	"github.com/raykavin/smarttrades/pkg/core"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

// Constants for configuration
const (
	DefaultConfigPath     = "./3CommasRes/Settings.json"
	DefaultPairsPath      = "./3CommasRes/Pairs.csv"
	DefaultStoragePath    = "./3CommasRes/SmartTradesStates.db"
	DefaultStatsPath      = "./3CommasRes/SmartTradesStats.csv"
	DefaultThreeCommasURL = "https://api.3commas.io"

	envPrefix   = "SMARTTRADES"
	placeholder = "Please set"
)

// Storage backends
const (
	BackendBunt = "buntdb"
	BackendSQL  = "sql"
	BackendCSV  = "csv"
)

// Price sources
const (
	PriceSourceThreeCommas = "3commas"
	PriceSourceBinance     = "binance"
)

// Config is the validated application configuration
type Config struct {
	API         APIConfig
	Strategy    core.Settings
	Storage     StorageConfig
	Log         LogConfig
	PriceSource string
	DryRun      bool
	MetricsAddr string
	Path        string
}

// APIConfig holds the 3Commas credentials
type APIConfig struct {
	Name              string
	Key               string
	Secret            string
	BaseURL           string
	RequestsPerSecond float64
}

// StorageConfig selects the checkpoint and statistics backends
type StorageConfig struct {
	Backend      string
	Path         string
	StatsBackend string
	StatsPath    string
}

// LogConfig configures the root logger
type LogConfig struct {
	Level   string
	Backend string
	File    string
}

// fileSettings mirrors the "Settings" object of the settings file
type fileSettings struct {
	APIName           string   `mapstructure:"APIName"`
	APIKey            string   `mapstructure:"APIKey"`
	APISecret         string   `mapstructure:"APISecret"`
	APIBaseURL        string   `mapstructure:"APIBaseURL"`
	RequestsPerSecond float64  `mapstructure:"RequestsPerSecond"`
	BotToken          string   `mapstructure:"BotToken"`
	ChatID            int64    `mapstructure:"ChatID"`
	MailServer        string   `mapstructure:"MailServer"`
	MailPort          int      `mapstructure:"MailPort"`
	MailFrom          string   `mapstructure:"MailFrom"`
	MailTo            string   `mapstructure:"MailTo"`
	MailPassword      string   `mapstructure:"MailPassword"`
	AccountIDLong     int64    `mapstructure:"AccountIDLong"`
	AccountIDShort    int64    `mapstructure:"AccountIDShort"`
	OrderType         string   `mapstructure:"OrderType"`
	MarketCode        string   `mapstructure:"MarketCode"`
	AmountUSDT        float64  `mapstructure:"AmountUSDT"`
	TakeProfit1       float64  `mapstructure:"TakeProfit1"`
	TakeProfit2       float64  `mapstructure:"TakeProfit2"`
	TrailingStopLoss  float64  `mapstructure:"TrailingStopLoss"`
	Leverage          float64  `mapstructure:"Leverage"`
	CheckInterval     int      `mapstructure:"CheckInterval"`
	HeartbeatPeriod   string   `mapstructure:"HeartbeatPeriod"`
	Instruments       []string `mapstructure:"Instruments"`
	InstrumentsFile   string   `mapstructure:"InstrumentsFile"`
	MultiInstrument   bool     `mapstructure:"MultiInstrument"`
	PriceSource       string   `mapstructure:"PriceSource"`
	DryRun            bool     `mapstructure:"DryRun"`

	TakeProfitStatuses []string `mapstructure:"TakeProfitStatuses"`
	StopLossStatuses   []string `mapstructure:"StopLossStatuses"`
	FailedMarker       string   `mapstructure:"FailedMarker"`
	ClosedStatuses     []string `mapstructure:"ClosedStatuses"`

	StorageBackend string `mapstructure:"StorageBackend"`
	StoragePath    string `mapstructure:"StoragePath"`
	StatsBackend   string `mapstructure:"StatsBackend"`
	StatsPath      string `mapstructure:"StatsPath"`

	MetricsAddr string `mapstructure:"MetricsAddr"`
	LogLevel    string `mapstructure:"LogLevel"`
	LogBackend  string `mapstructure:"LogBackend"`
	LogFile     string `mapstructure:"LogFile"`
}

type fileLayout struct {
	Settings fileSettings `mapstructure:"Settings"`
}

func defaults() map[string]any {
	return map[string]any{
		"APIName":            placeholder + " your API Name",
		"APIKey":             placeholder + " your API Key",
		"APISecret":          placeholder + " your API Secret",
		"APIBaseURL":         DefaultThreeCommasURL,
		"RequestsPerSecond":  5.0,
		"BotToken":           "",
		"ChatID":             0,
		"MailServer":         "",
		"MailPort":           465,
		"MailFrom":           "",
		"MailTo":             "",
		"MailPassword":       "",
		"AccountIDLong":      0,
		"AccountIDShort":     0,
		"OrderType":          "market",
		"MarketCode":         "binance",
		"AmountUSDT":         10.0,
		"TakeProfit1":        1.0,
		"TakeProfit2":        2.0,
		"TrailingStopLoss":   1.0,
		"Leverage":           1.0,
		"CheckInterval":      30,
		"HeartbeatPeriod":    "1d",
		"Instruments":        []string{},
		"InstrumentsFile":    DefaultPairsPath,
		"MultiInstrument":    false,
		"PriceSource":        PriceSourceThreeCommas,
		"DryRun":             false,
		"TakeProfitStatuses": []string{"finished", "take_profit_finished"},
		"StopLossStatuses":   []string{"stop_loss_finished"},
		"FailedMarker":       "failed",
		"ClosedStatuses":     []string{"cancelled", "closed", "panic_sold", "failed"},
		"StorageBackend":     BackendBunt,
		"StoragePath":        DefaultStoragePath,
		"StatsBackend":       BackendCSV,
		"StatsPath":          DefaultStatsPath,
		"MetricsAddr":        "",
		"LogLevel":           "info",
		"LogBackend":         "zerolog",
		"LogFile":            "",
	}
}

// Load reads the settings file (creating a default one when missing), applies
// SMARTTRADES_* environment overrides and validates the result
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: default settings created at %s, fill in your credentials", core.ErrConfiguration, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults() {
		v.SetDefault("Settings."+key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrConfiguration, path, err)
	}

	var layout fileLayout
	if err := v.Unmarshal(&layout); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", core.ErrConfiguration, path, err)
	}

	cfg, err := build(layout.Settings)
	if err != nil {
		return nil, err
	}
	cfg.Path = path

	return cfg, nil
}

// WriteDefault creates a settings file filled with placeholders
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	v := viper.New()
	v.Set("Settings", defaults())
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write default settings: %w", err)
	}

	return nil
}

func build(s fileSettings) (*Config, error) {
	heartbeat, err := str2duration.ParseDuration(s.HeartbeatPeriod)
	if err != nil {
		return nil, fmt.Errorf("%w: HeartbeatPeriod %q: %v", core.ErrConfiguration, s.HeartbeatPeriod, err)
	}

	instruments, err := resolveInstruments(s.Instruments, s.InstrumentsFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			Name:              s.APIName,
			Key:               s.APIKey,
			Secret:            s.APISecret,
			BaseURL:           s.APIBaseURL,
			RequestsPerSecond: s.RequestsPerSecond,
		},
		Strategy: core.Settings{
			AccountIDLong:    s.AccountIDLong,
			AccountIDShort:   s.AccountIDShort,
			OrderType:        strings.ToLower(s.OrderType),
			MarketCode:       s.MarketCode,
			AmountUSDT:       s.AmountUSDT,
			TakeProfit1:      s.TakeProfit1,
			TakeProfit2:      s.TakeProfit2,
			TrailingStopLoss: s.TrailingStopLoss,
			Leverage:         s.Leverage,
			CheckInterval:    time.Duration(s.CheckInterval) * time.Second,
			HeartbeatPeriod:  heartbeat,
			Instruments:      instruments,
			MultiInstrument:  s.MultiInstrument,
			Statuses: core.StatusVocabulary{
				TakeProfit:   s.TakeProfitStatuses,
				StopLoss:     s.StopLossStatuses,
				FailedMarker: s.FailedMarker,
				Closed:       s.ClosedStatuses,
			},
			Telegram: core.TelegramSettings{
				Enabled: s.BotToken != "",
				Token:   s.BotToken,
				ChatID:  s.ChatID,
			},
			Mail: core.MailSettings{
				Enabled:  s.MailServer != "",
				Server:   s.MailServer,
				Port:     s.MailPort,
				From:     s.MailFrom,
				To:       s.MailTo,
				Password: s.MailPassword,
			},
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(s.StorageBackend),
			Path:         s.StoragePath,
			StatsBackend: strings.ToLower(s.StatsBackend),
			StatsPath:    s.StatsPath,
		},
		Log: LogConfig{
			Level:   strings.ToLower(s.LogLevel),
			Backend: strings.ToLower(s.LogBackend),
			File:    s.LogFile,
		},
		PriceSource: strings.ToLower(s.PriceSource),
		DryRun:      s.DryRun,
		MetricsAddr: s.MetricsAddr,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveInstruments merges the configured list with the pairs file, keeping the first-seen order
func resolveInstruments(listed []string, file string) ([]string, error) {
	unique := set.NewLinkedHashSetString()
	for _, instrument := range listed {
		if instrument = strings.TrimSpace(instrument); instrument != "" {
			unique.Add(instrument)
		}
	}

	if file != "" {
		fromFile, err := ReadInstruments(file)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			for _, instrument := range fromFile {
				unique.Add(instrument)
			}
		}
	}

	instruments := make([]string, 0)
	for instrument := range unique.Iter() {
		instruments = append(instruments, instrument)
	}

	return instruments, nil
}

// ReadInstruments reads the "Pair" column of a pairs CSV file
func ReadInstruments(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read pairs header: %v", core.ErrConfiguration, err)
	}

	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "pair") {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, fmt.Errorf("%w: %s has no Pair column", core.ErrConfiguration, path)
	}

	var pairs []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read pairs: %v", core.ErrConfiguration, err)
		}

		if column < len(record) {
			if pair := strings.TrimSpace(record[column]); pair != "" {
				pairs = append(pairs, pair)
			}
		}
	}

	return pairs, nil
}
