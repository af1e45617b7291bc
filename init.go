package smarttrades

import (
	"os"
	"strconv"

	zlog "github.com/raykavin/smarttrades/pkg/logger/zerolog"
	"github.com/rs/zerolog"
)

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

// Environment variable names
const (
	envLogLevel      = "SMARTTRADES_LOG_LEVEL"
	envLogTimeFormat = "SMARTTRADES_LOG_TIME_FORMAT"
	envLogColor      = "SMARTTRADES_LOG_COLOR"
	envLogJSON       = "SMARTTRADES_LOG_JSON"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = zlog.NewAdapter(log)
}

// initLogger creates the default logger configured from environment variables
func initLogger() (*zerolog.Logger, error) {
	colored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	json, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	return zlog.New(zlog.Config{
		Level:          getEnvWithDefault(envLogLevel, defaultLogLevel),
		DateTimeLayout: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:        colored,
		JSON:           json,
	})
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}
