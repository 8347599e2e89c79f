package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spendcast/internal/forecast"
)

type Config struct {
	// HTTP Server
	Port   string
	AppEnv string

	LogLevel string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	// AMQP (empty URL disables messaging)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID     string
	GoogleObservationsSheet string
	GooglePredictionsSheet  string

	// Forecasting
	HoltWintersAlpha    float64
	HoltWintersBeta     float64
	MovingAverageWindow int
	WeightedWindow      int
	MinSamples          forecast.MinSamples
	MinHistoryMonths    int
	ForecastParallel    bool
	ForecastWorkers     int

	// HTTP protection and caching
	RateLimitRPM int
	CacheSize    int
	CacheTTL     time.Duration

	// Worker
	RefreshInterval time.Duration
}

func Load() *Config {
	defaults := forecast.DefaultSettings()

	return &Config{
		Port:     getEnv("PORT", "8081"),
		AppEnv:   getEnv("APP_ENV", "prod"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/forecast.db"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "forecast"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "forecast_requests"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleObservationsSheet: getEnv("GOOGLE_OBSERVATIONS_SHEET", "Transactions"),
		GooglePredictionsSheet:  getEnv("GOOGLE_PREDICTIONS_SHEET", "Predictions"),

		HoltWintersAlpha:    getEnvFloat("FORECAST_HW_ALPHA", defaults.HoltWintersAlpha),
		HoltWintersBeta:     getEnvFloat("FORECAST_HW_BETA", defaults.HoltWintersBeta),
		MovingAverageWindow: getEnvInt("FORECAST_MA_WINDOW", defaults.MovingAverageWindow),
		WeightedWindow:      getEnvInt("FORECAST_WMA_WINDOW", defaults.WeightedWindow),
		MinSamples: forecast.MinSamples{
			MovingAverage: getEnvInt("FORECAST_MIN_MA", defaults.MinSamples.MovingAverage),
			Weighted:      getEnvInt("FORECAST_MIN_WMA", defaults.MinSamples.Weighted),
			HoltWinters:   getEnvInt("FORECAST_MIN_HW", defaults.MinSamples.HoltWinters),
			LeastSquares:  getEnvInt("FORECAST_MIN_OLS", defaults.MinSamples.LeastSquares),
			Drift:         getEnvInt("FORECAST_MIN_DRIFT", defaults.MinSamples.Drift),
			Seasonal:      getEnvInt("FORECAST_MIN_SEASONAL", defaults.MinSamples.Seasonal),
		},
		MinHistoryMonths: getEnvInt("FORECAST_MIN_HISTORY_MONTHS", 1),
		ForecastParallel: getEnvBool("FORECAST_PARALLEL", true),
		ForecastWorkers:  getEnvInt("FORECAST_WORKERS", 6),

		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 60),
		CacheSize:    getEnvInt("CACHE_SIZE", 100),
		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 24*time.Hour),
	}
}

// IsDev reports whether internal error messages may be shown to clients.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, "dev")
}

// ForecastSettings returns the strategy registry settings.
func (c *Config) ForecastSettings() forecast.Settings {
	return forecast.Settings{
		HoltWintersAlpha:    c.HoltWintersAlpha,
		HoltWintersBeta:     c.HoltWintersBeta,
		MovingAverageWindow: c.MovingAverageWindow,
		WeightedWindow:      c.WeightedWindow,
		MinSamples:          c.MinSamples,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleObservationsSheet == "" || c.GooglePredictionsSheet == "" {
			errors = append(errors, "Google observations and predictions sheet names are required when using sheets backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	for name, v := range map[string]float64{"FORECAST_HW_ALPHA": c.HoltWintersAlpha, "FORECAST_HW_BETA": c.HoltWintersBeta} {
		if math.IsNaN(v) || v <= 0 || v > 1 {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be in (0, 1]", name, v))
		}
	}
	if c.MovingAverageWindow < 1 {
		errors = append(errors, fmt.Sprintf("invalid moving average window %d: must be at least 1", c.MovingAverageWindow))
	}
	if c.WeightedWindow < 1 {
		errors = append(errors, fmt.Sprintf("invalid weighted window %d: must be at least 1", c.WeightedWindow))
	}
	errors = append(errors, validateMinSamples(c.MinSamples)...)
	if c.MinHistoryMonths < 0 {
		errors = append(errors, fmt.Sprintf("invalid minimum history %d: must not be negative", c.MinHistoryMonths))
	}
	if c.ForecastParallel && c.ForecastWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid forecast workers %d: must be at least 1", c.ForecastWorkers))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	if c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 minute", c.RefreshInterval))
	} else if c.RefreshInterval > 31*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 31 days", c.RefreshInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// validateMinSamples enforces the per-strategy floors: strategies that need a
// trend need two points, the rest one.
func validateMinSamples(m forecast.MinSamples) []string {
	checks := []struct {
		name  string
		value int
		floor int
	}{
		{"FORECAST_MIN_MA", m.MovingAverage, 1},
		{"FORECAST_MIN_WMA", m.Weighted, 1},
		{"FORECAST_MIN_HW", m.HoltWinters, 2},
		{"FORECAST_MIN_OLS", m.LeastSquares, 2},
		{"FORECAST_MIN_DRIFT", m.Drift, 2},
		{"FORECAST_MIN_SEASONAL", m.Seasonal, 1},
	}
	var errs []string
	for _, c := range checks {
		if c.value < c.floor {
			errs = append(errs, fmt.Sprintf("invalid %s %d: must be at least %d", c.name, c.value, c.floor))
		}
	}
	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
