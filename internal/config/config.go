// Package config loads service settings from the environment (optionally a
// .env file) and the capital allocation table from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ddtips/dashboard/internal/analytics"
	"github.com/ddtips/dashboard/internal/picks"
)

type Config struct {
	Port        string
	DatabaseURL string // PostgreSQL; takes precedence over SQLitePath
	SQLitePath  string
	RedisURL    string
	CacheTTL    time.Duration

	TelegramToken  string
	TelegramChatID int64

	Timezone    string // default Europe/Ljubljana
	AdminEmails []string

	CapitalFile      string
	Capital          analytics.Capital
	ExposureFraction decimal.Decimal // 0 disables the limiter

	QuoteURL    string
	CORSOrigins []string

	DailyCron   string
	WeeklyCron  string
	MonthlyCron string

	// Value bot; an empty ValueBotCron disables the scheduled run.
	ValueBotCron    string
	ValueBotDays    int
	ValueBotMinEdge float64
	ValueBotLimit   int

	LogLevel slog.Level
}

// Location resolves Timezone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramEnabled reports whether report delivery has a destination.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// ValueBot returns the value bot selection settings.
func (c *Config) ValueBot() picks.BotParams {
	return picks.BotParams{Days: c.ValueBotDays, MinEdgePct: c.ValueBotMinEdge, Limit: c.ValueBotLimit}
}

// Load reads .env (when present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnvDefault("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		RedisURL:      os.Getenv("REDIS_URL"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Timezone:      getEnvDefault("TIMEZONE", "Europe/Ljubljana"),
		AdminEmails:   getEnvList("ADMIN_EMAILS"),
		CapitalFile:   os.Getenv("CAPITAL_FILE"),
		QuoteURL:      os.Getenv("QUOTE_URL"),
		CORSOrigins:   getEnvList("CORS_ORIGINS"),
		DailyCron:     getEnvDefault("REPORT_DAILY_CRON", "0 8 * * *"),
		WeeklyCron:    getEnvDefault("REPORT_WEEKLY_CRON", "0 9 * * 1"),
		MonthlyCron:   getEnvDefault("REPORT_MONTHLY_CRON", "0 10 1 * *"),
		ValueBotCron:  os.Getenv("VALUEBOT_CRON"),
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	var err error
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TelegramChatID, err = getEnvInt64("TELEGRAM_CHAT_ID", 0); err != nil {
		return nil, err
	}
	if cfg.ExposureFraction, err = getEnvDecimal("EXPOSURE_FRACTION", decimal.Zero); err != nil {
		return nil, err
	}
	if cfg.ValueBotDays, err = getEnvInt("BOT_LOOKAHEAD_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.ValueBotMinEdge, err = getEnvFloat("BOT_MIN_EDGE_PCT", 10); err != nil {
		return nil, err
	}
	if cfg.ValueBotLimit, err = getEnvInt("BOT_MAX_PICKS", 8); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg.Capital = analytics.DefaultCapital()
	if cfg.CapitalFile != "" {
		if cfg.Capital, err = LoadCapital(cfg.CapitalFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.ExposureFraction.IsNegative() || c.ExposureFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("EXPOSURE_FRACTION must be within [0, 1], got %s", c.ExposureFraction)
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	for name, spec := range map[string]string{
		"REPORT_DAILY_CRON":   c.DailyCron,
		"REPORT_WEEKLY_CRON":  c.WeeklyCron,
		"REPORT_MONTHLY_CRON": c.MonthlyCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s %q: %w", name, spec, err)
		}
	}
	if c.ValueBotCron != "" {
		if _, err := cron.ParseStandard(c.ValueBotCron); err != nil {
			return fmt.Errorf("VALUEBOT_CRON %q: %w", c.ValueBotCron, err)
		}
	}
	if c.ValueBotDays < 0 || c.ValueBotDays > 30 {
		return fmt.Errorf("BOT_LOOKAHEAD_DAYS must be within [0, 30], got %d", c.ValueBotDays)
	}
	if c.ValueBotMinEdge < 0 {
		return fmt.Errorf("BOT_MIN_EDGE_PCT must not be negative, got %v", c.ValueBotMinEdge)
	}
	if c.ValueBotLimit < 1 {
		return fmt.Errorf("BOT_MAX_PICKS must be positive, got %d", c.ValueBotLimit)
	}
	if len(c.Capital) == 0 {
		return fmt.Errorf("capital table is empty")
	}
	return nil
}

// capitalFile is the YAML layout of CAPITAL_FILE:
//
//	books:
//	  - name: PINNACLE
//	    start: 2000
type capitalFile struct {
	Books []struct {
		Name  string `yaml:"name"`
		Start string `yaml:"start"`
	} `yaml:"books"`
}

// LoadCapital reads a capital allocation table from a YAML file.
func LoadCapital(path string) (analytics.Capital, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capital file: %w", err)
	}

	var f capitalFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse capital file: %w", err)
	}

	capital := make(analytics.Capital, 0, len(f.Books))
	seen := make(map[string]bool)
	for i, b := range f.Books {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, fmt.Errorf("capital file: book %d has no name", i+1)
		}
		key := analytics.NormalizeBook(name)
		if seen[key] {
			return nil, fmt.Errorf("capital file: duplicate book %q", name)
		}
		seen[key] = true

		start, err := decimal.NewFromString(strings.TrimSpace(b.Start))
		if err != nil {
			return nil, fmt.Errorf("capital file: book %q start: %w", name, err)
		}
		if start.IsNegative() {
			return nil, fmt.Errorf("capital file: book %q has negative start", name)
		}
		capital = append(capital, analytics.Allocation{Book: name, Start: start})
	}
	return capital, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvInt(key string, def int) (int, error) {
	n, err := getEnvInt64(key, int64(def))
	return int(n), err
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
