package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"PeakWatch/internal/filter"
	"PeakWatch/internal/notifier"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		BaseURL           string        `yaml:"base_url"`
		Timeframe         string        `yaml:"timeframe"`
		Limit             int           `yaml:"limit"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		Timeout           time.Duration `yaml:"timeout"`
		MaxRetryElapsed   time.Duration `yaml:"max_retry_elapsed"`
	} `yaml:"exchange"`
	Filter filter.Config `yaml:"filter"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
		Workers   int    `yaml:"workers"`
		Color     string `yaml:"color"`
	} `yaml:"report"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error. Variables from a
// .env file in the working directory are loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Filter = filter.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PEAKWATCH_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("PEAKWATCH_QUOTE"); v != "" {
		c.Filter.Quote = v
	}
	if v := os.Getenv("PEAKWATCH_OUTPUT_DIR"); v != "" {
		c.Report.OutputDir = v
	}
	if v := os.Getenv("PEAKWATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PEAKWATCH_WORKERS: %w", err)
		}
		c.Report.Workers = n
	}
	if v := os.Getenv("PEAKWATCH_CRON"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("PEAKWATCH_RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PEAKWATCH_RUN_ON_START: %w", err)
		}
		c.Schedule.RunOnStart = b
	}
	if v := os.Getenv("PEAKWATCH_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Exchange.Timeframe == "" {
		c.Exchange.Timeframe = "1w"
	}
	if c.Exchange.Limit == 0 {
		c.Exchange.Limit = 1000
	}
	if c.Exchange.RequestsPerSecond == 0 {
		c.Exchange.RequestsPerSecond = 5
	}
	if c.Exchange.Burst == 0 {
		c.Exchange.Burst = 5
	}
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = 30 * time.Second
	}
	// A negative value disables retries.
	if c.Exchange.MaxRetryElapsed == 0 {
		c.Exchange.MaxRetryElapsed = 30 * time.Second
	}
	if c.Filter.Quote == "" {
		c.Filter.Quote = "USDT"
	}
	if c.Filter.PegMarker == "" {
		c.Filter.PegMarker = "USD"
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "data"
	}
	if c.Report.Workers == 0 {
		c.Report.Workers = 4
	}
	if c.Report.Color == "" {
		c.Report.Color = string(notifier.ColorAuto)
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 8 * * 1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Exchange.Timeframe == "" {
		return fmt.Errorf("exchange.timeframe is required")
	}
	if c.Exchange.Limit < 0 {
		return fmt.Errorf("exchange.limit must not be negative")
	}
	if c.Exchange.RequestsPerSecond <= 0 {
		return fmt.Errorf("exchange.requests_per_second must be positive")
	}
	if c.Filter.Quote == "" {
		return fmt.Errorf("filter.quote is required")
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("report.workers must be at least 1")
	}
	if _, err := notifier.ParseColorMode(c.Report.Color); err != nil {
		return fmt.Errorf("report.color: %w", err)
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be console or json")
	}
	return nil
}

// TelegramEnabled reports whether report digests should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
