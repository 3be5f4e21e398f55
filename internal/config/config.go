// Package config loads and validates process configuration for the
// ingestor, per spec.md §6 and SPEC_FULL.md §5.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds all process configuration, loaded from environment
// variables. Fields are immutable once Load returns.
type Config struct {
	// Source (C3)
	RedditClientID     string        `env:"REDDIT_CLIENT_ID" validate:"required"`
	RedditClientSecret string        `env:"REDDIT_CLIENT_SECRET" validate:"required"`
	RedditUserAgent    string        `env:"REDDIT_USER_AGENT" envDefault:"finbert-ci/0.1"`
	Subreddits         []string      `env:"SUBREDDITS" envDefault:"CryptoCurrency,Bitcoin,ethereum" envSeparator:","`
	FetchLimit         int           `env:"FETCH_LIMIT" envDefault:"100"`
	SourceMinInterval  time.Duration `env:"SOURCE_MIN_REQUEST_INTERVAL" envDefault:"1s"`
	SourceTimeout      time.Duration `env:"SOURCE_REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimitMaxWait   time.Duration `env:"RATE_LIMIT_MAX_WAIT" envDefault:"60s"`

	// Sink (C6)
	OutputPath string `env:"OUTPUT_PATH" envDefault:"/data/reddit_sentiment.csv"`
	RunID      string `env:"RUN_ID"`

	// Dedup (C4)
	DedupDBPath     string  `env:"DEDUP_DB_PATH" envDefault:"/data/dupes.db"`
	DedupCapacity   uint    `env:"DEDUP_CAPACITY" envDefault:"100000"`
	DedupFalsePosit float64 `env:"DEDUP_FALSE_POSITIVE_RATE" envDefault:"0.001"`

	// Sentiment (C5)
	EnableSentiment         bool          `env:"ENABLE_SENTIMENT" envDefault:"true"`
	FinBERTModel            string        `env:"FINBERT_MODEL" envDefault:"ProsusAI/finbert"`
	SentimentBatchSize      int           `env:"SENTIMENT_BATCH_SIZE" envDefault:"8"`
	SentimentMaxChars       int           `env:"SENTIMENT_MAX_CHARS" envDefault:"400"`
	SentimentMaxTokens      int           `env:"SENTIMENT_MAX_TOKENS" envDefault:"512"`
	SentimentEndpoint       string        `env:"SENTIMENT_ENDPOINT" envDefault:"http://localhost:8501/v1/models/finbert:predict"`
	SentimentRequestTimeout time.Duration `env:"SENTIMENT_REQUEST_TIMEOUT" envDefault:"30s"`

	// Metrics (C2)
	EnableMetrics bool `env:"ENABLE_METRICS" envDefault:"true"`
	MetricsPort   int  `env:"METRICS_PORT" envDefault:"8000"`

	// Run deadline (§5)
	RunDeadline time.Duration `env:"RUN_DEADLINE" envDefault:"1h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Supplemental: distributed run lock (disabled if empty)
	RedisURL string `env:"REDIS_URL"`

	// Supplemental: run ledger (disabled if empty)
	RunLedgerDSN           string `env:"RUN_LEDGER_DSN"`
	RunLedgerMigrationsDir string `env:"RUN_LEDGER_MIGRATIONS_DIR" envDefault:"migrations/runledger"`

	// Supplemental: ops failure notification (disabled unless both are set)
	SlackBotToken     string `env:"SLACK_BOT_TOKEN"`
	SlackAlertChannel string `env:"SLACK_ALERT_CHANNEL"`

	// Build metadata surfaced on the build_info gauge
	BuildVersion string `env:"BUILD_VERSION" envDefault:"dev"`
	BuildCommit  string `env:"BUILD_COMMIT" envDefault:"none"`
	BuildDate    string `env:"BUILD_DATE"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the process environment and validates
// required fields. A missing required field or malformed value surfaces
// as a *ConfigError (exit code 2).
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("parsing config from env: %w", err)}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Err: summarizeValidation(err)}
	}
	return cfg, nil
}

// MetricsAddr returns the address the scrape server should listen on.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}

// RunLockEnabled reports whether the Redis-backed distributed run lock is
// configured (SPEC_FULL.md §3.2).
func (c *Config) RunLockEnabled() bool {
	return c.RedisURL != ""
}

// RunLedgerEnabled reports whether the Postgres run ledger is configured
// (SPEC_FULL.md §3.1).
func (c *Config) RunLedgerEnabled() bool {
	return c.RunLedgerDSN != ""
}

// NotifyEnabled reports whether Slack ops failure notification is
// configured (SPEC_FULL.md §3.3).
func (c *Config) NotifyEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAlertChannel != ""
}

func summarizeValidation(err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("missing or invalid required fields: %s", strings.Join(fields, ", "))
}
