package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Generator GeneratorConfig `yaml:"generator"`
	Seed      SeedConfig      `yaml:"seed"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// RedisConfig holds the optional entry-existence cache settings.
// An empty URL disables the cache; lookups then always hit PostgreSQL.
type RedisConfig struct {
	URL      string        `yaml:"url"       env:"REDIS_URL"`
	Password string        `yaml:"password"  env:"REDIS_PASSWORD"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"24h"`
}

// GeneratorConfig holds AI generation settings.
type GeneratorConfig struct {
	APIKey    string        `yaml:"api_key"    env:"GENERATOR_API_KEY"`
	Model     string        `yaml:"model"      env:"GENERATOR_MODEL"      env-default:"claude-sonnet-4-5"`
	MaxTokens int           `yaml:"max_tokens" env:"GENERATOR_MAX_TOKENS" env-default:"2048"`
	Timeout   time.Duration `yaml:"timeout"    env:"GENERATOR_TIMEOUT"    env-default:"45s"`
}

// SeedConfig holds the seed generation pipeline settings.
type SeedConfig struct {
	// DailyBudget caps AI token spend per UTC day across all runs.
	DailyBudget int `yaml:"daily_budget" env:"SEED_DAILY_BUDGET" env-default:"100000"`

	// DailyLimit caps the number of items processed per UTC day.
	DailyLimit int `yaml:"daily_limit" env:"SEED_DAILY_LIMIT" env-default:"200"`

	// AllocationPercent is the share of DailyBudget the pipeline may spend;
	// the remainder is reserved for interactive enrichment.
	AllocationPercent int `yaml:"allocation_percent" env:"SEED_ALLOCATION_PERCENT" env-default:"100"`

	// TokensPerTermEstimate is the minimum headroom required before a batch
	// run is admitted.
	TokensPerTermEstimate int `yaml:"tokens_per_term_estimate" env:"SEED_TOKENS_PER_TERM_ESTIMATE" env-default:"50"`

	BatchSize            int `yaml:"batch_size"             env:"SEED_BATCH_SIZE"             env-default:"10"`
	MaxAttempts          int `yaml:"max_attempts"           env:"SEED_MAX_ATTEMPTS"           env-default:"3"`
	AutoPublishThreshold int `yaml:"auto_publish_threshold" env:"SEED_AUTO_PUBLISH_THRESHOLD" env-default:"80"`

	// Retry backoff: delay before attempt n is BackoffBase * 2^(n-1), capped at BackoffMax.
	BackoffBase time.Duration `yaml:"backoff_base" env:"SEED_BACKOFF_BASE" env-default:"5m"`
	BackoffMax  time.Duration `yaml:"backoff_max"  env:"SEED_BACKOFF_MAX"  env-default:"6h"`

	// Cron expressions (5-field or @every descriptors). Empty disables the trigger.
	ProcessSchedule string `yaml:"process_schedule" env:"SEED_PROCESS_SCHEDULE" env-default:"0 */6 * * *"`
	RecoverSchedule string `yaml:"recover_schedule" env:"SEED_RECOVER_SCHEDULE" env-default:"30 */6 * * *"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// EffectiveDailyBudget returns the token cap after applying the allocation share.
func (c SeedConfig) EffectiveDailyBudget() int {
	return c.DailyBudget * c.AllocationPercent / 100
}
