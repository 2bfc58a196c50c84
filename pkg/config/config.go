// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Analysis, Archive, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// PostgresConfig holds PostgreSQL connection parameters. An empty Host
// disables report persistence.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings. No brokers disables
// asynchronous analysis and event publishing.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalysisRequests string `yaml:"analysisRequests"`
	ReportsCompleted string `yaml:"reportsCompleted"`
	AnalyticsEvents  string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and report caching parameters. An
// empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalysisConfig tunes the transcript statistics engines.
type AnalysisConfig struct {
	StopwordsFile        string  `yaml:"stopwordsFile"`
	MTLDThreshold        float64 `yaml:"mtldThreshold"`
	MTLDMinTokens        int     `yaml:"mtldMinTokens"`
	KeynessTopK          int     `yaml:"keynessTopK"`
	TopN                 int     `yaml:"topN"`
	NGramSizes           []int   `yaml:"ngramSizes"`
	NetworkSize          int     `yaml:"networkSize"`
	FuzzyThreshold       float64 `yaml:"fuzzyThreshold"`
	StripStageDirections bool    `yaml:"stripStageDirections"`
	MaxConcurrency       int     `yaml:"maxConcurrency"`
	Workers              int     `yaml:"workers"`
}

// AnalyticsConfig controls the analytics aggregator.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	BufferSize       int           `yaml:"bufferSize"`
}

// RateLimitConfig configures the per-client token bucket on the analysis API.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanupInterval"`
}

// ArchiveConfig locates the CLI's local report archive.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	a := c.Analysis
	if a.MTLDThreshold <= 0 || a.MTLDThreshold >= 1 {
		errs = append(errs, fmt.Errorf("analysis.mtldThreshold must be in (0,1), got %v", a.MTLDThreshold))
	}
	if a.MTLDMinTokens < 0 {
		errs = append(errs, fmt.Errorf("analysis.mtldMinTokens must be >= 0, got %d", a.MTLDMinTokens))
	}
	if len(a.NGramSizes) == 0 {
		errs = append(errs, errors.New("analysis.ngramSizes must not be empty"))
	}
	for _, n := range a.NGramSizes {
		if n < 1 {
			errs = append(errs, fmt.Errorf("analysis.ngramSizes contains %d, want >= 1", n))
		}
	}
	if a.FuzzyThreshold < 0 || a.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("analysis.fuzzyThreshold must be in [0,1], got %v", a.FuzzyThreshold))
	}
	if a.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("analysis.maxConcurrency must be >= 1, got %d", a.MaxConcurrency))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rateLimit.requestsPerMinute must be > 0 when enabled"))
	}
	return errors.Join(errs...)
}

// defaultConfig returns a Config with defaults suitable for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  45 * time.Second,
			MaxBodyBytes:    16 << 20,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "debatestats",
			User:            "debatestats",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "debatestats-analyzer",
			Topics: KafkaTopics{
				AnalysisRequests: "analysis-requests",
				ReportsCompleted: "reports.completed",
				AnalyticsEvents:  "analytics-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 30 * time.Minute,
		},
		Analysis: AnalysisConfig{
			MTLDThreshold:  0.72,
			MTLDMinTokens:  10,
			KeynessTopK:    20,
			TopN:           20,
			NGramSizes:     []int{1, 2, 3},
			NetworkSize:    30,
			MaxConcurrency: 8,
			Workers:        2,
		},
		Analytics: AnalyticsConfig{
			Port:             8083,
			SnapshotInterval: time.Minute,
			BufferSize:       1000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
			CleanupInterval:   5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Path: "debatestats.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	setInt("DS_SERVER_PORT", &cfg.Server.Port)
	setString("DS_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("DS_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("DS_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("DS_POSTGRES_USER", &cfg.Postgres.User)
	setString("DS_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("DS_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	if v, ok := os.LookupEnv("DS_KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitList(v)
	}
	setString("DS_KAFKA_CONSUMER_GROUP", &cfg.Kafka.ConsumerGroup)
	if v, ok := os.LookupEnv("DS_REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
	}
	setString("DS_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("DS_ANALYSIS_STOPWORDS_FILE", &cfg.Analysis.StopwordsFile)
	setFloat("DS_ANALYSIS_MTLD_THRESHOLD", &cfg.Analysis.MTLDThreshold)
	setInt("DS_ANALYSIS_MTLD_MIN_TOKENS", &cfg.Analysis.MTLDMinTokens)
	setInt("DS_ANALYSIS_KEYNESS_TOP_K", &cfg.Analysis.KeynessTopK)
	setInt("DS_ANALYSIS_TOP_N", &cfg.Analysis.TopN)
	setFloat("DS_ANALYSIS_FUZZY_THRESHOLD", &cfg.Analysis.FuzzyThreshold)
	setInt("DS_ANALYSIS_MAX_CONCURRENCY", &cfg.Analysis.MaxConcurrency)
	if v := os.Getenv("DS_ANALYSIS_STRIP_STAGE_DIRECTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analysis.StripStageDirections = b
		}
	}
	setString("DS_ARCHIVE_PATH", &cfg.Archive.Path)
	setString("DS_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("DS_LOGGING_FORMAT", &cfg.Logging.Format)
	setInt("DS_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
