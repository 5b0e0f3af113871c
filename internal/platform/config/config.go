package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full process configuration. Values come from an optional YAML
// file, then environment variables, then mode-dependent defaults.
type Config struct {
	Environment  string       `yaml:"environment" env:"LECTERN_ENV,overwrite"`
	Server       Server       `yaml:"server" env:",prefix=LECTERN_"`
	Auth         Auth         `yaml:"auth" env:",prefix=LECTERN_AUTH_"`
	Postgres     Postgres     `yaml:"postgres" env:",prefix=LECTERN_POSTGRES_"`
	Redis        RedisConfig  `yaml:"redis" env:",prefix=LECTERN_REDIS_"`
	Kafka        Kafka        `yaml:"kafka" env:",prefix=LECTERN_KAFKA_"`
	Storage      Storage      `yaml:"storage" env:",prefix=LECTERN_STORAGE_"`
	Notify       Notify       `yaml:"notify" env:",prefix=LECTERN_NOTIFY_"`
	Verification Verification `yaml:"verification" env:",prefix=LECTERN_VERIFICATION_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" env:"ADDR,overwrite"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL,overwrite"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT,overwrite"`
}

type Auth struct {
	JWTSigningKey string `yaml:"jwt_signing_key" env:"JWT_SIGNING_KEY,overwrite"`
	Issuer        string `yaml:"issuer" env:"ISSUER,overwrite"`
	Audience      string `yaml:"audience" env:"AUDIENCE,overwrite"`
}

// Postgres holds the DSN shared by the record store (database/sql) and the
// account store (pgx pool). An empty DSN selects in-memory stores.
type Postgres struct {
	DSN          string `yaml:"dsn" env:"DSN,overwrite"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS,overwrite"`
}

// RedisConfig configures the shared Redis client. An empty URL disables the
// distributed cooldown gate.
type RedisConfig struct {
	URL          string        `yaml:"url" env:"URL,overwrite"`
	PoolSize     int           `yaml:"pool_size" env:"POOL_SIZE,overwrite"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS,overwrite"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT,overwrite"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT,overwrite"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT,overwrite"`
}

// Kafka configures the verification event stream. No brokers disables it.
type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"BROKERS,overwrite"`
	Topic      string   `yaml:"topic" env:"TOPIC,overwrite"`
	Partitions int32    `yaml:"partitions" env:"PARTITIONS,overwrite"`
	// Consecutive publish failures before the sink is skipped for BreakerCooldown.
	BreakerFailures int           `yaml:"breaker_failures" env:"BREAKER_FAILURES,overwrite"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" env:"BREAKER_COOLDOWN,overwrite"`
}

// Storage configures the OSS bucket for uploaded media. An empty endpoint
// selects the in-memory blob store.
type Storage struct {
	Endpoint        string        `yaml:"endpoint" env:"ENDPOINT,overwrite"`
	AccessKeyID     string        `yaml:"access_key_id" env:"ACCESS_KEY_ID,overwrite"`
	AccessKeySecret string        `yaml:"access_key_secret" env:"ACCESS_KEY_SECRET,overwrite"`
	Bucket          string        `yaml:"bucket" env:"BUCKET,overwrite"`
	PublicBaseURL   string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL,overwrite"`
	Prefix          string        `yaml:"prefix" env:"PREFIX,overwrite"`
	UploadTimeout   time.Duration `yaml:"upload_timeout" env:"UPLOAD_TIMEOUT,overwrite"`
}

type Notify struct {
	SMTPHost     string        `yaml:"smtp_host" env:"SMTP_HOST,overwrite"`
	SMTPPort     int           `yaml:"smtp_port" env:"SMTP_PORT,overwrite"`
	SMTPUser     string        `yaml:"smtp_user" env:"SMTP_USER,overwrite"`
	SMTPPassword string        `yaml:"smtp_password" env:"SMTP_PASSWORD,overwrite"`
	FromEmail    string        `yaml:"from_email" env:"FROM_EMAIL,overwrite"`
	FromName     string        `yaml:"from_name" env:"FROM_NAME,overwrite"`
	AdminEmails  []string      `yaml:"admin_emails" env:"ADMIN_EMAILS,overwrite"`
	SMSURL       string        `yaml:"sms_url" env:"SMS_URL,overwrite"`
	SMSAPIKey    string        `yaml:"sms_api_key" env:"SMS_API_KEY,overwrite"`
	SMSDryRun    bool          `yaml:"sms_dry_run" env:"SMS_DRY_RUN,overwrite"`
	TelegramBot  string        `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN,overwrite"`
	TelegramChat int64         `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID,overwrite"`
	SendTimeout  time.Duration `yaml:"send_timeout" env:"SEND_TIMEOUT,overwrite"`
}

// Verification holds the workflow constants injected into the verification
// service.
type Verification struct {
	CodeLength        int           `yaml:"code_length" env:"CODE_LENGTH,overwrite"`
	CodeTTL           time.Duration `yaml:"code_ttl" env:"CODE_TTL,overwrite"`
	MaxAttempts       int           `yaml:"max_attempts" env:"MAX_ATTEMPTS,overwrite"`
	ResendCooldown    time.Duration `yaml:"resend_cooldown" env:"RESEND_COOLDOWN,overwrite"`
	CodeHashKey       string        `yaml:"code_hash_key" env:"CODE_HASH_KEY,overwrite"`
	ExposeCodes       bool          `yaml:"expose_codes" env:"EXPOSE_CODES,overwrite"`
	EducationPolicy   string        `yaml:"education_policy" env:"EDUCATION_POLICY,overwrite"`
	MinimumCredential string        `yaml:"minimum_credential" env:"MINIMUM_CREDENTIAL,overwrite"`
	StatsWindow       time.Duration `yaml:"stats_window" env:"STATS_WINDOW,overwrite"`
	LivenessScore     float64       `yaml:"liveness_score" env:"LIVENESS_SCORE,overwrite"`
	LivenessThreshold float64       `yaml:"liveness_threshold" env:"LIVENESS_THRESHOLD,overwrite"`
}

// Load reads the YAML file at path (skipped when empty), overlays the
// environment, fills defaults for the selected mode and validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Auth.JWTSigningKey == "" && !c.IsProduction() {
		c.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "lectern"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "lectern-api"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 20
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "verification.events"
	}
	if c.Kafka.Partitions == 0 {
		c.Kafka.Partitions = 3
	}
	if c.Kafka.BreakerFailures == 0 {
		c.Kafka.BreakerFailures = 5
	}
	if c.Kafka.BreakerCooldown == 0 {
		c.Kafka.BreakerCooldown = 30 * time.Second
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = "instructors"
	}
	if c.Storage.UploadTimeout == 0 {
		c.Storage.UploadTimeout = 30 * time.Second
	}
	if c.Notify.SMTPPort == 0 {
		c.Notify.SMTPPort = 587
	}
	if c.Notify.FromName == "" {
		c.Notify.FromName = "Lectern"
	}
	if c.Notify.SendTimeout == 0 {
		c.Notify.SendTimeout = 10 * time.Second
	}
	if !c.IsProduction() && c.Notify.SMSURL == "" {
		c.Notify.SMSDryRun = true
	}

	v := &c.Verification
	if v.CodeLength == 0 {
		v.CodeLength = 6
	}
	if v.CodeTTL == 0 {
		v.CodeTTL = 10 * time.Minute
	}
	if v.MaxAttempts == 0 {
		v.MaxAttempts = 3
	}
	if v.ResendCooldown == 0 {
		v.ResendCooldown = 60 * time.Second
		if !c.IsProduction() {
			v.ResendCooldown = 30 * time.Second
		}
	}
	if v.CodeHashKey == "" && !c.IsProduction() {
		v.CodeHashKey = "dev-code-hash-key"
	}
	if v.EducationPolicy == "" {
		v.EducationPolicy = "at_least_one_not_rejected"
	}
	if v.StatsWindow == 0 {
		v.StatsWindow = 30 * 24 * time.Hour
	}
	if v.LivenessScore == 0 {
		v.LivenessScore = 0.95
	}
	if v.LivenessThreshold == 0 {
		v.LivenessThreshold = 0.8
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("auth.jwt_signing_key is required"))
	}
	if c.Verification.CodeHashKey == "" {
		errs = append(errs, errors.New("verification.code_hash_key is required"))
	}
	if len(c.Verification.CodeHashKey) > 64 {
		errs = append(errs, errors.New("verification.code_hash_key must be at most 64 bytes"))
	}
	if c.Verification.CodeLength < 4 || c.Verification.CodeLength > 10 {
		errs = append(errs, errors.New("verification.code_length must be between 4 and 10"))
	}
	if c.IsProduction() && c.Verification.ExposeCodes {
		errs = append(errs, errors.New("verification.expose_codes cannot be enabled in production"))
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage.endpoint is set"))
	}
	return errors.Join(errs...)
}
