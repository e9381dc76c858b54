package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"contracts-backend/internal/shared/telemetry"
)

// DefaultConfigFile is read when CONFIG_FILE is unset and the file exists.
const DefaultConfigFile = "config.yaml"

// Config holds application configuration.
type Config struct {
	Port               string   `yaml:"port"               envconfig:"PORT"`
	Env                string   `yaml:"env"                envconfig:"ENV"`
	DatabaseURL        string   `yaml:"databaseUrl"        envconfig:"DATABASE_URL"`
	CORSAllowOrigin    []string `yaml:"corsAllowOrigins"   envconfig:"CORS_ALLOW_ORIGINS"`
	ObjectStoreType    string   `yaml:"objectStore"        envconfig:"OBJECT_STORE"`
	LocalStoreDir      string   `yaml:"localStoreDir"      envconfig:"LOCAL_STORE_DIR"`
	AWSRegion          string   `yaml:"awsRegion"          envconfig:"AWS_REGION"`
	S3Bucket           string   `yaml:"s3Bucket"           envconfig:"S3_BUCKET"`
	S3Prefix           string   `yaml:"s3Prefix"           envconfig:"S3_PREFIX"`
	SSEKMSKeyID        string   `yaml:"sseKmsKeyId"        envconfig:"SSE_KMS_KEY_ID"`
	DefaultCurrency    string   `yaml:"defaultCurrency"    envconfig:"DEFAULT_CURRENCY"`
	ExpiringWindowDays int      `yaml:"expiringWindowDays" envconfig:"EXPIRING_WINDOW_DAYS"`
	RateLimitRPS       float64  `yaml:"rateLimitRps"       envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `yaml:"rateLimitBurst"     envconfig:"RATE_LIMIT_BURST"`

	SweepInterval    time.Duration `yaml:"sweepInterval"    envconfig:"SWEEP_INTERVAL"`
	SweepConcurrency int           `yaml:"sweepConcurrency" envconfig:"SWEEP_CONCURRENCY"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:               "8080",
		Env:                "dev",
		CORSAllowOrigin:    []string{"http://localhost:5173"},
		ObjectStoreType:    "local",
		LocalStoreDir:      "./data",
		DefaultCurrency:    "BRL",
		ExpiringWindowDays: 60,
		RateLimitRPS:       2,
		RateLimitBurst:     20,
		SweepInterval:      time.Hour,
		SweepConcurrency:   4,
	}
}

// Load builds the configuration from defaults, an optional YAML file, local
// env files and finally the process environment.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = trimAll(cfg.CORSAllowOrigin)
	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": cfg.Env})
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when OBJECT_STORE=s3"))
	}
	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency))
	}
	if c.ExpiringWindowDays <= 0 {
		errs = append(errs, errors.New("EXPIRING_WINDOW_DAYS must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit values must not be negative"))
	}
	if c.SweepInterval <= 0 || c.SweepConcurrency <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL and SWEEP_CONCURRENCY must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
