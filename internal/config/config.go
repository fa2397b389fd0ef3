package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

var ErrSecretRequired = errors.New("webhook secret is required but not configured")

// ---- Root ----

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Async   AsyncConfig   `mapstructure:"async"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Dedup   DedupConfig   `mapstructure:"dedup"`
	Relay   RelayConfig   `mapstructure:"relay"`
}

// ---- Leaf structs ----

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	Port           int      `mapstructure:"port"` // overrides addr when > 0
	BodyLimit      string   `mapstructure:"body_limit"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ListenAddr returns the address the HTTP server binds to.
func (h HTTPConfig) ListenAddr() string {
	if h.Port > 0 {
		return ":" + strconv.Itoa(h.Port)
	}
	return h.Addr
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | plain
}

type WebhookConfig struct {
	Secret        string                  `mapstructure:"secret"`
	RequireSecret bool                    `mapstructure:"require_secret"`
	Sources       map[string]SourceConfig `mapstructure:"sources"`
}

type SourceConfig struct {
	SignatureHeader string `mapstructure:"signature_header"`
}

type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	GroupID        string        `mapstructure:"group_id"`
	MinBytes       int           `mapstructure:"min_bytes"`
	MaxBytes       int           `mapstructure:"max_bytes"`
	CommitInterval int           `mapstructure:"commit_interval_ms"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// Enabled reports whether at least one broker is configured.
func (k KafkaConfig) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type AsyncConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type DedupConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

type TargetConfig struct {
	Name      string        `mapstructure:"name"`
	Enabled   bool          `mapstructure:"enabled"`
	URL       string        `mapstructure:"url"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type RelayConfig struct {
	Workers     int            `mapstructure:"workers"`
	MaxAttempts int            `mapstructure:"max_attempts"`
	Targets     []TargetConfig `mapstructure:"targets"`
}

// legacyEnv maps config keys to the plain variable names older deployments set.
var legacyEnv = map[string]string{
	"webhook.secret":       "SANITY_WEBHOOK_SECRET",
	"http.port":            "PORT",
	"http.allowed_origins": "ALLOWED_ORIGINS",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
	"app.environment":      "NODE_ENV",
}

// Load reads embedded defaults, merges the YAML file at path (if given), and applies env overrides
// (BRIDGE_*, then the legacy plain names).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	// an explicit path must exist and parse
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (BRIDGE_*)
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "BRIDGE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if c.Webhook.RequireSecret && strings.TrimSpace(c.Webhook.Secret) == "" {
		return ErrSecretRequired
	}
	if len(c.Webhook.Sources) == 0 {
		return errors.New("no webhook sources configured")
	}
	return nil
}
