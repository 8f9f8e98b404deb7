package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Environment string          `mapstructure:"environment"`
	Log         LogConfig       `mapstructure:"log"`
	Kafka       KafkaConfig     `mapstructure:"kafka"`
	Topics      TopicsConfig    `mapstructure:"topics"`
	Streamer    StreamerConfig  `mapstructure:"streamer"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	MySQL       DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse  DatabaseConfig  `mapstructure:"clickhouse"`
	Redis       RedisConfig     `mapstructure:"redis"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json|console
}

type KafkaConfig struct {
	BootstrapServers string         `mapstructure:"bootstrap_servers"` // comma separated
	SecurityProtocol string         `mapstructure:"security_protocol"` // SASL_SSL|SASL_PLAINTEXT|PLAINTEXT
	SASLMechanism    string         `mapstructure:"sasl_mechanism"`
	APIKey           string         `mapstructure:"api_key"`
	APISecret        string         `mapstructure:"api_secret"`
	ClientID         string         `mapstructure:"client_id"`
	Acks             string         `mapstructure:"acks"`
	Retries          int            `mapstructure:"retries"`
	BatchSize        int64          `mapstructure:"batch_size"` // bytes
	Linger           time.Duration  `mapstructure:"linger"`
	BufferMemory     int            `mapstructure:"buffer_memory"` // bytes
	PublishTimeout   time.Duration  `mapstructure:"publish_timeout"`
	DialTimeout      time.Duration  `mapstructure:"dial_timeout"`
	VerifyOnStart    bool           `mapstructure:"verify_on_start"`
	Breaker          BreakerConfig  `mapstructure:"breaker"`
	Consumer         ConsumerConfig `mapstructure:"consumer"`
}

// Brokers splits BootstrapServers into addresses.
func (k KafkaConfig) Brokers() []string {
	parts := strings.Split(k.BootstrapServers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type BreakerConfig struct {
	FailThreshold int           `mapstructure:"fail_threshold"`
	OpenFor       time.Duration `mapstructure:"open_for"`
}

type ConsumerConfig struct {
	GroupID        string `mapstructure:"group_id"`
	MinBytes       int    `mapstructure:"min_bytes"`
	MaxBytes       int    `mapstructure:"max_bytes"`
	CommitInterval int    `mapstructure:"commit_interval_ms"`
}

type TopicsConfig struct {
	Dev string `mapstructure:"dev"`
	QA  string `mapstructure:"qa"`
}

type StreamerConfig struct {
	Workers int `mapstructure:"workers"`
}

type HTTPConfig struct {
	Addr    string   `mapstructure:"addr"`
	APIKeys []string `mapstructure:"api_keys"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env
// overrides (GRPLOAD_*, nested keys joined by "_", e.g. GRPLOAD_KAFKA_API_KEY).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (GRPLOAD_*)
	v.SetEnvPrefix("GRPLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
