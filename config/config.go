package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig       `yaml:"http"`
	GRPC     GRPCConfig       `yaml:"grpc"`
	Remote   RemoteConfig     `yaml:"remote"`
	Session  SessionConfig    `yaml:"session"`
	Redis    RedisConfig      `yaml:"redis"`
	Database DatabaseConfig   `yaml:"database"`
	Kafka    KafkaConfig      `yaml:"kafka"`
	AMQP     AMQPConfig       `yaml:"amqp"`
	Relay    RelayConfig      `yaml:"relay"`
	Worker   WorkerConfig     `yaml:"worker"`
	Catalog  map[string]int64 `yaml:"catalog"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type RemoteConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	Secure     bool   `yaml:"secure_cookie"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	URL      string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	ChangesTopic string   `yaml:"changes_topic"`
	AnomalyTopic string   `yaml:"anomaly_topic"`
	GroupID      string   `yaml:"group_id"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

const (
	RelayNone  = "none"
	RelayKafka = "kafka"
	RelayAMQP  = "amqp"
)

type RelayConfig struct {
	Driver string `yaml:"driver"`
}

type WorkerConfig struct {
	ReportIntervalMinutes int `yaml:"report_interval_minutes"`
}

// LoadConfig reads .env (if present), then the YAML file at path, then applies
// environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.HTTP.Address, "HTTP_ADDRESS")
	override(&c.Remote.Endpoint, "REMOTE_ENDPOINT")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.Database.URL, "DATABASE_URL")
	override(&c.AMQP.URL, "AMQP_URL")
	override(&c.Relay.Driver, "RELAY_DRIVER")
	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		c.Kafka.Brokers = parseCSV(brokers)
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "tourplanner_session"
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 60
	}
	if c.Relay.Driver == "" {
		c.Relay.Driver = RelayNone
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "tourplanner.changes"
	}
	if c.Worker.ReportIntervalMinutes <= 0 {
		c.Worker.ReportIntervalMinutes = 5
	}
	if len(c.Catalog) == 0 {
		c.Catalog = map[string]int64{"Goa": 18000, "Mysore": 12000, "Shimoga": 10000, "Ooty": 15000}
	}
}

func (c *Config) Validate() error {
	if c.Remote.Endpoint == "" {
		return errors.New("remote.endpoint is required")
	}
	switch c.Relay.Driver {
	case RelayNone:
	case RelayKafka:
		if len(c.Kafka.Brokers) == 0 || c.Kafka.ChangesTopic == "" {
			return errors.New("relay driver kafka needs kafka.brokers and kafka.changes_topic")
		}
	case RelayAMQP:
		if c.AMQP.URL == "" {
			return errors.New("relay driver amqp needs amqp.url")
		}
	default:
		return fmt.Errorf("unknown relay driver %q", c.Relay.Driver)
	}
	for destination, rate := range c.Catalog {
		if rate < 0 {
			return fmt.Errorf("catalog rate for %s must not be negative", destination)
		}
	}
	return nil
}

func override(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
