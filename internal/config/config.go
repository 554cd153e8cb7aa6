package config

import (
	"time"

	"github.com/Artexxx/hr-services/library/pg"
)

type Config struct {
	// LogLevel: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	HTTP      HTTPConfig        `koanf:"http"`
	Postgres  pg.PostgresConfig `koanf:"postgres"`
	Kafka     KafkaConfig       `koanf:"kafka"`
	Upstreams UpstreamsConfig   `koanf:"upstreams"`
	RPC       RPCConfig         `koanf:"rpc"`
	Redis     RedisConfig       `koanf:"redis"`
	Auth      AuthConfig        `koanf:"auth"`
	Consumer  ConsumerConfig    `koanf:"consumer"`
}

type HTTPConfig struct {
	Port int `koanf:"port"`
}

type KafkaConfig struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	GroupID  string   `koanf:"group_id"`
	ClientID string   `koanf:"client_id"`
}

// UpstreamsConfig holds base URLs of the owning services, e.g. "http://department-service:8081".
type UpstreamsConfig struct {
	Departments string `koanf:"departments"`
	Employees   string `koanf:"employees"`
	Reviews     string `koanf:"reviews"`
	Auth        string `koanf:"auth"`
}

type RPCConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Retries int           `koanf:"retries"`
	// ProxyTimeout bounds one forwarded request at the gateway.
	ProxyTimeout time.Duration `koanf:"proxy_timeout"`
}

// RedisConfig enables the existence presence cache when Addr is set.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	PresenceTTL time.Duration `koanf:"presence_ttl"`
}

type AuthConfig struct {
	// Secret is the base64-encoded HS256 key shared with the auth service.
	Secret string `koanf:"secret"`
}

type ConsumerConfig struct {
	RetryInitial time.Duration `koanf:"retry_initial"`
	RetryMax     time.Duration `koanf:"retry_max"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Port: 8080},
		Postgres: pg.PostgresConfig{
			MaxConns:        10,
			MaxConnLifetime: 30 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{"localhost:9092"},
			Topic:    "reviews.rating",
			GroupID:  "employee-rating",
			ClientID: "hr-services",
		},
		RPC: RPCConfig{
			Timeout:      3 * time.Second,
			Retries:      1,
			ProxyTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			PresenceTTL: 30 * time.Second,
		},
		Consumer: ConsumerConfig{
			RetryInitial: 500 * time.Millisecond,
			RetryMax:     30 * time.Second,
		},
	}
}
