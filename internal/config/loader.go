package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "HR_"

// Load builds a Config by layering defaults, the YAML file (if path is set)
// and HR_-prefixed environment variables. Nested keys use a double
// underscore: HR_POSTGRES__DSN -> postgres.dsn.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, ErrInvalidPort
	}

	return cfg, nil
}

// RequirePostgres, RequireKafka и т.д. проверяют секции, нужные конкретному бинарю.
func (c *Config) RequirePostgres() error {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return ErrMissingDSN
	}
	return nil
}

func (c *Config) RequireKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return ErrMissingBrokers
	}
	if strings.TrimSpace(c.Kafka.Topic) == "" {
		return ErrMissingTopic
	}
	return nil
}

func (c *Config) RequireUpstreams(names ...string) error {
	for _, name := range names {
		var v string
		switch name {
		case "departments":
			v = c.Upstreams.Departments
		case "employees":
			v = c.Upstreams.Employees
		case "reviews":
			v = c.Upstreams.Reviews
		case "auth":
			v = c.Upstreams.Auth
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("upstreams.%s: %w", name, ErrMissingUpstream)
		}
	}
	return nil
}

func (c *Config) RequireAuth() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrMissingSecret
	}
	return nil
}
