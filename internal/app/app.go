// Package app holds the start-up plumbing shared by the binaries in cmd/.
package app

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/metrics"
)

// ParseFlags reads -config, falling back to CONFIG_PATH. A .env file in the
// working directory is loaded first when present.
func ParseFlags(defaultPath string) string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load(".env")

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = defaultPath
	}
	return configPath
}

// LoadConfig reads the config and checks the sections the binary needs.
func LoadConfig(path string, require ...func(*config.Config) error) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	for _, check := range require {
		if err := check(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// NewLogger builds the root logger. Unknown levels fall back to info.
func NewLogger(level, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// NewMetrics registers the service counters next to the Go runtime and
// process collectors on a fresh registry.
func NewMetrics() *metrics.Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg)
}

// Task is a long-running part of a binary: HTTP API, consumer group.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run starts every task and waits. The first task to fail cancels the rest;
// cancelling ctx stops all of them.
func Run(ctx context.Context, log zerolog.Logger, tasks ...Task) error {
	group, gctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		group.Go(func() error {
			log.Info().Str("task", task.Name).Msg("запуск")

			if err := task.Run(gctx); err != nil {
				log.Error().Err(err).Str("task", task.Name).Msg("завершился с ошибкой")
				return err
			}

			log.Info().Str("task", task.Name).Msg("остановлен")
			return nil
		})
	}

	err := group.Wait()
	if ctx.Err() != nil {
		log.Info().Msg("signal received, all tasks stopped")
	}
	return err
}
