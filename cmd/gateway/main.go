package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/app"
	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/gateway"
)

const serviceName = "gateway"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := app.ParseFlags("config/gateway.yaml")
	cfg, err := app.LoadConfig(path,
		(*config.Config).RequireAuth,
		func(c *config.Config) error { return c.RequireUpstreams("departments", "employees", "reviews") },
	)
	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("ошибка чтения конфигурации приложения")
	}

	logger := app.NewLogger(cfg.LogLevel, serviceName)

	validator, err := gateway.NewTokenValidator(cfg.Auth.Secret)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth secret is invalid")
	}

	routes := gateway.Routes(cfg.Upstreams.Departments, cfg.Upstreams.Employees, cfg.Upstreams.Reviews, cfg.Upstreams.Auth)
	for _, r := range routes {
		logger.Info().Str("prefix", r.Prefix).Str("upstream", r.Upstream).Msg("route")
	}

	proxy := gateway.NewProxy(routes, rpc.NewHTTPClient(serviceName), validator, cfg.RPC.ProxyTimeout, logger)

	server := api.NewServer(api.ServerConfig{Port: cfg.HTTP.Port, Name: serviceName}, logger, app.NewMetrics(), proxy)

	if err := app.Run(rootCtx, logger, app.Task{Name: "HTTP API", Run: server.Start}); err != nil {
		logger.Error().Err(err).Msg("gateway stopped with error")
	}
}
