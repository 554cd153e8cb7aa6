package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/api/departments"
	"github.com/Artexxx/hr-services/internal/app"
	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/repository/department"
	"github.com/Artexxx/hr-services/library/pg"
)

const serviceName = "department-service"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := app.ParseFlags("config/department-service.yaml")
	cfg, err := app.LoadConfig(path,
		(*config.Config).RequirePostgres,
		func(c *config.Config) error { return c.RequireUpstreams("employees") },
	)
	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("ошибка чтения конфигурации приложения")
	}

	logger := app.NewLogger(cfg.LogLevel, serviceName)

	pgClient, err := pg.NewPG(rootCtx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pgClient.Close()

	repo := department.NewRepository(pgClient.Pool())
	if err := repo.EnsureSchema(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("schema init failed")
	}

	m := app.NewMetrics()
	presence, release := app.OpenPresenceCache(rootCtx, cfg, logger)
	defer release()

	employees := rpc.NewEmployeeClient(cfg.Upstreams.Employees, logger, app.UpstreamOptions(cfg, serviceName, m, presence)...)

	var svcOpts []departments.Option
	if presence != nil {
		svcOpts = append(svcOpts, departments.WithPresenceEviction(presence))
	}

	server := api.NewServer(
		api.ServerConfig{Port: cfg.HTTP.Port, Name: serviceName},
		logger,
		m,
		departments.NewService(repo, employees, logger, svcOpts...),
	)

	if err := app.Run(rootCtx, logger, app.Task{Name: "HTTP API", Run: server.Start}); err != nil {
		logger.Error().Err(err).Msg("department-service stopped with error")
	}
}
