package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/api/reviews"
	"github.com/Artexxx/hr-services/internal/app"
	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/exchange/producer"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/repository/review"
	"github.com/Artexxx/hr-services/library/pg"
)

const serviceName = "review-service"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := app.ParseFlags("config/review-service.yaml")
	cfg, err := app.LoadConfig(path,
		(*config.Config).RequirePostgres,
		(*config.Config).RequireKafka,
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

	repo := review.NewRepository(pgClient.Pool())
	if err := repo.EnsureSchema(rootCtx); err != nil {
		logger.Fatal().Err(err).Msg("schema init failed")
	}

	m := app.NewMetrics()

	sp, err := producer.NewSyncProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	if err != nil {
		logger.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka producer init failed")
	}
	ratingProducer := producer.NewRatingProducer(sp, producer.Config{
		Topic:  cfg.Kafka.Topic,
		Source: serviceName,
	}, m, logger)
	defer func() { _ = ratingProducer.Close() }()

	presence, release := app.OpenPresenceCache(rootCtx, cfg, logger)
	defer release()

	checker := rpc.NewChecker(map[rpc.Kind]string{
		rpc.KindEmployee: cfg.Upstreams.Employees,
	}, logger, app.UpstreamOptions(cfg, serviceName, m, presence)...)

	server := api.NewServer(
		api.ServerConfig{Port: cfg.HTTP.Port, Name: serviceName},
		logger,
		m,
		reviews.NewService(repo, rpc.NewGuard(checker), ratingProducer, logger),
	)

	if err := app.Run(rootCtx, logger, app.Task{Name: "HTTP API", Run: server.Start}); err != nil {
		logger.Error().Err(err).Msg("review-service stopped with error")
	}
}
