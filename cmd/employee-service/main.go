package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Artexxx/hr-services/internal/api"
	"github.com/Artexxx/hr-services/internal/api/employees"
	"github.com/Artexxx/hr-services/internal/app"
	"github.com/Artexxx/hr-services/internal/cache"
	"github.com/Artexxx/hr-services/internal/config"
	"github.com/Artexxx/hr-services/internal/exchange/consumer"
	"github.com/Artexxx/hr-services/internal/exchange/rpc"
	"github.com/Artexxx/hr-services/internal/repository/employee"
	"github.com/Artexxx/hr-services/internal/repository/events"
	"github.com/Artexxx/hr-services/library/pg"
)

const serviceName = "employee-service"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := app.ParseFlags("config/employee-service.yaml")
	cfg, err := app.LoadConfig(path,
		(*config.Config).RequirePostgres,
		(*config.Config).RequireKafka,
		func(c *config.Config) error { return c.RequireUpstreams("departments", "reviews") },
	)
	if err != nil {
		log.Fatal().Str("path", path).Err(err).Msg("ошибка чтения конфигурации приложения")
	}

	logger := app.NewLogger(cfg.LogLevel, serviceName)
	logger.Info().Strs("kafka", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("config loaded")

	pgClient, err := pg.NewPG(rootCtx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres init failed")
	}
	defer pgClient.Close()

	employeeRepo := employee.NewRepository(pgClient.Pool())
	eventsRepo := events.NewRepository(pgClient.Pool())
	for name, ensure := range map[string]func(context.Context) error{
		"employees": employeeRepo.EnsureSchema,
		"kafka":     eventsRepo.EnsureSchema,
	} {
		if err := ensure(rootCtx); err != nil {
			logger.Fatal().Err(err).Str("schema", name).Msg("schema init failed")
		}
	}

	m := app.NewMetrics()
	presence, release := app.OpenPresenceCache(rootCtx, cfg, logger)
	defer release()

	opts := app.UpstreamOptions(cfg, serviceName, m, presence)

	checker := rpc.NewChecker(map[rpc.Kind]string{
		rpc.KindDepartment: cfg.Upstreams.Departments,
	}, logger, opts...)
	reviewClient := rpc.NewReviewClient(cfg.Upstreams.Reviews, logger, opts...)

	server := api.NewServer(
		api.ServerConfig{Port: cfg.HTTP.Port, Name: serviceName},
		logger,
		m,
		employees.NewService(employees.Deps{
			Repo:        employeeRepo,
			Events:      eventsRepo,
			Guard:       rpc.NewGuard(checker),
			Departments: rpc.NewDepartmentClient(cfg.Upstreams.Departments, logger, opts...),
			Reviews:     reviewClient,
			Presence:    evicter(presence),
		}, logger),
	)

	ratingConsumer := consumer.NewRatingRunner(
		consumer.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			GroupID:      cfg.Kafka.GroupID,
			ClientID:     cfg.Kafka.ClientID,
			RetryInitial: cfg.Consumer.RetryInitial,
			RetryMax:     cfg.Consumer.RetryMax,
		},
		consumer.NewRatingProcessor(employeeRepo, reviewClient, logger),
		eventsRepo,
		m,
		logger,
	)

	err = app.Run(rootCtx, logger,
		app.Task{Name: "HTTP API", Run: server.Start},
		app.Task{Name: "rating consumer", Run: ratingConsumer.Start},
	)
	if err != nil {
		logger.Error().Err(err).Msg("employee-service stopped with error")
	}
}

// evicter keeps a nil cache from becoming a non-nil interface.
func evicter(pc *cache.PresenceCache) employees.PresenceEvicter {
	if pc == nil {
		return nil
	}
	return pc
}
