package api

import (
	"context"
	"fmt"
	"time"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Artexxx/hr-services/internal/metrics"
)

// @title           HR services
// @version         1.0
// @description     Сервисы отделов, сотрудников и отзывов. Ссылки между сервисами проверяются синхронно, средний рейтинг сотрудника пересчитывается асинхронно через Kafka.
//
// @BasePath  /
// @schemes   http
// @accept    json
// @produce   json

// Mounter registers a service's routes.
type Mounter interface {
	Mount(r *router.Router)
}

type ServerConfig struct {
	Port int
	Name string
}

type Server struct {
	r       *router.Router
	port    int
	name    string
	log     zerolog.Logger
	metrics *metrics.Recorder
}

// NewServer mounts /health, /metrics and every service passed in.
func NewServer(cfg ServerConfig, log zerolog.Logger, m *metrics.Recorder, services ...Mounter) *Server {
	s := &Server{
		r:       router.New(),
		port:    cfg.Port,
		name:    cfg.Name,
		log:     log.With().Str("component", "HTTPServer").Str("service", cfg.Name).Logger(),
		metrics: m,
	}

	s.r.GET("/health", s.healthHandler)
	s.r.GET("/metrics", m.Handler())

	for _, svc := range services {
		svc.Mount(s.r)
	}

	return s
}

// Handler is the full middleware chain around the router.
func (s *Server) Handler() fasthttp.RequestHandler {
	return RecoveryMiddleware(s.log, LoggingMiddleware(s.log, s.metrics, CORS(s.r.Handler)))
}

func (s *Server) Start(ctx context.Context) error {
	server := fasthttp.Server{
		Handler:            s.Handler(),
		Name:               s.name,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       15 * time.Second,
		MaxRequestBodySize: 2 << 20, // 2 MiB
	}

	s.log.Info().Int("port", s.port).Msg("starting HTTP API")

	emergencyShutdown := make(chan error, 1)
	go func() {
		err := server.ListenAndServe(fmt.Sprintf(":%d", s.port))
		emergencyShutdown <- err
	}()

	select {
	case <-ctx.Done():
		return server.Shutdown()
	case e := <-emergencyShutdown:
		return e
	}
}

// @Summary Проверка здоровья сервиса
// @Tags    Admin
// @Success 200 {object} dto.ApiResponse[string]
// @Router  /health [get]
func (s *Server) healthHandler(ctx *fasthttp.RequestCtx) {
	OK(ctx, "OK", s.name)
}
