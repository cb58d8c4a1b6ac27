package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quizzy-ai/quizzy/internal/auth"
	"github.com/quizzy-ai/quizzy/internal/config"
	"github.com/quizzy-ai/quizzy/internal/events"
	handlers "github.com/quizzy-ai/quizzy/internal/handlers/v1"
	"github.com/quizzy-ai/quizzy/internal/jobs"
	"github.com/quizzy-ai/quizzy/internal/rag"
	"github.com/quizzy-ai/quizzy/internal/service"
	"github.com/quizzy-ai/quizzy/internal/store"
	"github.com/quizzy-ai/quizzy/internal/vector"
	"github.com/quizzy-ai/quizzy/pkg/metrics"
	"github.com/quizzy-ai/quizzy/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg         *config.Config
	store       store.Store
	listener    net.Listener
	eventWriter *events.EventProducer
}

// New returns a new instance of the quizzy API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	eventWriter *events.EventProducer,
) *Server {
	return &Server{
		cfg:         cfg,
		store:       store,
		listener:    listener,
		eventWriter: eventWriter,
	}
}

// NewPgxPool builds the pgx pool the job queue runs on. Shared by the API and
// worker processes.
func NewPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// Sized for job processing plus LISTEN/NOTIFY.
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	dbPool, err := NewPgxPool(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer dbPool.Close()

	queueClient, err := jobs.NewInsertOnlyClient(dbPool)
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}

	indexSrv, err := vector.NewIndexService(s.cfg)
	if err != nil {
		return fmt.Errorf("failed to create vector index service: %w", err)
	}

	generator, err := rag.NewGenerator(s.cfg, indexSrv)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	h := handlers.NewServiceHandler(
		service.NewJobService(queueClient, s.store, s.eventWriter),
		service.NewUploadService(s.store, indexSrv),
		service.NewExamService(s.store),
		service.NewWebhookService(s.store, s.eventWriter),
		service.NewChatService(s.store, generator),
	)

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router := chi.NewRouter()

	// Webhook receivers and health stay outside the authenticated surface;
	// the worker posts outcomes without a user token.
	router.Group(func(r chi.Router) {
		r.Use(
			middleware.RequestID,
			middleware.Logger(),
			chiMiddleware.Recoverer,
		)
		r.Get("/health", h.Health)
		h.WebhookRoutes(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(
			metricMiddleware.Handler,
			cors.Handler(cors.Options{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
				MaxAge:           300,
			}),
			authenticator.Authenticator,
			middleware.RequestID,
			middleware.Logger(),
			chiMiddleware.Recoverer,
		)
		h.Routes(r)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
