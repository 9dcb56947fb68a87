package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"

	"github.com/nkiryanov/taskward/internal/db"
	"github.com/nkiryanov/taskward/internal/handlers"
	"github.com/nkiryanov/taskward/internal/handlers/render"
	"github.com/nkiryanov/taskward/internal/logger"
	"github.com/nkiryanov/taskward/internal/repository/postgres"
	"github.com/nkiryanov/taskward/internal/service/auth"
	"github.com/nkiryanov/taskward/internal/service/auth/tokencodec"
	"github.com/nkiryanov/taskward/internal/service/task"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Dev environment exposes internal error details in 500 bodies
	render.Debug = c.Environment == logger.EnvDevelopment

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{BcryptCost: c.BcryptCost}, codec, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	taskService := task.NewService(storage)

	mux := handlers.NewRouter(authService, taskService, logger)

	// Browser clients live on another origin and send credentials
	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   []string{c.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    corsMiddleware(mux),
		logger:     logger,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
