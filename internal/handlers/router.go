package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/taskward/internal/handlers/middleware"
	"github.com/nkiryanov/taskward/internal/logger"
	"github.com/nkiryanov/taskward/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type routerAuthService interface {
	authService

	// Required by the auth middleware
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

func NewRouter(
	authService routerAuthService,
	taskService taskService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	authHandler := NewAuth(authService, logger)
	taskHandler := NewTask(taskService, logger)

	root := http.NewServeMux()
	root.Handle("/auth/", authHandler.Handler())
	root.Handle("/tasks", withAuth(taskHandler.Handler()))
	root.Handle("/tasks/", withAuth(taskHandler.Handler()))
	root.Handle("GET /health", HealthHandler())
	root.Handle("/", NotFoundHandler())

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}
