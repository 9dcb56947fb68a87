package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/taskward/internal/handlers/render"
	"github.com/nkiryanov/taskward/internal/handlers/userctx"
	"github.com/nkiryanov/taskward/internal/models"
)

type authService interface {
	// Resolve the user behind the request's Bearer access token
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid access token and puts the
// resolved user into the request context
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				render.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
