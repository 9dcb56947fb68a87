package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/taskward/internal/handlers/render"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
		})
	})
}

// NotFoundHandler keeps unknown paths on the same json error contract
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, "Not found", http.StatusNotFound)
	})
}
