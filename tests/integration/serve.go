package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskward/internal/handlers"
	"github.com/nkiryanov/taskward/internal/logger"
	"github.com/nkiryanov/taskward/internal/repository/postgres"
	"github.com/nkiryanov/taskward/internal/service/auth"
	"github.com/nkiryanov/taskward/internal/service/auth/tokencodec"
	"github.com/nkiryanov/taskward/internal/service/task"
	"github.com/nkiryanov/taskward/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	TaskService *task.TaskService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		codec, err := tokencodec.New(tokencodec.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token codec should be created without errors")

		as, err := auth.NewService(auth.Config{BcryptCost: 4}, codec, storage)
		require.NoError(t, err, "auth service starting error")

		ts := task.NewService(storage)

		// Complete all together as router and run http server in transaction
		router := handlers.NewRouter(as, ts, logger.NewNoOpLogger())
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			TaskService: ts,
		})
	})
}
