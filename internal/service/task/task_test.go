package task

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/repository/postgres"
	"github.com/nkiryanov/taskward/internal/testutil"
)

func Test_TaskService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction, create the service and a couple of users
	// Rollback transaction when test stops
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *TaskService, owner uuid.UUID, stranger uuid.UUID)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			owner, err := storage.User().CreateUser(t.Context(), "owner@example.com", "hash")
			require.NoError(t, err)
			stranger, err := storage.User().CreateUser(t.Context(), "stranger@example.com", "hash")
			require.NoError(t, err)

			fn(NewService(storage), owner.ID, stranger.ID)
		})
	}

	mustCreate := func(t *testing.T, s *TaskService, userID uuid.UUID, params CreateParams) models.Task {
		t.Helper()
		task, err := s.Create(t.Context(), userID, params)
		require.NoError(t, err, "task should be created without errors")
		return task
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("defaults to TODO", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				task := mustCreate(t, s, owner, CreateParams{Title: "  buy milk  "})

				assert.Equal(t, "buy milk", task.Title, "title should be trimmed")
				assert.Equal(t, models.TaskStatusTodo, task.Status)
				assert.Equal(t, owner, task.UserID)
				assert.Empty(t, task.Description)
			})
		})

		t.Run("explicit status kept", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				status := models.TaskStatusDone
				task := mustCreate(t, s, owner, CreateParams{Title: "done already", Status: &status})

				assert.Equal(t, models.TaskStatusDone, task.Status)
			})
		})

		t.Run("empty title fails", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				_, err := s.Create(t.Context(), owner, CreateParams{Title: "   "})

				require.ErrorIs(t, err, apperrors.ErrTitleRequired)
			})
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("only own tasks, newest first", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, stranger uuid.UUID) {
				mustCreate(t, s, owner, CreateParams{Title: "first"})
				mustCreate(t, s, owner, CreateParams{Title: "second"})
				mustCreate(t, s, stranger, CreateParams{Title: "not yours"})

				result, err := s.List(t.Context(), owner, ListParams{})

				require.NoError(t, err)
				require.EqualValues(t, 2, result.Total)
				require.Len(t, result.Tasks, 2)
				for _, task := range result.Tasks {
					assert.Equal(t, owner, task.UserID)
				}
			})
		})

		t.Run("filter by status", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				done := models.TaskStatusDone
				mustCreate(t, s, owner, CreateParams{Title: "open one"})
				mustCreate(t, s, owner, CreateParams{Title: "closed one", Status: &done})

				result, err := s.List(t.Context(), owner, ListParams{Status: &done})

				require.NoError(t, err)
				require.EqualValues(t, 1, result.Total)
				require.Len(t, result.Tasks, 1)
				assert.Equal(t, "closed one", result.Tasks[0].Title)
			})
		})

		t.Run("search is case insensitive substring", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				mustCreate(t, s, owner, CreateParams{Title: "Write REPORT for Q3"})
				mustCreate(t, s, owner, CreateParams{Title: "walk the dog"})

				result, err := s.List(t.Context(), owner, ListParams{Search: "report"})

				require.NoError(t, err)
				require.Len(t, result.Tasks, 1)
				assert.Equal(t, "Write REPORT for Q3", result.Tasks[0].Title)
			})
		})

		t.Run("pagination math", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				for range 5 {
					mustCreate(t, s, owner, CreateParams{Title: "task"})
				}

				result, err := s.List(t.Context(), owner, ListParams{Page: 1, Limit: 2})
				require.NoError(t, err)
				assert.Len(t, result.Tasks, 2)
				assert.EqualValues(t, 5, result.Total)
				assert.EqualValues(t, 3, result.TotalPages)

				last, err := s.List(t.Context(), owner, ListParams{Page: 3, Limit: 2})
				require.NoError(t, err)
				assert.Len(t, last.Tasks, 1)
			})
		})

		t.Run("page past the end is empty but still one page minimum", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				for range 5 {
					mustCreate(t, s, owner, CreateParams{Title: "task"})
				}

				result, err := s.List(t.Context(), owner, ListParams{Page: 3, Limit: 10})

				require.NoError(t, err)
				assert.Empty(t, result.Tasks)
				assert.EqualValues(t, 5, result.Total)
				assert.EqualValues(t, 1, result.TotalPages)
			})
		})

		t.Run("no tasks at all", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				result, err := s.List(t.Context(), owner, ListParams{})

				require.NoError(t, err)
				assert.Empty(t, result.Tasks)
				assert.EqualValues(t, 0, result.Total)
				assert.EqualValues(t, 1, result.TotalPages, "totalPages is 1 even when nothing matched")
			})
		})
	})

	t.Run("GetByID", func(t *testing.T) {
		t.Run("own task ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "mine"})

				got, err := s.GetByID(t.Context(), owner, created.ID)

				require.NoError(t, err)
				assert.Equal(t, created.ID, got.ID)
			})
		})

		t.Run("missing task is not found", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				_, err := s.GetByID(t.Context(), owner, uuid.New())

				require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
			})
		})

		t.Run("foreign task is denied, not hidden", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, stranger uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "mine"})

				_, err := s.GetByID(t.Context(), stranger, created.ID)

				require.ErrorIs(t, err, apperrors.ErrTaskAccessDenied, "existence check runs before ownership check")
			})
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("applies only supplied fields", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "old title", Description: "keep me"})

				title := "new title"
				updated, err := s.Update(t.Context(), owner, created.ID, UpdateParams{Title: &title})

				require.NoError(t, err)
				assert.Equal(t, "new title", updated.Title)
				assert.Equal(t, "keep me", updated.Description, "untouched field should survive")
				assert.Equal(t, created.Status, updated.Status)
			})
		})

		t.Run("no fields supplied fails", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "task"})

				_, err := s.Update(t.Context(), owner, created.ID, UpdateParams{})

				require.ErrorIs(t, err, apperrors.ErrNoFieldsToUpdate)
			})
		})

		t.Run("foreign task denied", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, stranger uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "task"})

				title := "hijacked"
				_, err := s.Update(t.Context(), stranger, created.ID, UpdateParams{Title: &title})

				require.ErrorIs(t, err, apperrors.ErrTaskAccessDenied)
			})
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("own task ok", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "to remove"})

				require.NoError(t, s.Delete(t.Context(), owner, created.ID))

				_, err := s.GetByID(t.Context(), owner, created.ID)
				require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
			})
		})

		t.Run("foreign task denied", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, stranger uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "task"})

				err := s.Delete(t.Context(), stranger, created.ID)

				require.ErrorIs(t, err, apperrors.ErrTaskAccessDenied)

				_, err = s.GetByID(t.Context(), owner, created.ID)
				require.NoError(t, err, "task should still exist")
			})
		})
	})

	t.Run("ToggleStatus", func(t *testing.T) {
		t.Run("full cycle returns to start", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, _ uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "task"})
				require.Equal(t, models.TaskStatusTodo, created.Status)

				expected := []models.TaskStatus{
					models.TaskStatusInProgress,
					models.TaskStatusDone,
					models.TaskStatusTodo,
				}
				for _, want := range expected {
					task, err := s.ToggleStatus(t.Context(), owner, created.ID)
					require.NoError(t, err)
					require.Equal(t, want, task.Status)
				}
			})
		})

		t.Run("foreign task denied", func(t *testing.T) {
			withTx(pg.Pool, t, func(s *TaskService, owner, stranger uuid.UUID) {
				created := mustCreate(t, s, owner, CreateParams{Title: "task"})

				_, err := s.ToggleStatus(t.Context(), stranger, created.ID)

				require.ErrorIs(t, err, apperrors.ErrTaskAccessDenied)
			})
		})
	})
}
