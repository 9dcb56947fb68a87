package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/repository"
)

type TaskRepo struct {
	DB DBTX
}

const createTask = `-- name: CreateTask
INSERT INTO tasks (id, user_id, title, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, title, description, status, created_at, updated_at
`

func (r *TaskRepo) CreateTask(ctx context.Context, task models.Task) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, createTask,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.CreatedAt, task.UpdatedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToTask)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTaskByID = `-- name: GetTaskByID
SELECT id, user_id, title, description, status, created_at, updated_at
FROM tasks
WHERE id = $1
`

func (r *TaskRepo) GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, getTaskByID, taskID)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

// Optional filters are passed as nullable args so the query text stays constant
const listTasks = `-- name: ListTasks
SELECT id, user_id, title, description, status, created_at, updated_at
FROM tasks
WHERE user_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR title ILIKE '%' || $3 || '%')
ORDER BY created_at DESC
OFFSET $4 LIMIT $5
`

const countTasks = `-- name: CountTasks
SELECT count(*)
FROM tasks
WHERE user_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR title ILIKE '%' || $3 || '%')
`

func (r *TaskRepo) ListTasks(ctx context.Context, userID uuid.UUID, params repository.ListTasksParams) ([]models.Task, int64, error) {
	var status *string
	if params.Status != nil {
		status = (*string)(params.Status)
	}

	var search *string
	if params.Search != "" {
		search = &params.Search
	}

	rows, _ := r.DB.Query(ctx, listTasks, userID, status, search, params.Offset, params.Limit)
	tasks, err := pgx.CollectRows(rows, rowToTask)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	countRows, _ := r.DB.Query(ctx, countTasks, userID, status, search)
	total, err := pgx.CollectOneRow(countRows, pgx.RowTo[int64])
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return tasks, total, nil
}

const updateTask = `-- name: UpdateTask
UPDATE tasks
SET title       = COALESCE($2, title),
    description = COALESCE($3, description),
    status      = COALESCE($4, status),
    updated_at  = now()
WHERE id = $1
RETURNING id, user_id, title, description, status, created_at, updated_at
`

func (r *TaskRepo) UpdateTask(ctx context.Context, taskID uuid.UUID, params repository.UpdateTaskParams) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, updateTask, taskID, params.Title, params.Description, (*string)(params.Status))
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const deleteTask = `-- name: DeleteTask
DELETE FROM tasks
WHERE id = $1
`

func (r *TaskRepo) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTask, taskID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}

	return nil
}

func rowToTask(row pgx.CollectableRow) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
