package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nkiryanov/taskward/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with normalized email
	// If user with the email exists already has to return apperrors.ErrEmailTaken
	CreateUser(ctx context.Context, email string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
// The auth service owns rotation logic, the repo merely persists records
type RefreshTokenRepo interface {
	// Save token record
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists, expired or not
	// If no record exists must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete record by its token string
	// Must be idempotent: no error when nothing matched
	DeleteByToken(ctx context.Context, tokenString string) error

	// Delete all records owned by the user, returns number of deleted rows
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Filters and paging for task listing
// Status and Search narrow the list when set, Offset/Limit page it
type ListTasksParams struct {
	Status *models.TaskStatus
	Search string
	Offset int
	Limit  int
}

// Fields to change on update, nil fields are left untouched
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

// Task repository interface
type TaskRepo interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// If task not found must return apperrors.ErrTaskNotFound
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error)

	// List user tasks newest first, and count all matched rows ignoring paging
	ListTasks(ctx context.Context, userID uuid.UUID, params ListTasksParams) ([]models.Task, int64, error)

	// If task not found must return apperrors.ErrTaskNotFound
	UpdateTask(ctx context.Context, taskID uuid.UUID, params UpdateTaskParams) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

// Storage combines repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Task() TaskRepo

	// Run fn inside a database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
