package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filters and paging for listing, already validated by the HTTP layer
type ListParams struct {
	Page   int
	Limit  int
	Status *models.TaskStatus
	Search string
}

type ListResult struct {
	Tasks      []models.Task
	Total      int64
	Page       int
	TotalPages int64
}

type CreateParams struct {
	Title       string
	Description string
	Status      *models.TaskStatus
}

// Fields to change, nil fields are left untouched
type UpdateParams struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

// TaskService is ownership checked CRUD over tasks
// Only the owner may see or touch a task, the storage layer doesn't care
type TaskService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TaskService {
	return &TaskService{storage: storage}
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, params ListParams) (ListResult, error) {
	if params.Page < 1 {
		params.Page = DefaultPage
	}
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}

	tasks, total, err := s.storage.Task().ListTasks(ctx, userID, repository.ListTasksParams{
		Status: params.Status,
		Search: strings.TrimSpace(params.Search),
		Offset: (params.Page - 1) * params.Limit,
		Limit:  params.Limit,
	})
	if err != nil {
		return ListResult{}, err
	}

	// Even an empty list is "one page" long
	totalPages := (total + int64(params.Limit) - 1) / int64(params.Limit)
	if totalPages < 1 {
		totalPages = 1
	}

	return ListResult{
		Tasks:      tasks,
		Total:      total,
		Page:       params.Page,
		TotalPages: totalPages,
	}, nil
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return models.Task{}, apperrors.ErrTitleRequired
	}

	status := models.TaskStatusTodo
	if params.Status != nil {
		status = *params.Status
	}

	now := time.Now().Truncate(time.Second)

	return s.storage.Task().CreateTask(ctx, models.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *TaskService) GetByID(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (models.Task, error) {
	return s.getOwned(ctx, userID, taskID)
}

func (s *TaskService) Update(ctx context.Context, userID uuid.UUID, taskID uuid.UUID, params UpdateParams) (models.Task, error) {
	if params.Title == nil && params.Description == nil && params.Status == nil {
		return models.Task{}, apperrors.ErrNoFieldsToUpdate
	}

	if _, err := s.getOwned(ctx, userID, taskID); err != nil {
		return models.Task{}, err
	}

	return s.storage.Task().UpdateTask(ctx, taskID, repository.UpdateTaskParams{
		Title:       params.Title,
		Description: params.Description,
		Status:      params.Status,
	})
}

func (s *TaskService) Delete(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, taskID); err != nil {
		return err
	}

	return s.storage.Task().DeleteTask(ctx, taskID)
}

// ToggleStatus moves the task one step around the status cycle
func (s *TaskService) ToggleStatus(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (models.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	next := task.Status.Next()

	return s.storage.Task().UpdateTask(ctx, taskID, repository.UpdateTaskParams{Status: &next})
}

// getOwned fetches the task and checks ownership, in that order
// A foreign task id always reads as access denied, not as not found
func (s *TaskService) getOwned(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (models.Task, error) {
	task, err := s.storage.Task().GetTaskByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if task.UserID != userID {
		return models.Task{}, apperrors.ErrTaskAccessDenied
	}

	return task, nil
}
