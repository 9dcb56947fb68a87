package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskward/internal/apperrors"
	"github.com/nkiryanov/taskward/internal/handlers/render"
	"github.com/nkiryanov/taskward/internal/handlers/userctx"
	"github.com/nkiryanov/taskward/internal/logger"
	"github.com/nkiryanov/taskward/internal/models"
	"github.com/nkiryanov/taskward/internal/service/task"
)

type taskService interface {
	List(ctx context.Context, userID uuid.UUID, params task.ListParams) (task.ListResult, error)
	Create(ctx context.Context, userID uuid.UUID, params task.CreateParams) (models.Task, error)
	GetByID(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (models.Task, error)
	Update(ctx context.Context, userID uuid.UUID, taskID uuid.UUID, params task.UpdateParams) (models.Task, error)
	Delete(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) error
	ToggleStatus(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (models.Task, error)
}

type TaskHandler struct {
	taskService taskService
	logger      logger.Logger
}

type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UserID      uuid.UUID `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int64          `json:"totalPages"`
}

func NewTask(taskService taskService, logger logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

func (h *TaskHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", h.list)
	mux.HandleFunc("POST /tasks", h.create)
	mux.HandleFunc("GET /tasks/{id}", h.get)
	mux.HandleFunc("PUT /tasks/{id}", h.update)
	mux.HandleFunc("DELETE /tasks/{id}", h.delete)
	mux.HandleFunc("PUT /tasks/{id}/toggle", h.toggle)
	mux.Handle("/", NotFoundHandler())

	return mux
}

func taskResponse(t models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Pull required request bits and render the error when they are broken
func (h *TaskHandler) requestUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		h.logger.Error("no user in request context", "uri", r.RequestURI)
		render.InternalError(w, nil)
	}
	return user, ok
}

func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Error(w, "Invalid task id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// positiveQueryInt parses an optional positive integer query param
func positiveQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}

	page, err := positiveQueryInt(r, "page", task.DefaultPage)
	if err != nil {
		render.Error(w, "Invalid 'page' query parameter", http.StatusBadRequest)
		return
	}

	limit, err := positiveQueryInt(r, "limit", task.DefaultLimit)
	if err != nil {
		render.Error(w, "Invalid 'limit' query parameter", http.StatusBadRequest)
		return
	}
	if limit > task.MaxLimit {
		render.Error(w, fmt.Sprintf("Limit cannot exceed %d", task.MaxLimit), http.StatusBadRequest)
		return
	}

	params := task.ListParams{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseTaskStatus(raw)
		if err != nil {
			render.Error(w, "Invalid status value", http.StatusBadRequest)
			return
		}
		params.Status = &status
	}

	result, err := h.taskService.List(r.Context(), user.ID, params)
	if err != nil {
		h.logger.Error("task listing failed", "err", err)
		render.InternalError(w, err)
		return
	}

	res := TaskListResponse{
		Tasks:      make([]TaskResponse, 0, len(result.Tasks)),
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}
	for _, t := range result.Tasks {
		res.Tasks = append(res.Tasks, taskResponse(t))
	}

	render.JSON(w, res)
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateRequest struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
		Status      string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	}

	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}

	data, err := render.BindAndValidate[CreateRequest](w, r)
	if err != nil {
		return
	}

	params := task.CreateParams{
		Title:       data.Title,
		Description: data.Description,
	}
	if data.Status != "" {
		status := models.TaskStatus(data.Status)
		params.Status = &status
	}

	created, err := h.taskService.Create(r.Context(), user.ID, params)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTitleRequired):
			render.Error(w, "Task title is required", http.StatusBadRequest)
		default:
			h.logger.Error("task creation failed", "err", err)
			render.InternalError(w, err)
		}
		return
	}

	render.JSONWithStatus(w, taskResponse(created), http.StatusCreated)
}

func (h *TaskHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, err := h.taskService.GetByID(r.Context(), user.ID, taskID)
	if err != nil {
		h.renderTaskError(w, err)
		return
	}

	render.JSON(w, taskResponse(t))
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	type UpdateRequest struct {
		Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		Status      *string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	}

	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	data, err := render.BindAndValidate[UpdateRequest](w, r)
	if err != nil {
		return
	}

	params := task.UpdateParams{
		Title:       data.Title,
		Description: data.Description,
	}
	if data.Status != nil {
		status := models.TaskStatus(*data.Status)
		params.Status = &status
	}

	updated, err := h.taskService.Update(r.Context(), user.ID, taskID, params)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoFieldsToUpdate):
			render.Error(w, "No valid fields provided for update", http.StatusBadRequest)
		default:
			h.renderTaskError(w, err)
		}
		return
	}

	render.JSON(w, taskResponse(updated))
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), user.ID, taskID); err != nil {
		h.renderTaskError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) toggle(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requestUser(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, err := h.taskService.ToggleStatus(r.Context(), user.ID, taskID)
	if err != nil {
		h.renderTaskError(w, err)
		return
	}

	render.JSON(w, taskResponse(t))
}

func (h *TaskHandler) renderTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrTaskNotFound):
		render.Error(w, "Task not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTaskAccessDenied):
		render.Error(w, "Access to task denied", http.StatusForbidden)
	default:
		h.logger.Error("task operation failed", "err", err)
		render.InternalError(w, err)
	}
}
