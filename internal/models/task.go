package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// ParseTaskStatus normalizes user provided status value
func ParseTaskStatus(value string) (TaskStatus, error) {
	switch TaskStatus(strings.ToUpper(strings.TrimSpace(value))) {
	case TaskStatusTodo:
		return TaskStatusTodo, nil
	case TaskStatusInProgress:
		return TaskStatusInProgress, nil
	case TaskStatusDone:
		return TaskStatusDone, nil
	default:
		return "", fmt.Errorf("unknown task status: %q", value)
	}
}

// Next returns the status the task moves to on toggle
// One step per call: TODO -> IN_PROGRESS -> DONE -> TODO
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskStatusTodo:
		return TaskStatusInProgress
	case TaskStatusInProgress:
		return TaskStatusDone
	default:
		return TaskStatusTodo
	}
}

type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
