package model

import (
	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type Task struct {
	Base
	UserID      uuid.UUID    `db:"user_id" json:"user_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description,omitempty"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
}

type CreateTaskRequest struct {
	Title       string       `json:"title" binding:"required,max=255"`
	Description string       `json:"description" binding:"max=2000"`
	Status      TaskStatus   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
}

type UpdateTaskRequest struct {
	Title       *string       `json:"title" binding:"omitempty,max=255"`
	Description *string       `json:"description" binding:"omitempty,max=2000"`
	Status      *TaskStatus   `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *TaskPriority `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// TaskSummary holds per-status counts for a single user.
type TaskSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// UserTasks groups a user's open tasks for the digest reminder.
type UserTasks struct {
	User  *User
	Tasks []*Task
}
