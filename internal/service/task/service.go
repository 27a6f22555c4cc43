package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
)

type Service struct {
	repo repository.TaskRepository
}

func NewService(repo repository.TaskRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTask(ctx context.Context, userID uuid.UUID, req *model.CreateTaskRequest) (*model.Task, error) {
	task := &model.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = model.TaskPriorityMedium
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *Service) GetTask(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	return s.repo.Get(ctx, id, userID)
}

func (s *Service) ListTasks(ctx context.Context, userID uuid.UUID) ([]*model.Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) UpdateTask(ctx context.Context, id, userID uuid.UUID, req *model.UpdateTaskRequest) (*model.Task, error) {
	task, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*model.TaskSummary, error) {
	return s.repo.SummaryByUser(ctx, userID)
}
