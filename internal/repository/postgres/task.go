package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
)

type taskRepository struct {
	*BaseRepository
}

func NewTaskRepository(base *BaseRepository) repository.TaskRepository {
	return &taskRepository{BaseRepository: base}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (
			id, user_id, title, description, status, priority,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	task.ID = uuid.New()
	task.CreatedAt = time.Now().UTC()
	task.UpdatedAt = task.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	query := `
		SELECT id, user_id, title, description, status, priority,
			   created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	var task model.Task
	err := r.db.GetContext(ctx, &task, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7 AND deleted_at IS NULL
	`
	task.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Task, error) {
	query := `
		SELECT id, user_id, title, description, status, priority,
			   created_at, updated_at
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	var tasks []*model.Task
	err := r.db.SelectContext(ctx, &tasks, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) SummaryByUser(ctx context.Context, userID uuid.UUID) (*model.TaskSummary, error) {
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			   COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			   COUNT(*) FILTER (WHERE status = 'completed') AS completed
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NULL
	`
	var summary struct {
		Total      int `db:"total"`
		Pending    int `db:"pending"`
		InProgress int `db:"in_progress"`
		Completed  int `db:"completed"`
	}
	if err := r.db.GetContext(ctx, &summary, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get task summary: %w", err)
	}
	return &model.TaskSummary{
		Total:      summary.Total,
		Pending:    summary.Pending,
		InProgress: summary.InProgress,
		Completed:  summary.Completed,
	}, nil
}

func (r *taskRepository) FindOverdue(ctx context.Context, cutoff time.Time) ([]*model.Task, error) {
	query := `
		SELECT id, user_id, title, description, status, priority,
			   created_at, updated_at
		FROM tasks
		WHERE status = 'pending'
		AND created_at < $1
		AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var tasks []*model.Task
	err := r.db.SelectContext(ctx, &tasks, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) FindOpenForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]*model.Task, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID][]*model.Task{}, nil
	}

	query := `
		SELECT id, user_id, title, description, status, priority,
			   created_at, updated_at
		FROM tasks
		WHERE user_id = ANY($1)
		AND status IN ('pending', 'in_progress')
		AND deleted_at IS NULL
		ORDER BY user_id, created_at DESC
	`
	var tasks []*model.Task
	err := r.db.SelectContext(ctx, &tasks, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to find open tasks: %w", err)
	}

	grouped := make(map[uuid.UUID][]*model.Task, len(userIDs))
	for _, t := range tasks {
		grouped[t.UserID] = append(grouped[t.UserID], t)
	}
	return grouped, nil
}

func (r *taskRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM tasks
		WHERE status = 'completed'
		AND created_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old completed tasks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
