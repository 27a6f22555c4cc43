package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// ListActivePage returns active users ordered by id ascending. The page
	// is (limit, offset); a short page signals the end of the population.
	ListActivePage(ctx context.Context, limit, offset int) ([]*model.User, error)
	RefreshStatistics(ctx context.Context) (int64, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Task, error)
	SummaryByUser(ctx context.Context, userID uuid.UUID) (*model.TaskSummary, error)
	// FindOverdue returns pending tasks created before the cutoff.
	FindOverdue(ctx context.Context, cutoff time.Time) ([]*model.Task, error)
	// FindOpenForUsers returns pending and in-progress tasks for the given
	// users, grouped by owner.
	FindOpenForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]*model.Task, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	Get(ctx context.Context, id uuid.UUID) (*model.Meeting, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Meeting, error)
	Update(ctx context.Context, meeting *model.Meeting) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrganizer(ctx context.Context, userID uuid.UUID, status *model.MeetingStatus, p *model.Pagination) ([]*model.Meeting, int, error)
	ListUpcoming(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*model.Meeting, error)
	AddParticipant(ctx context.Context, meetingID, userID uuid.UUID, role model.ParticipantRole, response model.ResponseStatus) error
	ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]*model.Participant, error)
	// FindInWindow returns active scheduled meetings starting within
	// [from, until], with recipients resolved. Terminal and soft-deleted
	// meetings are excluded.
	FindInWindow(ctx context.Context, from, until time.Time) ([]*model.MeetingCandidate, error)
}

// DeliveryRepository is the append-only reminder delivery log.
type DeliveryRepository interface {
	Insert(ctx context.Context, rec *model.DeliveryRecord) error
	// SentSince reports whether a sent record exists for the
	// (entity, recipient, channel) key at or after the given instant.
	SentSince(ctx context.Context, entityID, recipientID uuid.UUID, channel string, since time.Time) (bool, error)
}

// Pinger is the storage reachability probe used by the liveness job.
type Pinger interface {
	Ping(ctx context.Context) error
}
