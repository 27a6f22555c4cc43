package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
)

type meetingRepository struct {
	*BaseRepository
}

func NewMeetingRepository(base *BaseRepository) repository.MeetingRepository {
	return &meetingRepository{BaseRepository: base}
}

const meetingColumns = `
	id, created_by, title, description, meeting_date, duration_minutes,
	location, meeting_url, reminder_minutes, meeting_type, status, is_active,
	created_at, updated_at
`

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) error {
	meeting.ID = uuid.New()
	meeting.CreatedAt = time.Now().UTC()
	meeting.UpdatedAt = meeting.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO meetings (` + meetingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err := tx.ExecContext(ctx, query,
			meeting.ID,
			meeting.CreatedBy,
			meeting.Title,
			meeting.Description,
			meeting.MeetingDate,
			meeting.DurationMinutes,
			meeting.Location,
			meeting.MeetingURL,
			meeting.ReminderMinutes,
			meeting.MeetingType,
			meeting.Status,
			meeting.IsActive,
			meeting.CreatedAt,
			meeting.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create meeting: %w", err)
		}

		// Organizer is always a participant.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meeting_participants (meeting_id, user_id, role, response_status)
			VALUES ($1, $2, $3, $4)
		`, meeting.ID, meeting.CreatedBy, model.ParticipantRoleOrganizer, model.ResponseStatusAccepted)
		if err != nil {
			return fmt.Errorf("failed to add organizer participant: %w", err)
		}
		return nil
	})
}

func (r *meetingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1 AND deleted_at IS NULL`
	var meeting model.Meeting
	err := r.db.GetContext(ctx, &meeting, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

func (r *meetingRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Meeting, error) {
	query := `
		SELECT DISTINCT m.id, m.created_by, m.title, m.description, m.meeting_date,
			   m.duration_minutes, m.location, m.meeting_url, m.reminder_minutes,
			   m.meeting_type, m.status, m.is_active, m.created_at, m.updated_at
		FROM meetings m
		LEFT JOIN meeting_participants mp ON mp.meeting_id = m.id
		WHERE m.id = $1
		AND (m.created_by = $2 OR mp.user_id = $2)
		AND m.deleted_at IS NULL
	`
	var meeting model.Meeting
	err := r.db.GetContext(ctx, &meeting, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *model.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $1, description = $2, meeting_date = $3, duration_minutes = $4,
			location = $5, meeting_url = $6, reminder_minutes = $7, status = $8,
			is_active = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	meeting.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		meeting.Title,
		meeting.Description,
		meeting.MeetingDate,
		meeting.DurationMinutes,
		meeting.Location,
		meeting.MeetingURL,
		meeting.ReminderMinutes,
		meeting.Status,
		meeting.IsActive,
		meeting.UpdatedAt,
		meeting.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
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

func (r *meetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Participants and delivery records cascade at the schema level.
	result, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
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

func (r *meetingRepository) ListByOrganizer(ctx context.Context, userID uuid.UUID, status *model.MeetingStatus, p *model.Pagination) ([]*model.Meeting, int, error) {
	countQuery := `SELECT COUNT(*) FROM meetings WHERE created_by = $1 AND deleted_at IS NULL`
	listQuery := `SELECT ` + meetingColumns + ` FROM meetings WHERE created_by = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}

	if status != nil {
		countQuery += ` AND status = $2`
		listQuery += ` AND status = $2`
		args = append(args, *status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	listQuery += fmt.Sprintf(" ORDER BY meeting_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	var meetings []*model.Meeting
	if err := r.db.SelectContext(ctx, &meetings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

func (r *meetingRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*model.Meeting, error) {
	query := `
		SELECT DISTINCT m.id, m.created_by, m.title, m.description, m.meeting_date,
			   m.duration_minutes, m.location, m.meeting_url, m.reminder_minutes,
			   m.meeting_type, m.status, m.is_active, m.created_at, m.updated_at
		FROM meetings m
		JOIN meeting_participants mp ON mp.meeting_id = m.id
		WHERE mp.user_id = $1
		AND m.meeting_date >= $2
		AND m.meeting_date <= $3
		AND m.status = 'scheduled'
		AND m.deleted_at IS NULL
		ORDER BY m.meeting_date ASC
	`
	var meetings []*model.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, userID, from, until); err != nil {
		return nil, fmt.Errorf("failed to list upcoming meetings: %w", err)
	}
	return meetings, nil
}

func (r *meetingRepository) AddParticipant(ctx context.Context, meetingID, userID uuid.UUID, role model.ParticipantRole, response model.ResponseStatus) error {
	query := `
		INSERT INTO meeting_participants (meeting_id, user_id, role, response_status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (meeting_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, meetingID, userID, role, response); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *meetingRepository) ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]*model.Participant, error) {
	query := `
		SELECT u.id AS user_id, u.username, u.email, mp.role, mp.response_status
		FROM meeting_participants mp
		JOIN users u ON u.id = mp.user_id
		WHERE mp.meeting_id = $1
		ORDER BY u.id ASC
	`
	var participants []*model.Participant
	if err := r.db.SelectContext(ctx, &participants, query, meetingID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (r *meetingRepository) FindInWindow(ctx context.Context, from, until time.Time) ([]*model.MeetingCandidate, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE meeting_date BETWEEN $1 AND $2
		AND status = 'scheduled'
		AND is_active = true
		AND deleted_at IS NULL
		ORDER BY meeting_date ASC
	`
	var meetings []*model.Meeting
	if err := r.db.SelectContext(ctx, &meetings, query, from, until); err != nil {
		return nil, fmt.Errorf("failed to find meetings in window: %w", err)
	}

	candidates := make([]*model.MeetingCandidate, 0, len(meetings))
	for _, m := range meetings {
		participants, err := r.ListParticipants(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, &model.MeetingCandidate{
			Meeting:      m,
			Participants: participants,
		})
	}
	return candidates, nil
}
