package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

var (
	ErrNotOrganizer = errors.New("only the organizer may modify a meeting")
	ErrLeadTooLong  = errors.New("reminder lead time exceeds the reminder lookahead window")
)

const (
	defaultDurationMinutes = 60
	defaultReminderMinutes = 15
)

type Service struct {
	repo     repository.MeetingRepository
	userRepo repository.UserRepository
	// maxLeadMinutes bounds per-meeting reminder lead times to the reminder
	// engine's lookahead. Without this bound a meeting with a longer lead
	// would never be picked up by the candidate query.
	maxLeadMinutes int
	logger         *logger.Logger
}

func NewService(repo repository.MeetingRepository, userRepo repository.UserRepository, maxLeadMinutes int, lg *logger.Logger) *Service {
	return &Service{
		repo:           repo,
		userRepo:       userRepo,
		maxLeadMinutes: maxLeadMinutes,
		logger:         lg,
	}
}

func (s *Service) CreateMeeting(ctx context.Context, userID uuid.UUID, req *model.CreateMeetingRequest) (*model.Meeting, error) {
	meeting := &model.Meeting{
		CreatedBy:       userID,
		Title:           req.Title,
		Description:     req.Description,
		MeetingDate:     req.MeetingDate.UTC(),
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		MeetingURL:      req.MeetingURL,
		ReminderMinutes: req.ReminderMinutes,
		MeetingType:     req.MeetingType,
		Status:          model.MeetingStatusScheduled,
		IsActive:        true,
	}
	if meeting.DurationMinutes == 0 {
		meeting.DurationMinutes = defaultDurationMinutes
	}
	if meeting.ReminderMinutes == 0 {
		meeting.ReminderMinutes = defaultReminderMinutes
	}
	if meeting.MeetingType == "" {
		meeting.MeetingType = model.MeetingTypeInPerson
	}
	if meeting.ReminderMinutes > s.maxLeadMinutes {
		return nil, fmt.Errorf("%w: %d > %d minutes", ErrLeadTooLong, meeting.ReminderMinutes, s.maxLeadMinutes)
	}

	if err := s.repo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.addParticipantsByEmail(ctx, meeting.ID, req.ParticipantEmails)
	return meeting, nil
}

// addParticipantsByEmail resolves emails to users and attaches them as
// attendees. Unknown addresses are logged and skipped, matching invite
// semantics where a typo should not fail the whole meeting.
func (s *Service) addParticipantsByEmail(ctx context.Context, meetingID uuid.UUID, emails []string) {
	for _, email := range emails {
		user, err := s.userRepo.GetByEmail(ctx, email)
		if err != nil {
			s.logger.Warn("participant email not found, skipping", "email", email)
			continue
		}
		if err := s.repo.AddParticipant(ctx, meetingID, user.ID, model.ParticipantRoleAttendee, model.ResponseStatusPending); err != nil {
			s.logger.Error(err, "failed to add participant", "email", email)
		}
	}
}

func (s *Service) GetMeeting(ctx context.Context, id, userID uuid.UUID) (*model.Meeting, error) {
	return s.repo.GetForUser(ctx, id, userID)
}

func (s *Service) ListMeetings(ctx context.Context, userID uuid.UUID, status *model.MeetingStatus, p *model.Pagination) ([]*model.Meeting, int, error) {
	p.Normalize()
	return s.repo.ListByOrganizer(ctx, userID, status, p)
}

func (s *Service) ListUpcoming(ctx context.Context, userID uuid.UUID, hoursAhead int) ([]*model.Meeting, error) {
	if hoursAhead <= 0 {
		hoursAhead = 24
	}
	now := time.Now().UTC()
	return s.repo.ListUpcoming(ctx, userID, now, now.Add(time.Duration(hoursAhead)*time.Hour))
}

func (s *Service) UpdateMeeting(ctx context.Context, id, userID uuid.UUID, req *model.UpdateMeetingRequest) (*model.Meeting, error) {
	meeting, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.CreatedBy != userID {
		return nil, ErrNotOrganizer
	}

	if req.Title != nil {
		meeting.Title = *req.Title
	}
	if req.Description != nil {
		meeting.Description = *req.Description
	}
	if req.MeetingDate != nil {
		meeting.MeetingDate = req.MeetingDate.UTC()
	}
	if req.DurationMinutes != nil {
		meeting.DurationMinutes = *req.DurationMinutes
	}
	if req.Location != nil {
		meeting.Location = *req.Location
	}
	if req.MeetingURL != nil {
		meeting.MeetingURL = *req.MeetingURL
	}
	if req.ReminderMinutes != nil {
		if *req.ReminderMinutes > s.maxLeadMinutes {
			return nil, fmt.Errorf("%w: %d > %d minutes", ErrLeadTooLong, *req.ReminderMinutes, s.maxLeadMinutes)
		}
		meeting.ReminderMinutes = *req.ReminderMinutes
	}
	if req.Status != nil {
		meeting.Status = *req.Status
	}

	if err := s.repo.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}
	return meeting, nil
}

func (s *Service) DeleteMeeting(ctx context.Context, id, userID uuid.UUID) error {
	meeting, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if meeting.CreatedBy != userID {
		return ErrNotOrganizer
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListParticipants(ctx context.Context, meetingID, userID uuid.UUID) ([]*model.Participant, error) {
	if _, err := s.repo.GetForUser(ctx, meetingID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListParticipants(ctx, meetingID)
}
