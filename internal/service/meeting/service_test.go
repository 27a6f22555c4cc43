package meeting

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

type fakeMeetingRepo struct {
	meetings     map[uuid.UUID]*model.Meeting
	participants map[uuid.UUID][]uuid.UUID
	deleted      []uuid.UUID
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{
		meetings:     make(map[uuid.UUID]*model.Meeting),
		participants: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeMeetingRepo) Create(_ context.Context, m *model.Meeting) error {
	m.ID = uuid.New()
	f.meetings[m.ID] = m
	f.participants[m.ID] = append(f.participants[m.ID], m.CreatedBy)
	return nil
}

func (f *fakeMeetingRepo) Get(_ context.Context, id uuid.UUID) (*model.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func (f *fakeMeetingRepo) GetForUser(ctx context.Context, id, _ uuid.UUID) (*model.Meeting, error) {
	return f.Get(ctx, id)
}

func (f *fakeMeetingRepo) Update(_ context.Context, m *model.Meeting) error {
	f.meetings[m.ID] = m
	return nil
}

func (f *fakeMeetingRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.meetings, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMeetingRepo) ListByOrganizer(_ context.Context, _ uuid.UUID, _ *model.MeetingStatus, _ *model.Pagination) ([]*model.Meeting, int, error) {
	return nil, 0, nil
}

func (f *fakeMeetingRepo) ListUpcoming(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*model.Meeting, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) AddParticipant(_ context.Context, meetingID, userID uuid.UUID, _ model.ParticipantRole, _ model.ResponseStatus) error {
	f.participants[meetingID] = append(f.participants[meetingID], userID)
	return nil
}

func (f *fakeMeetingRepo) ListParticipants(_ context.Context, _ uuid.UUID) ([]*model.Participant, error) {
	return nil, nil
}

func (f *fakeMeetingRepo) FindInWindow(_ context.Context, _, _ time.Time) ([]*model.MeetingCandidate, error) {
	return nil, nil
}

type fakeUserRepo struct {
	byEmail map[string]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (f *fakeUserRepo) Get(_ context.Context, _ uuid.UUID) (*model.User, error) {
	return nil, errors.New("not found")
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (f *fakeUserRepo) ListActivePage(_ context.Context, _, _ int) ([]*model.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) RefreshStatistics(_ context.Context) (int64, error) { return 0, nil }

func newTestService(repo *fakeMeetingRepo, users *fakeUserRepo) *Service {
	lg := logger.NewLogger(&logger.Config{Output: io.Discard})
	return NewService(repo, users, 30, lg)
}

func TestCreateMeetingDefaults(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := newTestService(repo, &fakeUserRepo{})

	organizer := uuid.New()
	m, err := svc.CreateMeeting(context.Background(), organizer, &model.CreateMeetingRequest{
		Title:       "planning",
		MeetingDate: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 60, m.DurationMinutes)
	assert.Equal(t, 15, m.ReminderMinutes)
	assert.Equal(t, model.MeetingTypeInPerson, m.MeetingType)
	assert.Equal(t, model.MeetingStatusScheduled, m.Status)
	assert.True(t, m.IsActive)
	// The organizer is enrolled as a participant on create.
	assert.Contains(t, repo.participants[m.ID], organizer)
}

func TestCreateMeetingRejectsLongLead(t *testing.T) {
	svc := newTestService(newFakeMeetingRepo(), &fakeUserRepo{})

	_, err := svc.CreateMeeting(context.Background(), uuid.New(), &model.CreateMeetingRequest{
		Title:           "planning",
		MeetingDate:     time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		ReminderMinutes: 45,
	})

	assert.ErrorIs(t, err, ErrLeadTooLong)
}

func TestCreateMeetingLeadAtBoundary(t *testing.T) {
	svc := newTestService(newFakeMeetingRepo(), &fakeUserRepo{})

	m, err := svc.CreateMeeting(context.Background(), uuid.New(), &model.CreateMeetingRequest{
		Title:           "planning",
		MeetingDate:     time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		ReminderMinutes: 30,
	})

	require.NoError(t, err)
	assert.Equal(t, 30, m.ReminderMinutes)
}

func TestCreateMeetingSkipsUnknownParticipantEmails(t *testing.T) {
	repo := newFakeMeetingRepo()
	known := &model.User{Username: "known", Email: "known@example.com", IsActive: true}
	known.ID = uuid.New()
	users := &fakeUserRepo{byEmail: map[string]*model.User{"known@example.com": known}}
	svc := newTestService(repo, users)

	organizer := uuid.New()
	m, err := svc.CreateMeeting(context.Background(), organizer, &model.CreateMeetingRequest{
		Title:             "planning",
		MeetingDate:       time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
		ParticipantEmails: []string{"known@example.com", "typo@example.com"},
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{organizer, known.ID}, repo.participants[m.ID])
}

func TestUpdateMeetingOrganizerOnly(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := newTestService(repo, &fakeUserRepo{})

	organizer := uuid.New()
	m, err := svc.CreateMeeting(context.Background(), organizer, &model.CreateMeetingRequest{
		Title:       "planning",
		MeetingDate: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	title := "renamed"
	_, err = svc.UpdateMeeting(context.Background(), m.ID, uuid.New(), &model.UpdateMeetingRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotOrganizer)

	updated, err := svc.UpdateMeeting(context.Background(), m.ID, organizer, &model.UpdateMeetingRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestUpdateMeetingRejectsLongLead(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := newTestService(repo, &fakeUserRepo{})

	organizer := uuid.New()
	m, err := svc.CreateMeeting(context.Background(), organizer, &model.CreateMeetingRequest{
		Title:       "planning",
		MeetingDate: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	lead := 120
	_, err = svc.UpdateMeeting(context.Background(), m.ID, organizer, &model.UpdateMeetingRequest{ReminderMinutes: &lead})
	assert.ErrorIs(t, err, ErrLeadTooLong)
}

func TestDeleteMeetingOrganizerOnly(t *testing.T) {
	repo := newFakeMeetingRepo()
	svc := newTestService(repo, &fakeUserRepo{})

	organizer := uuid.New()
	m, err := svc.CreateMeeting(context.Background(), organizer, &model.CreateMeetingRequest{
		Title:       "planning",
		MeetingDate: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteMeeting(context.Background(), m.ID, uuid.New()), ErrNotOrganizer)
	require.NoError(t, svc.DeleteMeeting(context.Background(), m.ID, organizer))
	assert.Contains(t, repo.deleted, m.ID)
}
