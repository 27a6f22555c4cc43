package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/pkg/metrics"
)

type fakeMeetingSource struct {
	candidates []*model.MeetingCandidate
	err        error
}

func (f *fakeMeetingSource) FindInWindow(_ context.Context, _, _ time.Time) ([]*model.MeetingCandidate, error) {
	return f.candidates, f.err
}

type fakeTaskSource struct {
	overdue       []*model.Task
	open          map[uuid.UUID][]*model.Task
	summaries     map[uuid.UUID]*model.TaskSummary
	deleted       int64
	cutoff        time.Time
	overdueCutoff time.Time
	err           error
}

// FindOverdue applies the same created-before-cutoff filter as the real
// query so tests can stage tasks on both sides of the threshold.
func (f *fakeTaskSource) FindOverdue(_ context.Context, cutoff time.Time) ([]*model.Task, error) {
	f.overdueCutoff = cutoff
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.Task
	for _, t := range f.overdue {
		if t.Status == model.TaskStatusPending && t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskSource) FindOpenForUsers(_ context.Context, _ []uuid.UUID) (map[uuid.UUID][]*model.Task, error) {
	return f.open, f.err
}

func (f *fakeTaskSource) SummaryByUser(_ context.Context, userID uuid.UUID) (*model.TaskSummary, error) {
	if s, ok := f.summaries[userID]; ok {
		return s, nil
	}
	return &model.TaskSummary{}, nil
}

func (f *fakeTaskSource) DeleteCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

type fakeUserSource struct {
	fakePager
	refreshed int64
}

func (f *fakeUserSource) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeUserSource) RefreshStatistics(_ context.Context) (int64, error) {
	return f.refreshed, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

// recordingNotifier captures outbound sends per channel type.
type recordingNotifier struct {
	mu        sync.Mutex
	meetings  []string
	tasks     []string
	digests   []string
	summaries []string
	alerts    []string
	err       error
}

func (n *recordingNotifier) SendMeetingReminder(_ context.Context, to, _ string, _ *model.Meeting) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.meetings = append(n.meetings, to)
	return nil
}

func (n *recordingNotifier) SendTaskNotification(_ context.Context, to, _ string, _ *model.Task) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.tasks = append(n.tasks, to)
	return nil
}

func (n *recordingNotifier) SendTaskDigest(_ context.Context, to, _ string, _ []*model.Task) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.digests = append(n.digests, to)
	return nil
}

func (n *recordingNotifier) SendDailySummary(_ context.Context, to, _ string, _ *model.TaskSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.summaries = append(n.summaries, to)
	return nil
}

func (n *recordingNotifier) SendAlert(_ context.Context, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, subject)
	return nil
}

func testReminderConfig() config.ReminderConfig {
	return config.ReminderConfig{
		Enabled:           true,
		PollInterval:      time.Minute,
		Tolerance:         30 * time.Second,
		SuppressionWindow: time.Hour,
		Lookahead:         30 * time.Minute,
		PageSize:          100,
		SendTimeout:       time.Second,
		PageDelay:         time.Millisecond,
		OverdueAfter:      24 * time.Hour,
		CleanupRetention:  30 * 24 * time.Hour,
		SummaryHour:       9,
		CleanupHour:       2,
	}
}

type jobsFixture struct {
	jobs     *Jobs
	meetings *fakeMeetingSource
	tasks    *fakeTaskSource
	users    *fakeUserSource
	pinger   *fakePinger
	notifier *recordingNotifier
	log      *memoryDeliveryLog
}

func newJobsFixture(t *testing.T, now time.Time) *jobsFixture {
	t.Helper()

	f := &jobsFixture{
		meetings: &fakeMeetingSource{},
		tasks:    &fakeTaskSource{},
		users:    &fakeUserSource{},
		pinger:   &fakePinger{},
		notifier: &recordingNotifier{},
		log:      &memoryDeliveryLog{},
	}

	lg := testLogger()
	guard := NewGuard(f.log, lg)
	guard.now = func() time.Time { return now }

	f.jobs = NewJobs(testReminderConfig(), f.meetings, f.tasks, f.users, f.pinger, guard, f.notifier, lg, metrics.NewUnregistered("test"))
	f.jobs.now = func() time.Time { return now }
	return f
}

func meetingAt(date time.Time, reminderMinutes int, participants ...*model.Participant) *model.MeetingCandidate {
	m := &model.Meeting{
		Title:           "standup",
		MeetingDate:     date,
		ReminderMinutes: reminderMinutes,
		Status:          model.MeetingStatusScheduled,
		IsActive:        true,
	}
	m.ID = uuid.New()
	return &model.MeetingCandidate{Meeting: m, Participants: participants}
}

func participant(email string) *model.Participant {
	return &model.Participant{UserID: uuid.New(), Username: email, Email: email}
}

func TestMeetingRemindersSendsWhenDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 45, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	// Trigger instant is exactly now: meeting at 15:00, 15 minute lead.
	due := meetingAt(now.Add(15*time.Minute), 15, participant("a@example.com"), participant("b@example.com"))
	// Trigger instant is 25 minutes away, inside the lookahead but not due.
	early := meetingAt(now.Add(40*time.Minute), 15, participant("c@example.com"))
	f.meetings.candidates = []*model.MeetingCandidate{due, early}

	require.NoError(t, f.jobs.MeetingReminders(context.Background()))

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, f.notifier.meetings)
	assert.Equal(t, 2, f.log.count(model.DeliveryStatusSent))
}

func TestMeetingRemindersSecondRunIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 45, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	f.meetings.candidates = []*model.MeetingCandidate{
		meetingAt(now.Add(15*time.Minute), 15, participant("a@example.com")),
	}

	require.NoError(t, f.jobs.MeetingReminders(context.Background()))
	require.NoError(t, f.jobs.MeetingReminders(context.Background()))

	assert.Len(t, f.notifier.meetings, 1)
	assert.Equal(t, 1, f.log.count(model.DeliveryStatusSent))
}

func TestMeetingRemindersFailedSendRetriesNextRun(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 45, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	f.meetings.candidates = []*model.MeetingCandidate{
		meetingAt(now.Add(15*time.Minute), 15, participant("a@example.com")),
	}

	f.notifier.err = errors.New("smtp unavailable")
	require.NoError(t, f.jobs.MeetingReminders(context.Background()))

	assert.Empty(t, f.notifier.meetings)
	assert.Equal(t, 0, f.log.count(model.DeliveryStatusSent))
	assert.Equal(t, 1, f.log.count(model.DeliveryStatusFailed))

	// A failed record never suppresses; the next run delivers.
	f.notifier.err = nil
	require.NoError(t, f.jobs.MeetingReminders(context.Background()))
	assert.Len(t, f.notifier.meetings, 1)
	assert.Equal(t, 1, f.log.count(model.DeliveryStatusSent))
}

func TestMeetingRemindersQueryErrorAborts(t *testing.T) {
	f := newJobsFixture(t, time.Now().UTC())
	f.meetings.err = errors.New("db down")

	assert.Error(t, f.jobs.MeetingReminders(context.Background()))
}

func TestOverdueTaskReminders(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	owner := makeUsers(1)[0]
	f.users.users = []*model.User{owner}

	stale := &model.Task{UserID: owner.ID, Title: "write report", Status: model.TaskStatusPending}
	stale.ID = uuid.New()
	stale.CreatedAt = now.Add(-25 * time.Hour)

	// Pending for 23 hours: under the threshold, must stay quiet.
	fresh := &model.Task{UserID: owner.ID, Title: "draft slides", Status: model.TaskStatusPending}
	fresh.ID = uuid.New()
	fresh.CreatedAt = now.Add(-23 * time.Hour)

	f.tasks.overdue = []*model.Task{stale, fresh}

	require.NoError(t, f.jobs.OverdueTaskReminders(context.Background()))

	assert.Equal(t, now.Add(-24*time.Hour), f.tasks.overdueCutoff)
	assert.Equal(t, []string{owner.Email}, f.notifier.tasks)
	assert.Equal(t, 1, f.log.count(model.DeliveryStatusSent))

	// Within the suppression window a second run stays quiet.
	require.NoError(t, f.jobs.OverdueTaskReminders(context.Background()))
	assert.Len(t, f.notifier.tasks, 1)
}

func TestOverdueTaskRemindersSkipsInactiveOwner(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	owner := makeUsers(1)[0]
	owner.IsActive = false
	f.users.users = []*model.User{owner}

	stale := &model.Task{UserID: owner.ID, Status: model.TaskStatusPending}
	stale.ID = uuid.New()
	f.tasks.overdue = []*model.Task{stale}

	require.NoError(t, f.jobs.OverdueTaskReminders(context.Background()))
	assert.Empty(t, f.notifier.tasks)
}

func TestTaskDigestsSkipUsersWithNoOpenTasks(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	users := makeUsers(3)
	f.users.users = users

	task := &model.Task{UserID: users[0].ID, Title: "open item", Status: model.TaskStatusPending}
	task.ID = uuid.New()
	f.tasks.open = map[uuid.UUID][]*model.Task{users[0].ID: {task}}

	require.NoError(t, f.jobs.TaskDigests(context.Background()))

	assert.Equal(t, []string{users[0].Email}, f.notifier.digests)
	assert.Equal(t, 1, f.log.count(model.DeliveryStatusSent))
}

func TestTaskDigestsSecondRunSuppressed(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	users := makeUsers(1)
	f.users.users = users
	task := &model.Task{UserID: users[0].ID, Status: model.TaskStatusPending}
	task.ID = uuid.New()
	f.tasks.open = map[uuid.UUID][]*model.Task{users[0].ID: {task}}

	require.NoError(t, f.jobs.TaskDigests(context.Background()))
	require.NoError(t, f.jobs.TaskDigests(context.Background()))

	assert.Len(t, f.notifier.digests, 1)
}

func TestDailySummaries(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)

	users := makeUsers(2)
	f.users.users = users
	f.tasks.summaries = map[uuid.UUID]*model.TaskSummary{
		users[0].ID: {Total: 5, Pending: 2, Completed: 3},
	}

	require.NoError(t, f.jobs.DailySummaries(context.Background()))

	assert.ElementsMatch(t, []string{users[0].Email, users[1].Email}, f.notifier.summaries)
	assert.Equal(t, 2, f.log.count(model.DeliveryStatusSent))
}

func TestCleanupPassesRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)
	f.tasks.deleted = 7

	require.NoError(t, f.jobs.Cleanup(context.Background()))

	assert.Equal(t, now.Add(-30*24*time.Hour), f.tasks.cutoff)
}

func TestLivenessHealthy(t *testing.T) {
	f := newJobsFixture(t, time.Now().UTC())

	require.NoError(t, f.jobs.Liveness(context.Background()))
	assert.Empty(t, f.notifier.alerts)
}

func TestLivenessAlertsOnceThenThrottles(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	f := newJobsFixture(t, now)
	f.pinger.err = errors.New("connection refused")

	assert.Error(t, f.jobs.Liveness(context.Background()))
	assert.Len(t, f.notifier.alerts, 1)

	// Still failing five minutes later: the probe error surfaces but no
	// second alert goes out inside the throttle window.
	f.jobs.now = func() time.Time { return now.Add(5 * time.Minute) }
	assert.Error(t, f.jobs.Liveness(context.Background()))
	assert.Len(t, f.notifier.alerts, 1)

	// Past the window the alert fires again.
	f.jobs.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.Error(t, f.jobs.Liveness(context.Background()))
	assert.Len(t, f.notifier.alerts, 2)
}

func TestStatisticsRefresh(t *testing.T) {
	f := newJobsFixture(t, time.Now().UTC())
	f.users.refreshed = 42

	require.NoError(t, f.jobs.StatisticsRefresh(context.Background()))
}
