package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/pkg/logger"
	"github.com/taskdash/taskdash-api/pkg/metrics"
)

// MeetingSource is the read-only candidate query for meeting reminders.
type MeetingSource interface {
	FindInWindow(ctx context.Context, from, until time.Time) ([]*model.MeetingCandidate, error)
}

// TaskSource is the read-only candidate query surface for the task jobs,
// plus the retention delete used by cleanup.
type TaskSource interface {
	FindOverdue(ctx context.Context, cutoff time.Time) ([]*model.Task, error)
	FindOpenForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]*model.Task, error)
	SummaryByUser(ctx context.Context, userID uuid.UUID) (*model.TaskSummary, error)
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserSource resolves recipients.
type UserSource interface {
	UserPager
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	RefreshStatistics(ctx context.Context) (int64, error)
}

// Pinger probes storage reachability for the liveness job.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Notifier is the outbound notification channel as the jobs see it:
// fallible, slow, and always called under a deadline. Message formatting
// lives behind it.
type Notifier interface {
	SendMeetingReminder(ctx context.Context, to, name string, meeting *model.Meeting) error
	SendTaskNotification(ctx context.Context, to, name string, task *model.Task) error
	SendTaskDigest(ctx context.Context, to, name string, tasks []*model.Task) error
	SendDailySummary(ctx context.Context, to, name string, summary *model.TaskSummary) error
	SendAlert(ctx context.Context, subject, body string) error
}

// Jobs holds the wiring shared by all scheduled job bodies. Each body is
// stateless between invocations apart from the delivery log, except for the
// liveness alert throttle which must survive a storage outage.
type Jobs struct {
	cfg      config.ReminderConfig
	meetings MeetingSource
	tasks    TaskSource
	users    UserSource
	pinger   Pinger
	guard    *Guard
	notifier Notifier
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	alertMu     sync.Mutex
	lastAlertAt time.Time
}

func NewJobs(
	cfg config.ReminderConfig,
	meetings MeetingSource,
	tasks TaskSource,
	users UserSource,
	pinger Pinger,
	guard *Guard,
	notifier Notifier,
	lg *logger.Logger,
	m *metrics.Metrics,
) *Jobs {
	return &Jobs{
		cfg:      cfg,
		meetings: meetings,
		tasks:    tasks,
		users:    users,
		pinger:   pinger,
		guard:    guard,
		notifier: notifier,
		logger:   lg,
		metrics:  m,
		now:      time.Now,
	}
}

// MeetingReminders scans meetings starting inside the lookahead window and
// notifies every participant whose meeting's trigger instant is within
// tolerance of now and who has not been notified inside the suppression
// window. One failed query aborts the whole invocation (nothing was
// recorded, so the next tick retries from scratch); one failed send only
// loses that recipient.
func (j *Jobs) MeetingReminders(ctx context.Context) error {
	now := j.now().UTC()
	log := j.logger.WithJob("meeting_reminders")

	candidates, err := j.meetings.FindInWindow(ctx, now, now.Add(j.cfg.Lookahead))
	if err != nil {
		return fmt.Errorf("failed to find meeting candidates: %w", err)
	}

	var sent int
	for _, c := range candidates {
		meeting := c.Meeting
		lead := time.Duration(meeting.ReminderMinutes) * time.Minute
		if !IsDue(now, meeting.MeetingDate, lead, j.cfg.Tolerance) {
			continue
		}

		for _, p := range c.Participants {
			if j.guard.AlreadyNotified(ctx, meeting.ID, p.UserID, ChannelMeetingReminder, j.cfg.SuppressionWindow) {
				continue
			}

			if err := j.notifyMeeting(ctx, p, meeting); err != nil {
				j.metrics.RemindersFailed.WithLabelValues("meeting_reminders").Inc()
				j.guard.RecordFailed(ctx, meeting.ID, p.UserID, ChannelMeetingReminder)
				log.Error(err, "failed to send meeting reminder",
					"meeting_id", meeting.ID.String(),
					"email", p.Email)
				continue
			}

			if err := j.guard.RecordSent(ctx, meeting.ID, p.UserID, ChannelMeetingReminder); err != nil {
				log.Error(err, "failed to record meeting reminder",
					"meeting_id", meeting.ID.String(),
					"user_id", p.UserID.String())
				continue
			}
			j.metrics.RemindersSent.WithLabelValues("meeting_reminders").Inc()
			sent++
		}
	}

	log.Info("meeting reminders processed", "candidates", len(candidates), "sent", sent)
	return nil
}

func (j *Jobs) notifyMeeting(ctx context.Context, p *model.Participant, meeting *model.Meeting) error {
	callCtx, cancel := context.WithTimeout(ctx, j.cfg.SendTimeout)
	defer cancel()
	return j.notifier.SendMeetingReminder(callCtx, p.Email, p.Username, meeting)
}

// OverdueTaskReminders notifies task owners about tasks pending longer than
// the staleness threshold. This is a coarser policy than the meeting path:
// tasks are already overdue, not coming due, so there is no lead-time
// window, only the threshold.
func (j *Jobs) OverdueTaskReminders(ctx context.Context) error {
	now := j.now().UTC()
	log := j.logger.WithJob("task_reminders")

	tasks, err := j.tasks.FindOverdue(ctx, now.Add(-j.cfg.OverdueAfter))
	if err != nil {
		return fmt.Errorf("failed to find overdue tasks: %w", err)
	}

	var sent int
	for _, task := range tasks {
		user, err := j.users.Get(ctx, task.UserID)
		if err != nil {
			log.Error(err, "failed to resolve task owner", "task_id", task.ID.String())
			continue
		}
		if !user.IsActive {
			continue
		}

		if j.guard.AlreadyNotified(ctx, task.ID, user.ID, ChannelTaskReminder, j.cfg.SuppressionWindow) {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, j.cfg.SendTimeout)
		err = j.notifier.SendTaskNotification(callCtx, user.Email, user.Username, task)
		cancel()
		if err != nil {
			j.metrics.RemindersFailed.WithLabelValues("task_reminders").Inc()
			j.guard.RecordFailed(ctx, task.ID, user.ID, ChannelTaskReminder)
			log.Error(err, "failed to send task reminder",
				"task_id", task.ID.String(),
				"email", user.Email)
			continue
		}

		if err := j.guard.RecordSent(ctx, task.ID, user.ID, ChannelTaskReminder); err != nil {
			log.Error(err, "failed to record task reminder", "task_id", task.ID.String())
			continue
		}
		j.metrics.RemindersSent.WithLabelValues("task_reminders").Inc()
		sent++
	}

	log.Info("task reminders processed", "overdue", len(tasks), "sent", sent)
	return nil
}

// TaskDigests sends each active user a digest of their open tasks, paging
// through the user population so an arbitrarily large user base never
// exceeds the page-sized query and connection budget.
func (j *Jobs) TaskDigests(ctx context.Context) error {
	log := j.logger.WithJob("task_digests")
	dispatcher := NewDispatcher(j.users, j.cfg.PageSize, j.cfg.SendTimeout, j.cfg.PageDelay, log)

	sent, err := dispatcher.Run(ctx, func(ctx context.Context, page []*model.User) (Attempt, error) {
		ids := make([]uuid.UUID, len(page))
		for i, u := range page {
			ids[i] = u.ID
		}
		openTasks, err := j.tasks.FindOpenForUsers(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch open tasks for page: %w", err)
		}

		return func(ctx context.Context, user *model.User) error {
			tasks := openTasks[user.ID]
			if len(tasks) == 0 {
				return ErrSkipRecipient
			}
			if j.guard.AlreadyNotified(ctx, user.ID, user.ID, ChannelTaskDigest, j.cfg.SuppressionWindow) {
				return ErrSkipRecipient
			}
			if err := j.notifier.SendTaskDigest(ctx, user.Email, user.Username, tasks); err != nil {
				j.metrics.RemindersFailed.WithLabelValues("task_digests").Inc()
				j.guard.RecordFailed(ctx, user.ID, user.ID, ChannelTaskDigest)
				return err
			}
			if err := j.guard.RecordSent(ctx, user.ID, user.ID, ChannelTaskDigest); err != nil {
				return err
			}
			j.metrics.RemindersSent.WithLabelValues("task_digests").Inc()
			return nil
		}, nil
	})
	if err != nil {
		return fmt.Errorf("task digest dispatch failed after %d sends: %w", sent, err)
	}

	log.Info("task digests sent", "count", sent)
	return nil
}

// DailySummaries mails every active user their task counts for the day.
func (j *Jobs) DailySummaries(ctx context.Context) error {
	log := j.logger.WithJob("daily_summaries")
	dispatcher := NewDispatcher(j.users, j.cfg.PageSize, j.cfg.SendTimeout, j.cfg.PageDelay, log)

	sent, err := dispatcher.Run(ctx, func(_ context.Context, _ []*model.User) (Attempt, error) {
		return func(ctx context.Context, user *model.User) error {
			if j.guard.AlreadyNotified(ctx, user.ID, user.ID, ChannelDailySummary, j.cfg.SuppressionWindow) {
				return ErrSkipRecipient
			}
			summary, err := j.tasks.SummaryByUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}
			if err := j.notifier.SendDailySummary(ctx, user.Email, user.Username, summary); err != nil {
				j.metrics.RemindersFailed.WithLabelValues("daily_summaries").Inc()
				j.guard.RecordFailed(ctx, user.ID, user.ID, ChannelDailySummary)
				return err
			}
			if err := j.guard.RecordSent(ctx, user.ID, user.ID, ChannelDailySummary); err != nil {
				return err
			}
			j.metrics.RemindersSent.WithLabelValues("daily_summaries").Inc()
			return nil
		}, nil
	})
	if err != nil {
		return fmt.Errorf("daily summary dispatch failed after %d sends: %w", sent, err)
	}

	log.Info("daily summaries sent", "count", sent)
	return nil
}

// Cleanup deletes completed tasks past the retention period. Deletion, not
// notification.
func (j *Jobs) Cleanup(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.cfg.CleanupRetention)

	deleted, err := j.tasks.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old tasks: %w", err)
	}

	j.logger.WithJob("cleanup").Info("old completed tasks removed",
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339))
	return nil
}

// Liveness probes storage reachability and alerts the admin address when
// the probe fails. The alert throttle lives in memory, not in the delivery
// log: when storage is down the log is down with it, and a fail-closed
// guard read would suppress the very alert that reports the outage.
func (j *Jobs) Liveness(ctx context.Context) error {
	log := j.logger.WithJob("liveness")

	err := j.pinger.Ping(ctx)
	if err == nil {
		log.Debug("health check passed")
		return nil
	}
	log.Error(err, "health check failed")

	now := j.now().UTC()
	j.alertMu.Lock()
	throttled := !j.lastAlertAt.IsZero() && now.Sub(j.lastAlertAt) < j.cfg.SuppressionWindow
	if !throttled {
		j.lastAlertAt = now
	}
	j.alertMu.Unlock()
	if throttled {
		return fmt.Errorf("storage unreachable: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, j.cfg.SendTimeout)
	alertErr := j.notifier.SendAlert(callCtx, "Storage health check failing", err.Error())
	cancel()
	if alertErr != nil {
		log.Error(alertErr, "failed to send liveness alert")
	}

	return fmt.Errorf("storage unreachable: %w", err)
}

// StatisticsRefresh recomputes per-user task counters so summary reads stay
// cheap.
func (j *Jobs) StatisticsRefresh(ctx context.Context) error {
	rows, err := j.users.RefreshStatistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh statistics: %w", err)
	}

	j.logger.WithJob("statistics").Info("user statistics refreshed", "rows", rows)
	return nil
}
