package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/taskdash/taskdash-api/internal/config"
	"github.com/taskdash/taskdash-api/pkg/logger"
	"github.com/taskdash/taskdash-api/pkg/metrics"
)

// JobState is the lifecycle of a single job invocation. A job always
// returns to idle before its next trigger; completed/failed report the
// outcome of the most recent run.
type JobState string

const (
	JobStateIdle      JobState = "idle"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Engine is the trigger source plus lifecycle for the reminder job set.
// Jobs are mutually independent: each has its own schedule, its own
// no-self-overlap lock, and a failure in one never reaches another. The
// engine has no distributed coordination; a single active instance is
// assumed.
type Engine struct {
	cron    *cron.Cron
	jobs    *Jobs
	cfg     config.ReminderConfig
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	states     map[string]JobState
	registered bool
	started    bool
}

func NewEngine(cfg config.ReminderConfig, jobs *Jobs, lg *logger.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithParser(cron.NewParser(
				cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
			)),
		),
		jobs:    jobs,
		cfg:     cfg,
		logger:  lg,
		metrics: m,
		states:  make(map[string]JobState),
	}
}

// Start registers the job set and begins accepting trigger ticks. It is
// idempotent; a second call on a running engine is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}
	if !e.registered {
		if err := e.register(); err != nil {
			return err
		}
		e.registered = true
	}

	e.cron.Start()
	e.started = true
	e.logger.Info("reminder engine started", "jobs", len(e.states))
	return nil
}

// Stop halts new trigger ticks, then blocks until in-flight job runs have
// finished so no send is left un-recorded. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.mu.Unlock()

	ctx := e.cron.Stop()
	<-ctx.Done()
	e.logger.Info("reminder engine stopped")
}

// States reports the most recent lifecycle state of every job.
func (e *Engine) States() map[string]JobState {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]JobState, len(e.states))
	for name, s := range e.states {
		out[name] = s
	}
	return out
}

func (e *Engine) register() error {
	entries := []struct {
		name     string
		schedule string
		body     func(context.Context) error
	}{
		{"meeting_reminders", every(e.cfg.PollInterval), e.jobs.MeetingReminders},
		{"task_reminders", "@every 2h", e.jobs.OverdueTaskReminders},
		{"task_digests", "0 */12 * * *", e.jobs.TaskDigests},
		{"daily_summaries", fmt.Sprintf("0 %d * * *", e.cfg.SummaryHour), e.jobs.DailySummaries},
		{"cleanup", fmt.Sprintf("0 %d * * *", e.cfg.CleanupHour), e.jobs.Cleanup},
		{"liveness", "@every 5m", e.jobs.Liveness},
		{"statistics", "@every 1h", e.jobs.StatisticsRefresh},
	}

	for _, entry := range entries {
		if _, err := e.cron.AddJob(entry.schedule, e.wrap(entry.name, entry.body)); err != nil {
			return fmt.Errorf("failed to register job %s: %w", entry.name, err)
		}
		e.states[entry.name] = JobStateIdle
	}
	return nil
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// wrap turns a job body into a cron job that never overlaps itself: a tick
// arriving while the previous run is still in flight is skipped and counted,
// and the next attempt waits for the following tick. Failures are logged and
// counted, never propagated; sibling jobs keep their own schedules.
func (e *Engine) wrap(name string, body func(context.Context) error) cron.Job {
	var running sync.Mutex
	log := e.logger.WithJob(name)

	return cron.FuncJob(func() {
		if !running.TryLock() {
			e.metrics.JobTicksSkipped.WithLabelValues(name).Inc()
			log.Warn("previous run still in flight, skipping tick")
			return
		}
		defer running.Unlock()

		e.setState(name, JobStateRunning)
		timer := prometheus.NewTimer(e.metrics.JobDuration.WithLabelValues(name))
		err := body(context.Background())
		timer.ObserveDuration()

		if err != nil {
			e.setState(name, JobStateFailed)
			e.metrics.JobRuns.WithLabelValues(name, "failed").Inc()
			log.Error(err, "job run failed")
			return
		}
		e.setState(name, JobStateCompleted)
		e.metrics.JobRuns.WithLabelValues(name, "completed").Inc()
	})
}

func (e *Engine) setState(name string, s JobState) {
	e.mu.Lock()
	e.states[name] = s
	e.mu.Unlock()
}
