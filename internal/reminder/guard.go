package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

// Delivery channels. Each job records under its own channel so one job's
// suppression window never swallows another job's notification for the same
// (entity, recipient) pair.
const (
	ChannelMeetingReminder = "meeting_reminder"
	ChannelTaskReminder    = "task_reminder"
	ChannelTaskDigest      = "task_digest"
	ChannelDailySummary    = "daily_summary"
)

// Guard prevents re-sending a notification for the same
// (entity, recipient, channel) key within the suppression window. It is a
// check-then-act guard with no atomic claim step: two overlapping poll
// cycles can both pass the check before either records. The trigger source
// prevents a job from overlapping itself, so this stays a best-effort,
// not linearizable, exactly-once.
type Guard struct {
	log    repository.DeliveryRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewGuard(log repository.DeliveryRepository, lg *logger.Logger) *Guard {
	return &Guard{
		log:    log,
		logger: lg,
		now:    time.Now,
	}
}

// AlreadyNotified reports whether a sent record exists for the key within
// the suppression window. It fails closed: if the delivery log cannot be
// read, the entity is treated as already notified so an unbounded stream of
// duplicates can never result from a degraded store. The error is logged
// and does not affect other entities in the poll cycle.
func (g *Guard) AlreadyNotified(ctx context.Context, entityID, recipientID uuid.UUID, channel string, within time.Duration) bool {
	since := g.now().UTC().Add(-within)
	sent, err := g.log.SentSince(ctx, entityID, recipientID, channel, since)
	if err != nil {
		g.logger.Error(err, "delivery log read failed, suppressing send",
			"entity_id", entityID.String(),
			"recipient_id", recipientID.String(),
			"channel", channel)
		return true
	}
	return sent
}

// RecordSent appends a sent record. A failure here is surfaced to the
// caller: a send that cannot be recorded must count as a failed delivery,
// otherwise the next poll tick re-sends it.
func (g *Guard) RecordSent(ctx context.Context, entityID, recipientID uuid.UUID, channel string) error {
	return g.log.Insert(ctx, &model.DeliveryRecord{
		EntityID:    entityID,
		RecipientID: recipientID,
		Channel:     channel,
		Status:      model.DeliveryStatusSent,
		SentAt:      g.now().UTC(),
	})
}

// RecordFailed appends a failed record, best effort. Failed records are
// never consulted by AlreadyNotified; they exist for the historical log.
func (g *Guard) RecordFailed(ctx context.Context, entityID, recipientID uuid.UUID, channel string) {
	err := g.log.Insert(ctx, &model.DeliveryRecord{
		EntityID:    entityID,
		RecipientID: recipientID,
		Channel:     channel,
		Status:      model.DeliveryStatusFailed,
		SentAt:      g.now().UTC(),
	})
	if err != nil {
		g.logger.Error(err, "failed to record delivery failure",
			"entity_id", entityID.String(),
			"recipient_id", recipientID.String())
	}
}
