package reminder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/pkg/logger"
)

// memoryDeliveryLog is an in-memory stand-in for the delivery_records table.
type memoryDeliveryLog struct {
	mu        sync.Mutex
	records   []*model.DeliveryRecord
	readErr   error
	insertErr error
}

func (m *memoryDeliveryLog) Insert(_ context.Context, rec *model.DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memoryDeliveryLog) SentSince(_ context.Context, entityID, recipientID uuid.UUID, channel string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	for _, r := range m.records {
		if r.EntityID == entityID && r.RecipientID == recipientID && r.Channel == channel &&
			r.Status == model.DeliveryStatusSent && !r.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryDeliveryLog) count(status model.DeliveryStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Status == status {
			n++
		}
	}
	return n
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Output: io.Discard})
}

func TestGuardRecordThenSuppress(t *testing.T) {
	log := &memoryDeliveryLog{}
	g := NewGuard(log, testLogger())

	entity := uuid.New()
	recipient := uuid.New()
	window := time.Hour

	assert.False(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelMeetingReminder, window))

	require.NoError(t, g.RecordSent(context.Background(), entity, recipient, ChannelMeetingReminder))

	assert.True(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelMeetingReminder, window))
}

func TestGuardKeyIsolation(t *testing.T) {
	log := &memoryDeliveryLog{}
	g := NewGuard(log, testLogger())

	entity := uuid.New()
	recipient := uuid.New()
	other := uuid.New()
	window := time.Hour

	require.NoError(t, g.RecordSent(context.Background(), entity, recipient, ChannelMeetingReminder))

	// Different recipient, different entity, different channel: all clean.
	assert.False(t, g.AlreadyNotified(context.Background(), entity, other, ChannelMeetingReminder, window))
	assert.False(t, g.AlreadyNotified(context.Background(), other, recipient, ChannelMeetingReminder, window))
	assert.False(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelTaskDigest, window))
}

func TestGuardWindowExpiry(t *testing.T) {
	log := &memoryDeliveryLog{}
	g := NewGuard(log, testLogger())

	entity := uuid.New()
	recipient := uuid.New()

	sentAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return sentAt }
	require.NoError(t, g.RecordSent(context.Background(), entity, recipient, ChannelTaskReminder))

	// Inside the window the send is suppressed, outside it is not.
	g.now = func() time.Time { return sentAt.Add(59 * time.Minute) }
	assert.True(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelTaskReminder, time.Hour))

	g.now = func() time.Time { return sentAt.Add(2 * time.Hour) }
	assert.False(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelTaskReminder, time.Hour))
}

func TestGuardFailsClosedOnReadError(t *testing.T) {
	log := &memoryDeliveryLog{readErr: errors.New("connection refused")}
	g := NewGuard(log, testLogger())

	assert.True(t, g.AlreadyNotified(context.Background(), uuid.New(), uuid.New(), ChannelMeetingReminder, time.Hour))
}

func TestGuardFailedRecordDoesNotSuppress(t *testing.T) {
	log := &memoryDeliveryLog{}
	g := NewGuard(log, testLogger())

	entity := uuid.New()
	recipient := uuid.New()

	g.RecordFailed(context.Background(), entity, recipient, ChannelTaskDigest)

	assert.False(t, g.AlreadyNotified(context.Background(), entity, recipient, ChannelTaskDigest, time.Hour))
	assert.Equal(t, 1, log.count(model.DeliveryStatusFailed))
}

func TestGuardRecordSentSurfacesWriteError(t *testing.T) {
	log := &memoryDeliveryLog{insertErr: errors.New("disk full")}
	g := NewGuard(log, testLogger())

	err := g.RecordSent(context.Background(), uuid.New(), uuid.New(), ChannelDailySummary)
	assert.Error(t, err)
}
