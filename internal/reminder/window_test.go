package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerInstant(t *testing.T) {
	due := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, due.Add(-15*time.Minute), TriggerInstant(due, 15*time.Minute))
	assert.Equal(t, due, TriggerInstant(due, 0))
}

func TestIsDue(t *testing.T) {
	due := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	lead := 15 * time.Minute
	tolerance := 30 * time.Second
	trigger := due.Add(-lead)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at trigger", trigger, true},
		{"tolerance before trigger", trigger.Add(-30 * time.Second), true},
		{"tolerance after trigger", trigger.Add(30 * time.Second), true},
		{"just outside before", trigger.Add(-31 * time.Second), false},
		{"just outside after", trigger.Add(31 * time.Second), false},
		{"at the due instant", due, false},
		{"well before", trigger.Add(-10 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.now, due, lead, tolerance))
		})
	}
}

func TestIsDueZeroLead(t *testing.T) {
	due := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(due, due, 0, 30*time.Second))
	assert.True(t, IsDue(due.Add(-20*time.Second), due, 0, 30*time.Second))
	assert.False(t, IsDue(due.Add(-time.Minute), due, 0, 30*time.Second))
}
