package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryRecord is an append-only fact that a reminder delivery was
// attempted for an (entity, recipient) pair. Rows are only inserted and
// range-scanned, never updated.
type DeliveryRecord struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	EntityID    uuid.UUID      `db:"entity_id" json:"entity_id"`
	RecipientID uuid.UUID      `db:"recipient_id" json:"recipient_id"`
	Channel     string         `db:"channel" json:"channel"`
	Status      DeliveryStatus `db:"status" json:"status"`
	SentAt      time.Time      `db:"sent_at" json:"sent_at"`
}
