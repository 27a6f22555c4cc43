package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdash/taskdash-api/internal/model"
	"github.com/taskdash/taskdash-api/internal/repository"
)

type deliveryRepository struct {
	*BaseRepository
}

func NewDeliveryRepository(base *BaseRepository) repository.DeliveryRepository {
	return &deliveryRepository{BaseRepository: base}
}

func (r *deliveryRepository) Insert(ctx context.Context, rec *model.DeliveryRecord) error {
	query := `
		INSERT INTO delivery_records (
			id, entity_id, recipient_id, channel, status, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	rec.ID = uuid.New()
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.EntityID,
		rec.RecipientID,
		rec.Channel,
		rec.Status,
		rec.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery record: %w", err)
	}
	return nil
}

func (r *deliveryRepository) SentSince(ctx context.Context, entityID, recipientID uuid.UUID, channel string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM delivery_records
			WHERE entity_id = $1
			AND recipient_id = $2
			AND channel = $3
			AND status = 'sent'
			AND sent_at >= $4
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, entityID, recipientID, channel, since)
	if err != nil {
		return false, fmt.Errorf("failed to query delivery records: %w", err)
	}
	return exists, nil
}
