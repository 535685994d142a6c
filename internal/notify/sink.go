package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/store"
)

// Sink receives generated notifications. Implementations must be
// fire-and-forget: a failing sink never fails the operation that produced
// the message.
type Sink interface {
	Notify(ctx context.Context, recipientID int64, message string)
}

// StoreSink persists notifications as rows for later pickup.
type StoreSink struct {
	Store *store.Store
}

func (s StoreSink) Notify(ctx context.Context, recipientID int64, message string) {
	if err := s.Store.CreateNotification(ctx, recipientID, message); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Int64("recipient_id", recipientID).
			Msg("Failed to store notification")
	}
}
