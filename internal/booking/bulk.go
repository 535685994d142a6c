package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/notify"
	"github.com/rallyclub/courtbook/internal/store"
)

// CancelMultipleBookings cancels a batch of bookings. Only stored rows are
// eligible: plain bookings are removed, exception overrides are
// soft-cancelled in place, and rule-generated virtual instances are silently
// skipped. Paid bookings are refunded. Returns the number cancelled.
func (s *Service) CancelMultipleBookings(ctx context.Context, ids []uuid.UUID) (int, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int("requested", len(ids)).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		for _, id := range ids {
			b, err := st.GetBooking(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			if b.FromRule() {
				if err := st.MarkBookingCancelled(ctx, b.ID); err != nil {
					return err
				}
			} else {
				if err := st.DeleteBooking(ctx, b.ID); err != nil {
					return err
				}
			}
			if err := refundBooking(ctx, st, b); err != nil {
				return err
			}

			court, err := st.GetCourt(ctx, b.CourtID)
			if err != nil {
				return fmt.Errorf("load court %d: %w", b.CourtID, err)
			}
			notifyInTx(ctx, st, b.MemberID, notify.BookingCancelled(notify.BookingDetails{
				CourtName: court.Name,
				Start:     b.StartTime,
				End:       b.EndTime,
			}, b.Cost))
			cancelled++
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to cancel bookings")
		return 0, err
	}

	logger.Info().Int("cancelled", cancelled).Str("decision", "cancelled").Msg("Cancelled bookings")
	return cancelled, nil
}

// MoveMultipleBookings shifts a batch of stored bookings by the offset the
// anchor booking moves: newAnchorStart minus the anchor's current start.
// Every destination is conflict-checked against the schedule with the whole
// batch excluded; one conflict rejects the entire batch and nothing moves.
func (s *Service) MoveMultipleBookings(ctx context.Context, ids []uuid.UUID, anchorID uuid.UUID, newAnchorStart time.Time) error {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int("requested", len(ids)).
		Str("anchor_id", anchorID.String()).
		Time("new_anchor_start", newAnchorStart).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		moving := make([]store.Booking, 0, len(ids))
		excludeIDs := make([]uuid.UUID, 0, len(ids))
		var anchor *store.Booking
		for _, id := range ids {
			b, err := st.GetBooking(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				// Virtual instances are not movable; skip them like bulk
				// cancellation does.
				continue
			}
			if err != nil {
				return err
			}
			moving = append(moving, b)
			excludeIDs = append(excludeIDs, b.ID)
			if b.ID == anchorID {
				anchorCopy := b
				anchor = &anchorCopy
			}
		}
		if anchor == nil {
			return failf(KindBookingNotFound, "Anchor booking not found.")
		}
		delta := newAnchorStart.Sub(anchor.StartTime)

		// Evaluate every destination before mutating anything.
		for _, b := range moving {
			newStart := b.StartTime.Add(delta)
			newEnd := b.EndTime.Add(delta)
			conflict, err := checkConflict(ctx, st, b.CourtID, newStart, newEnd, ConflictOptions{
				ExcludeBookingIDs: excludeIDs,
				GroupID:           b.GroupID,
			})
			if err != nil {
				return err
			}
			if conflict != nil {
				return failf(conflict.Kind, "Cannot move %d bookings: %s", len(moving), conflict.Message)
			}
		}

		for _, b := range moving {
			if err := st.UpdateBooking(ctx, store.UpdateBookingParams{
				ID:        b.ID,
				CourtID:   b.CourtID,
				StartTime: b.StartTime.Add(delta),
				EndTime:   b.EndTime.Add(delta),
				Notes:     b.Notes,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Bulk move rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to move bookings")
		}
		return err
	}

	logger.Info().Str("decision", "moved").Msg("Moved bookings")
	return nil
}
