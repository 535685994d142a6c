package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/store"
)

// SaveAsTemplate snapshots the live bookings of the week starting at
// weekStart into a reusable template. Absolute dates are discarded: each
// slot keeps only its weekday and time-of-day window, plus court, occupant,
// and notes.
func (s *Service) SaveAsTemplate(ctx context.Context, name string, weekStart time.Time) (store.ScheduleTemplate, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Str("template_name", name).
		Time("week_start", weekStart).
		Logger()

	if name == "" {
		return store.ScheduleTemplate{}, failf(KindInvalidInterval, "A template name is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	template := store.ScheduleTemplate{ID: uuid.New(), Name: name}
	from := truncateDate(weekStart)
	to := from.AddDate(0, 0, 7)

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		view, err := liveBookings(ctx, st, 0, from, to)
		if err != nil {
			return fmt.Errorf("load week bookings: %w", err)
		}

		if err := st.CreateScheduleTemplate(ctx, template); err != nil {
			return err
		}
		for _, b := range view {
			if err := st.CreateTemplateSlot(ctx, store.TemplateSlot{
				TemplateID:  template.ID,
				Weekday:     b.StartTime.Weekday(),
				StartHour:   b.StartTime.Hour(),
				StartMinute: b.StartTime.Minute(),
				EndHour:     b.EndTime.Hour(),
				EndMinute:   b.EndTime.Minute(),
				CourtID:     b.CourtID,
				MemberID:    b.MemberID,
				GroupID:     b.GroupID,
				Cost:        b.Cost,
				Notes:       b.Notes,
			}); err != nil {
				return err
			}
		}
		logger.Info().Int("slots", len(view)).Str("decision", "saved").Msg("Saved schedule template")
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to save schedule template")
		return store.ScheduleTemplate{}, err
	}
	return template, nil
}

// ApplyTemplate re-anchors a template's weekday-relative slots onto the week
// starting at targetWeekStart. Every resulting interval is conflict-checked
// before any booking is written; the first conflict aborts the whole
// application, reporting the offending court and date. Applied bookings
// carry zero cost: template application is a scheduling action, not a sale,
// so it never moves credit balances.
func (s *Service) ApplyTemplate(ctx context.Context, templateID uuid.UUID, targetWeekStart time.Time) ([]store.Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Str("template_id", templateID.String()).
		Time("target_week_start", targetWeekStart).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []store.Booking
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		template, err := st.GetScheduleTemplate(ctx, templateID)
		if errors.Is(err, store.ErrNotFound) {
			return failf(KindTemplateNotFound, "Schedule template not found.")
		}
		if err != nil {
			return err
		}
		slots, err := st.ListTemplateSlots(ctx, templateID)
		if err != nil {
			return err
		}

		weekStart := truncateDate(targetWeekStart)
		candidates := make([]store.Booking, 0, len(slots))
		for _, slot := range slots {
			offset := (int(slot.Weekday) - int(weekStart.Weekday()) + 7) % 7
			date := weekStart.AddDate(0, 0, offset)
			candidates = append(candidates, store.Booking{
				ID:        uuid.New(),
				CourtID:   slot.CourtID,
				MemberID:  slot.MemberID,
				GroupID:   slot.GroupID,
				StartTime: combineDateTime(date, slot.StartHour, slot.StartMinute),
				EndTime:   combineDateTime(date, slot.EndHour, slot.EndMinute),
				Notes:     slot.Notes,
			})
		}

		// All-or-nothing: evaluate every candidate against the existing
		// schedule before writing any of them.
		for _, candidate := range candidates {
			conflict, err := checkConflict(ctx, st, candidate.CourtID, candidate.StartTime, candidate.EndTime, ConflictOptions{
				GroupID: candidate.GroupID,
			})
			if err != nil {
				return err
			}
			if conflict != nil {
				return failf(conflict.Kind, "Template '%s' cannot be applied: %s (%s)",
					template.Name, conflict.Message, OccurrenceDate(candidate.StartTime))
			}
		}

		for _, candidate := range candidates {
			if err := st.CreateBooking(ctx, candidate); err != nil {
				return err
			}
		}
		created = candidates
		return nil
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Template application rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to apply schedule template")
		}
		return nil, err
	}

	logger.Info().Int("created", len(created)).Str("decision", "applied").Msg("Applied schedule template")
	return created, nil
}

// DeleteTemplate removes a saved template and its slots. Bookings already
// created from it are untouched.
func (s *Service) DeleteTemplate(ctx context.Context, templateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store
		if _, err := st.GetScheduleTemplate(ctx, templateID); errors.Is(err, store.ErrNotFound) {
			return failf(KindTemplateNotFound, "Schedule template not found.")
		} else if err != nil {
			return err
		}
		return st.DeleteScheduleTemplate(ctx, templateID)
	})
}
