package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/store"
)

// ConflictOptions narrows a conflict check. ExcludeBookingID ignores the
// booking being edited; ExcludeRuleID ignores every instance of a rule being
// edited; GroupID enables coach double-booking detection.
type ConflictOptions struct {
	ExcludeBookingID  uuid.UUID
	ExcludeBookingIDs []uuid.UUID
	ExcludeRuleID     uuid.UUID
	GroupID           int64
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	// Half-open intervals: touching endpoints do not conflict.
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// liveBookings returns the materialized view of live bookings overlapping
// [start, end): stored rows (plain bookings and override exceptions) plus
// rule-generated default instances, deduplicated by instance identity.
// courtID of 0 spans all courts.
func liveBookings(ctx context.Context, st *store.Store, courtID int64, start, end time.Time) ([]store.Booking, error) {
	stored, err := st.ListBookingsOverlapping(ctx, store.ListBookingsOverlappingParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(stored))
	view := make([]store.Booking, 0, len(stored))
	for _, b := range stored {
		seen[b.ID] = struct{}{}
		view = append(view, b)
	}

	rules, err := st.ListRecurringRules(ctx)
	if err != nil {
		return nil, err
	}
	// Overrides may land on neighboring dates, so materialize one day around
	// the candidate window.
	windowFrom := start.AddDate(0, 0, -1)
	windowTo := end.AddDate(0, 0, 1)
	for _, rule := range rules {
		if courtID != 0 && rule.CourtID != courtID {
			continue
		}
		exceptions, err := st.ListExceptionsForRule(ctx, rule.ID)
		if err != nil {
			return nil, err
		}
		for _, inst := range MaterializeInstances(rule, exceptions, windowFrom, windowTo) {
			if !overlaps(inst.StartTime, inst.EndTime, start, end) {
				continue
			}
			if courtID != 0 && inst.CourtID != courtID {
				continue
			}
			if _, ok := seen[inst.ID]; ok {
				continue
			}
			seen[inst.ID] = struct{}{}
			view = append(view, inst)
		}
	}
	return view, nil
}

func excluded(b store.Booking, opts ConflictOptions) bool {
	if opts.ExcludeBookingID != uuid.Nil && b.ID == opts.ExcludeBookingID {
		return true
	}
	for _, id := range opts.ExcludeBookingIDs {
		if b.ID == id {
			return true
		}
	}
	if opts.ExcludeRuleID != uuid.Nil && b.RuleID == opts.ExcludeRuleID {
		return true
	}
	return false
}

// checkConflict evaluates the candidate interval in strict precedence order:
// court overlap, then blocked slot, then coach double-booking. The first hit
// closes the result; a nil Failure means the slot is free.
func checkConflict(ctx context.Context, st *store.Store, courtID int64, start, end time.Time, opts ConflictOptions) (*Failure, error) {
	court, err := st.GetCourt(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("load court %d: %w", courtID, err)
	}

	view, err := liveBookings(ctx, st, courtID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load live bookings: %w", err)
	}
	for _, existing := range view {
		if excluded(existing, opts) {
			continue
		}
		if overlaps(existing.StartTime, existing.EndTime, start, end) {
			return failf(KindCourtConflict, "%s is already booked at this time.", court.Name), nil
		}
	}

	blocked, err := st.ListBlockedSlotsOverlapping(ctx, store.ListBlockedSlotsOverlappingParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("load blocked slots: %w", err)
	}
	if len(blocked) > 0 {
		return failf(KindBlockedConflict, "%s is blocked for %s at this time.", court.Name, blocked[0].Reason), nil
	}

	if opts.GroupID != 0 {
		return checkCoachConflict(ctx, st, start, end, opts)
	}
	return nil, nil
}

// checkCoachConflict reports whether the coach of the group being scheduled
// already has an overlapping live booking with another of their groups, on
// any court.
func checkCoachConflict(ctx context.Context, st *store.Store, start, end time.Time, opts ConflictOptions) (*Failure, error) {
	coach, err := st.GetGroupCoach(ctx, opts.GroupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve group coach: %w", err)
	}

	coached, err := st.ListGroupsCoachedBy(ctx, coach.ID)
	if err != nil {
		return nil, fmt.Errorf("list coached groups: %w", err)
	}
	otherGroups := make(map[int64]string, len(coached))
	for _, g := range coached {
		if g.ID != opts.GroupID {
			otherGroups[g.ID] = g.Name
		}
	}
	if len(otherGroups) == 0 {
		return nil, nil
	}

	view, err := liveBookings(ctx, st, 0, start, end)
	if err != nil {
		return nil, fmt.Errorf("load live bookings: %w", err)
	}
	for _, existing := range view {
		groupName, ok := otherGroups[existing.GroupID]
		if !ok || excluded(existing, opts) {
			continue
		}
		if !overlaps(existing.StartTime, existing.EndTime, start, end) {
			continue
		}
		court, err := st.GetCourt(ctx, existing.CourtID)
		if err != nil {
			return nil, fmt.Errorf("load court %d: %w", existing.CourtID, err)
		}
		return failf(KindCoachConflict, "Coach %s is already scheduled with '%s' on %s at this time.", coach.Name, groupName, court.Name), nil
	}
	return nil, nil
}
