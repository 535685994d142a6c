package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/store"
)

// ItemKind discriminates schedule entries so consumers switch exhaustively
// instead of probing row shape.
type ItemKind string

const (
	ItemBooking ItemKind = "booking"
	ItemBlocked ItemKind = "blocked"
)

// ScheduleItem is a tagged union: exactly one of Booking or Blocked is set,
// selected by Kind.
type ScheduleItem struct {
	Kind    ItemKind
	Booking *store.Booking
	Blocked *store.BlockedSlot
}

func (i ScheduleItem) start() time.Time {
	if i.Kind == ItemBlocked {
		return i.Blocked.StartTime
	}
	return i.Booking.StartTime
}

// Schedule returns the materialized view over [from, to): live bookings
// (stored rows plus rule-generated instances) and blocked slots, ordered by
// start time. Reads never observe a partially committed mutation.
func (s *Service) Schedule(ctx context.Context, from, to time.Time) ([]ScheduleItem, error) {
	if f := validateInterval(from, to); f != nil {
		return nil, f
	}
	st := s.db.Store

	view, err := liveBookings(ctx, st, 0, from, to)
	if err != nil {
		return nil, fmt.Errorf("load live bookings: %w", err)
	}
	blocked, err := st.ListBlockedSlotsOverlapping(ctx, store.ListBlockedSlotsOverlappingParams{
		StartTime: from,
		EndTime:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("load blocked slots: %w", err)
	}

	items := make([]ScheduleItem, 0, len(view)+len(blocked))
	for i := range view {
		items = append(items, ScheduleItem{Kind: ItemBooking, Booking: &view[i]})
	}
	for i := range blocked {
		items = append(items, ScheduleItem{Kind: ItemBlocked, Blocked: &blocked[i]})
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].start().Before(items[b].start())
	})
	return items, nil
}

// UpcomingSessions returns live sessions starting within [from, to): stored
// bookings plus rule-generated instances, ordered by start time. Unlike
// Schedule it filters on start time, not overlap, so a session already in
// progress at from is not included.
func (s *Service) UpcomingSessions(ctx context.Context, from, to time.Time) ([]store.Booking, error) {
	if f := validateInterval(from, to); f != nil {
		return nil, f
	}
	view, err := liveBookings(ctx, s.db.Store, 0, from, to)
	if err != nil {
		return nil, fmt.Errorf("load live bookings: %w", err)
	}

	sessions := make([]store.Booking, 0, len(view))
	for _, b := range view {
		if !b.StartTime.Before(from) && b.StartTime.Before(to) {
			sessions = append(sessions, b)
		}
	}
	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].StartTime.Before(sessions[b].StartTime)
	})
	return sessions, nil
}

// MaterializeRule expands one rule over [from, to] (zero values mean the full
// series range), applying its stored exceptions.
func (s *Service) MaterializeRule(ctx context.Context, ruleID uuid.UUID, from, to time.Time) ([]store.Booking, error) {
	st := s.db.Store

	rule, err := st.GetRecurringRule(ctx, ruleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, failf(KindRuleNotFound, "Recurring rule not found.")
	}
	if err != nil {
		return nil, err
	}
	exceptions, err := st.ListExceptionsForRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	return MaterializeInstances(rule, exceptions, from, to), nil
}
