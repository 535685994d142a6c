package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rallyclub/courtbook/internal/credits"
	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/directory"
	"github.com/rallyclub/courtbook/internal/notify"
	"github.com/rallyclub/courtbook/internal/store"
)

// PaymentMethod tags how a personal booking is paid. Only credit payments
// move a member's balance; anything else is settled outside this system and
// recorded by tag only.
type PaymentMethod string

const (
	PayWithCredits PaymentMethod = "credits"
	PayAtFrontDesk PaymentMethod = "front_desk"
)

// CancelScope disambiguates cancellation of a recurring occurrence.
type CancelScope string

const (
	CancelScopeNone   CancelScope = ""
	CancelScopeSingle CancelScope = "single"
	CancelScopeSeries CancelScope = "series"
)

// Options tunes engine behavior. ExhaustiveSeriesCheck upgrades rule
// creation and series edits from first-occurrence-only validation to
// full-range validation.
type Options struct {
	ExhaustiveSeriesCheck bool
}

// Service owns every write to the booking ledger. All mutating operations
// are serialized through a single mutex and run inside one transaction, so a
// conflict check can never be invalidated between evaluate and commit.
type Service struct {
	db   *db.DB
	opts Options

	mu sync.Mutex
}

func NewService(database *db.DB, opts Options) (*Service, error) {
	if database == nil {
		return nil, errors.New("booking service requires a database")
	}
	return &Service{db: database, opts: opts}, nil
}

func validateInterval(start, end time.Time) *Failure {
	if start.IsZero() || end.IsZero() {
		return failf(KindInvalidInterval, "Start and end times are required.")
	}
	if !start.Before(end) {
		return failf(KindInvalidInterval, "Start time must be before end time.")
	}
	return nil
}

// CheckConflict evaluates whether the candidate interval can occupy the
// court. A non-nil Failure describes the first blocking conflict in
// precedence order (court, blocked slot, coach); nil means the slot is free.
func (s *Service) CheckConflict(ctx context.Context, courtID int64, start, end time.Time, opts ConflictOptions) (*Failure, error) {
	if f := validateInterval(start, end); f != nil {
		return f, nil
	}
	return checkConflict(ctx, s.db.Store, courtID, start, end, opts)
}

// notifyInTx stores a notification row inside the current transaction.
// Failures are logged, never surfaced: notification generation must not fail
// a booking.
func notifyInTx(ctx context.Context, st *store.Store, recipientID int64, message string) {
	if recipientID == 0 || message == "" {
		return
	}
	if err := st.CreateNotification(ctx, recipientID, message); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Int64("recipient_id", recipientID).
			Msg("Failed to store notification")
	}
}

func notifyGroupCoach(ctx context.Context, st *store.Store, groupID int64, message string) error {
	coach, err := directory.GroupCoach(ctx, st, groupID)
	if err != nil {
		return err
	}
	if coach != nil {
		notifyInTx(ctx, st, coach.MemberID, message)
	}
	return nil
}

type CreateSingleBookingParams struct {
	CourtID  int64
	MemberID int64
	Start    time.Time
	End      time.Time
	Cost     int64
	Notes    string
	Payment  PaymentMethod
}

// CreateSingleBooking books a court for one member. The conflict check, the
// credit debit, and the ledger insert commit together or not at all.
func (s *Service) CreateSingleBooking(ctx context.Context, p CreateSingleBookingParams) (store.Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int64("court_id", p.CourtID).
		Int64("member_id", p.MemberID).
		Time("start", p.Start).
		Time("end", p.End).
		Logger()

	if f := validateInterval(p.Start, p.End); f != nil {
		return store.Booking{}, f
	}
	if p.MemberID == 0 {
		return store.Booking{}, failf(KindInvalidInterval, "A booking member is required.")
	}
	if p.Cost < 0 {
		return store.Booking{}, failf(KindInvalidInterval, "Cost may not be negative.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := store.Booking{
		ID:        uuid.New(),
		CourtID:   p.CourtID,
		MemberID:  p.MemberID,
		StartTime: p.Start,
		EndTime:   p.End,
		Cost:      p.Cost,
		Notes:     p.Notes,
	}

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		conflict, err := checkConflict(ctx, st, p.CourtID, p.Start, p.End, ConflictOptions{})
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}

		if p.Payment == PayWithCredits && p.Cost > 0 {
			balance, err := directory.Balance(ctx, st, p.MemberID)
			if err != nil {
				return err
			}
			if balance < p.Cost {
				return failf(KindInsufficientCredits, "Insufficient credits: booking costs %d, balance is %d.", p.Cost, balance)
			}
			court, err := st.GetCourt(ctx, p.CourtID)
			if err != nil {
				return fmt.Errorf("load court %d: %w", p.CourtID, err)
			}
			date, timeRange := notify.FormatDateTimeRange(p.Start, p.End)
			description := fmt.Sprintf("Booking %s, %s %s", court.Name, date, timeRange)
			if err := credits.Apply(ctx, st, p.MemberID, -p.Cost, description, string(p.Payment)); err != nil {
				return err
			}
		}

		if err := st.CreateBooking(ctx, created); err != nil {
			return err
		}

		court, err := st.GetCourt(ctx, p.CourtID)
		if err != nil {
			return fmt.Errorf("load court %d: %w", p.CourtID, err)
		}
		notifyInTx(ctx, st, p.MemberID, notify.BookingConfirmed(notify.BookingDetails{
			CourtName: court.Name,
			Start:     p.Start,
			End:       p.End,
			Cost:      p.Cost,
		}))
		return nil
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Single booking rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to create single booking")
		}
		return store.Booking{}, err
	}

	logger.Info().Str("booking_id", created.ID.String()).Str("decision", "created").Msg("Created single booking")
	return created, nil
}

type CreateGroupBookingParams struct {
	GroupID int64
	CourtID int64
	Start   time.Time
	End     time.Time
	Notes   string
}

// CreateGroupBooking books a court for a group session. Group sessions are
// zero-cost and enable coach double-booking detection.
func (s *Service) CreateGroupBooking(ctx context.Context, p CreateGroupBookingParams) (store.Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int64("court_id", p.CourtID).
		Int64("group_id", p.GroupID).
		Time("start", p.Start).
		Time("end", p.End).
		Logger()

	if f := validateInterval(p.Start, p.End); f != nil {
		return store.Booking{}, f
	}
	if p.GroupID == 0 {
		return store.Booking{}, failf(KindInvalidInterval, "A booking group is required.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := store.Booking{
		ID:        uuid.New(),
		CourtID:   p.CourtID,
		GroupID:   p.GroupID,
		StartTime: p.Start,
		EndTime:   p.End,
		Notes:     p.Notes,
	}

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		conflict, err := checkConflict(ctx, st, p.CourtID, p.Start, p.End, ConflictOptions{GroupID: p.GroupID})
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}

		if err := st.CreateBooking(ctx, created); err != nil {
			return err
		}

		court, err := st.GetCourt(ctx, p.CourtID)
		if err != nil {
			return fmt.Errorf("load court %d: %w", p.CourtID, err)
		}
		groupName, err := directory.GroupName(ctx, st, p.GroupID)
		if err != nil {
			return err
		}
		return notifyGroupCoach(ctx, st, p.GroupID, notify.GroupSessionScheduled(groupName, notify.BookingDetails{
			CourtName: court.Name,
			Start:     p.Start,
			End:       p.End,
		}))
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Group booking rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to create group booking")
		}
		return store.Booking{}, err
	}

	logger.Info().Str("booking_id", created.ID.String()).Str("decision", "created").Msg("Created group booking")
	return created, nil
}

// resolveBooking finds a booking by ID: a stored row, or a rule-generated
// virtual instance matched by its deterministic identity. The second return
// reports whether the booking exists only as a materialized instance.
func resolveBooking(ctx context.Context, st *store.Store, id uuid.UUID) (store.Booking, bool, error) {
	b, err := st.GetBooking(ctx, id)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Booking{}, false, err
	}

	rules, err := st.ListRecurringRules(ctx)
	if err != nil {
		return store.Booking{}, false, err
	}
	for _, rule := range rules {
		exceptions, err := st.ListExceptionsForRule(ctx, rule.ID)
		if err != nil {
			return store.Booking{}, false, err
		}
		for _, inst := range MaterializeInstances(rule, exceptions, time.Time{}, time.Time{}) {
			if inst.ID == id {
				return inst, true, nil
			}
		}
	}
	return store.Booking{}, false, failf(KindBookingNotFound, "Booking not found.")
}

// refundBooking refunds a paid booking's cost to its occupant.
func refundBooking(ctx context.Context, st *store.Store, b store.Booking) error {
	if b.Cost <= 0 || b.MemberID == 0 {
		return nil
	}
	court, err := st.GetCourt(ctx, b.CourtID)
	if err != nil {
		return fmt.Errorf("load court %d: %w", b.CourtID, err)
	}
	date, timeRange := notify.FormatDateTimeRange(b.StartTime, b.EndTime)
	description := fmt.Sprintf("Refund %s, %s %s", court.Name, date, timeRange)
	return credits.Apply(ctx, st, b.MemberID, b.Cost, description, string(PayWithCredits))
}

// CancelBooking cancels a booking. Plain bookings are removed and refunded.
// Rule-derived bookings require an explicit scope: "single" writes a
// cancellation exception for that date, "series" removes the rule, its
// exceptions, and refunds every paid occurrence.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, scope CancelScope) error {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Str("booking_id", id.String()).
		Str("scope", string(scope)).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		b, virtual, err := resolveBooking(ctx, st, id)
		if err != nil {
			return err
		}

		if !b.FromRule() {
			if err := st.DeleteBooking(ctx, b.ID); err != nil {
				return err
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
			return nil
		}

		switch scope {
		case CancelScopeSingle:
			return cancelOccurrence(ctx, st, b, virtual)
		case CancelScopeSeries:
			return cancelSeries(ctx, st, b.RuleID)
		default:
			return failf(KindScopeRequired, "This booking repeats. Specify whether to cancel this occurrence or the whole series.")
		}
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Cancellation rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to cancel booking")
		}
		return err
	}

	logger.Info().Str("decision", "cancelled").Msg("Cancelled booking")
	return nil
}

// cancelOccurrence suppresses one date of a recurring rule. A stored override
// is soft-cancelled in place so it keeps suppressing the default instance; a
// virtual instance gets a fresh cancellation exception row.
func cancelOccurrence(ctx context.Context, st *store.Store, b store.Booking, virtual bool) error {
	if virtual {
		cancelled := b
		cancelled.Cancelled = true
		if err := st.CreateBooking(ctx, cancelled); err != nil {
			return err
		}
	} else {
		if err := st.MarkBookingCancelled(ctx, b.ID); err != nil {
			return err
		}
	}
	if err := refundBooking(ctx, st, b); err != nil {
		return err
	}

	if b.GroupID != 0 {
		court, err := st.GetCourt(ctx, b.CourtID)
		if err != nil {
			return fmt.Errorf("load court %d: %w", b.CourtID, err)
		}
		groupName, err := directory.GroupName(ctx, st, b.GroupID)
		if err != nil {
			return err
		}
		return notifyGroupCoach(ctx, st, b.GroupID, notify.OccurrenceCancelled(groupName, notify.BookingDetails{
			CourtName: court.Name,
			Start:     b.StartTime,
			End:       b.EndTime,
		}))
	}
	return nil
}

// cancelSeries deletes the rule and its exceptions, refunding every paid
// materialized occurrence first.
func cancelSeries(ctx context.Context, st *store.Store, ruleID uuid.UUID) error {
	rule, err := st.GetRecurringRule(ctx, ruleID)
	if errors.Is(err, store.ErrNotFound) {
		return failf(KindRuleNotFound, "Recurring rule not found.")
	}
	if err != nil {
		return err
	}

	exceptions, err := st.ListExceptionsForRule(ctx, ruleID)
	if err != nil {
		return err
	}
	for _, inst := range MaterializeInstances(rule, exceptions, time.Time{}, time.Time{}) {
		if err := refundBooking(ctx, st, inst); err != nil {
			return err
		}
	}

	if err := st.DeleteBookingsForRule(ctx, ruleID); err != nil {
		return err
	}
	if err := st.DeleteRecurringRule(ctx, ruleID); err != nil {
		return err
	}

	groupName, err := directory.GroupName(ctx, st, rule.GroupID)
	if err != nil {
		return err
	}
	return notifyGroupCoach(ctx, st, rule.GroupID, notify.SeriesCancelled(groupName))
}

// BookingChanges carries a partial update; nil fields keep current values.
type BookingChanges struct {
	CourtID *int64
	Start   *time.Time
	End     *time.Time
	Notes   *string
}

func (c BookingChanges) applyTo(b store.Booking) store.Booking {
	if c.CourtID != nil {
		b.CourtID = *c.CourtID
	}
	if c.Start != nil {
		b.StartTime = *c.Start
	}
	if c.End != nil {
		b.EndTime = *c.End
	}
	if c.Notes != nil {
		b.Notes = *c.Notes
	}
	return b
}

// UpdateBooking edits a booking. Plain bookings are conflict-checked with
// the merged attributes (excluding themselves) before committing. For
// rule-derived bookings, editSeries updates the rule in place; otherwise the
// edit becomes a single-date override exception.
func (s *Service) UpdateBooking(ctx context.Context, id uuid.UUID, changes BookingChanges, editSeries bool) (store.Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Str("booking_id", id.String()).
		Bool("edit_series", editSeries).
		Logger()

	s.mu.Lock()
	defer s.mu.Unlock()

	var updated store.Booking
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		b, virtual, err := resolveBooking(ctx, st, id)
		if err != nil {
			return err
		}

		merged := changes.applyTo(b)
		if f := validateInterval(merged.StartTime, merged.EndTime); f != nil {
			return f
		}

		if b.FromRule() && editSeries {
			updated, err = updateSeries(ctx, st, b, changes, s.opts.ExhaustiveSeriesCheck)
			return err
		}

		conflict, err := checkConflict(ctx, st, merged.CourtID, merged.StartTime, merged.EndTime, ConflictOptions{
			ExcludeBookingID: b.ID,
			GroupID:          merged.GroupID,
		})
		if err != nil {
			return err
		}
		if conflict != nil {
			return conflict
		}

		if b.FromRule() && virtual {
			// First edit of a generated occurrence: persist it as an
			// override exception for that date.
			if err := st.CreateBooking(ctx, merged); err != nil {
				return err
			}
		} else {
			if err := st.UpdateBooking(ctx, store.UpdateBookingParams{
				ID:        merged.ID,
				CourtID:   merged.CourtID,
				StartTime: merged.StartTime,
				EndTime:   merged.EndTime,
				Notes:     merged.Notes,
			}); err != nil {
				return err
			}
		}
		updated = merged
		return nil
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Booking update rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to update booking")
		}
		return store.Booking{}, err
	}

	logger.Info().Str("decision", "updated").Msg("Updated booking")
	return updated, nil
}

// updateSeries applies an occurrence-shaped edit to the whole rule: the
// court moves with CourtID, the time-of-day window moves with the clock
// components of Start/End, and notes replace the rule's notes.
func updateSeries(ctx context.Context, st *store.Store, instance store.Booking, changes BookingChanges, exhaustive bool) (store.Booking, error) {
	rule, err := st.GetRecurringRule(ctx, instance.RuleID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Booking{}, failf(KindRuleNotFound, "Recurring rule not found.")
	}
	if err != nil {
		return store.Booking{}, err
	}

	if changes.CourtID != nil {
		rule.CourtID = *changes.CourtID
	}
	if changes.Start != nil {
		rule.StartHour, rule.StartMinute = changes.Start.Hour(), changes.Start.Minute()
	}
	if changes.End != nil {
		rule.EndHour, rule.EndMinute = changes.End.Hour(), changes.End.Minute()
	}
	if changes.Notes != nil {
		rule.Notes = *changes.Notes
	}
	if f := validateRuleWindow(rule); f != nil {
		return store.Booking{}, f
	}

	if f, err := checkRuleConflicts(ctx, st, rule, exhaustive); err != nil {
		return store.Booking{}, err
	} else if f != nil {
		return store.Booking{}, f
	}

	if err := st.UpdateRecurringRule(ctx, store.UpdateRecurringRuleParams{
		ID:          rule.ID,
		GroupID:     rule.GroupID,
		CourtID:     rule.CourtID,
		StartHour:   rule.StartHour,
		StartMinute: rule.StartMinute,
		EndHour:     rule.EndHour,
		EndMinute:   rule.EndMinute,
		Weekdays:    rule.Weekdays,
		Notes:       rule.Notes,
	}); err != nil {
		return store.Booking{}, err
	}

	exceptions, err := st.ListExceptionsForRule(ctx, rule.ID)
	if err != nil {
		return store.Booking{}, err
	}
	date := truncateDate(instance.StartTime)
	for _, inst := range MaterializeInstances(rule, exceptions, date, date) {
		return inst, nil
	}
	return store.Booking{}, nil
}

func validateRuleWindow(rule store.RecurringRule) *Failure {
	if len(rule.Weekdays) == 0 {
		return failf(KindInvalidInterval, "At least one weekday is required.")
	}
	if rule.SeriesStart.After(rule.SeriesEnd) {
		return failf(KindInvalidInterval, "Series start must be on or before series end.")
	}
	startMinutes := rule.StartHour*60 + rule.StartMinute
	endMinutes := rule.EndHour*60 + rule.EndMinute
	if startMinutes >= endMinutes {
		return failf(KindInvalidInterval, "Start time must be before end time.")
	}
	return nil
}

// checkRuleConflicts validates a rule's occurrences. By default only the
// first generated occurrence is checked, matching the responsive accept
// path; exhaustive mode walks the full series.
func checkRuleConflicts(ctx context.Context, st *store.Store, rule store.RecurringRule, exhaustive bool) (*Failure, error) {
	exceptions, err := st.ListExceptionsForRule(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	instances := MaterializeInstances(rule, exceptions, time.Time{}, time.Time{})
	if len(instances) == 0 {
		return nil, nil
	}
	if !exhaustive {
		instances = instances[:1]
	}
	for _, inst := range instances {
		conflict, err := checkConflict(ctx, st, inst.CourtID, inst.StartTime, inst.EndTime, ConflictOptions{
			ExcludeRuleID: rule.ID,
			GroupID:       rule.GroupID,
		})
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return conflict, nil
		}
	}
	return nil, nil
}

type AddRecurringRuleParams struct {
	GroupID     int64
	CourtID     int64
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	Weekdays    []time.Weekday
	SeriesStart time.Time
	SeriesEnd   time.Time
	Notes       string
}

// AddRecurringRule accepts a new recurring rule after validating its shape
// and conflict-checking its occurrences (first only, unless the service runs
// with exhaustive series checking).
func (s *Service) AddRecurringRule(ctx context.Context, p AddRecurringRuleParams) (store.RecurringRule, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int64("group_id", p.GroupID).
		Int64("court_id", p.CourtID).
		Logger()

	rule := store.RecurringRule{
		ID:          uuid.New(),
		GroupID:     p.GroupID,
		CourtID:     p.CourtID,
		StartHour:   p.StartHour,
		StartMinute: p.StartMinute,
		EndHour:     p.EndHour,
		EndMinute:   p.EndMinute,
		Weekdays:    p.Weekdays,
		SeriesStart: truncateDate(p.SeriesStart),
		SeriesEnd:   truncateDate(p.SeriesEnd),
		Notes:       p.Notes,
	}
	if p.GroupID == 0 {
		return store.RecurringRule{}, failf(KindInvalidInterval, "A rule group is required.")
	}
	if f := validateRuleWindow(rule); f != nil {
		return store.RecurringRule{}, f
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		if f, err := checkRuleConflicts(ctx, st, rule, s.opts.ExhaustiveSeriesCheck); err != nil {
			return err
		} else if f != nil {
			return f
		}

		if err := st.CreateRecurringRule(ctx, rule); err != nil {
			return err
		}

		court, err := st.GetCourt(ctx, rule.CourtID)
		if err != nil {
			return fmt.Errorf("load court %d: %w", rule.CourtID, err)
		}
		groupName, err := directory.GroupName(ctx, st, rule.GroupID)
		if err != nil {
			return err
		}
		return notifyGroupCoach(ctx, st, rule.GroupID, notify.SeriesScheduled(
			groupName, court.Name, formatWeekdays(rule.Weekdays), formatRuleWindow(rule),
		))
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Recurring rule rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to add recurring rule")
		}
		return store.RecurringRule{}, err
	}

	logger.Info().Str("rule_id", rule.ID.String()).Str("decision", "created").Msg("Added recurring rule")
	return rule, nil
}

func formatWeekdays(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String()+"s")
	}
	return strings.Join(names, "/")
}

func formatRuleWindow(rule store.RecurringRule) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", rule.StartHour, rule.StartMinute, rule.EndHour, rule.EndMinute)
}

type BlockSlotParams struct {
	CourtID int64
	Start   time.Time
	End     time.Time
	Reason  string
}

// BlockSlot marks a court unavailable. Blocking fails only when it would
// overlap a live booking; overlapping another blocked slot is allowed.
func (s *Service) BlockSlot(ctx context.Context, p BlockSlotParams) (store.BlockedSlot, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_service").
		Int64("court_id", p.CourtID).
		Str("reason", p.Reason).
		Logger()

	if f := validateInterval(p.Start, p.End); f != nil {
		return store.BlockedSlot{}, f
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slot := store.BlockedSlot{
		ID:        uuid.New(),
		CourtID:   p.CourtID,
		StartTime: p.Start,
		EndTime:   p.End,
		Reason:    p.Reason,
	}

	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store

		court, err := st.GetCourt(ctx, p.CourtID)
		if err != nil {
			return fmt.Errorf("load court %d: %w", p.CourtID, err)
		}
		view, err := liveBookings(ctx, st, p.CourtID, p.Start, p.End)
		if err != nil {
			return fmt.Errorf("load live bookings: %w", err)
		}
		for _, existing := range view {
			if overlaps(existing.StartTime, existing.EndTime, p.Start, p.End) {
				return failf(KindCourtConflict, "%s is already booked at this time.", court.Name)
			}
		}

		return st.CreateBlockedSlot(ctx, slot)
	})
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			logger.Info().Str("decision", "rejected").Str("reason", string(f.Kind)).Msg("Block rejected")
		} else {
			logger.Error().Err(err).Msg("Failed to block slot")
		}
		return store.BlockedSlot{}, err
	}

	logger.Info().Str("slot_id", slot.ID.String()).Str("decision", "blocked").Msg("Blocked court slot")
	return slot, nil
}

// UnblockSlot removes a blocked slot.
func (s *Service) UnblockSlot(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.RunInTx(ctx, func(txdb *db.DB) error {
		st := txdb.Store
		if _, err := st.GetBlockedSlot(ctx, id); errors.Is(err, store.ErrNotFound) {
			return failf(KindBookingNotFound, "Blocked slot not found.")
		} else if err != nil {
			return err
		}
		return st.DeleteBlockedSlot(ctx, id)
	})
}
