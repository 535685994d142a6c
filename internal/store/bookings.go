package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

const bookingColumns = `id, court_id, member_id, group_id, start_time, end_time, cost, notes, rule_id, occurrence_date, cancelled`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var (
		b          Booking
		id         string
		memberID   sql.NullInt64
		groupID    sql.NullInt64
		ruleID     sql.NullString
		occurrence sql.NullString
	)
	if err := row.Scan(&id, &b.CourtID, &memberID, &groupID, &b.StartTime, &b.EndTime, &b.Cost, &b.Notes, &ruleID, &occurrence, &b.Cancelled); err != nil {
		return Booking{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Booking{}, fmt.Errorf("parse booking id: %w", err)
	}
	b.ID = parsed
	b.MemberID = memberID.Int64
	b.GroupID = groupID.Int64
	b.OccurrenceDate = occurrence.String
	if b.RuleID, err = parseNullUUID(ruleID); err != nil {
		return Booking{}, fmt.Errorf("parse booking rule id: %w", err)
	}
	return b, nil
}

func (s *Store) scanBookings(rows *sql.Rows) ([]Booking, error) {
	defer rows.Close()
	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) CreateBooking(ctx context.Context, b Booking) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bookings (id, court_id, member_id, group_id, start_time, end_time, cost, notes, rule_id, occurrence_date, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.CourtID, nullInt64(b.MemberID), nullInt64(b.GroupID),
		b.StartTime, b.EndTime, b.Cost, b.Notes,
		nullUUID(b.RuleID), nullString(b.OccurrenceDate), b.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (Booking, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id.String())
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	if err != nil {
		return Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

type UpdateBookingParams struct {
	ID        uuid.UUID
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Notes     string
}

func (s *Store) UpdateBooking(ctx context.Context, p UpdateBookingParams) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE bookings SET court_id = ?, start_time = ?, end_time = ?, notes = ?
		WHERE id = ?`,
		p.CourtID, p.StartTime, p.EndTime, p.Notes, p.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// MarkBookingCancelled soft-cancels an exception row so it keeps suppressing
// its rule occurrence.
func (s *Store) MarkBookingCancelled(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `UPDATE bookings SET cancelled = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("mark booking cancelled: %w", err)
	}
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

type ListBookingsOverlappingParams struct {
	CourtID   int64 // 0 means all courts
	StartTime time.Time
	EndTime   time.Time
}

// ListBookingsOverlapping returns live (non-cancelled) booking rows whose
// half-open interval overlaps [StartTime, EndTime).
func (s *Store) ListBookingsOverlapping(ctx context.Context, p ListBookingsOverlappingParams) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE cancelled = 0 AND start_time < ? AND end_time > ?`
	args := []any{p.EndTime, p.StartTime}
	if p.CourtID != 0 {
		query += ` AND court_id = ?`
		args = append(args, p.CourtID)
	}
	query += ` ORDER BY start_time`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	return s.scanBookings(rows)
}

// ListExceptionsForRule returns every exception row attached to the rule,
// cancelled placeholders included.
func (s *Store) ListExceptionsForRule(ctx context.Context, ruleID uuid.UUID) ([]Booking, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings WHERE rule_id = ? ORDER BY occurrence_date`,
		ruleID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list rule exceptions: %w", err)
	}
	return s.scanBookings(rows)
}

func (s *Store) DeleteBookingsForRule(ctx context.Context, ruleID uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM bookings WHERE rule_id = ?`, ruleID.String())
	if err != nil {
		return fmt.Errorf("delete rule exceptions: %w", err)
	}
	return nil
}
