// Package store is the hand-written query layer over database/sql. A Store
// can be bound to a *sql.DB or a *sql.Tx; transactional callers get a
// tx-bound Store from db.RunInTx.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	q Querier
}

func New(q Querier) *Store {
	return &Store{q: q}
}

type Court struct {
	ID     int64
	Name   string
	Indoor bool
}

// Booking is a committed court occupation. MemberID and GroupID are mutually
// exclusive: a booking is either a personal paid booking (MemberID set) or a
// zero-cost group session (GroupID set). Rows with RuleID set are per-date
// exceptions to a recurring rule; Cancelled marks a suppressed occurrence.
type Booking struct {
	ID             uuid.UUID
	CourtID        int64
	MemberID       int64
	GroupID        int64
	StartTime      time.Time
	EndTime        time.Time
	Cost           int64
	Notes          string
	RuleID         uuid.UUID
	OccurrenceDate string
	Cancelled      bool
}

// FromRule reports whether the booking row is an exception attached to a
// recurring rule.
func (b Booking) FromRule() bool {
	return b.RuleID != uuid.Nil
}

// RecurringRule fires on the given weekdays between SeriesStart and SeriesEnd
// inclusive, occupying CourtID from StartHour:StartMinute to
// EndHour:EndMinute. Instances are computed on read and never stored.
type RecurringRule struct {
	ID          uuid.UUID
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

type BlockedSlot struct {
	ID        uuid.UUID
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

type Member struct {
	ID      int64
	Name    string
	Balance int64
}

type Group struct {
	ID   int64
	Name string
}

type ScheduleTemplate struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// TemplateSlot is a day-of-week-relative booking belonging to a template.
type TemplateSlot struct {
	ID          int64
	TemplateID  uuid.UUID
	Weekday     time.Weekday
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	CourtID     int64
	MemberID    int64
	GroupID     int64
	Cost        int64
	Notes       string
}

type CreditTransaction struct {
	ID          int64
	MemberID    int64
	Amount      int64
	Description string
	Method      string
	CreatedAt   time.Time
}

type Notification struct {
	ID          int64
	RecipientID int64
	Message     string
	CreatedAt   time.Time
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullUUID(v uuid.UUID) sql.NullString {
	return sql.NullString{String: v.String(), Valid: v != uuid.Nil}
}

func parseNullUUID(v sql.NullString) (uuid.UUID, error) {
	if !v.Valid {
		return uuid.Nil, nil
	}
	return uuid.Parse(v.String)
}
