package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func scanBlockedSlot(row interface{ Scan(...any) error }) (BlockedSlot, error) {
	var (
		b  BlockedSlot
		id string
	)
	if err := row.Scan(&id, &b.CourtID, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
		return BlockedSlot{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return BlockedSlot{}, fmt.Errorf("parse blocked slot id: %w", err)
	}
	b.ID = parsed
	return b, nil
}

func (s *Store) CreateBlockedSlot(ctx context.Context, b BlockedSlot) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO blocked_slots (id, court_id, start_time, end_time, reason)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID.String(), b.CourtID, b.StartTime, b.EndTime, b.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert blocked slot: %w", err)
	}
	return nil
}

func (s *Store) GetBlockedSlot(ctx context.Context, id uuid.UUID) (BlockedSlot, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, court_id, start_time, end_time, reason FROM blocked_slots WHERE id = ?`,
		id.String(),
	)
	b, err := scanBlockedSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BlockedSlot{}, ErrNotFound
	}
	if err != nil {
		return BlockedSlot{}, fmt.Errorf("get blocked slot: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBlockedSlot(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete blocked slot: %w", err)
	}
	return nil
}

type ListBlockedSlotsOverlappingParams struct {
	CourtID   int64 // 0 means all courts
	StartTime time.Time
	EndTime   time.Time
}

// ListBlockedSlotsOverlapping returns blocked slots whose half-open interval
// overlaps [StartTime, EndTime).
func (s *Store) ListBlockedSlotsOverlapping(ctx context.Context, p ListBlockedSlotsOverlappingParams) ([]BlockedSlot, error) {
	query := `SELECT id, court_id, start_time, end_time, reason FROM blocked_slots
		WHERE start_time < ? AND end_time > ?`
	args := []any{p.EndTime, p.StartTime}
	if p.CourtID != 0 {
		query += ` AND court_id = ?`
		args = append(args, p.CourtID)
	}
	query += ` ORDER BY start_time`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overlapping blocked slots: %w", err)
	}
	defer rows.Close()

	var slots []BlockedSlot
	for rows.Next() {
		b, err := scanBlockedSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, b)
	}
	return slots, rows.Err()
}
