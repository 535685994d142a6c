package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ruleColumns = `id, group_id, court_id, start_hour, start_minute, end_hour, end_minute, weekdays, series_start, series_end, notes`

func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(raw string) ([]time.Weekday, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func scanRule(row interface{ Scan(...any) error }) (RecurringRule, error) {
	var (
		r        RecurringRule
		id       string
		weekdays string
	)
	if err := row.Scan(&id, &r.GroupID, &r.CourtID, &r.StartHour, &r.StartMinute, &r.EndHour, &r.EndMinute, &weekdays, &r.SeriesStart, &r.SeriesEnd, &r.Notes); err != nil {
		return RecurringRule{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return RecurringRule{}, fmt.Errorf("parse rule id: %w", err)
	}
	r.ID = parsed
	if r.Weekdays, err = decodeWeekdays(weekdays); err != nil {
		return RecurringRule{}, fmt.Errorf("decode rule weekdays: %w", err)
	}
	return r, nil
}

func (s *Store) CreateRecurringRule(ctx context.Context, r RecurringRule) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO recurring_rules (id, group_id, court_id, start_hour, start_minute, end_hour, end_minute, weekdays, series_start, series_end, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.GroupID, r.CourtID,
		r.StartHour, r.StartMinute, r.EndHour, r.EndMinute,
		encodeWeekdays(r.Weekdays), r.SeriesStart, r.SeriesEnd, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert recurring rule: %w", err)
	}
	return nil
}

func (s *Store) GetRecurringRule(ctx context.Context, id uuid.UUID) (RecurringRule, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules WHERE id = ?`, id.String())
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RecurringRule{}, ErrNotFound
	}
	if err != nil {
		return RecurringRule{}, fmt.Errorf("get recurring rule: %w", err)
	}
	return r, nil
}

func (s *Store) ListRecurringRules(ctx context.Context) ([]RecurringRule, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+ruleColumns+` FROM recurring_rules ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []RecurringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

type UpdateRecurringRuleParams struct {
	ID          uuid.UUID
	GroupID     int64
	CourtID     int64
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	Weekdays    []time.Weekday
	Notes       string
}

func (s *Store) UpdateRecurringRule(ctx context.Context, p UpdateRecurringRuleParams) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE recurring_rules
		SET group_id = ?, court_id = ?, start_hour = ?, start_minute = ?, end_hour = ?, end_minute = ?, weekdays = ?, notes = ?
		WHERE id = ?`,
		p.GroupID, p.CourtID, p.StartHour, p.StartMinute, p.EndHour, p.EndMinute,
		encodeWeekdays(p.Weekdays), p.Notes, p.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}
	return nil
}

func (s *Store) DeleteRecurringRule(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	return nil
}
