package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateScheduleTemplate(ctx context.Context, t ScheduleTemplate) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO schedule_templates (id, name) VALUES (?, ?)`,
		t.ID.String(), t.Name,
	)
	if err != nil {
		return fmt.Errorf("insert schedule template: %w", err)
	}
	return nil
}

func (s *Store) GetScheduleTemplate(ctx context.Context, id uuid.UUID) (ScheduleTemplate, error) {
	var (
		t     ScheduleTemplate
		rawID string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, name, created_at FROM schedule_templates WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ScheduleTemplate{}, ErrNotFound
	}
	if err != nil {
		return ScheduleTemplate{}, fmt.Errorf("get schedule template: %w", err)
	}
	if t.ID, err = uuid.Parse(rawID); err != nil {
		return ScheduleTemplate{}, fmt.Errorf("parse template id: %w", err)
	}
	return t, nil
}

func (s *Store) ListScheduleTemplates(ctx context.Context) ([]ScheduleTemplate, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name, created_at FROM schedule_templates ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list schedule templates: %w", err)
	}
	defer rows.Close()

	var templates []ScheduleTemplate
	for rows.Next() {
		var (
			t     ScheduleTemplate
			rawID string
		)
		if err := rows.Scan(&rawID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse template id: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *Store) DeleteScheduleTemplate(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM schedule_templates WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete schedule template: %w", err)
	}
	return nil
}

func (s *Store) CreateTemplateSlot(ctx context.Context, slot TemplateSlot) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO template_slots (template_id, weekday, start_hour, start_minute, end_hour, end_minute, court_id, member_id, group_id, cost, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		slot.TemplateID.String(), int(slot.Weekday),
		slot.StartHour, slot.StartMinute, slot.EndHour, slot.EndMinute,
		slot.CourtID, nullInt64(slot.MemberID), nullInt64(slot.GroupID), slot.Cost, slot.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert template slot: %w", err)
	}
	return nil
}

// ListTemplateSlots returns the template's slots ordered by weekday then
// start time.
func (s *Store) ListTemplateSlots(ctx context.Context, templateID uuid.UUID) ([]TemplateSlot, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, template_id, weekday, start_hour, start_minute, end_hour, end_minute, court_id, member_id, group_id, cost, notes
		FROM template_slots
		WHERE template_id = ?
		ORDER BY weekday, start_hour, start_minute, court_id`,
		templateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list template slots: %w", err)
	}
	defer rows.Close()

	var slots []TemplateSlot
	for rows.Next() {
		var (
			slot     TemplateSlot
			rawID    string
			weekday  int
			memberID sql.NullInt64
			groupID  sql.NullInt64
		)
		if err := rows.Scan(&slot.ID, &rawID, &weekday, &slot.StartHour, &slot.StartMinute, &slot.EndHour, &slot.EndMinute, &slot.CourtID, &memberID, &groupID, &slot.Cost, &slot.Notes); err != nil {
			return nil, err
		}
		if slot.TemplateID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("parse template slot template id: %w", err)
		}
		slot.Weekday = time.Weekday(weekday)
		slot.MemberID = memberID.Int64
		slot.GroupID = groupID.Int64
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
