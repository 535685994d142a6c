package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *Store) CreateMember(ctx context.Context, name string, balance int64) (int64, error) {
	result, err := s.q.ExecContext(ctx, `INSERT INTO members (name, balance) VALUES (?, ?)`, name, balance)
	if err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("member id: %w", err)
	}
	return id, nil
}

func (s *Store) GetMember(ctx context.Context, id int64) (Member, error) {
	var m Member
	err := s.q.QueryRowContext(ctx, `SELECT id, name, balance FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Store) UpdateMemberBalance(ctx context.Context, id, balance int64) error {
	_, err := s.q.ExecContext(ctx, `UPDATE members SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("update member balance: %w", err)
	}
	return nil
}

func (s *Store) CreateGroup(ctx context.Context, name string) (int64, error) {
	result, err := s.q.ExecContext(ctx, `INSERT INTO groups (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group id: %w", err)
	}
	return id, nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (Group, error) {
	var g Group
	err := s.q.QueryRowContext(ctx, `SELECT id, name FROM groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	if err != nil {
		return Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

type AddGroupMemberParams struct {
	GroupID  int64
	MemberID int64
	Role     string
}

func (s *Store) AddGroupMember(ctx context.Context, p AddGroupMemberParams) error {
	role := p.Role
	if role == "" {
		role = "player"
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO group_members (group_id, member_id, role) VALUES (?, ?, ?)`,
		p.GroupID, p.MemberID, role,
	)
	if err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

// GetGroupCoach returns the member holding the coach role within the group,
// or ErrNotFound when the group has no coach.
func (s *Store) GetGroupCoach(ctx context.Context, groupID int64) (Member, error) {
	var m Member
	err := s.q.QueryRowContext(ctx, `
		SELECT m.id, m.name, m.balance
		FROM group_members gm
		JOIN members m ON m.id = gm.member_id
		WHERE gm.group_id = ? AND gm.role = 'coach'
		LIMIT 1`,
		groupID,
	).Scan(&m.ID, &m.Name, &m.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	if err != nil {
		return Member{}, fmt.Errorf("get group coach: %w", err)
	}
	return m, nil
}

// ListGroupsCoachedBy returns every group in which the member holds the coach
// role.
func (s *Store) ListGroupsCoachedBy(ctx context.Context, memberID int64) ([]Group, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT g.id, g.name
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		WHERE gm.member_id = ? AND gm.role = 'coach'
		ORDER BY g.id`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list coached groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) GetCourt(ctx context.Context, id int64) (Court, error) {
	var c Court
	err := s.q.QueryRowContext(ctx, `SELECT id, name, indoor FROM courts WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Indoor)
	if errors.Is(err, sql.ErrNoRows) {
		return Court{}, ErrNotFound
	}
	if err != nil {
		return Court{}, fmt.Errorf("get court: %w", err)
	}
	return c, nil
}

func (s *Store) ListCourts(ctx context.Context) ([]Court, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, name, indoor FROM courts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.Name, &c.Indoor); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}
