package store

import (
	"context"
	"fmt"
)

func (s *Store) CreateNotification(ctx context.Context, recipientID int64, message string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO notifications (recipient_id, message) VALUES (?, ?)`,
		recipientID, message,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID int64) ([]Notification, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, recipient_id, message, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY id`,
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
