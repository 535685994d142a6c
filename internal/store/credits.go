package store

import (
	"context"
	"fmt"
)

type CreateCreditTransactionParams struct {
	MemberID    int64
	Amount      int64
	Description string
	Method      string
}

func (s *Store) CreateCreditTransaction(ctx context.Context, p CreateCreditTransactionParams) error {
	method := p.Method
	if method == "" {
		method = "credits"
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO credit_transactions (member_id, amount, description, method)
		VALUES (?, ?, ?, ?)`,
		p.MemberID, p.Amount, p.Description, method,
	)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}

func (s *Store) ListCreditTransactions(ctx context.Context, memberID int64) ([]CreditTransaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, member_id, amount, description, method, created_at
		FROM credit_transactions
		WHERE member_id = ?
		ORDER BY id`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	var txs []CreditTransaction
	for rows.Next() {
		var t CreditTransaction
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Amount, &t.Description, &t.Method, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
