// Package credits moves member credit balances in lockstep with booking
// mutations. Every balance change is recorded as an immutable transaction
// row; callers are responsible for checking sufficiency before charging.
package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/rallyclub/courtbook/internal/store"
)

var ErrNegativeBalance = errors.New("balance may not go negative")

// Apply adjusts a member's balance by amount (negative charges, positive
// refunds or awards) and appends a transaction log entry. It refuses any
// delta that would drive the balance below zero.
func Apply(ctx context.Context, st *store.Store, memberID, amount int64, description, method string) error {
	member, err := st.GetMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("load member %d: %w", memberID, err)
	}

	newBalance := member.Balance + amount
	if newBalance < 0 {
		return fmt.Errorf("apply %d credits to member %d: %w", amount, memberID, ErrNegativeBalance)
	}

	if err := st.UpdateMemberBalance(ctx, memberID, newBalance); err != nil {
		return fmt.Errorf("update balance for member %d: %w", memberID, err)
	}
	if err := st.CreateCreditTransaction(ctx, store.CreateCreditTransactionParams{
		MemberID:    memberID,
		Amount:      amount,
		Description: description,
		Method:      method,
	}); err != nil {
		return fmt.Errorf("record transaction for member %d: %w", memberID, err)
	}
	return nil
}

// Balance returns the member's current credit balance.
func Balance(ctx context.Context, st *store.Store, memberID int64) (int64, error) {
	member, err := st.GetMember(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("load member %d: %w", memberID, err)
	}
	return member.Balance, nil
}

// Transactions returns the member's transaction log, oldest first.
func Transactions(ctx context.Context, st *store.Store, memberID int64) ([]store.CreditTransaction, error) {
	return st.ListCreditTransactions(ctx, memberID)
}
