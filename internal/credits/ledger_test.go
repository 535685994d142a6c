package credits_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rallyclub/courtbook/internal/credits"
	"github.com/rallyclub/courtbook/internal/testutil"
)

func TestApplyChargesAndRefunds(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 10)

	if err := credits.Apply(ctx, database.Store, memberID, -4, "Booking Court 1", "credits"); err != nil {
		t.Fatalf("charge: %v", err)
	}
	if err := credits.Apply(ctx, database.Store, memberID, 4, "Refund Court 1", "credits"); err != nil {
		t.Fatalf("refund: %v", err)
	}

	balance, err := credits.Balance(ctx, database.Store, memberID)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("balance = %d, want 10", balance)
	}

	txs, err := credits.Transactions(ctx, database.Store, memberID)
	if err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	if txs[0].Amount != -4 || txs[1].Amount != 4 {
		t.Errorf("transaction amounts = %d, %d, want -4, 4", txs[0].Amount, txs[1].Amount)
	}
}

func TestApplyRefusesNegativeBalance(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 3)

	err := credits.Apply(ctx, database.Store, memberID, -5, "Booking Court 1", "credits")
	if !errors.Is(err, credits.ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}

	// Neither balance nor log moved.
	balance, err := credits.Balance(ctx, database.Store, memberID)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance != 3 {
		t.Errorf("balance = %d, want 3", balance)
	}
	txs, err := credits.Transactions(ctx, database.Store, memberID)
	if err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want 0", len(txs))
	}
}
