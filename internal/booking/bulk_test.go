package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/credits"
	"github.com/rallyclub/courtbook/internal/store"
	"github.com/rallyclub/courtbook/internal/testutil"
)

func TestCancelMultipleBookings(t *testing.T) {
	svc, database := newTestService(t, Options{})
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 20)

	var ids []uuid.UUID
	for i := 0; i < 2; i++ {
		b, err := svc.CreateSingleBooking(ctx, CreateSingleBookingParams{
			CourtID:  1,
			MemberID: memberID,
			Start:    hour(10+2*i, 0),
			End:      hour(11+2*i, 0),
			Cost:     5,
			Payment:  PayWithCredits,
		})
		if err != nil {
			t.Fatalf("create booking %d: %v", i, err)
		}
		ids = append(ids, b.ID)
	}
	// Unknown ids are skipped, not fatal.
	ids = append(ids, uuid.New())

	cancelled, err := svc.CancelMultipleBookings(ctx, ids)
	if err != nil {
		t.Fatalf("cancel bookings: %v", err)
	}
	if cancelled != 2 {
		t.Errorf("cancelled = %d, want 2", cancelled)
	}

	balance, err := credits.Balance(ctx, database.Store, memberID)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if balance != 20 {
		t.Errorf("balance after refunds = %d, want 20", balance)
	}
	for _, id := range ids[:2] {
		if _, err := database.Store.GetBooking(ctx, id); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("booking %s still present: %v", id, err)
		}
	}
}

func TestMoveMultipleBookingsShiftsByAnchorDelta(t *testing.T) {
	svc, database := newTestService(t, Options{})
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 0)

	first := mustBook(t, svc, 1, memberID, hour(10, 0), hour(11, 0))
	second := mustBook(t, svc, 2, memberID, hour(11, 0), hour(12, 0))

	// Move the anchor two hours later; the second booking follows.
	if err := svc.MoveMultipleBookings(ctx, []uuid.UUID{first.ID, second.ID}, first.ID, hour(12, 0)); err != nil {
		t.Fatalf("move bookings: %v", err)
	}

	moved1, err := database.Store.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	moved2, err := database.Store.GetBooking(ctx, second.ID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if !moved1.StartTime.Equal(hour(12, 0)) || !moved1.EndTime.Equal(hour(13, 0)) {
		t.Errorf("anchor moved to %v-%v, want 12:00-13:00", moved1.StartTime, moved1.EndTime)
	}
	if !moved2.StartTime.Equal(hour(13, 0)) || !moved2.EndTime.Equal(hour(14, 0)) {
		t.Errorf("follower moved to %v-%v, want 13:00-14:00", moved2.StartTime, moved2.EndTime)
	}
}

func TestMoveMultipleBookingsAllOrNothing(t *testing.T) {
	svc, database := newTestService(t, Options{})
	ctx := context.Background()
	alice := testutil.NewTestMember(t, database, "Alice", 0)
	bob := testutil.NewTestMember(t, database, "Bob", 0)

	first := mustBook(t, svc, 1, alice, hour(10, 0), hour(11, 0))
	second := mustBook(t, svc, 2, alice, hour(10, 0), hour(11, 0))
	// Obstacle at the second booking's destination only.
	mustBook(t, svc, 2, bob, hour(12, 0), hour(13, 0))

	err := svc.MoveMultipleBookings(ctx, []uuid.UUID{first.ID, second.ID}, first.ID, hour(12, 0))
	wantFailure(t, err, KindCourtConflict)

	// Neither booking moved.
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		b, err := database.Store.GetBooking(ctx, id)
		if err != nil {
			t.Fatalf("load booking: %v", err)
		}
		if !b.StartTime.Equal(hour(10, 0)) {
			t.Errorf("booking %s moved to %v despite rejection", id, b.StartTime)
		}
	}
}

func TestMoveMultipleBookingsIgnoresIntraBatchOverlap(t *testing.T) {
	svc, database := newTestService(t, Options{})
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 0)

	first := mustBook(t, svc, 1, memberID, hour(10, 0), hour(11, 0))
	second := mustBook(t, svc, 1, memberID, hour(11, 0), hour(12, 0))

	// Shifting both by one hour puts the follower onto the anchor's old slot;
	// batch members are excluded from the check so this succeeds.
	if err := svc.MoveMultipleBookings(ctx, []uuid.UUID{first.ID, second.ID}, second.ID, hour(12, 0)); err != nil {
		t.Fatalf("move bookings: %v", err)
	}

	moved, err := database.Store.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if !moved.StartTime.Equal(hour(11, 0)) {
		t.Errorf("anchor-relative move landed at %v, want 11:00", moved.StartTime)
	}
}

func TestMoveMultipleBookingsMissingAnchor(t *testing.T) {
	svc, database := newTestService(t, Options{})
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 0)

	b := mustBook(t, svc, 1, memberID, hour(10, 0), hour(11, 0))

	err := svc.MoveMultipleBookings(ctx, []uuid.UUID{b.ID}, uuid.New(), hour(12, 0))
	wantFailure(t, err, KindBookingNotFound)
}
