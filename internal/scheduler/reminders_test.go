package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rallyclub/courtbook/internal/notify"
	"github.com/rallyclub/courtbook/internal/store"
	"github.com/rallyclub/courtbook/internal/testutil"
)

func TestSendBookingReminderToMember(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	memberID := testutil.NewTestMember(t, database, "Alice", 0)
	sink := notify.StoreSink{Store: database.Store}

	err := sendBookingReminder(ctx, database.Store, sink, store.Booking{
		ID:        uuid.New(),
		CourtID:   1,
		MemberID:  memberID,
		StartTime: time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send reminder: %v", err)
	}

	notifications, err := database.Store.ListNotifications(ctx, memberID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifications))
	}
	if !strings.Contains(notifications[0].Message, "Court 1") {
		t.Errorf("reminder message = %q", notifications[0].Message)
	}
}

// A rule-generated instance carries no stored row, only a group; the reminder
// goes to the group's coach.
func TestSendBookingReminderToGroupCoach(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	groupID, coachID := testutil.NewTestGroup(t, database, "Juniors", "Coach Sam")
	sink := notify.StoreSink{Store: database.Store}

	err := sendBookingReminder(ctx, database.Store, sink, store.Booking{
		ID:             uuid.New(),
		CourtID:        2,
		GroupID:        groupID,
		StartTime:      time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, time.March, 3, 19, 30, 0, 0, time.UTC),
		RuleID:         uuid.New(),
		OccurrenceDate: "2026-03-03",
	})
	if err != nil {
		t.Fatalf("send reminder: %v", err)
	}

	notifications, err := database.Store.ListNotifications(ctx, coachID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("coach got %d notifications, want 1", len(notifications))
	}
	if !strings.Contains(notifications[0].Message, "Court 2") {
		t.Errorf("reminder message = %q", notifications[0].Message)
	}
}

func TestSendBookingReminderCoachlessGroup(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	groupID, err := database.Store.CreateGroup(ctx, "Drop-in")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	sink := notify.StoreSink{Store: database.Store}

	err = sendBookingReminder(ctx, database.Store, sink, store.Booking{
		ID:        uuid.New(),
		CourtID:   3,
		GroupID:   groupID,
		StartTime: time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, time.March, 3, 19, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send reminder: %v", err)
	}
}
