package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rallyclub/courtbook/internal/db"
	"github.com/rallyclub/courtbook/internal/store"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// NewTestMember inserts a member with the given credit balance and returns
// its id.
func NewTestMember(t *testing.T, database *db.DB, name string, balance int64) int64 {
	t.Helper()

	id, err := database.Store.CreateMember(context.Background(), name, balance)
	if err != nil {
		t.Fatalf("create test member: %v", err)
	}
	return id
}

// NewTestGroup inserts a group with a coach and the given players. The coach
// is created as a member too and added with the coach role.
func NewTestGroup(t *testing.T, database *db.DB, name string, coachName string, playerIDs ...int64) (groupID, coachID int64) {
	t.Helper()

	ctx := context.Background()
	coachID = NewTestMember(t, database, coachName, 0)

	groupID, err := database.Store.CreateGroup(ctx, name)
	if err != nil {
		t.Fatalf("create test group: %v", err)
	}
	if err := database.Store.AddGroupMember(ctx, store.AddGroupMemberParams{
		GroupID:  groupID,
		MemberID: coachID,
		Role:     "coach",
	}); err != nil {
		t.Fatalf("add coach to group: %v", err)
	}
	for _, playerID := range playerIDs {
		if err := database.Store.AddGroupMember(ctx, store.AddGroupMemberParams{
			GroupID:  groupID,
			MemberID: playerID,
			Role:     "player",
		}); err != nil {
			t.Fatalf("add player to group: %v", err)
		}
	}
	return groupID, coachID
}
