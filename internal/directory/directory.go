// Package directory is the read-only member/group collaborator interface the
// booking engine consults: coach resolution and balance lookups. It never
// mutates membership data.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rallyclub/courtbook/internal/store"
)

// Coach identifies the member holding the coach role within a group.
type Coach struct {
	MemberID int64
	Name     string
}

// GroupCoach resolves a group's coach. A nil result means the group has no
// coach assigned, which is not an error.
func GroupCoach(ctx context.Context, st *store.Store, groupID int64) (*Coach, error) {
	member, err := st.GetGroupCoach(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve coach for group %d: %w", groupID, err)
	}
	return &Coach{MemberID: member.ID, Name: member.Name}, nil
}

// GroupName returns the display name for a group.
func GroupName(ctx context.Context, st *store.Store, groupID int64) (string, error) {
	group, err := st.GetGroup(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("load group %d: %w", groupID, err)
	}
	return group.Name, nil
}

// Balance returns a member's credit balance.
func Balance(ctx context.Context, st *store.Store, memberID int64) (int64, error) {
	member, err := st.GetMember(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("load member %d: %w", memberID, err)
	}
	return member.Balance, nil
}
