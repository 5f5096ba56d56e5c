package access

import (
	"context"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// MembershipStore answers group membership queries for the gate.
type MembershipStore interface {
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
}

// Gate decides whether a user may subscribe to a channel. The same rules
// gate write operations: publishers resolve channels from server-side
// conversation state only, so the subscribe check is the single choke
// point for channel access.
type Gate struct {
	members MembershipStore
}

// NewGate constructs a Gate.
func NewGate(members MembershipStore) *Gate {
	return &Gate{members: members}
}

// CanSubscribe reports whether the user may join the channel.
//
// Blocked users keep their memberships: membership, not account status,
// decides channel access.
func (g *Gate) CanSubscribe(ctx context.Context, user models.User, ch Channel) (bool, error) {
	switch ch.Kind {
	case Online:
		return true, nil
	case DirectMessages:
		return user.ID == ch.UserA || user.ID == ch.UserB, nil
	case GroupMessages, GroupDeleted, GroupStatus:
		return g.members.IsMember(ctx, ch.GroupID, user.ID)
	case AdvisorNotifications:
		// Only the targeted advisor, not any advisor.
		return user.IsAsesor && user.ID == ch.AdvisorID, nil
	}
	return false, nil
}
