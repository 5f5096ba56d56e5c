// Package summary keeps each conversation's last-message pointer correct
// under concurrent creates and deletes.
package summary

import (
	"context"
	"errors"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/observability"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

// DirectStore is the pointer surface of the direct-conversation
// repository.
type DirectStore interface {
	EnsureConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error)
	SetLastMessage(ctx context.Context, userA, userB int, msg models.Message) error
	RepointAfterDelete(ctx context.Context, userA, userB int, deletedID int) (*models.Message, bool, error)
}

// GroupStore is the pointer surface of the group repository.
type GroupStore interface {
	SetLastMessage(ctx context.Context, groupID int, msg models.Message) error
	RepointAfterDelete(ctx context.Context, groupID int, deletedID int) (*models.Message, bool, error)
}

// Maintainer applies the summary-pointer rules over the conversation
// variants. The stores serialize the read-modify-write with a row lock;
// the maintainer adds the single retry on a lost race.
type Maintainer struct {
	direct DirectStore
	groups GroupStore
}

// NewMaintainer constructs a Maintainer.
func NewMaintainer(direct DirectStore, groups GroupStore) *Maintainer {
	return &Maintainer{direct: direct, groups: groups}
}

// OnMessageCreated points the message's conversation at it. A new
// message is the newest event for its own conversation at creation time,
// so the set is unconditional.
func (m *Maintainer) OnMessageCreated(ctx context.Context, msg models.Message) error {
	conv := models.ConversationOf(msg)
	switch conv.Kind {
	case models.GroupKind:
		return m.retry(func() error {
			return m.groups.SetLastMessage(ctx, conv.GroupID, msg)
		})
	default:
		if _, err := m.direct.EnsureConversation(ctx, conv.UserA, conv.UserB); err != nil {
			return err
		}
		return m.retry(func() error {
			return m.direct.SetLastMessage(ctx, conv.UserA, conv.UserB, msg)
		})
	}
}

// OnMessageDeleted repairs the pointer after msg was hard-deleted. It
// returns the replacement head (nil when the conversation is now empty)
// and whether the pointer changed at all; a delete of a non-head message
// leaves the summary untouched.
func (m *Maintainer) OnMessageDeleted(ctx context.Context, msg models.Message) (*models.Message, bool, error) {
	conv := models.ConversationOf(msg)

	var (
		replacement *models.Message
		changed     bool
	)
	err := m.retry(func() error {
		var err error
		switch conv.Kind {
		case models.GroupKind:
			replacement, changed, err = m.groups.RepointAfterDelete(ctx, conv.GroupID, msg.ID)
		default:
			replacement, changed, err = m.direct.RepointAfterDelete(ctx, conv.UserA, conv.UserB, msg.ID)
		}
		return err
	})
	return replacement, changed, err
}

// retry runs fn, repeating it exactly once when the conditional update
// lost its race.
func (m *Maintainer) retry(fn func() error) error {
	err := fn()
	if errors.Is(err, repositories.ErrConflict) {
		observability.IncSummaryConflict()
		err = fn()
	}
	return err
}
