// Package fanout turns committed domain mutations into channel events
// and hands them to the broker.
package fanout

import (
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// Event is the closed set of broadcastable domain events. Handlers build
// the variant after their transaction commits and pass it to
// Publisher.Publish; a failed mutation never produces an event.
type Event interface {
	isEvent()
}

// MessageCreated fires after a message (and its attachments) committed.
type MessageCreated struct {
	Message models.Message
	Sender  models.PublicProfile
}

// MessageDeleted fires after a hard delete. When the deleted message was
// the conversation's summary head, SummaryChanged is true and
// Replacement carries the new head (nil when the conversation is now
// empty, which clients must render as empty, not stale).
type MessageDeleted struct {
	Message        models.Message
	SummaryChanged bool
	Replacement    *models.Message
}

// ReactionChanged fires on reaction upsert ("add") and removal
// ("remove"), scoped to the message's conversation channel.
type ReactionChanged struct {
	Reaction     models.Reaction
	Actor        models.PublicProfile
	Action       string
	Conversation models.Conversation
}

// Group change subtypes.
const (
	GroupAsesorChanged  = "asesor_changed"
	GroupStatusChanged  = "status_changed"
	GroupMembersChanged = "members_changed"
	GroupDeleted        = "deleted"
)

// GroupChanged fires on advisor reassignment, status change, membership
// replacement and deletion.
type GroupChanged struct {
	Group       models.Group
	Change      string
	MemberIDs   []int
	InitiatorID int
}

// ClientIntake fires when a prospective client submits the intake form;
// it targets the handling advisor's notification channel.
type ClientIntake struct {
	Client    models.ChatUser
	AdvisorID int
	Note      string
}

func (MessageCreated) isEvent()  {}
func (MessageDeleted) isEvent()  {}
func (ReactionChanged) isEvent() {}
func (GroupChanged) isEvent()    {}
func (ClientIntake) isEvent()    {}
