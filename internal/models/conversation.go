package models

import "fmt"

// ConversationKind tags the two conversation variants.
type ConversationKind int

const (
	// DirectKind is a conversation between an unordered pair of users.
	DirectKind ConversationKind = iota
	// GroupKind is a group conversation.
	GroupKind
)

// Conversation identifies the unit of channel addressing and
// last-message tracking: either a canonical user pair or a group.
type Conversation struct {
	Kind ConversationKind

	// UserA < UserB when Kind == DirectKind.
	UserA int
	UserB int

	// GroupID is set when Kind == GroupKind.
	GroupID int
}

// Direct builds a direct conversation, canonicalizing the pair so that
// either addressing order resolves to the same conversation.
func Direct(a, b int) Conversation {
	if b < a {
		a, b = b, a
	}
	return Conversation{Kind: DirectKind, UserA: a, UserB: b}
}

// InGroup builds a group conversation.
func InGroup(groupID int) Conversation {
	return Conversation{Kind: GroupKind, GroupID: groupID}
}

// ConversationOf returns the conversation a message belongs to.
func ConversationOf(m Message) Conversation {
	if m.GroupID != nil {
		return InGroup(*m.GroupID)
	}
	receiver := 0
	if m.ReceiverID != nil {
		receiver = *m.ReceiverID
	}
	return Direct(m.SenderID, receiver)
}

// ChannelKey returns the broadcast channel name for the conversation:
// "message.user.{a}-{b}" with a < b, or "message.group.{id}".
func (c Conversation) ChannelKey() string {
	if c.Kind == GroupKind {
		return fmt.Sprintf("message.group.%d", c.GroupID)
	}
	return fmt.Sprintf("message.user.%d-%d", c.UserA, c.UserB)
}

// Includes reports whether the user takes part in the conversation
// without consulting storage. Group membership needs a lookup, so only
// direct conversations can answer true here.
func (c Conversation) Includes(userID int) bool {
	return c.Kind == DirectKind && (c.UserA == userID || c.UserB == userID)
}
