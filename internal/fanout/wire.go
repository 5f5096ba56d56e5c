package fanout

import (
	"time"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// Wire event names, as seen by subscribers.
const (
	EventMessageCreated  = "message.created"
	EventMessageDeleted  = "message.deleted"
	EventReactionChanged = "reaction.changed"
	EventGroupChanged    = "group.changed"
	EventClientIntake    = "intake.created"
)

// Envelope is the frame every channel payload travels in.
type Envelope struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

// MessagePayload is the public projection of a message.
type MessagePayload struct {
	ID          int                 `json:"id"`
	SenderID    int                 `json:"sender_id"`
	Sender      models.PublicProfile `json:"sender"`
	ReceiverID  *int                `json:"receiver_id,omitempty"`
	GroupID     *int                `json:"group_id,omitempty"`
	Body        string              `json:"body"`
	ReplyToID   *int                `json:"reply_to_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// MessagePreview is the slim form used for replacement summaries.
type MessagePreview struct {
	ID        int       `json:"id"`
	Body      string    `json:"body"`
	SenderID  int       `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageDeletedPayload describes a hard delete and the summary repair
// that went with it.
type MessageDeletedPayload struct {
	MessageID      int             `json:"message_id"`
	SummaryChanged bool            `json:"summary_changed"`
	LastMessage    *MessagePreview `json:"last_message,omitempty"`
}

// ReactionPayload mirrors the server-side upsert invariant: one reaction
// per (message, user), replaced on add, dropped on remove.
type ReactionPayload struct {
	ID        int                  `json:"id"`
	MessageID int                  `json:"message_id"`
	User      models.PublicProfile `json:"user"`
	Emoji     string               `json:"emoji"`
	Action    string               `json:"action"`
}

// GroupPayload is the public projection of a group.
type GroupPayload struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	OwnerID       int        `json:"owner_id"`
	AsesorID      *int       `json:"asesor_id,omitempty"`
	CodeStatus    int        `json:"code_status"`
	MemberIDs     []int      `json:"user_ids,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// GroupChangedPayload names the change applied to a group.
type GroupChangedPayload struct {
	Group GroupPayload `json:"group"`
	Type  string       `json:"type"`
}

// IntakePayload announces a new prospective client to the handling
// advisor.
type IntakePayload struct {
	Client  models.ChatUser `json:"client"`
	Message string          `json:"message"`
}

func messagePayload(m models.Message, sender models.PublicProfile) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		SenderID:    m.SenderID,
		Sender:      sender,
		ReceiverID:  m.ReceiverID,
		GroupID:     m.GroupID,
		Body:        m.Body,
		ReplyToID:   m.ReplyToID,
		CreatedAt:   m.CreatedAt,
		Attachments: m.Attachments,
	}
}

func preview(m *models.Message) *MessagePreview {
	if m == nil {
		return nil
	}
	return &MessagePreview{ID: m.ID, Body: m.Body, SenderID: m.SenderID, CreatedAt: m.CreatedAt}
}

func groupPayload(g models.Group, memberIDs []int) GroupPayload {
	return GroupPayload{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		OwnerID:       g.OwnerID,
		AsesorID:      g.AsesorID,
		CodeStatus:    g.CodeStatus,
		MemberIDs:     memberIDs,
		LastMessageAt: g.LastMessageAt,
	}
}
