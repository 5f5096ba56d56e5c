package models

import "time"

// Message is a chat message. Exactly one of ReceiverID and GroupID is
// set: a direct message addresses a user, a group message addresses a
// group, never both and never neither. Deletion is a hard delete.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID *int      `db:"receiver_id" json:"receiver_id,omitempty"`
	GroupID    *int      `db:"group_id" json:"group_id,omitempty"`
	Body       string    `db:"body" json:"body"`
	ReplyToID  *int      `db:"reply_to_id" json:"reply_to_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// Attachment is a file attached to a message. Rows are created in the
// same transaction as their message and never mutated afterwards. Path is
// the opaque locator handed back by the storage collaborator.
type Attachment struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	Name      string    `db:"name" json:"name"`
	Mime      string    `db:"mime" json:"mime"`
	Size      int64     `db:"size" json:"size"`
	Path      string    `db:"path" json:"path"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reaction is a user's emoji reaction to a message. At most one row
// exists per (message, user); a second reaction from the same user
// overwrites the emoji and keeps the row id.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
