package models

import "time"

// Group is a group conversation. The owner and the assigned advisor are
// always members. last_message_id/last_message_at form the denormalized
// summary pointer maintained by the summary package.
type Group struct {
	ID            int        `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description,omitempty"`
	OwnerID       int        `db:"owner_id" json:"owner_id"`
	AsesorID      *int       `db:"asesor_id" json:"asesor_id,omitempty"`
	CodeStatus    int        `db:"code_status" json:"code_status"`
	LastMessageID *int       `db:"last_message_id" json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// DirectConversationRow is the stored record for a direct user-pair
// conversation. UserID1 < UserID2 always (canonical order).
type DirectConversationRow struct {
	ID            int        `db:"id" json:"id"`
	UserID1       int        `db:"user_id1" json:"user_id1"`
	UserID2       int        `db:"user_id2" json:"user_id2"`
	LastMessageID *int       `db:"last_message_id" json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ConversationSummary is one row of the merged conversation list a user
// sees: either a peer user or a group, with its last-message preview.
type ConversationSummary struct {
	IsGroup       bool       `json:"is_group"`
	UserID        int        `json:"user_id,omitempty"`
	GroupID       int        `json:"group_id,omitempty"`
	Name          string     `json:"name"`
	Avatar        string     `json:"avatar,omitempty"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
