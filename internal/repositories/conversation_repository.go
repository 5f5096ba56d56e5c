package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// ConversationRepository abstracts direct-conversation persistence,
// including the last-message summary pointer.
type ConversationRepository interface {
	EnsureConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error)
	GetConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error)
	SetLastMessage(ctx context.Context, userA, userB int, msg models.Message) error
	RepointAfterDelete(ctx context.Context, userA, userB int, deletedID int) (*models.Message, bool, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func canonicalPair(a, b int) (int, int) {
	if b < a {
		return b, a
	}
	return a, b
}

// EnsureConversation returns the conversation row for the pair, creating
// it if absent. The pair is stored in canonical order so either
// addressing order hits the same row.
func (r *ConversationRepo) EnsureConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error) {
	u1, u2 := canonicalPair(userA, userB)

	var conv models.DirectConversationRow
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user_id1, user_id2, last_message_id, last_message_at, created_at FROM conversations WHERE user_id1=$1 AND user_id2=$2`, u1, u2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.DirectConversationRow{}, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO conversations (user_id1, user_id2) VALUES ($1, $2)
         ON CONFLICT (user_id1, user_id2) DO UPDATE SET user_id1 = EXCLUDED.user_id1
         RETURNING id, user_id1, user_id2, last_message_id, last_message_at, created_at`, u1, u2).
		Scan(&conv.ID, &conv.UserID1, &conv.UserID2, &conv.LastMessageID, &conv.LastMessageAt, &conv.CreatedAt)
	return conv, err
}

// GetConversation fetches the row for a pair.
func (r *ConversationRepo) GetConversation(ctx context.Context, userA, userB int) (models.DirectConversationRow, error) {
	u1, u2 := canonicalPair(userA, userB)
	var conv models.DirectConversationRow
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user_id1, user_id2, last_message_id, last_message_at, created_at FROM conversations WHERE user_id1=$1 AND user_id2=$2`, u1, u2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DirectConversationRow{}, ErrConversationNotFound
	}
	return conv, err
}

// SetLastMessage unconditionally points the conversation at msg. A newly
// created message is the newest in its conversation by construction, so
// no compare is needed on this path.
func (r *ConversationRepo) SetLastMessage(ctx context.Context, userA, userB int, msg models.Message) error {
	u1, u2 := canonicalPair(userA, userB)
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$1, last_message_at=$2 WHERE user_id1=$3 AND user_id2=$4`,
		msg.ID, msg.CreatedAt, u1, u2)
	return conflictErr(err)
}

// RepointAfterDelete repairs the summary pointer after a hard delete.
// The conversation row is locked for the read-modify-write; the pointer
// column has ON DELETE SET NULL, so a pointer that is NULL or still
// equals the deleted id means the deleted message was the current head
// and the new head must be requeried.
func (r *ConversationRepo) RepointAfterDelete(ctx context.Context, userA, userB int, deletedID int) (*models.Message, bool, error) {
	u1, u2 := canonicalPair(userA, userB)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var pointer sql.NullInt64
	err = tx.QueryRowxContext(ctx,
		`SELECT last_message_id FROM conversations WHERE user_id1=$1 AND user_id2=$2 FOR UPDATE`, u1, u2).
		Scan(&pointer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrConversationNotFound
	}
	if err != nil {
		return nil, false, conflictErr(err)
	}

	if pointer.Valid && int(pointer.Int64) != deletedID {
		// The deleted message was not the summary head; nothing to do.
		return nil, false, nil
	}

	var head models.Message
	err = tx.GetContext(ctx, &head,
		`SELECT id, sender_id, receiver_id, group_id, body, reply_to_id, created_at FROM messages
         WHERE group_id IS NULL
           AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
           AND id <> $3
         ORDER BY created_at DESC, id DESC LIMIT 1`, u1, u2, deletedID)

	var newID *int
	var newAt *time.Time
	var replacement *models.Message
	switch {
	case err == nil:
		newID, newAt = &head.ID, &head.CreatedAt
		replacement = &head
	case errors.Is(err, sql.ErrNoRows):
		// Conversation is now empty; pointer becomes NULL.
	default:
		return nil, false, conflictErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$1, last_message_at=$2 WHERE user_id1=$3 AND user_id2=$4`,
		newID, newAt, u1, u2); err != nil {
		return nil, false, conflictErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, conflictErr(err)
	}
	return replacement, true, nil
}
