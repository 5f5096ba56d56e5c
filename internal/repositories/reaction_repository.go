package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// ReactionRepository defines interactions for message reactions.
type ReactionRepository interface {
	Upsert(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error)
	Remove(ctx context.Context, messageID int, userID int) (models.Reaction, bool, error)
	ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Upsert creates or overwrites the user's reaction to a message. The
// unique (message_id, user_id) key guarantees at most one row per pair;
// an overwrite keeps the existing row id.
func (r *ReactionRepo) Upsert(ctx context.Context, messageID int, userID int, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
         ON CONFLICT (message_id, user_id) DO UPDATE SET emoji = EXCLUDED.emoji
         RETURNING id, message_id, user_id, emoji, created_at`,
		messageID, userID, emoji).StructScan(&reaction)
	return reaction, err
}

// Remove deletes the user's reaction if present. An absent reaction is a
// no-op, reported through the bool, not an error.
func (r *ReactionRepo) Remove(ctx context.Context, messageID int, userID int) (models.Reaction, bool, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx,
		`DELETE FROM message_reactions WHERE message_id=$1 AND user_id=$2
         RETURNING id, message_id, user_id, emoji, created_at`,
		messageID, userID).StructScan(&reaction)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reaction{}, false, nil
	}
	if err != nil {
		return models.Reaction{}, false, err
	}
	return reaction, true, nil
}

// ListForMessage returns the message's reactions.
func (r *ReactionRepo) ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT id, message_id, user_id, emoji, created_at FROM message_reactions WHERE message_id=$1 ORDER BY id ASC`, messageID)
	return reactions, err
}
