package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// NewAttachment carries the metadata of a stored attachment at message
// creation time.
type NewAttachment struct {
	Name string
	Mime string
	Size int64
	Path string
}

// MessageRepository defines interactions for messages and their
// attachments.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message, attachments []NewAttachment) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) error
	ListDirectMessages(ctx context.Context, userA, userB int, beforeID int, limit int) ([]models.Message, error)
	ListGroupMessages(ctx context.Context, groupID int, beforeID int, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores the message and its attachment rows in one
// transaction; a partial message with attachments missing can never be
// observed.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message, attachments []NewAttachment) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Message
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, group_id, body, reply_to_id) VALUES ($1, $2, $3, $4, $5)
         RETURNING id, sender_id, receiver_id, group_id, body, reply_to_id, created_at`,
		msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Body, msg.ReplyToID).
		StructScan(&created); err != nil {
		return models.Message{}, err
	}

	for _, a := range attachments {
		var stored models.Attachment
		if err = tx.QueryRowxContext(ctx,
			`INSERT INTO message_attachments (message_id, name, mime, size, path) VALUES ($1, $2, $3, $4, $5)
             RETURNING id, message_id, name, mime, size, path, created_at`,
			created.ID, a.Name, a.Mime, a.Size, a.Path).
			StructScan(&stored); err != nil {
			return models.Message{}, err
		}
		created.Attachments = append(created.Attachments, stored)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return created, nil
}

// GetMessage retrieves a single message with its attachments.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, sender_id, receiver_id, group_id, body, reply_to_id, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}

	if err := r.db.SelectContext(ctx, &msg.Attachments,
		`SELECT id, message_id, name, mime, size, path, created_at FROM message_attachments WHERE message_id=$1 ORDER BY id ASC`, messageID); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteMessage hard-deletes the message. Attachments and reactions
// cascade; the summary pointer is repaired by the caller afterwards.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ListDirectMessages returns a newest-first page of the pair's messages.
// beforeID == 0 starts from the head; otherwise only messages created
// before that message are returned (infinite-scroll cursor).
func (r *MessageRepo) ListDirectMessages(ctx context.Context, userA, userB int, beforeID int, limit int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, group_id, body, reply_to_id, created_at FROM messages
        WHERE group_id IS NULL
          AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))`
	args := []interface{}{userA, userB}
	if beforeID > 0 {
		query += ` AND (created_at, id) < (SELECT created_at, id FROM messages WHERE id=$3)`
		args = append(args, beforeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + itoa(limit)

	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	return r.attachAll(ctx, msgs)
}

// ListGroupMessages is the group-side counterpart of ListDirectMessages.
func (r *MessageRepo) ListGroupMessages(ctx context.Context, groupID int, beforeID int, limit int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, group_id, body, reply_to_id, created_at FROM messages WHERE group_id=$1`
	args := []interface{}{groupID}
	if beforeID > 0 {
		query += ` AND (created_at, id) < (SELECT created_at, id FROM messages WHERE id=$2)`
		args = append(args, beforeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + itoa(limit)

	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, args...); err != nil {
		return nil, err
	}
	return r.attachAll(ctx, msgs)
}

func (r *MessageRepo) attachAll(ctx context.Context, msgs []models.Message) ([]models.Message, error) {
	if len(msgs) == 0 {
		return msgs, nil
	}
	ids := make([]int, 0, len(msgs))
	index := map[int]int{}
	for i, m := range msgs {
		ids = append(ids, m.ID)
		index[m.ID] = i
	}

	query, args, err := sqlx.In(
		`SELECT id, message_id, name, mime, size, path, created_at FROM message_attachments WHERE message_id IN (?) ORDER BY id ASC`, ids)
	if err != nil {
		return nil, err
	}
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, a := range attachments {
		i := index[a.MessageID]
		msgs[i].Attachments = append(msgs[i].Attachments, a)
	}
	return msgs, nil
}

func itoa(n int) string {
	if n <= 0 {
		n = 10
	}
	return strconv.Itoa(n)
}
