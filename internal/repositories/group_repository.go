package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// GroupRepository abstracts group persistence: membership, the advisor
// assignment, status codes, the summary pointer, and deferred-deletion
// bookkeeping.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group models.Group, memberIDs []int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	ReassignAdvisor(ctx context.Context, groupID int, advisorID int) (models.Group, error)
	ChangeStatus(ctx context.Context, groupID int, code int) (models.Group, error)
	ReplaceMembers(ctx context.Context, groupID int, memberIDs []int) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID int) error
	RecordScheduledDeletion(ctx context.Context, groupID int, requestedBy int, dueAt time.Time) error
	SetLastMessage(ctx context.Context, groupID int, msg models.Message) error
	RepointAfterDelete(ctx context.Context, groupID int, deletedID int) (*models.Message, bool, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group and its members atomically. The owner and
// the assigned advisor are always part of the member set.
func (r *GroupRepo) CreateGroup(ctx context.Context, group models.Group, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, owner_id, asesor_id, code_status) VALUES ($1, $2, $3, $4, $5)
         RETURNING id, name, description, owner_id, asesor_id, code_status, last_message_id, last_message_at, created_at`,
		group.Name, group.Description, group.OwnerID, group.AsesorID, group.CodeStatus).
		StructScan(&created); err != nil {
		return models.Group{}, err
	}

	ids := mandatoryMembers(created, memberIDs)
	for _, id := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO group_users (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, id); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return created, nil
}

// mandatoryMembers dedupes the requested member set and forces the owner
// and advisor in.
func mandatoryMembers(group models.Group, memberIDs []int) []int {
	set := map[int]struct{}{group.OwnerID: {}}
	if group.AsesorID != nil {
		set[*group.AsesorID] = struct{}{}
	}
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`SELECT id, name, description, owner_id, asesor_id, code_status, last_message_id, last_message_at, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_users WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// MemberIDs returns the group's member ids in ascending order.
func (r *GroupRepo) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM group_users WHERE group_id=$1 ORDER BY user_id ASC`, groupID)
	return ids, err
}

// ListGroupsForUser returns summary rows for the groups the user belongs
// to, newest activity first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT g.id, g.name, m.body, g.last_message_at
         FROM groups g
         INNER JOIN group_users gu ON gu.group_id = g.id
         LEFT JOIN messages m ON m.id = g.last_message_id
         WHERE gu.user_id=$1
         ORDER BY g.last_message_at DESC NULLS LAST, g.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var (
			id     int
			name   string
			body   sql.NullString
			lastAt sql.NullTime
		)
		if err := rows.Scan(&id, &name, &body, &lastAt); err != nil {
			return nil, err
		}
		item := models.ConversationSummary{IsGroup: true, GroupID: id, Name: name, LastMessage: body.String}
		if lastAt.Valid {
			at := lastAt.Time
			item.LastMessageAt = &at
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ReassignAdvisor swaps the assigned advisor atomically: the previous
// advisor leaves the member set (unless they own the group), the new one
// joins it, and the column is updated.
func (r *GroupRepo) ReassignAdvisor(ctx context.Context, groupID int, advisorID int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	err = tx.QueryRowxContext(ctx,
		`SELECT id, name, description, owner_id, asesor_id, code_status, last_message_id, last_message_at, created_at FROM groups WHERE id=$1 FOR UPDATE`, groupID).
		StructScan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrGroupNotFound
		return models.Group{}, err
	}
	if err != nil {
		return models.Group{}, err
	}

	if group.AsesorID != nil && *group.AsesorID != advisorID && *group.AsesorID != group.OwnerID {
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM group_users WHERE group_id=$1 AND user_id=$2`, groupID, *group.AsesorID); err != nil {
			return models.Group{}, err
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_users (group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, advisorID); err != nil {
		return models.Group{}, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE groups SET asesor_id=$1 WHERE id=$2`, advisorID, groupID); err != nil {
		return models.Group{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	group.AsesorID = &advisorID
	return group, nil
}

// ChangeStatus updates the group's status code.
func (r *GroupRepo) ChangeStatus(ctx context.Context, groupID int, code int) (models.Group, error) {
	var group models.Group
	err := r.db.QueryRowxContext(ctx,
		`UPDATE groups SET code_status=$1 WHERE id=$2
         RETURNING id, name, description, owner_id, asesor_id, code_status, last_message_id, last_message_at, created_at`,
		code, groupID).StructScan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ReplaceMembers swaps the full member set. The owner and the assigned
// advisor are re-included regardless of the requested list.
func (r *GroupRepo) ReplaceMembers(ctx context.Context, groupID int, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	err = tx.QueryRowxContext(ctx,
		`SELECT id, name, description, owner_id, asesor_id, code_status, last_message_id, last_message_at, created_at FROM groups WHERE id=$1 FOR UPDATE`, groupID).
		StructScan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrGroupNotFound
		return models.Group{}, err
	}
	if err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_users WHERE group_id=$1`, groupID); err != nil {
		return models.Group{}, err
	}
	for _, id := range mandatoryMembers(group, memberIDs) {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO group_users (group_id, user_id) VALUES ($1, $2)`, groupID, id); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// DeleteGroup removes the group; messages, memberships and deletion
// bookkeeping cascade.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// RecordScheduledDeletion stores the due time of a pending deletion so
// operators can see what is queued. The row cascades away with the group.
func (r *GroupRepo) RecordScheduledDeletion(ctx context.Context, groupID int, requestedBy int, dueAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_deletions (group_id, requested_by, due_at) VALUES ($1, $2, $3)
         ON CONFLICT (group_id) DO UPDATE SET requested_by = EXCLUDED.requested_by, due_at = EXCLUDED.due_at`,
		groupID, requestedBy, dueAt)
	return err
}

// SetLastMessage unconditionally points the group at msg.
func (r *GroupRepo) SetLastMessage(ctx context.Context, groupID int, msg models.Message) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET last_message_id=$1, last_message_at=$2 WHERE id=$3`, msg.ID, msg.CreatedAt, groupID)
	return conflictErr(err)
}

// RepointAfterDelete mirrors ConversationRepo.RepointAfterDelete for
// group conversations.
func (r *GroupRepo) RepointAfterDelete(ctx context.Context, groupID int, deletedID int) (*models.Message, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var pointer sql.NullInt64
	err = tx.QueryRowxContext(ctx,
		`SELECT last_message_id FROM groups WHERE id=$1 FOR UPDATE`, groupID).Scan(&pointer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrGroupNotFound
	}
	if err != nil {
		return nil, false, conflictErr(err)
	}

	if pointer.Valid && int(pointer.Int64) != deletedID {
		return nil, false, nil
	}

	var head models.Message
	err = tx.GetContext(ctx, &head,
		`SELECT id, sender_id, receiver_id, group_id, body, reply_to_id, created_at FROM messages
         WHERE group_id=$1 AND id <> $2
         ORDER BY created_at DESC, id DESC LIMIT 1`, groupID, deletedID)

	var newID *int
	var newAt *time.Time
	var replacement *models.Message
	switch {
	case err == nil:
		newID, newAt = &head.ID, &head.CreatedAt
		replacement = &head
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, false, conflictErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE groups SET last_message_id=$1, last_message_at=$2 WHERE id=$3`, newID, newAt, groupID); err != nil {
		return nil, false, conflictErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, conflictErr(err)
	}
	return replacement, true, nil
}
