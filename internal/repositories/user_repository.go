package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

// UserRepository abstracts user persistence. Credential management lives
// in the auth collaborator; this repository only covers the profile and
// role data the chat core needs.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	ListConversationPartners(ctx context.Context, viewer models.User) ([]models.ConversationSummary, error)
	ListAdvisors(ctx context.Context, viewer models.User) ([]models.User, error)
	ToggleAdmin(ctx context.Context, userID int) (models.User, error)
	ToggleAsesor(ctx context.Context, userID int) (models.User, error)
	ToggleBlocked(ctx context.Context, userID int) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, phone, avatar, is_admin, is_asesor, group_asigned, blocked_at, created_at, updated_at`

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// CreateUser inserts a user row (admin-created accounts).
func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var created models.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (name, email, phone, avatar, is_admin, is_asesor, group_asigned) VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+userColumns,
		user.Name, user.Email, user.Phone, user.Avatar, user.IsAdmin, user.IsAsesor, user.GroupAsigned).
		StructScan(&created)
	return created, err
}

// ListConversationPartners returns every other user as a direct
// conversation summary, joined with the pair's last-message preview.
// Blocked users are hidden from non-admin viewers but sort last for
// admins.
func (r *UserRepo) ListConversationPartners(ctx context.Context, viewer models.User) ([]models.ConversationSummary, error) {
	query := `SELECT u.id, u.name, u.avatar, u.blocked_at, m.body, c.last_message_at
        FROM users u
        LEFT JOIN conversations c
            ON (c.user_id1 = LEAST(u.id, $1) AND c.user_id2 = GREATEST(u.id, $1))
        LEFT JOIN messages m ON m.id = c.last_message_id
        WHERE u.id <> $1`
	if !viewer.IsAdmin {
		query += ` AND u.blocked_at IS NULL`
	}
	query += ` ORDER BY (u.blocked_at IS NOT NULL) ASC, c.last_message_at DESC NULLS LAST, u.name ASC`

	rows, err := r.db.QueryxContext(ctx, query, viewer.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var (
			id        int
			name      string
			avatar    string
			blockedAt sql.NullTime
			body      sql.NullString
			lastAt    sql.NullTime
		)
		if err := rows.Scan(&id, &name, &avatar, &blockedAt, &body, &lastAt); err != nil {
			return nil, err
		}
		item := models.ConversationSummary{UserID: id, Name: name, Avatar: avatar, LastMessage: body.String}
		if blockedAt.Valid {
			at := blockedAt.Time
			item.BlockedAt = &at
		}
		if lastAt.Valid {
			at := lastAt.Time
			item.LastMessageAt = &at
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ListAdvisors returns advisor accounts; blocked advisors are hidden
// from non-admin viewers.
func (r *UserRepo) ListAdvisors(ctx context.Context, viewer models.User) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_asesor = TRUE`
	if !viewer.IsAdmin {
		query += ` AND blocked_at IS NULL`
	}
	query += ` ORDER BY name ASC`

	var users []models.User
	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

// ToggleAdmin flips the admin flag.
func (r *UserRepo) ToggleAdmin(ctx context.Context, userID int) (models.User, error) {
	return r.toggleFlag(ctx, userID, "is_admin")
}

// ToggleAsesor flips the advisor flag.
func (r *UserRepo) ToggleAsesor(ctx context.Context, userID int) (models.User, error) {
	return r.toggleFlag(ctx, userID, "is_asesor")
}

func (r *UserRepo) toggleFlag(ctx context.Context, userID int, column string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users SET `+column+` = NOT `+column+`, updated_at = NOW() WHERE id=$1 RETURNING `+userColumns, userID).
		StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ToggleBlocked blocks an active user or unblocks a blocked one. Rows
// are never hard-deleted.
func (r *UserRepo) ToggleBlocked(ctx context.Context, userID int) (models.User, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	var blockedAt *time.Time
	if user.BlockedAt == nil {
		now := time.Now().UTC()
		blockedAt = &now
	}
	err = r.db.QueryRowxContext(ctx,
		`UPDATE users SET blocked_at=$1, updated_at = NOW() WHERE id=$2 RETURNING `+userColumns, blockedAt, userID).
		StructScan(&user)
	return user, err
}
