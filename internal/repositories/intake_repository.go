package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

var ErrIntakeDuplicate = errors.New("intake with this email or phone already exists")

// IntakeRepository stores client-intake records submitted from the
// public landing form.
type IntakeRepository interface {
	CreateChatUser(ctx context.Context, intake models.ChatUser) (models.ChatUser, error)
}

// IntakeRepo is a sqlx implementation of IntakeRepository.
type IntakeRepo struct {
	db *sqlx.DB
}

// NewIntakeRepo constructs an IntakeRepo.
func NewIntakeRepo(db *sqlx.DB) *IntakeRepo {
	return &IntakeRepo{db: db}
}

// CreateChatUser inserts an intake record. Duplicate email/phone maps to
// ErrIntakeDuplicate.
func (r *IntakeRepo) CreateChatUser(ctx context.Context, intake models.ChatUser) (models.ChatUser, error) {
	var created models.ChatUser
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_users (full_name, email, phone, country_code) VALUES ($1, $2, $3, $4)
         RETURNING id, full_name, email, phone, country_code, created_at`,
		intake.FullName, intake.Email, intake.Phone, intake.CountryCode).
		StructScan(&created)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.ChatUser{}, ErrIntakeDuplicate
	}
	return created, err
}
