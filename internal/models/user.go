package models

import "time"

// User is an account known to the chat service. Role flags are not
// mutually exclusive: an admin may also be an advisor. Blocked users keep
// their rows and memberships; blocked_at only hides them from default
// listings.
type User struct {
	ID           int        `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Avatar       string     `db:"avatar" json:"avatar,omitempty"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	IsAsesor     bool       `db:"is_asesor" json:"is_asesor"`
	GroupAsigned *int       `db:"group_asigned" json:"group_asigned,omitempty"`
	BlockedAt    *time.Time `db:"blocked_at" json:"blocked_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// PublicProfile is the projection of a user that is safe to put on a
// channel: id, name and avatar, never contact data or credentials.
type PublicProfile struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Public returns the broadcast-safe projection of the user.
func (u User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// Blocked reports whether the user is currently blocked.
func (u User) Blocked() bool {
	return u.BlockedAt != nil
}

// ChatUser is a client-intake record created from the public landing
// form, before the person has an account.
type ChatUser struct {
	ID          int       `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	CountryCode string    `db:"country_code" json:"country_code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
