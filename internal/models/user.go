package models

import (
	"time"
)

// User is a credential record as persisted by the store.
type User struct {
	ID           string    `json:"id" db:"id"`                 // Assigned by the store
	Username     string    `json:"username" db:"username"`     // Display name, not unique
	Email        string    `json:"email" db:"email"`           // Unique lookup key
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
}

// PublicUser is the client-facing projection of a User.
// swagger:model PublicUser
type PublicUser struct {
	ID    string `json:"id" example:"665f1c2e9b1d4a0012345678"`
	Name  string `json:"name" example:"Jane"`
	Email string `json:"email" example:"jane@example.com"`
}

// Public returns the projection safe to send to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Username,
		Email: u.Email,
	}
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token string
	User  PublicUser
}
