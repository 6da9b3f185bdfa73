package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique, stored lowercase).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Role is the site-wide role; group-level roles live on GroupMember.
	Role string

	Audit
}

// NewUser creates a user with a generated ID and timestamps set to now.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         "USER",
		Audit: Audit{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
