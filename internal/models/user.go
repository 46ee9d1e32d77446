package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an identity known to the ledger. Group members and balance parties
// are referenced by User.ID.
type User struct {
	ID          string
	Email       string
	DisplayName string

	// PasswordHash is a bcrypt hash. Never serialized to clients.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser builds a user with a fresh ID and timestamps. Emails are
// compared case-insensitively and stored lower-cased.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
