package models

import (
	"slices"
	"time"
)

// Role is a member's role in a group.
type Role string

const (
	// RoleAdmin is given to the group creator.
	RoleAdmin Role = "admin"
	// RoleMember is given to everyone added later.
	RoleMember Role = "member"
)

// Group is a set of users sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Description is optional free text.
	Description string

	// Members holds member user IDs. Order carries no meaning.
	Members []string

	// CreatedBy is the creator's user ID. Only the creator may delete the group.
	CreatedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// Membership is the users/{userId}/userGroups/{ref} pointer.
type Membership struct {
	UserID   string
	GroupID  string
	Role     Role
	JoinedAt time.Time
}
