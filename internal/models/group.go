package models

// GroupRole is a member's role inside a group.
type GroupRole string

const (
	RoleAdmin  GroupRole = "ADMIN"
	RoleMember GroupRole = "MEMBER"
)

// Valid reports whether the role is one of the known values.
func (r GroupRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group represents a circle of people who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g. "Roommates").
	Name string

	// Description is an optional free-form description.
	Description string

	Audit
}

// GroupMember is the join row between a group and a user.
// A (GroupID, UserID) pair is unique across all rows including tombstones;
// re-adding a removed member reactivates the existing row.
type GroupMember struct {
	ID      string
	GroupID string
	UserID  string
	Role    GroupRole

	Audit
}
