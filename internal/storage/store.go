// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/rupaya-app/rupaya/internal/models"
)

// Store defines the persistence contract the services depend on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Conventions:
//   - Point lookups return (nil, nil) when no live row matches; tombstoned
//     rows are invisible unless the method says otherwise.
//   - Every mutation method runs in a single transaction: either all of its
//     writes commit or none do.
type Store interface {
	// --- Users ---

	// CreateUser inserts a new user row.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs retrieves multiple users at once, keyed by id.
	// Missing users are simply absent from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// --- Groups ---

	// CreateGroup persists a group together with its initial member rows.
	CreateGroup(ctx context.Context, group *models.Group, members []*models.GroupMember) error

	// GetGroup retrieves a live group by id.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// UpdateGroupInfo rewrites a group's name, description and update audit.
	UpdateGroupInfo(ctx context.Context, group *models.Group) error

	// SoftDeleteGroup tombstones a group and cascades the tombstone to its
	// live memberships, bills and shares.
	SoftDeleteGroup(ctx context.Context, groupID, deletedBy string) error

	// ListGroupsForUser returns the live groups the user belongs to,
	// newest-first, with optional case-insensitive substring search on
	// name/description. The second result is the total match count.
	ListGroupsForUser(ctx context.Context, userID, search string, skip, limit int) ([]*models.Group, int, error)

	// --- Group members ---

	// GetMembership returns the active membership for (group, user).
	GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error)

	// GetMembershipAny returns the membership row for (group, user)
	// including tombstones. Used for reactivation.
	GetMembershipAny(ctx context.Context, groupID, userID string) (*models.GroupMember, error)

	// GetMemberByID returns an active membership row by its id.
	GetMemberByID(ctx context.Context, memberID string) (*models.GroupMember, error)

	// ListActiveMembers returns the active membership rows of a group.
	ListActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)

	// InsertMember inserts a fresh membership row.
	InsertMember(ctx context.Context, member *models.GroupMember) error

	// ReactivateMember clears a tombstoned membership in place, resetting
	// its role. The row id is preserved.
	ReactivateMember(ctx context.Context, memberID string, role models.GroupRole, updatedBy string) error

	// UpdateMemberRole changes a membership's role.
	UpdateMemberRole(ctx context.Context, memberID string, role models.GroupRole, updatedBy string) error

	// RemoveMember tombstones a membership. If the group is left with zero
	// active members the group itself is tombstoned in the same
	// transaction; the returned flag reports whether that happened.
	RemoveMember(ctx context.Context, memberID, groupID, deletedBy string) (groupDeleted bool, err error)

	// CountActiveMembers returns the number of active members in a group.
	CountActiveMembers(ctx context.Context, groupID string) (int, error)

	// CountActiveAdmins returns the number of active ADMIN members.
	CountActiveAdmins(ctx context.Context, groupID string) (int, error)

	// CountActiveMembersExcluding counts active members other than userID.
	CountActiveMembersExcluding(ctx context.Context, groupID, userID string) (int, error)

	// CountGroupsForUser counts the live groups the user belongs to.
	CountGroupsForUser(ctx context.Context, userID string) (int, error)

	// ListCoMembers returns distinct users who share at least one live
	// group with userID, up to limit.
	ListCoMembers(ctx context.Context, userID string, limit int) ([]*models.User, error)

	// --- Bills and shares ---

	// CreateBill persists a bill and its computed shares as one unit.
	CreateBill(ctx context.Context, bill *models.Bill, shares []*models.BillShare) error

	// GetBill retrieves a live bill by id.
	GetBill(ctx context.Context, id string) (*models.Bill, error)

	// ApplyBillUpdate rewrites the bill row and reconciles its share set in
	// one transaction. Shares with an id are updated in place, shares
	// without one are inserted, and deleteIDs are removed.
	ApplyBillUpdate(ctx context.Context, bill *models.Bill, upserts []*models.BillShare, deleteIDs []string) error

	// ListBillsByGroup returns a group's live bills newest-first with
	// optional case-insensitive substring search on the description.
	ListBillsByGroup(ctx context.Context, groupID, search string, skip, limit int) ([]*models.Bill, int, error)

	// ListBillsForUser returns the live bills the user pays for or
	// participates in, newest-first, with optional description search.
	ListBillsForUser(ctx context.Context, userID, search string, skip, limit int) ([]*models.Bill, int, error)

	// GetShare retrieves a live share by id.
	GetShare(ctx context.Context, shareID string) (*models.BillShare, error)

	// ListShares returns the live shares of a bill.
	ListShares(ctx context.Context, billID string) ([]*models.BillShare, error)

	// ListSharesByBills batch-loads the live shares of several bills,
	// keyed by bill id.
	ListSharesByBills(ctx context.Context, billIDs []string) (map[string][]*models.BillShare, error)

	// UpdateSharePaid flips a share's paid flag.
	UpdateSharePaid(ctx context.Context, shareID string, paid bool, updatedBy string) error

	// SumOwedTo sums unpaid share amounts on bills userID paid for,
	// excluding the payer's own shares. groupID narrows the scope when
	// non-empty.
	SumOwedTo(ctx context.Context, userID, groupID string) (float64, error)

	// SumOwedBy sums unpaid share amounts userID owes on bills paid by
	// someone else. groupID narrows the scope when non-empty.
	SumOwedBy(ctx context.Context, userID, groupID string) (float64, error)

	// Close releases any resources held by the store.
	Close() error
}
