package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rupaya-app/rupaya/internal/models"
)

const memberCols = "id, group_id, user_id, role, created_at, created_by, updated_at, updated_by, deleted_at, deleted_by"

func scanMember(row interface{ Scan(...any) error }) (*models.GroupMember, error) {
	m := &models.GroupMember{}
	err := row.Scan(
		&m.ID,
		&m.GroupID,
		&m.UserID,
		&m.Role,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.UpdatedAt,
		&m.UpdatedBy,
		&m.DeletedAt,
		&m.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStore) memberQuery(ctx context.Context, query string, args ...any) (*models.GroupMember, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// GetMembership returns the active membership for (group, user).
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	return s.memberQuery(ctx,
		`SELECT `+memberCols+` FROM group_members WHERE group_id = ? AND user_id = ? AND deleted_at = 0`,
		groupID, userID)
}

// GetMembershipAny returns the membership row for (group, user) including
// tombstones. Needed for reactivation.
func (s *SQLiteStore) GetMembershipAny(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	return s.memberQuery(ctx,
		`SELECT `+memberCols+` FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID)
}

// GetMemberByID returns an active membership row by its id.
func (s *SQLiteStore) GetMemberByID(ctx context.Context, memberID string) (*models.GroupMember, error) {
	return s.memberQuery(ctx,
		`SELECT `+memberCols+` FROM group_members WHERE id = ? AND deleted_at = 0`,
		memberID)
}

// ListActiveMembers returns the active membership rows of a group.
func (s *SQLiteStore) ListActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM group_members WHERE group_id = ? AND deleted_at = 0 ORDER BY created_at`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

func insertMemberTx(ctx context.Context, tx *sql.Tx, m *models.GroupMember) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (`+memberCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, m.Role,
		m.CreatedAt, m.CreatedBy, m.UpdatedAt, m.UpdatedBy,
		m.DeletedAt, m.DeletedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// InsertMember inserts a fresh membership row.
func (s *SQLiteStore) InsertMember(ctx context.Context, member *models.GroupMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = now()
	}
	if member.UpdatedAt == 0 {
		member.UpdatedAt = member.CreatedAt
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		return insertMemberTx(ctx, tx, member)
	})
}

// ReactivateMember clears a tombstoned membership in place. The row keeps its
// id so external references stay valid.
func (s *SQLiteStore) ReactivateMember(ctx context.Context, memberID string, role models.GroupRole, updatedBy string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE group_members
		 SET deleted_at = 0, deleted_by = '', role = ?, updated_at = ?, updated_by = ?
		 WHERE id = ?`,
		role, now(), updatedBy, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to reactivate member: %w", err)
	}
	return nil
}

// UpdateMemberRole changes a membership's role.
func (s *SQLiteStore) UpdateMemberRole(ctx context.Context, memberID string, role models.GroupRole, updatedBy string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE group_members SET role = ?, updated_at = ?, updated_by = ? WHERE id = ? AND deleted_at = 0`,
		role, now(), updatedBy, memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return nil
}

// RemoveMember tombstones a membership, and tombstones the whole group in the
// same transaction if no active members remain.
func (s *SQLiteStore) RemoveMember(ctx context.Context, memberID, groupID, deletedBy string) (bool, error) {
	at := now()
	groupDeleted := false

	err := s.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE group_members SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at = 0`,
			at, deletedBy, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to tombstone member: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("member not found: %s", memberID)
		}

		var remaining int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND deleted_at = 0`,
			groupID,
		).Scan(&remaining)
		if err != nil {
			return fmt.Errorf("failed to count remaining members: %w", err)
		}

		if remaining == 0 {
			if err := softDeleteGroupTx(ctx, tx, groupID, deletedBy, at); err != nil {
				return err
			}
			groupDeleted = true
		}
		return nil
	})
	return groupDeleted, err
}

// CountActiveMembers returns the number of active members in a group.
func (s *SQLiteStore) CountActiveMembers(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND deleted_at = 0`,
		groupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// CountActiveAdmins returns the number of active ADMIN members in a group.
func (s *SQLiteStore) CountActiveAdmins(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND role = ? AND deleted_at = 0`,
		groupID, models.RoleAdmin,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// CountActiveMembersExcluding counts active members other than userID.
func (s *SQLiteStore) CountActiveMembersExcluding(ctx context.Context, groupID, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id != ? AND deleted_at = 0`,
		groupID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count other members: %w", err)
	}
	return count, nil
}

// CountGroupsForUser counts the live groups the user belongs to.
func (s *SQLiteStore) CountGroupsForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members m JOIN groups g ON g.id = m.group_id
		 WHERE m.user_id = ? AND m.deleted_at = 0 AND g.deleted_at = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user groups: %w", err)
	}
	return count, nil
}

// ListCoMembers returns distinct users who share at least one live group with
// userID, up to limit.
func (s *SQLiteStore) ListCoMembers(ctx context.Context, userID string, limit int) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT u.id, u.name, u.email, u.password_hash, u.role,
		        u.created_at, u.created_by, u.updated_at, u.updated_by, u.deleted_at, u.deleted_by
		 FROM users u
		 JOIN group_members gm ON gm.user_id = u.id
		 JOIN group_members me ON me.group_id = gm.group_id
		 JOIN groups g ON g.id = gm.group_id
		 WHERE me.user_id = ? AND gm.user_id != ?
		   AND me.deleted_at = 0 AND gm.deleted_at = 0 AND g.deleted_at = 0 AND u.deleted_at = 0
		 ORDER BY u.name
		 LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list co-members: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan co-member: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating co-members: %w", err)
	}
	return users, nil
}
