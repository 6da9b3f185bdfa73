package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rupaya-app/rupaya/internal/models"
)

const groupCols = "id, name, description, created_at, created_by, updated_at, updated_by, deleted_at, deleted_by"

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	group := &models.Group{}
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedAt,
		&group.CreatedBy,
		&group.UpdatedAt,
		&group.UpdatedBy,
		&group.DeletedAt,
		&group.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// CreateGroup persists a group together with its initial member rows in one
// transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, members []*models.GroupMember) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = now()
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = group.CreatedAt
	}

	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO groups (`+groupCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, group.Description,
			group.CreatedAt, group.CreatedBy, group.UpdatedAt, group.UpdatedBy,
			group.DeletedAt, group.DeletedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for _, m := range members {
			if m.ID == "" {
				m.ID = uuid.New().String()
			}
			m.GroupID = group.ID
			if m.CreatedAt == 0 {
				m.CreatedAt = group.CreatedAt
			}
			if m.UpdatedAt == 0 {
				m.UpdatedAt = m.CreatedAt
			}
			if err := insertMemberTx(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGroup retrieves a live group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupCols+` FROM groups WHERE id = ? AND deleted_at = 0`, id)

	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroupInfo rewrites a group's name, description and update audit.
func (s *SQLiteStore) UpdateGroupInfo(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, updated_at = ?, updated_by = ?
		 WHERE id = ? AND deleted_at = 0`,
		group.Name, group.Description, group.UpdatedAt, group.UpdatedBy, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// softDeleteGroupTx tombstones a group and everything hanging off it: live
// memberships, bills and their shares. Shares go first so the bill subquery
// still sees live bills.
func softDeleteGroupTx(ctx context.Context, tx *sql.Tx, groupID, deletedBy string, at int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bill_shares SET deleted_at = ?, deleted_by = ?
		 WHERE deleted_at = 0 AND bill_id IN (SELECT id FROM bills WHERE group_id = ? AND deleted_at = 0)`,
		at, deletedBy, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to tombstone group shares: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bills SET deleted_at = ?, deleted_by = ? WHERE group_id = ? AND deleted_at = 0`,
		at, deletedBy, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to tombstone group bills: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE group_members SET deleted_at = ?, deleted_by = ? WHERE group_id = ? AND deleted_at = 0`,
		at, deletedBy, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to tombstone group members: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE groups SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at = 0`,
		at, deletedBy, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to tombstone group: %w", err)
	}
	return nil
}

// SoftDeleteGroup tombstones a group and cascades to its memberships, bills
// and shares in one transaction.
func (s *SQLiteStore) SoftDeleteGroup(ctx context.Context, groupID, deletedBy string) error {
	at := now()
	return s.tx(ctx, func(tx *sql.Tx) error {
		return softDeleteGroupTx(ctx, tx, groupID, deletedBy, at)
	})
}

// ListGroupsForUser returns the live groups the user belongs to, newest-first,
// with optional case-insensitive substring search on name/description.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID, search string, skip, limit int) ([]*models.Group, int, error) {
	where := `FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ? AND m.deleted_at = 0 AND g.deleted_at = 0`
	args := []any{userID}

	if search != "" {
		where += ` AND (LOWER(g.name) LIKE ? OR LOWER(g.description) LIKE ?)`
		pattern := likePattern(search)
		args = append(args, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count user groups: %w", err)
	}

	query := `SELECT g.id, g.name, g.description, g.created_at, g.created_by, g.updated_at, g.updated_by, g.deleted_at, g.deleted_by ` +
		where + ` ORDER BY g.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, total, nil
}
