package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rupaya-app/rupaya/internal/models"
)

const shareCols = "id, bill_id, user_id, amount, paid, created_at, created_by, updated_at, updated_by, deleted_at, deleted_by"

func scanShare(row interface{ Scan(...any) error }) (*models.BillShare, error) {
	share := &models.BillShare{}
	err := row.Scan(
		&share.ID,
		&share.BillID,
		&share.UserID,
		&share.Amount,
		&share.Paid,
		&share.CreatedAt,
		&share.CreatedBy,
		&share.UpdatedAt,
		&share.UpdatedBy,
		&share.DeletedAt,
		&share.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return share, nil
}

func insertShareTx(ctx context.Context, tx *sql.Tx, share *models.BillShare, at int64) error {
	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	if share.CreatedAt == 0 {
		share.CreatedAt = at
	}
	if share.UpdatedAt == 0 {
		share.UpdatedAt = share.CreatedAt
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO bill_shares (`+shareCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		share.ID, share.BillID, share.UserID, share.Amount, share.Paid,
		share.CreatedAt, share.CreatedBy, share.UpdatedAt, share.UpdatedBy,
		share.DeletedAt, share.DeletedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert share: %w", err)
	}
	return nil
}

// GetShare retrieves a live share by ID.
func (s *SQLiteStore) GetShare(ctx context.Context, shareID string) (*models.BillShare, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareCols+` FROM bill_shares WHERE id = ? AND deleted_at = 0`, shareID)

	share, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return share, nil
}

// ListShares returns the live shares of a bill, oldest-first.
func (s *SQLiteStore) ListShares(ctx context.Context, billID string) ([]*models.BillShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shareCols+` FROM bill_shares WHERE bill_id = ? AND deleted_at = 0 ORDER BY created_at, id`,
		billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	return collectShares(rows)
}

// ListSharesByBills batch-loads the live shares of several bills.
func (s *SQLiteStore) ListSharesByBills(ctx context.Context, billIDs []string) (map[string][]*models.BillShare, error) {
	result := make(map[string][]*models.BillShare)
	if len(billIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + shareCols + ` FROM bill_shares WHERE deleted_at = 0 AND bill_id IN (` +
		placeholders(len(billIDs)) + `) ORDER BY created_at, id`
	args := make([]any, len(billIDs))
	for i, id := range billIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares by bills: %w", err)
	}
	defer rows.Close()

	shares, err := collectShares(rows)
	if err != nil {
		return nil, err
	}
	for _, share := range shares {
		result[share.BillID] = append(result[share.BillID], share)
	}
	return result, nil
}

func collectShares(rows *sql.Rows) ([]*models.BillShare, error) {
	var shares []*models.BillShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shares: %w", err)
	}
	return shares, nil
}

// UpdateSharePaid flips a share's paid flag.
func (s *SQLiteStore) UpdateSharePaid(ctx context.Context, shareID string, paid bool, updatedBy string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bill_shares SET paid = ?, updated_at = ?, updated_by = ? WHERE id = ? AND deleted_at = 0`,
		paid, now(), updatedBy, shareID,
	)
	if err != nil {
		return fmt.Errorf("failed to update share paid flag: %w", err)
	}
	return nil
}

// SumOwedTo sums unpaid share amounts on bills userID paid for, excluding the
// payer's own shares.
func (s *SQLiteStore) SumOwedTo(ctx context.Context, userID, groupID string) (float64, error) {
	query := `SELECT COALESCE(SUM(sh.amount), 0)
		FROM bill_shares sh JOIN bills b ON b.id = sh.bill_id
		WHERE b.paid_by = ? AND sh.user_id != ? AND sh.paid = 0
		  AND sh.deleted_at = 0 AND b.deleted_at = 0`
	args := []any{userID, userID}
	if groupID != "" {
		query += ` AND b.group_id = ?`
		args = append(args, groupID)
	}

	var sum float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum owed-to amounts: %w", err)
	}
	return sum, nil
}

// SumOwedBy sums unpaid share amounts userID owes on bills paid by someone
// else.
func (s *SQLiteStore) SumOwedBy(ctx context.Context, userID, groupID string) (float64, error) {
	query := `SELECT COALESCE(SUM(sh.amount), 0)
		FROM bill_shares sh JOIN bills b ON b.id = sh.bill_id
		WHERE b.paid_by != ? AND sh.user_id = ? AND sh.paid = 0
		  AND sh.deleted_at = 0 AND b.deleted_at = 0`
	args := []any{userID, userID}
	if groupID != "" {
		query += ` AND b.group_id = ?`
		args = append(args, groupID)
	}

	var sum float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum owed-by amounts: %w", err)
	}
	return sum, nil
}
