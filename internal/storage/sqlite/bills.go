package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rupaya-app/rupaya/internal/models"
)

const billCols = "id, group_id, paid_by, description, total_amount, split_type, created_at, created_by, updated_at, updated_by, deleted_at, deleted_by"

func scanBill(row interface{ Scan(...any) error }) (*models.Bill, error) {
	bill := &models.Bill{}
	err := row.Scan(
		&bill.ID,
		&bill.GroupID,
		&bill.PaidBy,
		&bill.Description,
		&bill.TotalAmount,
		&bill.SplitType,
		&bill.CreatedAt,
		&bill.CreatedBy,
		&bill.UpdatedAt,
		&bill.UpdatedBy,
		&bill.DeletedAt,
		&bill.DeletedBy,
	)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// CreateBill persists a bill and its computed shares in one transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill, shares []*models.BillShare) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now()
	}
	if bill.UpdatedAt == 0 {
		bill.UpdatedAt = bill.CreatedAt
	}

	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bills (`+billCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bill.ID, bill.GroupID, bill.PaidBy, bill.Description, bill.TotalAmount, bill.SplitType,
			bill.CreatedAt, bill.CreatedBy, bill.UpdatedAt, bill.UpdatedBy,
			bill.DeletedAt, bill.DeletedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill: %w", err)
		}

		for _, share := range shares {
			share.BillID = bill.ID
			if err := insertShareTx(ctx, tx, share, bill.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetBill retrieves a live bill by ID.
func (s *SQLiteStore) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+billCols+` FROM bills WHERE id = ? AND deleted_at = 0`, id)

	bill, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// ApplyBillUpdate rewrites the bill row and reconciles its share set in one
// transaction. Upserts with an id are updated in place (preserving share
// identity), upserts without one are inserted, deleteIDs are removed.
func (s *SQLiteStore) ApplyBillUpdate(ctx context.Context, bill *models.Bill, upserts []*models.BillShare, deleteIDs []string) error {
	at := now()
	bill.UpdatedAt = at

	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE bills SET description = ?, total_amount = ?, split_type = ?, paid_by = ?, updated_at = ?, updated_by = ?
			 WHERE id = ? AND deleted_at = 0`,
			bill.Description, bill.TotalAmount, bill.SplitType, bill.PaidBy,
			bill.UpdatedAt, bill.UpdatedBy, bill.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update bill: %w", err)
		}

		for _, id := range deleteIDs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM bill_shares WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to delete share: %w", err)
			}
		}

		for _, share := range upserts {
			if share.ID == "" {
				share.BillID = bill.ID
				share.CreatedBy = bill.UpdatedBy
				if err := insertShareTx(ctx, tx, share, at); err != nil {
					return err
				}
				continue
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE bill_shares SET amount = ?, paid = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
				share.Amount, share.Paid, at, bill.UpdatedBy, share.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update share: %w", err)
			}
		}
		return nil
	})
}

// listBills runs a paged bill query with its COUNT(*) twin.
func (s *SQLiteStore) listBills(ctx context.Context, where string, args []any, skip, limit int) ([]*models.Bill, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	query := `SELECT b.id, b.group_id, b.paid_by, b.description, b.total_amount, b.split_type,
		b.created_at, b.created_by, b.updated_at, b.updated_by, b.deleted_at, b.deleted_by ` +
		where + ` ORDER BY b.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating bills: %w", err)
	}
	return bills, total, nil
}

// ListBillsByGroup returns a group's live bills newest-first with optional
// case-insensitive substring search on the description.
func (s *SQLiteStore) ListBillsByGroup(ctx context.Context, groupID, search string, skip, limit int) ([]*models.Bill, int, error) {
	where := `FROM bills b WHERE b.group_id = ? AND b.deleted_at = 0`
	args := []any{groupID}
	if search != "" {
		where += ` AND LOWER(b.description) LIKE ?`
		args = append(args, likePattern(search))
	}
	return s.listBills(ctx, where, args, skip, limit)
}

// ListBillsForUser returns the live bills the user pays for or participates
// in, newest-first.
func (s *SQLiteStore) ListBillsForUser(ctx context.Context, userID, search string, skip, limit int) ([]*models.Bill, int, error) {
	where := `FROM bills b WHERE b.deleted_at = 0
		AND (b.paid_by = ? OR EXISTS (
			SELECT 1 FROM bill_shares sh WHERE sh.bill_id = b.id AND sh.user_id = ? AND sh.deleted_at = 0
		))`
	args := []any{userID, userID}
	if search != "" {
		where += ` AND LOWER(b.description) LIKE ?`
		args = append(args, likePattern(search))
	}
	return s.listBills(ctx, where, args, skip, limit)
}
