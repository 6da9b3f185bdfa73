package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/calculator"
	"github.com/rupaya-app/rupaya/internal/models"
	"github.com/rupaya-app/rupaya/internal/storage"
)

// ErrAmbiguousExactUpdate rejects a total/split/payer change on an EXACT
// bill when no replacement shares were supplied and the existing shares no
// longer sum to the new total. Silently rebalancing explicit amounts would
// be undefined.
var ErrAmbiguousExactUpdate = apperr.New(apperr.InvariantViolation, "updating an exact split requires providing new shares")

// ShareInput is one participant entry in a bill create/update request.
// Amount semantics follow the split policy: nil means involved (EQUAL) or
// zero (EXACT); an explicit 0 under EQUAL excludes the participant.
type ShareInput struct {
	UserID string   `json:"user_id"`
	Amount *float64 `json:"amount"`
}

// BillService orchestrates the bill ledger: creation and surgical update of
// bills together with their share sets.
type BillService struct {
	store  storage.Store
	groups *GroupService
}

// NewBillService creates a new BillService.
func NewBillService(store storage.Store, groups *GroupService) *BillService {
	return &BillService{store: store, groups: groups}
}

// CreateBillRequest carries the inputs for bill creation.
type CreateBillRequest struct {
	GroupID     string           `json:"group_id"`
	Description string           `json:"description"`
	TotalAmount float64          `json:"total_amount"`
	SplitType   models.SplitType `json:"split_type"`
	PaidBy      string           `json:"paid_by"`
	Shares      []ShareInput     `json:"shares"`
}

// CreateBill validates the request, computes the share set and persists the
// bill with its shares as one atomic unit. The payer defaults to the creator
// and must be an active member of the group.
func (s *BillService) CreateBill(ctx context.Context, callerID string, req CreateBillRequest) (*BillDetail, error) {
	if _, err := s.groups.requireMember(ctx, callerID, req.GroupID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.New(apperr.InvalidArgument, "bill description is required")
	}
	if !req.SplitType.Valid() {
		return nil, apperr.Newf(apperr.InvalidArgument, "unknown split type %q", req.SplitType)
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = callerID
	}
	if paidBy != callerID {
		payer, err := s.store.GetMembership(ctx, req.GroupID, paidBy)
		if err != nil {
			return nil, err
		}
		if payer == nil {
			return nil, apperr.New(apperr.InvalidArgument, "payer must be an active member of the group")
		}
	}

	shares, err := calculator.CalculateShares(req.SplitType, req.TotalAmount, shareRequests(req.Shares), paidBy)
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		GroupID:     req.GroupID,
		PaidBy:      paidBy,
		Description: strings.TrimSpace(req.Description),
		TotalAmount: req.TotalAmount,
		SplitType:   req.SplitType,
		Audit:       models.Audit{CreatedBy: callerID},
	}
	rows := make([]*models.BillShare, len(shares))
	for i, share := range shares {
		rows[i] = &models.BillShare{
			UserID: share.UserID,
			Amount: share.Amount,
			Paid:   share.Paid,
			Audit:  models.Audit{CreatedBy: callerID},
		}
	}

	if err := s.store.CreateBill(ctx, bill, rows); err != nil {
		return nil, err
	}

	slog.Info("bill created",
		"bill_id", bill.ID,
		"group_id", bill.GroupID,
		"total", bill.TotalAmount,
		"split_type", bill.SplitType,
		"shares", len(rows),
	)
	return s.GetBillDetail(ctx, callerID, bill.ID)
}

// UpdateBillRequest carries a partial bill update; nil fields are left
// untouched. A nil Shares slice means "no shares supplied"; an empty
// non-nil slice is an invalid request.
type UpdateBillRequest struct {
	Description *string           `json:"description"`
	TotalAmount *float64          `json:"total_amount"`
	SplitType   *models.SplitType `json:"split_type"`
	PaidBy      *string           `json:"paid_by"`
	Shares      []ShareInput      `json:"shares"`
}

// UpdateBill applies a surgical update to a bill and reconciles its share
// set. Recomputation policy:
//   - explicit shares supplied: recompute with the resolved split type,
//     total and payer;
//   - total/split/payer changed without shares: EQUAL recomputes over the
//     existing participant set, EXACT is refused unless the existing sum
//     already matches the new total.
//
// Reconciliation is a diff against the current share rows, so surviving
// participants keep their share ids.
func (s *BillService) UpdateBill(ctx context.Context, callerID, billID string, req UpdateBillRequest) (*BillDetail, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperr.New(apperr.NotFound, "bill not found")
	}
	if _, err := s.groups.requireMember(ctx, callerID, bill.GroupID); err != nil {
		return nil, err
	}

	current, err := s.store.ListShares(ctx, billID)
	if err != nil {
		return nil, err
	}

	// Resolve the post-update bill fields before recomputing anything.
	splitChanged := req.SplitType != nil && *req.SplitType != bill.SplitType
	totalChanged := req.TotalAmount != nil && *req.TotalAmount != bill.TotalAmount
	payerChanged := req.PaidBy != nil && *req.PaidBy != bill.PaidBy

	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, apperr.New(apperr.InvalidArgument, "bill description cannot be blank")
		}
		bill.Description = strings.TrimSpace(*req.Description)
	}
	if req.SplitType != nil {
		if !req.SplitType.Valid() {
			return nil, apperr.Newf(apperr.InvalidArgument, "unknown split type %q", *req.SplitType)
		}
		bill.SplitType = *req.SplitType
	}
	if req.TotalAmount != nil {
		bill.TotalAmount = *req.TotalAmount
	}
	if req.PaidBy != nil {
		bill.PaidBy = *req.PaidBy
	}
	if payerChanged {
		payer, err := s.store.GetMembership(ctx, bill.GroupID, bill.PaidBy)
		if err != nil {
			return nil, err
		}
		if payer == nil {
			return nil, apperr.New(apperr.InvalidArgument, "payer must be an active member of the group")
		}
	}
	bill.UpdatedBy = callerID

	var computed []calculator.Share
	switch {
	case req.Shares != nil:
		computed, err = calculator.CalculateShares(bill.SplitType, bill.TotalAmount, shareRequests(req.Shares), bill.PaidBy)
		if err != nil {
			return nil, err
		}
	case splitChanged || totalChanged || payerChanged:
		if bill.SplitType == models.SplitEqual {
			// Zero-amount rows stay excluded from the recomputed split.
			zero := 0.0
			requests := make([]calculator.ShareRequest, len(current))
			for i, share := range current {
				requests[i] = calculator.ShareRequest{UserID: share.UserID}
				if share.Amount == 0 {
					requests[i].Amount = &zero
				}
			}
			computed, err = calculator.CalculateShares(models.SplitEqual, bill.TotalAmount, requests, bill.PaidBy)
			if err != nil {
				return nil, err
			}
		} else {
			var sum float64
			for _, share := range current {
				sum += share.Amount
			}
			if !calculator.SumMatches(sum, bill.TotalAmount) {
				return nil, ErrAmbiguousExactUpdate
			}
			// Amounts already account for the new total; only the
			// paid flags need to follow the (possibly new) payer.
			requests := make([]calculator.ShareRequest, len(current))
			for i, share := range current {
				amount := share.Amount
				requests[i] = calculator.ShareRequest{UserID: share.UserID, Amount: &amount}
			}
			computed, err = calculator.CalculateShares(models.SplitExact, bill.TotalAmount, requests, bill.PaidBy)
			if err != nil {
				return nil, err
			}
		}
	}

	var upserts []*models.BillShare
	var deleteIDs []string
	if computed != nil {
		upserts, deleteIDs = diffShares(current, computed, callerID)
	}

	if err := s.store.ApplyBillUpdate(ctx, bill, upserts, deleteIDs); err != nil {
		return nil, err
	}

	slog.Info("bill updated",
		"bill_id", bill.ID,
		"recomputed", computed != nil,
		"deleted_shares", len(deleteIDs),
	)
	return s.GetBillDetail(ctx, callerID, billID)
}

// diffShares reconciles the desired share set against the persisted one:
// surviving userIDs are updated in place (keeping their row id), new ones
// are inserted, vanished ones are deleted.
func diffShares(current []*models.BillShare, computed []calculator.Share, updatedBy string) (upserts []*models.BillShare, deleteIDs []string) {
	existing := make(map[string]*models.BillShare, len(current))
	for _, share := range current {
		existing[share.UserID] = share
	}

	desired := make(map[string]bool, len(computed))
	for _, share := range computed {
		desired[share.UserID] = true
		if row, ok := existing[share.UserID]; ok {
			row.Amount = share.Amount
			row.Paid = share.Paid
			row.UpdatedBy = updatedBy
			upserts = append(upserts, row)
			continue
		}
		upserts = append(upserts, &models.BillShare{
			UserID: share.UserID,
			Amount: share.Amount,
			Paid:   share.Paid,
			Audit:  models.Audit{CreatedBy: updatedBy},
		})
	}

	for _, share := range current {
		if !desired[share.UserID] {
			deleteIDs = append(deleteIDs, share.ID)
		}
	}
	return upserts, deleteIDs
}

func shareRequests(inputs []ShareInput) []calculator.ShareRequest {
	requests := make([]calculator.ShareRequest, len(inputs))
	for i, in := range inputs {
		requests[i] = calculator.ShareRequest{UserID: in.UserID, Amount: in.Amount}
	}
	return requests
}

// GetBillDetail returns the composed bill-with-shares view. The caller must
// be an active member of the bill's group.
func (s *BillService) GetBillDetail(ctx context.Context, callerID, billID string) (*BillDetail, error) {
	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperr.New(apperr.NotFound, "bill not found")
	}
	if _, err := s.groups.requireMember(ctx, callerID, bill.GroupID); err != nil {
		return nil, err
	}

	shares, err := s.store.ListShares(ctx, billID)
	if err != nil {
		return nil, err
	}
	return s.composeBill(ctx, bill, shares)
}

func (s *BillService) composeBill(ctx context.Context, bill *models.Bill, shares []*models.BillShare) (*BillDetail, error) {
	ids := make([]string, 0, len(shares)+1)
	ids = append(ids, bill.PaidBy)
	for _, share := range shares {
		ids = append(ids, share.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	shareViews := make([]*ShareView, len(shares))
	for i, share := range shares {
		shareViews[i] = &ShareView{
			ID:     share.ID,
			Amount: share.Amount,
			Paid:   share.Paid,
			User:   userView(users[share.UserID]),
		}
	}
	return &BillDetail{
		ID:          bill.ID,
		GroupID:     bill.GroupID,
		Description: bill.Description,
		TotalAmount: bill.TotalAmount,
		SplitType:   bill.SplitType,
		PaidBy:      userView(users[bill.PaidBy]),
		Shares:      shareViews,
		CreatedBy:   bill.CreatedBy,
		CreatedAt:   bill.CreatedAt,
	}, nil
}

// ListGroupBills returns a group's bills with shares hydrated, newest-first.
func (s *BillService) ListGroupBills(ctx context.Context, callerID, groupID, search string, skip, limit int) (*Page[*BillDetail], error) {
	if _, err := s.groups.requireMember(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	bills, total, err := s.store.ListBillsByGroup(ctx, groupID, search, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.composeBillPage(ctx, bills, total, skip, limit)
}

// ListUserBills returns the bills the caller pays for or participates in,
// across all their groups.
func (s *BillService) ListUserBills(ctx context.Context, callerID, search string, skip, limit int) (*Page[*BillDetail], error) {
	bills, total, err := s.store.ListBillsForUser(ctx, callerID, search, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.composeBillPage(ctx, bills, total, skip, limit)
}

func (s *BillService) composeBillPage(ctx context.Context, bills []*models.Bill, total, skip, limit int) (*Page[*BillDetail], error) {
	ids := make([]string, len(bills))
	for i, bill := range bills {
		ids[i] = bill.ID
	}
	sharesByBill, err := s.store.ListSharesByBills(ctx, ids)
	if err != nil {
		return nil, err
	}

	details := make([]*BillDetail, len(bills))
	for i, bill := range bills {
		details[i], err = s.composeBill(ctx, bill, sharesByBill[bill.ID])
		if err != nil {
			return nil, err
		}
	}
	return page(details, total, skip, limit), nil
}

// SetSharePaid marks a share as paid or unpaid. Only the share's owner may
// toggle it, and only between distinct states.
func (s *BillService) SetSharePaid(ctx context.Context, callerID, shareID string, paid bool) (*ShareView, error) {
	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, apperr.New(apperr.NotFound, "share not found")
	}

	bill, err := s.store.GetBill(ctx, share.BillID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperr.New(apperr.NotFound, "bill not found")
	}
	if _, err := s.groups.requireMember(ctx, callerID, bill.GroupID); err != nil {
		return nil, err
	}
	if share.UserID != callerID {
		return nil, apperr.New(apperr.Forbidden, "you can only mark your own shares")
	}
	if share.Paid == paid {
		if paid {
			return nil, apperr.New(apperr.InvalidArgument, "share is already marked as paid")
		}
		return nil, apperr.New(apperr.InvalidArgument, "share is already marked as unpaid")
	}

	if err := s.store.UpdateSharePaid(ctx, shareID, paid, callerID); err != nil {
		return nil, err
	}
	share.Paid = paid

	user, err := s.store.GetUserByID(ctx, share.UserID)
	if err != nil {
		return nil, err
	}
	return &ShareView{
		ID:     share.ID,
		Amount: share.Amount,
		Paid:   share.Paid,
		User:   userView(user),
	}, nil
}
