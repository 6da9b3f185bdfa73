package service

import (
	"context"

	"github.com/rupaya-app/rupaya/internal/storage"
)

// SummaryService aggregates outstanding balances across the ledger. Totals
// are derived from unpaid shares only: a share the payer holds on their own
// bill never contributes.
type SummaryService struct {
	store  storage.Store
	groups *GroupService
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(store storage.Store, groups *GroupService) *SummaryService {
	return &SummaryService{store: store, groups: groups}
}

// friendLimit caps the recent co-members shown on the dashboard.
const friendLimit = 5

// GetSummary computes the caller's balance summary. With groupID set the
// totals are scoped to that group; otherwise they span every group the
// caller belongs to.
func (s *SummaryService) GetSummary(ctx context.Context, callerID, groupID string) (*SummaryView, error) {
	if groupID != "" {
		if _, err := s.groups.requireMember(ctx, callerID, groupID); err != nil {
			return nil, err
		}
	}

	owed, err := s.store.SumOwedTo(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}
	owe, err := s.store.SumOwedBy(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	summary := &SummaryView{
		TotalOwed: owed,
		TotalOwe:  owe,
		Friends:   []*UserView{},
	}

	if groupID != "" {
		summary.GroupCount = 1
		return summary, nil
	}

	groupCount, err := s.store.CountGroupsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	summary.GroupCount = groupCount

	friends, err := s.store.ListCoMembers(ctx, callerID, friendLimit)
	if err != nil {
		return nil, err
	}
	for _, friend := range friends {
		summary.Friends = append(summary.Friends, userView(friend))
	}
	return summary, nil
}
