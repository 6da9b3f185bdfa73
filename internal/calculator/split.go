// Package calculator computes per-participant shares for a bill.
// It is pure: no I/O, deterministic for identical inputs.
package calculator

import (
	"math"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/models"
)

// Epsilon is the tolerance used when comparing share sums against bill
// totals. Amounts are floats carried over from the stored REAL values, so
// exact equality is only expected to within a cent.
const Epsilon = 0.01

var (
	ErrInvalidAmount          = apperr.New(apperr.InvalidArgument, "total amount must be greater than zero")
	ErrEmptyParticipants      = apperr.New(apperr.InvalidArgument, "at least one participant is required")
	ErrDuplicateParticipant   = apperr.New(apperr.InvalidArgument, "duplicate participant in split request")
	ErrNoInvolvedParticipants = apperr.New(apperr.InvalidArgument, "at least one participant must be involved in the split")
	ErrShareSumMismatch       = apperr.New(apperr.InvariantViolation, "sum of shares must equal the bill total")
)

// ShareRequest is one participant's entry in a split request.
// A nil Amount means "unset": involved in an EQUAL split, zero in an EXACT
// one. An explicit 0 in an EQUAL split means tracked but excluded (someone
// who attended but didn't consume).
type ShareRequest struct {
	UserID string
	Amount *float64
}

// Share is the computed portion for one participant.
type Share struct {
	UserID string
	Amount float64
	Paid   bool
}

// SumMatches reports whether a share sum equals a bill total within Epsilon.
func SumMatches(sum, total float64) bool {
	return math.Abs(sum-total) <= Epsilon
}

// CalculateShares turns a split policy, a bill total and the participant
// requests into the final share list. The payer's shares come back marked
// paid; everyone else starts unpaid. Order follows the request order.
func CalculateShares(splitType models.SplitType, total float64, requests []ShareRequest, payerID string) ([]Share, error) {
	if total <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(requests) == 0 {
		return nil, ErrEmptyParticipants
	}

	seen := make(map[string]bool, len(requests))
	for _, r := range requests {
		if seen[r.UserID] {
			return nil, ErrDuplicateParticipant
		}
		seen[r.UserID] = true
	}

	switch splitType {
	case models.SplitEqual:
		return equalShares(total, requests, payerID)
	case models.SplitExact:
		return exactShares(total, requests, payerID)
	default:
		return nil, apperr.Newf(apperr.InvalidArgument, "unknown split type %q", splitType)
	}
}

func equalShares(total float64, requests []ShareRequest, payerID string) ([]Share, error) {
	involved := 0
	for _, r := range requests {
		if r.Amount == nil || *r.Amount > 0 {
			involved++
		}
	}
	if involved == 0 {
		return nil, ErrNoInvolvedParticipants
	}

	perHead := total / float64(involved)
	shares := make([]Share, len(requests))
	for i, r := range requests {
		amount := perHead
		if r.Amount != nil && *r.Amount <= 0 {
			amount = 0
		}
		shares[i] = Share{
			UserID: r.UserID,
			Amount: amount,
			Paid:   r.UserID == payerID,
		}
	}
	return shares, nil
}

func exactShares(total float64, requests []ShareRequest, payerID string) ([]Share, error) {
	var sum float64
	shares := make([]Share, len(requests))
	for i, r := range requests {
		var amount float64
		if r.Amount != nil {
			amount = *r.Amount
		}
		sum += amount
		shares[i] = Share{
			UserID: r.UserID,
			Amount: amount,
			Paid:   r.UserID == payerID,
		}
	}
	if !SumMatches(sum, total) {
		return nil, apperr.Wrap(apperr.InvariantViolation,
			"sum of shares does not equal the bill total", ErrShareSumMismatch)
	}
	return shares, nil
}
