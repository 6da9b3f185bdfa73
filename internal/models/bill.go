package models

// SplitType is the policy for dividing a bill's total among participants.
type SplitType string

const (
	// SplitEqual divides the total evenly among involved participants.
	SplitEqual SplitType = "EQUAL"
	// SplitExact uses caller-supplied amounts that must sum to the total.
	SplitExact SplitType = "EXACT"
)

// Valid reports whether the split type is one of the known policies.
func (s SplitType) Valid() bool {
	return s == SplitEqual || s == SplitExact
}

// Bill represents a single expense inside a group.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// GroupID is the group this bill belongs to.
	GroupID string

	// PaidBy is the user who fronted the money.
	PaidBy string

	// Description is a short human-readable label (e.g. "Friday groceries").
	Description string

	// TotalAmount is the full bill amount, always > 0.
	TotalAmount float64

	// SplitType is how the total is divided among the shares.
	SplitType SplitType

	Audit
}

// BillShare is one participant's portion of a bill.
// A (BillID, UserID) pair is unique; the share set of a live bill accounts
// for the bill's full TotalAmount.
type BillShare struct {
	ID     string
	BillID string
	UserID string

	// Amount is this participant's portion of the bill total.
	Amount float64

	// Paid marks the share as settled. The payer's own share is paid from
	// the moment the bill is created.
	Paid bool

	Audit
}
