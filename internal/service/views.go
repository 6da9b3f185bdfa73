package service

import "github.com/rupaya-app/rupaya/internal/models"

// Page is a paged result set.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Skip    int  `json:"skip"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

func page[T any](items []T, total, skip, limit int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Skip:    skip,
		Limit:   limit,
		HasMore: skip+len(items) < total,
	}
}

// UserView is the public shape of a user (no credential material).
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func userView(u *models.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// MemberView is a group membership with its user hydrated.
type MemberView struct {
	ID        string           `json:"id"`
	Role      models.GroupRole `json:"role"`
	User      *UserView        `json:"user"`
	CreatedAt int64            `json:"created_at"`
}

// GroupSummary is a group list entry with membership and balance metrics.
type GroupSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   int64   `json:"created_at"`
	MemberCount int     `json:"member_count"`
	TotalOwed   float64 `json:"total_owed"`
	TotalOwe    float64 `json:"total_owe"`
}

// GroupDetail is a GroupSummary plus the hydrated member list.
type GroupDetail struct {
	GroupSummary
	Members []*MemberView `json:"members"`
}

// ShareView is one participant's portion of a bill, user hydrated.
type ShareView struct {
	ID     string    `json:"id"`
	Amount float64   `json:"amount"`
	Paid   bool      `json:"paid"`
	User   *UserView `json:"user"`
}

// BillDetail is the composed bill-with-shares view.
type BillDetail struct {
	ID          string           `json:"id"`
	GroupID     string           `json:"group_id"`
	Description string           `json:"description"`
	TotalAmount float64          `json:"total_amount"`
	SplitType   models.SplitType `json:"split_type"`
	PaidBy      *UserView        `json:"paid_by"`
	Shares      []*ShareView     `json:"shares"`
	CreatedBy   string           `json:"created_by"`
	CreatedAt   int64            `json:"created_at"`
}

// SummaryView is the per-user dashboard summary.
type SummaryView struct {
	TotalOwed  float64     `json:"total_owed"`
	TotalOwe   float64     `json:"total_owe"`
	GroupCount int         `json:"group_count"`
	Friends    []*UserView `json:"friends"`
}
