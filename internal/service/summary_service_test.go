package service

import (
	"context"
	"testing"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/models"
)

func TestGetSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")
	carol := env.createUser(t, "carol@example.com", "Carol")

	trip := env.createGroup(t, alice.ID, "Trip", "bob@example.com")
	rent := env.createGroup(t, alice.ID, "Rent", "carol@example.com")

	// Alice fronts 100 in the trip group; bob owes her 50.
	if _, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
		GroupID:     trip.ID,
		Description: "Hotel",
		TotalAmount: 100,
		SplitType:   models.SplitEqual,
		Shares:      []ShareInput{{UserID: alice.ID}, {UserID: bob.ID}},
	}); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}

	// Carol fronts 80 in the rent group; alice owes her 40.
	if _, err := env.bills.CreateBill(ctx, carol.ID, CreateBillRequest{
		GroupID:     rent.ID,
		Description: "Internet",
		TotalAmount: 80,
		SplitType:   models.SplitEqual,
		PaidBy:      carol.ID,
		Shares:      []ShareInput{{UserID: alice.ID}, {UserID: carol.ID}},
	}); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}

	t.Run("global totals span groups", func(t *testing.T) {
		summary, err := env.summary.GetSummary(ctx, alice.ID, "")
		if err != nil {
			t.Fatalf("GetSummary failed: %v", err)
		}
		if summary.TotalOwed != 50 {
			t.Errorf("expected alice owed 50, got %.2f", summary.TotalOwed)
		}
		if summary.TotalOwe != 40 {
			t.Errorf("expected alice owing 40, got %.2f", summary.TotalOwe)
		}
		if summary.GroupCount != 2 {
			t.Errorf("expected 2 groups, got %d", summary.GroupCount)
		}
		if len(summary.Friends) != 2 {
			t.Errorf("expected bob and carol as friends, got %d", len(summary.Friends))
		}
	})

	t.Run("group scope narrows the totals", func(t *testing.T) {
		summary, err := env.summary.GetSummary(ctx, alice.ID, trip.ID)
		if err != nil {
			t.Fatalf("GetSummary failed: %v", err)
		}
		if summary.TotalOwed != 50 || summary.TotalOwe != 0 {
			t.Errorf("expected 50 owed and 0 owing inside the trip group, got %.2f/%.2f",
				summary.TotalOwed, summary.TotalOwe)
		}
		if summary.GroupCount != 1 {
			t.Errorf("expected group count 1 when scoped, got %d", summary.GroupCount)
		}
	})

	t.Run("settled shares drop out", func(t *testing.T) {
		bills, err := env.bills.ListGroupBills(ctx, bob.ID, trip.ID, "", 0, 1)
		if err != nil {
			t.Fatalf("ListGroupBills failed: %v", err)
		}
		bobShare := shareByUser(t, bills.Items[0], bob.ID)
		if _, err := env.bills.SetSharePaid(ctx, bob.ID, bobShare.ID, true); err != nil {
			t.Fatalf("SetSharePaid failed: %v", err)
		}

		summary, err := env.summary.GetSummary(ctx, alice.ID, trip.ID)
		if err != nil {
			t.Fatalf("GetSummary failed: %v", err)
		}
		if summary.TotalOwed != 0 {
			t.Errorf("expected nothing owed after settlement, got %.2f", summary.TotalOwed)
		}
	})

	t.Run("scoped summary requires membership", func(t *testing.T) {
		_, err := env.summary.GetSummary(ctx, bob.ID, rent.ID)
		if !apperr.Is(err, apperr.Forbidden) {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})
}

func TestLedgerIsZeroSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")
	carol := env.createUser(t, "carol@example.com", "Carol")

	group := env.createGroup(t, alice.ID, "Flat", "bob@example.com", "carol@example.com")

	bills := []CreateBillRequest{
		{GroupID: group.ID, Description: "Rent", TotalAmount: 900, SplitType: models.SplitEqual,
			Shares: []ShareInput{{UserID: alice.ID}, {UserID: bob.ID}, {UserID: carol.ID}}},
		{GroupID: group.ID, Description: "Pizza", TotalAmount: 40, SplitType: models.SplitExact, PaidBy: bob.ID,
			Shares: []ShareInput{{UserID: alice.ID, Amount: fptr(10)}, {UserID: bob.ID, Amount: fptr(25)}, {UserID: carol.ID, Amount: fptr(5)}}},
		{GroupID: group.ID, Description: "Cleaning", TotalAmount: 60, SplitType: models.SplitEqual, PaidBy: carol.ID,
			Shares: []ShareInput{{UserID: alice.ID}, {UserID: carol.ID}}},
	}
	for _, req := range bills {
		if _, err := env.bills.CreateBill(ctx, alice.ID, req); err != nil {
			t.Fatalf("CreateBill %q failed: %v", req.Description, err)
		}
	}

	var net float64
	for _, userID := range []string{alice.ID, bob.ID, carol.ID} {
		summary, err := env.summary.GetSummary(ctx, userID, group.ID)
		if err != nil {
			t.Fatalf("GetSummary failed: %v", err)
		}
		net += summary.TotalOwed - summary.TotalOwe
	}
	if net < -0.001 || net > 0.001 {
		t.Errorf("expected the closed group to net to zero, got %.4f", net)
	}
}
