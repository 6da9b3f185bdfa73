package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/calculator"
	"github.com/rupaya-app/rupaya/internal/models"
)

func shareByUser(t *testing.T, detail *BillDetail, userID string) *ShareView {
	t.Helper()
	for _, s := range detail.Shares {
		if s.User != nil && s.User.ID == userID {
			return s
		}
	}
	t.Fatalf("no share for user %s", userID)
	return nil
}

func fptr(f float64) *float64 { return &f }

func TestCreateBill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")
	carol := env.createUser(t, "carol@example.com", "Carol")

	group := env.createGroup(t, alice.ID, "Trip", "bob@example.com")

	t.Run("equal split with payer share settled", func(t *testing.T) {
		detail, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Dinner",
			TotalAmount: 100,
			SplitType:   models.SplitEqual,
			Shares: []ShareInput{
				{UserID: alice.ID},
				{UserID: bob.ID},
			},
		})
		if err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		if detail.PaidBy == nil || detail.PaidBy.ID != alice.ID {
			t.Errorf("expected payer to default to the creator")
		}
		aliceShare := shareByUser(t, detail, alice.ID)
		bobShare := shareByUser(t, detail, bob.ID)
		if aliceShare.Amount != 50 || bobShare.Amount != 50 {
			t.Errorf("expected 50/50 split, got %.2f/%.2f", aliceShare.Amount, bobShare.Amount)
		}
		if !aliceShare.Paid {
			t.Errorf("expected the payer's own share to be settled")
		}
		if bobShare.Paid {
			t.Errorf("expected bob's share unpaid")
		}
	})

	t.Run("exact split rejects mismatched sum", func(t *testing.T) {
		_, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Groceries",
			TotalAmount: 100,
			SplitType:   models.SplitExact,
			Shares: []ShareInput{
				{UserID: alice.ID, Amount: fptr(60)},
				{UserID: bob.ID, Amount: fptr(30)},
			},
		})
		if !errors.Is(err, calculator.ErrShareSumMismatch) {
			t.Fatalf("expected ErrShareSumMismatch, got %v", err)
		}
	})

	t.Run("non-member payer is rejected", func(t *testing.T) {
		_, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Taxi",
			TotalAmount: 20,
			SplitType:   models.SplitEqual,
			PaidBy:      carol.ID,
			Shares:      []ShareInput{{UserID: alice.ID}, {UserID: bob.ID}},
		})
		if !apperr.Is(err, apperr.InvalidArgument) {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("non-member caller is forbidden", func(t *testing.T) {
		_, err := env.bills.CreateBill(ctx, carol.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Taxi",
			TotalAmount: 20,
			SplitType:   models.SplitEqual,
			Shares:      []ShareInput{{UserID: carol.ID}},
		})
		if !apperr.Is(err, apperr.Forbidden) {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("blank description is rejected", func(t *testing.T) {
		_, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "  ",
			TotalAmount: 20,
			SplitType:   models.SplitEqual,
			Shares:      []ShareInput{{UserID: alice.ID}, {UserID: bob.ID}},
		})
		if !apperr.Is(err, apperr.InvalidArgument) {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})
}

func TestUpdateBill(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")
	carol := env.createUser(t, "carol@example.com", "Carol")

	group := env.createGroup(t, alice.ID, "Trip", "bob@example.com", "carol@example.com")

	newBill := func(t *testing.T) *BillDetail {
		t.Helper()
		detail, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Dinner",
			TotalAmount: 90,
			SplitType:   models.SplitEqual,
			Shares: []ShareInput{
				{UserID: alice.ID},
				{UserID: bob.ID},
				{UserID: carol.ID},
			},
		})
		if err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		return detail
	}

	t.Run("excluding a participant keeps their row at zero", func(t *testing.T) {
		bill := newBill(t)
		aliceShareID := shareByUser(t, bill, alice.ID).ID

		updated, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, UpdateBillRequest{
			Shares: []ShareInput{
				{UserID: alice.ID},
				{UserID: bob.ID},
				{UserID: carol.ID, Amount: fptr(0)},
			},
		})
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}

		if got := shareByUser(t, updated, alice.ID).Amount; got != 45 {
			t.Errorf("expected alice share 45, got %.2f", got)
		}
		if got := shareByUser(t, updated, bob.ID).Amount; got != 45 {
			t.Errorf("expected bob share 45, got %.2f", got)
		}
		if got := shareByUser(t, updated, carol.ID).Amount; got != 0 {
			t.Errorf("expected carol excluded at 0, got %.2f", got)
		}
		if got := shareByUser(t, updated, alice.ID).ID; got != aliceShareID {
			t.Errorf("expected alice's share id preserved across update")
		}
	})

	t.Run("dropping a participant deletes their row", func(t *testing.T) {
		bill := newBill(t)

		updated, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, UpdateBillRequest{
			Shares: []ShareInput{
				{UserID: alice.ID},
				{UserID: bob.ID},
			},
		})
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if len(updated.Shares) != 2 {
			t.Fatalf("expected 2 shares after drop, got %d", len(updated.Shares))
		}
		for _, s := range updated.Shares {
			if s.User.ID == carol.ID {
				t.Errorf("expected carol's share removed")
			}
		}
	})

	t.Run("repeated identical update is idempotent", func(t *testing.T) {
		bill := newBill(t)
		req := UpdateBillRequest{
			TotalAmount: fptr(120),
			Shares: []ShareInput{
				{UserID: alice.ID},
				{UserID: bob.ID},
				{UserID: carol.ID},
			},
		}

		first, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, req)
		if err != nil {
			t.Fatalf("first UpdateBill failed: %v", err)
		}
		second, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, req)
		if err != nil {
			t.Fatalf("second UpdateBill failed: %v", err)
		}

		if len(first.Shares) != len(second.Shares) {
			t.Fatalf("share count changed across identical updates: %d vs %d", len(first.Shares), len(second.Shares))
		}
		for _, userID := range []string{alice.ID, bob.ID, carol.ID} {
			a, b := shareByUser(t, first, userID), shareByUser(t, second, userID)
			if a.ID != b.ID {
				t.Errorf("share id for %s changed across identical updates", userID)
			}
			if a.Amount != b.Amount || a.Amount != 40 {
				t.Errorf("expected stable 40 share for %s, got %.2f then %.2f", userID, a.Amount, b.Amount)
			}
		}
	})

	t.Run("equal total change recomputes existing participants", func(t *testing.T) {
		bill := newBill(t)

		updated, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, UpdateBillRequest{
			TotalAmount: fptr(150),
		})
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if updated.TotalAmount != 150 {
			t.Errorf("expected total 150, got %.2f", updated.TotalAmount)
		}
		for _, s := range updated.Shares {
			if s.Amount != 50 {
				t.Errorf("expected recomputed share 50 for %s, got %.2f", s.User.ID, s.Amount)
			}
		}
	})

	t.Run("payer change re-settles the paid flags", func(t *testing.T) {
		bill := newBill(t)

		updated, err := env.bills.UpdateBill(ctx, alice.ID, bill.ID, UpdateBillRequest{
			PaidBy: &bob.ID,
		})
		if err != nil {
			t.Fatalf("UpdateBill failed: %v", err)
		}
		if updated.PaidBy == nil || updated.PaidBy.ID != bob.ID {
			t.Errorf("expected payer changed to bob")
		}
		if shareByUser(t, updated, alice.ID).Paid {
			t.Errorf("expected alice's share unpaid after payer change")
		}
		if !shareByUser(t, updated, bob.ID).Paid {
			t.Errorf("expected bob's share settled after payer change")
		}
	})

	t.Run("exact total change without shares is refused", func(t *testing.T) {
		exact, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
			GroupID:     group.ID,
			Description: "Utilities",
			TotalAmount: 100,
			SplitType:   models.SplitExact,
			Shares: []ShareInput{
				{UserID: alice.ID, Amount: fptr(70)},
				{UserID: bob.ID, Amount: fptr(30)},
			},
		})
		if err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		_, err = env.bills.UpdateBill(ctx, alice.ID, exact.ID, UpdateBillRequest{
			TotalAmount: fptr(200),
		})
		if !errors.Is(err, ErrAmbiguousExactUpdate) {
			t.Fatalf("expected ErrAmbiguousExactUpdate, got %v", err)
		}
	})

	t.Run("missing bill is not found", func(t *testing.T) {
		_, err := env.bills.UpdateBill(ctx, alice.ID, "no-such-bill", UpdateBillRequest{})
		if !apperr.Is(err, apperr.NotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})
}

func TestSetSharePaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")

	group := env.createGroup(t, alice.ID, "Trip", "bob@example.com")
	bill, err := env.bills.CreateBill(ctx, alice.ID, CreateBillRequest{
		GroupID:     group.ID,
		Description: "Dinner",
		TotalAmount: 100,
		SplitType:   models.SplitEqual,
		Shares:      []ShareInput{{UserID: alice.ID}, {UserID: bob.ID}},
	})
	if err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}
	bobShare := shareByUser(t, bill, bob.ID)

	t.Run("only the owner can toggle", func(t *testing.T) {
		_, err := env.bills.SetSharePaid(ctx, alice.ID, bobShare.ID, true)
		if !apperr.Is(err, apperr.Forbidden) {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("owner settles and reopens", func(t *testing.T) {
		paid, err := env.bills.SetSharePaid(ctx, bob.ID, bobShare.ID, true)
		if err != nil {
			t.Fatalf("SetSharePaid failed: %v", err)
		}
		if !paid.Paid {
			t.Errorf("expected share marked paid")
		}

		if _, err := env.bills.SetSharePaid(ctx, bob.ID, bobShare.ID, true); !apperr.Is(err, apperr.InvalidArgument) {
			t.Errorf("expected InvalidArgument on double settle, got %v", err)
		}

		reopened, err := env.bills.SetSharePaid(ctx, bob.ID, bobShare.ID, false)
		if err != nil {
			t.Fatalf("reopening failed: %v", err)
		}
		if reopened.Paid {
			t.Errorf("expected share reopened")
		}
	})

	t.Run("missing share is not found", func(t *testing.T) {
		_, err := env.bills.SetSharePaid(ctx, bob.ID, "no-such-share", true)
		if !apperr.Is(err, apperr.NotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})
}

func TestListBills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice@example.com", "Alice")
	bob := env.createUser(t, "bob@example.com", "Bob")
	carol := env.createUser(t, "carol@example.com", "Carol")

	trip := env.createGroup(t, alice.ID, "Trip", "bob@example.com")
	rent := env.createGroup(t, bob.ID, "Rent", "carol@example.com")

	mustBill := func(creatorID, groupID, desc string, total float64, userIDs ...string) {
		t.Helper()
		shares := make([]ShareInput, len(userIDs))
		for i, id := range userIDs {
			shares[i] = ShareInput{UserID: id}
		}
		_, err := env.bills.CreateBill(ctx, creatorID, CreateBillRequest{
			GroupID:     groupID,
			Description: desc,
			TotalAmount: total,
			SplitType:   models.SplitEqual,
			Shares:      shares,
		})
		if err != nil {
			t.Fatalf("CreateBill %q failed: %v", desc, err)
		}
	}

	mustBill(alice.ID, trip.ID, "Gas", 40, alice.ID, bob.ID)
	mustBill(alice.ID, trip.ID, "Groceries", 60, alice.ID, bob.ID)
	mustBill(bob.ID, rent.ID, "October rent", 1200, bob.ID, carol.ID)

	t.Run("group bills with search", func(t *testing.T) {
		page, err := env.bills.ListGroupBills(ctx, bob.ID, trip.ID, "grocer", 0, 10)
		if err != nil {
			t.Fatalf("ListGroupBills failed: %v", err)
		}
		if page.Total != 1 || page.Items[0].Description != "Groceries" {
			t.Errorf("expected the groceries bill, got total=%d", page.Total)
		}
		if len(page.Items[0].Shares) != 2 {
			t.Errorf("expected shares hydrated, got %d", len(page.Items[0].Shares))
		}
	})

	t.Run("group bills require membership", func(t *testing.T) {
		_, err := env.bills.ListGroupBills(ctx, carol.ID, trip.ID, "", 0, 10)
		if !apperr.Is(err, apperr.Forbidden) {
			t.Fatalf("expected Forbidden, got %v", err)
		}
	})

	t.Run("user bills span groups", func(t *testing.T) {
		page, err := env.bills.ListUserBills(ctx, bob.ID, "", 0, 10)
		if err != nil {
			t.Fatalf("ListUserBills failed: %v", err)
		}
		if page.Total != 3 {
			t.Errorf("expected bob in 3 bills across groups, got %d", page.Total)
		}
	})

	t.Run("user bills exclude strangers", func(t *testing.T) {
		page, err := env.bills.ListUserBills(ctx, carol.ID, "", 0, 10)
		if err != nil {
			t.Fatalf("ListUserBills failed: %v", err)
		}
		if page.Total != 1 {
			t.Errorf("expected carol in 1 bill, got %d", page.Total)
		}
	})
}
