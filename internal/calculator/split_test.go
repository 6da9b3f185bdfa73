package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/rupaya-app/rupaya/internal/models"
)

func ptr(f float64) *float64 { return &f }

func TestCalculateShares(t *testing.T) {
	tests := []struct {
		name      string
		splitType models.SplitType
		total     float64
		requests  []ShareRequest
		payer     string
		wantErr   error
		validate  func(t *testing.T, shares []Share)
	}{
		{
			name:      "equal split two people",
			splitType: models.SplitEqual,
			total:     100,
			requests: []ShareRequest{
				{UserID: "alice"},
				{UserID: "bob"},
			},
			payer: "alice",
			validate: func(t *testing.T, shares []Share) {
				if len(shares) != 2 {
					t.Fatalf("expected 2 shares, got %d", len(shares))
				}
				if math.Abs(shares[0].Amount-50) > Epsilon || math.Abs(shares[1].Amount-50) > Epsilon {
					t.Errorf("expected 50/50, got %v/%v", shares[0].Amount, shares[1].Amount)
				}
				if !shares[0].Paid {
					t.Error("expected payer share to be paid")
				}
				if shares[1].Paid {
					t.Error("expected non-payer share to be unpaid")
				}
			},
		},
		{
			name:      "equal split with excluded participant",
			splitType: models.SplitEqual,
			total:     90,
			requests: []ShareRequest{
				{UserID: "alice"},
				{UserID: "bob"},
				{UserID: "carol", Amount: ptr(0)},
			},
			payer: "alice",
			validate: func(t *testing.T, shares []Share) {
				// Carol attended but didn't consume: 90 over two heads.
				if math.Abs(shares[0].Amount-45) > Epsilon {
					t.Errorf("alice amount = %v, want 45", shares[0].Amount)
				}
				if math.Abs(shares[1].Amount-45) > Epsilon {
					t.Errorf("bob amount = %v, want 45", shares[1].Amount)
				}
				if shares[2].Amount != 0 {
					t.Errorf("carol amount = %v, want 0", shares[2].Amount)
				}
			},
		},
		{
			name:      "equal split positive requested amount still involved",
			splitType: models.SplitEqual,
			total:     60,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(10)},
				{UserID: "bob"},
				{UserID: "carol"},
			},
			payer: "bob",
			validate: func(t *testing.T, shares []Share) {
				for _, s := range shares {
					if math.Abs(s.Amount-20) > Epsilon {
						t.Errorf("%s amount = %v, want 20", s.UserID, s.Amount)
					}
				}
			},
		},
		{
			name:      "equal split all excluded",
			splitType: models.SplitEqual,
			total:     50,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(0)},
				{UserID: "bob", Amount: ptr(0)},
			},
			payer:   "alice",
			wantErr: ErrNoInvolvedParticipants,
		},
		{
			name:      "exact split sums to total",
			splitType: models.SplitExact,
			total:     100,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(70)},
				{UserID: "bob", Amount: ptr(30)},
			},
			payer: "bob",
			validate: func(t *testing.T, shares []Share) {
				if shares[0].Amount != 70 || shares[1].Amount != 30 {
					t.Errorf("amounts = %v/%v, want 70/30", shares[0].Amount, shares[1].Amount)
				}
				if shares[0].Paid || !shares[1].Paid {
					t.Error("paid flags do not follow the payer")
				}
			},
		},
		{
			name:      "exact split missing amount counts as zero",
			splitType: models.SplitExact,
			total:     40,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(40)},
				{UserID: "bob"},
			},
			payer: "alice",
			validate: func(t *testing.T, shares []Share) {
				if shares[1].Amount != 0 {
					t.Errorf("bob amount = %v, want 0", shares[1].Amount)
				}
			},
		},
		{
			name:      "exact split sum mismatch",
			splitType: models.SplitExact,
			total:     100,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(70)},
				{UserID: "bob", Amount: ptr(20)},
			},
			payer:   "alice",
			wantErr: ErrShareSumMismatch,
		},
		{
			name:      "exact split within epsilon passes",
			splitType: models.SplitExact,
			total:     0.3,
			requests: []ShareRequest{
				{UserID: "alice", Amount: ptr(0.1)},
				{UserID: "bob", Amount: ptr(0.2)},
			},
			payer: "alice",
			validate: func(t *testing.T, shares []Share) {
				var sum float64
				for _, s := range shares {
					sum += s.Amount
				}
				if !SumMatches(sum, 0.3) {
					t.Errorf("sum %v not within epsilon of total", sum)
				}
			},
		},
		{
			name:      "zero total",
			splitType: models.SplitEqual,
			total:     0,
			requests:  []ShareRequest{{UserID: "alice"}},
			payer:     "alice",
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "negative total",
			splitType: models.SplitExact,
			total:     -5,
			requests:  []ShareRequest{{UserID: "alice", Amount: ptr(-5)}},
			payer:     "alice",
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "no participants",
			splitType: models.SplitEqual,
			total:     10,
			requests:  nil,
			payer:     "alice",
			wantErr:   ErrEmptyParticipants,
		},
		{
			name:      "duplicate participant",
			splitType: models.SplitEqual,
			total:     10,
			requests: []ShareRequest{
				{UserID: "alice"},
				{UserID: "alice"},
			},
			payer:   "alice",
			wantErr: ErrDuplicateParticipant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := CalculateShares(tt.splitType, tt.total, tt.requests, tt.payer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CalculateShares failed: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, shares)
			}
		})
	}
}

func TestCalculateSharesDeterministic(t *testing.T) {
	requests := []ShareRequest{
		{UserID: "alice"},
		{UserID: "bob"},
		{UserID: "carol", Amount: ptr(0)},
	}

	first, err := CalculateShares(models.SplitEqual, 90, requests, "alice")
	if err != nil {
		t.Fatalf("CalculateShares failed: %v", err)
	}
	second, err := CalculateShares(models.SplitEqual, 90, requests, "alice")
	if err != nil {
		t.Fatalf("CalculateShares failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("share counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("share %d differs between identical calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEqualSplitSumsToTotal(t *testing.T) {
	shares, err := CalculateShares(models.SplitEqual, 100, []ShareRequest{
		{UserID: "a"}, {UserID: "b"}, {UserID: "c"},
	}, "a")
	if err != nil {
		t.Fatalf("CalculateShares failed: %v", err)
	}

	var sum float64
	for _, s := range shares {
		sum += s.Amount
	}
	if !SumMatches(sum, 100) {
		t.Errorf("involved shares sum to %v, want 100 within epsilon", sum)
	}
}
