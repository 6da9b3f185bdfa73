package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rupaya-app/rupaya/internal/models"
	"github.com/rupaya-app/rupaya/internal/storage"
	"github.com/rupaya-app/rupaya/internal/storage/sqlite"
)

type testEnv struct {
	store   storage.Store
	groups  *GroupService
	bills   *BillService
	summary *SummaryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	groups := NewGroupService(store)
	return &testEnv{
		store:   store,
		groups:  groups,
		bills:   NewBillService(store, groups),
		summary: NewSummaryService(store, groups),
	}
}

func (e *testEnv) createUser(t *testing.T, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "hash")
	if err := e.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func (e *testEnv) createGroup(t *testing.T, creatorID, name string, memberEmails ...string) *GroupDetail {
	t.Helper()
	detail, err := e.groups.CreateGroup(context.Background(), creatorID, CreateGroupRequest{
		Name:           name,
		InitialMembers: memberEmails,
	})
	if err != nil {
		t.Fatalf("failed to create group %s: %v", name, err)
	}
	return detail
}

func (e *testEnv) memberByUser(t *testing.T, detail *GroupDetail, userID string) *MemberView {
	t.Helper()
	for _, m := range detail.Members {
		if m.User != nil && m.User.ID == userID {
			return m
		}
	}
	t.Fatalf("user %s not found among group members", userID)
	return nil
}
