package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rupaya-app/rupaya/internal/apperr"
	"github.com/rupaya-app/rupaya/internal/models"
	"github.com/rupaya-app/rupaya/internal/storage"
)

var (
	// ErrNoValidMembers rolls back group creation when no member besides
	// the creator could be resolved.
	ErrNoValidMembers = apperr.New(apperr.InvariantViolation, "a group must include at least one other valid member")

	// ErrAlreadyMember rejects adding a user who already has an active
	// membership.
	ErrAlreadyMember = apperr.New(apperr.Conflict, "user is already a member of this group")

	// ErrSoleAdminMustReassign rejects self-removal by the only admin while
	// other members remain.
	ErrSoleAdminMustReassign = apperr.New(apperr.InvariantViolation, "promote another admin before leaving the group")
)

// GroupService manages the group membership lifecycle: creation, member
// add/remove/promote, soft-deletion and reactivation.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// requireMember verifies the group exists and the user is an active member.
func (s *GroupService) requireMember(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.New(apperr.NotFound, "group not found")
	}

	member, err := s.store.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperr.New(apperr.Forbidden, "user is not a member of this group")
	}
	return member, nil
}

// requireAdmin verifies the user is an active ADMIN of the group.
func (s *GroupService) requireAdmin(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	member, err := s.requireMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "only group admins can perform this action")
	}
	return member, nil
}

// CreateGroupRequest carries the inputs for group creation.
type CreateGroupRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	InitialMembers []string `json:"initial_members"`
}

// CreateGroup creates a group with the creator as sole initial ADMIN and the
// resolvable initial members as MEMBERs. Unknown emails are skipped; the
// creator's own email is ignored. If no other member resolves, nothing is
// persisted and ErrNoValidMembers is returned.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID string, req CreateGroupRequest) (*GroupDetail, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.New(apperr.InvalidArgument, "group name is required")
	}

	creator, err := s.store.GetUserByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}

	// Dedupe and normalize the email list, dropping the creator's own.
	seen := map[string]bool{creator.Email: true}
	members := []*models.GroupMember{{
		UserID: creatorID,
		Role:   models.RoleAdmin,
		Audit:  models.Audit{CreatedBy: creatorID},
	}}
	for _, raw := range req.InitialMembers {
		email := strings.ToLower(strings.TrimSpace(raw))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true

		user, err := s.store.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			slog.Debug("skipping unknown email at group creation", "email", email)
			continue
		}
		members = append(members, &models.GroupMember{
			UserID: user.ID,
			Role:   models.RoleMember,
			Audit:  models.Audit{CreatedBy: creatorID},
		})
	}

	if len(members) < 2 {
		return nil, ErrNoValidMembers
	}

	group := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Audit:       models.Audit{CreatedBy: creatorID},
	}
	if err := s.store.CreateGroup(ctx, group, members); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("group created", "group_id", group.ID, "creator_id", creatorID, "member_count", len(members))
	return s.GetGroupDetail(ctx, creatorID, group.ID)
}

// GetGroupDetail returns a group with its member list and the caller's
// balances inside the group.
func (s *GroupService) GetGroupDetail(ctx context.Context, callerID, groupID string) (*GroupDetail, error) {
	if _, err := s.requireMember(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.New(apperr.NotFound, "group not found")
	}

	members, err := s.store.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	memberViews := make([]*MemberView, len(members))
	for i, m := range members {
		memberViews[i] = &MemberView{
			ID:        m.ID,
			Role:      m.Role,
			User:      userView(users[m.UserID]),
			CreatedAt: m.CreatedAt,
		}
	}

	summary, err := s.groupSummary(ctx, callerID, group, len(members))
	if err != nil {
		return nil, err
	}

	return &GroupDetail{GroupSummary: *summary, Members: memberViews}, nil
}

func (s *GroupService) groupSummary(ctx context.Context, callerID string, group *models.Group, memberCount int) (*GroupSummary, error) {
	owed, err := s.store.SumOwedTo(ctx, callerID, group.ID)
	if err != nil {
		return nil, err
	}
	owe, err := s.store.SumOwedBy(ctx, callerID, group.ID)
	if err != nil {
		return nil, err
	}
	return &GroupSummary{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   group.CreatedBy,
		CreatedAt:   group.CreatedAt,
		MemberCount: memberCount,
		TotalOwed:   owed,
		TotalOwe:    owe,
	}, nil
}

// ListGroups returns the caller's groups newest-first with member counts and
// per-group balances, optionally filtered by a name/description search.
func (s *GroupService) ListGroups(ctx context.Context, callerID, search string, skip, limit int) (*Page[*GroupSummary], error) {
	groups, total, err := s.store.ListGroupsForUser(ctx, callerID, search, skip, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*GroupSummary, len(groups))
	for i, group := range groups {
		count, err := s.store.CountActiveMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		summaries[i], err = s.groupSummary(ctx, callerID, group, count)
		if err != nil {
			return nil, err
		}
	}
	return page(summaries, total, skip, limit), nil
}

// AddMember adds the user with the given email to the group. The caller must
// be an active ADMIN. A tombstoned membership is reactivated in place with
// the role reset to MEMBER; the row id never changes.
func (s *GroupService) AddMember(ctx context.Context, callerID, groupID, email string) (*MemberView, error) {
	if _, err := s.requireAdmin(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.New(apperr.InvalidArgument, "email is required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Newf(apperr.NotFound, "no user found with email %s", email)
	}

	existing, err := s.store.GetMembershipAny(ctx, groupID, user.ID)
	if err != nil {
		return nil, err
	}

	var member *models.GroupMember
	switch {
	case existing != nil && !existing.Deleted():
		return nil, ErrAlreadyMember
	case existing != nil:
		if err := s.store.ReactivateMember(ctx, existing.ID, models.RoleMember, callerID); err != nil {
			return nil, err
		}
		member, err = s.store.GetMemberByID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		slog.Info("member reactivated", "group_id", groupID, "member_id", existing.ID)
	default:
		member = &models.GroupMember{
			GroupID: groupID,
			UserID:  user.ID,
			Role:    models.RoleMember,
			Audit:   models.Audit{CreatedBy: callerID},
		}
		if err := s.store.InsertMember(ctx, member); err != nil {
			return nil, err
		}
		slog.Info("member added", "group_id", groupID, "member_id", member.ID)
	}

	return &MemberView{
		ID:        member.ID,
		Role:      member.Role,
		User:      userView(user),
		CreatedAt: member.CreatedAt,
	}, nil
}

// ToggleAdmin flips a membership between ADMIN and MEMBER. The caller must be
// an active ADMIN.
func (s *GroupService) ToggleAdmin(ctx context.Context, callerID, groupID, memberID string) (*MemberView, error) {
	if _, err := s.requireAdmin(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.GroupID != groupID {
		return nil, apperr.New(apperr.NotFound, "member not found in this group")
	}

	role := models.RoleAdmin
	if member.Role == models.RoleAdmin {
		role = models.RoleMember
	}
	if err := s.store.UpdateMemberRole(ctx, member.ID, role, callerID); err != nil {
		return nil, err
	}
	member.Role = role

	user, err := s.store.GetUserByID(ctx, member.UserID)
	if err != nil {
		return nil, err
	}

	slog.Info("member role toggled", "group_id", groupID, "member_id", memberID, "role", role)
	return &MemberView{
		ID:        member.ID,
		Role:      member.Role,
		User:      userView(user),
		CreatedAt: member.CreatedAt,
	}, nil
}

// RemoveMember soft-deletes a membership. Members may remove themselves
// unless they are the sole admin of a group that still has other active
// members; removing someone else requires ADMIN. When the last active member
// leaves, the group is tombstoned in the same transaction.
func (s *GroupService) RemoveMember(ctx context.Context, callerID, groupID, memberID string) error {
	member, err := s.store.GetMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil || member.GroupID != groupID {
		return apperr.New(apperr.NotFound, "member not found in this group")
	}

	if member.UserID == callerID {
		// Self-removal: the sole admin may not abandon a group that
		// still has other members.
		if _, err := s.requireMember(ctx, callerID, groupID); err != nil {
			return err
		}
		if member.Role == models.RoleAdmin {
			admins, err := s.store.CountActiveAdmins(ctx, groupID)
			if err != nil {
				return err
			}
			others, err := s.store.CountActiveMembersExcluding(ctx, groupID, callerID)
			if err != nil {
				return err
			}
			if admins == 1 && others > 0 {
				return ErrSoleAdminMustReassign
			}
		}
	} else {
		if _, err := s.requireAdmin(ctx, callerID, groupID); err != nil {
			return err
		}
	}

	groupDeleted, err := s.store.RemoveMember(ctx, memberID, groupID, callerID)
	if err != nil {
		return err
	}
	slog.Info("member removed",
		"group_id", groupID,
		"member_id", memberID,
		"group_deleted", groupDeleted,
	)
	return nil
}

// UpdateGroupInfoRequest carries a partial group info update; nil fields are
// left untouched.
type UpdateGroupInfoRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateGroupInfo edits a group's name/description. Requires active
// membership.
func (s *GroupService) UpdateGroupInfo(ctx context.Context, callerID, groupID string, req UpdateGroupInfoRequest) (*GroupDetail, error) {
	if _, err := s.requireMember(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, apperr.New(apperr.NotFound, "group not found")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.New(apperr.InvalidArgument, "group name cannot be blank")
		}
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	group.UpdatedBy = callerID

	if err := s.store.UpdateGroupInfo(ctx, group); err != nil {
		return nil, err
	}
	return s.GetGroupDetail(ctx, callerID, groupID)
}

// DeleteGroup tombstones a group and everything in it. Requires ADMIN.
func (s *GroupService) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	if _, err := s.requireAdmin(ctx, callerID, groupID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteGroup(ctx, groupID, callerID); err != nil {
		return err
	}
	slog.Info("group deleted", "group_id", groupID, "deleted_by", callerID)
	return nil
}
