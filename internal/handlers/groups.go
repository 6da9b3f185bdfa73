package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rupaya-app/rupaya/internal/middleware"
	"github.com/rupaya-app/rupaya/internal/service"
)

// GroupHandler exposes the group lifecycle endpoints.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create handles POST /api/groups.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.groups.CreateGroup(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// List handles GET /api/groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	search, skip, limit := listParams(r)
	page, err := h.groups.ListGroups(r.Context(), middleware.UserID(r.Context()), search, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/groups/{groupID}.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.groups.GetGroupDetail(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["groupID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /api/groups/{groupID}.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateGroupInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.groups.UpdateGroupInfo(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["groupID"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Delete handles DELETE /api/groups/{groupID}.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["groupID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type addMemberRequest struct {
	Email string `json:"email"`
}

// AddMember handles POST /api/groups/{groupID}/members.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.groups.AddMember(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["groupID"], req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// ToggleAdmin handles POST /api/groups/{groupID}/members/{memberID}/toggle-admin.
func (h *GroupHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	member, err := h.groups.ToggleAdmin(r.Context(), middleware.UserID(r.Context()), vars["groupID"], vars["memberID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// RemoveMember handles DELETE /api/groups/{groupID}/members/{memberID}.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.groups.RemoveMember(r.Context(), middleware.UserID(r.Context()), vars["groupID"], vars["memberID"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
