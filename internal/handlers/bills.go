package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rupaya-app/rupaya/internal/middleware"
	"github.com/rupaya-app/rupaya/internal/service"
)

// BillHandler exposes the bill ledger endpoints.
type BillHandler struct {
	bills *service.BillService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(bills *service.BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

// Create handles POST /api/groups/{groupID}/bills.
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.GroupID = mux.Vars(r)["groupID"]

	detail, err := h.bills.CreateBill(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// Get handles GET /api/bills/{billID}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.bills.GetBillDetail(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["billID"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /api/bills/{billID}.
func (h *BillHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBillRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.bills.UpdateBill(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["billID"], req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListByGroup handles GET /api/groups/{groupID}/bills.
func (h *BillHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	search, skip, limit := listParams(r)
	page, err := h.bills.ListGroupBills(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["groupID"], search, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ListMine handles GET /api/bills.
func (h *BillHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	search, skip, limit := listParams(r)
	page, err := h.bills.ListUserBills(r.Context(), middleware.UserID(r.Context()), search, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type setPaidRequest struct {
	Paid bool `json:"paid"`
}

// SetSharePaid handles PUT /api/shares/{shareID}/paid.
func (h *BillHandler) SetSharePaid(w http.ResponseWriter, r *http.Request) {
	var req setPaidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	share, err := h.bills.SetSharePaid(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["shareID"], req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}
