package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rupaya-app/rupaya/internal/middleware"
)

// NewRouter assembles the full HTTP API. Auth endpoints, the health check
// and /metrics are public; everything else requires a valid bearer token.
func NewRouter(
	authHandler *AuthHandler,
	groupHandler *GroupHandler,
	billHandler *BillHandler,
	summaryHandler *SummaryHandler,
	authMW *middleware.Auth,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.Metrics)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMW.Require)

	api.HandleFunc("/me", authHandler.Profile).Methods(http.MethodGet)
	api.HandleFunc("/summary", summaryHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/groups", groupHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/groups", groupHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", groupHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/groups/{groupID}", groupHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/groups/{groupID}", groupHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{groupID}/members", groupHandler.AddMember).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/members/{memberID}/toggle-admin", groupHandler.ToggleAdmin).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/members/{memberID}", groupHandler.RemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/groups/{groupID}/bills", billHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/groups/{groupID}/bills", billHandler.ListByGroup).Methods(http.MethodGet)
	api.HandleFunc("/bills", billHandler.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/bills/{billID}", billHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/bills/{billID}", billHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/shares/{shareID}/paid", billHandler.SetSharePaid).Methods(http.MethodPut)

	return r
}
