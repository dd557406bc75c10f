// Package api assembles the versioned HTTP surface: the customer-facing
// chat routes and the admin workflow routes.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"helpdesk/pkg/api/handlers"
	"helpdesk/pkg/auth"
	"helpdesk/pkg/conversation"
	"helpdesk/pkg/escalation"
)

// Handler builds the /v1 router. Admin routes sit behind the acting
// handler middleware; key-based role checks happen earlier in the auth
// gateway.
func Handler(orch *conversation.Orchestrator, esc *escalation.Service) http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()

	handlers.RegisterSupport(v1, orch)
	handlers.RegisterUsers(v1)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(auth.RequireActingHandler)
	handlers.RegisterAdmin(admin, esc)

	return r
}
