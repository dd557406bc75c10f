package handlers

import (
	"errors"
	"net/http"

	"helpdesk/pkg/conversation"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// writeErr maps domain errors onto HTTP statuses with a JSON body.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrInvalidRequest):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrSessionResolved):
		utils.JSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not found")
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// isBackend reports whether the gateway resolved a backend or admin key.
func isBackend(r *http.Request) bool {
	role := r.Header.Get("X-Role-Name")
	return role == "backend" || role == "admin"
}
