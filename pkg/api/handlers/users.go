package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"helpdesk/pkg/logger"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// RegisterUsers registers user management routes. These need a backend or
// admin key; frontend keys only reach the /users/me surface.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", createUser).Methods(http.MethodPost)
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", patchUser).Methods(http.MethodPatch)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func createUser(w http.ResponseWriter, r *http.Request) {
	if !isBackend(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	switch req.Role {
	case "":
		req.Role = models.RoleCustomer
	case models.RoleCustomer, models.RoleAdmin, models.RoleSupportAgent:
	default:
		utils.JSONError(w, http.StatusBadRequest, "unknown role "+req.Role)
		return
	}
	if _, err := store.FindUserByEmail(req.Email); err == nil {
		utils.JSONError(w, http.StatusConflict, "email already registered")
		return
	}

	now := time.Now().UTC().UnixNano()
	u := models.User{
		ID:        utils.GenUserID(),
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		Active:    true,
		CreatedTS: now,
		UpdatedTS: now,
	}
	if err := store.SaveUser(u); err != nil {
		writeErr(w, err)
		return
	}
	logger.Info("user_created", "user", u.ID, "role", u.Role)
	_ = utils.JSONWrite(w, http.StatusCreated, u)
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	if !isBackend(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	users, err := store.ListUsers()
	if err != nil {
		writeErr(w, err)
		return
	}
	if role := r.URL.Query().Get("role"); role != "" {
		filtered := users[:0]
		for _, u := range users {
			if u.Role == role {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}
	if users == nil {
		users = []models.User{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Users []models.User `json:"users"`
	}{Users: users})
}

func getUser(w http.ResponseWriter, r *http.Request) {
	if !isBackend(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	u, err := store.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}

type patchUserRequest struct {
	Role   *string `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
	Name   *string `json:"name,omitempty"`
}

func patchUser(w http.ResponseWriter, r *http.Request) {
	if !isBackend(r) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	u, err := store.GetUser(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	var req patchUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Role != nil {
		switch *req.Role {
		case models.RoleCustomer, models.RoleAdmin, models.RoleSupportAgent:
			u.Role = *req.Role
		default:
			utils.JSONError(w, http.StatusBadRequest, "unknown role "+*req.Role)
			return
		}
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		u.Name = strings.TrimSpace(*req.Name)
	}
	u.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveUser(u); err != nil {
		writeErr(w, err)
		return
	}
	logger.Info("user_updated", "user", u.ID, "role", u.Role, "active", u.Active)
	_ = utils.JSONWrite(w, http.StatusOK, u)
}
