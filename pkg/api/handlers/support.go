package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"helpdesk/pkg/conversation"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// RegisterSupport registers the customer-facing chat routes.
func RegisterSupport(r *mux.Router, orch *conversation.Orchestrator) {
	s := &supportHandlers{orch: orch}

	r.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{token}", s.getSession).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.chat).Methods(http.MethodPost)
	r.HandleFunc("/faqs", s.listFAQs).Methods(http.MethodGet)
	r.HandleFunc("/users/me/sessions", s.mySessions).Methods(http.MethodGet)
	r.HandleFunc("/users/me/sessions/{token}", s.mySession).Methods(http.MethodGet)
}

type supportHandlers struct {
	orch *conversation.Orchestrator
}

// createSession hands out a fresh session token. Nothing is persisted
// until the first on-topic message arrives.
func (s *supportHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	token := utils.GenSessionToken()
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"token": token})
}

type chatRequest struct {
	SessionToken string `json:"session_token"`
	UserID       string `json:"user_id,omitempty"`
	Message      string `json:"message"`
}

// chat runs one user turn through the orchestrator.
func (s *supportHandlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID := req.UserID
	if h := strings.TrimSpace(r.Header.Get("X-User-ID")); h != "" {
		userID = h
	}

	reply, err := s.orch.HandleUserMessage(r.Context(), req.SessionToken, userID, req.Message)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, reply)
}

// getSession returns session metadata and the full transcript.
func (s *supportHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	sess, err := store.GetSession(token)
	if err != nil {
		writeErr(w, err)
		return
	}
	msgs, err := store.ListMessages(token)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Session  models.Session   `json:"session"`
		Messages []models.Message `json:"messages"`
	}{Session: sess, Messages: msgs})
}

// listFAQs returns the knowledge base.
func (s *supportHandlers) listFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := store.ListFAQs()
	if err != nil {
		writeErr(w, err)
		return
	}
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		FAQs []models.FAQ `json:"faqs"`
	}{FAQs: faqs})
}

// mySessions lists the caller's sessions, newest activity first, with
// limit/offset pagination.
func (s *supportHandlers) mySessions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		utils.JSONError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}

	sessions, err := store.ListSessionsByUser(userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	total := len(sessions)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	if offset > len(sessions) {
		offset = len(sessions)
	}
	sessions = sessions[offset:]
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Sessions []models.Session `json:"sessions"`
		Total    int              `json:"total"`
	}{Sessions: sessions, Total: total})
}

// mySession returns one of the caller's sessions with its transcript.
// Foreign tokens read as not found.
func (s *supportHandlers) mySession(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		utils.JSONError(w, http.StatusUnauthorized, "missing X-User-ID header")
		return
	}
	token := mux.Vars(r)["token"]

	sess, err := store.GetSession(token)
	if err != nil || sess.UserID != userID {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	msgs, err := store.ListMessages(token)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Session  models.Session   `json:"session"`
		Messages []models.Message `json:"messages"`
	}{Session: sess, Messages: msgs})
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
