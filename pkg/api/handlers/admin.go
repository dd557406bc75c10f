package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"helpdesk/pkg/auth"
	"helpdesk/pkg/escalation"
	"helpdesk/pkg/logger"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// RegisterAdmin registers the handler workflow routes onto the admin
// subrouter. The acting handler middleware runs before all of them.
func RegisterAdmin(r *mux.Router, esc *escalation.Service) {
	a := &adminHandlers{esc: esc}

	r.HandleFunc("/escalations", a.listEscalations).Methods(http.MethodGet)
	r.HandleFunc("/escalations/{id}", a.getEscalation).Methods(http.MethodGet)
	r.HandleFunc("/escalations/{id}/assign", a.assign).Methods(http.MethodPost)
	r.HandleFunc("/escalations/{id}/resolve", a.resolve).Methods(http.MethodPost)
	r.HandleFunc("/escalations/{id}/notes", a.addNote).Methods(http.MethodPost)
	r.HandleFunc("/sessions", a.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{token}", a.getSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{token}/message", a.sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/stats", a.stats).Methods(http.MethodGet)
	r.HandleFunc("/faqs", a.upsertFAQ).Methods(http.MethodPost)
	logger.Info("admin_routes_registered")
}

type adminHandlers struct {
	esc *escalation.Service
}

func actor(r *http.Request) models.User {
	u, _ := auth.ActorFromContext(r.Context())
	return u
}

// priorityRank orders queue listings: urgent cases surface first.
var priorityRank = map[string]int{
	models.PriorityUrgent: 3,
	models.PriorityHigh:   2,
	models.PriorityMedium: 1,
	models.PriorityLow:    0,
}

// listEscalations returns escalation records ordered by priority then
// recency, optionally filtered by status and priority, with limit/offset
// pagination.
func (a *adminHandlers) listEscalations(w http.ResponseWriter, r *http.Request) {
	recs, err := store.ListEscalations()
	if err != nil {
		writeErr(w, err)
		return
	}
	status := r.URL.Query().Get("status")
	priority := r.URL.Query().Get("priority")
	out := make([]models.Escalation, 0, len(recs))
	for _, rec := range recs {
		if status != "" && rec.Status != status {
			continue
		}
		if priority != "" && rec.Priority != priority {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if priorityRank[out[i].Priority] != priorityRank[out[j].Priority] {
			return priorityRank[out[i].Priority] > priorityRank[out[j].Priority]
		}
		return out[i].CreatedTS > out[j].CreatedTS
	})
	total := len(out)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Escalations []models.Escalation `json:"escalations"`
		Total       int                 `json:"total"`
	}{Escalations: out, Total: total})
}

// getEscalation returns one record with its notes and the linked session
// transcript.
func (a *adminHandlers) getEscalation(w http.ResponseWriter, r *http.Request) {
	rec, err := store.GetEscalation(mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return
	}
	notes, err := store.ListNotes(rec.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	msgs, err := store.ListMessages(rec.SessionToken)
	if err != nil {
		writeErr(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Escalation models.Escalation `json:"escalation"`
		Notes      []models.Note     `json:"notes"`
		Messages   []models.Message  `json:"messages"`
	}{Escalation: rec, Notes: notes, Messages: msgs})
}

func (a *adminHandlers) assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssigneeID string `json:"assignee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.AssigneeID) == "" {
		utils.JSONError(w, http.StatusBadRequest, "assignee_id is required")
		return
	}
	rec, err := a.esc.Assign(mux.Vars(r)["id"], strings.TrimSpace(req.AssigneeID), actor(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rec)
}

func (a *adminHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note,omitempty"`
	}
	// body is optional
	_ = json.NewDecoder(r.Body).Decode(&req)
	rec, err := a.esc.Resolve(mux.Vars(r)["id"], actor(r), strings.TrimSpace(req.Note))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, rec)
}

func (a *adminHandlers) addNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Note) == "" {
		utils.JSONError(w, http.StatusBadRequest, "note is required")
		return
	}
	id := mux.Vars(r)["id"]
	if err := a.esc.AddNote(id, actor(r), strings.TrimSpace(req.Note)); err != nil {
		writeErr(w, err)
		return
	}
	notes, err := store.ListNotes(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Notes []models.Note `json:"notes"`
	}{Notes: notes})
}

// listSessions returns every session, most recent activity first.
func (a *adminHandlers) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := store.ListSessions()
	if err != nil {
		writeErr(w, err)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.Status == status {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].UpdatedTS > sessions[j].UpdatedTS })
	if sessions == nil {
		sessions = []models.Session{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Sessions []models.Session `json:"sessions"`
	}{Sessions: sessions})
}

// getSession returns a session with its transcript and, when escalated,
// the linked record.
func (a *adminHandlers) getSession(w http.ResponseWriter, r *http.Request) {
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
	out := struct {
		Session    models.Session     `json:"session"`
		Messages   []models.Message   `json:"messages"`
		Escalation *models.Escalation `json:"escalation,omitempty"`
	}{Session: sess, Messages: msgs}
	if rec, err := store.FindEscalationBySession(token); err == nil {
		out.Escalation = &rec
	}
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

// sendMessage injects the acting handler's message into the customer's
// transcript.
func (a *adminHandlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		utils.JSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	msg, err := a.esc.AdminMessage(mux.Vars(r)["token"], actor(r), strings.TrimSpace(req.Message))
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

func (a *adminHandlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := store.ComputeStats()
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, st)
}

// upsertFAQ creates or replaces a knowledge-base entry.
func (a *adminHandlers) upsertFAQ(w http.ResponseWriter, r *http.Request) {
	var f models.FAQ
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
		utils.JSONError(w, http.StatusBadRequest, "question and answer are required")
		return
	}
	if f.ID == "" {
		f.ID = utils.GenFAQID()
	}
	if err := store.SaveFAQ(f); err != nil {
		writeErr(w, err)
		return
	}
	logger.Info("faq_saved", "faq", f.ID, "actor", actor(r).ID)
	_ = utils.JSONWrite(w, http.StatusCreated, f)
}
