package store

import (
	"time"

	"helpdesk/pkg/models"
)

// Stats summarizes session and escalation activity for the admin
// dashboard and the periodic reports job.
type Stats struct {
	TotalSessions     int `json:"total_sessions"`
	ActiveSessions    int `json:"active_sessions"`
	EscalatedSessions int `json:"escalated_sessions"`
	ResolvedSessions  int `json:"resolved_sessions"`
	RecentSessions    int `json:"recent_sessions"`

	TotalEscalations    int `json:"total_escalations"`
	PendingEscalations  int `json:"pending_escalations"`
	InProgress          int `json:"in_progress_escalations"`
	ResolvedEscalations int `json:"resolved_escalations"`
	HighPriorityOpen    int `json:"high_priority_open"`
	RecentEscalations   int `json:"recent_escalations"`

	TotalUsers int `json:"total_users"`
	Customers  int `json:"customers"`
	Handlers   int `json:"handlers"`
}

// ComputeStats scans sessions and escalations and counts by status.
// "Recent" covers the trailing seven days.
func ComputeStats() (Stats, error) {
	var st Stats
	weekAgo := time.Now().UTC().AddDate(0, 0, -7).UnixNano()

	sessions, err := ListSessions()
	if err != nil {
		return st, err
	}
	st.TotalSessions = len(sessions)
	for _, s := range sessions {
		switch s.Status {
		case models.SessionActive:
			st.ActiveSessions++
		case models.SessionEscalated:
			st.EscalatedSessions++
		case models.SessionResolved:
			st.ResolvedSessions++
		}
		if s.CreatedTS >= weekAgo {
			st.RecentSessions++
		}
	}

	escalations, err := ListEscalations()
	if err != nil {
		return st, err
	}
	st.TotalEscalations = len(escalations)
	for _, e := range escalations {
		switch e.Status {
		case models.EscalationPending:
			st.PendingEscalations++
		case models.EscalationInProgress:
			st.InProgress++
		case models.EscalationResolved:
			st.ResolvedEscalations++
		}
		if e.Active() && (e.Priority == models.PriorityHigh || e.Priority == models.PriorityUrgent) {
			st.HighPriorityOpen++
		}
		if e.CreatedTS >= weekAgo {
			st.RecentEscalations++
		}
	}

	users, err := ListUsers()
	if err != nil {
		return st, err
	}
	st.TotalUsers = len(users)
	for _, u := range users {
		if u.Handler() {
			st.Handlers++
		} else {
			st.Customers++
		}
	}
	return st, nil
}
