package models

// Escalation priorities. The detector only ever assigns medium or high;
// low and urgent are set manually by handlers.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Escalation workflow statuses.
const (
	EscalationPending    = "pending"
	EscalationInProgress = "in_progress"
	EscalationResolved   = "resolved"
	EscalationClosed     = "closed"
)

// Escalation tracks a session that needs (or needed) human attention. It is
// a workflow overlay keyed by the session token; the session transcript
// remains the primary timeline. At most one record exists per token and it
// is re-opened on re-escalation rather than duplicated.
type Escalation struct {
	ID           string `json:"id"`
	SessionToken string `json:"session"`
	// CustomerID is the end user, empty for anonymous sessions.
	CustomerID string `json:"customer_id,omitempty"`
	// AssignedTo is the handler (admin or support agent) working the case.
	AssignedTo string `json:"assigned_to,omitempty"`
	Reason     string `json:"reason"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	CreatedTS  int64  `json:"created_ts,omitempty"`
	UpdatedTS  int64  `json:"updated_ts,omitempty"`
	// ResolvedTS is set once, on the first resolve.
	ResolvedTS int64 `json:"resolved_ts,omitempty"`
}

// Active reports whether the record still needs human attention.
func (e Escalation) Active() bool {
	return e.Status == EscalationPending || e.Status == EscalationInProgress
}

// Note is an append-only annotation on an escalation. AuthorID is empty for
// system-authored notes.
type Note struct {
	Escalation string `json:"escalation"`
	AuthorID   string `json:"author_id,omitempty"`
	Text       string `json:"text"`
	TS         int64  `json:"ts"`
}
