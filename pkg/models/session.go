package models

// Session lifecycle statuses.
const (
	SessionActive    = "active"
	SessionEscalated = "escalated"
	SessionResolved  = "resolved"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message origin tags.
const (
	SourceFAQ    = "faq"
	SourceAI     = "ai"
	SourceSystem = "system"
	SourceAdmin  = "admin"
)

// Session is the metadata row for one support conversation. The transcript
// is not embedded here; messages are stored as their own records keyed by
// the session token so appends never rewrite the session.
type Session struct {
	// Token is the opaque session identifier handed to the client before
	// the record exists server-side (lazy materialization).
	Token string `json:"token"`
	// UserID is the owning user, empty for anonymous sessions. It may be
	// backfilled once the caller authenticates mid-conversation.
	UserID string `json:"user_id,omitempty"`
	// Title is derived from the first user message, truncated.
	Title  string `json:"title,omitempty"`
	Status string `json:"status"`
	// Created/Updated timestamps (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
	UpdatedTS int64 `json:"updated_ts,omitempty"`
}

// Message is one transcript entry. Messages are immutable once appended and
// transcript order is insertion order.
type Message struct {
	ID      string `json:"id"`
	Session string `json:"session"`
	Role    string `json:"role"`
	Content string `json:"content"`
	// Source tags where an assistant reply came from (faq|ai|system|admin).
	Source string `json:"source,omitempty"`
	TS     int64  `json:"ts"`
}
