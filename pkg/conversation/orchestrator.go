// Package conversation runs the user-facing chat turn: domain gating,
// lazy session materialization, FAQ short-circuiting, model calls and
// escalation hand-off. One turn per session token runs at a time.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"helpdesk/pkg/detector"
	"helpdesk/pkg/escalation"
	"helpdesk/pkg/faq"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/logger"
	"helpdesk/pkg/metrics"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// ErrInvalidRequest marks a turn rejected before any state change.
var ErrInvalidRequest = errors.New("invalid request")

// ErrSessionResolved marks a turn against a session already closed by an
// admin; the customer must start a new session.
var ErrSessionResolved = errors.New("session resolved")

// redirectReply is returned for off-topic messages on any turn; the
// message is never persisted and no session is created for it.
const redirectReply = "I'm here to help with customer support questions like account issues, orders, billing, or technical support. How can I assist you with our services today?"

// degradedReply stands in for the model when the provider fails; the turn
// still completes and the transcript stays consistent.
const degradedReply = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment or contact our support team directly."

// seedMessage opens every materialized session's transcript.
const seedMessage = "New customer support session started"

// titleMax bounds session titles derived from the first user message.
const titleMax = 50

// Reply is the outcome of one user turn.
type Reply struct {
	SessionToken string         `json:"session_token"`
	Message      models.Message `json:"message"`
	// Source tags where the reply came from (faq|ai|system).
	Source string `json:"source"`
	// Status is the session status after the turn.
	Status string `json:"status"`
	// SessionCreated is true when this turn materialized the session.
	SessionCreated bool `json:"session_created,omitempty"`
	Escalated      bool `json:"escalated,omitempty"`
	Priority       string `json:"priority,omitempty"`
}

// Orchestrator drives user chat turns. Turns for the same session token
// are serialized; distinct tokens proceed concurrently.
type Orchestrator struct {
	llm llm.Client
	esc *escalation.Service

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an orchestrator over a model client and the escalation
// workflow.
func New(client llm.Client, esc *escalation.Service) *Orchestrator {
	return &Orchestrator{
		llm:   client,
		esc:   esc,
		locks: map[string]*sync.Mutex{},
	}
}

func (o *Orchestrator) lockFor(token string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[token]
	if !ok {
		l = &sync.Mutex{}
		o.locks[token] = l
	}
	return l
}

// HandleUserMessage runs one complete user turn against a session token.
// The session is materialized lazily: tokens are handed out up front, but
// nothing is persisted until the first on-topic message arrives.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, token, userID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if token == "" || message == "" {
		return Reply{}, fmt.Errorf("%w: session token and message are required", ErrInvalidRequest)
	}

	l := o.lockFor(token)
	l.Lock()
	defer l.Unlock()

	metrics.TurnsHandled.Inc()

	// The domain gate runs before anything else on every turn: off-topic
	// messages get the fixed redirect and touch no state.
	if !detector.IsSupportQuery(message) {
		logger.Debug("off_topic_redirect", "token", token)
		return Reply{
			SessionToken: token,
			Message: models.Message{
				Role:    models.RoleAssistant,
				Content: redirectReply,
				Source:  models.SourceSystem,
				TS:      time.Now().UTC().UnixNano(),
			},
			Source: models.SourceSystem,
			Status: models.SessionActive,
		}, nil
	}

	sess, err := store.GetSession(token)
	switch {
	case err == store.ErrNotFound:
		sess, err = o.materialize(token, userID, message)
		if err != nil {
			return Reply{}, err
		}
		return o.completeTurn(ctx, sess, message, true)
	case err != nil:
		return Reply{}, err
	}

	if sess.Status == models.SessionResolved {
		return Reply{}, fmt.Errorf("%w: session %s", ErrSessionResolved, token)
	}
	if sess.UserID == "" && userID != "" {
		// Anonymous session claimed after login.
		sess.UserID = userID
	}
	return o.completeTurn(ctx, sess, message, false)
}

// materialize creates the session record, its title and the seed system
// message for a token's first on-topic turn.
func (o *Orchestrator) materialize(token, userID, first string) (models.Session, error) {
	now := time.Now().UTC().UnixNano()
	title := first
	if r := []rune(title); len(r) > titleMax {
		title = string(r[:titleMax-3]) + "..."
	}
	sess := models.Session{
		Token:     token,
		UserID:    userID,
		Title:     title,
		Status:    models.SessionActive,
		CreatedTS: now,
		UpdatedTS: now,
	}
	if err := store.SaveSession(sess); err != nil {
		return models.Session{}, err
	}
	if err := store.AppendMessage(models.Message{
		ID:      utils.GenMessageID(),
		Session: token,
		Role:    models.RoleSystem,
		Content: seedMessage,
		Source:  models.SourceSystem,
		TS:      now,
	}); err != nil {
		return models.Session{}, err
	}
	metrics.SessionsCreated.Inc()
	logger.Info("session_materialized", "session", token, "user", userID)
	return sess, nil
}

// completeTurn appends the user message, produces a reply (FAQ first,
// model second, degraded fallback last) and runs escalation detection.
func (o *Orchestrator) completeTurn(ctx context.Context, sess models.Session, message string, created bool) (Reply, error) {
	now := time.Now().UTC().UnixNano()
	if err := store.AppendMessage(models.Message{
		ID:      utils.GenMessageID(),
		Session: sess.Token,
		Role:    models.RoleUser,
		Content: message,
		TS:      now,
	}); err != nil {
		return Reply{}, err
	}

	reply, source, err := o.produceReply(ctx, sess.Token, message)
	if err != nil {
		return Reply{}, err
	}

	res := Reply{
		SessionToken:   sess.Token,
		Source:         source,
		SessionCreated: created,
	}

	// FAQ answers never escalate; the detector only runs on model (or
	// degraded) replies. The hand-off marker lands in the transcript
	// before the assistant reply that triggered it.
	if source != models.SourceFAQ && detector.ShouldEscalate(reply, message) {
		priority := detector.PriorityFor(message)
		rec, _, err := o.esc.Escalate(&sess, priority, message)
		if err != nil {
			return Reply{}, err
		}
		o.annotateEscalation(ctx, sess.Token, rec, priority)
		res.Escalated = true
		res.Priority = priority
	}

	out := models.Message{
		ID:      utils.GenMessageID(),
		Session: sess.Token,
		Role:    models.RoleAssistant,
		Content: reply,
		Source:  source,
		TS:      time.Now().UTC().UnixNano(),
	}
	if err := store.AppendMessage(out); err != nil {
		return Reply{}, err
	}
	res.Message = out
	res.Status = sess.Status

	sess.UpdatedTS = time.Now().UTC().UnixNano()
	if err := store.SaveSession(sess); err != nil {
		return Reply{}, err
	}
	return res, nil
}

// produceReply answers from the knowledge base when possible, otherwise
// calls the model. A provider failure degrades to a canned reply instead
// of failing the turn.
func (o *Orchestrator) produceReply(ctx context.Context, token, message string) (string, string, error) {
	faqs, err := store.ListFAQs()
	if err != nil {
		return "", "", err
	}
	if hit, ok := faq.Match(faqs, message); ok {
		metrics.FAQHits.Inc()
		logger.Debug("faq_hit", "session", token, "faq", hit.ID)
		return hit.Answer, models.SourceFAQ, nil
	}

	history, err := store.ListMessages(token, llm.ContextWindow)
	if err != nil {
		return "", "", err
	}
	ctxMsgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		ctxMsgs = append(ctxMsgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := o.llm.Generate(ctx, message, ctxMsgs)
	if err != nil {
		metrics.ProviderFailures.Inc()
		logger.Warn("llm_degraded", "session", token, "error", err)
		// The apology is still an assistant turn from the caller's side.
		return degradedReply, models.SourceAI, nil
	}
	return reply, models.SourceAI, nil
}

// annotateEscalation records the hand-off in both the transcript and the
// escalation record. A summary failure falls back to the record's reason;
// the annotation itself never fails the turn.
func (o *Orchestrator) annotateEscalation(ctx context.Context, token string, rec models.Escalation, priority string) {
	history, err := store.ListMessages(token)
	if err != nil {
		logger.Warn("escalation_annotate_failed", "session", token, "error", err)
		return
	}
	ctxMsgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		ctxMsgs = append(ctxMsgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	upper := strings.ToUpper(priority)
	summary, err := o.llm.Summarize(ctx, ctxMsgs)
	var transcript, note string
	if err != nil {
		metrics.ProviderFailures.Inc()
		logger.Warn("escalation_summary_failed", "session", token, "error", err)
		transcript = fmt.Sprintf("CONVERSATION ESCALATED TO HUMAN AGENT. Priority: %s. Reason: %s", upper, rec.Reason)
		note = "Automatically escalated. Reason: " + rec.Reason
	} else {
		transcript = fmt.Sprintf("CONVERSATION ESCALATED TO HUMAN AGENT. Priority: %s. Summary: %s", upper, summary)
		note = "Automatically escalated. AI Summary: " + summary
	}

	if err := store.AppendMessage(models.Message{
		ID:      utils.GenMessageID(),
		Session: token,
		Role:    models.RoleSystem,
		Content: transcript,
		Source:  models.SourceSystem,
		TS:      time.Now().UTC().UnixNano(),
	}); err != nil {
		logger.Warn("escalation_annotate_failed", "session", token, "error", err)
	}
	if err := o.esc.SystemNote(rec.ID, note); err != nil {
		logger.Warn("escalation_note_failed", "escalation", rec.ID, "error", err)
	}
}
