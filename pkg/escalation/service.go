// Package escalation owns the human hand-off workflow: opening and
// re-opening escalation records, assignment, resolution and admin
// messaging. All cross-entity status mirroring between sessions and
// escalation records happens here, so the two never drift.
package escalation

import (
	"fmt"
	"time"

	"helpdesk/pkg/logger"
	"helpdesk/pkg/metrics"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// excerptLen bounds how much of a user message is quoted in reasons and
// notes.
const excerptLen = 100

// defaultResolutionNote is appended when the resolving admin supplies no
// note of their own.
const defaultResolutionNote = "Issue resolved by admin."

// Service coordinates escalation records with their sessions.
type Service struct{}

// NewService returns an escalation workflow service.
func NewService() *Service { return &Service{} }

// Escalate opens the escalation record for a session, or re-opens the
// existing one: at most one record exists per session token. The session
// is flipped to escalated and saved. Returns the record and whether it
// was newly created.
func (s *Service) Escalate(sess *models.Session, priority, message string) (models.Escalation, bool, error) {
	now := time.Now().UTC().UnixNano()
	excerpt := utils.Ellipsize(message, excerptLen)

	rec, err := store.FindEscalationBySession(sess.Token)
	created := false
	switch {
	case err == nil:
		rec.Status = models.EscalationPending
		rec.Priority = priority
		rec.Reason = "Re-escalated: " + excerpt
		rec.UpdatedTS = now
	case err == store.ErrNotFound:
		created = true
		rec = models.Escalation{
			ID:           utils.GenEscalationID(),
			SessionToken: sess.Token,
			CustomerID:   sess.UserID,
			Reason:       "AI detected need for human intervention - " + excerpt,
			Priority:     priority,
			Status:       models.EscalationPending,
			CreatedTS:    now,
			UpdatedTS:    now,
		}
	default:
		return models.Escalation{}, false, err
	}

	if err := store.SaveEscalation(rec); err != nil {
		return models.Escalation{}, false, err
	}

	sess.Status = models.SessionEscalated
	sess.UpdatedTS = now
	if err := store.SaveSession(*sess); err != nil {
		return models.Escalation{}, false, err
	}

	metrics.EscalationsOpened.Inc()
	logger.Info("session_escalated", "session", sess.Token, "escalation", rec.ID,
		"priority", priority, "created", created)
	return rec, created, nil
}

// SystemNote appends a note with no author, used for automated summaries.
func (s *Service) SystemNote(escalationID, text string) error {
	return store.AppendNote(models.Note{
		Escalation: escalationID,
		Text:       text,
		TS:         time.Now().UTC().UnixNano(),
	})
}

// Assign hands an escalation to a handler. The assignee must exist and
// hold a handler role; the session is mirrored back to escalated in case
// it was resolved out of band.
func (s *Service) Assign(escalationID, assigneeID string, actor models.User) (models.Escalation, error) {
	rec, err := store.GetEscalation(escalationID)
	if err != nil {
		return models.Escalation{}, err
	}
	assignee, err := store.GetUser(assigneeID)
	if err != nil {
		return models.Escalation{}, err
	}
	if !assignee.Handler() {
		return models.Escalation{}, fmt.Errorf("user %s cannot take assignments: %w", assigneeID, store.ErrNotFound)
	}

	now := time.Now().UTC().UnixNano()
	rec.AssignedTo = assignee.ID
	rec.Status = models.EscalationInProgress
	rec.UpdatedTS = now
	if err := store.SaveEscalation(rec); err != nil {
		return models.Escalation{}, err
	}
	if err := store.AppendNote(models.Note{
		Escalation: rec.ID,
		AuthorID:   actor.ID,
		Text:       fmt.Sprintf("Assigned to %s by %s", assignee.Name, actor.Name),
		TS:         now,
	}); err != nil {
		return models.Escalation{}, err
	}

	if sess, err := store.GetSession(rec.SessionToken); err == nil {
		sess.Status = models.SessionEscalated
		sess.UpdatedTS = now
		if err := store.SaveSession(sess); err != nil {
			return models.Escalation{}, err
		}
	}

	logger.Info("escalation_assigned", "escalation", rec.ID, "assignee", assignee.ID, "actor", actor.ID)
	return rec, nil
}

// Resolve closes an escalation and mirrors the session to resolved.
// Resolving an already-resolved record is a no-op for status and
// ResolvedTS, but the resolution note is still appended.
func (s *Service) Resolve(escalationID string, actor models.User, note string) (models.Escalation, error) {
	rec, err := store.GetEscalation(escalationID)
	if err != nil {
		return models.Escalation{}, err
	}

	now := time.Now().UTC().UnixNano()
	if rec.Status != models.EscalationResolved {
		rec.Status = models.EscalationResolved
		rec.ResolvedTS = now
		rec.UpdatedTS = now
		if err := store.SaveEscalation(rec); err != nil {
			return models.Escalation{}, err
		}
		metrics.EscalationsResolved.Inc()
	}

	if note == "" {
		note = defaultResolutionNote
	}
	if err := store.AppendNote(models.Note{
		Escalation: rec.ID,
		AuthorID:   actor.ID,
		Text:       note,
		TS:         now,
	}); err != nil {
		return models.Escalation{}, err
	}

	if sess, err := store.GetSession(rec.SessionToken); err == nil {
		if sess.Status != models.SessionResolved {
			sess.Status = models.SessionResolved
			sess.UpdatedTS = now
			if err := store.SaveSession(sess); err != nil {
				return models.Escalation{}, err
			}
		}
	}

	logger.Info("escalation_resolved", "escalation", rec.ID, "actor", actor.ID)
	return rec, nil
}

// AddNote appends a free-form handler note to an escalation.
func (s *Service) AddNote(escalationID string, actor models.User, text string) error {
	if _, err := store.GetEscalation(escalationID); err != nil {
		return err
	}
	return store.AppendNote(models.Note{
		Escalation: escalationID,
		AuthorID:   actor.ID,
		Text:       text,
		TS:         time.Now().UTC().UnixNano(),
	})
}

// AdminMessage injects a handler's message into a session transcript as an
// assistant turn, prefixed with the handler's name so the customer sees
// who is speaking. The linked escalation, if any, moves to in_progress
// with an audit note.
func (s *Service) AdminMessage(sessionToken string, actor models.User, text string) (models.Message, error) {
	sess, err := store.GetSession(sessionToken)
	if err != nil {
		return models.Message{}, err
	}

	now := time.Now().UTC().UnixNano()
	msg := models.Message{
		ID:      utils.GenMessageID(),
		Session: sess.Token,
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf("[Admin %s]: %s", actor.Name, text),
		Source:  models.SourceAdmin,
		TS:      now,
	}
	if err := store.AppendMessage(msg); err != nil {
		return models.Message{}, err
	}
	sess.UpdatedTS = now
	if err := store.SaveSession(sess); err != nil {
		return models.Message{}, err
	}

	if rec, err := store.FindEscalationBySession(sess.Token); err == nil {
		rec.Status = models.EscalationInProgress
		rec.UpdatedTS = now
		if err := store.SaveEscalation(rec); err != nil {
			return models.Message{}, err
		}
		if err := store.AppendNote(models.Note{
			Escalation: rec.ID,
			AuthorID:   actor.ID,
			Text:       "Admin message sent: " + utils.Ellipsize(text, excerptLen),
			TS:         now,
		}); err != nil {
			return models.Message{}, err
		}
	}

	logger.Info("admin_message_sent", "session", sess.Token, "actor", actor.ID)
	return msg, nil
}
