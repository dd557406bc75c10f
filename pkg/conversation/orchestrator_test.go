package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"helpdesk/pkg/escalation"
	"helpdesk/pkg/llm"
	"helpdesk/pkg/models"
	"helpdesk/pkg/store"
	"helpdesk/pkg/utils"
)

// fakeLLM scripts provider behavior per test.
type fakeLLM struct {
	mu        sync.Mutex
	reply     string
	replyErr  error
	summary   string
	sumErr    error
	generated int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, history []llm.Message) (string, error) {
	f.mu.Lock()
	f.generated++
	f.mu.Unlock()
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.reply, nil
}

func (f *fakeLLM) Summarize(ctx context.Context, history []llm.Message) (string, error) {
	if f.sumErr != nil {
		return "", f.sumErr
	}
	return f.summary, nil
}

func setup(t *testing.T, f *fakeLLM) *Orchestrator {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(f, escalation.NewService())
}

func TestEmptyMessageRejected(t *testing.T) {
	o := setup(t, &fakeLLM{reply: "hi"})
	if _, err := o.HandleUserMessage(context.Background(), "tok", "", "   "); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := o.HandleUserMessage(context.Background(), "", "", "help"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing token should be invalid, got %v", err)
	}
}

func TestOffTopicRedirectLeavesNoSession(t *testing.T) {
	f := &fakeLLM{reply: "should not be called"}
	o := setup(t, f)
	token := utils.GenSessionToken()

	reply, err := o.HandleUserMessage(context.Background(), token, "", "write me a haiku about autumn")
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	if reply.Message.Content != redirectReply {
		t.Fatalf("expected redirect reply, got %q", reply.Message.Content)
	}
	if reply.Status != models.SessionActive {
		t.Fatalf("redirect should report an active status, got %q", reply.Status)
	}
	if f.generated != 0 {
		t.Fatalf("model must not be called for off-topic redirect")
	}
	if _, err := store.GetSession(token); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no session should be materialized, got %v", err)
	}
}

func TestOffTopicRedirectOnExistingSession(t *testing.T) {
	f := &fakeLLM{reply: "Sure, checking your order."}
	o := setup(t, f)
	token := utils.GenSessionToken()

	if _, err := o.HandleUserMessage(context.Background(), token, "", "where is my order"); err != nil {
		t.Fatalf("first turn: %v", err)
	}

	reply, err := o.HandleUserMessage(context.Background(), token, "", "write me a poem about the sea")
	if err != nil {
		t.Fatalf("off-topic turn: %v", err)
	}
	if reply.Message.Content != redirectReply {
		t.Fatalf("existing sessions get the redirect too, got %q", reply.Message.Content)
	}
	if f.generated != 1 {
		t.Fatalf("model must not run for the off-topic turn, got %d calls", f.generated)
	}
	msgs, _ := store.ListMessages(token)
	if len(msgs) != 3 {
		t.Fatalf("off-topic message must not touch the transcript, got %d entries", len(msgs))
	}
}

func TestFirstTurnMaterializesSession(t *testing.T) {
	f := &fakeLLM{reply: "You can reset it from the login page."}
	o := setup(t, f)
	token := utils.GenSessionToken()

	reply, err := o.HandleUserMessage(context.Background(), token, "usr-1", "I need help with my password")
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	if !reply.SessionCreated {
		t.Fatalf("first on-topic turn should create the session")
	}
	if reply.Source != models.SourceAI {
		t.Fatalf("expected ai reply, got %s", reply.Source)
	}

	sess, err := store.GetSession(token)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Title != "I need help with my password" || sess.UserID != "usr-1" {
		t.Fatalf("session fields wrong: %+v", sess)
	}
	if sess.Status != models.SessionActive {
		t.Fatalf("expected active session, got %s", sess.Status)
	}

	msgs, err := store.ListMessages(token)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	// seed system message, user message, assistant reply
	if len(msgs) != 3 {
		t.Fatalf("expected 3 transcript entries, got %d", len(msgs))
	}
	if msgs[0].Content != seedMessage || msgs[0].Role != models.RoleSystem {
		t.Fatalf("seed message missing: %+v", msgs[0])
	}
	if msgs[1].Role != models.RoleUser || msgs[2].Role != models.RoleAssistant {
		t.Fatalf("transcript order wrong: %+v", msgs)
	}
}

func TestLongFirstMessageTruncatedToTitle(t *testing.T) {
	o := setup(t, &fakeLLM{reply: "ok"})
	token := utils.GenSessionToken()

	long := "I need help with my account because " + strings.Repeat("a", 40)
	if _, err := o.HandleUserMessage(context.Background(), token, "", long); err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	sess, err := store.GetSession(token)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(sess.Title) != 50 || !strings.HasSuffix(sess.Title, "...") {
		t.Fatalf("title not truncated: %q (len %d)", sess.Title, len(sess.Title))
	}
	if sess.Title[:47] != long[:47] {
		t.Fatalf("title prefix mismatch: %q", sess.Title)
	}
}

func TestTitleTruncationRespectsRuneBoundaries(t *testing.T) {
	o := setup(t, &fakeLLM{reply: "ok"})
	token := utils.GenSessionToken()

	long := "help with my account für " + strings.Repeat("ü", 40)
	if _, err := o.HandleUserMessage(context.Background(), token, "", long); err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	sess, err := store.GetSession(token)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !utf8.ValidString(sess.Title) {
		t.Fatalf("title contains a split rune: %q", sess.Title)
	}
	if r := []rune(sess.Title); len(r) != 50 || string(r[47:]) != "..." {
		t.Fatalf("title not truncated on rune boundary: %q", sess.Title)
	}
}

func TestFAQShortCircuitsModel(t *testing.T) {
	f := &fakeLLM{reply: "model answer"}
	o := setup(t, f)
	if err := store.SaveFAQ(models.FAQ{
		ID:       "faq-pw",
		Question: "How do I reset my password?",
		Answer:   "Use the forgot password link.",
		Tags:     []string{"password"},
	}); err != nil {
		t.Fatalf("SaveFAQ: %v", err)
	}
	token := utils.GenSessionToken()

	reply, err := o.HandleUserMessage(context.Background(), token, "", "how do I reset my password")
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	if reply.Source != models.SourceFAQ {
		t.Fatalf("expected faq source, got %s", reply.Source)
	}
	if reply.Message.Content != "Use the forgot password link." {
		t.Fatalf("expected FAQ answer, got %q", reply.Message.Content)
	}
	if f.generated != 0 {
		t.Fatalf("model must not run when the knowledge base answers")
	}
	if reply.Escalated {
		t.Fatalf("faq replies never escalate")
	}
}

func TestProviderFailureDegrades(t *testing.T) {
	f := &fakeLLM{replyErr: errors.New("upstream 500")}
	o := setup(t, f)
	token := utils.GenSessionToken()

	reply, err := o.HandleUserMessage(context.Background(), token, "", "my order is missing")
	if err != nil {
		t.Fatalf("provider failure must not fail the turn: %v", err)
	}
	if reply.Message.Content != degradedReply {
		t.Fatalf("expected degraded reply, got %q", reply.Message.Content)
	}
	if reply.Source != models.SourceAI {
		t.Fatalf("degraded replies stay assistant turns, got %s", reply.Source)
	}

	// the degraded reply still lands in the transcript as an ai message
	msgs, _ := store.ListMessages(token)
	if len(msgs) != 3 || msgs[2].Content != degradedReply {
		t.Fatalf("degraded reply not recorded: %+v", msgs)
	}
	if msgs[2].Source != models.SourceAI {
		t.Fatalf("stored degraded reply should be ai-sourced, got %s", msgs[2].Source)
	}
}

func TestManagerRightNowEscalatesHigh(t *testing.T) {
	f := &fakeLLM{reply: "Let me connect you.", summary: "Customer demands a manager."}
	o := setup(t, f)
	token := utils.GenSessionToken()

	reply, err := o.HandleUserMessage(context.Background(), token, "usr-2", "I need to speak to a manager right now about my account")
	if err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}
	if !reply.Escalated || reply.Priority != models.PriorityHigh {
		t.Fatalf("expected high-priority escalation, got %+v", reply)
	}
	if reply.Status != models.SessionEscalated {
		t.Fatalf("reply should carry the escalated status, got %q", reply.Status)
	}

	sess, _ := store.GetSession(token)
	if sess.Status != models.SessionEscalated {
		t.Fatalf("session should be escalated, got %s", sess.Status)
	}
	rec, err := store.FindEscalationBySession(token)
	if err != nil {
		t.Fatalf("FindEscalationBySession: %v", err)
	}
	if rec.Priority != models.PriorityHigh || rec.Status != models.EscalationPending {
		t.Fatalf("record wrong: %+v", rec)
	}

	// the hand-off marker precedes the assistant reply in the transcript,
	// and the summary went into both the marker and the record notes
	msgs, _ := store.ListMessages(token)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 transcript entries, got %d", len(msgs))
	}
	marker := msgs[2]
	if marker.Role != models.RoleSystem || !strings.Contains(marker.Content, "Customer demands a manager.") {
		t.Fatalf("escalation marker missing from transcript: %+v", marker)
	}
	if msgs[3].Role != models.RoleAssistant || msgs[3].Content != "Let me connect you." {
		t.Fatalf("assistant reply should follow the marker: %+v", msgs[3])
	}
	notes, _ := store.ListNotes(rec.ID)
	if len(notes) != 1 || !strings.Contains(notes[0].Text, "AI Summary") {
		t.Fatalf("summary note missing: %+v", notes)
	}
}

func TestReEscalationKeepsSingleRecord(t *testing.T) {
	f := &fakeLLM{reply: "Let me get a human.", summary: "summary"}
	o := setup(t, f)
	token := utils.GenSessionToken()

	if _, err := o.HandleUserMessage(context.Background(), token, "", "I need a human for my order"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := o.HandleUserMessage(context.Background(), token, "", "still broken, get me an agent"); err != nil {
		t.Fatalf("second turn: %v", err)
	}

	all, err := store.ListEscalations()
	if err != nil {
		t.Fatalf("ListEscalations: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single escalation record, got %d", len(all))
	}
	if !strings.HasPrefix(all[0].Reason, "Re-escalated: ") {
		t.Fatalf("re-escalation reason missing: %q", all[0].Reason)
	}
}

func TestSummaryFailureFallsBackToReason(t *testing.T) {
	f := &fakeLLM{reply: "Let me get a human.", sumErr: errors.New("summary down")}
	o := setup(t, f)
	token := utils.GenSessionToken()

	if _, err := o.HandleUserMessage(context.Background(), token, "", "I need a human for my order"); err != nil {
		t.Fatalf("HandleUserMessage: %v", err)
	}

	rec, err := store.FindEscalationBySession(token)
	if err != nil {
		t.Fatalf("FindEscalationBySession: %v", err)
	}
	msgs, _ := store.ListMessages(token)
	marker := msgs[len(msgs)-2]
	if !strings.Contains(marker.Content, "Reason: "+rec.Reason) {
		t.Fatalf("fallback marker missing: %q", marker.Content)
	}
	notes, _ := store.ListNotes(rec.ID)
	if len(notes) != 1 || !strings.Contains(notes[0].Text, "Reason: ") {
		t.Fatalf("fallback note missing: %+v", notes)
	}
}

func TestResolvedSessionRejectsTurns(t *testing.T) {
	o := setup(t, &fakeLLM{reply: "ok"})
	token := utils.GenSessionToken()

	if _, err := o.HandleUserMessage(context.Background(), token, "", "help with billing"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	sess, _ := store.GetSession(token)
	sess.Status = models.SessionResolved
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	if _, err := o.HandleUserMessage(context.Background(), token, "", "are you there"); !errors.Is(err, ErrSessionResolved) {
		t.Fatalf("expected ErrSessionResolved, got %v", err)
	}
}

func TestConcurrentTurnsOnDistinctTokens(t *testing.T) {
	o := setup(t, &fakeLLM{reply: "ok"})

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = utils.GenSessionToken()
	}
	for _, token := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			if _, err := o.HandleUserMessage(context.Background(), tok, "", "help with my account"); err != nil {
				errs <- err
			}
		}(token)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent turn failed: %v", err)
	}

	for _, token := range tokens {
		msgs, err := store.ListMessages(token)
		if err != nil {
			t.Fatalf("ListMessages: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("token %s: expected 3 messages, got %d", token, len(msgs))
		}
	}
}
