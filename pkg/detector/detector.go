// Package detector decides when a conversation needs a human and how
// urgent the hand-off is. Detection is keyword driven over the user's
// message and the assistant's reply; there is no model call.
package detector

import "strings"

// escalationKeywords trigger a hand-off when they appear in either the
// user's message or the assistant's reply.
var escalationKeywords = []string{
	"escalat", "human", "agent", "manager", "supervisor",
	"complaint", "urgent", "emergency", "not working", "broken",
	"speak to", "real person", "live agent", "can't help",
	"frustrated", "angry", "disappointed", "terrible", "awful",
	"cancel my account", "delete my account", "want to cancel",
	"legal action", "sue", "lawyer", "manager now",
}

// negativeWords measure sentiment; two or more distinct hits in one
// message count as high negative sentiment.
var negativeWords = []string{
	"frustrated", "angry", "disappointed", "terrible", "awful", "horrible", "worst",
}

// urgencyPhrases mark a message as time critical.
var urgencyPhrases = []string{"urgent", "emergency", "immediately", "right now"}

// supportKeywords define the service's domain. A message matching none of
// them is off topic and gets redirected without a session.
var supportKeywords = []string{
	"account", "login", "password", "sign up", "register", "profile", "settings",
	"order", "track", "shipping", "delivery", "return", "refund", "cancel",
	"payment", "billing", "invoice", "charge", "price", "cost", "fee",
	"error", "problem", "issue", "not working", "broken", "fix", "help",
	"support", "contact", "service", "policy", "terms", "faq",
	"product", "item", "feature", "how to", "tutorial", "guide",
}

// ShouldEscalate reports whether the exchange needs a human: an
// escalation keyword on either side, high negative sentiment, or an
// urgency phrase in the user's message.
func ShouldEscalate(reply, message string) bool {
	lr := strings.ToLower(reply)
	lm := strings.ToLower(message)

	for _, kw := range escalationKeywords {
		if strings.Contains(lr, kw) || strings.Contains(lm, kw) {
			return true
		}
	}

	negative := 0
	for _, w := range negativeWords {
		if strings.Contains(lm, w) {
			negative++
		}
	}
	if negative >= 2 {
		return true
	}

	return hasUrgency(lm)
}

// PriorityFor maps a user message to an escalation priority: high when it
// carries an urgency phrase or cancellation language, medium otherwise.
// Low and urgent are reserved for manual triage.
func PriorityFor(message string) string {
	lm := strings.ToLower(message)
	if hasUrgency(lm) {
		return "high"
	}
	if strings.Contains(lm, "cancel") || strings.Contains(lm, "delete account") {
		return "high"
	}
	return "medium"
}

// IsSupportQuery reports whether the message is within the support
// domain.
func IsSupportQuery(message string) bool {
	lm := strings.ToLower(message)
	for _, kw := range supportKeywords {
		if strings.Contains(lm, kw) {
			return true
		}
	}
	return false
}

func hasUrgency(lowered string) bool {
	for _, p := range urgencyPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
