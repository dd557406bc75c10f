package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var idSeq uint64

// GenSessionToken mints an opaque session token. Tokens are issued before
// any persistence occurs, so they must be unguessable rather than sortable.
func GenSessionToken() string {
	return uuid.NewString()
}

// GenEscalationID returns a unique escalation record id.
func GenEscalationID() string {
	return "esc-" + uuid.NewString()
}

// GenUserID returns a unique user id.
func GenUserID() string {
	return "usr-" + uuid.NewString()
}

// GenFAQID returns a unique knowledge-base entry id.
func GenFAQID() string {
	return "faq-" + uuid.NewString()
}

// GenMessageID returns a sortable-ish message id; uniqueness within a
// process is guaranteed by the sequence counter.
func GenMessageID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("msg-%d-%d", n, s)
}

// Ellipsize returns s unchanged when it fits in cut runes, otherwise the
// first cut runes suffixed with "...".
func Ellipsize(s string, cut int) string {
	r := []rune(s)
	if len(r) <= cut {
		return s
	}
	return string(r[:cut]) + "..."
}
