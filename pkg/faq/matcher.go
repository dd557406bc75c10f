// Package faq matches incoming questions against the knowledge base before
// any model call. Matching is deterministic and cheap: a direct substring
// pass first, then a keyword pass over significant query tokens.
package faq

import (
	"strings"

	"helpdesk/pkg/models"
)

// maxKeywords caps how many query tokens the keyword pass considers.
const maxKeywords = 5

// Match returns the first knowledge-base entry relevant to query. The
// direct pass wins over the keyword pass, and within a pass earlier
// entries win, so results are stable for a given entry order.
func Match(faqs []models.FAQ, query string) (models.FAQ, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return models.FAQ{}, false
	}

	// Direct pass: the whole query appears in the question or answer, or
	// equals a tag.
	for _, f := range faqs {
		if strings.Contains(strings.ToLower(f.Question), q) ||
			strings.Contains(strings.ToLower(f.Answer), q) {
			return f, true
		}
		for _, t := range f.Tags {
			if strings.ToLower(t) == q {
				return f, true
			}
		}
	}

	// Keyword pass: any significant token appears in the question or
	// answer, or equals a tag.
	kws := keywords(q)
	if len(kws) == 0 {
		return models.FAQ{}, false
	}
	for _, f := range faqs {
		question := strings.ToLower(f.Question)
		answer := strings.ToLower(f.Answer)
		for _, kw := range kws {
			if strings.Contains(question, kw) || strings.Contains(answer, kw) {
				return f, true
			}
			for _, t := range f.Tags {
				if strings.ToLower(t) == kw {
					return f, true
				}
			}
		}
	}
	return models.FAQ{}, false
}

// keywords extracts up to maxKeywords tokens longer than three characters.
// Short words (the, can, how) carry no signal for matching.
func keywords(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var out []string
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, f)
			if len(out) == maxKeywords {
				break
			}
		}
	}
	return out
}
