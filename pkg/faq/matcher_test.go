package faq

import (
	"testing"

	"helpdesk/pkg/models"
)

var kb = []models.FAQ{
	{ID: "faq-1", Question: "How do I reset my password?", Answer: "Use the forgot password link on the login page.", Category: "account", Tags: []string{"password", "login"}},
	{ID: "faq-2", Question: "How do I track my order?", Answer: "Open your orders page and click the tracking number.", Category: "orders", Tags: []string{"shipping", "tracking"}},
	{ID: "faq-3", Question: "What is your refund policy?", Answer: "Refunds are issued within 14 days of return.", Category: "billing", Tags: []string{"refund", "returns"}},
}

func TestMatch_DirectSubstring(t *testing.T) {
	f, ok := Match(kb, "reset my password")
	if !ok || f.ID != "faq-1" {
		t.Fatalf("expected faq-1, got %+v ok=%v", f, ok)
	}
}

func TestMatch_TagExact(t *testing.T) {
	f, ok := Match(kb, "shipping")
	if !ok || f.ID != "faq-2" {
		t.Fatalf("expected faq-2 via tag, got %+v ok=%v", f, ok)
	}
}

func TestMatch_KeywordFallback(t *testing.T) {
	// no direct substring hit, but "refund" is a significant token
	f, ok := Match(kb, "can I get a refund for this thing")
	if !ok || f.ID != "faq-3" {
		t.Fatalf("expected faq-3 via keyword, got %+v ok=%v", f, ok)
	}
}

func TestMatch_KeywordInAnswer(t *testing.T) {
	// "return" appears only in faq-3's answer text
	f, ok := Match(kb, "when will it return back")
	if !ok || f.ID != "faq-3" {
		t.Fatalf("expected faq-3 via answer keyword, got %+v ok=%v", f, ok)
	}
}

func TestMatch_TagNeedsExactToken(t *testing.T) {
	// "ship" is a substring of the "shipping" tag but not equal to it
	if f, ok := Match(kb, "ship it faster please"); ok {
		t.Fatalf("partial tag tokens must not match, got %+v", f)
	}
}

func TestMatch_NoHit(t *testing.T) {
	if f, ok := Match(kb, "tell me about quantum physics"); ok {
		t.Fatalf("expected no match, got %+v", f)
	}
}

func TestMatch_EmptyQuery(t *testing.T) {
	if _, ok := Match(kb, "   "); ok {
		t.Fatalf("blank query must not match")
	}
}

func TestMatch_DirectBeatsKeyword(t *testing.T) {
	// "track my order" is a direct substring of faq-2's question even though
	// "order" alone could keyword-match elsewhere
	f, ok := Match(kb, "track my order")
	if !ok || f.ID != "faq-2" {
		t.Fatalf("expected direct match faq-2, got %+v ok=%v", f, ok)
	}
}

func TestKeywords_ShortTokensDropped(t *testing.T) {
	got := keywords("how do i fix the app now")
	if len(got) != 0 {
		t.Fatalf("expected no significant tokens, got %v", got)
	}
}
