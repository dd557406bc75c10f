package auth

import "testing"

func TestLimiterDefaultsApply(t *testing.T) {
	p := newLimiterPool(SecConfig{})
	for i := 0; i < defaultBurst; i++ {
		if !p.Allow("key") {
			t.Fatalf("request %d should pass within the default burst", i+1)
		}
	}
	if p.Allow("key") {
		t.Fatalf("request beyond the default burst should be limited")
	}
	if !p.Allow("other") {
		t.Fatalf("distinct keys get their own bucket")
	}
}
