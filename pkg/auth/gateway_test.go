package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testCfg() SecConfig {
	return SecConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		RPS:            100,
		Burst:          100,
		BackendKeys:    map[string]struct{}{"bk": {}},
		FrontendKeys:   map[string]struct{}{"fk": {}},
		AdminKeys:      map[string]struct{}{"ak": {}},
	}
}

func gatewayServer(cfg SecConfig) *httptest.Server {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Role", r.Header.Get("X-Role-Name"))
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(AuthenticateRequestMiddleware(cfg)(inner))
}

func TestNoKeyRejected(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/v1/faqs")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", res.Status)
	}
}

func TestHealthzBypassesAuth(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unauthenticated healthz, got %v", res.Status)
	}
}

func TestKeyRoleResolution(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	cases := []struct {
		key  string
		path string
		want string
	}{
		{"bk", "/v1/users", "backend"},
		{"ak", "/v1/admin/escalations", "admin"},
		{"fk", "/v1/chat", "frontend"},
	}
	for _, c := range cases {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+c.path, nil)
		req.Header.Set("X-API-Key", c.key)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s on %s: expected 200, got %v", c.key, c.path, res.Status)
		}
		if got := res.Header.Get("X-Seen-Role"); got != c.want {
			t.Fatalf("expected role %q, got %q", c.want, got)
		}
	}
}

func TestBearerHeaderAccepted(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/sessions/abc", nil)
	req.Header.Set("Authorization", "Bearer fk")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", res.Status)
	}
}

func TestFrontendScopedOutOfAdmin(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/admin/escalations", nil)
	req.Header.Set("X-API-Key", "fk")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("frontend key on admin path should be 403, got %v", res.Status)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	srv := gatewayServer(testCfg())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/faqs", nil)
	req.Header.Set("X-API-Key", "nope")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown key, got %v", res.Status)
	}
}

func TestRateLimitKicksIn(t *testing.T) {
	cfg := testCfg()
	cfg.RPS = 1
	cfg.Burst = 1
	srv := gatewayServer(cfg)
	defer srv.Close()

	limited := false
	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/faqs", nil)
		req.Header.Set("X-API-Key", "fk")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if res.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected rate limiting after burst exhausted")
	}
}
