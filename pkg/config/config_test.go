package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "helpdesk.yaml")
	data := `
server:
  address: 127.0.0.1
  port: 9090
storage:
  db_path: /tmp/helpdesk-test
security:
  cors:
    allowed_origins: ["https://app.example.com"]
  rate_limit:
    rps: 25
    burst: 50
  api_keys:
    frontend: ["fk1"]
    backend: ["bk1"]
    admin: ["ak1"]
logging:
  level: debug
llm:
  model: gpt-4o-mini
reports:
  enabled: true
  cron: "*/15 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
	require.Equal(t, "/tmp/helpdesk-test", cfg.Storage.DBPath)
	require.Equal(t, []string{"https://app.example.com"}, cfg.Security.CORS.AllowedOrigins)
	require.Equal(t, 25.0, cfg.Security.RateLimit.RPS)
	require.Equal(t, []string{"fk1"}, cfg.Security.APIKeys.Frontend)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	require.True(t, cfg.Reports.Enabled)
	require.Equal(t, "*/15 * * * *", cfg.Reports.Cron)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/helpdesk.yaml")
	require.Error(t, err)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	t.Setenv("HELPDESK_SERVER_PORT", "7070")
	t.Setenv("HELPDESK_DB_PATH", "/tmp/env-db")
	t.Setenv("HELPDESK_FRONTEND_KEY", "env-fk")

	cfg := &Config{}
	cfg.Server.Port = 9090
	ApplyEnv(cfg)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "/tmp/env-db", cfg.Storage.DBPath)
	require.Contains(t, cfg.Security.APIKeys.Frontend, "env-fk")
}

func TestLoadLLMEnv(t *testing.T) {
	t.Setenv("HELPDESK_OPENAI_API_KEY", "sk-test")
	e, err := LoadLLMEnv()
	require.NoError(t, err)
	require.Equal(t, "sk-test", e.APIKey)
}
