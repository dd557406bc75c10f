package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Security struct {
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		IPWhitelist []string `yaml:"ip_whitelist"`
		APIKeys     struct {
			Backend  []string `yaml:"backend"`
			Frontend []string `yaml:"frontend"`
			Admin    []string `yaml:"admin"`
		} `yaml:"api_keys"`
	} `yaml:"security"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	LLM struct {
		// BaseURL lets deployments point the client at any
		// OpenAI-compatible endpoint (OpenRouter, a local gateway, ...).
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		// SummaryModel defaults to Model when empty.
		SummaryModel string `yaml:"summary_model"`
	} `yaml:"llm"`
	Reports struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"reports"`
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(addr, strconv.Itoa(port))
}

// Load reads and parses the YAML config at path. A missing path yields a
// zero Config so env/flags alone can run the server.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overlays HELPDESK_* environment variables onto cfg. Env wins
// over the config file; explicit flags win over both (handled by callers).
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("HELPDESK_SERVER_ADDRESS")); v != "" {
		cfg.Server.Address = v
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_SERVER_PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_DB_PATH")); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_LLM_BASE_URL")); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_LLM_MODEL")); v != "" {
		cfg.LLM.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_BACKEND_KEY")); v != "" {
		cfg.Security.APIKeys.Backend = append(cfg.Security.APIKeys.Backend, v)
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_FRONTEND_KEY")); v != "" {
		cfg.Security.APIKeys.Frontend = append(cfg.Security.APIKeys.Frontend, v)
	}
	if v := strings.TrimSpace(os.Getenv("HELPDESK_ADMIN_KEY")); v != "" {
		cfg.Security.APIKeys.Admin = append(cfg.Security.APIKeys.Admin, v)
	}
}
