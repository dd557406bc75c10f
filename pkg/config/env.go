package config

import (
	env "github.com/caarlos0/env/v6"
)

// LLMEnv holds completion-provider credentials. These are deliberately kept
// out of the YAML file so config files can be committed without secrets.
type LLMEnv struct {
	APIKey string `env:"HELPDESK_OPENAI_API_KEY"`
}

// LoadLLMEnv parses provider credentials from the environment.
func LoadLLMEnv() (LLMEnv, error) {
	var e LLMEnv
	if err := env.Parse(&e); err != nil {
		return LLMEnv{}, err
	}
	return e, nil
}
