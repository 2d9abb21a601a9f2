package llm

import "testing"

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"anthropic without key", func(c *Config) {}, true},
		{"anthropic with key", func(c *Config) { c.Anthropic.APIKey = "k" }, false},
		{"gemini without key", func(c *Config) { c.Provider = "gemini" }, true},
		{"mock", func(c *Config) { c.Provider = "mock" }, false},
		{"none", func(c *Config) { c.Provider = ProviderNone }, false},
		{"unknown", func(c *Config) { c.Provider = "x" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig_Priority(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")

	cfg, ok := DiscoverConfig(DefaultConfig())
	if !ok {
		t.Fatal("expected a provider to be discovered")
	}
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "o" {
		t.Errorf("discovered %q with key %q, want openai/o", cfg.Provider, cfg.OpenAI.APIKey)
	}
}

func TestResolve(t *testing.T) {
	clearProviderEnv(t)

	got := Resolve(DefaultConfig())
	if got.Provider != ProviderNone {
		t.Errorf("Resolve without keys = %q, want %q", got.Provider, ProviderNone)
	}

	t.Setenv("GEMINI_API_KEY", "g")
	got = Resolve(DefaultConfig())
	if got.Provider != "gemini" {
		t.Errorf("Resolve with GEMINI_API_KEY = %q, want gemini", got.Provider)
	}

	explicit := DefaultConfig()
	explicit.Anthropic.APIKey = "k"
	if got := Resolve(explicit); got.Provider != "anthropic" {
		t.Errorf("Resolve kept %q, want anthropic", got.Provider)
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("claude-haiku")
	if c == nil {
		t.Fatal("expected pricing for the claude-haiku alias")
	}
	if got := c.Cost(1_000_000, 1_000_000); got != 6 {
		t.Errorf("Cost = %v, want 6", got)
	}
	if LookupCost("no-such-model") != nil {
		t.Error("expected nil for unknown model")
	}
}
