package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("WENWEN_API_KEY", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("WENWEN_API_TIMEOUT_MS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 600*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "gpt-5", cfg.LLMModel)
	assert.Equal(t, defaultLLMURL, cfg.LLMAPIURL)
	assert.Equal(t, "memory", cfg.JobStore)
	assert.Equal(t, "", cfg.LLMProvider)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoadLegacyLLMEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("WENWEN_API_KEY", "sk-legacy")
	t.Setenv("WENWEN_MODEL", "gpt-5-mini")
	t.Setenv("WENWEN_API_TIMEOUT_MS", "1500")

	cfg := Load()
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "sk-legacy", cfg.LLMAPIKey)
	assert.Equal(t, "gpt-5-mini", cfg.LLMModel)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLMTimeout)
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"prod":        "production",
		"Production":  "production",
		"staging":     "staging",
		"development": "dev",
		"weird":       "dev",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeEnv(in), in)
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
