package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"llm": {"provider": "openai", "model": "gpt-4o", "api_key": "sk-test"},
		"database_path": "/tmp/x.db",
		"server_addr": ":9999",
		"autosave_debounce_ms": 500,
		"integrations": [{"platform": "ghost", "base_url": "https://cms.example", "credential": "tok"}]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
	assert.Equal(t, 500, cfg.AutosaveDebounceMS)
	require.Len(t, cfg.Integrations, 1)
	assert.Equal(t, "ghost", cfg.Integrations[0].Platform)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "drafts.db", cfg.DatabasePath)
	assert.Equal(t, 1500, cfg.AutosaveDebounceMS)
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg, err := Load(writeConfig(t, `{"llm": {"provider": "openai", "model": "gpt-4o"}}`))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, `{"llm": `))
	assert.Error(t, err)
}
