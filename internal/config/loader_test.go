package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	os.Setenv("TEST_GEMINI_KEY", "secret-key-123")
	defer os.Unsetenv("TEST_GEMINI_KEY")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand ${VAR} syntax", "${TEST_GEMINI_KEY}", "secret-key-123"},
		{"expand $VAR syntax", "$TEST_GEMINI_KEY", "secret-key-123"},
		{"expand in middle of string", "key:${TEST_GEMINI_KEY}:end", "key:secret-key-123:end"},
		{"leave non-existent var unchanged", "${NONEXISTENT_VAR}", "${NONEXISTENT_VAR}"},
		{"handle empty string", "", ""},
		{"handle string without variables", "plain-text", "plain-text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, "knowledge_base", cfg.VectorStore.Collection)
	assert.True(t, cfg.Registry.Enabled)
	assert.Equal(t, 10240, cfg.Security.MaxRequestBytes)
	assert.Equal(t, 51200, cfg.Security.MaxContextBytes)
	assert.Equal(t, "[REDACTED]", cfg.Security.RedactionReplacement)
	assert.Equal(t, 0.5, cfg.Retrieval.MinRelevanceScore)
	assert.Equal(t, 1000, cfg.Ingestion.ChunkSize)
	assert.Equal(t, 0.7, cfg.Quality.PassScore)
	assert.True(t, cfg.Observability.Logging.RedactAPIKeys)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
  apiKeys:
    - key-one
    - ${TEST_SERVER_KEY}
llm:
  provider: static
vectorStore:
  url: http://search.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pf.yaml"), []byte(content), 0o644))

	os.Setenv("TEST_SERVER_KEY", "key-two")
	defer os.Unsetenv("TEST_SERVER_KEY")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "static", cfg.LLM.Provider)
	assert.Equal(t, "http://search.example.com", cfg.VectorStore.URL)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Server.APIKeys)

	// defaults still apply for untouched sections
	assert.Equal(t, 10240, cfg.Security.MaxRequestBytes)
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("PF_LLM_MODEL", "gemini-2.5-pro")
	defer os.Unsetenv("PF_LLM_MODEL")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
}

func TestLocateConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pf.yaml"), []byte("{}"), 0o644))

	assert.Equal(t, filepath.Join(dir, "pf.yaml"), locateConfigFile("pf", []string{dir}))
	assert.Equal(t, "", locateConfigFile("pf", []string{t.TempDir()}))
}
