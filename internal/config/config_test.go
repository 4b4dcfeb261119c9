package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: gemini\ngemini:\n  model_name: gemini-1.5-flash\n"), 0644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.GetViper().ConfigFileUsed())
	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.GetGemini().ModelName)

	// Keys absent from the file fall back to defaults
	assert.Equal(t, int64(500), cfg.GetGmail().MaxResults)
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "memory", cfg.GetString("cache.type"))

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, "2h0m0s", ttl.String())

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8000", server.ListenAddress)
	assert.Equal(t, "15m0s", server.SessionTTL.String())
}
