package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/proplens/proplens/internal/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `{
	"port": 8080,
	"database": {"host": "localhost", "db_name": "proplens"},
	"vector": {"base_url": "http://localhost:8000"},
	"extract": {
		"provider": "openai",
		"data": {"base_url": "http://localhost:1234/v1"},
		"model": "qwen2.5-vl-7b-instruct",
		"embed_model": "text-embedding-3-small",
		"worker_count": 4,
		"max_rows_per_chunk": 25,
		"per_call_timeout_seconds": 120
	}
}`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Extract.WorkerCount)
	require.Equal(t, 25, cfg.Extract.MaxRowsPerChunk)
	require.Equal(t, "project_docs", cfg.Vector.Collection)
	require.Equal(t, "openai", cfg.Extract.EmbedProvider)
	require.Equal(t, 1536, cfg.Extract.EmbedDim)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoad_EmbedDim(t *testing.T) {
	cfg := ExtractConfig{
		Provider:              "openai",
		Model:                 "m",
		EmbedModel:            "gemini-embedding-001",
		EmbedDim:              768,
		WorkerCount:           2,
		MaxRowsPerChunk:       10,
		PerCallTimeoutSeconds: 30,
	}
	require.NoError(t, cfg.Validate())
	require.Equal(t, 768, cfg.EmbedDim)

	cfg.EmbedDim = -1
	require.ErrorIs(t, cfg.Validate(), appErr.ErrConfiguration)
}

func TestLoad_RejectsBadEngineParams(t *testing.T) {
	cases := []struct {
		name  string
		patch func(c *ExtractConfig)
	}{
		{"zero workers", func(c *ExtractConfig) { c.WorkerCount = 0 }},
		{"negative workers", func(c *ExtractConfig) { c.WorkerCount = -3 }},
		{"zero chunk size", func(c *ExtractConfig) { c.MaxRowsPerChunk = 0 }},
		{"zero timeout", func(c *ExtractConfig) { c.PerCallTimeoutSeconds = 0 }},
		{"negative retries", func(c *ExtractConfig) { c.RetryCount = -1 }},
		{"missing model", func(c *ExtractConfig) { c.Model = "" }},
		{"missing provider", func(c *ExtractConfig) { c.Provider = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ExtractConfig{
				Provider:              "openai",
				Model:                 "m",
				EmbedModel:            "e",
				WorkerCount:           2,
				MaxRowsPerChunk:       10,
				PerCallTimeoutSeconds: 30,
			}
			tc.patch(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, appErr.ErrConfiguration)
		})
	}
}

func TestLoad_MissingVectorURL(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port": 1, "database": {"dsn": "x"}, "extract": {}}`))
	require.ErrorIs(t, err, appErr.ErrConfiguration)
}
