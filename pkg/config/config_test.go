package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_SHEET_ID", "GMAIL_USER", "TASKDISPATCH_MODE"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeRules, cfg.Mode)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, int64(20<<20), cfg.Ingest.MaxFileBytes)
	assert.True(t, cfg.Docs.Enabled)
}

func TestSaveAndLoad(t *testing.T) {
	home := isolate(t)
	cfg := Default()
	cfg.Mode = ModeModel
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Gemini.APIKey = "secret"
	require.NoError(t, Save(cfg))

	b, err := os.ReadFile(filepath.Join(home, ".config", "taskdispatch", "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")

	back, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeModel, back.Mode)
	assert.Equal(t, "sheet-1", back.Sheets.SpreadsheetID)
	assert.Empty(t, back.Gemini.APIKey)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-env")
	t.Setenv("GMAIL_USER", "me@example.com")
	t.Setenv("TASKDISPATCH_MODE", " MODEL ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.Gemini.APIKey)
	assert.Equal(t, "sheet-env", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "me@example.com", cfg.Mail.From)
	assert.Equal(t, ModeModel, cfg.Mode)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Gemini.APIKey)
}

func TestDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("GOOGLE_SHEET_ID=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GOOGLE_SHEET_ID") })
	os.Unsetenv("GOOGLE_SHEET_ID")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Sheets.SpreadsheetID)
}

func TestInvalidMode(t *testing.T) {
	isolate(t)
	t.Setenv("TASKDISPATCH_MODE", "magic")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid mode")
}

func TestReference(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "UTC"
	now := time.Date(2025, 9, 28, 23, 10, 0, 0, time.UTC)

	ref, err := cfg.Reference(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC), ref)

	cfg.ReferenceDate = "2025-10-01"
	ref, err = cfg.Reference(now)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", ref.Format(time.DateOnly))

	cfg.ReferenceDate = "10/01"
	assert.Error(t, cfg.Validate())
}
