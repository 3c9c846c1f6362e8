package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromWritesTemplateOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultLockTimeout, cfg.LockTimeout)
	assert.Equal(t, DefaultTenantID, cfg.Outlook.TenantID)
	assert.Equal(t, DefaultBlock, cfg.Outlook.DefaultBlock)
	assert.NotContains(t, cfg.BaseDir, "~")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))

	// The template itself must parse.
	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFromPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `// comment line
{
  // another comment
  "base_dir": "` + filepath.ToSlash(dir) + `/journal",
  "lock_timeout": "250ms",
  "outlook": { "timezone": "Europe/Berlin" }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir)+"/journal", cfg.BaseDir)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, "Europe/Berlin", cfg.Outlook.Timezone)
	assert.Equal(t, DefaultClientID, cfg.Outlook.ClientID)
}

func TestLoadFromEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_dir": "/from/file"}`), 0o600))
	t.Setenv("DAYLOG_BASE_DIR", "/from/env")
	t.Setenv("DAYLOG_OUTLOOK_TIMEZONE", "UTC")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.BaseDir)
	assert.Equal(t, "UTC", cfg.Outlook.Timezone)
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"base_dir": `), 0o600))

	cfg, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete the file to regenerate defaults")
	assert.Equal(t, DefaultTenantID, cfg.Outlook.TenantID)
}

func TestStripLineComments(t *testing.T) {
	in := []byte("// head\n{\n  // inner\n  \"a\": 1 // trailing kept\n}")
	got := string(stripLineComments(in))
	assert.Equal(t, "{\n  \"a\": 1 // trailing kept\n}\n", got)
}

func TestFilePathOverride(t *testing.T) {
	t.Setenv("DAYLOG_CONFIG", "/etc/daylog.json")
	path, err := FilePath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/daylog.json", path)
}
