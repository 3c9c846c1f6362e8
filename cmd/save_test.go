package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daylog/internal/config"
	"github.com/Tiliavir/daylog/internal/journal"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Config{BaseDir: t.TempDir(), LockTimeout: time.Second}
	return newApp(cfg, newLogger())
}

func TestSaveJSONPrintsOneResultLine(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	saveJSON(context.Background(), a.proc,
		`{"morning": {"start_time": "08:00", "end_time": "12:00", "content": "review"}}`, &out)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 1)

	var res journal.Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &res))
	assert.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, filepath.Join(a.cfg.BaseDir, "work-logs"))
}

func TestSaveJSONFailures(t *testing.T) {
	a := testApp(t)
	tests := []struct {
		arg  string
		want string
	}{
		{"", "No data provided"},
		{"{not json", "Invalid JSON format"},
		{"{}", "No blocks to save."},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		saveJSON(context.Background(), a.proc, tt.arg, &out)

		var res journal.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
		assert.False(t, res.Success)
		assert.Equal(t, tt.want, res.Message)
	}
}

func TestReadArg(t *testing.T) {
	assert.Equal(t, "", readArg(nil, strings.NewReader("ignored")))
	assert.Equal(t, `{"a":{}}`, readArg([]string{`{"a":{}}`}, strings.NewReader("ignored")))
	assert.Equal(t, "from stdin", readArg([]string{"-"}, strings.NewReader("from stdin")))
}

func TestSaveAcceptsExtraArguments(t *testing.T) {
	assert.NoError(t, saveCmd.ValidateArgs([]string{`{"a":{}}`, "extra"}))
	assert.NoError(t, saveCmd.ValidateArgs(nil))
	assert.Equal(t, `{"a":{}}`, readArg([]string{`{"a":{}}`, "extra"}, strings.NewReader("")))
}

func TestSaveRunWithExtraArgumentsPrintsResult(t *testing.T) {
	t.Setenv("DAYLOG_CONFIG", filepath.Join(t.TempDir(), "config.json"))
	base := t.TempDir()
	baseDirFlag = base
	t.Cleanup(func() { baseDirFlag = "" })

	var out bytes.Buffer
	saveCmd.SetOut(&out)
	saveCmd.SetContext(context.Background())
	t.Cleanup(func() { saveCmd.SetOut(nil) })

	runSave(saveCmd, []string{`{"morning": {"start_time": "08:00", "end_time": "09:00", "content": "x"}}`, "extra"})

	var res journal.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, base)
}

func TestParseEntry(t *testing.T) {
	entry, err := parseEntry(`{"evening": {"start_time": "18:00", "end_time": "19:00", "content": "x"}, "dawn": {}}`)
	require.NoError(t, err)
	assert.Equal(t, "18:00", entry.TimeBlocks["evening"].StartTime)
	assert.Equal(t, []string{"evening", "dawn"}, entry.Keys)

	_, err = parseEntry("  ")
	assert.Error(t, err)
	_, err = parseEntry("[1,2]")
	assert.Error(t, err)
}
