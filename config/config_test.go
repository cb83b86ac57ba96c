package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Nil(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8889", cfg.Listen)
	assert.True(t, cfg.Preferences.SelectOnStopped)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdb-frontend.yaml")
	content := `listen: ":9000"
gdb_path: /usr/local/bin/gdb
preferences:
    select_on_stopped: false
    keep_exec_point: true
`
	assert.Nil(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	assert.Nil(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/usr/local/bin/gdb", cfg.GdbPath)
	// untouched fields keep their defaults
	assert.Equal(t, "breakpoints.yaml", cfg.BreakFile)
	assert.True(t, cfg.Preferences.TerminalAutoShow)
	assert.False(t, cfg.Preferences.SelectOnStopped)
	assert.True(t, cfg.Preferences.KeepExecPoint)
}

func TestLoadBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	assert.Nil(t, os.WriteFile(path, []byte("listen: [unterminated"), 0644))

	_, err := Load(path)
	assert.NotNil(t, err)
}

func TestOptionsMapping(t *testing.T) {
	cfg := Default()
	cfg.Preferences.SelectOnRunning = true
	cfg.Preferences.TerminalShowOnError = true

	opts := cfg.Options()
	assert.True(t, opts.SelectOnRunning)
	assert.True(t, opts.SelectOnStopped)
	assert.True(t, opts.TerminalAutoShow)
	assert.True(t, opts.TerminalShowOnError)
	assert.False(t, opts.KeepExecPoint)
}
