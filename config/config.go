// Package config loads server and behaviour preferences from a yaml file.
// A missing file is not an error: every field has a usable default so the
// server can run with zero configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fansqz/gdb-frontend/frontend"
)

// Preferences mirrors the frontend behaviour options.
type Preferences struct {
	KeepExecPoint   bool `yaml:"keep_exec_point"`
	SelectOnRunning bool `yaml:"select_on_running"`
	SelectOnStopped bool `yaml:"select_on_stopped"`
	SelectOnExited  bool `yaml:"select_on_exited"`
	SelectFollow    bool `yaml:"select_follow"`

	TerminalAutoShow    bool `yaml:"terminal_auto_show"`
	TerminalAutoHide    bool `yaml:"terminal_auto_hide"`
	TerminalShowOnError bool `yaml:"terminal_show_on_error"`
	OpenPanelOnStart    bool `yaml:"open_panel_on_start"`
}

type Config struct {
	// Listen address for the websocket server.
	Listen string `yaml:"listen"`
	// GdbPath overrides the gdb binary, empty means $PATH lookup.
	GdbPath string `yaml:"gdb_path"`
	LogPath string `yaml:"log_path"`
	// BreakFile is where the breakpoint table is persisted between runs.
	BreakFile string `yaml:"break_file"`

	Preferences Preferences `yaml:"preferences"`
}

func Default() *Config {
	return &Config{
		Listen:    ":8889",
		LogPath:   "/var/log/gdb-frontend.log",
		BreakFile: "breakpoints.yaml",
		Preferences: Preferences{
			SelectOnStopped:  true,
			SelectOnExited:   true,
			TerminalAutoShow: true,
		},
	}
}

// Load reads path over the defaults. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts the preference block to the frontend options struct.
func (c *Config) Options() *frontend.Options {
	p := c.Preferences
	return &frontend.Options{
		KeepExecPoint:       p.KeepExecPoint,
		SelectOnRunning:     p.SelectOnRunning,
		SelectOnStopped:     p.SelectOnStopped,
		SelectOnExited:      p.SelectOnExited,
		SelectFollow:        p.SelectFollow,
		TerminalAutoShow:    p.TerminalAutoShow,
		TerminalAutoHide:    p.TerminalAutoHide,
		TerminalShowOnError: p.TerminalShowOnError,
		OpenPanelOnStart:    p.OpenPanelOnStart,
	}
}
