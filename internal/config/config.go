package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// TitleRule matches a window by its title against a pattern and assigns it
// to a workspace.
type TitleRule struct {
	Pattern   string `toml:"pattern"`
	Workspace string `toml:"workspace"`
}

// JumpTarget names an application (and optionally a title pattern and a
// launch command) to focus for a jumpToApp category on a given workspace.
type JumpTarget struct {
	App    string   `toml:"app"`
	Title  string   `toml:"title,omitempty"`
	Launch []string `toml:"launch,omitempty"`
}

// WorkspaceConfig is the caller-supplied configuration described in
// spec.md §6. It is the only persisted artifact in this system — the
// tiling/window state itself is never persisted (spec §6).
type WorkspaceConfig struct {
	Workspaces  []string                         `toml:"workspaces"`
	AppRules    map[string]string                 `toml:"app_rules"`
	TitleRules  []TitleRule                       `toml:"title_rules"`
	JumpTargets map[string]map[string]JumpTarget  `toml:"jump_targets"`
	ToggleBack  bool                              `toml:"toggle_back"`
	ScratchName string                            `toml:"scratch_workspace"`
}

// DefaultConfig returns a minimal, usable configuration: a single workspace
// named "main" and no rules (every window is assigned to the first
// workspace).
func DefaultConfig() *WorkspaceConfig {
	return &WorkspaceConfig{
		Workspaces:  []string{"main"},
		AppRules:    map[string]string{},
		TitleRules:  nil,
		JumpTargets: map[string]map[string]JumpTarget{},
		ToggleBack:  true,
		ScratchName: "",
	}
}

// ConfigPath returns the XDG config path for the workspace configuration
// file, creating its parent directory if necessary.
func ConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join("codex", "workspaces.toml"))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

// Load reads and parses the workspace configuration at path. If the file
// does not exist, DefaultConfig is returned with no error.
func Load(path string) (*WorkspaceConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Workspaces) == 0 {
		return nil, fmt.Errorf("config %s: workspaces must not be empty", path)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path, creating parent directories as needed.
func Save(path string, cfg *WorkspaceConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// IndexOf returns the position of name within the configured workspace
// list, or -1 if it is not a known workspace.
func (c *WorkspaceConfig) IndexOf(name string) int {
	for i, n := range c.Workspaces {
		if n == name {
			return i
		}
	}
	return -1
}

// IsScratch reports whether name is the configured scratch workspace.
func (c *WorkspaceConfig) IsScratch(name string) bool {
	return c.ScratchName != "" && c.ScratchName == name
}

// ResolveWorkspace applies title rules (in order) and then app rules to
// decide which workspace a new window belongs to, per spec §4.5 step 2.
// It returns "" if no rule matches.
func (c *WorkspaceConfig) ResolveWorkspace(appName, title string, matchTitle func(pattern, title string) bool) string {
	for _, rule := range c.TitleRules {
		if matchTitle(rule.Pattern, title) {
			return rule.Workspace
		}
	}
	if ws, ok := c.AppRules[appName]; ok {
		return ws
	}
	return ""
}
