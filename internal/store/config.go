package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	configFileName = "config.json"
	notesDirName   = "notes"

	DefaultCanonicalName    = "Tasks"
	DefaultListName         = "reminders"
	DefaultOpenMarker       = "TODO:"
	DefaultDoneMarker       = "DONE:"
	DefaultSeparator        = "----------"
	DefaultLockStaleSeconds = 600
	DefaultLogMaxLines      = 2000
)

// Config holds the workspace constants. Zero values are filled with
// defaults on load, so a hand-edited partial config.json keeps working.
type Config struct {
	CanonicalName    string `json:"canonicalName,omitempty"`
	ListName         string `json:"listName,omitempty"`
	OpenMarker       string `json:"openMarker,omitempty"`
	DoneMarker       string `json:"doneMarker,omitempty"`
	Separator        string `json:"separator,omitempty"`
	LockStaleSeconds int    `json:"lockStaleSeconds,omitempty"`
	LogMaxLines      int    `json:"logMaxLines,omitempty"`
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.CanonicalName) == "" {
		c.CanonicalName = DefaultCanonicalName
	}
	if strings.TrimSpace(c.ListName) == "" {
		c.ListName = DefaultListName
	}
	if strings.TrimSpace(c.OpenMarker) == "" {
		c.OpenMarker = DefaultOpenMarker
	}
	if strings.TrimSpace(c.DoneMarker) == "" {
		c.DoneMarker = DefaultDoneMarker
	}
	if strings.TrimSpace(c.Separator) == "" {
		c.Separator = DefaultSeparator
	}
	if c.LockStaleSeconds <= 0 {
		c.LockStaleSeconds = DefaultLockStaleSeconds
	}
	if c.LogMaxLines <= 0 {
		c.LogMaxLines = DefaultLogMaxLines
	}
}

// DiscoverDir walks upward from start looking for a .remindsync dir.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".remindsync")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the workspace dir: REMINDSYNC_DIR override first
// (keeps tests off the real home dir), then upward discovery from the
// working directory, then ~/.remindsync.
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("REMINDSYNC_DIR")); v != "" {
		return v, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".remindsync"), nil
}

// NotesDir is where source documents (and the canonical document) live.
func NotesDir(dir string) string {
	return filepath.Join(dir, notesDirName)
}

func configPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

func LoadConfig(dir string) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(configPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.fillDefaults()
			return &cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "config.json.*.tmp", configPath(dir), b, 0o644)
}

// atomicWriteFile writes via a unique temp file + rename so concurrent
// writers never leave a torn file behind.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
