package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotConfigured is returned when no install location has been saved yet.
var ErrNotConfigured = errors.New("Not Configured")

type LauncherSettings struct {
	InstallLocation        string `json:"install_location,omitempty"`
	ModpackURL             string `json:"modpack_url,omitempty"`
	GameExecutable         string `json:"game_executable,omitempty"`
	Debug                  bool   `json:"debug"`
	LastDismissedUpdateTag string `json:"last_dismissed_update_tag,omitempty"`
}

func SettingsPath() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "modpack-launcher", "settings.json"), nil
}

func LoadSettings() (LauncherSettings, error) {
	path, err := SettingsPath()
	if err != nil {
		return LauncherSettings{}, err
	}
	return NewStore(path).Load()
}

func MergeOptionsWithSettings(cli Options, saved LauncherSettings) Options {
	if cli.InstallLocation == "" {
		cli.InstallLocation = saved.InstallLocation
	}
	if cli.ModpackURL == "" {
		cli.ModpackURL = saved.ModpackURL
	}
	if cli.GameExecutable == "" {
		cli.GameExecutable = saved.GameExecutable
	}
	if !cli.Debug {
		cli.Debug = saved.Debug
	}
	return cli
}

// Store reads and writes one settings file. Every update re-reads the file
// so edits made by another process are not lost.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func OpenDefaultStore() (*Store, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the saved settings; a missing file yields zero settings.
func (s *Store) Load() (LauncherSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) Update(fn func(*LauncherSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.loadLocked()
	if err != nil {
		return err
	}
	fn(&settings)
	return s.saveLocked(settings)
}

func (s *Store) InstallLocation() (string, error) {
	settings, err := s.Load()
	if err != nil {
		return "", err
	}
	location := strings.TrimSpace(settings.InstallLocation)
	if location == "" {
		return "", ErrNotConfigured
	}
	return location, nil
}

func (s *Store) SetInstallLocation(location string) error {
	return s.Update(func(settings *LauncherSettings) {
		settings.InstallLocation = strings.TrimSpace(location)
	})
}

func (s *Store) loadLocked() (LauncherSettings, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return LauncherSettings{}, nil
	}
	if err != nil {
		return LauncherSettings{}, err
	}
	var settings LauncherSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return LauncherSettings{}, err
	}
	return settings, nil
}

func (s *Store) saveLocked(settings LauncherSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
