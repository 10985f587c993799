package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSettingsPathUsesUserConfigDir(t *testing.T) {
	root := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", root)
	} else {
		t.Setenv("XDG_CONFIG_HOME", root)
	}
	if runtime.GOOS == "darwin" {
		t.Skip("UserConfigDir ignores XDG_CONFIG_HOME on darwin")
	}

	path, err := SettingsPath()
	if err != nil {
		t.Fatalf("SettingsPath() error = %v", err)
	}
	if want := filepath.Join(root, "modpack-launcher", "settings.json"); path != want {
		t.Fatalf("SettingsPath() = %q, want %q", path, want)
	}
}

func TestStoreInstallLocationNotConfigured(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	if _, err := store.InstallLocation(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("InstallLocation() error = %v, want ErrNotConfigured", err)
	}
	if ErrNotConfigured.Error() != "Not Configured" {
		t.Fatalf("unexpected sentinel text %q", ErrNotConfigured.Error())
	}
}

func TestStoreRoundTripKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store := NewStore(path)
	if err := store.Update(func(s *LauncherSettings) {
		s.ModpackURL = "https://packs.example.com/modpack.json"
		s.Debug = true
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := store.SetInstallLocation("  /games/starbound "); err != nil {
		t.Fatalf("SetInstallLocation() error = %v", err)
	}

	reopened := NewStore(path)
	location, err := reopened.InstallLocation()
	if err != nil {
		t.Fatalf("InstallLocation() error = %v", err)
	}
	if location != "/games/starbound" {
		t.Fatalf("InstallLocation() = %q", location)
	}
	saved, err := reopened.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.ModpackURL != "https://packs.example.com/modpack.json" || !saved.Debug {
		t.Fatalf("loaded settings = %#v", saved)
	}
}

func TestMergeOptionsWithSettingsPrefersCLI(t *testing.T) {
	merged := MergeOptionsWithSettings(
		Options{InstallLocation: "/cli/location"},
		LauncherSettings{
			InstallLocation: "/saved/location",
			ModpackURL:      "https://saved.example.com/modpack.json",
			GameExecutable:  "bin/game",
			Debug:           true,
		},
	)
	if merged.InstallLocation != "/cli/location" {
		t.Fatalf("InstallLocation = %q", merged.InstallLocation)
	}
	if merged.ModpackURL != "https://saved.example.com/modpack.json" || merged.GameExecutable != "bin/game" {
		t.Fatalf("saved values not merged: %#v", merged)
	}
	if !merged.Debug {
		t.Fatalf("debug should merge from saved when CLI false")
	}
}
