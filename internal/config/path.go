package config

import "path/filepath"

// ResolveGameExecutable returns exe as-is when absolute, otherwise joined to
// the install location. An empty exe falls back to the platform default.
func ResolveGameExecutable(installLocation string, exe string) string {
	if exe == "" {
		exe = DefaultGameExecutable()
	}
	if filepath.IsAbs(exe) {
		return exe
	}
	return filepath.Join(installLocation, exe)
}
