//go:build darwin

package config

import "path/filepath"

func DefaultGameExecutable() string {
	return filepath.Join("osx", "Starbound.app", "Contents", "MacOS", "starbound")
}
