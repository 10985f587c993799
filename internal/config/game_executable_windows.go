//go:build windows

package config

import "path/filepath"

func DefaultGameExecutable() string {
	return filepath.Join("win64", "starbound.exe")
}
