//go:build linux

package config

import "path/filepath"

func DefaultGameExecutable() string {
	return filepath.Join("linux", "run-client.sh")
}
