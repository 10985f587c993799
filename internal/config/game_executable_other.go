//go:build !linux && !darwin && !windows

package config

func DefaultGameExecutable() string {
	return "starbound"
}
