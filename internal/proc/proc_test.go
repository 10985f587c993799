package proc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Starbound.exe":             "starbound",
		"/opt/game/linux/starbound": "starbound",
		"  ":                        "",
	}
	for input, want := range cases {
		if got := normalizeName(input); got != want {
			t.Fatalf("normalizeName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFindRunningSkipsSelf(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable() error = %v", err)
	}
	pids, err := FindRunning(context.Background(), filepath.Base(exe))
	if err != nil {
		t.Skipf("process listing unavailable: %v", err)
	}
	self := int32(os.Getpid())
	for _, pid := range pids {
		if pid == self {
			t.Fatalf("FindRunning reported the current process")
		}
	}
}

func TestFindRunningEmptyName(t *testing.T) {
	pids, err := FindRunning(context.Background(), "")
	if err != nil || pids != nil {
		t.Fatalf("FindRunning(\"\") = %v, %v", pids, err)
	}
}
