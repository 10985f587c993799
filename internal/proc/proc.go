// Package proc finds and starts operating system processes.
package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// FindRunning returns the pids of processes whose executable name matches
// name. A trailing .exe is ignored on both sides and matching is
// case-insensitive. The current process is never reported.
func FindRunning(ctx context.Context, name string) ([]int32, error) {
	want := normalizeName(name)
	if want == "" {
		return nil, nil
	}
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	self := int32(os.Getpid())
	var found []int32
	for _, p := range processes {
		if p.Pid == self {
			continue
		}
		pName, err := p.NameWithContext(ctx)
		if err != nil {
			// Some system processes deny access to their name.
			continue
		}
		if normalizeName(pName) == want {
			found = append(found, p.Pid)
		}
	}
	return found, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(filepath.Base(name)))
	return strings.TrimSuffix(name, ".exe")
}

// StartDetached starts path with args in dir, detached from this process's
// session and standard streams, and releases it. It returns the child's pid.
func StartDetached(path string, args []string, dir string) (int, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}
