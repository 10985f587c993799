package health

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modpack-launcher/internal/launcher"
)

func TestCompute_ClassifiesInstallState(t *testing.T) {
	dir := t.TempDir()

	rows, summary := Compute(launcher.InstallState{
		InstallLocation:  dir,
		InstalledVersion: "1.2",
		AvailableVersion: "1.3",
	})
	if summary != "Update available" {
		t.Fatalf("summary = %q, want %q", summary, "Update available")
	}
	if len(rows) != 3 {
		t.Fatalf("rows len = %d, want 3", len(rows))
	}
	kinds := map[string]Kind{}
	for _, r := range rows {
		kinds[r.Name] = r.Kind
	}
	if kinds["Location"] != Active || kinds["Installed"] != Warn || kinds["Available"] != Active {
		t.Fatalf("unexpected kinds: %#v", kinds)
	}

	_, summary = Compute(launcher.InstallState{InstallLocation: dir, InstalledVersion: "1.3", AvailableVersion: "1.3"})
	if summary != "Up to date!" {
		t.Fatalf("summary = %q, want %q", summary, "Up to date!")
	}
}

func TestCompute_DefaultStateIsPending(t *testing.T) {
	rows, summary := Compute(launcher.DefaultInstallState())
	if summary != "" {
		t.Fatalf("summary = %q, want empty", summary)
	}
	if rows[0].Kind != Missing || rows[0].Value != "Not Configured" {
		t.Fatalf("location row = %#v", rows[0])
	}
	if rows[1].Kind != Missing || rows[2].Kind != Pending {
		t.Fatalf("version rows = %#v", rows[1:])
	}
}

func TestCompute_ReportsInvalidLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notadir.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	rows, _ := Compute(launcher.InstallState{InstallLocation: path})
	if rows[0].Kind != Missing || !strings.Contains(rows[0].Reason, "not a directory") {
		t.Fatalf("Compute(file) location = %#v", rows[0])
	}

	rows, _ = Compute(launcher.InstallState{InstallLocation: filepath.Join(t.TempDir(), "gone")})
	if rows[0].Kind != Missing || !strings.Contains(rows[0].Reason, "not accessible") {
		t.Fatalf("Compute(missing) location = %#v", rows[0])
	}
}
