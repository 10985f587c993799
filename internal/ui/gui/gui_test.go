//go:build !headless

package gui

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/widget"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
)

func snapshotWith(installed, available string, busy ...launcher.Op) launcher.Snapshot {
	snap := launcher.Snapshot{Install: launcher.InstallState{
		InstallLocation:  "/games/starbound",
		InstalledVersion: installed,
		AvailableVersion: available,
	}}
	for _, op := range busy {
		snap.Flags |= 1 << op
	}
	return snap
}

func actionFor(t *testing.T, op launcher.Op) *launcherAction {
	t.Helper()
	for _, action := range newLauncherActions() {
		if action.op == op {
			return action
		}
	}
	t.Fatalf("no action for %s", op)
	return nil
}

func TestLauncherActionEnabled(t *testing.T) {
	update := actionFor(t, launcher.OpUpdateModpack)
	launch := actionFor(t, launcher.OpLaunch)

	if launch.enabled(false, snapshotWith("1.0", "1.1")) {
		t.Fatal("launch enabled before startup finished")
	}
	if !launch.enabled(true, snapshotWith("1.0", "1.1", launcher.OpUpdateModpack)) {
		t.Fatal("launch should not wait for a running update")
	}
	if launch.enabled(true, snapshotWith("1.0", "1.1", launcher.OpLaunch)) {
		t.Fatal("launch enabled while launching")
	}
	if update.enabled(true, snapshotWith("1.1", "1.1")) {
		t.Fatal("update enabled while up to date")
	}
	if !update.enabled(true, snapshotWith("1.0", "1.1")) {
		t.Fatal("update disabled with a newer modpack available")
	}
}

func TestLauncherActionText(t *testing.T) {
	update := actionFor(t, launcher.OpUpdateModpack)
	if got := update.text(snapshotWith("1.1", "1.1")); got != "Up to date!" {
		t.Fatalf("text = %q", got)
	}
	if got := update.text(snapshotWith("1.0", "1.1", launcher.OpUpdateModpack)); got != "Updating..." {
		t.Fatalf("text = %q", got)
	}
	if got := update.text(snapshotWith("1.0", "1.1")); got != "Update" {
		t.Fatalf("text = %q", got)
	}
}

func TestDiagnosticLogKeepsNewestEvents(t *testing.T) {
	var d diagnosticLog
	for i := range maxDiagnosticEvents + 5 {
		d.add(logging.Event{Time: time.Unix(int64(i), 0), Level: slog.LevelInfo, Message: "event"})
	}
	if len(d.events) != maxDiagnosticEvents {
		t.Fatalf("events = %d, want %d", len(d.events), maxDiagnosticEvents)
	}
	if got := d.events[0].Time.Unix(); got != 5 {
		t.Fatalf("oldest kept event = %d, want 5", got)
	}
	d.clear()
	if len(d.rows(80)) != 0 {
		t.Fatal("rows remain after clear")
	}
}

func TestEventRowsWrapAndColour(t *testing.T) {
	event := logging.Event{
		Time:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   slog.LevelWarn,
		Message: strings.Repeat("x", 100),
	}
	rows := eventRows(event, 40)
	if len(rows) < 3 {
		t.Fatalf("rows = %d, want wrapped output", len(rows))
	}
	var text strings.Builder
	for _, cell := range rows[0].Cells {
		text.WriteRune(cell.Rune)
	}
	if !strings.HasPrefix(text.String(), "03:04:05 [WARN]") {
		t.Fatalf("first row = %q", text.String())
	}
	timeStyle, ok := rows[0].Cells[0].Style.(*widget.CustomTextGridStyle)
	if !ok || timeStyle.FGColor != diagTimeColor {
		t.Fatalf("clock style = %#v", rows[0].Cells[0].Style)
	}
	bodyStyle, ok := rows[1].Cells[0].Style.(*widget.CustomTextGridStyle)
	if !ok || bodyStyle.FGColor != diagWarnColor {
		t.Fatalf("body style = %#v", rows[1].Cells[0].Style)
	}
}
