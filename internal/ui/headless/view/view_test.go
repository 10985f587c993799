package view

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/ui/health"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	os.Exit(m.Run())
}

func readyRuntime(install launcher.InstallState) Runtime {
	rows, summary := health.Compute(install)
	return Runtime{
		BuildVersion: "v1.0.0",
		Phase:        runstatus.Ready,
		Ready:        true,
		Snapshot:     launcher.Snapshot{Init: launcher.Ready, Install: install},
		Install:      rows,
		Summary:      summary,
	}
}

func TestEnabled_GatesOperationsOnReadinessAndFlags(t *testing.T) {
	install := launcher.InstallState{InstallLocation: "/games/starbound", InstalledVersion: "1", AvailableVersion: "2"}
	rt := readyRuntime(install)
	rt.Ready = false
	if Enabled(ActionLaunch, rt) {
		t.Fatal("Launch enabled before startup finished")
	}
	if !Enabled(ActionQuit, rt) || !Enabled(ActionClearLog, rt) {
		t.Fatal("Quit and Clear log must always be enabled")
	}

	rt = readyRuntime(install)
	if !Enabled(ActionUpdate, rt) {
		t.Fatal("Update disabled while an update is available")
	}
	rt.Snapshot.Flags = 1 << launcher.OpUpdateModpack
	if Enabled(ActionUpdate, rt) {
		t.Fatal("Update enabled while updating")
	}
	if !Enabled(ActionLaunch, rt) {
		t.Fatal("Launch should not depend on the update flag")
	}

	install.AvailableVersion = install.InstalledVersion
	if Enabled(ActionUpdate, readyRuntime(install)) {
		t.Fatal("Update enabled while up to date")
	}
}

func TestReduceKey_FocusCyclesThroughActions(t *testing.T) {
	state := NewState()
	state, effect := ReduceKey(state, tea.KeyMsg{Type: tea.KeyShiftTab})
	if effect != KeyEffectNone || state.FocusedAction() != ActionQuit {
		t.Fatalf("shift+tab from first action: focus=%v effect=%v", state.FocusedAction(), effect)
	}
	state, _ = ReduceKey(state, tea.KeyMsg{Type: tea.KeyTab})
	if state.FocusedAction() != ActionChangeLocation {
		t.Fatalf("tab wrapped to %v, want %v", state.FocusedAction(), ActionChangeLocation)
	}
	_, effect = ReduceKey(state, tea.KeyMsg{Type: tea.KeyEnter})
	if effect != KeyEffectActivateFocused {
		t.Fatalf("enter effect = %v, want activate", effect)
	}
	_, effect = ReduceKey(state, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if effect != KeyEffectRequestQuit {
		t.Fatalf("q effect = %v, want quit", effect)
	}
	_, effect = ReduceKey(state, tea.KeyMsg{Type: tea.KeyPgDown})
	if effect != KeyEffectPassThrough {
		t.Fatalf("pgdown effect = %v, want pass through", effect)
	}
}

func TestReduceKey_Modals(t *testing.T) {
	state := NewState()
	state.ErrorModalText = "Update failed: offline"
	state, effect := ReduceKey(state, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if effect != KeyEffectNone || state.ErrorModalText == "" {
		t.Fatal("error modal must swallow keys until closed")
	}
	state, _ = ReduceKey(state, tea.KeyMsg{Type: tea.KeyEsc})
	if state.ErrorModalText != "" {
		t.Fatal("esc did not close the error modal")
	}

	state.ConfirmQuit = true
	state, effect = ReduceKey(state, tea.KeyMsg{Type: tea.KeyEnter})
	if effect != KeyEffectNone || state.ConfirmQuit {
		t.Fatalf("enter on cancel: effect=%v confirm=%v", effect, state.ConfirmQuit)
	}
	state.ConfirmQuit = true
	state, _ = ReduceKey(state, tea.KeyMsg{Type: tea.KeyTab})
	_, effect = ReduceKey(state, tea.KeyMsg{Type: tea.KeyEnter})
	if effect != KeyEffectConfirmQuitAccept {
		t.Fatalf("enter on quit effect = %v, want accept", effect)
	}
}

func TestReduceActivate_MapsActionsToEffects(t *testing.T) {
	rt := readyRuntime(launcher.InstallState{InstallLocation: "/games", InstalledVersion: "1", AvailableVersion: "2"})
	want := map[Action]ActivateEffect{
		ActionChangeLocation: ActivateEffectChangeLocation,
		ActionUpdate:         ActivateEffectUpdate,
		ActionLaunch:         ActivateEffectLaunch,
		ActionCheckIntegrity: ActivateEffectCheckIntegrity,
		ActionRefresh:        ActivateEffectRefresh,
		ActionClearLog:       ActivateEffectClearLog,
		ActionQuit:           ActivateEffectRequestQuit,
	}
	for action, wantEffect := range want {
		state := NewState()
		state.Focus = int(action)
		if _, got := ReduceActivate(state, rt); got != wantEffect {
			t.Errorf("ReduceActivate(%v) = %v, want %v", action, got, wantEffect)
		}
	}

	rt.Snapshot.Flags = 1 << launcher.OpLaunch
	state := NewState()
	state.Focus = int(ActionLaunch)
	if _, got := ReduceActivate(state, rt); got != ActivateEffectNone {
		t.Fatalf("activating a busy action = %v, want none", got)
	}
}

func TestSetLogEntries_NewestFirst(t *testing.T) {
	state := NewState()
	state.Width, state.Height = 120, 40
	state.ResizeLogs(DefaultNonLogLayoutReserveMin, DefaultMinLogPanelHeight)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	state.SetLogEntries([]launcher.Entry{
		{Seq: 2, Time: at.Add(time.Second), Text: "Update complete"},
		{Seq: 1, Time: at, Text: "Starting update process"},
	})
	lines := strings.Split(state.LogText, "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "Update complete") || !strings.Contains(lines[1], "Starting update process") {
		t.Fatalf("log order = %q", lines)
	}
	if !state.LogView.AtTop() {
		t.Fatal("following log should stay at the newest entry")
	}
}

func TestRenderApp_ShowsInstallStateAndActions(t *testing.T) {
	state := NewState()
	state = state.WithWindowSize(120, 40)
	state.ResizeLogs(DefaultNonLogLayoutReserveMin, DefaultMinLogPanelHeight)
	rt := readyRuntime(launcher.InstallState{InstallLocation: t.TempDir(), InstalledVersion: "1.4", AvailableVersion: "1.4"})
	rt.Snapshot.Status = "Update complete"

	out := zone.Scan(RenderApp(&state, rt))
	for _, want := range []string{"Starbound Modpack Launcher", "Update complete", "Up to date!", "1.4", "Change location", "Check integrity", "Log"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}

	state.ErrorModalText = "Launch failed: no game"
	out = zone.Scan(RenderApp(&state, rt))
	if !strings.Contains(out, "Launch failed: no game") {
		t.Fatal("error modal not rendered")
	}
}

func TestRenderStatus_ColoursByHeadline(t *testing.T) {
	if got := RenderStatus(""); !strings.Contains(got, "-") {
		t.Fatalf("RenderStatus(empty) = %q", got)
	}
	for _, status := range []string{runstatus.Ready, runstatus.Loading, "Update failed: offline"} {
		if got := RenderStatus(status); !strings.Contains(got, status) {
			t.Fatalf("RenderStatus(%q) = %q", status, got)
		}
	}
}
