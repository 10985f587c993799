//go:build !headless

package gui

import (
	"context"

	"fyne.io/fyne/v2/widget"

	"modpack-launcher/internal/launcher"
)

type launcherAction struct {
	label     string
	busyLabel string
	op        launcher.Op
	run       func(*launcher.Orchestrator, context.Context) launcher.Result
	button    *widget.Button
}

func newLauncherActions() []*launcherAction {
	return []*launcherAction{
		{label: "Change location", busyLabel: "Choosing...", op: launcher.OpChangeLocation, run: (*launcher.Orchestrator).ChangeLocation},
		{label: "Update", busyLabel: "Updating...", op: launcher.OpUpdateModpack, run: (*launcher.Orchestrator).UpdateModpack},
		{label: "Launch", busyLabel: "Launching...", op: launcher.OpLaunch, run: (*launcher.Orchestrator).Launch},
		{label: "Check integrity", busyLabel: "Checking...", op: launcher.OpCheckIntegrity, run: (*launcher.Orchestrator).CheckIntegrity},
		{label: "Refresh", busyLabel: "Refreshing...", op: launcher.OpRefreshAvailable, run: (*launcher.Orchestrator).RefreshAvailableVersion},
	}
}

// enabled mirrors the TUI: nothing runs before startup finished, an action is
// off while its own operation runs, and Update is off while up to date.
func (a *launcherAction) enabled(ready bool, snap launcher.Snapshot) bool {
	if !ready || snap.Busy(a.op) {
		return false
	}
	if a.op == launcher.OpUpdateModpack && snap.UpToDate() {
		return false
	}
	return true
}

func (a *launcherAction) text(snap launcher.Snapshot) string {
	switch {
	case snap.Busy(a.op):
		return a.busyLabel
	case a.op == launcher.OpUpdateModpack && snap.UpToDate():
		return "Up to date!"
	default:
		return a.label
	}
}

func (a *launcherAction) apply(ready bool, snap launcher.Snapshot) {
	if a.button == nil {
		return
	}
	a.button.SetText(a.text(snap))
	if a.enabled(ready, snap) {
		a.button.Enable()
	} else {
		a.button.Disable()
	}
}
