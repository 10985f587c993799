package view

import "modpack-launcher/internal/launcher"

// Action is one button of the action row. Its value is also its focus index.
type Action int

const (
	ActionChangeLocation Action = iota
	ActionUpdate
	ActionLaunch
	ActionCheckIntegrity
	ActionRefresh
	ActionClearLog
	ActionQuit
	actionCount
)

var actionLabels = [actionCount]string{
	ActionChangeLocation: "Change location",
	ActionUpdate:         "Update",
	ActionLaunch:         "Launch",
	ActionCheckIntegrity: "Check integrity",
	ActionRefresh:        "Refresh",
	ActionClearLog:       "Clear log",
	ActionQuit:           "Quit",
}

var busyLabels = [actionCount]string{
	ActionChangeLocation: "Choosing...",
	ActionUpdate:         "Updating...",
	ActionLaunch:         "Launching...",
	ActionCheckIntegrity: "Checking...",
	ActionRefresh:        "Refreshing...",
}

func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "unknown"
	}
	return actionLabels[a]
}

// Op returns the orchestrator operation behind a, if any.
func (a Action) Op() (launcher.Op, bool) {
	switch a {
	case ActionChangeLocation:
		return launcher.OpChangeLocation, true
	case ActionUpdate:
		return launcher.OpUpdateModpack, true
	case ActionLaunch:
		return launcher.OpLaunch, true
	case ActionCheckIntegrity:
		return launcher.OpCheckIntegrity, true
	case ActionRefresh:
		return launcher.OpRefreshAvailable, true
	default:
		return 0, false
	}
}

// Enabled reports whether a can be activated. Orchestrator actions wait for
// startup to finish and are disabled while their own operation runs; Update
// is also disabled while the installed modpack is current.
func Enabled(a Action, rt Runtime) bool {
	op, ok := a.Op()
	if !ok {
		return true
	}
	if !rt.Ready || rt.Snapshot.Busy(op) {
		return false
	}
	if a == ActionUpdate && rt.Snapshot.UpToDate() {
		return false
	}
	return true
}

func busy(a Action, rt Runtime) bool {
	op, ok := a.Op()
	return ok && rt.Snapshot.Busy(op)
}
