package runstatus

import "strings"

// Headline values shown next to the install state. Several of them are also
// the literal values the backend reports, so they must not be reworded.
const (
	NotInstalled      = "None"
	CheckingVersion   = "Checking..."
	CheckingForUpdate = "Checking for launcher updates"
	UpdatingLauncher  = "Updating launcher"
	Restarting        = "Restarting"
	Loading           = "Loading"
	Ready             = "Ready"
	UpdateStarted     = "Starting update process"
	UpdateComplete    = "Update complete"
	GameLaunched      = "Game launched"
	Failed            = "Failed"
)

const (
	KeyCheckingForUpdate = "checking for launcher updates"
	KeyUpdatingLauncher  = "updating launcher"
	KeyRestarting        = "restarting"
	KeyLoading           = "loading"
	KeyReady             = "ready"
	KeyFailed            = "failed"
)

func Key(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsBusy reports whether status names a startup phase that is still running.
func IsBusy(status string) bool {
	switch Key(status) {
	case KeyCheckingForUpdate, KeyUpdatingLauncher, KeyRestarting, KeyLoading:
		return true
	default:
		return false
	}
}
