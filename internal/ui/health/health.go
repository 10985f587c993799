package health

import (
	"os"
	"strings"
	"time"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/runstatus"
)

// RefreshRate is how often the install directory is re-checked while the
// install state itself is unchanged.
const RefreshRate = 30 * time.Second

type Kind int

const (
	Missing Kind = iota
	Active
	Warn
	Pending
)

type Row struct {
	Name   string
	Value  string
	Kind   Kind
	Reason string
}

// Compute turns the install state into the rows of the install panel and a
// one-line summary.
func Compute(install launcher.InstallState) ([]Row, string) {
	rows := make([]Row, 0, 3)
	rows = append(rows, locationRow(install.InstallLocation))

	installed := Row{Name: "Installed", Value: install.InstalledVersion, Kind: Active}
	available := Row{Name: "Available", Value: install.AvailableVersion, Kind: Active}
	switch {
	case install.InstalledVersion == runstatus.NotInstalled:
		installed.Kind = Missing
		installed.Reason = "Modpack is not installed."
	case !install.UpToDate():
		installed.Kind = Warn
		installed.Reason = "Newer modpack available."
	}
	if install.AvailableVersion == runstatus.CheckingVersion {
		available.Kind = Pending
	}
	rows = append(rows, installed, available)

	switch {
	case install.UpToDate():
		return rows, "Up to date!"
	case install.AvailableVersion == runstatus.CheckingVersion:
		return rows, ""
	default:
		return rows, "Update available"
	}
}

func locationRow(location string) Row {
	row := Row{Name: "Location", Value: location, Kind: Active}
	location = strings.TrimSpace(location)
	if location == "" {
		row.Value = "Not Configured"
		row.Kind = Missing
		row.Reason = "Choose the game install directory."
		return row
	}
	info, err := os.Stat(location)
	switch {
	case err != nil:
		row.Kind = Missing
		row.Reason = "Install directory is not accessible: " + err.Error()
	case !info.IsDir():
		row.Kind = Missing
		row.Reason = "Install location is not a directory."
	}
	return row
}
