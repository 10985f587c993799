package launcher

import (
	"errors"
	"strings"

	"modpack-launcher/internal/runstatus"
)

type InitState int

const (
	Uninitialized InitState = iota
	Initializing
	Ready
)

func (s InitState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

type InstallState struct {
	InstallLocation  string
	InstalledVersion string
	AvailableVersion string
}

func DefaultInstallState() InstallState {
	return InstallState{
		InstalledVersion: runstatus.NotInstalled,
		AvailableVersion: runstatus.CheckingVersion,
	}
}

// UpToDate compares the two versions as raw strings. Before the first
// refresh the sentinels differ, so an update is offered.
func (s InstallState) UpToDate() bool {
	return s.InstalledVersion == s.AvailableVersion
}

// Op names one user-triggerable long-running operation. Each has its own
// busy flag.
type Op uint8

const (
	OpChangeLocation Op = iota
	OpUpdateModpack
	OpLaunch
	OpCheckIntegrity
	OpRefreshAvailable
	OpSelfUpdate
	opCount
)

var opLabels = [opCount]string{
	OpChangeLocation:   "Change location",
	OpUpdateModpack:    "Update",
	OpLaunch:           "Launch",
	OpCheckIntegrity:   "Integrity check",
	OpRefreshAvailable: "Update check",
	OpSelfUpdate:       "Launcher update",
}

func (o Op) String() string {
	if o >= opCount {
		return "Operation"
	}
	return opLabels[o]
}

// OperationFlags is the set of operations currently in flight.
type OperationFlags uint8

func (f OperationFlags) Busy(op Op) bool {
	return f&(1<<op) != 0
}

func (f OperationFlags) Any() bool {
	return f != 0
}

func (f OperationFlags) String() string {
	if f == 0 {
		return "idle"
	}
	var names []string
	for op := Op(0); op < opCount; op++ {
		if f.Busy(op) {
			names = append(names, op.String())
		}
	}
	return strings.Join(names, ", ")
}

// ErrOperationInProgress is returned when an operation is triggered while
// its own previous run has not finished.
var ErrOperationInProgress = errors.New("operation already in progress")

// Result is the outcome of one operation. Canceled is set when the user
// backed out (for example closed the directory picker) and nothing ran.
type Result struct {
	Op       Op
	Err      error
	Canceled bool
}

func (r Result) Ok() bool {
	return r.Err == nil
}

// Snapshot is a consistent copy of everything a renderer shows.
type Snapshot struct {
	Init    InitState
	Install InstallState
	Flags   OperationFlags
	Status  string
}

func (s Snapshot) UpToDate() bool {
	return s.Install.UpToDate()
}

func (s Snapshot) Busy(op Op) bool {
	return s.Flags.Busy(op)
}
