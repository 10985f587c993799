// Package backend defines the command and event contract between the launcher
// front-end and whatever performs the install, launch and integrity work.
package backend

import (
	"context"
	"encoding/json"
)

type Command string

const (
	CmdLoadInstallLocation Command = "load_install_location"
	CmdGetAvailableVersion Command = "get_available_version"
	CmdGetInstalledVersion Command = "get_installed_version"
	CmdSetInstallLocation  Command = "set_install_location"
	CmdUpdate              Command = "update"
	CmdLaunch              Command = "launch"
	CmdCheckIntegrity      Command = "check_integrity"
)

// Commands lists every command a backend must answer.
var Commands = []Command{
	CmdLoadInstallLocation,
	CmdGetAvailableVersion,
	CmdGetInstalledVersion,
	CmdSetInstallLocation,
	CmdUpdate,
	CmdLaunch,
	CmdCheckIntegrity,
}

func (c Command) Valid() bool {
	for _, known := range Commands {
		if c == known {
			return true
		}
	}
	return false
}

type SetInstallLocationArgs struct {
	Location string `json:"location"`
}

// Invoker runs a named backend command. args is JSON-encodable or nil; the
// result is the JSON encoding of the command's return value.
type Invoker interface {
	Invoke(ctx context.Context, cmd Command, args any) (json.RawMessage, error)
}

type EventName string

const (
	EventStatus EventName = "status"
	EventLog    EventName = "log"
)

type Message struct {
	Message string `json:"message"`
}

// EventSource delivers backend events in emission order, one at a time.
type EventSource interface {
	Subscribe(name EventName, handler func(Message)) (unsubscribe func(), err error)
}
