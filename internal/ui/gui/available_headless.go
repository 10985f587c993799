//go:build headless

package gui

import (
	"context"

	"modpack-launcher/internal/config"
)

func Available() bool {
	return false
}

// Run is never reached in headless builds; main checks Available first.
func Run(context.Context, string, config.Options, func() error) {
	panic("gui.Run: built without the desktop UI")
}
