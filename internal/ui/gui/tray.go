//go:build !headless

package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"modpack-launcher/internal/launcher"
)

func (c *controller) setupTray() {
	desk, ok := c.app.(desktop.App)
	if !ok {
		return
	}
	desk.SetSystemTrayIcon(launcherIconResource())
	c.refreshTrayMenu()
}

// refreshTrayMenu rebuilds the tray menu when what it shows has changed.
func (c *controller) refreshTrayMenu() {
	if c.shuttingDown {
		return
	}
	desk, ok := c.app.(desktop.App)
	if !ok {
		return
	}

	var launch, update *launcherAction
	for _, action := range c.actions {
		switch action.op {
		case launcher.OpLaunch:
			launch = action
		case launcher.OpUpdateModpack:
			update = action
		}
	}
	if launch == nil || update == nil {
		return
	}

	key := fmt.Sprint(c.diagOpen, launch.enabled(c.ready, c.snapshot), update.enabled(c.ready, c.snapshot), update.text(c.snapshot))
	if key == c.trayKey {
		return
	}
	c.trayKey = key

	openItem := fyne.NewMenuItem("Open Window", func() {
		c.win.Show()
		c.win.RequestFocus()
	})
	diagItem := fyne.NewMenuItem("Show Diagnostics", func() {
		c.setDiagnosticsVisibility(!c.diagOpen)
		c.refreshTrayMenu()
	})
	diagItem.Checked = c.diagOpen

	launchItem := fyne.NewMenuItem("Launch", func() {
		c.runAction(launch)
	})
	launchItem.Disabled = !launch.enabled(c.ready, c.snapshot)

	updateItem := fyne.NewMenuItem(update.text(c.snapshot), func() {
		c.runAction(update)
	})
	updateItem.Disabled = !update.enabled(c.ready, c.snapshot)

	exitItem := fyne.NewMenuItem("Exit", c.requestQuit)

	desk.SetSystemTrayMenu(fyne.NewMenu("Starbound Modpack Launcher",
		openItem,
		diagItem,
		fyne.NewMenuItemSeparator(),
		launchItem,
		updateItem,
		fyne.NewMenuItemSeparator(),
		exitItem,
	))
}
