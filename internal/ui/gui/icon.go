//go:build !headless

package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

func launcherIconResource() fyne.Resource {
	return theme.NewPrimaryThemedResource(theme.MediaPlayIcon())
}

func AppIconResource() fyne.Resource {
	return launcherIconResource()
}
