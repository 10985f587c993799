//go:build !headless

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var launcherAccent = color.NRGBA{R: 236, G: 140, B: 56, A: 255}

// launcherTheme is the default dark theme with an orange accent.
type launcherTheme struct {
	base fyne.Theme
}

func newLauncherTheme() fyne.Theme {
	return &launcherTheme{base: theme.DefaultTheme()}
}

func (t *launcherTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return launcherAccent
	case theme.ColorNameSelection:
		return color.NRGBA{R: launcherAccent.R, G: launcherAccent.G, B: launcherAccent.B, A: 90}
	}
	return t.base.Color(name, theme.VariantDark)
}

func (t *launcherTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *launcherTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *launcherTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.base.Size(name)
}
