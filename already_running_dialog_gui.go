//go:build !headless

package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"modpack-launcher/internal/ui/gui"
)

func showAlreadyRunningDialog() {
	uiApp := app.New()
	uiApp.SetIcon(gui.AppIconResource())
	win := uiApp.NewWindow("Starbound Modpack Launcher")
	win.SetFixedSize(true)
	win.Resize(fyne.NewSize(420, 140))

	message := widget.NewLabel("The launcher is already running.\nUse its window or tray icon instead.")
	message.Alignment = fyne.TextAlignCenter
	ok := widget.NewButton("OK", uiApp.Quit)
	ok.Importance = widget.HighImportance
	buttons := container.NewHBox(layout.NewSpacer(), container.NewGridWrap(fyne.NewSize(104, 34), ok))

	win.SetContent(container.NewPadded(container.NewBorder(message, buttons, nil, nil, nil)))
	win.SetCloseIntercept(uiApp.Quit)
	win.Show()
	uiApp.Run()
}
