//go:build !headless

package gui

import (
	"context"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
)

func (c *controller) initDiagnosticsWindow(opts config.Options) {
	c.diagGrid = widget.NewTextGrid()
	c.diagGrid.Scroll = fyne.ScrollNone
	c.diagScroll = container.NewVScroll(c.diagGrid)
	c.followEnabled = true
	c.diagCols = c.diagWrapColumns()

	c.debugLogs = widget.NewCheck("Debug level", func(v bool) {
		c.logger.SetDebugEnabled(v)
		c.persistDebug(v)
	})
	c.debugLogs.SetChecked(opts.Debug)

	c.followButton = widget.NewButton("Following", func() {
		c.setFollowEnabled(true)
		c.scrollDiagnosticsToBottom()
	})
	c.followButton.Disable()
	copyButton := widget.NewButton("Copy", func() {
		c.app.Clipboard().SetContent(c.diag.plainText())
	})
	clearButton := widget.NewButton("Clear", func() {
		c.diag.clear()
		c.refreshDiagnosticsView()
	})

	c.diagWindow = c.app.NewWindow("Launcher Diagnostics")
	c.diagWindow.Resize(fyne.NewSize(900, 520))
	header := container.NewBorder(nil, nil, container.NewHBox(clearButton, copyButton), c.followButton,
		container.NewHBox(c.debugLogs, layout.NewSpacer()))
	background := canvas.NewRectangle(color.NRGBA{A: 255})
	c.diagScroll.OnScrolled = func(pos fyne.Position) {
		if c.followJumping {
			return
		}
		if !c.diagAtBottom(pos) {
			c.setFollowEnabled(false)
		}
	}
	c.diagWindow.SetContent(container.NewBorder(header, nil, nil, nil, container.NewStack(background, c.diagScroll)))
	c.diagWindow.SetCloseIntercept(func() {
		if c.shuttingDown {
			return
		}
		c.setDiagnosticsVisibility(false)
		c.refreshTrayMenu()
	})

	c.watchDiagnosticsWidth()
}

func (c *controller) persistDebug(enabled bool) {
	store, err := config.OpenDefaultStore()
	if err != nil {
		c.logger.Warn("cannot open settings", logging.Field("error", err))
		return
	}
	if err := store.Update(func(s *config.LauncherSettings) { s.Debug = enabled }); err != nil {
		c.logger.Warn("failed to save debug setting", logging.Field("error", err))
	}
}

func (c *controller) setDiagnosticsVisibility(visible bool) {
	c.diagOpen = visible
	if !visible {
		c.diagWindow.Hide()
		return
	}
	c.diagWindow.Show()
	c.diagWindow.RequestFocus()
	if c.followEnabled {
		c.scrollDiagnosticsToBottom()
	}
}

func (c *controller) appendDiagnostic(event logging.Event) {
	c.diag.add(event)
	c.refreshDiagnosticsView()
}

func (c *controller) refreshDiagnosticsView() {
	c.diagGrid.Rows = c.diag.rows(c.diagCols)
	c.diagGrid.Refresh()
	if c.followEnabled {
		c.scrollDiagnosticsToBottom()
	}
}

func (c *controller) setFollowEnabled(enabled bool) {
	c.followEnabled = enabled
	if enabled {
		c.followButton.SetText("Following")
		c.followButton.Disable()
		return
	}
	c.followButton.SetText("Follow")
	c.followButton.Enable()
}

func (c *controller) scrollDiagnosticsToBottom() {
	c.followJumping = true
	c.diagScroll.ScrollToBottom()
	c.followJumping = false
}

func (c *controller) diagAtBottom(pos fyne.Position) bool {
	contentHeight := c.diagGrid.MinSize().Height
	viewportHeight := c.diagScroll.Size().Height
	if contentHeight <= viewportHeight+1 {
		return true
	}
	return pos.Y+viewportHeight >= contentHeight-1
}

func (c *controller) watchDiagnosticsWidth() {
	c.startBackgroundLoop("diagnostics wrap watcher", func(ctx context.Context) {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(func() {
					next := c.diagWrapColumns()
					if next == c.diagCols {
						return
					}
					c.diagCols = next
					c.refreshDiagnosticsView()
				})
			}
		}
	})
}

func (c *controller) diagWrapColumns() int {
	widthPx := c.diagScroll.Size().Width
	if widthPx <= 0 {
		widthPx = 900
	}
	charSize := fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
	if charSize.Width <= 0 {
		return 120
	}
	return min(max(int(widthPx/charSize.Width), 40), 240) - 2
}
