//go:build !headless

package gui

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/runtime"
	"modpack-launcher/internal/ui/health"
)

var (
	statusIdleColor    = color.NRGBA{R: 145, G: 145, B: 145, A: 255}
	statusBusyColor    = color.NRGBA{R: 219, G: 167, B: 74, A: 255}
	statusReadyColor   = color.NRGBA{R: 72, G: 189, B: 109, A: 255}
	statusErrorColor   = color.NRGBA{R: 220, G: 84, B: 84, A: 255}
	installActiveColor = color.NRGBA{R: 72, G: 189, B: 109, A: 255}
	installWarnColor   = color.NRGBA{R: 232, G: 145, B: 77, A: 255}
	installMissColor   = color.NRGBA{R: 220, G: 84, B: 84, A: 255}
	installWaitColor   = color.NRGBA{R: 120, G: 190, B: 255, A: 255}
)

const (
	tooltipCursorGap  = 10
	stopWaitTimeout   = 3 * time.Second
	loopsWaitTimeout  = 2 * time.Second
	runErrorExitCode  = 1
	logTimeFormat     = "15:04:05"
	installRowsLength = 3
)

type installRow struct {
	badge *statusBadge
	label *widget.Label
}

type controller struct {
	app          fyne.App
	win          fyne.Window
	logger       *logging.Logger
	runner       *runtime.Controller
	service      *runtime.Service
	orchestrator *launcher.Orchestrator
	buildVersion string

	statusBadge *statusBadge
	statusText  *widget.Label
	installRows []installRow
	summary     *widget.Label
	actions     []*launcherAction
	clearButton *widget.Button
	logList     *widget.List
	logEntries  []launcher.Entry

	diag          diagnosticLog
	diagWindow    fyne.Window
	diagOpen      bool
	diagGrid      *widget.TextGrid
	diagScroll    *container.Scroll
	diagCols      int
	followButton  *widget.Button
	followEnabled bool
	followJumping bool
	debugLogs     *widget.Check

	hoverTipLayer  *fyne.Container
	hoverTipShadow *canvas.Rectangle
	hoverTipCard   *fyne.Container
	hoverTipLabel  *widget.Label

	phase    string
	ready    bool
	snapshot launcher.Snapshot
	trayKey  string

	changeCh         chan struct{}
	cleanupOnce      sync.Once
	quitOnce         sync.Once
	bgWG             sync.WaitGroup
	unsubscribeLogs  func()
	unsubscribeState func()
	appCtx           context.Context
	appCancel        context.CancelFunc
	shuttingDown     bool
	confirmingQuit   bool
}

// Run shows the launcher window until it is closed. releaseLock is called
// before a launcher update starts the new build.
func Run(rootCtx context.Context, buildVersion string, opts config.Options, releaseLock func() error) {
	if saved, err := config.LoadSettings(); err == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}

	logger := logging.New(false)
	if logger == nil {
		panic("gui.Run: logging.New returned nil")
	}
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	defer func() {
		_ = logger.Close()
	}()

	uiApp := app.New()
	uiApp.Settings().SetTheme(newLauncherTheme())
	c, err := newController(rootCtx, uiApp, buildVersion, opts, logger, releaseLock)
	if err != nil {
		logger.Error("launcher setup failed", logging.Field("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(runErrorExitCode)
	}
	c.logger.Info("starting launcher UI", logging.Field("version", buildVersion))
	c.run()
}

func newController(rootCtx context.Context, uiApp fyne.App, buildVersion string, opts config.Options, logger *logging.Logger, releaseLock func() error) (*controller, error) {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	appCtx, appCancel := context.WithCancel(rootCtx)

	c := &controller{
		app:          uiApp,
		logger:       logger,
		runner:       runtime.NewController(appCtx),
		buildVersion: buildVersion,
		phase:        runstatus.CheckingForUpdate,
		changeCh:     make(chan struct{}, 1),
		appCtx:       appCtx,
		appCancel:    appCancel,
	}

	service, err := runtime.NewService(opts, logger, runtime.Deps{
		Picker: &folderPicker{
			win:    func() fyne.Window { return c.win },
			start:  func() string { return c.orchestrator.Snapshot().Install.InstallLocation },
			logger: logger.Named("picker"),
		},
		Version: buildVersion,
		// The window closes itself once the restart hook fires.
		Exit:           func(int) {},
		BeforeRelaunch: releaseLock,
	})
	if err != nil {
		appCancel()
		return nil, err
	}
	c.service = service
	c.orchestrator = service.Orchestrator()
	c.snapshot = c.orchestrator.Snapshot()

	uiApp.SetIcon(launcherIconResource())
	c.win = uiApp.NewWindow("Starbound Modpack Launcher")
	c.win.SetMaster()
	c.win.Resize(fyne.NewSize(640, 520))
	c.buildUI(opts)
	c.bindLogs()
	c.bindState()
	c.setupTray()
	c.app.Lifecycle().SetOnStopped(func() {
		c.logger.Debug("app lifecycle OnStopped hook triggered")
		c.cleanup()
	})
	return c, nil
}

func (c *controller) run() {
	c.applySnapshot()
	c.startInstallHealthLoop()
	go func() {
		<-c.appCtx.Done()
		fyne.Do(func() {
			if c.shuttingDown {
				return
			}
			c.logger.Info("root context canceled; shutting down launcher UI")
			c.quitApp()
		})
	}()
	c.win.SetOnClosed(func() {
		c.logger.Debug("main window OnClosed hook triggered")
		c.cleanup()
	})
	c.win.SetCloseIntercept(func() {
		c.logger.Debug("main window close intercepted: requesting quit")
		c.requestQuit()
	})

	c.win.Show()
	c.startLauncher()
	c.app.Run()
}

func (c *controller) startInstallHealthLoop() {
	c.startBackgroundLoop("install health", func(ctx context.Context) {
		ticker := time.NewTicker(health.RefreshRate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(c.refreshInstallHealth)
			}
		}
	})
}

func (c *controller) buildUI(opts config.Options) {
	tooltips := tooltipHandlers{
		Show: c.showHoverTooltip,
		Move: c.moveHoverTooltip,
		Hide: c.hideHoverTooltip,
	}
	c.statusBadge = newStatusBadge(tooltips)
	c.statusText = widget.NewLabel(c.phase)
	c.statusText.Truncation = fyne.TextTruncateEllipsis

	rowsBox := container.NewVBox()
	for range installRowsLength {
		row := installRow{badge: newStatusBadge(tooltips), label: widget.NewLabel("")}
		row.label.Truncation = fyne.TextTruncateEllipsis
		c.installRows = append(c.installRows, row)
		rowsBox.Add(container.NewBorder(nil, nil, container.NewCenter(row.badge), nil, row.label))
	}
	c.summary = widget.NewLabel("")
	c.summary.TextStyle = fyne.TextStyle{Bold: true}

	c.actions = newLauncherActions()
	buttons := make([]fyne.CanvasObject, 0, len(c.actions)+1)
	for _, a := range c.actions {
		a.button = widget.NewButton(a.label, func() {
			c.runAction(a)
		})
		if a.op == launcher.OpLaunch {
			a.button.Importance = widget.HighImportance
		}
		buttons = append(buttons, a.button)
	}
	c.clearButton = widget.NewButton("Clear log", func() {
		c.orchestrator.ClearLog()
	})
	buttons = append(buttons, c.clearButton)

	c.logList = widget.NewList(
		func() int { return len(c.logEntries) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("00:00:00 log line")
			label.Truncation = fyne.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(c.logEntries) {
				return
			}
			entry := c.logEntries[id]
			obj.(*widget.Label).SetText(entry.Time.Format(logTimeFormat) + " " + entry.Text)
		},
	)

	c.initDiagnosticsWindow(opts)
	diagButton := widget.NewButton("Diagnostics", func() {
		c.setDiagnosticsVisibility(true)
		c.refreshTrayMenu()
	})

	statusRow := container.NewBorder(nil, nil, container.NewHBox(widget.NewLabel("Status:"), c.statusBadge), diagButton, c.statusText)
	installPanel := container.NewBorder(widget.NewLabelWithStyle("Install", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), c.summary, nil, nil, rowsBox)
	overview := container.NewVBox(
		statusRow,
		widget.NewSeparator(),
		installPanel,
		c.verticalGap(6),
		container.NewGridWithColumns(3, buttons...),
	)
	logPanel := container.NewBorder(
		container.NewHBox(widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), layout.NewSpacer()),
		nil, nil, nil,
		c.logList,
	)

	minAnchor := canvas.NewRectangle(color.Transparent)
	minAnchor.SetMinSize(fyne.NewSize(560, 440))
	c.hoverTipLabel = widget.NewLabel("")
	c.hoverTipLabel.Wrapping = fyne.TextWrapOff
	hoverTipBG := canvas.NewRectangle(color.NRGBA{R: 44, G: 44, B: 44, A: 250})
	c.hoverTipShadow = canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: 120})
	c.hoverTipShadow.Hide()
	c.hoverTipCard = container.NewStack(hoverTipBG, container.NewPadded(c.hoverTipLabel))
	c.hoverTipCard.Hide()
	c.hoverTipLayer = container.NewWithoutLayout(c.hoverTipShadow, c.hoverTipCard)

	content := container.NewPadded(container.NewBorder(overview, nil, nil, nil, logPanel))
	c.win.SetContent(container.NewStack(minAnchor, content, c.hoverTipLayer))
}

func (c *controller) verticalGap(height float32) fyne.CanvasObject {
	spacer := canvas.NewRectangle(color.Transparent)
	spacer.SetMinSize(fyne.NewSize(1, height))
	return spacer
}

func (c *controller) showHoverTooltip(text string, anchor fyne.Position) {
	c.hoverTipLabel.SetText(text)
	size := c.hoverTipCard.MinSize()
	c.hoverTipCard.Resize(size)
	c.placeHoverTooltip(anchor, size)
	c.hoverTipShadow.Show()
	c.hoverTipCard.Show()
	c.hoverTipLayer.Refresh()
}

func (c *controller) moveHoverTooltip(anchor fyne.Position) {
	if !c.hoverTipCard.Visible() {
		return
	}
	c.placeHoverTooltip(anchor, c.hoverTipCard.Size())
	c.hoverTipLayer.Refresh()
}

func (c *controller) hideHoverTooltip() {
	c.hoverTipShadow.Hide()
	c.hoverTipCard.Hide()
	c.hoverTipLayer.Refresh()
}

func (c *controller) placeHoverTooltip(anchor fyne.Position, size fyne.Size) {
	const pad = float32(4)
	canvasSize := c.win.Canvas().Size()
	x := min(max(pad, anchor.X+tooltipCursorGap), max(pad, canvasSize.Width-size.Width-pad))
	y := min(max(pad, anchor.Y+tooltipCursorGap), max(pad, canvasSize.Height-size.Height-pad))
	c.hoverTipCard.Move(fyne.NewPos(x, y))
	c.hoverTipShadow.Resize(size)
	c.hoverTipShadow.Move(fyne.NewPos(x+2, y+2))
}

// applyStatus shows the orchestrator status line, or the startup phase
// until the first status arrives.
func (c *controller) applyStatus() {
	text := c.snapshot.Status
	if text == "" || !c.ready {
		text = c.phase
	}
	c.statusText.SetText(text)

	fill, reason := statusIdleColor, ""
	key := runstatus.Key(text)
	switch {
	case strings.Contains(key, runstatus.KeyFailed) || strings.Contains(key, "error"):
		fill, reason = statusErrorColor, "The last operation failed. See the log."
	case runstatus.IsBusy(text) || c.snapshot.Flags.Any():
		fill, reason = statusBusyColor, c.busyReason()
	case c.ready:
		fill = statusReadyColor
	}
	c.statusBadge.SetStatus(fill, reason)
}

func (c *controller) busyReason() string {
	if c.snapshot.Flags.Any() {
		return "Running: " + c.snapshot.Flags.String()
	}
	return c.phase
}

func (c *controller) refreshInstallHealth() {
	rows, summary := health.Compute(c.snapshot.Install)
	for i, row := range rows {
		if i >= len(c.installRows) {
			break
		}
		c.installRows[i].label.SetText(row.Name + ": " + row.Value)
		c.installRows[i].badge.SetStatus(installKindColor(row.Kind), row.Reason)
	}
	c.summary.SetText(summary)
}

func installKindColor(kind health.Kind) color.NRGBA {
	switch kind {
	case health.Active:
		return installActiveColor
	case health.Warn:
		return installWarnColor
	case health.Pending:
		return installWaitColor
	default:
		return installMissColor
	}
}
