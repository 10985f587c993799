package headless

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runctx"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/runtime"
	headlessview "modpack-launcher/internal/ui/headless/view"
)

const (
	phaseChannelBufferSize = 16
	updateTickInterval     = 120 * time.Millisecond
	mouseDrainDelay        = 120 * time.Millisecond
	stopWaitTimeout        = 5 * time.Second
	runErrorExitCode       = 1
)

func Run(rootCtx context.Context, buildVersion string, opts config.Options, releaseLock func() error) {
	defer forceDisableMouseTracking()

	if saved, loadErr := config.LoadSettings(); loadErr == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}

	logger := logging.New(false)
	if logger == nil {
		panic("headless.Run: logging.New returned nil")
	}
	logger.SetDebugEnabled(opts.Debug)
	if err := logger.EnableFilePersistence(0); err != nil {
		logger.Warn("failed to enable file log persistence", logging.Field("error", err))
	}
	logger.SetConsoleOutputEnabled(false)
	defer func() {
		_ = logger.Close()
	}()
	logger.Info("starting launcher TUI", logging.Field("version", buildVersion))

	pickCh := make(chan pickRequest)
	service, err := runtime.NewService(opts, logger, runtime.Deps{
		Picker:  &directoryPicker{requests: pickCh, logger: logger.Named("picker")},
		Version: buildVersion,
		// The program quits on its own once the restart hook fires.
		Exit:           func(int) {},
		BeforeRelaunch: releaseLock,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(runErrorExitCode)
	}

	m := newHeadlessModel(rootCtx, buildVersion, service, pickCh, logger)
	zone.NewGlobal()
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	m.program = program
	result, runErr := program.Run()
	model, _ := result.(*headlessModel)
	if model != nil {
		model.cleanup()
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(runErrorExitCode)
	}
}

func forceDisableMouseTracking() {
	_, _ = os.Stdout.WriteString("\x1b[?1000l\x1b[?1002l\x1b[?1003l\x1b[?1006l\x1b[?1015l")
}

func newHeadlessModel(rootCtx context.Context, buildVersion string, service *runtime.Service, pickCh chan pickRequest, logger *logging.Logger) *headlessModel {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	runCtx, runCancel := context.WithCancel(rootCtx)

	orchestrator := service.Orchestrator()
	m := &headlessModel{
		buildVersion: buildVersion,
		modelDeps: modelDeps{
			runner:       runtime.NewController(runCtx),
			service:      service,
			orchestrator: orchestrator,
			logger:       logger,
			rootCtx:      runCtx,
			rootCancel:   runCancel,
		},
		modelChannels: modelChannels{
			changeCh: make(chan struct{}, 1),
			phaseCh:  make(chan string, phaseChannelBufferSize),
			pickCh:   pickCh,
		},
		modelRuntime: modelRuntime{
			phase:    runstatus.CheckingForUpdate,
			snapshot: orchestrator.Snapshot(),
		},
		ui: headlessview.NewState(),
	}
	m.refreshInstallHealth()

	m.unsubscribe = orchestrator.Subscribe(func() {
		select {
		case m.changeCh <- struct{}{}:
		default:
		}
	})

	return m
}

func (m *headlessModel) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(m.changeCh),
		waitForPhase(m.phaseCh),
		m.waitForPick(),
		tickCmd(),
		m.startLauncherCmd(),
	)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func waitForPhase(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		phase, ok := <-ch
		if !ok {
			return nil
		}
		return phaseMsg(phase)
	}
}

func (m *headlessModel) waitForPick() tea.Cmd {
	ctx, ch, logger := m.rootCtx, m.pickCh, m.logger
	return func() tea.Msg {
		request, ok := runctx.RecvOrDone(ctx, "directory picker requests", logger, ch)
		if !ok {
			return nil
		}
		return pickRequestMsg{request: request}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(updateTickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
