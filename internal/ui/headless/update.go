package headless

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runctx"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/ui/health"
	headlessview "modpack-launcher/internal/ui/headless/view"
)

func (m *headlessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.quitting {
		if _, ok := msg.(quitNowMsg); ok {
			m.cleanup()
			return m, tea.Quit
		}
		return m, nil
	}

	if m.ui.FilePickerOpen {
		switch msg := msg.(type) {
		case tea.WindowSizeMsg:
			m.resize(msg)
			m.ui.ResizeFilePicker()
		case changedMsg:
			m.applySnapshot()
			return m, waitForChange(m.changeCh)
		case phaseMsg:
			m.applyRuntimePhase(string(msg))
			return m, waitForPhase(m.phaseCh)
		case tickMsg:
			m.ui = m.ui.WithTick()
			return m, tickCmd()
		case opResultMsg:
			m.applyOpResult(msg.result)
			return m, nil
		}
		return m.updateFilePickerMsg(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil
	case changedMsg:
		m.applySnapshot()
		return m, waitForChange(m.changeCh)
	case phaseMsg:
		m.applyRuntimePhase(string(msg))
		return m, waitForPhase(m.phaseCh)
	case readyMsg:
		m.applyRuntimePhase(runstatus.Ready)
		m.applySnapshot()
		return m, nil
	case restartMsg:
		m.logger.Info("launcher updated, quitting for the new build", logging.Field("version", versionOf(msg)))
		return m, m.beginQuitCmd()
	case runDoneMsg:
		m.ready = false
		if msg.err != nil {
			m.phase = runstatus.Failed
			m.ui.ErrorModalText = msg.err.Error()
		}
		return m, nil
	case startResultMsg:
		if msg.err != nil {
			m.phase = runstatus.Failed
			m.ui.ErrorModalText = msg.err.Error()
		}
		return m, nil
	case opResultMsg:
		m.applyOpResult(msg.result)
		return m, nil
	case pickRequestMsg:
		return m, tea.Batch(m.openPickerCmd(msg.request), m.waitForPick())
	case tickMsg:
		m.ui = m.ui.WithTick()
		if m.sinceHealthRefresh() >= health.RefreshRate {
			m.refreshInstallHealth()
		}
		return m, tickCmd()
	case tea.MouseMsg:
		return m.updateMouseMsg(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	next, cmd, ok := headlessview.ReduceInput(m.ui, msg)
	if ok {
		m.ui = next
		return m, cmd
	}
	return m, nil
}

func (m *headlessModel) resize(msg tea.WindowSizeMsg) {
	m.ui = m.ui.WithWindowSize(msg.Width, msg.Height)
	m.ui.ResizeLogs(headlessview.DefaultNonLogLayoutReserveMin, headlessview.DefaultMinLogPanelHeight)
	headlessview.ResizePaneViewports(&m.ui, m.runtimeView())
}

func (m *headlessModel) updateMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	next, cmd, effect := headlessview.ReduceMouse(m.ui, msg)
	m.ui = next
	switch effect {
	case headlessview.MouseEffectActivateFocused:
		return m, tea.Batch(cmd, m.activateFocusedControl())
	case headlessview.MouseEffectConfirmQuitAccept:
		return m, tea.Batch(cmd, m.beginQuitCmd())
	}
	return m, cmd
}

func (m *headlessModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, effect := headlessview.ReduceKey(m.ui, msg)
	m.ui = next
	switch effect {
	case headlessview.KeyEffectRequestQuit:
		return m, m.requestQuitCmd()
	case headlessview.KeyEffectActivateFocused:
		return m, m.activateFocusedControl()
	case headlessview.KeyEffectConfirmQuitAccept:
		return m, m.beginQuitCmd()
	case headlessview.KeyEffectPassThrough:
		nextState, cmd, ok := headlessview.ReduceInput(m.ui, msg)
		if ok {
			m.ui = nextState
			return m, cmd
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *headlessModel) activateFocusedControl() tea.Cmd {
	next, effect := headlessview.ReduceActivate(m.ui, m.runtimeView())
	m.ui = next
	o := m.orchestrator
	switch effect {
	case headlessview.ActivateEffectChangeLocation:
		return m.opCmd(o.ChangeLocation)
	case headlessview.ActivateEffectUpdate:
		return m.opCmd(o.UpdateModpack)
	case headlessview.ActivateEffectLaunch:
		return m.opCmd(o.Launch)
	case headlessview.ActivateEffectCheckIntegrity:
		return m.opCmd(o.CheckIntegrity)
	case headlessview.ActivateEffectRefresh:
		return m.opCmd(o.RefreshAvailableVersion)
	case headlessview.ActivateEffectClearLog:
		o.ClearLog()
		return nil
	case headlessview.ActivateEffectRequestQuit:
		return m.requestQuitCmd()
	default:
		return nil
	}
}

func (m *headlessModel) openPickerCmd(request pickRequest) tea.Cmd {
	if m.pendingPick != nil {
		request.answer("", launcher.ErrOperationInProgress)
		return nil
	}
	startDir := strings.TrimSpace(m.snapshot.Install.InstallLocation)
	if startDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			startDir = home
		}
	}
	if abs, err := filepath.Abs(startDir); err == nil {
		startDir = abs
	}
	if info, err := os.Stat(startDir); err != nil || !info.IsDir() {
		startDir = "."
		if abs, err := filepath.Abs(startDir); err == nil {
			startDir = abs
		}
	}
	m.pendingPick = &request
	m.ui.FilePicker.CurrentDirectory = startDir
	m.ui.FilePicker.Path = ""
	m.ui.FilePickerOpen = true
	m.ui.ResizeFilePicker()
	return m.ui.FilePicker.Init()
}

func (m *headlessModel) requestQuitCmd() tea.Cmd {
	if m.snapshot.Flags.Any() {
		m.ui.ConfirmQuit = true
		m.ui.ConfirmQuitChoice = headlessview.ConfirmQuitChoiceCancel
		return nil
	}
	return m.beginQuitCmd()
}

func quitProgramCmd() tea.Cmd {
	return tea.Sequence(func() tea.Msg {
		return tea.DisableMouse()
	}, waitForMouseDrainCmd(), func() tea.Msg {
		return quitNowMsg{}
	})
}

func waitForMouseDrainCmd() tea.Cmd {
	return func() tea.Msg {
		runctx.SleepOrDone(context.Background(), mouseDrainDelay)
		return nil
	}
}

func (m *headlessModel) beginQuitCmd() tea.Cmd {
	m.quitting = true
	m.ui.ConfirmQuit = false
	m.closePicker("", launcher.ErrPickerCanceled)
	return quitProgramCmd()
}

func (m *headlessModel) updateFilePickerMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			m.closePicker("", launcher.ErrPickerCanceled)
			return m, m.requestQuitCmd()
		case "esc":
			m.closePicker("", launcher.ErrPickerCanceled)
			return m, nil
		case "left", "backspace":
			parent := filepath.Dir(m.ui.FilePicker.CurrentDirectory)
			if parent == "" || parent == m.ui.FilePicker.CurrentDirectory {
				return m, nil
			}
			m.ui.FilePicker.CurrentDirectory = parent
			return m, m.ui.FilePicker.Init()
		case "enter":
			return m.selectCurrentFilePickerDir()
		}
	}
	var cmd tea.Cmd
	m.ui.FilePicker, cmd = m.ui.FilePicker.Update(msg)
	if ok, path := m.ui.FilePicker.DidSelectFile(msg); ok {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			path = filepath.Dir(path)
		}
		m.closePicker(path, nil)
		return m, nil
	}
	return m, cmd
}

func (m *headlessModel) selectCurrentFilePickerDir() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.ui.FilePicker.CurrentDirectory)
	if path == "" {
		path = "."
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m.closePicker(path, nil)
	return m, nil
}

// closePicker hides the file picker and answers the waiting ChangeLocation.
func (m *headlessModel) closePicker(path string, err error) {
	m.ui.FilePickerOpen = false
	if m.pendingPick == nil {
		return
	}
	m.pendingPick.answer(path, err)
	m.pendingPick = nil
}
