package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/runtime"
	"modpack-launcher/internal/selfupdate"
	"modpack-launcher/internal/ui/health"
)

func (m *headlessModel) startLauncherCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.runner.Start(m.service, m.logger, runtime.StartHooks{
			OnPhase:   m.onRuntimePhase,
			OnReady:   m.onRuntimeReady,
			OnRestart: m.onRuntimeRestart,
			OnExit:    m.onRuntimeExit,
		})
		return startResultMsg{err: err}
	}
}

func (m *headlessModel) onRuntimePhase(phase string) {
	select {
	case m.phaseCh <- phase:
	default:
		select {
		case <-m.phaseCh:
		default:
		}
		m.phaseCh <- phase
	}
}

func (m *headlessModel) onRuntimeReady(*launcher.Orchestrator) {
	m.send(readyMsg{})
}

func (m *headlessModel) onRuntimeRestart(outcome selfupdate.Outcome) {
	m.send(restartMsg{outcome: outcome})
}

func (m *headlessModel) onRuntimeExit(runErr error) {
	m.send(runDoneMsg{err: runErr})
}

func (m *headlessModel) send(msg tea.Msg) {
	if m.program == nil {
		return
	}
	m.program.Send(msg)
}

func (m *headlessModel) applyRuntimePhase(phase string) {
	m.phase = phase
	if runstatus.Key(phase) == runstatus.KeyReady {
		m.ready = true
	}
}

func (m *headlessModel) applySnapshot() {
	previous := m.snapshot.Install
	m.snapshot = m.orchestrator.Snapshot()
	if m.snapshot.Install != previous {
		m.refreshInstallHealth()
	}
	m.ui.SetLogEntries(m.orchestrator.Log().Entries())
}

func (m *headlessModel) refreshInstallHealth() {
	m.lastHealthRefresh = time.Now()
	m.install, m.installSummary = health.Compute(m.snapshot.Install)
}

// opCmd runs one orchestrator operation off the update loop. Operations
// report failures in the log themselves; the result only drives the modal.
func (m *headlessModel) opCmd(run func(context.Context) launcher.Result) tea.Cmd {
	ctx := m.rootCtx
	return func() tea.Msg {
		return opResultMsg{result: run(ctx)}
	}
}

func (m *headlessModel) applyOpResult(result launcher.Result) {
	switch {
	case result.Ok(), result.Canceled:
		return
	case errors.Is(result.Err, launcher.ErrOperationInProgress):
		m.logger.Debug("operation already running", logging.Field("op", result.Op.String()))
	case errors.Is(result.Err, context.Canceled):
		return
	default:
		m.ui.ErrorModalText = fmt.Sprintf("%s failed: %s", result.Op, backend.ErrorText(result.Err))
	}
}

func (m *headlessModel) cleanup() {
	m.cleanupOnce.Do(func() {
		m.logger.Debug("headless cleanup started")

		if m.pendingPick != nil {
			m.pendingPick.answer("", launcher.ErrPickerCanceled)
			m.pendingPick = nil
		}

		if m.rootCancel != nil {
			m.logger.Debug("canceling headless root context")
			m.rootCancel()
		}

		if m.unsubscribe != nil {
			m.logger.Debug("unsubscribing headless state listener")
			m.unsubscribe()
		}

		m.logger.Debug("stopping runtime controller")
		if !m.runner.StopAndWait(stopWaitTimeout) {
			m.logger.Warn("runtime controller did not stop in time")
		}

		m.logger.Debug("headless cleanup complete")
	})
}

func (m *headlessModel) sinceHealthRefresh() time.Duration {
	return time.Since(m.lastHealthRefresh)
}

func versionOf(msg restartMsg) string {
	if msg.outcome.Update == nil {
		return ""
	}
	return msg.outcome.Update.Version
}
