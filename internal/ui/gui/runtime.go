//go:build !headless

package gui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runctx"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/runtime"
	"modpack-launcher/internal/selfupdate"
)

func waitGroupWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (c *controller) startBackgroundLoop(name string, fn func(context.Context)) {
	c.bgWG.Go(func() {
		c.logger.Debug("background loop started", logging.Field("loop", name))
		fn(c.appCtx)
		c.logger.Debug("background loop stopped", logging.Field("loop", name))
	})
}

func (c *controller) bindLogs() {
	eventCh := make(chan logging.Event, 256)
	c.unsubscribeLogs = c.logger.Subscribe(func(event logging.Event) {
		select {
		case eventCh <- event:
		default:
			select {
			case <-eventCh:
			default:
			}
			eventCh <- event
		}
	})

	c.startBackgroundLoop("gui log pump", func(ctx context.Context) {
		for {
			event, ok := runctx.RecvOrDone(ctx, "GUI log pump", c.logger, eventCh)
			if !ok {
				return
			}
			fyne.Do(func() {
				c.appendDiagnostic(event)
			})
		}
	})
}

// bindState coalesces orchestrator notifications into one pending redraw.
func (c *controller) bindState() {
	c.unsubscribeState = c.orchestrator.Subscribe(func() {
		select {
		case c.changeCh <- struct{}{}:
		default:
		}
	})

	c.startBackgroundLoop("gui state pump", func(ctx context.Context) {
		for {
			if _, ok := runctx.RecvOrDone(ctx, "GUI state pump", c.logger, c.changeCh); !ok {
				return
			}
			fyne.Do(c.applySnapshot)
		}
	})
}

func (c *controller) startLauncher() {
	err := c.runner.Start(c.service, c.logger, runtime.StartHooks{
		OnPhase: func(phase string) {
			fyne.Do(func() {
				c.applyPhase(phase)
			})
		},
		OnReady: func(*launcher.Orchestrator) {
			fyne.Do(func() {
				c.ready = true
				c.applySnapshot()
			})
		},
		OnRestart: func(outcome selfupdate.Outcome) {
			version := ""
			if outcome.Update != nil {
				version = outcome.Update.Version
			}
			c.logger.Info("launcher updated; closing for restart", logging.Field("version", version))
			fyne.Do(c.quitApp)
		},
		OnExit: func(runErr error) {
			fyne.Do(func() {
				if runErr == nil || c.shuttingDown {
					return
				}
				c.applyPhase(runstatus.Failed)
				dialog.ShowError(runErr, c.win)
			})
		},
	})
	if err != nil {
		c.applyPhase(runstatus.Failed)
		dialog.ShowError(err, c.win)
	}
}

func (c *controller) applyPhase(phase string) {
	c.phase = phase
	if runstatus.Key(phase) == runstatus.KeyReady {
		c.ready = true
	}
	c.applySnapshot()
}

func (c *controller) applySnapshot() {
	previous := c.snapshot.Install
	c.snapshot = c.orchestrator.Snapshot()

	c.applyStatus()
	for _, action := range c.actions {
		action.apply(c.ready, c.snapshot)
	}
	c.logEntries = c.orchestrator.Log().Entries()
	c.logList.Refresh()
	if c.snapshot.Install != previous || c.summary.Text == "" {
		c.refreshInstallHealth()
	}
	c.refreshTrayMenu()
}

func (c *controller) runAction(action *launcherAction) {
	run, ctx := action.run, c.appCtx
	go func() {
		result := run(c.orchestrator, ctx)
		fyne.Do(func() {
			c.applyOpResult(result)
		})
	}()
}

// applyOpResult surfaces failures in a dialog. The orchestrator has already
// written them to the log.
func (c *controller) applyOpResult(result launcher.Result) {
	switch {
	case result.Ok(), result.Canceled, c.shuttingDown:
		return
	case errors.Is(result.Err, launcher.ErrOperationInProgress):
		c.logger.Debug("operation already running", logging.Field("op", result.Op.String()))
	case errors.Is(result.Err, context.Canceled):
		return
	default:
		dialog.ShowError(fmt.Errorf("%s failed: %s", result.Op, backend.ErrorText(result.Err)), c.win)
	}
}

func (c *controller) cleanup() {
	c.cleanupOnce.Do(func() {
		c.shuttingDown = true
		c.logger.Debug("gui cleanup started")
		if c.appCancel != nil {
			c.logger.Debug("canceling GUI root context")
			c.appCancel()
		}
		if c.unsubscribeState != nil {
			c.unsubscribeState()
		}
		if c.unsubscribeLogs != nil {
			c.logger.Debug("unsubscribing GUI log listener")
			c.unsubscribeLogs()
		}
		c.logger.Debug("waiting for GUI background loops to stop")
		if ok := waitGroupWithTimeout(&c.bgWG, loopsWaitTimeout); !ok {
			c.logger.Warn("GUI background loops did not stop within timeout")
		}
		c.logger.Debug("stopping runtime controller")
		if ok := c.runner.StopAndWait(stopWaitTimeout); !ok {
			c.logger.Warn("runtime controller did not stop within timeout")
		} else {
			c.logger.Debug("runtime controller stopped")
		}
		c.logger.Debug("gui cleanup complete")
	})
}

func (c *controller) quitApp() {
	c.quitOnce.Do(func() {
		c.logger.Debug("quit requested")
		c.cleanup()
		c.logger.Debug("calling fyne app quit")
		c.app.Quit()
	})
}

// requestQuit asks for confirmation while an operation is still running.
func (c *controller) requestQuit() {
	if c.shuttingDown {
		return
	}
	if !c.orchestrator.Snapshot().Flags.Any() {
		c.quitApp()
		return
	}
	if c.confirmingQuit {
		return
	}
	c.confirmingQuit = true
	dialog.ShowConfirm(
		"Quit while busy?",
		"Running operations will be interrupted.",
		func(ok bool) {
			c.confirmingQuit = false
			if !ok {
				return
			}
			c.quitApp()
		},
		c.win,
	)
}
