package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runstatus"
	"modpack-launcher/internal/selfupdate"
)

// Controller runs the startup sequence of a Service on its own goroutine:
// the self-update cycle first, then bootstrap, then the background parts
// until Stop.
type Controller struct {
	rootCtx context.Context
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

type StartHooks struct {
	// OnPhase receives the runstatus startup headline.
	OnPhase func(string)
	OnReady func(*launcher.Orchestrator)
	// OnRestart is called instead of OnReady when a launcher update was
	// installed and the new build has been started.
	OnRestart func(selfupdate.Outcome)
	OnExit    func(error)
}

func NewController(rootCtx context.Context) *Controller {
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	return &Controller{rootCtx: rootCtx}
}

func (c *Controller) Start(service *Service, logger *logging.Logger, hooks StartHooks) error {
	if logger == nil {
		panic("runtime.Controller.Start: logger must not be nil")
	}
	if service == nil {
		return errors.New("no launcher service to start")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("launcher is already running")
	}

	ctx, cancel := context.WithCancel(c.rootCtx)
	c.cancel = cancel
	c.running = true
	c.wg.Go(func() {
		defer cancel()
		runErr := c.run(ctx, service, logger, hooks)
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			logger.Debug("launcher session exited due to context cancellation", logging.Field("error", runErr))
			runErr = nil
		} else if runErr != nil {
			logger.Warn("launcher session exited with error", logging.Field("error", runErr))
		} else {
			logger.Info("launcher session exited")
		}
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()

		if hooks.OnExit != nil {
			hooks.OnExit(runErr)
		}
	})
	return nil
}

func (c *Controller) run(ctx context.Context, service *Service, logger *logging.Logger, hooks StartHooks) error {
	phase := func(status string) {
		logger.Debug("startup phase", logging.Field("phase", status))
		if hooks.OnPhase != nil {
			hooks.OnPhase(status)
		}
	}
	orchestrator := service.Orchestrator()

	phase(runstatus.CheckingForUpdate)
	if service.updates != nil {
		service.updates.OnState = func(state string) {
			switch state {
			case selfupdate.StateDownloading:
				phase(runstatus.UpdatingLauncher)
			case selfupdate.StateRestarting:
				phase(runstatus.Restarting)
			}
		}
	}
	release, err := orchestrator.Guard(launcher.OpSelfUpdate)
	if err != nil {
		return err
	}
	outcome := service.SelfUpdate(ctx)
	release()
	if outcome.Restarting() {
		if hooks.OnRestart != nil {
			hooks.OnRestart(outcome)
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	background := make(chan error, 1)
	go func() {
		background <- service.RunContext(ctx)
	}()

	phase(runstatus.Loading)
	if err := service.WaitBackend(ctx); err != nil {
		logger.Warn("backend did not become ready", logging.Field("error", err.Error()))
	}
	if err := orchestrator.Bootstrap(ctx); err != nil {
		logger.Warn("initial refresh incomplete", logging.Field("error", err.Error()))
	}
	phase(runstatus.Ready)
	if hooks.OnReady != nil {
		hooks.OnReady(orchestrator)
	}

	runErr := <-background
	orchestrator.Close()
	return runErr
}

func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) Wait(timeout time.Duration) bool {
	waitDone := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waitDone)
	}()
	if timeout <= 0 {
		<-waitDone
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-waitDone:
		return true
	case <-timer.C:
		return false
	}
}

func (c *Controller) StopAndWait(timeout time.Duration) bool {
	c.Stop()
	return c.Wait(timeout)
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
