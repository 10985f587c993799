package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/looplab/fsm"

	"modpack-launcher/internal/logging"
)

const (
	StateIdle            = "idle"
	StateChecking        = "checking"
	StateNoUpdate        = "no_update"
	StateUpdateAvailable = "update_available"
	StateDownloading     = "downloading"
	StateInstalled       = "installed"
	StateRestarting      = "restarting"
	StateFailed          = "failed"
)

const (
	eventCheck    = "check"
	eventNoUpdate = "up_to_date"
	eventFound    = "found"
	eventDownload = "download"
	eventInstall  = "install"
	eventRestart  = "restart"
	eventFail     = "fail"
)

// Log receives the user-facing lines of the update cycle.
type Log interface {
	Append(text string)
}

// ReadyLine is logged when the cycle finds nothing to install.
const ReadyLine = "Ready"

// Outcome is how an update cycle ended. Restarting means Relaunch succeeded
// and the caller should stop; every other outcome continues to bootstrap.
type Outcome struct {
	State  string
	Update *UpdateDescriptor
	Err    error
}

func (o Outcome) Restarting() bool {
	return o.State == StateRestarting
}

// Controller runs the launcher's self-update cycle once per process.
type Controller struct {
	updater Updater
	log     Log
	logger  *logging.Logger
	machine *fsm.FSM

	// OnState, if set, is called after every transition.
	OnState func(state string)

	once    sync.Once
	outcome Outcome

	total      int64
	downloaded int64
}

func NewController(updater Updater, log Log, logger *logging.Logger) *Controller {
	if logger == nil {
		panic("selfupdate.NewController: logger must not be nil")
	}
	if updater == nil || log == nil {
		panic("selfupdate.NewController: updater and log must not be nil")
	}
	c := &Controller{
		updater: updater,
		log:     log,
		logger:  logger.Named("selfupdate"),
	}
	c.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventCheck, Src: []string{StateIdle}, Dst: StateChecking},
			{Name: eventNoUpdate, Src: []string{StateChecking}, Dst: StateNoUpdate},
			{Name: eventFound, Src: []string{StateChecking}, Dst: StateUpdateAvailable},
			{Name: eventDownload, Src: []string{StateUpdateAvailable}, Dst: StateDownloading},
			{Name: eventInstall, Src: []string{StateDownloading}, Dst: StateInstalled},
			{Name: eventRestart, Src: []string{StateInstalled}, Dst: StateRestarting},
			{Name: eventFail, Src: []string{StateChecking, StateUpdateAvailable, StateDownloading, StateInstalled, StateRestarting}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Debug("update state", logging.Field("from", e.Src), logging.Field("to", e.Dst))
				if c.OnState != nil {
					c.OnState(e.Dst)
				}
			},
			"enter_" + StateNoUpdate: func(context.Context, *fsm.Event) {
				c.log.Append(ReadyLine)
			},
			"enter_" + StateUpdateAvailable: func(_ context.Context, e *fsm.Event) {
				if update := descriptorArg(e.Args); update != nil {
					c.log.Append(fmt.Sprintf("Found update %s from %s with notes %s", update.Version, update.Date, update.Body))
				}
			},
			"enter_" + StateFailed: func(_ context.Context, e *fsm.Event) {
				err := errorArg(e.Args)
				c.logger.Warn("launcher update failed", logging.Field("from", e.Src), logging.Field("error", errorString(err)))
				c.log.Append("Error checking for updates: " + errorString(err))
			},
		},
	)
	return c
}

// State returns the current state of the cycle.
func (c *Controller) State() string {
	return c.machine.Current()
}

// Run executes the cycle the first time it is called and returns the same
// outcome on every later call. Errors never escape as failures of Run; they
// are logged and reported in Outcome.Err.
func (c *Controller) Run(ctx context.Context) Outcome {
	c.once.Do(func() {
		c.outcome = c.run(ctx)
	})
	return c.outcome
}

func (c *Controller) run(ctx context.Context) Outcome {
	// Transitions must still happen after ctx is canceled, otherwise the
	// machine would be stuck in its last state.
	fsmCtx := context.WithoutCancel(ctx)
	c.fire(fsmCtx, eventCheck)

	update, err := c.updater.Check(ctx)
	if err != nil {
		return c.fail(fsmCtx, nil, "check", err)
	}
	if update == nil {
		c.fire(fsmCtx, eventNoUpdate)
		return Outcome{State: c.State()}
	}

	c.fire(fsmCtx, eventFound, update)
	c.fire(fsmCtx, eventDownload)
	finished := false
	err = c.updater.DownloadAndInstall(ctx, update, func(event ProgressEvent) {
		switch event.Kind {
		case ProgressStarted:
			c.total = 0
			if event.ContentLength != nil {
				c.total = *event.ContentLength
			}
			c.downloaded = 0
		case ProgressChunk:
			c.downloaded += event.ChunkLength
			c.log.Append(fmt.Sprintf("Downloaded %d from %d", c.downloaded, c.total))
			c.logger.Debug("update download progress",
				logging.Field("downloaded", humanize.IBytes(uint64(max(c.downloaded, 0)))),
				logging.Field("total", humanize.IBytes(uint64(max(c.total, 0)))),
			)
		case ProgressFinished:
			finished = true
		}
	})
	if err != nil {
		return c.fail(fsmCtx, update, "download", err)
	}
	if !finished {
		c.logger.Debug("update installed without a finished event", logging.Field("version", update.Version))
	}

	c.fire(fsmCtx, eventInstall)
	c.log.Append("Update installed, restarting")
	c.fire(fsmCtx, eventRestart)
	if err := c.updater.Relaunch(); err != nil {
		return c.fail(fsmCtx, update, "relaunch", err)
	}
	return Outcome{State: c.State(), Update: update}
}

func (c *Controller) fail(ctx context.Context, update *UpdateDescriptor, stage string, err error) Outcome {
	c.fire(ctx, eventFail, err)
	return Outcome{State: c.State(), Update: update, Err: fmt.Errorf("%s: %w", stage, err)}
}

func (c *Controller) fire(ctx context.Context, event string, args ...any) {
	if err := c.machine.Event(ctx, event, args...); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return
		}
		c.logger.Error("update state machine rejected event", logging.Field("event", event), logging.Field("state", c.machine.Current()), logging.Field("error", err.Error()))
	}
}

func descriptorArg(args []any) *UpdateDescriptor {
	if len(args) == 0 {
		return nil
	}
	update, _ := args[0].(*UpdateDescriptor)
	return update
}

func errorArg(args []any) error {
	if len(args) == 0 {
		return nil
	}
	err, _ := args[0].(error)
	return err
}

func errorString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
