package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/logging"
)

// Commands is the subset of backend commands the orchestrator drives.
// *backend.Facade implements it.
type Commands interface {
	LoadInstallLocation(ctx context.Context) (string, error)
	GetInstalledVersion(ctx context.Context) (string, error)
	GetAvailableVersion(ctx context.Context) (string, error)
	SetInstallLocation(ctx context.Context, location string) error
	Update(ctx context.Context) error
	Launch(ctx context.Context) error
	CheckIntegrity(ctx context.Context) error
}

// Orchestrator owns the install state and the per-operation busy flags. All
// operations may be called from any goroutine; each one blocks until its
// backend calls return.
type Orchestrator struct {
	cmds   Commands
	bridge *Bridge
	picker DirectoryPicker
	log    *Aggregator
	logger *logging.Logger

	mu      sync.Mutex
	init    InitState
	install InstallState
	flags   OperationFlags

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func()
}

type Options struct {
	Commands Commands
	Events   backend.EventSource
	Picker   DirectoryPicker
	Log      *Aggregator
}

func New(opts Options, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		panic("launcher.New: logger must not be nil")
	}
	if opts.Commands == nil || opts.Events == nil {
		panic("launcher.New: commands and events must not be nil")
	}
	if opts.Log == nil {
		opts.Log = NewAggregator(0)
	}
	if opts.Picker == nil {
		opts.Picker = PickerFunc(func(context.Context) (string, error) { return "", ErrPickerCanceled })
	}
	o := &Orchestrator{
		cmds:    opts.Commands,
		bridge:  NewBridge(opts.Events, opts.Log),
		picker:  opts.Picker,
		log:     opts.Log,
		logger:  logger.Named("launcher"),
		install: DefaultInstallState(),
		subs:    map[int]func(){},
	}
	opts.Log.Subscribe(o.notify)
	return o
}

func (o *Orchestrator) Log() *Aggregator {
	return o.log
}

// Close detaches the backend event subscriptions. The snapshot and the log
// stay readable.
func (o *Orchestrator) Close() {
	o.bridge.Stop()
	o.logger.Debug("event subscriptions closed")
}

// Bootstrap subscribes to backend events and then loads the install state.
// Only the first call does anything; later or concurrent calls return nil
// immediately. The orchestrator is Ready afterwards even if loading failed.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	o.mu.Lock()
	if o.init != Uninitialized {
		o.mu.Unlock()
		return nil
	}
	o.init = Initializing
	o.mu.Unlock()
	o.notify()

	defer func() {
		o.mu.Lock()
		o.init = Ready
		o.mu.Unlock()
		o.notify()
	}()

	var errs []error
	if err := o.bridge.Start(); err != nil {
		o.logger.Warn("event subscription failed", logging.Field("error", err.Error()))
		o.log.Append("Event subscription failed: " + backend.ErrorText(err))
		errs = append(errs, err)
	}
	if err := o.Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	o.logger.Info("bootstrap complete", logging.Field("state", o.Snapshot().Install))
	return errors.Join(errs...)
}

// Refresh loads the install location, the installed version and the
// available version, in that order. Each value is applied as soon as it
// arrives; the first failure stops the sequence and leaves the remaining
// fields untouched.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	err := o.refresh(ctx)
	if err != nil {
		o.log.Append("Loading install state failed: " + backend.ErrorText(err))
	}
	return err
}

func (o *Orchestrator) refresh(ctx context.Context) error {
	steps := []struct {
		name  string
		fetch func(context.Context) (string, error)
		apply func(*InstallState, string)
	}{
		{"install location", o.cmds.LoadInstallLocation, func(s *InstallState, v string) { s.InstallLocation = v }},
		{"installed version", o.cmds.GetInstalledVersion, func(s *InstallState, v string) { s.InstalledVersion = v }},
		{"available version", o.cmds.GetAvailableVersion, func(s *InstallState, v string) { s.AvailableVersion = v }},
	}
	for _, step := range steps {
		value, err := step.fetch(ctx)
		if err != nil {
			o.logger.Warn("refresh stopped", logging.Field("step", step.name), logging.Field("error", err.Error()))
			return fmt.Errorf("load %s: %w", step.name, err)
		}
		o.setInstall(func(s *InstallState) { step.apply(s, value) })
	}
	return nil
}

func (o *Orchestrator) ChangeLocation(ctx context.Context) Result {
	return o.run(ctx, OpChangeLocation, func(ctx context.Context) error {
		location, err := o.picker.PickDirectory(ctx)
		if err != nil {
			return err
		}
		if err := o.cmds.SetInstallLocation(ctx, location); err != nil {
			return err
		}
		return o.refresh(ctx)
	})
}

func (o *Orchestrator) UpdateModpack(ctx context.Context) Result {
	return o.run(ctx, OpUpdateModpack, func(ctx context.Context) error {
		if err := o.cmds.Update(ctx); err != nil {
			return err
		}
		return o.refreshOne(ctx, o.cmds.GetInstalledVersion, func(s *InstallState, v string) { s.InstalledVersion = v })
	})
}

func (o *Orchestrator) Launch(ctx context.Context) Result {
	return o.run(ctx, OpLaunch, o.cmds.Launch)
}

func (o *Orchestrator) CheckIntegrity(ctx context.Context) Result {
	return o.run(ctx, OpCheckIntegrity, func(ctx context.Context) error {
		if err := o.cmds.CheckIntegrity(ctx); err != nil {
			return err
		}
		o.log.Append("Integrity check complete")
		return nil
	})
}

func (o *Orchestrator) RefreshAvailableVersion(ctx context.Context) Result {
	return o.run(ctx, OpRefreshAvailable, func(ctx context.Context) error {
		return o.refreshOne(ctx, o.cmds.GetAvailableVersion, func(s *InstallState, v string) { s.AvailableVersion = v })
	})
}

func (o *Orchestrator) ClearLog() {
	o.log.Clear()
}

// Guard holds op's flag until the returned release func is called. It is
// used for work that runs outside the orchestrator, such as the launcher's
// own update cycle.
func (o *Orchestrator) Guard(op Op) (func(), error) {
	return o.acquire(op)
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	snap := Snapshot{Init: o.init, Install: o.install, Flags: o.flags}
	o.mu.Unlock()
	snap.Status = o.log.Status()
	return snap
}

// Subscribe registers fn to be called after every state, flag or log change.
func (o *Orchestrator) Subscribe(fn func()) func() {
	if fn == nil {
		panic("launcher.Orchestrator.Subscribe: callback must not be nil")
	}
	o.subMu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subs, id)
			o.subMu.Unlock()
		})
	}
}

func (o *Orchestrator) run(ctx context.Context, op Op, fn func(context.Context) error) Result {
	release, err := o.acquire(op)
	if err != nil {
		return Result{Op: op, Err: err}
	}
	defer release()

	err = fn(ctx)
	switch {
	case err == nil:
		return Result{Op: op}
	case errors.Is(err, ErrPickerCanceled):
		o.logger.Debug("operation canceled", logging.Field("op", op.String()))
		return Result{Op: op, Canceled: true}
	default:
		o.logger.Warn("operation failed", logging.Field("op", op.String()), logging.Field("error", err.Error()))
		o.log.Append(fmt.Sprintf("%s failed: %s", op, backend.ErrorText(err)))
		return Result{Op: op, Err: err}
	}
}

func (o *Orchestrator) acquire(op Op) (func(), error) {
	o.mu.Lock()
	if o.flags.Busy(op) {
		o.mu.Unlock()
		return nil, ErrOperationInProgress
	}
	o.flags |= 1 << op
	o.mu.Unlock()
	o.notify()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			o.flags &^= 1 << op
			o.mu.Unlock()
			o.notify()
		})
	}, nil
}

func (o *Orchestrator) refreshOne(ctx context.Context, fetch func(context.Context) (string, error), apply func(*InstallState, string)) error {
	value, err := fetch(ctx)
	if err != nil {
		return err
	}
	o.setInstall(func(s *InstallState) { apply(s, value) })
	return nil
}

func (o *Orchestrator) setInstall(fn func(*InstallState)) {
	o.mu.Lock()
	fn(&o.install)
	o.mu.Unlock()
	o.notify()
}

func (o *Orchestrator) notify() {
	o.subMu.RLock()
	callbacks := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		callbacks = append(callbacks, fn)
	}
	o.subMu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}
