package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/backend/local"
	"modpack-launcher/internal/backend/remote"
	"modpack-launcher/internal/config"
	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/selfupdate"
)

// backendReadyTimeout bounds how long startup waits for a remote backend.
const backendReadyTimeout = 15 * time.Second

// Deps are the parts of the service a front-end supplies.
type Deps struct {
	Picker  launcher.DirectoryPicker
	Version string
	// Store overrides the default settings file. Used by tests and by the
	// backend server mode.
	Store *config.Store
	// Updater overrides the GitHub release updater.
	Updater selfupdate.Updater
	// Exit is called after a launcher update started the new build.
	// Defaults to os.Exit.
	Exit func(code int)
	// BeforeRelaunch releases whatever would stop the new build from
	// starting, namely the single-instance lock.
	BeforeRelaunch func() error
}

// Service is one launcher session: the backend, the orchestrator and the
// self-update cycle, plus whatever the backend needs running in the
// background (the install watcher or the remote event stream).
type Service struct {
	logger       *logging.Logger
	orchestrator *launcher.Orchestrator
	updates      *selfupdate.Controller
	background   []func(ctx context.Context) error
	// waitBackend blocks until a remote backend answers its health check.
	waitBackend func(ctx context.Context) error
}

func NewService(opts config.Options, logger *logging.Logger, deps Deps) (*Service, error) {
	if logger == nil {
		panic("runtime.NewService: logger must not be nil")
	}
	if err := config.Validate(opts); err != nil {
		return nil, err
	}

	var (
		invoker     backend.Invoker
		events      backend.EventSource
		background  []func(context.Context) error
		waitBackend func(context.Context) error
	)
	if opts.BackendURL != "" {
		baseURL, err := config.NormalizeBaseURL(opts.BackendURL)
		if err != nil {
			return nil, err
		}
		// No client timeout: the event stream stays open and update can run
		// for minutes. Calls are bounded by their context instead.
		client := remote.New(&http.Client{}, baseURL, logger.Named("remote"))
		stream := client.Events(remote.StreamHooks{
			OnConnected: func(id string) {
				logger.Info("connected to backend", logging.Field("url", baseURL), logging.Field("client_id", id))
			},
			OnDisconnected: func(err error) {
				logger.Warn("backend event stream disconnected", logging.Field("error", err))
			},
		})
		invoker, events = client, stream
		background = append(background, stream.Run)
		waitBackend = func(ctx context.Context) error {
			return client.WaitReady(ctx, backendReadyTimeout)
		}
		logger.Debug("using remote backend", logging.Field("url", baseURL))
	} else {
		b, err := newLocalBackend(opts, deps.Store, logger)
		if err != nil {
			return nil, err
		}
		invoker, events = b, b.Events()
		background = append(background, func(ctx context.Context) error {
			watchInstall(ctx, b)
			return nil
		})
	}

	var updater selfupdate.Updater
	if !opts.SkipSelfUpdate {
		updater = deps.Updater
		if updater == nil {
			updater = selfupdate.NewGitHubUpdater(selfupdate.GitHubOptions{
				Repo:           opts.UpdateRepo,
				CurrentVersion: deps.Version,
				Exit:           deps.Exit,
				BeforeRelaunch: deps.BeforeRelaunch,
			}, logger)
		}
	}

	s := assemble(logger, invoker, events, launcher.NewAggregator(opts.LogBufferSize), deps.Picker, updater, background)
	s.waitBackend = waitBackend
	return s, nil
}

func assemble(
	logger *logging.Logger,
	invoker backend.Invoker,
	events backend.EventSource,
	log *launcher.Aggregator,
	picker launcher.DirectoryPicker,
	updater selfupdate.Updater,
	background []func(context.Context) error,
) *Service {
	s := &Service{
		logger: logger,
		orchestrator: launcher.New(launcher.Options{
			Commands: backend.NewFacade(invoker, logger),
			Events:   events,
			Picker:   picker,
			Log:      log,
		}, logger),
		background: background,
	}
	if updater != nil {
		s.updates = selfupdate.NewController(updater, log, logger)
	}
	return s
}

func newLocalBackend(opts config.Options, store *config.Store, logger *logging.Logger) (*local.Backend, error) {
	if store == nil {
		var err error
		if store, err = config.OpenDefaultStore(); err != nil {
			return nil, err
		}
	}
	if opts.InstallLocation != "" {
		if err := store.SetInstallLocation(opts.InstallLocation); err != nil {
			return nil, fmt.Errorf("save install location: %w", err)
		}
	}
	logger.Debug("using built-in backend", logging.Field("settings", store.Path()))
	return local.New(local.Options{
		ModpackURL:     opts.ModpackURL,
		GameExecutable: opts.GameExecutable,
	}, store, logger.Named("backend")), nil
}

// watchInstall follows the install directory until ctx ends.
func watchInstall(ctx context.Context, b *local.Backend) {
	b.WatchInstall(ctx)
	<-ctx.Done()
	b.Close()
}

func (s *Service) Orchestrator() *launcher.Orchestrator {
	return s.orchestrator
}

// WaitBackend blocks until the backend can take commands. The built-in
// backend is always ready.
func (s *Service) WaitBackend(ctx context.Context) error {
	if s.waitBackend == nil {
		return nil
	}
	return s.waitBackend(ctx)
}

// SelfUpdate runs the launcher update cycle, or reports no update when self
// update is disabled. Both ways the no-update path logs the ready line.
func (s *Service) SelfUpdate(ctx context.Context) selfupdate.Outcome {
	if s.updates == nil {
		s.logger.Debug("launcher self update disabled")
		s.orchestrator.Log().Append(selfupdate.ReadyLine)
		return selfupdate.Outcome{State: selfupdate.StateNoUpdate}
	}
	return s.updates.Run(ctx)
}

// RunContext keeps the background parts running until ctx ends or one of
// them fails.
func (s *Service) RunContext(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	for _, run := range s.background {
		g.Go(func() error {
			return run(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
