// Package local performs launcher backend commands in-process against the
// game install on this machine.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/proc"
	"modpack-launcher/internal/runstatus"
)

const (
	defaultProcessName = "starbound"
	defaultHTTPTimeout = 2 * time.Minute
	maxManifestBytes   = 4 << 20
	defaultHashWorkers = 4
)

var (
	ErrModpackURLNotConfigured = errors.New("modpack URL is not configured")
	ErrGameRunning             = errors.New("the game is already running")
)

type Options struct {
	ModpackURL     string
	GameExecutable string
	ProcessName    string
	HTTP           *http.Client
	HashWorkers    int
}

// processFinder and starter are replaced in tests.
type processFinder func(ctx context.Context, name string) ([]int32, error)
type starter func(path string, args []string, dir string) (int, error)

// Backend answers every backend.Command against the local filesystem and
// publishes progress through its event Hub.
type Backend struct {
	opts   Options
	store  *config.Store
	hub    *backend.Hub
	logger *logging.Logger

	findProcess processFinder
	start       starter

	// Serializes commands that write into the install location.
	writeMu sync.Mutex

	watchMu  sync.Mutex
	watchCtx context.Context
	watcher  *Watcher

	lastManifestWrite atomic.Int64
}

func New(opts Options, store *config.Store, logger *logging.Logger) *Backend {
	if store == nil {
		panic("local.New: settings store must not be nil")
	}
	if logger == nil {
		panic("local.New: logger must not be nil")
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.ProcessName == "" {
		opts.ProcessName = defaultProcessName
	}
	if opts.HashWorkers <= 0 {
		opts.HashWorkers = defaultHashWorkers
	}
	return &Backend{
		opts:        opts,
		store:       store,
		hub:         backend.NewHub(),
		logger:      logger,
		findProcess: proc.FindRunning,
		start:       proc.StartDetached,
	}
}

// Events is the source of this backend's status and log events.
func (b *Backend) Events() *backend.Hub {
	return b.hub
}

func (b *Backend) Invoke(ctx context.Context, cmd backend.Command, args any) (json.RawMessage, error) {
	result, err := b.dispatch(ctx, cmd, args)
	if err != nil {
		if errors.Is(err, backend.ErrUnknownCommand) {
			return nil, err
		}
		var cmdErr *backend.CommandError
		if errors.As(err, &cmdErr) {
			return nil, err
		}
		return nil, &backend.CommandError{Command: cmd, Message: err.Error()}
	}
	return json.Marshal(result)
}

func (b *Backend) dispatch(ctx context.Context, cmd backend.Command, args any) (any, error) {
	switch cmd {
	case backend.CmdLoadInstallLocation:
		return b.store.InstallLocation()
	case backend.CmdGetInstalledVersion:
		return b.InstalledVersion()
	case backend.CmdGetAvailableVersion:
		return b.AvailableVersion(ctx)
	case backend.CmdSetInstallLocation:
		var decoded backend.SetInstallLocationArgs
		if err := decodeArgs(args, &decoded); err != nil {
			return nil, err
		}
		return nil, b.SetInstallLocation(decoded.Location)
	case backend.CmdUpdate:
		return nil, b.Update(ctx)
	case backend.CmdLaunch:
		return nil, b.Launch(ctx)
	case backend.CmdCheckIntegrity:
		return nil, b.CheckIntegrity(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", backend.ErrUnknownCommand, cmd)
	}
}

// decodeArgs accepts either the typed struct or its JSON form so the same
// dispatch serves in-process callers and the HTTP bridge.
func decodeArgs(args any, out any) error {
	var raw []byte
	switch v := args.(type) {
	case nil:
		return errors.New("missing command arguments")
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		raw = encoded
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid command arguments: %w", err)
	}
	return nil
}

func (b *Backend) InstalledVersion() (string, error) {
	location, err := b.store.InstallLocation()
	if errors.Is(err, config.ErrNotConfigured) {
		return runstatus.NotInstalled, nil
	}
	if err != nil {
		return "", err
	}
	manifest, err := ReadManifest(manifestPath(location))
	if errors.Is(err, os.ErrNotExist) {
		return runstatus.NotInstalled, nil
	}
	if err != nil {
		return "", err
	}
	if manifest.Version() == "" {
		return runstatus.NotInstalled, nil
	}
	return manifest.Version(), nil
}

func (b *Backend) AvailableVersion(ctx context.Context) (string, error) {
	manifest, _, err := b.fetchRemoteManifest(ctx)
	if err != nil {
		return "", err
	}
	if manifest.Version() == "" {
		return "", ErrManifestNoVersion
	}
	return manifest.Version(), nil
}

func (b *Backend) SetInstallLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return errors.New("install location must not be empty")
	}
	info, err := os.Stat(location)
	if err != nil {
		return fmt.Errorf("install location: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("install location %s is not a directory", location)
	}
	if err := b.store.SetInstallLocation(location); err != nil {
		return fmt.Errorf("save install location: %w", err)
	}
	b.logger.Info("install location changed", logging.Field("location", location))
	b.retargetWatcher(location)
	return nil
}

func (b *Backend) fetchRemoteManifest(ctx context.Context) (Manifest, []byte, error) {
	if b.opts.ModpackURL == "" {
		return Manifest{}, nil, ErrModpackURLNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.opts.ModpackURL, nil)
	if err != nil {
		return Manifest{}, nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.opts.HTTP.Do(req)
	if err != nil {
		return Manifest{}, nil, err
	}
	defer resp.Body.Close()
	b.logger.Debugf("GET %s -> %s", b.opts.ModpackURL, resp.Status)
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		b.logger.Warn("modpack manifest request rejected",
			logging.Field("status", resp.Status),
			logging.Field("response", logging.FormatPayload(data)),
		)
		return Manifest{}, nil, &backend.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return Manifest{}, nil, err
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return Manifest{}, nil, err
	}
	return manifest, data, nil
}
