package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"modpack-launcher/internal/logging"
)

const (
	manifestChangeDebounce = 500 * time.Millisecond
	selfWriteGrace         = 2 * time.Second
)

// Watcher reports changes to the installed manifest made outside the
// launcher, e.g. by a manual copy or another tool. It watches the install
// location and adds the mods directory once that exists.
type Watcher struct {
	root     string
	logger   *logging.Logger
	onChange func()
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWatcher(root string, logger *logging.Logger, onChange func()) *Watcher {
	if logger == nil {
		panic("local.NewWatcher: logger must not be nil")
	}
	return &Watcher{root: root, logger: logger, onChange: onChange}
}

// Start begins watching in the background. Nothing is created on disk.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to initialize fsnotify watcher: %w", err)
	}
	if err := watcher.Add(w.root); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch install location %s: %w", w.root, err)
	}
	mods := modsDir(w.root)
	if info, err := os.Stat(mods); err == nil && info.IsDir() {
		if err := watcher.Add(mods); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch mods directory %s: %w", mods, err)
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(runCtx, watcher)
	w.logger.Debugf("watching install location: %s", w.root)
	return nil
}

func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(w.done)
	defer watcher.Close()

	// Writers often touch the file several times; collapse bursts.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	mods := modsDir(w.root)
	target := filepath.Join(mods, ManifestFileName)
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("stopping manifest watcher: context canceled")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: op=%s path=%s", event.Op.String(), event.Name)
			switch name := filepath.Clean(event.Name); {
			case name == mods && event.Has(fsnotify.Create):
				if err := watcher.Add(mods); err != nil {
					w.logger.Warn("failed to watch mods directory", logging.Field("error", err))
					continue
				}
				w.logger.Debugf("watching directory: %s", mods)
				// The manifest may have landed before the watch was added.
				if _, err := os.Stat(target); err == nil {
					debounce.Reset(manifestChangeDebounce)
				}
			case name == target && event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0:
				debounce.Reset(manifestChangeDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", logging.Field("error", err))
		case <-debounce.C:
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// WatchInstall starts watching the saved install location, if any, and
// follows later install location changes until ctx ends.
func (b *Backend) WatchInstall(ctx context.Context) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	b.watchCtx = ctx
	location, err := b.store.InstallLocation()
	if err != nil {
		return
	}
	b.startWatcherLocked(ctx, location)
}

// Close stops the manifest watcher.
func (b *Backend) Close() {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	b.watchCtx = nil
	if b.watcher != nil {
		b.watcher.Stop()
		b.watcher = nil
	}
}

func (b *Backend) retargetWatcher(location string) {
	b.watchMu.Lock()
	defer b.watchMu.Unlock()
	if b.watchCtx == nil {
		return
	}
	if b.watcher != nil {
		b.watcher.Stop()
		b.watcher = nil
	}
	b.startWatcherLocked(b.watchCtx, location)
}

func (b *Backend) startWatcherLocked(ctx context.Context, location string) {
	w := NewWatcher(location, b.logger, func() {
		if time.Since(time.Unix(0, b.lastManifestWrite.Load())) < selfWriteGrace {
			return
		}
		b.hub.Log("Installed modpack changed on disk")
	})
	if err := w.Start(ctx); err != nil {
		b.logger.Warn("failed to watch install location", logging.Field("error", err))
		return
	}
	b.watcher = w
}
