package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runstatus"
)

func (b *Backend) Launch(ctx context.Context) error {
	location, err := b.store.InstallLocation()
	if err != nil {
		return err
	}
	exe := config.ResolveGameExecutable(location, b.opts.GameExecutable)
	if _, err := os.Stat(exe); err != nil {
		return fmt.Errorf("game executable not found at %s", exe)
	}

	running, err := b.findProcess(ctx, b.opts.ProcessName)
	if err != nil {
		b.logger.Warn("could not check for a running game", logging.Field("error", err))
	} else if len(running) > 0 {
		return ErrGameRunning
	}

	pid, err := b.start(exe, nil, filepath.Dir(exe))
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	b.logger.Info("game started", logging.Field("path", exe), logging.Field("pid", pid))
	b.hub.Status(runstatus.GameLaunched)
	return nil
}
