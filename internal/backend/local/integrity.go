package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"modpack-launcher/internal/logging"
)

type integrityProblem struct {
	mod    string
	reason string
}

// CheckIntegrity hashes every mod named by the installed manifest and reports
// each missing or modified file as a log event followed by a summary. Finding
// problems is not an error; failing to run the check is.
func (b *Backend) CheckIntegrity(ctx context.Context) error {
	location, err := b.store.InstallLocation()
	if err != nil {
		return err
	}
	manifest, err := ReadManifest(manifestPath(location))
	if errors.Is(err, os.ErrNotExist) {
		return errors.New("modpack is not installed")
	}
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		problems []integrityProblem
	)
	report := func(mod, reason string) {
		mu.Lock()
		problems = append(problems, integrityProblem{mod: mod, reason: reason})
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.HashWorkers)
	for _, mod := range manifest.Mods {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(modsDir(location), mod.FileName())
			sum, err := fileSHA256(path)
			switch {
			case errors.Is(err, os.ErrNotExist):
				report(mod.Name, "missing")
			case err != nil:
				return fmt.Errorf("hash %s: %w", mod.Name, err)
			case mod.WantChecksum() != "" && sum != mod.WantChecksum():
				report(mod.Name, "checksum mismatch")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].mod < problems[j].mod })
	for _, p := range problems {
		b.hub.Log(fmt.Sprintf("%s: %s", p.mod, p.reason))
	}
	b.logger.Info("integrity check finished",
		logging.Field("mods", len(manifest.Mods)),
		logging.Field("problems", len(problems)),
	)
	if len(problems) == 0 {
		b.hub.Log(fmt.Sprintf("All %d mods verified", len(manifest.Mods)))
		return nil
	}
	b.hub.Log(fmt.Sprintf("%d of %d mods need repair; run Update to fix them", len(problems), len(manifest.Mods)))
	return nil
}
