package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runstatus"
)

// Update brings the install location in line with the published manifest.
// Mods whose file already matches the pinned checksum are left alone, mods
// dropped from the manifest are removed, and the manifest itself is written
// last so an interrupted update is retried from scratch.
func (b *Backend) Update(ctx context.Context) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	location, err := b.store.InstallLocation()
	if err != nil {
		return err
	}
	b.hub.Status(runstatus.UpdateStarted)

	remote, raw, err := b.fetchRemoteManifest(ctx)
	if err != nil {
		return err
	}
	dir := modsDir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mods directory: %w", err)
	}

	wanted := make(map[string]struct{}, len(remote.Mods))
	downloaded := 0
	for _, mod := range remote.Mods {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := mod.FileName()
		wanted[name] = struct{}{}
		target := filepath.Join(dir, name)

		if sum := mod.WantChecksum(); sum != "" {
			if have, err := fileSHA256(target); err == nil && have == sum {
				b.logger.Debug("mod up to date", logging.Field("mod", mod.Name))
				continue
			}
		} else if _, err := os.Stat(target); err == nil {
			continue
		}
		if mod.URL == "" {
			b.hub.Log(fmt.Sprintf("Skipping %s: no download URL", mod.Name))
			continue
		}

		b.hub.Status(fmt.Sprintf("Downloading %s", mod.Name))
		size, err := b.downloadFile(ctx, mod.URL, target, mod.WantChecksum())
		if err != nil {
			return fmt.Errorf("download %s: %w", mod.Name, err)
		}
		downloaded++
		b.hub.Log(fmt.Sprintf("Downloaded %s (%s)", mod.Name, humanize.IBytes(uint64(size))))
	}

	b.removeDroppedMods(location, wanted)

	b.lastManifestWrite.Store(time.Now().UnixNano())
	if err := writeFileAtomic(manifestPath(location), raw); err != nil {
		return fmt.Errorf("write modpack manifest: %w", err)
	}
	b.logger.Info("modpack updated",
		logging.Field("version", remote.Version()),
		logging.Field("downloaded", downloaded),
	)
	b.hub.Log(fmt.Sprintf("Updated modpack to %s", remote.Version()))
	b.hub.Status(runstatus.UpdateComplete)
	return nil
}

// removeDroppedMods deletes pak files listed by the installed manifest that
// the new manifest no longer names. Files the launcher never installed are
// not touched.
func (b *Backend) removeDroppedMods(location string, wanted map[string]struct{}) {
	previous, err := ReadManifest(manifestPath(location))
	if err != nil {
		return
	}
	for _, mod := range previous.Mods {
		name := mod.FileName()
		if _, keep := wanted[name]; keep {
			continue
		}
		path := filepath.Join(modsDir(location), name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("failed to remove dropped mod", logging.Field("path", path), logging.Field("error", err))
			continue
		}
		b.hub.Log(fmt.Sprintf("Removed %s", mod.Name))
	}
}

func (b *Backend) downloadFile(ctx context.Context, url string, target string, wantSum string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := b.opts.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b.logger.Debugf("GET %s -> %s", url, resp.Status)
	if resp.StatusCode >= 400 {
		return 0, &backend.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	if got := hex.EncodeToString(h.Sum(nil)); wantSum != "" && got != wantSum {
		return 0, fmt.Errorf("checksum mismatch: got %s, want %s", got, wantSum)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, err
	}
	return size, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
