//go:build !headless

package gui

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runctx"
)

type folderReply struct {
	path string
	err  error
}

// folderPicker shows the fyne folder dialog on the UI thread and hands the
// choice back to the orchestrator goroutine waiting in PickDirectory.
type folderPicker struct {
	win    func() fyne.Window
	start  func() string
	logger *logging.Logger
}

func (p *folderPicker) PickDirectory(ctx context.Context) (string, error) {
	reply := make(chan folderReply, 1)
	var open *dialog.FileDialog

	fyne.Do(func() {
		win := p.win()
		if win == nil {
			reply <- folderReply{err: launcher.ErrPickerCanceled}
			return
		}
		d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			switch {
			case err != nil:
				reply <- folderReply{err: err}
			case uri == nil:
				reply <- folderReply{err: launcher.ErrPickerCanceled}
			default:
				reply <- folderReply{path: uri.Path()}
			}
		}, win)
		if location := pickerLocation(p.start()); location != nil {
			d.SetLocation(location)
		}
		d.Resize(fyne.NewSize(760, 520))
		d.Show()
		open = d
	})

	result, ok := runctx.RecvOrDone(ctx, "folder picker reply", p.logger, reply)
	if !ok {
		fyne.Do(func() {
			if open != nil {
				open.Hide()
			}
		})
		return "", ctx.Err()
	}
	return result.path, result.err
}

func pickerLocation(path string) fyne.ListableURI {
	candidate := strings.TrimSpace(path)
	if info, err := os.Stat(candidate); candidate == "" || err != nil || !info.IsDir() {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil || home == "" {
			return nil
		}
		candidate = home
	}
	lister, err := storage.ListerForURI(storage.NewFileURI(filepath.Clean(candidate)))
	if err != nil {
		return nil
	}
	return lister
}
