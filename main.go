package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runtime"
	"modpack-launcher/internal/ui/gui"
	"modpack-launcher/internal/ui/headless"
)

var BuildVersion = "dev"

func main() {
	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	opts, err := config.ParseOptions(nil)
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if opts.ServeBackend != "" {
		os.Exit(serveBackend(rootCtx, opts))
	}

	lock, lockedByOther, lockErr := acquireInstanceLock()
	if lockErr != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize single-instance lock:", lockErr)
		os.Exit(2)
	}
	if lockedByOther {
		if !gui.Available() || opts.Headless {
			fmt.Fprintln(os.Stderr, "Starbound Modpack Launcher is already running.")
		} else {
			hideAndDetachConsoleForGUI()
			showAlreadyRunningDialog()
		}
		os.Exit(1)
	}
	defer func() {
		_ = lock.Release()
	}()

	// Headless-tag builds always run headless; runtime UI selection is ignored.
	if !gui.Available() || opts.Headless {
		headless.Run(rootCtx, BuildVersion, opts, lock.Release)
		return
	}
	hideAndDetachConsoleForGUI()
	gui.Run(rootCtx, BuildVersion, opts, lock.Release)
}

// serveBackend runs the built-in backend as an HTTP service with console
// logging and no UI. It does not take the instance lock so a UI can run
// next to it.
func serveBackend(ctx context.Context, opts config.Options) int {
	if saved, err := config.LoadSettings(); err == nil {
		opts = config.MergeOptionsWithSettings(opts, saved)
	}
	logger := logging.New(opts.Debug)
	defer func() {
		_ = logger.Close()
	}()
	logger.Info("starting launcher backend", logging.Field("version", BuildVersion), logging.Field("addr", opts.ServeBackend))

	store, err := config.OpenDefaultStore()
	if err != nil {
		logger.Error("cannot open settings", logging.Field("error", err))
		return 1
	}
	if err := runtime.ServeBackend(ctx, opts, logger, store); err != nil {
		logger.Error("backend server stopped", logging.Field("error", err))
		return 1
	}
	logger.Info("backend server stopped")
	return 0
}
