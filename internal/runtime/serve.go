package runtime

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"modpack-launcher/internal/backend/server"
	"modpack-launcher/internal/config"
	"modpack-launcher/internal/logging"
)

// ServeBackend exposes the built-in backend over HTTP on opts.ServeBackend
// until ctx ends. A launcher started with --backend-url pointing at it drives
// this install instead of its own.
func ServeBackend(ctx context.Context, opts config.Options, logger *logging.Logger, store *config.Store) error {
	if logger == nil {
		panic("runtime.ServeBackend: logger must not be nil")
	}
	if opts.ServeBackend == "" {
		return errors.New("no address to serve the backend on")
	}
	if err := config.Validate(opts); err != nil {
		return err
	}
	b, err := newLocalBackend(opts, store, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		watchInstall(gctx, b)
		return nil
	})
	g.Go(func() error {
		return server.New(b, b.Events(), logger.Named("server")).ListenAndServe(gctx, opts.ServeBackend)
	})
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
