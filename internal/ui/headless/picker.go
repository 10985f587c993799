package headless

import (
	"context"
	"errors"

	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runctx"
)

type pickReply struct {
	path string
	err  error
}

type pickRequest struct {
	reply chan pickReply
}

func (r pickRequest) answer(path string, err error) {
	select {
	case r.reply <- pickReply{path: path, err: err}:
	default:
	}
}

// directoryPicker asks the running program to open its file picker and waits
// for the user's choice.
type directoryPicker struct {
	requests chan<- pickRequest
	logger   *logging.Logger
}

func (p *directoryPicker) PickDirectory(ctx context.Context) (string, error) {
	request := pickRequest{reply: make(chan pickReply, 1)}
	if !runctx.SendOrDone(ctx, "directory picker request", p.logger, p.requests, request) {
		return "", ctx.Err()
	}
	reply, ok := runctx.RecvOrDone(ctx, "directory picker reply", p.logger, request.reply)
	if !ok {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", launcher.ErrPickerCanceled
	}
	if reply.err != nil && !errors.Is(reply.err, launcher.ErrPickerCanceled) {
		p.logger.Warn("directory picker failed", logging.Field("error", reply.err))
	}
	return reply.path, reply.err
}
