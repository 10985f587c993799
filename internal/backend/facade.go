package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"modpack-launcher/internal/logging"
)

// Facade exposes each backend command as a typed call. Errors are returned
// as-is; nothing is retried.
type Facade struct {
	invoker Invoker
	logger  *logging.Logger
}

func NewFacade(invoker Invoker, logger *logging.Logger) *Facade {
	if invoker == nil {
		panic("backend.NewFacade: invoker must not be nil")
	}
	if logger == nil {
		panic("backend.NewFacade: logger must not be nil")
	}
	return &Facade{invoker: invoker, logger: logger}
}

func (f *Facade) LoadInstallLocation(ctx context.Context) (string, error) {
	return f.invokeString(ctx, CmdLoadInstallLocation, nil)
}

func (f *Facade) GetAvailableVersion(ctx context.Context) (string, error) {
	return f.invokeString(ctx, CmdGetAvailableVersion, nil)
}

func (f *Facade) GetInstalledVersion(ctx context.Context) (string, error) {
	return f.invokeString(ctx, CmdGetInstalledVersion, nil)
}

func (f *Facade) SetInstallLocation(ctx context.Context, location string) error {
	return f.invokeVoid(ctx, CmdSetInstallLocation, SetInstallLocationArgs{Location: location})
}

func (f *Facade) Update(ctx context.Context) error {
	return f.invokeVoid(ctx, CmdUpdate, nil)
}

func (f *Facade) Launch(ctx context.Context) error {
	return f.invokeVoid(ctx, CmdLaunch, nil)
}

func (f *Facade) CheckIntegrity(ctx context.Context) error {
	return f.invokeVoid(ctx, CmdCheckIntegrity, nil)
}

func (f *Facade) invokeString(ctx context.Context, cmd Command, args any) (string, error) {
	raw, err := f.invoke(ctx, cmd, args)
	if err != nil {
		return "", err
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("decode %s result: %w", cmd, err)
	}
	return value, nil
}

func (f *Facade) invokeVoid(ctx context.Context, cmd Command, args any) error {
	_, err := f.invoke(ctx, cmd, args)
	return err
}

func (f *Facade) invoke(ctx context.Context, cmd Command, args any) (json.RawMessage, error) {
	f.logger.Debug("invoking backend command", logging.Field("command", string(cmd)))
	raw, err := f.invoker.Invoke(ctx, cmd, args)
	if err != nil {
		f.logger.Debug("backend command failed",
			logging.Field("command", string(cmd)),
			logging.Field("error", err),
		)
		return nil, err
	}
	return raw, nil
}
