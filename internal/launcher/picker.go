package launcher

import (
	"context"
	"errors"
)

// ErrPickerCanceled is returned by a DirectoryPicker when the user closed the
// dialog without choosing anything.
var ErrPickerCanceled = errors.New("directory selection canceled")

// DirectoryPicker asks the user for a single directory.
type DirectoryPicker interface {
	PickDirectory(ctx context.Context) (string, error)
}

type PickerFunc func(ctx context.Context) (string, error)

func (f PickerFunc) PickDirectory(ctx context.Context) (string, error) {
	return f(ctx)
}
