package selfupdate

import "context"

// UpdateDescriptor describes a newer launcher release.
type UpdateDescriptor struct {
	Version string
	Date    string
	Body    string
}

type ProgressKind int

const (
	ProgressStarted ProgressKind = iota
	ProgressChunk
	ProgressFinished
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressStarted:
		return "started"
	case ProgressChunk:
		return "progress"
	case ProgressFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ProgressEvent is reported while an update downloads. ContentLength is only
// meaningful for ProgressStarted and is nil when the size is unknown;
// ChunkLength only for ProgressChunk.
type ProgressEvent struct {
	Kind          ProgressKind
	ContentLength *int64
	ChunkLength   int64
}

func Started(contentLength *int64) ProgressEvent {
	return ProgressEvent{Kind: ProgressStarted, ContentLength: contentLength}
}

func Chunk(n int64) ProgressEvent {
	return ProgressEvent{Kind: ProgressChunk, ChunkLength: n}
}

func Finished() ProgressEvent {
	return ProgressEvent{Kind: ProgressFinished}
}

// Updater is the release channel the launcher updates itself from.
type Updater interface {
	// Check returns nil when the running build is current.
	Check(ctx context.Context) (*UpdateDescriptor, error)
	DownloadAndInstall(ctx context.Context, update *UpdateDescriptor, progress func(ProgressEvent)) error
	// Relaunch starts the installed build and ends this process. It only
	// returns if the restart could not be started.
	Relaunch() error
}
