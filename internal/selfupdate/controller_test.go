package selfupdate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"modpack-launcher/internal/logging"
)

type memoryLog struct {
	mu    sync.Mutex
	lines []string
}

func (m *memoryLog) Append(text string) {
	m.mu.Lock()
	m.lines = append(m.lines, text)
	m.mu.Unlock()
}

func (m *memoryLog) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

type fakeUpdater struct {
	update      *UpdateDescriptor
	checkErr    error
	events      []ProgressEvent
	downloadErr error
	relaunchErr error
	log         *memoryLog

	checks         int
	relaunched     bool
	linesAtRestart []string
}

func (f *fakeUpdater) Check(context.Context) (*UpdateDescriptor, error) {
	f.checks++
	return f.update, f.checkErr
}

func (f *fakeUpdater) DownloadAndInstall(_ context.Context, _ *UpdateDescriptor, progress func(ProgressEvent)) error {
	for _, event := range f.events {
		progress(event)
	}
	return f.downloadErr
}

func (f *fakeUpdater) Relaunch() error {
	f.relaunched = true
	if f.log != nil {
		f.linesAtRestart = f.log.Lines()
	}
	return f.relaunchErr
}

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetConsoleOutputEnabled(false)
	return logger
}

func int64Ptr(n int64) *int64 {
	return &n
}

func TestNoUpdateLogsReady(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{}
	c := NewController(updater, log, quietLogger())

	out := c.Run(context.Background())
	require.NoError(t, out.Err)
	require.Equal(t, StateNoUpdate, out.State)
	require.False(t, out.Restarting())
	require.Equal(t, []string{"Ready"}, log.Lines())
	require.False(t, updater.relaunched)
}

func TestCheckFailureIsNonFatal(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{checkErr: errors.New("could not fetch a valid release JSON from the remote")}
	c := NewController(updater, log, quietLogger())

	out := c.Run(context.Background())
	require.Error(t, out.Err)
	require.Equal(t, StateFailed, out.State)
	require.False(t, out.Restarting())
	require.Equal(t, []string{"Error checking for updates: could not fetch a valid release JSON from the remote"}, log.Lines())
}

func TestDownloadReportsRunningTotalBeforeRelaunch(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{
		update: &UpdateDescriptor{Version: "v1.4.0", Date: "2026-10-01", Body: "Bug fixes"},
		events: []ProgressEvent{Started(int64Ptr(100)), Chunk(40), Chunk(60), Finished()},
		log:    log,
	}
	c := NewController(updater, log, quietLogger())

	var states []string
	c.OnState = func(state string) { states = append(states, state) }

	out := c.Run(context.Background())
	require.NoError(t, out.Err)
	require.True(t, out.Restarting())
	require.True(t, updater.relaunched)
	require.Equal(t, "v1.4.0", out.Update.Version)

	require.Equal(t, "Found update v1.4.0 from 2026-10-01 with notes Bug fixes", updater.linesAtRestart[0])
	require.Contains(t, updater.linesAtRestart, "Downloaded 40 from 100")
	require.Contains(t, updater.linesAtRestart, "Downloaded 100 from 100")
	require.Equal(t, []string{StateChecking, StateUpdateAvailable, StateDownloading, StateInstalled, StateRestarting}, states)
}

func TestMissingContentLengthCountsAsZero(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{
		update: &UpdateDescriptor{Version: "v1.4.0"},
		events: []ProgressEvent{Started(nil), Chunk(10), Finished()},
	}
	out := NewController(updater, log, quietLogger()).Run(context.Background())
	require.NoError(t, out.Err)
	require.Contains(t, log.Lines(), "Downloaded 10 from 0")
}

func TestDownloadFailureFallsThrough(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{
		update:      &UpdateDescriptor{Version: "v1.4.0"},
		events:      []ProgressEvent{Started(int64Ptr(100)), Chunk(10)},
		downloadErr: errors.New("connection reset"),
	}
	out := NewController(updater, log, quietLogger()).Run(context.Background())
	require.Equal(t, StateFailed, out.State)
	require.False(t, updater.relaunched)
	lines := log.Lines()
	require.Equal(t, "Error checking for updates: connection reset", lines[len(lines)-1])
}

func TestRelaunchFailureFallsThrough(t *testing.T) {
	log := &memoryLog{}
	updater := &fakeUpdater{
		update:      &UpdateDescriptor{Version: "v1.4.0"},
		events:      []ProgressEvent{Started(int64Ptr(1)), Chunk(1), Finished()},
		relaunchErr: errors.New("exec format error"),
	}
	out := NewController(updater, log, quietLogger()).Run(context.Background())
	require.Equal(t, StateFailed, out.State)
	require.False(t, out.Restarting())
	require.True(t, slices.Contains(log.Lines(), "Error checking for updates: exec format error"))
}

func TestRunHappensOnce(t *testing.T) {
	updater := &fakeUpdater{}
	c := NewController(updater, &memoryLog{}, quietLogger())
	first := c.Run(context.Background())
	second := c.Run(context.Background())
	require.Equal(t, first, second)
	require.Equal(t, 1, updater.checks)
}
