package headless

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"modpack-launcher/internal/config"
	"modpack-launcher/internal/launcher"
	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/runtime"
)

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetConsoleOutputEnabled(false)
	return logger
}

func newTestModel(t *testing.T) *headlessModel {
	t.Helper()
	logger := quietLogger()
	pickCh := make(chan pickRequest)
	service, err := runtime.NewService(config.Options{
		UpdateRepo:     config.DefaultUpdateRepo,
		SkipSelfUpdate: true,
	}, logger, runtime.Deps{
		Store:  config.NewStore(filepath.Join(t.TempDir(), "settings.json")),
		Picker: &directoryPicker{requests: pickCh, logger: logger},
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	m := newHeadlessModel(context.Background(), "v1.0.0", service, pickCh, logger)
	t.Cleanup(m.cleanup)
	return m
}

func awaitReply(t *testing.T, request pickRequest) pickReply {
	t.Helper()
	select {
	case reply := <-request.reply:
		return reply
	case <-time.After(time.Second):
		t.Fatal("picker request was not answered")
		return pickReply{}
	}
}

func TestFilePickerEscCancelsRequest(t *testing.T) {
	m := newTestModel(t)
	request := pickRequest{reply: make(chan pickReply, 1)}

	m.Update(pickRequestMsg{request: request})
	if !m.ui.FilePickerOpen || m.pendingPick == nil {
		t.Fatal("picker request did not open the file picker")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	reply := awaitReply(t, request)
	if !errors.Is(reply.err, launcher.ErrPickerCanceled) {
		t.Fatalf("reply err = %v, want ErrPickerCanceled", reply.err)
	}
	if m.ui.FilePickerOpen || m.pendingPick != nil {
		t.Fatal("file picker still open after esc")
	}
}

func TestFilePickerEnterSelectsCurrentDirectory(t *testing.T) {
	m := newTestModel(t)
	dir := t.TempDir()
	request := pickRequest{reply: make(chan pickReply, 1)}

	m.Update(pickRequestMsg{request: request})
	m.ui.FilePicker.CurrentDirectory = dir
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	reply := awaitReply(t, request)
	if reply.err != nil || reply.path != dir {
		t.Fatalf("reply = %#v, want path %q", reply, dir)
	}
}

func TestSecondPickerRequestIsRejected(t *testing.T) {
	m := newTestModel(t)
	first := pickRequest{reply: make(chan pickReply, 1)}
	second := pickRequest{reply: make(chan pickReply, 1)}

	m.Update(pickRequestMsg{request: first})
	m.Update(pickRequestMsg{request: second})
	if reply := awaitReply(t, second); !errors.Is(reply.err, launcher.ErrOperationInProgress) {
		t.Fatalf("second reply err = %v", reply.err)
	}
	if m.pendingPick == nil {
		t.Fatal("first request should still be pending")
	}
}

func TestDirectoryPickerRoundTrip(t *testing.T) {
	requests := make(chan pickRequest)
	picker := &directoryPicker{requests: requests, logger: quietLogger()}
	go func() {
		request := <-requests
		request.answer("/games/starbound", nil)
	}()

	path, err := picker.PickDirectory(context.Background())
	if err != nil || path != "/games/starbound" {
		t.Fatalf("PickDirectory() = %q, %v", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := picker.PickDirectory(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("PickDirectory(canceled) err = %v", err)
	}
}

func TestOpResultShowsFailures(t *testing.T) {
	m := newTestModel(t)

	m.Update(opResultMsg{result: launcher.Result{Op: launcher.OpLaunch, Err: errors.New("game not found")}})
	if !strings.Contains(m.ui.ErrorModalText, "Launch failed: game not found") {
		t.Fatalf("error modal = %q", m.ui.ErrorModalText)
	}

	m.ui.ErrorModalText = ""
	m.Update(opResultMsg{result: launcher.Result{Op: launcher.OpUpdateModpack, Err: launcher.ErrOperationInProgress}})
	m.Update(opResultMsg{result: launcher.Result{Op: launcher.OpChangeLocation, Canceled: true}})
	if m.ui.ErrorModalText != "" {
		t.Fatalf("unexpected error modal %q", m.ui.ErrorModalText)
	}
}

func TestQuitAsksForConfirmationWhileBusy(t *testing.T) {
	m := newTestModel(t)
	m.snapshot.Flags = 1 << launcher.OpUpdateModpack

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.ui.ConfirmQuit || m.quitting {
		t.Fatalf("confirm=%v quitting=%v, want confirmation", m.ui.ConfirmQuit, m.quitting)
	}

	m.snapshot.Flags = 0
	m.ui.ConfirmQuit = false
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.quitting {
		t.Fatal("idle quit should start quitting immediately")
	}
}

func TestChangedMsgAppliesSnapshotAndLog(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.orchestrator.Log().Append("Starting update process")
	m.Update(changedMsg{})
	if m.snapshot.Status != "Starting update process" {
		t.Fatalf("status = %q", m.snapshot.Status)
	}
	if !strings.Contains(m.ui.LogText, "Starting update process") {
		t.Fatalf("log text = %q", m.ui.LogText)
	}

	m.Update(phaseMsg("Ready"))
	if !m.ready {
		t.Fatal("ready phase did not mark the model ready")
	}
}
