package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/backend/remote"
	"modpack-launcher/internal/logging"
)

type fakeInvoker struct {
	mu    sync.Mutex
	calls []backend.Command
	args  []json.RawMessage
	hub   *backend.Hub
}

func (f *fakeInvoker) Invoke(_ context.Context, cmd backend.Command, args any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	if raw, ok := args.(json.RawMessage); ok {
		f.args = append(f.args, raw)
	}
	f.mu.Unlock()

	switch cmd {
	case backend.CmdLoadInstallLocation:
		return nil, &backend.CommandError{Command: cmd, Message: "Not Configured"}
	case backend.CmdGetAvailableVersion:
		return json.RawMessage(`"v1.0.2"`), nil
	case backend.CmdUpdate:
		f.hub.Status("Starting update process")
		f.hub.Log("Downloaded ships (10 B)")
		f.hub.Log("Updated modpack to v1.0.2")
		return json.RawMessage("null"), nil
	default:
		return json.RawMessage("null"), nil
	}
}

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetConsoleOutputEnabled(false)
	return logger
}

func newBridge(t *testing.T) (*fakeInvoker, *remote.Client) {
	t.Helper()
	hub := backend.NewHub()
	inv := &fakeInvoker{hub: hub}
	srv := httptest.NewServer(New(inv, hub, quietLogger()).Handler())
	t.Cleanup(srv.Close)
	return inv, remote.New(srv.Client(), srv.URL, quietLogger())
}

func TestInvokeRoundTrip(t *testing.T) {
	inv, client := newBridge(t)
	facade := backend.NewFacade(client, quietLogger())
	ctx := context.Background()

	version, err := facade.GetAvailableVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "v1.0.2", version)

	_, err = facade.LoadInstallLocation(ctx)
	var cmdErr *backend.CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, "Not Configured", cmdErr.Message)

	require.NoError(t, facade.SetInstallLocation(ctx, "/games/starbound"))
	require.Len(t, inv.args, 1)
	require.JSONEq(t, `{"location":"/games/starbound"}`, string(inv.args[0]))
}

func TestInvokeUnknownCommand(t *testing.T) {
	inv, client := newBridge(t)
	_, err := client.Invoke(context.Background(), backend.Command("change_starbound_location"), nil)
	require.ErrorIs(t, err, backend.ErrUnknownCommand)
	require.Empty(t, inv.calls)
}

func TestEventStreamDeliversInOrder(t *testing.T) {
	_, client := newBridge(t)

	connected := make(chan string, 1)
	stream := client.Events(remote.StreamHooks{
		OnConnected: func(id string) { connected <- id },
	})
	var (
		mu  sync.Mutex
		got []string
	)
	record := func(prefix string) func(backend.Message) {
		return func(m backend.Message) {
			mu.Lock()
			got = append(got, prefix+m.Message)
			mu.Unlock()
		}
	}
	_, err := stream.Subscribe(backend.EventStatus, record("status:"))
	require.NoError(t, err)
	_, err = stream.Subscribe(backend.EventLog, record("log:"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx) }()

	select {
	case id := <-connected:
		require.NotEmpty(t, id)
	case <-time.After(5 * time.Second):
		t.Fatalf("event stream did not connect")
	}

	_, err = client.Invoke(context.Background(), backend.CmdUpdate, nil)
	require.NoError(t, err)

	want := []string{
		"status:Starting update process",
		"log:Downloaded ships (10 B)",
		"log:Updated modpack to v1.0.2",
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(want)
	}, 5*time.Second, 20*time.Millisecond)
	mu.Lock()
	require.Equal(t, want, got)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("event stream did not stop")
	}
}

func TestHealthz(t *testing.T) {
	_, client := newBridge(t)
	require.NoError(t, client.Ping(context.Background()))
}

func TestEventStreamStopsOnMissingEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	stream := remote.New(srv.Client(), srv.URL, quietLogger()).Events(remote.StreamHooks{})

	err := stream.Run(context.Background())
	var statusErr *backend.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
