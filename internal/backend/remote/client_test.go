package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/logging"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func response(r *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    r,
	}
}

func quietLogger() *logging.Logger {
	logger := logging.New(false)
	logger.SetConsoleOutputEnabled(false)
	return logger
}

func TestInvoke_SetsHeadersAndPath(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method != http.MethodPost {
				t.Fatalf("method = %q, want POST", r.Method)
			}
			if r.URL.Path != "/base/invoke/set_install_location" {
				t.Fatalf("path = %q", r.URL.Path)
			}
			if r.Header.Get("X-Request-ID") == "" {
				t.Fatalf("expected X-Request-ID header")
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"location":"/games/starbound"}` {
				t.Fatalf("body = %s", body)
			}
			return response(r, http.StatusOK, `{"result":null}`), nil
		}),
	}
	c := New(httpClient, "http://backend.test/base/", quietLogger())
	raw, err := c.Invoke(context.Background(), backend.CmdSetInstallLocation, backend.SetInstallLocationArgs{Location: "/games/starbound"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if string(raw) != "null" {
		t.Fatalf("Invoke() result = %s", raw)
	}
}

func TestInvoke_MapsBackendErrorToCommandError(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return response(r, http.StatusUnprocessableEntity, `{"error":"Not Configured"}`), nil
		}),
	}
	_, err := New(httpClient, "http://backend.test", quietLogger()).Invoke(context.Background(), backend.CmdLoadInstallLocation, nil)
	var cmdErr *backend.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Message != "Not Configured" || cmdErr.Command != backend.CmdLoadInstallLocation {
		t.Fatalf("unexpected command error %#v", cmdErr)
	}
}

func TestInvoke_NonJSONFailureIsHTTPStatusError(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return response(r, http.StatusBadGateway, "upstream down"), nil
		}),
	}
	_, err := New(httpClient, "http://backend.test", quietLogger()).Invoke(context.Background(), backend.CmdLaunch, nil)
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestReadSSEEvents(t *testing.T) {
	input := strings.Join([]string{
		": keepalive",
		"",
		"event: ready",
		`data: {"clientId":"abc"}`,
		"",
		"event: log",
		`data: {"message":`,
		`data: "two lines"}`,
		"",
	}, "\n")

	out := make(chan sseEvent, 4)
	errs := make(chan error, 1)
	readSSEEvents(make(chan struct{}), strings.NewReader(input), out, errs)

	var got []sseEvent
	for event := range out {
		got = append(got, event)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Name != "ready" || string(got[0].Data) != `{"clientId":"abc"}` {
		t.Fatalf("unexpected first event %#v", got[0])
	}
	if got[1].Name != "log" || string(got[1].Data) != "{\"message\":\n\"two lines\"}" {
		t.Fatalf("unexpected second event %q", got[1].Data)
	}
	if err := <-errs; !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestWaitReady_RetriesWhileUnavailable(t *testing.T) {
	var calls atomic.Int32
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/healthz" {
				t.Fatalf("path = %q, want /healthz", r.URL.Path)
			}
			if calls.Add(1) < 3 {
				return response(r, http.StatusServiceUnavailable, "starting"), nil
			}
			return response(r, http.StatusOK, "ok"), nil
		}),
	}
	err := New(httpClient, "http://backend.test", quietLogger()).WaitReady(context.Background(), 10*time.Second)
	if err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("pings = %d, want 3", got)
	}
}

func TestWaitReady_StopsOnOtherStatus(t *testing.T) {
	var calls atomic.Int32
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls.Add(1)
			return response(r, http.StatusNotFound, "no such route"), nil
		}),
	}
	err := New(httpClient, "http://backend.test", quietLogger()).WaitReady(context.Background(), 10*time.Second)
	var statusErr *backend.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("WaitReady() error = %v, want 404 status error", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("pings = %d, want 1", got)
	}
}

func TestWaitReady_GivesUpAfterMaxWait(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	}
	start := time.Now()
	err := New(httpClient, "http://backend.test", quietLogger()).WaitReady(context.Background(), 500*time.Millisecond)
	if err == nil {
		t.Fatalf("expected WaitReady to fail against an unreachable backend")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("WaitReady took %s", elapsed)
	}
}
