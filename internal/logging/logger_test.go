package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultLogDirPathSuffix(t *testing.T) {
	path, err := DefaultLogDirPath()
	if err != nil {
		t.Fatalf("DefaultLogDirPath() error = %v", err)
	}
	if want := filepath.Join("modpack-launcher", "logs"); !strings.HasSuffix(path, want) {
		t.Fatalf("DefaultLogDirPath() = %q, want suffix %q", path, want)
	}
}

func TestSubscribeReceivesNamedEvents(t *testing.T) {
	logger := New(false)
	logger.SetConsoleOutputEnabled(false)

	var got []Event
	unsubscribe := logger.Subscribe(func(event Event) {
		got = append(got, event)
	})

	child := logger.Named("selfupdate").With(Field("cycle", 1))
	child.Info("checking", Field("repo", "owner/name"))
	child.Debug("hidden while debug is off")
	unsubscribe()
	unsubscribe()
	child.Info("after unsubscribe")

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Component != "selfupdate" {
		t.Fatalf("component = %q", got[0].Component)
	}
	if got[0].Fields["cycle"] != int64(1) || got[0].Fields["repo"] != "owner/name" {
		t.Fatalf("unexpected fields %#v", got[0].Fields)
	}
}

func TestConsoleOutputPlainFormat(t *testing.T) {
	logger := New(true)
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.Named("backend").Warn("invoke failed", Field("error", errors.New("boom")))

	line := buf.String()
	if !strings.Contains(line, "[WARN] backend: invoke failed") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.Contains(line, "error=boom") {
		t.Fatalf("expected error field in %q", line)
	}
}

func TestFileSinkWritesJSONLAndRotates(t *testing.T) {
	dir := t.TempDir()
	sink, err := openFileSink(dir, 200, time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("openFileSink() error = %v", err)
	}
	event := Event{
		Time:      time.Unix(1700000000, 0),
		Level:     slog.LevelDebug,
		Component: "launcher",
		Message:   "session log line",
		Fields:    map[string]any{"count": 7, "status": "ok"},
	}
	for i := 0; i < 6; i++ {
		if err := sink.WriteEvent(event); err != nil {
			t.Fatalf("WriteEvent() error = %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sink.WriteEvent(event); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("WriteEvent() after close error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotation to create multiple files, got %d", len(entries))
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "launcher-20260221-120000-") {
			t.Fatalf("unexpected log filename %q", entry.Name())
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			var decoded jsonLogLine
			if err := json.Unmarshal([]byte(line), &decoded); err != nil {
				t.Fatalf("invalid json line %q: %v", line, err)
			}
			if decoded.Component != "launcher" || decoded.Level != "DEBUG" {
				t.Fatalf("unexpected decoded line %#v", decoded)
			}
		}
	}
}

func TestLoggerPersistsHiddenDebugAndStopsAfterClose(t *testing.T) {
	dir := t.TempDir()
	logger := New(false)
	logger.SetConsoleOutputEnabled(false)
	if err := logger.enableFileSink(dir, 0); err != nil {
		t.Fatalf("enableFileSink() error = %v", err)
	}

	logger.Debug("debug only in file")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	logger.Info("after close")

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %d (%v)", len(entries), err)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "debug only in file") {
		t.Fatalf("expected hidden debug event in file")
	}
	if strings.Contains(string(data), "after close") {
		t.Fatalf("did not expect post-close event in file")
	}
}

func TestPruneOldLogFilesKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"launcher-20260101-000000-001.jsonl",
		"launcher-20260102-000000-001.jsonl",
		"launcher-20260103-000000-001.jsonl",
		"unrelated.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	pruneOldLogFiles(dir, 2)

	if _, err := os.Stat(filepath.Join(dir, names[0])); !os.IsNotExist(err) {
		t.Fatalf("expected oldest log to be pruned, stat err = %v", err)
	}
	for _, name := range names[1:] {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestFormatPayload(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: "<empty>"},
		{input: `{"error": "Not Configured"}`, want: `{"error":"Not Configured"}`},
		{input: `"{\"a\":1}"`, want: `{"a":1}`},
		{input: "plain\ntext body", want: "plain text body"},
	}
	for _, tc := range cases {
		if got := FormatPayload([]byte(tc.input)); got != tc.want {
			t.Fatalf("FormatPayload(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
