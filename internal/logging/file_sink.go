package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultLogFileMaxBytes = 5 * 1024 * 1024
	keepSessionFiles       = 20
	logFilePrefix          = "launcher-"
)

type fileSink struct {
	mu       sync.Mutex
	dir      string
	session  string
	maxBytes int64
	part     int
	file     *os.File
	size     int64
	closed   bool
}

type jsonLogLine struct {
	Time      string         `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func DefaultLogDirPath() (string, error) {
	root, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "modpack-launcher", "logs"), nil
}

func openFileSink(dir string, maxBytes int64, now time.Time) (*fileSink, error) {
	if maxBytes <= 0 {
		maxBytes = defaultLogFileMaxBytes
	}
	sink := &fileSink{
		dir:      dir,
		session:  now.UTC().Format("20060102-150405"),
		maxBytes: maxBytes,
	}
	if err := sink.rotateLocked(); err != nil {
		return nil, err
	}
	pruneOldLogFiles(dir, keepSessionFiles)
	return sink, nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.size = 0
	return err
}

func (s *fileSink) WriteEvent(event Event) error {
	line, err := encodeLogLine(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return os.ErrClosed
	}
	if s.file == nil || (s.size > 0 && s.size+int64(len(line)) > s.maxBytes) {
		if err := s.rotateLocked(); err != nil {
			return err
		}
	}
	n, err := s.file.Write(line)
	s.size += int64(n)
	return err
}

func (s *fileSink) rotateLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
		s.size = 0
	}
	s.part++
	name := fmt.Sprintf("%s%s-%03d.jsonl", logFilePrefix, s.session, s.part)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	s.file = f
	s.size = info.Size()
	return nil
}

func encodeLogLine(event Event) ([]byte, error) {
	entry := jsonLogLine{
		Time:      event.Time.UTC().Format(time.RFC3339Nano),
		Level:     strings.ToUpper(event.Level.String()),
		Component: event.Component,
		Message:   event.Message,
	}
	if len(event.Fields) > 0 {
		entry.Fields = make(map[string]any, len(event.Fields))
		for key, value := range event.Fields {
			entry.Fields[key] = jsonSafe(value)
		}
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}

func jsonSafe(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case error:
		return v.Error()
	case time.Duration:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

// pruneOldLogFiles keeps the newest keep launcher log files in dir. The
// session tag sorts lexically by time so name order is age order.
func pruneOldLogFiles(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		names = append(names, name)
	}
	if len(names) <= keep {
		return
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
