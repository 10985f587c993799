package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Logger writes structured diagnostic events to the console, an optional
// rotating JSONL file and any number of in-process subscribers. Child loggers
// created with Named or With share the same outputs.
type Logger struct {
	core      *core
	component string
	attrs     []slog.Attr
}

type core struct {
	debug   atomic.Bool
	console atomic.Bool
	pretty  bool

	outMu sync.Mutex
	out   io.Writer

	mu          sync.RWMutex
	sink        *fileSink
	nextID      int
	subscribers map[int]func(Event)
}

type Event struct {
	Time      time.Time
	Level     slog.Level
	Component string
	Message   string
	Fields    map[string]any
}

func New(debug bool) *Logger {
	c := &core{
		pretty:      shouldColorize(),
		out:         os.Stderr,
		subscribers: map[int]func(Event){},
	}
	c.debug.Store(debug)
	c.console.Store(true)
	return &Logger{core: c}
}

func Field(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Named returns a child logger tagging every event with component.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.component = component
	return &child
}

// With returns a child logger that prepends fields to every event.
func (l *Logger) With(fields ...slog.Attr) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.attrs = append(append([]slog.Attr(nil), l.attrs...), fields...)
	return &child
}

func (l *Logger) SetDebugEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.core.debug.Store(enabled)
}

func (l *Logger) DebugEnabled() bool {
	return l != nil && l.core.debug.Load()
}

// SetConsoleOutputEnabled toggles writing to the console writer. Terminal UIs
// disable it so diagnostics do not tear the alternate screen.
func (l *Logger) SetConsoleOutputEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.core.console.Store(enabled)
}

func (l *Logger) SetOutput(w io.Writer) {
	if l == nil || w == nil {
		return
	}
	l.core.outMu.Lock()
	l.core.out = w
	l.core.pretty = false
	l.core.outMu.Unlock()
}

// EnableFilePersistence starts writing every event, including hidden debug
// events, to a rotating JSONL file in the default log directory.
func (l *Logger) EnableFilePersistence(maxBytes int64) error {
	if l == nil {
		return nil
	}
	dir, err := DefaultLogDirPath()
	if err != nil {
		return err
	}
	return l.enableFileSink(dir, maxBytes)
}

func (l *Logger) enableFileSink(dir string, maxBytes int64) error {
	sink, err := openFileSink(dir, maxBytes, time.Now())
	if err != nil {
		return err
	}
	l.core.mu.Lock()
	old := l.core.sink
	l.core.sink = sink
	l.core.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.core.mu.Lock()
	sink := l.core.sink
	l.core.sink = nil
	l.core.mu.Unlock()
	if sink == nil {
		return nil
	}
	return sink.Close()
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelDebug, msg, fields, l.core.debug.Load())
}

func (l *Logger) Info(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelInfo, msg, fields, true)
}

func (l *Logger) Warn(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelWarn, msg, fields, true)
}

func (l *Logger) Error(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelError, msg, fields, true)
}

// Subscribe registers fn for every visible event and returns a function that
// removes the registration.
func (l *Logger) Subscribe(fn func(Event)) func() {
	if l == nil {
		panic("logging.Logger.Subscribe: logger must not be nil")
	}
	if fn == nil {
		panic("logging.Logger.Subscribe: callback must not be nil")
	}
	c := l.core
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (l *Logger) log(level slog.Level, msg string, fields []slog.Attr, visible bool) {
	all := fields
	if len(l.attrs) > 0 {
		all = append(append([]slog.Attr(nil), l.attrs...), fields...)
	}
	event := Event{
		Time:      time.Now(),
		Level:     level,
		Component: l.component,
		Message:   msg,
		Fields:    fieldMap(all),
	}

	c := l.core
	c.mu.RLock()
	sink := c.sink
	var callbacks []func(Event)
	if visible && len(c.subscribers) > 0 {
		callbacks = make([]func(Event), 0, len(c.subscribers))
		for _, cb := range c.subscribers {
			callbacks = append(callbacks, cb)
		}
	}
	c.mu.RUnlock()

	if sink != nil {
		_ = sink.WriteEvent(event)
	}
	if !visible {
		return
	}
	if c.console.Load() {
		c.writeConsole(event)
	}
	for _, cb := range callbacks {
		cb(event)
	}
}

func (c *core) writeConsole(event Event) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.pretty {
		_, _ = io.WriteString(c.out, FormatEventANSI(event))
		return
	}
	_, _ = io.WriteString(c.out, FormatEventLine(event))
}

func fieldMap(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		out[attr.Key] = attrValue(attr.Value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func attrValue(value slog.Value) any {
	value = value.Resolve()
	if value.Kind() != slog.KindGroup {
		return value.Any()
	}
	group := map[string]any{}
	for _, inner := range value.Group() {
		if inner.Key != "" {
			group[inner.Key] = attrValue(inner.Value)
		}
	}
	return group
}
