package launcher

import (
	"sync"
	"time"
)

type Entry struct {
	Seq  uint64
	Time time.Time
	Text string
}

// Aggregator keeps the user-facing log, most recent first, and the single
// status line. With a positive capacity the oldest entries are evicted once
// it is full; capacity 0 keeps everything.
type Aggregator struct {
	mu       sync.Mutex
	capacity int
	buf      []Entry
	start    int
	count    int
	seq      uint64
	status   string
	now      func() time.Time

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func()
}

func NewAggregator(capacity int) *Aggregator {
	if capacity < 0 {
		capacity = 0
	}
	a := &Aggregator{
		capacity: capacity,
		now:      time.Now,
		subs:     map[int]func(){},
	}
	if capacity > 0 {
		a.buf = make([]Entry, capacity)
	}
	return a
}

// Append records text as the newest entry and makes it the status line.
func (a *Aggregator) Append(text string) {
	a.mu.Lock()
	a.seq++
	entry := Entry{Seq: a.seq, Time: a.now(), Text: text}
	switch {
	case a.capacity == 0:
		a.buf = append(a.buf, entry)
		a.count++
	case a.count < a.capacity:
		a.buf[(a.start+a.count)%a.capacity] = entry
		a.count++
	default:
		a.buf[a.start] = entry
		a.start = (a.start + 1) % a.capacity
	}
	a.status = text
	a.mu.Unlock()
	a.notify()
}

// Clear drops every entry. The status line is left as it is.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	if a.capacity == 0 {
		a.buf = nil
	} else {
		clear(a.buf)
	}
	a.start = 0
	a.count = 0
	a.mu.Unlock()
	a.notify()
}

func (a *Aggregator) SetStatus(text string) {
	a.mu.Lock()
	a.status = text
	a.mu.Unlock()
	a.notify()
}

func (a *Aggregator) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Entries returns a copy of the log, most recent first.
func (a *Aggregator) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, 0, a.count)
	for i := a.count - 1; i >= 0; i-- {
		out = append(out, a.buf[(a.start+i)%len(a.buf)])
	}
	return out
}

// Subscribe registers fn to be called after every change.
func (a *Aggregator) Subscribe(fn func()) func() {
	if fn == nil {
		panic("launcher.Aggregator.Subscribe: callback must not be nil")
	}
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

func (a *Aggregator) notify() {
	a.subMu.RLock()
	callbacks := make([]func(), 0, len(a.subs))
	for _, fn := range a.subs {
		callbacks = append(callbacks, fn)
	}
	a.subMu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}
