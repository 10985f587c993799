package backend

import (
	"sort"
	"sync"
)

// Hub is an in-process EventSource. Emit delivers synchronously on the
// caller's goroutine; deliveries are serialized so handlers observe events in
// emission order and never run concurrently with each other.
type Hub struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventName]map[int]func(Message)

	deliverMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{handlers: map[EventName]map[int]func(Message){}}
}

func (h *Hub) Subscribe(name EventName, handler func(Message)) (func(), error) {
	if handler == nil {
		panic("backend.Hub.Subscribe: handler must not be nil")
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.handlers[name] == nil {
		h.handlers[name] = map[int]func(Message){}
	}
	h.handlers[name][id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers[name], id)
			h.mu.Unlock()
		})
	}, nil
}

func (h *Hub) Emit(name EventName, message string) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	h.mu.RLock()
	registered := h.handlers[name]
	ids := make([]int, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(Message), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, registered[id])
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(Message{Message: message})
	}
}

func (h *Hub) Status(message string) {
	h.Emit(EventStatus, message)
}

func (h *Hub) Log(message string) {
	h.Emit(EventLog, message)
}
