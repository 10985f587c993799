package launcher

import (
	"fmt"
	"sync"

	"modpack-launcher/internal/backend"
)

// Bridge routes backend events into an Aggregator: status events replace the
// status line, log events become entries (and so also the status line).
type Bridge struct {
	events backend.EventSource
	log    *Aggregator

	mu      sync.Mutex
	started bool
	unsubs  []func()
}

func NewBridge(events backend.EventSource, log *Aggregator) *Bridge {
	if events == nil || log == nil {
		panic("launcher.NewBridge: events and log must not be nil")
	}
	return &Bridge{events: events, log: log}
}

// Start subscribes to the backend events. Only the first successful call
// subscribes; later calls are no-ops. If a subscription fails nothing stays
// registered and Start may be called again.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return nil
	}

	routes := []struct {
		name    backend.EventName
		handler func(backend.Message)
	}{
		{name: backend.EventStatus, handler: func(m backend.Message) { b.log.SetStatus(m.Message) }},
		{name: backend.EventLog, handler: func(m backend.Message) { b.log.Append(m.Message) }},
	}
	unsubs := make([]func(), 0, len(routes))
	for _, route := range routes {
		unsubscribe, err := b.events.Subscribe(route.name, route.handler)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return fmt.Errorf("subscribe to %s events: %w", route.name, err)
		}
		unsubs = append(unsubs, unsubscribe)
	}
	b.unsubs = unsubs
	b.started = true
	return nil
}

// Stop removes the subscriptions. A later Start subscribes again.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.unsubs {
		u()
	}
	b.unsubs = nil
	b.started = false
}
