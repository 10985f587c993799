package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/logging"
)

// EventReady is the first event of every stream; it carries the id the
// server assigned to this connection.
const EventReady = "ready"

type ReadyPayload struct {
	ClientID string `json:"clientId"`
}

type StreamHooks struct {
	OnConnected    func(clientID string)
	OnDisconnected func(err error)
}

// EventStream is a backend.EventSource fed by the server's /events stream.
// Handlers run on the stream goroutine one event at a time, in the order the
// server sent them.
type EventStream struct {
	http   *http.Client
	url    string
	logger *logging.Logger
	hooks  StreamHooks

	mu       sync.RWMutex
	nextID   int
	handlers map[backend.EventName]map[int]func(backend.Message)
}

func (c *Client) Events(hooks StreamHooks) *EventStream {
	return &EventStream{
		http:     c.http,
		url:      c.baseURL + "/events",
		logger:   c.logger,
		hooks:    hooks,
		handlers: map[backend.EventName]map[int]func(backend.Message){},
	}
}

func (s *EventStream) Subscribe(name backend.EventName, handler func(backend.Message)) (func(), error) {
	if handler == nil {
		panic("remote.EventStream.Subscribe: handler must not be nil")
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.handlers[name] == nil {
		s.handlers[name] = map[int]func(backend.Message){}
	}
	s.handlers[name][id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers[name], id)
			s.mu.Unlock()
		})
	}, nil
}

// Run keeps the stream connected until ctx ends, reconnecting with
// exponential backoff. Events emitted while disconnected are lost.
func (s *EventStream) Run(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = reconnectDelay
	retry.MaxInterval = reconnectMaxDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.runSession(ctx, retry)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		if s.hooks.OnDisconnected != nil {
			s.hooks.OnDisconnected(err)
		}
		var statusErr *backend.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(retry),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Debug("reconnecting backend event stream",
				logging.Field("error", err),
				logging.Field("next_retry", next.String()),
			)
		}),
	)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *EventStream) runSession(ctx context.Context, retry *backoff.ExponentialBackOff) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream stays open indefinitely; drop any whole-request timeout.
	streamHTTP := *s.http
	streamHTTP.Timeout = 0
	resp, err := streamHTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Warn("backend event stream rejected",
			logging.Field("status", resp.Status),
			logging.Field("response", logging.FormatPayload(data)),
		)
		return &backend.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	events := make(chan sseEvent, 16)
	streamErrs := make(chan error, 1)
	go readSSEEvents(ctx.Done(), resp.Body, events, streamErrs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				select {
				case err := <-streamErrs:
					return err
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if event.Name == EventReady {
				var ready ReadyPayload
				if err := json.Unmarshal(event.Data, &ready); err != nil {
					return err
				}
				retry.Reset()
				s.logger.Debug("backend event stream connected", logging.Field("client_id", ready.ClientID))
				if s.hooks.OnConnected != nil {
					s.hooks.OnConnected(ready.ClientID)
				}
				continue
			}
			s.dispatch(event)
		}
	}
}

func (s *EventStream) dispatch(event sseEvent) {
	var message backend.Message
	if err := json.Unmarshal(event.Data, &message); err != nil {
		s.logger.Warn("failed to decode backend event",
			logging.Field("event", event.Name),
			logging.Field("error", err),
			logging.Field("data", logging.FormatPayload(event.Data)),
		)
		return
	}
	name := backend.EventName(event.Name)

	s.mu.RLock()
	registered := s.handlers[name]
	ids := make([]int, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(backend.Message), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, registered[id])
	}
	s.mu.RUnlock()

	if len(handlers) == 0 {
		s.logger.Debug("ignoring backend event", logging.Field("event", event.Name))
		return
	}
	for _, handler := range handlers {
		handler(message)
	}
}
