// Package server exposes a backend.Invoker and its events over HTTP for
// package remote.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/backend/remote"
	"modpack-launcher/internal/logging"
)

const (
	maxArgsBytes      = 64 << 10
	keepAliveInterval = 15 * time.Second
	clientQueueSize   = 64
)

type Server struct {
	invoker backend.Invoker
	events  backend.EventSource
	logger  *logging.Logger
	router  *mux.Router
}

func New(invoker backend.Invoker, events backend.EventSource, logger *logging.Logger) *Server {
	if invoker == nil || events == nil {
		panic("server.New: invoker and events must not be nil")
	}
	if logger == nil {
		panic("server.New: logger must not be nil")
	}
	s := &Server{invoker: invoker, events: events, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc("/invoke/{command}", s.handleInvoke).Methods(http.MethodPost)
	s.router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.logger.Info("serving launcher backend", logging.Field("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	cmd := backend.Command(mux.Vars(r)["command"])
	requestID := r.Header.Get("X-Request-ID")
	if !cmd.Valid() {
		writeJSON(w, http.StatusNotFound, remote.InvokeResponse{Error: fmt.Sprintf("unknown command: %s", cmd)})
		return
	}

	var args any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxArgsBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, remote.InvokeResponse{Error: err.Error()})
		return
	}
	if len(body) > 0 {
		args = json.RawMessage(body)
	}

	s.logger.Debug("invoke", logging.Field("command", string(cmd)), logging.Field("request_id", requestID))
	result, err := s.invoker.Invoke(r.Context(), cmd, args)
	if err != nil {
		s.logger.Debug("invoke failed",
			logging.Field("command", string(cmd)),
			logging.Field("request_id", requestID),
			logging.Field("error", err),
		)
		writeJSON(w, http.StatusUnprocessableEntity, remote.InvokeResponse{Error: backend.ErrorText(err)})
		return
	}
	writeJSON(w, http.StatusOK, remote.InvokeResponse{Result: result})
}

// handleEvents streams status and log events to one client. Each client gets
// its own bounded queue; a client that falls that far behind is dropped
// rather than stalling the backend.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	clientID := uuid.NewString()
	queue := make(chan sseFrame, clientQueueSize)
	overflow := make(chan struct{})
	var overflowed bool

	enqueue := func(name backend.EventName) func(backend.Message) {
		return func(m backend.Message) {
			if overflowed {
				return
			}
			select {
			case queue <- sseFrame{name: string(name), message: m}:
			default:
				overflowed = true
				close(overflow)
			}
		}
	}
	var unsubscribes []func()
	for _, name := range []backend.EventName{backend.EventStatus, backend.EventLog} {
		unsubscribe, err := s.events.Subscribe(name, enqueue(name))
		if err != nil {
			for _, u := range unsubscribes {
				u()
			}
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		unsubscribes = append(unsubscribes, unsubscribe)
	}
	defer func() {
		for _, u := range unsubscribes {
			u()
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	ready, _ := json.Marshal(remote.ReadyPayload{ClientID: clientID})
	writeFrame(w, remote.EventReady, ready)
	flusher.Flush()
	s.logger.Debug("event stream client connected", logging.Field("client_id", clientID))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("event stream client disconnected", logging.Field("client_id", clientID))
			return
		case <-overflow:
			s.logger.Warn("dropping slow event stream client", logging.Field("client_id", clientID))
			return
		case frame := <-queue:
			data, err := json.Marshal(frame.message)
			if err != nil {
				continue
			}
			writeFrame(w, frame.name, data)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

type sseFrame struct {
	name    string
	message backend.Message
}

func writeFrame(w io.Writer, name string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
