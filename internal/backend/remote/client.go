// Package remote drives a launcher backend served over HTTP by package
// server: commands are POSTed and events arrive over server-sent events.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"modpack-launcher/internal/backend"
	"modpack-launcher/internal/logging"
)

const (
	reconnectDelay    = 1 * time.Second
	reconnectMaxDelay = 30 * time.Second
	readyPollDelay    = 250 * time.Millisecond
	maxResponseBytes  = 1 << 20
)

// InvokeResponse is the body of every /invoke response.
type InvokeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Client struct {
	http    *http.Client
	baseURL string
	logger  *logging.Logger
}

func New(httpClient *http.Client, baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		panic("remote.New: logger must not be nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

func (c *Client) Invoke(ctx context.Context, cmd backend.Command, args any) (json.RawMessage, error) {
	var body io.Reader = http.NoBody
	if args != nil {
		payload, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}
	url := c.baseURL + "/invoke/" + string(cmd)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger.Debugf("POST %s -> %s (request %s)", url, resp.Status, requestID)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	var decoded InvokeResponse
	decodeErr := json.Unmarshal(data, &decoded)

	switch {
	case resp.StatusCode >= 400 && decodeErr == nil && decoded.Error != "":
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", backend.ErrUnknownCommand, cmd)
		}
		return nil, &backend.CommandError{Command: cmd, Message: decoded.Error}
	case resp.StatusCode >= 400:
		c.logger.Warn("backend request rejected",
			logging.Field("status", resp.Status),
			logging.Field("command", string(cmd)),
			logging.Field("response", logging.FormatPayload(data)),
		)
		return nil, &backend.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	case decodeErr != nil:
		return nil, fmt.Errorf("decode %s response: %w", cmd, decodeErr)
	}
	if len(decoded.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return decoded.Result, nil
}

// Ping checks the backend answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &backend.HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// WaitReady pings the backend until it answers. Connection failures and
// unavailable responses are retried until maxWait has passed; any other HTTP
// error ends the wait at once.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = readyPollDelay
	retry.MaxInterval = 2 * time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.Ping(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		var statusErr *backend.HTTPStatusError
		if errors.As(err, &statusErr) && !IsUnavailable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(retry),
		backoff.WithMaxElapsedTime(maxWait),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("waiting for backend",
				logging.Field("error", err),
				logging.Field("next_retry", next.String()),
			)
		}),
	)
	return err
}

// IsUnavailable reports whether err is a response from a backend that is
// up but not ready to serve, or from a proxy that could not reach it.
func IsUnavailable(err error) bool {
	var statusErr *backend.HTTPStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusServiceUnavailable || statusErr.StatusCode == http.StatusBadGateway
}
