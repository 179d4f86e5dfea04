package simulation

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

	"go.uber.org/zap"
)

// maxResponseBytes bounds the body read from the simulation service.
const maxResponseBytes = 32 << 20

// ErrSimulationFailed is matched by every error returned from Simulate.
var ErrSimulationFailed = errors.New("simulation failed")

// ErrResponseTooLarge marks a response body over the read limit.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError reports a non-2xx answer from the simulation service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("simulation service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("simulation service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrSimulationFailed
}

// Simulator runs one simulation request.
type Simulator interface {
	Simulate(ctx context.Context, req Request) (*Results, error)
}

// Client posts requests to the simulation service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	maxBody    int64
}

// NewClient creates a client for endpoint. A zero timeout waits for the
// service indefinitely.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		maxBody:    maxResponseBytes,
	}
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Simulate posts req and returns the validated results. Every failure,
// whether transport, status or schema, matches ErrSimulationFailed. There is
// no retry.
func (c *Client) Simulate(ctx context.Context, req Request) (*Results, error) {
	logger := c.logger.With(
		zap.String("op", "simulation.Simulate"),
		zap.String("endpoint", c.endpoint),
		zap.Int("conditions", len(req.Conditions)),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrSimulationFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrSimulationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	logger.Debug("posting simulation request")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("simulation request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSimulationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		logger.Warn("reading simulation response failed", zap.Error(err))
		return nil, fmt.Errorf("%w: read response: %w", ErrSimulationFailed, err)
	}
	if int64(len(raw)) > c.maxBody {
		logger.Warn("simulation response too large", zap.Int64("limit", c.maxBody))
		return nil, fmt.Errorf("%w: %w: exceeds %d bytes", ErrSimulationFailed, ErrResponseTooLarge, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: snippet(raw)}
		logger.Warn("simulation service rejected request", zap.Int("status", resp.StatusCode))
		return nil, statusErr
	}

	results, err := DecodeResponse(raw)
	if err != nil {
		logger.Warn("simulation response failed validation", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSimulationFailed, err)
	}

	logger.Info("simulation completed",
		zap.Int("results", results.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
