// Package gateway talks to the node gateway API: it owns request headers,
// retries with exponential backoff and the forbidden short-circuit.
package gateway

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/bnema/nodekeeper/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3

	maxResponseBytes = 1 << 20
	maxLoggedBody    = 512
	maxBackoffShift  = 16
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrAttemptsExhausted = errors.New("attempts exhausted")
)

// StatusError is a non-2xx answer from the gateway.
type StatusError struct {
	StatusCode int
	Reason     string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d (%s)", e.StatusCode, e.Reason)
}

type Executor struct {
	client      *http.Client
	baseURL     string
	token       string
	userAgent   string
	origin      string
	backoffBase time.Duration
	sleep       ports.Sleeper
	logger      zerolog.Logger
}

var _ ports.Requester = (*Executor)(nil)

// Perform sends one logical call, retrying transport errors and non-2xx
// answers up to maxAttempts times. A 403 stops immediately.
func (e *Executor) Perform(ctx context.Context, method, path string, body any, maxAttempts int) (*ports.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	endpoint := e.baseURL + path
	payload, err := encodeBody(method, body)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With().Str("method", method).Str("url", endpoint).Logger()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		logger.Debug().Int("attempt", attempt+1).Msg("sending request")

		resp, err := e.do(ctx, method, endpoint, payload)
		if err == nil {
			logger.Info().
				Int("attempt", attempt+1).
				Int("status", resp.StatusCode).
				Str("body", truncate(resp.Body)).
				Msg("request completed")
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			logger.Error().
				Int("attempt", attempt+1).
				Int("status", statusErr.StatusCode).
				Str("reason", statusErr.Reason).
				Msg("api call failed")
			if statusErr.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrForbidden, statusErr)
			}
		} else {
			logger.Error().Int("attempt", attempt+1).Err(err).Msg("api call failed")
		}

		if attempt+1 >= maxAttempts {
			break
		}
		if err := e.sleep(ctx, e.backoff(attempt)); err != nil {
			return nil, err
		}
	}

	logger.Error().Int("attempts", maxAttempts).Msg("api call failed after all attempts")
	return nil, fmt.Errorf("%s %s: %w after %d attempts: %w", method, path, ErrAttemptsExhausted, maxAttempts, lastErr)
}

// backoff returns base * 2^attempt for the zero-based attempt that just failed.
func (e *Executor) backoff(attempt int) time.Duration {
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return e.backoffBase * time.Duration(1<<attempt)
}

func (e *Executor) do(ctx context.Context, method, endpoint string, payload []byte) (*ports.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	e.setHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Reason: reason(resp), Body: body}
	}

	return &ports.Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}, nil
}

func (e *Executor) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Content-Type", "application/json")
	if e.origin != "" {
		req.Header.Set("Origin", e.origin)
	}
}

func encodeBody(method string, body any) ([]byte, error) {
	if body == nil {
		if method == http.MethodGet || method == http.MethodHead {
			return nil, nil
		}
		return []byte("{}"), nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

// readBody decodes the content encoding by hand: setting Accept-Encoding
// turns off the transport's own gzip handling.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open deflate body: %w", err)
		}
		defer func() { _ = zr.Close() }()
		reader = zr
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func reason(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func truncate(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody]) + "..."
}
