// Package fetcher performs single authenticated calls against the backend.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"halaqat/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderSource supplies the headers attached to every request.
type HeaderSource interface {
	CurrentHeaders() http.Header
}

// Response is a successful (2xx) backend response.
type Response struct {
	Status   int
	Body     []byte
	Envelope models.Envelope
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Fetcher never retries; retry policy belongs to the caller.
type Fetcher struct {
	baseURL string
	client  *http.Client
	headers HeaderSource
	logger  *zap.Logger
}

// New binds a fetcher to a backend base URL and the session's client.
func New(baseURL string, client *http.Client, headers HeaderSource, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		headers: headers,
		logger:  logger,
	}
}

func (f *Fetcher) Get(ctx context.Context, path string) (*Response, error) {
	return f.Request(ctx, http.MethodGet, path, nil)
}

func (f *Fetcher) Post(ctx context.Context, path string, body any) (*Response, error) {
	return f.Request(ctx, http.MethodPost, path, body)
}

func (f *Fetcher) Delete(ctx context.Context, path string) (*Response, error) {
	return f.Request(ctx, http.MethodDelete, path, nil)
}

// Request sends one call. Any outcome other than a 2xx is a *RequestError.
func (f *Fetcher) Request(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.url(path), reader)
	if err != nil {
		return nil, &RequestError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	for k, v := range f.headers.CurrentHeaders() {
		req.Header[k] = v
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	log := f.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("requestID", requestID),
	)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Warn("backend request failed", zap.Error(err))
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read backend response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, &RequestError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var env models.Envelope
	// Non-JSON bodies leave the envelope empty.
	_ = json.Unmarshal(raw, &env)

	log.Debug("backend response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			Status:      resp.StatusCode,
			Message:     env.Message,
			FieldErrors: env.Errors.Map(),
		}
	}
	return &Response{Status: resp.StatusCode, Body: raw, Envelope: env}, nil
}

func (f *Fetcher) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return f.baseURL + "/" + strings.TrimLeft(path, "/")
}
