package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxRequestSize = 2 * 1024 * 1024 // 2MB total JSON payload

type client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a provider client with the given configuration.
func NewClient(cfg Config, logger *zap.Logger) (Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: defaultTransport(cfg),
		}
	}

	return &client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("upstream"),
	}, nil
}

func (c *client) HasCredential() bool {
	return c.cfg.APIKey != ""
}

// Invoke performs exactly one provider round trip; failed calls are never
// retried (completions may have billing and rate-limit side effects).
//
// The result is classified by status and declared content type: non-2xx
// becomes a *StatusError with the raw body text; a 2xx event-stream or
// plain-text reply is handed over as an unread live stream; anything else
// is read fully and must be a single JSON document.
func (c *client) Invoke(ctx context.Context, req *OutboundRequest) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("upstream: request is nil")
	}
	if !c.HasCredential() {
		return nil, ErrNoCredential
	}

	start := time.Now()

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal request: %w", err)
	}
	if len(bodyBytes) > maxRequestSize {
		return nil, fmt.Errorf(
			"upstream: request too large (%d bytes, max %d)",
			len(bodyBytes), maxRequestSize,
		)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("upstream: build HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("provider request starting",
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("stream", req.Stream),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("provider request failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("upstream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		c.logger.Error("provider error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	contentType := resp.Header.Get("Content-Type")
	if isStreamingContentType(contentType) {
		c.logger.Info("provider replied with live stream",
			zap.String("model", req.Model),
			zap.String("content_type", contentType),
			zap.Duration("connect_latency", time.Since(start)),
		)
		// Hand the body over unread; the emitter relays it as-is.
		return &Result{Status: resp.StatusCode, Live: resp.Body, ContentType: contentType}, nil
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response body: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("upstream: response is not valid JSON (content type %q)", contentType)
	}

	c.logger.Info("provider request completed",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{Status: resp.StatusCode, Body: raw, ContentType: contentType}, nil
}

// isStreamingContentType reports whether the declared media type signals an
// incremental reply. Parameters like charset are ignored.
func isStreamingContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "text/event-stream", "text/plain":
		return true
	default:
		return false
	}
}
