package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"hfproxy-gateway/internal/metrics"
	"hfproxy-gateway/internal/modelmap"
	"hfproxy-gateway/internal/stats"
	"hfproxy-gateway/internal/stream"
	"hfproxy-gateway/internal/upstream"
	"hfproxy-gateway/pkg/logging/logging"
)

// ChatHandler holds dependencies for the /v1/chat/completions endpoint.
type ChatHandler struct {
	Upstream upstream.Client
	Models   *modelmap.Table
	Emitter  *stream.Emitter
	Stats    stats.Store
}

func NewChatHandler(client upstream.Client, models *modelmap.Table, emitter *stream.Emitter, store stats.Store) *ChatHandler {
	return &ChatHandler{
		Upstream: client,
		Models:   models,
		Emitter:  emitter,
		Stats:    store,
	}
}

// ChatCompletion handles POST /v1/chat/completions: normalize the inbound
// request, make the single provider call, then either forward the JSON body
// (non-stream), relay the provider's live stream, or manufacture a paced
// stream out of the complete answer.
func (h *ChatHandler) ChatCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	h.count(r, stats.RequestsTotal)

	var req upstream.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		h.count(r, stats.InvalidRequests)
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	out, err := upstream.Normalize(&req, h.Models)
	if err != nil {
		var verr *upstream.ValidationError
		details := "invalid request"
		if errors.As(err, &verr) {
			details = verr.Reason
		}
		logger.Warn("request rejected", zap.String("reason", details))
		h.count(r, stats.InvalidRequests)
		writeError(w, http.StatusBadRequest, "invalid_request", details)
		return
	}

	if !h.Upstream.HasCredential() {
		logger.Warn("rejected: no upstream API key configured")
		writeError(w, http.StatusUnauthorized, "unauthorized", "upstream API key is not configured")
		return
	}

	res, err := h.Upstream.Invoke(ctx, out)
	if err != nil {
		h.respondInvokeError(w, logger, r, err)
		return
	}

	if req.Stream {
		h.streamResponse(w, r, out.Model, res)
		logger.Info("chat_completion",
			zap.String("model", out.Model),
			zap.Bool("stream", true),
			zap.Duration("total_latency_ms", time.Since(start)),
		)
		return
	}

	// Non-streaming: forward the provider body unchanged with its status.
	if res.IsLive() {
		// Provider streamed even though we did not ask; relay it rather
		// than buffering an unbounded body.
		defer res.Live.Close()
		h.relay(w, r, out.Model, res)
		logger.Info("chat_completion",
			zap.String("model", out.Model),
			zap.Bool("stream", true),
			zap.Duration("total_latency_ms", time.Since(start)),
		)
		return
	}

	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(res.Body)

	logger.Info("chat_completion",
		zap.String("model", out.Model),
		zap.Bool("stream", false),
		zap.Duration("total_latency_ms", time.Since(start)),
	)
}

// streamResponse picks the emitter mode from the provider result.
func (h *ChatHandler) streamResponse(w http.ResponseWriter, r *http.Request, model string, res *upstream.Result) {
	if res.IsLive() {
		defer res.Live.Close()
		h.relay(w, r, model, res)
		return
	}

	h.count(r, stats.StreamsSimulated)
	metrics.StreamsTotal.WithLabelValues("simulated").Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	h.Emitter.Simulate(r.Context(), w, model, upstream.AnswerText(res.Body))
}

func (h *ChatHandler) relay(w http.ResponseWriter, r *http.Request, model string, res *upstream.Result) {
	h.count(r, stats.StreamsPassthrough)
	metrics.StreamsTotal.WithLabelValues("passthrough").Inc()

	contentType := res.ContentType
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	h.Emitter.Relay(r.Context(), w, res.Live, model)
}

func (h *ChatHandler) respondInvokeError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	var serr *upstream.StatusError
	switch {
	case errors.As(err, &serr):
		h.count(r, stats.UpstreamErrors)
		metrics.UpstreamErrorsTotal.Inc()
		logger.Warn("upstream failure",
			zap.Int("status", serr.Status),
		)
		writeUpstreamError(w, serr.Status, serr.Body)
	case errors.Is(err, upstream.ErrNoCredential):
		writeError(w, http.StatusUnauthorized, "unauthorized", "upstream API key is not configured")
	default:
		h.count(r, stats.UpstreamErrors)
		metrics.UpstreamErrorsTotal.Inc()
		logger.Error("upstream unreachable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:   "upstream_unreachable",
			Details: err.Error(),
			Status:  http.StatusBadGateway,
		})
	}
}

// count increments a stats counter; the store is best-effort.
func (h *ChatHandler) count(r *http.Request, name string) {
	if h.Stats == nil {
		return
	}
	if err := h.Stats.Incr(r.Context(), name); err != nil {
		logging.L(r.Context()).Warn("stats_incr_error",
			zap.String("counter", name),
			zap.Error(err),
		)
	}
}
