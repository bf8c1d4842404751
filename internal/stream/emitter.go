// Package stream turns a provider result into the client-visible chunk
// sequence: either relaying an already-incremental upstream byte stream, or
// manufacturing one by segmenting a complete answer and pacing emission.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aidarkhanov/nanoid"
	"go.uber.org/zap"

	"hfproxy-gateway/internal/metrics"
)

const (
	// DefaultInterval is the pause between successive simulated chunks. It
	// approximates incremental generation and is not derived from the text.
	DefaultInterval = 80 * time.Millisecond

	// placeholderText stands in for a completion body without usable content.
	placeholderText = "No response generated"

	doneSentinel = "data: [DONE]\n\n"

	FinishStop  = "stop"
	FinishError = "error"
)

type Delta struct {
	Content string `json:"content,omitempty"`
}

// Chunk is one emitted unit of a streamed response. The terminal chunk of a
// stream carries a finish reason and (except for in-band faults) an empty
// delta; every other chunk carries content only.
type Chunk struct {
	ID           string `json:"id"`
	Created      int64  `json:"created"`
	Model        string `json:"model"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Emitter writes SSE-framed chunk sequences. It is stateless across
// requests and safe for concurrent use.
type Emitter struct {
	interval time.Duration
	logger   *zap.Logger
}

func NewEmitter(interval time.Duration, logger *zap.Logger) *Emitter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		interval: interval,
		logger:   logger.Named("emitter"),
	}
}

// Simulate manufactures an incremental stream from a single complete answer:
// one chunk per whitespace-segmented token (a leading space on every token
// after the first reproduces the original spacing), then a terminal chunk
// with finish_reason "stop", then the [DONE] sentinel. Successive content
// chunks are separated by the pacing interval; ctx cancellation (client
// disconnect) aborts pacing and further writes promptly.
func (e *Emitter) Simulate(ctx context.Context, w http.ResponseWriter, model, text string) {
	flusher, _ := w.(http.Flusher)
	id := newChunkID()
	created := time.Now().Unix()

	// A fault after the first chunk can only be reported in-band: emit a
	// best-effort error chunk so the client still observes a terminator.
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("stream emission fault",
				zap.String("model", model),
				zap.Any("error", rec),
			)
			e.terminate(w, flusher, id, created, model, fmt.Sprint(rec))
		}
	}()

	if strings.TrimSpace(text) == "" {
		text = placeholderText
	}
	tokens := strings.Fields(text)

	for i, tok := range tokens {
		if i > 0 {
			if !e.pace(ctx) {
				e.logger.Info("client gone mid-stream, abandoning emission",
					zap.String("model", model),
					zap.Int("chunks_sent", i),
				)
				return
			}
			tok = " " + tok
		}

		chunk := Chunk{ID: id, Created: created, Model: model, Delta: Delta{Content: tok}}
		if err := writeChunk(w, flusher, chunk); err != nil {
			// Broken sink; nothing further can reach the client.
			e.logger.Warn("stream write failed", zap.Error(err))
			return
		}
		metrics.StreamChunksTotal.Inc()
	}

	_ = writeChunk(w, flusher, Chunk{ID: id, Created: created, Model: model, FinishReason: FinishStop})
	writeDone(w, flusher)
}

// Relay copies an already-incremental upstream byte stream to the client
// unmodified, flushing as bytes arrive. The upstream is assumed to speak
// the client's chunk framing already; it is not parsed here. If the source
// fails mid-stream, one in-band error chunk and the [DONE] sentinel are
// written so every stream ending carries a terminator.
func (e *Emitter) Relay(ctx context.Context, w http.ResponseWriter, src io.Reader, model string) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4*1024)

	for {
		if ctx.Err() != nil {
			e.logger.Info("client gone mid-relay, abandoning", zap.String("model", model))
			return
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				e.logger.Warn("relay write failed", zap.Error(werr))
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			e.logger.Warn("upstream stream failed mid-relay",
				zap.String("model", model),
				zap.Error(err),
			)
			e.terminate(w, flusher, newChunkID(), time.Now().Unix(), model, err.Error())
			return
		}
	}
}

// terminate writes a fault-bearing terminal chunk followed by the sentinel.
func (e *Emitter) terminate(w io.Writer, flusher http.Flusher, id string, created int64, model, detail string) {
	_ = writeChunk(w, flusher, Chunk{
		ID:           id,
		Created:      created,
		Model:        model,
		Delta:        Delta{Content: detail},
		FinishReason: FinishError,
	})
	writeDone(w, flusher)
}

// pace waits one interval. Returns false when ctx is done first.
func (e *Emitter) pace(ctx context.Context) bool {
	t := time.NewTimer(e.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func writeChunk(w io.Writer, flusher http.Flusher, chunk Chunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

func writeDone(w io.Writer, flusher http.Flusher) {
	if _, err := io.WriteString(w, doneSentinel); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func newChunkID() string {
	id, _ := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 24)
	return "chatcmpl-" + id
}
