package upstream

import (
	"context"
	"encoding/json"
	"io"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound client request. Optional sampling parameters
// are pointers so a client-provided zero is distinguishable from an omitted
// field and is forwarded instead of dropped.
type ChatRequest struct {
	Model            string    `json:"model,omitempty"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
}

// OutboundRequest is the payload sent to the provider. Temperature and
// max_tokens are always present (defaulted during normalization); the other
// sampling parameters are serialized only when the client provided them.
type OutboundRequest struct {
	Model            string    `json:"model"`
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	TopP             *float64  `json:"top_p,omitempty"`
	FrequencyPenalty *float64  `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64  `json:"presence_penalty,omitempty"`
	Stream           bool      `json:"stream,omitempty"`
}

// Result is the classified outcome of a successful provider call. Exactly
// one of Body and Live is set: Body holds a complete JSON completion, Live
// is the raw byte stream when the provider honored the stream request. The
// caller owns closing Live.
type Result struct {
	Status      int
	Body        json.RawMessage
	Live        io.ReadCloser
	ContentType string
}

// IsLive reports whether the provider replied with an incremental stream.
func (r *Result) IsLive() bool {
	return r.Live != nil
}

// Client performs the single outbound call to the inference provider.
type Client interface {
	Invoke(ctx context.Context, req *OutboundRequest) (*Result, error)
	HasCredential() bool
}

// AnswerText pulls the assistant text out of a complete completion body.
// Returns "" when the body carries no usable choice.
func AnswerText(body json.RawMessage) string {
	var parsed struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if len(parsed.Choices) == 0 {
		return ""
	}
	return parsed.Choices[0].Message.Content
}
