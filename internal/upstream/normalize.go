package upstream

// Defaults applied while building the outbound payload. These two always
// appear in the provider request; the remaining sampling parameters are
// forwarded only when the client provided them.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
)

// ModelResolver maps a client model name to a fully qualified provider
// identifier. Implemented by modelmap.Table.
type ModelResolver interface {
	Resolve(name string) string
}

// Normalize validates an inbound request and canonicalizes it into the
// provider payload. Unknown model strings pass through the resolver
// verbatim; an omitted model resolves to the configured default.
func Normalize(req *ChatRequest, models ModelResolver) (*OutboundRequest, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, &ValidationError{Reason: "messages must be a non-empty array"}
	}

	out := &OutboundRequest{
		Model:       models.Resolve(req.Model),
		Messages:    req.Messages,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Stream:      req.Stream,
	}

	if req.Temperature != nil {
		out.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	out.TopP = req.TopP
	out.FrequencyPenalty = req.FrequencyPenalty
	out.PresencePenalty = req.PresencePenalty

	return out, nil
}
