package upstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(name string) string {
	if name == "" {
		return "default/model"
	}
	if full, ok := r[name]; ok {
		return full
	}
	return name
}

func TestNormalizeRejectsMissingMessages(t *testing.T) {
	resolver := staticResolver{}

	for name, req := range map[string]*ChatRequest{
		"nil request":    nil,
		"nil messages":   {},
		"empty messages": {Messages: []Message{}},
	} {
		_, err := Normalize(req, resolver)
		require.Error(t, err, name)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	out, err := Normalize(&ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	}, staticResolver{})
	require.NoError(t, err)

	require.Equal(t, "default/model", out.Model)
	require.Equal(t, DefaultTemperature, out.Temperature)
	require.Equal(t, DefaultMaxTokens, out.MaxTokens)
	require.Nil(t, out.TopP)
	require.Nil(t, out.FrequencyPenalty)
	require.Nil(t, out.PresencePenalty)
	require.False(t, out.Stream)
}

func TestNormalizeForwardsProvidedParameters(t *testing.T) {
	temp := 0.2
	maxTokens := 64
	topP := 0.0 // provided zero must survive, not be dropped
	freq := 1.5

	out, err := Normalize(&ChatRequest{
		Messages:         []Message{{Role: RoleUser, Content: "hi"}},
		Temperature:      &temp,
		MaxTokens:        &maxTokens,
		TopP:             &topP,
		FrequencyPenalty: &freq,
		Stream:           true,
	}, staticResolver{})
	require.NoError(t, err)

	require.Equal(t, 0.2, out.Temperature)
	require.Equal(t, 64, out.MaxTokens)
	require.NotNil(t, out.TopP)
	require.Equal(t, 0.0, *out.TopP)
	require.NotNil(t, out.FrequencyPenalty)
	require.Equal(t, 1.5, *out.FrequencyPenalty)
	require.Nil(t, out.PresencePenalty)
	require.True(t, out.Stream)
}

func TestNormalizeModelResolution(t *testing.T) {
	resolver := staticResolver{
		"llama-3.1-70b": "meta-llama/Llama-3.1-70B-Instruct",
	}
	messages := []Message{{Role: RoleUser, Content: "hi"}}

	out, err := Normalize(&ChatRequest{Model: "llama-3.1-70b", Messages: messages}, resolver)
	require.NoError(t, err)
	require.Equal(t, "meta-llama/Llama-3.1-70B-Instruct", out.Model)

	// Unknown names pass through verbatim.
	out, err = Normalize(&ChatRequest{Model: "some-org/custom-model", Messages: messages}, resolver)
	require.NoError(t, err)
	require.Equal(t, "some-org/custom-model", out.Model)

	// Omitted model resolves to the default.
	out, err = Normalize(&ChatRequest{Messages: messages}, resolver)
	require.NoError(t, err)
	require.Equal(t, "default/model", out.Model)
}
