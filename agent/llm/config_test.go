package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

func baseConfig() Config {
	return Config{
		APIKey:             "key",
		Model:              "mistralai/mistral-7b-instruct",
		MaxCompletionToken: 512,
		Temperature:        0.9,
		PromptFormat:       PromptFormatChat,
		GuardTemperature:   0,
		ClassTemperature:   0.2,
		DetailsTemperature: 0.1,
		OrderTemperature:   -1,
		RecoTemperature:    -1,
		DetailsMaxTokens:   300,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, baseConfig().Validate())

	cfg := baseConfig()
	cfg.APIKey = " "
	assert.True(t, errors.Is(cfg.Validate(), contractx.ErrValidation))

	cfg = baseConfig()
	cfg.PromptFormat = "markdown"
	assert.True(t, errors.Is(cfg.Validate(), contractx.ErrValidation))
}

func TestParamsForStageOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.GuardModel = "meta-llama/llama-guard"

	guard := cfg.ParamsFor(contractx.AgentTypeGuard)
	assert.Equal(t, "meta-llama/llama-guard", guard.Model)
	assert.Equal(t, float32(0), guard.Temperature)

	details := cfg.ParamsFor(contractx.AgentTypeDetails)
	assert.Equal(t, "mistralai/mistral-7b-instruct", details.Model)
	assert.Equal(t, 300, details.MaxTokens)
	assert.Equal(t, float32(0.1), details.Temperature)

	order := cfg.ParamsFor(contractx.AgentTypeOrder)
	assert.Equal(t, float32(0.9), order.Temperature)
	assert.Equal(t, 512, order.MaxTokens)
}
