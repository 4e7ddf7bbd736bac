package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

func TestLoadPromptSetNonEmpty(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	for name, p := range map[string]string{
		"guard":          set.Guard,
		"classification": set.Classification,
		"details":        set.Details,
		"order":          set.Order,
		"recommendation": set.Recommendation,
		"repair":         set.Repair,
	} {
		assert.NotEmpty(t, p, name)
	}
}

func TestRenderKeepsEscapedBraces(t *testing.T) {
	t.Parallel()

	out, err := Render(context.Background(), LoadPromptSet().Guard, map[string]any{
		"refusal": "Sorry, no.",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"decision": "allowed" or "not_allowed"`)
	assert.Contains(t, out, "Sorry, no.")
	assert.Contains(t, out, "{\n")
}

func TestRenderEmptyTemplate(t *testing.T) {
	t.Parallel()

	_, err := Render(context.Background(), "  ", nil)
	assert.True(t, errors.Is(err, contractx.ErrPromptMissing))
}
