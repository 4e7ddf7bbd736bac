package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnUnmarshalDispatchesOnAgent(t *testing.T) {
	t.Parallel()

	raw := `[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":"no","memory":{"agent":"guard_agent","decision":"not_allowed","rationale":"off topic"}},
		{"role":"assistant","content":"cart","memory":{"agent":"order_taking_agent","action":"add_items","cart":[{"name":"Rose","category":"Flowering Plants","unit_price":100,"quantity":2}],"discount_codes":["WELCOME10"],"recommendation_shown":true}},
		{"role":"assistant","content":"docs","memory":{"agent":"details_agent","sources":["about_us"],"documents_used":1}},
		{"role":"assistant","content":"sorry","memory":{"agent":"guard_agent","error":"model invoke failed"}}
	]`

	var turns []Turn
	require.NoError(t, json.Unmarshal([]byte(raw), &turns))
	require.Len(t, turns, 5)

	assert.Nil(t, turns[0].Memory)

	guard, ok := turns[1].Memory.(*GuardMemory)
	require.True(t, ok, "memory type = %T", turns[1].Memory)
	assert.Equal(t, GuardNotAllowed, guard.Decision)

	order, ok := turns[2].Memory.(*OrderMemory)
	require.True(t, ok, "memory type = %T", turns[2].Memory)
	assert.Equal(t, OrderActionAddItems, order.Action)
	require.Len(t, order.Cart, 1)
	assert.Equal(t, 2, order.Cart[0].Quantity)
	assert.True(t, order.RecommendationShown)

	details, ok := turns[3].Memory.(*DetailsMemory)
	require.True(t, ok)
	assert.Equal(t, []string{"about_us"}, details.Sources)

	failed, ok := turns[4].Memory.(*ErrorMemory)
	require.True(t, ok, "memory type = %T", turns[4].Memory)
	assert.Equal(t, AgentTypeGuard, failed.AgentName())
}

func TestTurnMarshalKeepsAgentTag(t *testing.T) {
	t.Parallel()

	turn := AssistantTurn("ok", &OrderMemory{
		Agent:  AgentTypeOrder,
		Action: OrderActionCheckout,
		Cart:   []CartLine{},
	})

	data, err := json.Marshal(turn)
	require.NoError(t, err)

	var back Turn
	require.NoError(t, json.Unmarshal(data, &back))
	mem, ok := back.Memory.(*OrderMemory)
	require.True(t, ok)
	assert.Equal(t, OrderActionCheckout, mem.Action)
}
