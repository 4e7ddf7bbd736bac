package classification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
)

type fakeGateway struct {
	reply string
	err   error
	calls int
	last  contractx.GenerateRequest
}

func (f *fakeGateway) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func newAgent(t *testing.T, gw contractx.Gateway) *Agent {
	t.Helper()
	a, err := New(gw, nil, llm.Params{Model: "m"}, promptx.LoadPromptSet().Classification)
	require.NoError(t, err)
	return a
}

func openCartHistory(last string) []contractx.Turn {
	return []contractx.Turn{
		contractx.UserTurn("add a rose"),
		contractx.AssistantTurn("Added.", &contractx.OrderMemory{
			Agent:  contractx.AgentTypeOrder,
			Action: contractx.OrderActionAddItems,
			Cart:   []contractx.CartLine{{Name: "Rose", UnitPrice: 100, Quantity: 1}},
		}),
		contractx.UserTurn(last),
	}
}

func TestFastPathSkipsModel(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	a := newAgent(t, gw)

	turn, err := a.Respond(context.Background(), []contractx.Turn{contractx.UserTurn("I want to buy a cactus")})
	require.NoError(t, err)
	assert.Equal(t, contractx.AgentTypeOrder, Target(turn))
	assert.Equal(t, 0, gw.calls)

	turn, err = a.Respond(context.Background(), openCartHistory("two more"))
	require.NoError(t, err)
	assert.Equal(t, contractx.AgentTypeOrder, Target(turn))
	assert.Equal(t, 0, gw.calls)
}

func TestModelDecisionWithContext(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: `{"rationale":"continuing order","decision":"order_taking_agent","message":""}`}
	a := newAgent(t, gw)

	turn, err := a.Respond(context.Background(), openCartHistory("also a peace lily"))
	require.NoError(t, err)
	assert.Equal(t, contractx.AgentTypeOrder, Target(turn))
	assert.Equal(t, 1, gw.calls)

	system := gw.last.Messages[0].Content
	assert.Contains(t, system, "last_agent=order_taking_agent")
	assert.Contains(t, system, "in_ordering_process=true")
	assert.Contains(t, system, "has_cart_items=true")
	assert.Len(t, gw.last.Messages, 4)
}

func TestWindowIsFiveTurns(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: `{"decision":"details_agent"}`}
	a := newAgent(t, gw)

	var h []contractx.Turn
	for i := 0; i < 6; i++ {
		h = append(h, contractx.UserTurn("hello"), contractx.AssistantTurn("hi", nil))
	}
	h = append(h, contractx.UserTurn("where are you located?"))

	turn, err := a.Respond(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, contractx.AgentTypeDetails, Target(turn))
	assert.Len(t, gw.last.Messages, 6)
}

func TestMalformedFallsBackToDetails(t *testing.T) {
	t.Parallel()

	for _, reply := range []string{"order agent please", `{"decision":"pricing_agent"}`} {
		a := newAgent(t, &fakeGateway{reply: reply})
		turn, err := a.Respond(context.Background(), []contractx.Turn{contractx.UserTurn("hello there")})
		require.NoError(t, err)
		assert.Equal(t, contractx.AgentTypeDetails, Target(turn), reply)
	}
}

func TestGatewayFailure(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{err: contractx.ErrModelInvoke})
	_, err := a.Respond(context.Background(), []contractx.Turn{contractx.UserTurn("hello there")})
	assert.True(t, errors.Is(err, contractx.ErrModelInvoke))
}
