package details

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	knowledgex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/knowledge"
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
	a, err := New(gw, llm.Params{Model: "m", Temperature: 0.1, MaxTokens: 300}, promptx.LoadPromptSet().Details, knowledgex.MustLoad())
	require.NoError(t, err)
	return a
}

func ask(q string) []contractx.Turn {
	return []contractx.Turn{contractx.UserTurn(q)}
}

func TestLocationQuestionUsesAboutUsOnly(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "We have stores in Lucknow, Hardoi, Barabanki and Sandila."}
	a := newAgent(t, gw)

	turn, err := a.Respond(context.Background(), ask("Where is your store located?"))
	require.NoError(t, err)
	assert.Equal(t, gw.reply, turn.Content)

	mem, ok := turn.Memory.(*contractx.DetailsMemory)
	require.True(t, ok)
	assert.Equal(t, []string{knowledgex.TopicAboutUs}, mem.Sources)
	assert.Equal(t, 1, mem.DocumentsUsed)

	system := gw.last.Messages[0].Content
	assert.Contains(t, system, "===== ABOUT US =====")
	assert.NotContains(t, system, "===== PRICE LIST =====")
	assert.Equal(t, "Where is your store located?", gw.last.Messages[1].Content)
	assert.Equal(t, 300, gw.last.MaxTokens)
}

func TestSelectTopics(t *testing.T) {
	t.Parallel()

	all := knowledgex.MustLoad().Topics()
	cases := []struct {
		q    string
		want []string
	}{
		{"what is the price of peace lily", []string{knowledgex.TopicPriceList}},
		{"how much is aloe vera", []string{knowledgex.TopicPriceList}},
		{"whats the prince of rose", []string{knowledgex.TopicPriceList}},
		{"what are your timmings", []string{knowledgex.TopicAboutUs}},
		{"do you deliver to hardoi", []string{knowledgex.TopicAboutUs}},
		{"store prices", []string{knowledgex.TopicPriceList, knowledgex.TopicAboutUs}},
		{"tell me something nice", all},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SelectTopics(tc.q, all), tc.q)
	}
}

func TestOrderRedirect(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	a := newAgent(t, gw)

	turn, err := a.Respond(context.Background(), ask("I want to buy a rose"))
	require.NoError(t, err)
	assert.Equal(t, OrderRedirect, turn.Content)
	mem := turn.Memory.(*contractx.DetailsMemory)
	assert.Equal(t, contractx.DetailsActionOrderRedirect, mem.Action)
	assert.Equal(t, 0, gw.calls)
}

func TestNonAnswerBecomesRefusal(t *testing.T) {
	t.Parallel()

	for _, reply := range []string{"", "Sorry, that is not mentioned in the documents.", "I don't know."} {
		a := newAgent(t, &fakeGateway{reply: reply})
		turn, err := a.Respond(context.Background(), ask("who founded plantify?"))
		require.NoError(t, err)
		assert.Equal(t, Refusal, turn.Content, reply)
	}
}

func TestGatewayFailureBecomesErrorVariant(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{err: errors.New("timeout")})
	turn, err := a.Respond(context.Background(), ask("what are your hours?"))
	require.NoError(t, err)
	assert.Equal(t, Unavailable, turn.Content)
	mem := turn.Memory.(*contractx.DetailsMemory)
	assert.Contains(t, mem.Error, "timeout")
	assert.Empty(t, mem.Sources)
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, similarity("price", "price"), 1e-6)
	assert.InDelta(t, 0.8, similarity("pice", "price"), 1e-6)
	assert.GreaterOrEqual(t, similarity("pirce", "price"), 0.6)
	assert.GreaterOrEqual(t, similarity("locaton", "location"), similarityCutoff)
	assert.Less(t, similarity("time", "tree"), similarityCutoff)
}
