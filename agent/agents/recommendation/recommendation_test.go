package recommendation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
)

type fakeGateway struct {
	reply string
	err   error
	last  contractx.GenerateRequest
}

func (f *fakeGateway) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func newRecommender(t *testing.T, gw contractx.Gateway) *Recommender {
	t.Helper()
	r, err := New(gw, llm.Params{Model: "m"}, promptx.LoadPromptSet().Recommendation, catalogx.Default())
	require.NoError(t, err)
	return r
}

var roseLine = contractx.CartLine{Name: "Rose", Category: catalogx.CategoryFlowering, UnitPrice: 100, Quantity: 2}

func names(items []catalogx.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestSuggestComplementaryCategories(t *testing.T) {
	t.Parallel()

	picks := Suggest(catalogx.Default(), []contractx.CartLine{roseLine})
	assert.Equal(t, []string{"Vermicompost", "Krishna Tulsi Plant (Black)", "Vermicompost Mixture"}, names(picks))
}

func TestSuggestSkipsCartItems(t *testing.T) {
	t.Parallel()

	lines := []contractx.CartLine{
		{Name: "Peace Lily", Category: catalogx.CategoryIndoor, Quantity: 1},
		{Name: "Vermicompost", Category: catalogx.CategorySoil, Quantity: 2},
	}
	picks := Suggest(catalogx.Default(), lines)
	require.Len(t, picks, 3)
	for _, p := range picks {
		assert.NotEqual(t, "Vermicompost", p.Name)
		assert.NotEqual(t, "Peace Lily", p.Name)
	}
	assert.Equal(t, "Vermicompost Mixture", picks[0].Name)
}

func TestRecommendUsesModel(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: " Lovely roses! Add some Vermicompost for ₹10/kg? "}
	r := newRecommender(t, gw)

	turn, err := r.Recommend(context.Background(), []contractx.Turn{contractx.UserTurn("add 2 rose")}, []contractx.CartLine{roseLine})
	require.NoError(t, err)
	assert.Equal(t, "Lovely roses! Add some Vermicompost for ₹10/kg?", turn.Content)
	assert.Equal(t, contractx.RoleAssistant, turn.Role)

	system := gw.last.Messages[0].Content
	assert.Contains(t, system, "- 2 Rose (Flowering Plants)")
	assert.Contains(t, system, "- Vermicompost: ₹10/kg")
	assert.Equal(t, "add 2 rose", gw.last.Messages[len(gw.last.Messages)-1].Content)
}

func TestRecommendFallsBackOnGatewayFailure(t *testing.T) {
	t.Parallel()

	r := newRecommender(t, &fakeGateway{err: errors.New("timeout")})
	turn, err := r.Recommend(context.Background(), nil, []contractx.CartLine{roseLine})
	require.NoError(t, err)
	assert.Contains(t, turn.Content, "Your cart now has 2 Rose.")
	assert.Contains(t, turn.Content, "- Krishna Tulsi Plant (Black): ₹50")
	assert.Contains(t, turn.Content, "Would you like to add any of these?")
}

func TestRecommendEmptyCart(t *testing.T) {
	t.Parallel()

	r := newRecommender(t, &fakeGateway{})
	_, err := r.Recommend(context.Background(), nil, nil)
	require.ErrorIs(t, err, contractx.ErrValidation)
}
