package order

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
	panic bool
	calls int
	last  contractx.GenerateRequest
}

func (f *fakeGateway) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	f.calls++
	f.last = req
	if f.panic {
		panic("boom")
	}
	return f.reply, f.err
}

type fakeRecommender struct {
	content string
	err     error
	calls   int
	lines   []contractx.CartLine
}

func (f *fakeRecommender) Recommend(ctx context.Context, history []contractx.Turn, lines []contractx.CartLine) (contractx.Turn, error) {
	f.calls++
	f.lines = lines
	if f.err != nil {
		return contractx.Turn{}, f.err
	}
	return contractx.AssistantTurn(f.content, nil), nil
}

type fakeNotifier struct {
	receipts []contractx.Receipt
	err      error
}

func (f *fakeNotifier) NotifyCheckout(ctx context.Context, r contractx.Receipt) error {
	f.receipts = append(f.receipts, r)
	return f.err
}

func newAgent(t *testing.T, gw contractx.Gateway, opts ...Option) *Agent {
	t.Helper()
	a, err := New(gw, llm.Params{Model: "m"}, promptx.LoadPromptSet().Order, catalogx.Default(), DefaultConfig(), opts...)
	require.NoError(t, err)
	return a
}

// say appends a user message, runs the stage and appends its reply.
func say(t *testing.T, a *Agent, history []contractx.Turn, text string) ([]contractx.Turn, *contractx.OrderMemory) {
	t.Helper()
	history = append(history, contractx.UserTurn(text))
	turn, err := a.Respond(context.Background(), history)
	require.NoError(t, err)
	require.Equal(t, contractx.RoleAssistant, turn.Role)
	mem, ok := turn.Memory.(*contractx.OrderMemory)
	require.True(t, ok, "memory type = %T", turn.Memory)
	return append(history, turn), mem
}

func lastContent(history []contractx.Turn) string {
	return history[len(history)-1].Content
}

func TestAddItemsAndApplyWelcomeCode(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	var history []contractx.Turn

	history, mem := say(t, a, history, "I want 2 Peace Lily and 1 Aloe Vera")
	assert.Equal(t, contractx.OrderActionAddItems, mem.Action)
	require.Len(t, mem.Cart, 2)
	assert.Equal(t, "Peace Lily", mem.Cart[0].Name)
	assert.Equal(t, 2, mem.Cart[0].Quantity)
	assert.Equal(t, "Aloe Vera", mem.Cart[1].Name)
	require.NotNil(t, mem.Totals)
	assert.InDelta(t, 400, mem.Totals.Subtotal, 1e-9)
	assert.Contains(t, lastContent(history), "Added 2 × Peace Lily and 1 × Aloe Vera to your cart.")

	history, mem = say(t, a, history, "apply WELCOME10")
	assert.Equal(t, contractx.OrderActionApplyDiscount, mem.Action)
	assert.Equal(t, []string{"WELCOME10"}, mem.DiscountCodes)
	require.NotNil(t, mem.Totals)
	assert.InDelta(t, 40, mem.Totals.DiscountAmount, 1e-9)
	assert.InDelta(t, 50, mem.Totals.Shipping, 1e-9)
	assert.InDelta(t, 18, mem.Totals.Tax, 1e-9)
	assert.InDelta(t, 428, mem.Totals.Total, 1e-9)
	assert.Contains(t, lastContent(history), "Total: ₹428")

	_, mem = say(t, a, history, "use code WELCOME10 again")
	assert.Equal(t, []string{"WELCOME10"}, mem.DiscountCodes)
	assert.Contains(t, mem.Cart[0].Name, "Peace Lily")
}

func TestRepeatCodeIsReported(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, _ := say(t, a, nil, "add 2 rose")
	history, _ = say(t, a, history, "WELCOME10")
	history, mem := say(t, a, history, "WELCOME10")

	assert.Equal(t, []string{"WELCOME10"}, mem.DiscountCodes)
	assert.Contains(t, lastContent(history), "Code WELCOME10 is already applied.")
}

func TestUnknownCodeAndThreshold(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, _ := say(t, a, nil, "add 1 rose")

	history, mem := say(t, a, history, "apply coupon SAVE50")
	assert.Empty(t, mem.DiscountCodes)
	assert.Contains(t, lastContent(history), "SAVE50 is not a valid discount code")

	history, mem = say(t, a, history, "PLANT20")
	assert.Equal(t, []string{"PLANT20"}, mem.DiscountCodes)
	assert.InDelta(t, 0, mem.Totals.DiscountAmount, 1e-9)
	assert.Contains(t, lastContent(history), "once your subtotal reaches ₹1000")
}

func TestAddMergesExistingLine(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, _ := say(t, a, nil, "2 peace lily")
	history, mem := say(t, a, history, "add 3 Peace Lily")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 5, mem.Cart[0].Quantity)

	_, mem = say(t, a, history, "two more")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 7, mem.Cart[0].Quantity)
}

func TestMakeItSetsQuantity(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, _ := say(t, a, nil, "add 2 rose")

	history, mem := say(t, a, history, "make it 3")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 3, mem.Cart[0].Quantity)
	assert.Contains(t, lastContent(history), "Updated your cart to 3 × Rose.")

	history, mem = say(t, a, history, "2 more")
	assert.Equal(t, 5, mem.Cart[0].Quantity)

	_, mem = say(t, a, history, "make that 1")
	assert.Equal(t, 1, mem.Cart[0].Quantity)
}

func TestQuantityOutOfRangeIsReported(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})

	history, mem := say(t, a, nil, "add 0 rose")
	assert.Empty(t, mem.Cart)
	assert.Contains(t, lastContent(history), "Quantities must be between 1 and 999, so I didn't add Rose.")

	history, mem = say(t, a, history, "add 9223372036854775807 rose")
	assert.Empty(t, mem.Cart)

	history, mem = say(t, a, history, "add 1 rose")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 1, mem.Cart[0].Quantity)
	assert.InDelta(t, 100, mem.Totals.Subtotal, 1e-9)

	history, mem = say(t, a, history, "add 999 rose")
	assert.Equal(t, 1, mem.Cart[0].Quantity)
	assert.Contains(t, lastContent(history), "A cart line can hold at most 999 units")

	_, mem = say(t, a, history, "5000 more")
	assert.Equal(t, 1, mem.Cart[0].Quantity)
	assert.Positive(t, mem.Totals.Total)
}

func TestItemsNextToCodeAreAdded(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, mem := say(t, a, nil, "add 2 rose and apply code WELCOME10")
	assert.Equal(t, contractx.OrderActionApplyDiscount, mem.Action)
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 2, mem.Cart[0].Quantity)
	assert.Equal(t, []string{"WELCOME10"}, mem.DiscountCodes)
	assert.InDelta(t, 20, mem.Totals.DiscountAmount, 1e-9)
	assert.Contains(t, lastContent(history), "Added 2 × Rose to your cart.")
	assert.Contains(t, lastContent(history), "Code WELCOME10 applied.")
}

func TestItemsNextToCheckoutAreOrdered(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	a := newAgent(t, &fakeGateway{}, WithNotifier(notifier))

	history, mem := say(t, a, nil, "add 2 rose and checkout")
	assert.Equal(t, contractx.OrderActionCheckout, mem.Action)
	assert.Empty(t, mem.Cart)
	require.NotNil(t, mem.Totals)
	assert.InDelta(t, 260, mem.Totals.Total, 1e-9)
	assert.Contains(t, lastContent(history), "Added 2 × Rose to your cart.")
	require.Len(t, notifier.receipts, 1)
	assert.Equal(t, 2, notifier.receipts[0].Lines[0].Quantity)
}

func TestCheckoutHeldWhenItemNotFound(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	a := newAgent(t, &fakeGateway{}, WithNotifier(notifier))

	history, _ := say(t, a, nil, "add 1 rose")
	history, mem := say(t, a, history, "add 2 pots and checkout")
	assert.Equal(t, contractx.OrderActionAddItems, mem.Action)
	require.Len(t, mem.Cart, 1)
	assert.Empty(t, notifier.receipts)
	assert.Contains(t, lastContent(history), `couldn't find "pots"`)
	assert.Contains(t, lastContent(history), "Your order has not been placed yet.")
}

func TestBareQuantityWithEmptyCartAsksForItem(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, mem := say(t, a, nil, "3")
	assert.Empty(t, mem.Cart)
	assert.Contains(t, lastContent(history), "Which plant would you like?")
}

func TestNotFoundItemsAreReported(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, mem := say(t, a, nil, "add 2 rose and 5 xylophone")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, "Rose", mem.Cart[0].Name)
	assert.Equal(t, []string{"xylophone"}, mem.NotFound)
	assert.Contains(t, lastContent(history), `couldn't find "xylophone"`)
}

func TestRemoveItems(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{})
	history, _ := say(t, a, nil, "I want 2 Peace Lily and 1 Aloe Vera")

	history, mem := say(t, a, history, "remove the aloe vera")
	assert.Equal(t, contractx.OrderActionRemoveItems, mem.Action)
	require.Len(t, mem.Cart, 1)
	assert.InDelta(t, 300, mem.Totals.Subtotal, 1e-9)

	history, mem = say(t, a, history, "remove 1 peace lily")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 1, mem.Cart[0].Quantity)

	_, mem = say(t, a, history, "remove rose")
	require.Len(t, mem.Cart, 1)
}

func TestCheckoutResetsCycle(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{}
	a := newAgent(t, &fakeGateway{}, WithNotifier(notifier))

	history, _ := say(t, a, nil, "I want 2 Peace Lily and 1 Aloe Vera")
	history, mem := say(t, a, history, "checkout please")
	assert.Equal(t, contractx.OrderActionCheckout, mem.Action)
	assert.Empty(t, mem.Cart)
	assert.Empty(t, mem.DiscountCodes)
	require.NotNil(t, mem.Totals)
	assert.InDelta(t, 470, mem.Totals.Total, 1e-9)
	assert.Contains(t, lastContent(history), "Your order has been placed")
	assert.Contains(t, lastContent(history), "Total: ₹470")

	require.Len(t, notifier.receipts, 1)
	assert.Len(t, notifier.receipts[0].Lines, 2)
	assert.InDelta(t, 470, notifier.receipts[0].Totals.Total, 1e-9)

	history, mem = say(t, a, history, "what's in my cart?")
	assert.Equal(t, contractx.OrderActionInquireCart, mem.Action)
	assert.Equal(t, EmptyCart, lastContent(history))

	_, mem = say(t, a, history, "checkout")
	assert.Equal(t, contractx.OrderActionInquireCart, mem.Action)
	assert.Len(t, notifier.receipts, 1)
}

func TestNotifierFailureDoesNotBlockCheckout(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{}, WithNotifier(&fakeNotifier{err: errors.New("queue down")}))
	history, _ := say(t, a, nil, "add 1 rose")
	_, mem := say(t, a, history, "place my order")
	assert.Equal(t, contractx.OrderActionCheckout, mem.Action)
	assert.Empty(t, mem.Cart)
}

func TestRecommendationShownOncePerCycle(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{content: "Added! You may also like Vermicompost."}
	a := newAgent(t, &fakeGateway{}, WithRecommender(rec))

	history, mem := say(t, a, nil, "add 1 rose")
	assert.True(t, mem.RecommendationShown)
	assert.Equal(t, rec.content, lastContent(history))
	require.Len(t, rec.lines, 1)
	assert.Equal(t, "Rose", rec.lines[0].Name)

	history, mem = say(t, a, history, "add 1 aloe vera")
	assert.True(t, mem.RecommendationShown)
	assert.Equal(t, 1, rec.calls)
	assert.Contains(t, lastContent(history), "Added 1 × Aloe Vera")

	history, mem = say(t, a, history, "checkout")
	assert.False(t, mem.RecommendationShown)

	_, mem = say(t, a, history, "add 1 rose")
	assert.True(t, mem.RecommendationShown)
	assert.Equal(t, 2, rec.calls)
}

func TestRecommenderFailureLeavesFlagUnset(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{err: errors.New("model down")}
	a := newAgent(t, &fakeGateway{}, WithRecommender(rec))

	history, mem := say(t, a, nil, "add 1 rose")
	assert.False(t, mem.RecommendationShown)
	assert.Contains(t, lastContent(history), "Added 1 × Rose")

	_, _ = say(t, a, history, "add 1 rose")
	assert.Equal(t, 2, rec.calls)
}

func TestFreeFormUsesGatewayWithCart(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{reply: "Yes, we gift wrap for free."}
	a := newAgent(t, gw)

	history, _ := say(t, a, nil, "add 2 rose")
	history, mem := say(t, a, history, "do you gift wrap?")
	assert.Equal(t, contractx.OrderActionChat, mem.Action)
	assert.Equal(t, gw.reply, lastContent(history))
	require.Len(t, mem.Cart, 1)

	require.Equal(t, 1, gw.calls)
	require.NotEmpty(t, gw.last.Messages)
	assert.Equal(t, contractx.RoleSystem, gw.last.Messages[0].Role)
	assert.Contains(t, gw.last.Messages[0].Content, "2 × Rose")
	assert.Equal(t, "do you gift wrap?", gw.last.Messages[len(gw.last.Messages)-1].Content)
}

func TestGatewayFailureKeepsCart(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{err: errors.New("timeout")}
	a := newAgent(t, gw)

	history, _ := say(t, a, nil, "add 2 rose")
	history, mem := say(t, a, history, "do you gift wrap?")
	assert.Equal(t, contractx.OrderActionError, mem.Action)
	assert.Equal(t, Apology, lastContent(history))
	assert.Contains(t, mem.Error, "timeout")
	require.Len(t, mem.Cart, 1)
	assert.Equal(t, 2, mem.Cart[0].Quantity)
}

func TestPanicBecomesApology(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &fakeGateway{panic: true})
	history, _ := say(t, a, nil, "add 2 rose")
	_, mem := say(t, a, history, "tell me a joke")
	assert.Equal(t, contractx.OrderActionError, mem.Action)
	assert.Contains(t, mem.Error, "boom")
	require.Len(t, mem.Cart, 1)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, llm.Params{}, "x", catalogx.Default(), DefaultConfig())
	require.Error(t, err)

	_, err = New(&fakeGateway{}, llm.Params{}, " ", catalogx.Default(), DefaultConfig())
	require.ErrorIs(t, err, contractx.ErrPromptMissing)

	_, err = New(&fakeGateway{}, llm.Params{}, "x", catalogx.Default(), Config{TaxPercent: 120})
	require.ErrorIs(t, err, contractx.ErrValidation)
}
