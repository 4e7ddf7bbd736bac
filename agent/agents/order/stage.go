package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	gatewayx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/gateway"
	intentx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/intent"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const Apology = "Sorry, something went wrong while updating your order. Your cart is unchanged, please try again."

const nextStepHint = `Anything else? You can add more plants, apply a discount code or say "checkout".`

type Option func(*Agent)

func WithRecommender(r contractx.Recommender) Option {
	return func(a *Agent) { a.recommender = r }
}

func WithNotifier(n contractx.CheckoutNotifier) Option {
	return func(a *Agent) { a.notifier = n }
}

// Agent runs the cart state machine. The cart is rebuilt from history on
// every turn and written back in the reply memory.
type Agent struct {
	gateway     contractx.Gateway
	params      llm.Params
	template    string
	catalog     *catalogx.Catalog
	cfg         Config
	recommender contractx.Recommender
	notifier    contractx.CheckoutNotifier
}

var _ contractx.Stage = (*Agent)(nil)

func New(gw contractx.Gateway, params llm.Params, template string, cat *catalogx.Catalog, cfg Config, opts ...Option) (*Agent, error) {
	if gw == nil {
		return nil, errors.New("order: gateway is nil")
	}
	if cat == nil {
		return nil, errors.New("order: catalog is nil")
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("order: %w", contractx.ErrPromptMissing)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{gateway: gw, params: params, template: template, catalog: cat, cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Respond never returns an error. Failures and panics produce an apology
// whose memory keeps the last known-good cart.
func (a *Agent) Respond(ctx context.Context, history []contractx.Turn) (turn contractx.Turn, err error) {
	snap := statex.Fold(history)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("order stage panicked")
			turn, err = a.apology(snap.Order, fmt.Errorf("%w: panic: %v", contractx.ErrStage, r)), nil
		}
	}()

	turn, err = a.respond(ctx, history, snap)
	if err != nil {
		log.Error().Err(err).Msg("order stage failed")
		return a.apology(snap.Order, err), nil
	}
	return turn, nil
}

func (a *Agent) respond(ctx context.Context, history []contractx.Turn, snap statex.Snapshot) (contractx.Turn, error) {
	text, _ := statex.LastUser(history)
	st := snap.Order.Clone()
	req := Parse(text, a.catalog)

	log.Debug().Str("intent", string(req.Intent)).Int("items", len(req.Items)).Msg("order intent resolved")

	switch req.Intent {
	case IntentDiscount:
		notes, _, _ := a.mutate(&st, req)
		return a.applyCodes(st, req, notes), nil
	case IntentCheckout:
		notes, _, skipped := a.mutate(&st, req)
		if skipped {
			notes = append(notes, a.summary(st), `Your order has not been placed yet. Say "checkout" when you're ready.`)
			return a.reply(st, contractx.OrderActionAddItems, strings.Join(notes, "\n\n")), nil
		}
		return a.checkout(ctx, st, notes), nil
	case IntentRemove:
		return a.remove(st, req), nil
	case IntentAdd:
		return a.add(ctx, history, st, req), nil
	case IntentInquire:
		return a.reply(st, contractx.OrderActionInquireCart, a.summary(st)), nil
	default:
		return a.chat(ctx, history, st)
	}
}

func (a *Agent) add(ctx context.Context, history []contractx.Turn, st statex.OrderState, req Request) contractx.Turn {
	var (
		parts []string
		added bool
	)

	if req.Bare > 0 {
		if st.Empty() {
			return a.reply(st, contractx.OrderActionChat,
				`Which plant would you like? For example, "add 2 Peace Lily".`)
		}
		parts, added = a.applyBare(&st, req)
	}

	notes, itemsAdded, skipped := a.mutate(&st, req)
	parts = append(parts, notes...)
	added = added || itemsAdded

	parts = append(parts, a.summary(st))
	if !st.Empty() {
		parts = append(parts, nextStepHint)
	}

	turn := a.reply(st, contractx.OrderActionAddItems, strings.Join(parts, "\n\n"))
	mem := turn.Memory.(*contractx.OrderMemory)
	mem.NotFound = req.NotFound

	// A recommendation would hide the notes about skipped items.
	if !added || skipped || st.RecommendationShown || a.recommender == nil {
		return turn
	}

	rec, err := a.recommender.Recommend(ctx, history, st.Cart)
	if err != nil || strings.TrimSpace(rec.Content) == "" {
		log.Warn().Err(err).Msg("recommendation unavailable, keeping plain add reply")
		return turn
	}
	mem.RecommendationShown = true
	turn.Content = rec.Content
	return turn
}

// applyBare applies a quantity written without an item name to the last
// cart line. "make it N" sets the quantity, "N more" adds to it.
func (a *Agent) applyBare(st *statex.OrderState, req Request) ([]string, bool) {
	last := st.Cart[len(st.Cart)-1]
	if !intentx.ValidQuantity(req.Bare) {
		return []string{quantityRangeNote("update", []string{last.Name})}, false
	}

	if req.SetBare {
		st.SetQuantity(last.Name, req.Bare)
		last.Quantity = req.Bare
		return []string{fmt.Sprintf("Updated your cart to %s %s.", quantityLabel(last), last.Name)}, false
	}

	last.Quantity = req.Bare
	if !st.Add(last) {
		return []string{lineLimitNote([]string{last.Name})}, false
	}
	return []string{fmt.Sprintf("Added %s %s to your cart.", quantityLabel(last), last.Name)}, true
}

// mutate applies the additions and removals of req to st and describes each
// outcome. skipped reports that part of the request could not be applied.
func (a *Agent) mutate(st *statex.OrderState, req Request) (notes []string, added, skipped bool) {
	var addedNames, full []string
	for _, it := range req.Items {
		line := contractx.CartLine{
			Name:      it.Item.Name,
			Category:  it.Item.Category,
			Unit:      string(it.Item.Unit),
			UnitPrice: it.Item.Price,
			Quantity:  it.Quantity,
		}
		if !st.Add(line) {
			full = append(full, line.Name)
			continue
		}
		addedNames = append(addedNames, fmt.Sprintf("%s %s", quantityLabel(line), line.Name))
	}

	var removed, missing []string
	for _, it := range req.Removes {
		if st.Remove(it.Item.Name, it.Quantity) {
			removed = append(removed, it.Item.Name)
		} else {
			missing = append(missing, it.Item.Name)
		}
	}
	if req.Removal {
		missing = append(missing, req.NotFound...)
	}

	if len(addedNames) > 0 {
		notes = append(notes, fmt.Sprintf("Added %s to your cart.", listNames(addedNames)))
	}
	if len(removed) > 0 {
		notes = append(notes, fmt.Sprintf("Removed %s.", listNames(removed)))
	}
	if len(missing) > 0 {
		notes = append(notes, fmt.Sprintf("%s isn't in your cart.", listNames(quoted(missing))))
	}
	if len(req.Invalid) > 0 {
		notes = append(notes, quantityRangeNote("add", req.Invalid))
	}
	if len(full) > 0 {
		notes = append(notes, lineLimitNote(full))
	}
	if !req.Removal && len(req.NotFound) > 0 {
		notes = append(notes, fmt.Sprintf("Sorry, I couldn't find %s in our catalog. Please check the name against our price list.", listNames(quoted(req.NotFound))))
	}
	return notes, len(addedNames) > 0, req.Rejected() || len(full) > 0 || len(missing) > 0
}

func quantityRangeNote(verb string, names []string) string {
	return fmt.Sprintf("Quantities must be between 1 and %d, so I didn't %s %s.", contractx.MaxQuantity, verb, listNames(names))
}

func lineLimitNote(names []string) string {
	return fmt.Sprintf("A cart line can hold at most %d units, so I didn't add more %s.", contractx.MaxQuantity, listNames(names))
}

func (a *Agent) remove(st statex.OrderState, req Request) contractx.Turn {
	parts, _, _ := a.mutate(&st, req)
	if len(req.Removes) == 0 && len(req.NotFound) == 0 {
		parts = append(parts, `Which item should I remove? For example, "remove 1 Rose".`)
	}
	parts = append(parts, a.summary(st))

	turn := a.reply(st, contractx.OrderActionRemoveItems, strings.Join(parts, "\n\n"))
	turn.Memory.(*contractx.OrderMemory).NotFound = req.NotFound
	return turn
}

func (a *Agent) applyCodes(st statex.OrderState, req Request, notes []string) contractx.Turn {
	parts := notes
	subtotal := Subtotal(st.Cart)

	for _, code := range req.Codes {
		d, _ := LookupDiscount(code)
		if !st.ApplyCode(d.Code) {
			parts = append(parts, fmt.Sprintf("Code %s is already applied.", d.Code))
			continue
		}
		msg := fmt.Sprintf("Code %s applied.", d.Code)
		if subtotal < d.MinSubtotal {
			msg += fmt.Sprintf(" It takes effect once your subtotal reaches %s.", Rupees(d.MinSubtotal))
		}
		parts = append(parts, msg)
	}
	for _, code := range req.UnknownCodes {
		parts = append(parts, fmt.Sprintf("Sorry, %s is not a valid discount code. Available codes: WELCOME10, PLANT20 and FREESHIP.", code))
	}
	if !st.Empty() {
		parts = append(parts, a.summary(st))
	}

	turn := a.reply(st, contractx.OrderActionApplyDiscount, strings.Join(parts, "\n\n"))
	turn.Memory.(*contractx.OrderMemory).NotFound = req.NotFound
	return turn
}

func (a *Agent) checkout(ctx context.Context, st statex.OrderState, notes []string) contractx.Turn {
	if st.Empty() {
		parts := append(notes, EmptyCart+" Add some plants before checking out.")
		return a.reply(st, contractx.OrderActionInquireCart, strings.Join(parts, "\n\n"))
	}

	totals := ComputeTotals(st.Cart, st.DiscountCodes, a.cfg)
	closed := st.Checkout()

	if a.notifier != nil {
		receipt := contractx.Receipt{Lines: closed.Cart, DiscountCodes: closed.DiscountCodes, Totals: totals}
		if err := a.notifier.NotifyCheckout(ctx, receipt); err != nil {
			log.Error().Err(err).Msg("checkout notification failed")
		}
	}

	parts := append(notes,
		"Thank you! Your order has been placed.",
		FormatCart(closed.Cart, closed.DiscountCodes, totals, a.cfg.TaxPercent),
		"We'll get your plants ready right away. 🌿",
	)
	content := strings.Join(parts, "\n\n")

	mem := st.Memory(contractx.OrderActionCheckout)
	mem.Totals = &totals
	return contractx.AssistantTurn(content, mem)
}

func (a *Agent) chat(ctx context.Context, history []contractx.Turn, st statex.OrderState) (contractx.Turn, error) {
	system, err := promptx.Render(ctx, a.template, map[string]any{"cart": a.summary(st)})
	if err != nil {
		return contractx.Turn{}, err
	}
	out, err := a.gateway.Generate(ctx, a.params.Request(
		gatewayx.Conversation(system, statex.Window(history, a.cfg.HistoryTurns)),
	))
	if err != nil {
		return contractx.Turn{}, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		out = nextStepHint
	}
	return a.reply(st, contractx.OrderActionChat, out), nil
}

func (a *Agent) summary(st statex.OrderState) string {
	return FormatCart(st.Cart, st.DiscountCodes, ComputeTotals(st.Cart, st.DiscountCodes, a.cfg), a.cfg.TaxPercent)
}

func (a *Agent) reply(st statex.OrderState, action contractx.OrderAction, content string) contractx.Turn {
	mem := st.Memory(action)
	if !st.Empty() {
		totals := ComputeTotals(st.Cart, st.DiscountCodes, a.cfg)
		mem.Totals = &totals
	}
	return contractx.AssistantTurn(content, mem)
}

func (a *Agent) apology(last statex.OrderState, cause error) contractx.Turn {
	mem := last.Memory(contractx.OrderActionError)
	mem.Error = cause.Error()
	return contractx.AssistantTurn(Apology, mem)
}

func quoted(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
