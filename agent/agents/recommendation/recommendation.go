package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	gatewayx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/gateway"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const maxSuggestions = 3

// complements lists, per cart category, the categories worth suggesting.
var complements = map[string][]string{
	catalogx.CategoryIndoor:    {catalogx.CategorySoil, catalogx.CategoryCacti},
	catalogx.CategoryHerbs:     {catalogx.CategorySoil, catalogx.CategoryFlowering},
	catalogx.CategoryFlowering: {catalogx.CategorySoil, catalogx.CategoryHerbs},
	catalogx.CategoryCacti:     {catalogx.CategorySoil, catalogx.CategoryIndoor},
	catalogx.CategorySoil:      {catalogx.CategoryIndoor, catalogx.CategoryFlowering},
}

var ErrNothingToSuggest = errors.New("no complementary items to suggest")

type Recommender struct {
	gateway  contractx.Gateway
	params   llm.Params
	template string
	catalog  *catalogx.Catalog
}

var _ contractx.Recommender = (*Recommender)(nil)

func New(gw contractx.Gateway, params llm.Params, template string, cat *catalogx.Catalog) (*Recommender, error) {
	if gw == nil {
		return nil, errors.New("recommendation: gateway is nil")
	}
	if cat == nil {
		return nil, errors.New("recommendation: catalog is nil")
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("recommendation: %w", contractx.ErrPromptMissing)
	}
	return &Recommender{gateway: gw, params: params, template: template, catalog: cat}, nil
}

// Recommend phrases a short suggestion for the current cart. When the
// gateway fails it falls back to a fixed-format message.
func (r *Recommender) Recommend(ctx context.Context, history []contractx.Turn, lines []contractx.CartLine) (contractx.Turn, error) {
	if len(lines) == 0 {
		return contractx.Turn{}, fmt.Errorf("%w: cart is empty", contractx.ErrValidation)
	}
	picks := Suggest(r.catalog, lines)
	if len(picks) == 0 {
		return contractx.Turn{}, ErrNothingToSuggest
	}

	system, err := promptx.Render(ctx, r.template, map[string]any{
		"cart":        cartText(lines),
		"suggestions": suggestionText(picks),
	})
	if err != nil {
		return contractx.Turn{}, err
	}

	out, err := r.gateway.Generate(ctx, r.params.Request(
		gatewayx.Conversation(system, statex.Window(history, 1)),
	))
	if err != nil || strings.TrimSpace(out) == "" {
		log.Warn().Err(err).Msg("recommendation model unavailable, using fallback text")
		return contractx.AssistantTurn(Fallback(lines, picks), nil), nil
	}
	return contractx.AssistantTurn(strings.TrimSpace(out), nil), nil
}

// Suggest returns up to three catalog items from categories complementary
// to the cart, skipping anything already in it. The result is deterministic.
func Suggest(cat *catalogx.Catalog, lines []contractx.CartLine) []catalogx.Item {
	inCart := make(map[string]bool, len(lines))
	for _, l := range lines {
		inCart[strings.ToLower(l.Name)] = true
	}

	var (
		picks      []catalogx.Item
		categories []string
		seenCat    = map[string]bool{}
	)
	for _, l := range lines {
		for _, c := range complements[l.Category] {
			if !seenCat[c] {
				seenCat[c] = true
				categories = append(categories, c)
			}
		}
	}

	// One item per category per pass so the picks stay varied.
	pools := make([][]catalogx.Item, len(categories))
	for i, c := range categories {
		pools[i] = cat.ByCategory(c)
	}
	for len(picks) < maxSuggestions {
		progressed := false
		for i := range pools {
			for len(pools[i]) > 0 {
				it := pools[i][0]
				pools[i] = pools[i][1:]
				if inCart[strings.ToLower(it.Name)] {
					continue
				}
				picks = append(picks, it)
				inCart[strings.ToLower(it.Name)] = true
				progressed = true
				break
			}
			if len(picks) == maxSuggestions {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return picks
}

func Fallback(lines []contractx.CartLine, picks []catalogx.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your cart now has %s.\n\nYou might also like:\n", cartSentence(lines))
	b.WriteString(suggestionText(picks))
	b.WriteString("\n\nWould you like to add any of these?")
	return b.String()
}

func cartSentence(lines []contractx.CartLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%d %s", l.Quantity, l.Name)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func cartText(lines []contractx.CartLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %d %s (%s)", l.Quantity, l.Name, l.Category)
	}
	return b.String()
}

func suggestionText(picks []catalogx.Item) string {
	var b strings.Builder
	for i, it := range picks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", it.Name, priceLabel(it))
	}
	return b.String()
}

func priceLabel(it catalogx.Item) string {
	price := "₹" + strconv.FormatFloat(it.Price, 'f', -1, 64)
	switch it.Unit {
	case catalogx.UnitKg:
		return price + "/kg"
	case catalogx.UnitLitre:
		return price + "/ltr"
	default:
		return price
	}
}
