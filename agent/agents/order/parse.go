package order

import (
	"regexp"
	"strings"
	"unicode"

	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	intentx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/intent"
)

type Intent string

const (
	IntentDiscount Intent = "discount"
	IntentCheckout Intent = "checkout"
	IntentRemove   Intent = "remove"
	IntentAdd      Intent = "add"
	IntentInquire  Intent = "inquire"
	IntentChat     Intent = "chat"
)

type ItemRequest struct {
	Item     catalogx.Item
	Quantity int // 0 on a remove means the whole line
}

// Request is one parsed order message. Items and Removes are applied before
// the intent's own action, so "add 2 rose and checkout" keeps the roses.
type Request struct {
	Intent       Intent
	Codes        []string
	UnknownCodes []string
	Items        []ItemRequest
	Removes      []ItemRequest
	// Removal marks NotFound names as removal targets rather than additions.
	Removal  bool
	NotFound []string
	// Invalid names items whose quantity falls outside 1..MaxQuantity.
	Invalid []string
	// Bare is a quantity written without an item name, e.g. "two more".
	Bare int
	// SetBare makes Bare replace the last line's quantity ("make it 3").
	SetBare bool
}

// Mutates reports whether the request changes cart lines.
func (r Request) Mutates() bool {
	return len(r.Items) > 0 || len(r.Removes) > 0
}

// Rejected reports whether part of the request could not be applied.
func (r Request) Rejected() bool {
	return len(r.NotFound) > 0 || len(r.Invalid) > 0
}

var (
	segmentSplit = regexp.MustCompile(`(?i)\s*(?:,|;|&|\+|\n|\band\b)\s*`)
	digitWord    = regexp.MustCompile(`(\d+)([a-z]+)`)

	codeMarkers     = map[string]bool{"code": true, "coupon": true, "promo": true, "discount": true, "voucher": true}
	checkoutPhrases = []string{"checkout", "check out", "place order", "place the order", "place my order", "confirm order", "confirm my order"}
	removeWords     = map[string]bool{"remove": true, "delete": true, "drop": true}
	actionWords     = map[string]bool{"apply": true, "use": true, "with": true, "and": true}
	inquirePhrases  = []string{"cart", "basket", "total", "bill", "summary", "my order", "what did i order"}

	unitWords = map[string]bool{
		"x": true, "kg": true, "kgs": true, "kilo": true, "kilos": true, "ltr": true, "litre": true, "litres": true,
		"liter": true, "liters": true, "l": true, "pcs": true, "pieces": true, "units": true, "nos": true,
	}
	fillerWords = map[string]bool{
		"of": true, "please": true, "more": true, "the": true, "a": true, "an": true, "some": true,
		"those": true, "them": true, "pls": true, "also": true, "it": true, "make": true, "another": true,
		"just": true, "i": true, "d": true, "id": true, "want": true, "need": true, "like": true, "would": true,
		"add": true, "get": true, "me": true, "to": true, "buy": true, "order": true, "can": true, "could": true,
		"you": true, "have": true, "that": true, "then": true,
	}
)

// Parse resolves the intent of an order-stage message. Intents are tried in
// order: discount code, checkout, remove, add, cart inquiry, free-form. Item
// changes are parsed for every intent once codes and checkout phrases are
// stripped from the text.
func Parse(text string, cat *catalogx.Catalog) Request {
	var req Request

	req.Codes, req.UnknownCodes = findCodes(text)
	hasCodes := len(req.Codes) > 0 || len(req.UnknownCodes) > 0

	padded := " " + strings.Join(intentx.Tokens(text), " ") + " "
	checkout := containsAny(padded, checkoutPhrases)

	itemText := text
	if hasCodes || checkout {
		itemText = stripActions(text, append(append([]string(nil), req.Codes...), req.UnknownCodes...))
	}

	if rest, ok := afterRemoveWord(itemText); ok {
		req.Removal = true
		req.Removes, req.NotFound, _ = parseItems(rest, cat, true)
	} else {
		req.Items, req.NotFound, req.Invalid = parseItems(itemText, cat, false)
	}

	switch {
	case hasCodes:
		req.Intent = IntentDiscount
	case checkout:
		req.Intent = IntentCheckout
	case req.Removal:
		req.Intent = IntentRemove
	case req.Mutates() || req.Rejected():
		req.Intent = IntentAdd
	case intentx.IsQuantityFollowUp(text) && bareQuantity(text) > 0:
		req.Intent = IntentAdd
		req.Bare = bareQuantity(text)
		req.SetBare = intentx.IsSetQuantity(text)
	case containsAny(padded, inquirePhrases):
		req.Intent = IntentInquire
	default:
		req.Intent = IntentChat
	}
	return req
}

// stripActions removes discount codes, their markers and checkout phrases
// from every segment, leaving the item wording around them.
func stripActions(text string, codes []string) string {
	var kept []string
	for _, seg := range segmentSplit.Split(text, -1) {
		padded := " " + strings.Join(intentx.Tokens(seg), " ") + " "
		for _, phrase := range checkoutPhrases {
			padded = strings.ReplaceAll(padded, " "+phrase+" ", " ")
		}
		var words []string
		for _, tok := range strings.Fields(padded) {
			if codeMarkers[tok] || actionWords[tok] || isCode(tok, codes) {
				continue
			}
			words = append(words, tok)
		}
		if len(words) > 0 {
			kept = append(kept, strings.Join(words, " "))
		}
	}
	return strings.Join(kept, ", ")
}

func isCode(tok string, codes []string) bool {
	for _, c := range codes {
		if strings.EqualFold(tok, c) {
			return true
		}
	}
	return false
}

// findCodes returns known discount codes in text, and unknown code-like
// words that follow a marker such as "code" or "coupon".
func findCodes(text string) (known, unknown []string) {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := map[string]bool{}
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := LookupDiscount(upper); ok {
			if !seen[upper] {
				known = append(known, upper)
				seen[upper] = true
			}
			continue
		}
		if i == 0 || !codeMarkers[strings.ToLower(words[i-1])] || !looksLikeCode(w) {
			continue
		}
		if !seen[upper] {
			unknown = append(unknown, upper)
			seen[upper] = true
		}
	}
	return known, unknown
}

func looksLikeCode(w string) bool {
	hasDigit, allUpper := false, true
	for _, r := range w {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsLower(r) {
			allUpper = false
		}
	}
	return hasDigit || (allUpper && len(w) >= 4)
}

func afterRemoveWord(text string) (string, bool) {
	lower := strings.ToLower(text)
	fields := strings.Fields(lower)
	for i, f := range fields {
		w := strings.Trim(f, ".,!?;:")
		if removeWords[w] {
			return strings.Join(fields[i+1:], " "), true
		}
		if w == "take" && i+1 < len(fields) && strings.Trim(fields[i+1], ".,!?;:") == "out" {
			return strings.Join(fields[i+2:], " "), true
		}
	}
	return "", false
}

func parseItems(text string, cat *catalogx.Catalog, removing bool) (items []ItemRequest, notFound, invalid []string) {
	for _, seg := range segmentSplit.Split(text, -1) {
		qty, explicit, name := parseSegment(seg)
		if name == "" && !explicit {
			continue
		}

		if explicit {
			if name == "" {
				continue
			}
			item, ok := cat.Match(name)
			switch {
			case !ok:
				notFound = append(notFound, name)
			case removing && !intentx.ValidQuantity(qty):
				items = append(items, ItemRequest{Item: item})
			case !intentx.ValidQuantity(qty):
				invalid = append(invalid, item.Name)
			default:
				items = append(items, ItemRequest{Item: item, Quantity: qty})
			}
			continue
		}

		mentioned := cat.Mentions(seg)
		if len(mentioned) == 0 && removing {
			if item, ok := cat.Match(name); ok {
				mentioned = []catalogx.Item{item}
			} else {
				notFound = append(notFound, name)
			}
		}
		for _, item := range mentioned {
			q := 1
			if removing {
				q = 0
			}
			items = append(items, ItemRequest{Item: item, Quantity: q})
		}
	}
	return items, notFound, invalid
}

func bareQuantity(text string) int {
	qty, explicit, _ := parseSegment(text)
	if !explicit {
		return 0
	}
	return qty
}

// parseSegment reads "N name", "N x name", "N kg name", "name x N" and
// "name - N". explicit is false when no quantity was written.
func parseSegment(seg string) (qty int, explicit bool, name string) {
	normalized := digitWord.ReplaceAllString(catalogx.Normalize(seg), "$1 $2")
	tokens := strings.Fields(normalized)

	for i, tok := range tokens {
		n, ok := intentx.ParseQuantity(tok)
		if !ok {
			continue
		}
		after := trimWords(tokens[i+1:])
		if len(after) > 0 {
			return n, true, strings.Join(after, " ")
		}
		return n, true, strings.Join(trimWords(tokens[:i]), " ")
	}
	return 0, false, strings.Join(trimWords(tokens), " ")
}

func trimWords(tokens []string) []string {
	for len(tokens) > 0 && (unitWords[tokens[0]] || fillerWords[tokens[0]]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && (unitWords[tokens[len(tokens)-1]] || fillerWords[tokens[len(tokens)-1]]) {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func containsAny(padded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}
