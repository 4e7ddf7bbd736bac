package intent

import (
	"errors"
	"math"
	"strconv"
	"strings"

	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

var orderKeywords = []string{"order", "buy", "purchase", "add", "cart", "checkout"}

// redirectPhrases make the details stage hand a message back to ordering.
var redirectPhrases = []string{"order", "buy", "purchase", "add to cart", "checkout", "check out"}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var followUpFiller = map[string]bool{
	"more": true, "please": true, "of": true, "them": true, "those": true, "it": true,
	"make": true, "another": true, "x": true, "pcs": true, "pieces": true, "units": true,
	"plus": true, "and": true, "add": true, "just": true, "that": true,
}

// IsOrderIntent reports whether text contains an ordering keyword as a whole
// word, allowing simple inflections ("orders", "buying", "added").
func IsOrderIntent(text string) bool {
	for _, tok := range Tokens(text) {
		for _, kw := range orderKeywords {
			if tok == kw || tok == kw+"s" || tok == kw+"ing" || tok == kw+"ed" || tok == kw+"ded" {
				return true
			}
		}
	}
	return false
}

// IsOrderRequest reports whether text asks to place or manage an order.
func IsOrderRequest(text string) bool {
	padded := " " + strings.Join(Tokens(text), " ") + " "
	for _, phrase := range redirectPhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// IsQuantityFollowUp reports whether text is a bare quantity such as
// "2", "two more", "make it 3" or "make that 3".
func IsQuantityFollowUp(text string) bool {
	found := false
	for _, tok := range Tokens(text) {
		if _, ok := ParseQuantity(tok); ok {
			if found {
				return false
			}
			found = true
			continue
		}
		if !followUpFiller[tok] {
			return false
		}
	}
	return found
}

// IsSetQuantity reports whether a bare quantity replaces the last line's
// quantity ("make it 3") instead of adding to it ("3 more").
func IsSetQuantity(text string) bool {
	set := false
	for _, tok := range Tokens(text) {
		switch tok {
		case "more", "another", "plus", "add":
			return false
		case "make":
			set = true
		}
	}
	return set
}

// ParseQuantity reads a digit string or a number word from one to twelve.
// Digit strings too large for int parse as math.MaxInt; callers check the
// range with ValidQuantity.
func ParseQuantity(word string) (int, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	n, err := strconv.Atoi(w)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(w, "-") {
		return math.MaxInt, true
	}
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ValidQuantity reports whether n fits a cart line.
func ValidQuantity(n int) bool {
	return n >= 1 && n <= contractx.MaxQuantity
}

func Tokens(text string) []string {
	return strings.Fields(catalogx.Normalize(text))
}
