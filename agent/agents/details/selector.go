package details

import (
	"strings"

	"github.com/hbollon/go-edlib"
	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	knowledgex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/knowledge"
)

// similarityCutoff is the minimum similarity for a word to count as a
// misspelt keyword.
const similarityCutoff = 0.8

var priceKeywords = []string{
	"price", "prices", "cost", "costs", "rate", "rates", "pricing", "how much", "hw much", "amount", "rupees", "rs",
}

var storeKeywords = []string{
	"store", "shop", "location", "located", "address", "hour", "hours", "time", "timing", "timings",
	"opening", "open", "close", "closing", "deliver", "delivery", "about", "locate", "branch",
	"branches", "outlet", "schedule", "contact", "phone", "email",
}

// SelectTopics picks the knowledge documents relevant to question. Price
// words pick the price list, store words pick about_us, both pick both and
// neither picks every document.
func SelectTopics(question string, all []string) []string {
	words := strings.Fields(catalogx.Normalize(question))
	price := matchesCluster(words, priceKeywords)
	store := matchesCluster(words, storeKeywords)

	switch {
	case price && store:
		return []string{knowledgex.TopicPriceList, knowledgex.TopicAboutUs}
	case price:
		return []string{knowledgex.TopicPriceList}
	case store:
		return []string{knowledgex.TopicAboutUs}
	default:
		return append([]string(nil), all...)
	}
}

func matchesCluster(words []string, keywords []string) bool {
	padded := " " + strings.Join(words, " ") + " "
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(padded, " "+kw+" ") {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == kw {
				return true
			}
			if len(w) >= 3 && len(kw) >= 3 && similarity(w, kw) >= similarityCutoff {
				return true
			}
		}
	}
	return false
}

// similarity is the Levenshtein ratio 1 - distance/maxLen over runes.
func similarity(a, b string) float64 {
	ratio, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(ratio)
}
