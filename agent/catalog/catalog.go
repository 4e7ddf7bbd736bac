package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

type Unit string

const (
	UnitEach  Unit = "each"
	UnitKg    Unit = "kg"
	UnitLitre Unit = "ltr"
)

const (
	CategoryIndoor    = "Indoor Plants"
	CategoryHerbs     = "Herbs"
	CategoryFlowering = "Flowering Plants"
	CategoryCacti     = "Cacti & Succulents"
	CategorySoil      = "Soil & Fertilizers"
)

// minFuzzyLen is the shortest query that may fall through to fuzzy ranking.
const minFuzzyLen = 4

type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     Unit    `json:"unit"`
	Category string  `json:"category"`
}

var items = []Item{
	{"White Butterfly", 100, UnitEach, CategoryIndoor},
	{"Peace Lily", 150, UnitEach, CategoryIndoor},
	{"Chlorophytum Spider Plant", 100, UnitEach, CategoryIndoor},
	{"Money Plant Marble Prince", 150, UnitEach, CategoryIndoor},
	{"Snake Plant (Sansevieria)", 200, UnitEach, CategoryIndoor},
	{"Aglaonema Lipstick", 300, UnitEach, CategoryIndoor},
	{"Jade Plant (Portulacaria afra)", 200, UnitEach, CategoryIndoor},
	{"Rubber Tree (Ficus elastica)", 300, UnitEach, CategoryIndoor},

	{"Krishna Tulsi Plant (Black)", 50, UnitEach, CategoryHerbs},
	{"Lemon Grass", 50, UnitEach, CategoryHerbs},
	{"Curry Leaves", 50, UnitEach, CategoryHerbs},
	{"Rama Tulsi Plant", 50, UnitEach, CategoryHerbs},
	{"Ajwain Leaves", 100, UnitEach, CategoryHerbs},
	{"Mentha Arvensis (Japanese Mint)", 100, UnitEach, CategoryHerbs},
	{"Black Turmeric Plant (Black Haldi)", 300, UnitEach, CategoryHerbs},
	{"Bhuiamla", 100, UnitEach, CategoryHerbs},
	{"Wild Asparagus", 200, UnitEach, CategoryHerbs},

	{"Jasminum sambac", 150, UnitEach, CategoryFlowering},
	{"Parijat Tree", 300, UnitEach, CategoryFlowering},
	{"Rose", 100, UnitEach, CategoryFlowering},
	{"Raat Rani", 200, UnitEach, CategoryFlowering},
	{"Shevanti", 100, UnitEach, CategoryFlowering},
	{"Marigold (Orange)", 50, UnitEach, CategoryFlowering},
	{"Champa (White)", 200, UnitEach, CategoryFlowering},
	{"Rajnigandha", 100, UnitEach, CategoryFlowering},
	{"Fragrant Panama rose", 300, UnitEach, CategoryFlowering},

	{"Pincushion Cactus", 150, UnitEach, CategoryCacti},
	{"Bunny Ear Cactus", 200, UnitEach, CategoryCacti},
	{"Echinopsis chamaecereus", 250, UnitEach, CategoryCacti},
	{"Golden Pipe Cactus", 300, UnitEach, CategoryCacti},
	{"Moon Cactus (Grafted)", 300, UnitEach, CategoryCacti},
	{"Graptoveria opalina", 250, UnitEach, CategoryCacti},
	{"Crassula tetragona", 200, UnitEach, CategoryCacti},
	{"Aloe Vera", 100, UnitEach, CategoryCacti},
	{"Euphorbia (Red)", 300, UnitEach, CategoryCacti},

	{"Vermicompost", 10, UnitKg, CategorySoil},
	{"Vermicompost Mixture", 20, UnitKg, CategorySoil},
	{"Dec-Neemo (Bio-fertilizer)", 150, UnitLitre, CategorySoil},
	{"Dec-Mori (Bio-fertilizer)", 150, UnitLitre, CategorySoil},
	{"Agni Shield", 300, UnitEach, CategorySoil},
}

// Catalog is an immutable product list with name matching.
type Catalog struct {
	items []Item
	full  []string // normalised full names, same index as items
	base  []string // normalised names before the parenthesis
}

// Default returns the store catalog.
func Default() *Catalog {
	return New(items)
}

func New(list []Item) *Catalog {
	c := &Catalog{items: append([]Item(nil), list...)}
	for _, it := range c.items {
		c.full = append(c.full, Normalize(it.Name))
		c.base = append(c.base, Normalize(baseName(it.Name)))
	}
	return c
}

func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) ByCategory(category string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds an item by exact (case-insensitive) name.
func (c *Catalog) Lookup(name string) (Item, bool) {
	q := Normalize(name)
	for i, it := range c.items {
		if c.full[i] == q {
			return it, true
		}
	}
	return Item{}, false
}

// Match resolves free text to a catalog item: exact name first, then
// containment either way, then fuzzy subsequence ranking. A fuzzy candidate
// is accepted only when the query reads as an abbreviation of its name.
func (c *Catalog) Match(query string) (Item, bool) {
	q := Normalize(query)
	if q == "" {
		return Item{}, false
	}

	for i := range c.items {
		if c.full[i] == q || c.base[i] == q {
			return c.items[i], true
		}
	}

	if i, ok := c.containment(q); ok {
		return c.items[i], true
	}

	if len(q) < minFuzzyLen {
		return Item{}, false
	}
	for _, m := range fuzzy.Find(q, c.full) {
		if abbreviates(q, c.full[m.Index]) {
			return c.items[m.Index], true
		}
	}
	return Item{}, false
}

// abbreviates reports whether every query token is a prefix of a word in
// name, or the query with spaces removed runs along consecutive name words
// ("moneyplant", "spiderplant").
func abbreviates(q, name string) bool {
	words := strings.Fields(name)
	compact := strings.ReplaceAll(q, " ", "")
	for i := range words {
		if strings.HasPrefix(strings.Join(words[i:], ""), compact) && len(compact) > len(words[i]) {
			return true
		}
	}

	for _, tok := range strings.Fields(q) {
		found := false
		for _, w := range words {
			if len(tok) >= 3 && strings.HasPrefix(w, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Mentions returns the items whose names appear as whole words in text,
// longest names first.
func (c *Catalog) Mentions(text string) []Item {
	padded := " " + Normalize(text) + " "
	type hit struct {
		idx int
		n   int
	}
	var hits []hit
	for i := range c.items {
		for _, name := range []string{c.full[i], c.base[i]} {
			if name != "" && strings.Contains(padded, " "+name+" ") {
				hits = append(hits, hit{idx: i, n: len(name)})
				break
			}
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].n > hits[b].n })

	var (
		out     []Item
		claimed []string
	)
	for _, h := range hits {
		name := c.base[h.idx]
		shadowed := false
		for _, longer := range claimed {
			if strings.Contains(" "+longer+" ", " "+name+" ") {
				shadowed = true
				break
			}
		}
		if shadowed {
			continue
		}
		claimed = append(claimed, name)
		out = append(out, c.items[h.idx])
	}
	return out
}

func (c *Catalog) containment(q string) (int, bool) {
	best, bestLen := -1, 0
	// Query is part of a catalog name: prefer the shortest name.
	for i := range c.items {
		if containsWords(c.full[i], q) && (best < 0 || len(c.full[i]) < bestLen) {
			best, bestLen = i, len(c.full[i])
		}
	}
	if best >= 0 {
		return best, true
	}

	// Query mentions a catalog name: prefer the longest name.
	for i := range c.items {
		for _, name := range []string{c.full[i], c.base[i]} {
			if containsWords(q, name) && len(name) > bestLen {
				best, bestLen = i, len(name)
			}
		}
	}
	if best >= 0 {
		return best, true
	}

	// Plural forms such as "roses".
	for _, stem := range []string{strings.TrimSuffix(q, "es"), strings.TrimSuffix(q, "s")} {
		if stem == q || stem == "" {
			continue
		}
		for i := range c.items {
			if c.full[i] == stem || c.base[i] == stem {
				return i, true
			}
		}
	}
	return -1, false
}

func containsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

func baseName(name string) string {
	if i := strings.Index(name, "("); i > 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// Normalize lowercases s and collapses punctuation and spacing.
func Normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
