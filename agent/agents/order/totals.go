package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

type Config struct {
	ShippingFlat float64 `envconfig:"SHIPPING_FLAT" split_words:"true" default:"50"`
	TaxPercent   float64 `envconfig:"TAX_PERCENT" split_words:"true" default:"5"`
	HistoryTurns int     `envconfig:"HISTORY_TURNS" split_words:"true" default:"6"`
}

func (c Config) Validate() error {
	if c.ShippingFlat < 0 {
		return fmt.Errorf("%w: shipping must be >= 0", contractx.ErrValidation)
	}
	if c.TaxPercent < 0 || c.TaxPercent > 100 {
		return fmt.Errorf("%w: tax percent must be within 0..100", contractx.ErrValidation)
	}
	return nil
}

func DefaultConfig() Config {
	return Config{ShippingFlat: 50, TaxPercent: 5, HistoryTurns: 6}
}

type DiscountKind string

const (
	DiscountPercent      DiscountKind = "percent"
	DiscountFreeShipping DiscountKind = "free_shipping"
)

type Discount struct {
	Code        string
	Kind        DiscountKind
	Percent     float64
	MinSubtotal float64
}

var discounts = map[string]Discount{
	"WELCOME10": {Code: "WELCOME10", Kind: DiscountPercent, Percent: 10, MinSubtotal: 50},
	"PLANT20":   {Code: "PLANT20", Kind: DiscountPercent, Percent: 20, MinSubtotal: 1000},
	"FREESHIP":  {Code: "FREESHIP", Kind: DiscountFreeShipping, MinSubtotal: 500},
}

func LookupDiscount(code string) (Discount, bool) {
	d, ok := discounts[strings.ToUpper(strings.TrimSpace(code))]
	return d, ok
}

var hundred = decimal.NewFromInt(100)

// Subtotal sums price times quantity over lines.
func Subtotal(lines []contractx.CartLine) float64 {
	return subtotal(lines).InexactFloat64()
}

func subtotal(lines []contractx.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// ComputeTotals is pure. Percent codes whose threshold is met stack
// additively and never exceed the subtotal; a qualifying free-shipping code
// zeroes the flat shipping fee. Discount and tax are rounded to the paisa.
func ComputeTotals(lines []contractx.CartLine, codes []string, cfg Config) contractx.Totals {
	if len(lines) == 0 {
		return contractx.Totals{}
	}
	sub := subtotal(lines)

	var (
		percent  = decimal.Zero
		freeShip bool
	)
	for _, code := range codes {
		d, ok := LookupDiscount(code)
		if !ok || sub.LessThan(decimal.NewFromFloat(d.MinSubtotal)) {
			continue
		}
		switch d.Kind {
		case DiscountPercent:
			percent = percent.Add(decimal.NewFromFloat(d.Percent))
		case DiscountFreeShipping:
			freeShip = true
		}
	}

	discount := decimal.Min(sub.Mul(percent).Div(hundred).Round(2), sub)
	shipping := decimal.NewFromFloat(cfg.ShippingFlat)
	if freeShip {
		shipping = decimal.Zero
	}
	taxable := sub.Sub(discount)
	tax := taxable.Mul(decimal.NewFromFloat(cfg.TaxPercent)).Div(hundred).Round(2)

	return contractx.Totals{
		Subtotal:       sub.InexactFloat64(),
		DiscountAmount: discount.InexactFloat64(),
		Shipping:       shipping.InexactFloat64(),
		Tax:            tax.InexactFloat64(),
		Total:          taxable.Add(shipping).Add(tax).InexactFloat64(),
	}
}
