package order

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	catalogx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

const EmptyCart = "Your cart is empty."

// Rupees formats an amount rounded to two decimals, without trailing zeros
// for whole amounts.
func Rupees(v float64) string {
	r := math.Round(v*100) / 100
	if r == math.Trunc(r) {
		return "₹" + strconv.FormatFloat(r, 'f', 0, 64)
	}
	return "₹" + strconv.FormatFloat(r, 'f', 2, 64)
}

func quantityLabel(l contractx.CartLine) string {
	switch catalogx.Unit(l.Unit) {
	case catalogx.UnitKg:
		return fmt.Sprintf("%d kg", l.Quantity)
	case catalogx.UnitLitre:
		return fmt.Sprintf("%d ltr", l.Quantity)
	default:
		return fmt.Sprintf("%d ×", l.Quantity)
	}
}

// FormatCart renders the cart with its totals, or EmptyCart.
func FormatCart(lines []contractx.CartLine, codes []string, totals contractx.Totals, taxPercent float64) string {
	if len(lines) == 0 {
		return EmptyCart
	}

	var b strings.Builder
	b.WriteString("Your cart:\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s %s @ %s = %s\n", quantityLabel(l), l.Name, Rupees(l.UnitPrice), Rupees(l.LineTotal()))
	}
	fmt.Fprintf(&b, "Subtotal: %s\n", Rupees(totals.Subtotal))
	if totals.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", strings.Join(codes, ", "), Rupees(totals.DiscountAmount))
	}
	if totals.Shipping > 0 {
		fmt.Fprintf(&b, "Shipping: %s\n", Rupees(totals.Shipping))
	} else {
		b.WriteString("Shipping: free\n")
	}
	fmt.Fprintf(&b, "Tax (%s%%): %s\n", strconv.FormatFloat(taxPercent, 'f', -1, 64), Rupees(totals.Tax))
	fmt.Fprintf(&b, "Total: %s", Rupees(totals.Total))
	return b.String()
}

func listNames(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
