package state

import (
	"strings"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

// OrderState is the cart of the current order cycle. A cycle ends at checkout.
type OrderState struct {
	Cart                []contractx.CartLine
	DiscountCodes       []string
	RecommendationShown bool
}

func FromMemory(m *contractx.OrderMemory) OrderState {
	if m == nil {
		return OrderState{}
	}
	return OrderState{
		Cart:                append([]contractx.CartLine(nil), m.Cart...),
		DiscountCodes:       append([]string(nil), m.DiscountCodes...),
		RecommendationShown: m.RecommendationShown,
	}
}

func (o OrderState) Clone() OrderState {
	return OrderState{
		Cart:                append([]contractx.CartLine(nil), o.Cart...),
		DiscountCodes:       append([]string(nil), o.DiscountCodes...),
		RecommendationShown: o.RecommendationShown,
	}
}

func (o OrderState) Empty() bool { return len(o.Cart) == 0 }

// Memory snapshots the state into an order memory with the given action.
func (o OrderState) Memory(action contractx.OrderAction) *contractx.OrderMemory {
	c := o.Clone()
	if c.Cart == nil {
		c.Cart = []contractx.CartLine{}
	}
	if c.DiscountCodes == nil {
		c.DiscountCodes = []string{}
	}
	return &contractx.OrderMemory{
		Agent:               contractx.AgentTypeOrder,
		Action:              action,
		Cart:                c.Cart,
		DiscountCodes:       c.DiscountCodes,
		RecommendationShown: c.RecommendationShown,
	}
}

// Add merges line into the cart by name, or appends it. It reports false and
// leaves the cart untouched when the resulting quantity would fall outside
// 1..MaxQuantity.
func (o *OrderState) Add(line contractx.CartLine) bool {
	if line.Quantity <= 0 || line.Quantity > contractx.MaxQuantity {
		return false
	}
	for i := range o.Cart {
		if strings.EqualFold(o.Cart[i].Name, line.Name) {
			if o.Cart[i].Quantity > contractx.MaxQuantity-line.Quantity {
				return false
			}
			o.Cart[i].Quantity += line.Quantity
			return true
		}
	}
	o.Cart = append(o.Cart, line)
	return true
}

// SetQuantity replaces the quantity of an existing line.
func (o *OrderState) SetQuantity(name string, qty int) bool {
	if qty <= 0 || qty > contractx.MaxQuantity {
		return false
	}
	for i := range o.Cart {
		if strings.EqualFold(o.Cart[i].Name, name) {
			o.Cart[i].Quantity = qty
			return true
		}
	}
	return false
}

// Remove takes qty units of name out of the cart. qty <= 0 drops the line.
// It reports whether the item was in the cart.
func (o *OrderState) Remove(name string, qty int) bool {
	for i := range o.Cart {
		if !strings.EqualFold(o.Cart[i].Name, name) {
			continue
		}
		if qty > 0 && qty < o.Cart[i].Quantity {
			o.Cart[i].Quantity -= qty
			return true
		}
		o.Cart = append(o.Cart[:i:i], o.Cart[i+1:]...)
		return true
	}
	return false
}

func (o OrderState) HasCode(code string) bool {
	for _, c := range o.DiscountCodes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// ApplyCode records code once. It returns false if the code was already active.
func (o *OrderState) ApplyCode(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || o.HasCode(code) {
		return false
	}
	o.DiscountCodes = append(o.DiscountCodes, code)
	return true
}

// Checkout ends the cycle: it returns the closed state and resets o.
func (o *OrderState) Checkout() OrderState {
	closed := o.Clone()
	*o = OrderState{}
	return closed
}
