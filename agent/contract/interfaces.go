package contract

import "context"

// Gateway sends role-tagged messages to the text-generation service.
// Failures are returned as errors wrapping ErrModelInvoke; it never retries.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type Repairer interface {
	Repair(ctx context.Context, candidate string) (string, error)
}

type Stage interface {
	Respond(ctx context.Context, history []Turn) (Turn, error)
}

type Recommender interface {
	Recommend(ctx context.Context, history []Turn, lines []CartLine) (Turn, error)
}

type Receipt struct {
	Lines         []CartLine `json:"lines"`
	DiscountCodes []string   `json:"discount_codes"`
	Totals        Totals     `json:"totals"`
}

type CheckoutNotifier interface {
	NotifyCheckout(ctx context.Context, receipt Receipt) error
}
