package qstash

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

type orderPlaced struct {
	Event    string            `json:"event"`
	PlacedAt time.Time         `json:"placed_at"`
	Receipt  contractx.Receipt `json:"receipt"`
}

// CheckoutNotifier publishes completed orders to a webhook through QStash.
type CheckoutNotifier struct {
	client      *Client
	destination string
	now         func() time.Time
}

var _ contractx.CheckoutNotifier = (*CheckoutNotifier)(nil)

func NewCheckoutNotifier(client *Client, destination string) *CheckoutNotifier {
	return &CheckoutNotifier{client: client, destination: destination, now: time.Now}
}

func (n *CheckoutNotifier) NotifyCheckout(ctx context.Context, receipt contractx.Receipt) error {
	resp, err := n.client.Publish(ctx, n.destination, orderPlaced{
		Event:    "order.placed",
		PlacedAt: n.now().UTC(),
		Receipt:  receipt,
	})
	if err != nil {
		return err
	}
	log.Info().Str("message_id", resp.MessageID).Int("lines", len(receipt.Lines)).Msg("order published")
	return nil
}
