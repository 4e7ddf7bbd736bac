package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

var (
	//go:embed template/guard.txt
	guardRaw string

	//go:embed template/classification.txt
	classificationRaw string

	//go:embed template/details.txt
	detailsRaw string

	//go:embed template/order.txt
	orderRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/repair.txt
	repairRaw string
)

// PromptSet holds loaded prompt content. Templates use FString placeholders.
type PromptSet struct {
	Guard          string
	Classification string
	Details        string
	Order          string
	Recommendation string
	Repair         string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Guard:          strings.TrimSpace(guardRaw),
		Classification: strings.TrimSpace(classificationRaw),
		Details:        strings.TrimSpace(detailsRaw),
		Order:          strings.TrimSpace(orderRaw),
		Recommendation: strings.TrimSpace(recommendationRaw),
		Repair:         strings.TrimSpace(repairRaw),
	}
}

// Render fills an FString template and returns the resulting text.
func Render(ctx context.Context, template string, vars map[string]any) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", contractx.ErrPromptMissing
	}

	msgs, err := einoprompt.FromMessages(schema.FString, schema.SystemMessage(template)).Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%w: render prompt: %v", contractx.ErrValidation, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%w: render prompt produced no message", contractx.ErrValidation)
	}
	return msgs[0].Content, nil
}
