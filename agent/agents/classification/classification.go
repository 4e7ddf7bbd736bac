package classification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	gatewayx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/gateway"
	intentx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/intent"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const window = 5

type output struct {
	Rationale string `json:"rationale"`
	Decision  string `json:"decision"`
	Message   string `json:"message"`
}

// Agent picks the downstream stage for an allowed message.
type Agent struct {
	gateway  contractx.Gateway
	repairer contractx.Repairer
	params   llm.Params
	template string
}

var _ contractx.Stage = (*Agent)(nil)

func New(gw contractx.Gateway, repairer contractx.Repairer, params llm.Params, template string) (*Agent, error) {
	if gw == nil {
		return nil, errors.New("classification: gateway is nil")
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("classification: %w", contractx.ErrPromptMissing)
	}
	return &Agent{gateway: gw, repairer: repairer, params: params, template: template}, nil
}

// Respond returns a turn whose memory names the chosen stage. Ordering
// keywords, and bare quantities while a cart is open, skip the model call.
func (a *Agent) Respond(ctx context.Context, history []contractx.Turn) (contractx.Turn, error) {
	text, _ := statex.LastUser(history)
	snap := statex.Fold(history)

	if intentx.IsOrderIntent(text) {
		return decided(contractx.AgentTypeOrder, "ordering keyword"), nil
	}
	if snap.HasCartItems && intentx.IsQuantityFollowUp(text) {
		return decided(contractx.AgentTypeOrder, "quantity follow-up on open cart"), nil
	}

	system, err := a.system(ctx, snap)
	if err != nil {
		return contractx.Turn{}, err
	}
	raw, err := a.gateway.Generate(ctx, a.params.Request(
		gatewayx.Conversation(system, statex.Window(history, window)),
	))
	if err != nil {
		return contractx.Turn{}, fmt.Errorf("classification: %w", err)
	}

	out, err := gatewayx.DecodeJSON[output](ctx, raw, a.repairer)
	if err != nil {
		log.Warn().Err(err).Msg("classification output unusable, routing to details")
		return decided(contractx.AgentTypeDetails, "unparseable classification output"), nil
	}

	switch target := contractx.AgentType(strings.ToLower(strings.TrimSpace(out.Decision))); target {
	case contractx.AgentTypeDetails, contractx.AgentTypeOrder:
		return decided(target, strings.TrimSpace(out.Rationale)), nil
	default:
		log.Warn().Str("decision", out.Decision).Msg("classification chose unknown agent, routing to details")
		return decided(contractx.AgentTypeDetails, "unknown classification decision"), nil
	}
}

func (a *Agent) system(ctx context.Context, snap statex.Snapshot) (string, error) {
	lastAgent := string(snap.LastAgent)
	if lastAgent == "" {
		lastAgent = "none"
	}
	return promptx.Render(ctx, a.template, map[string]any{
		"context": fmt.Sprintf("last_agent=%s, in_ordering_process=%t, has_cart_items=%t",
			lastAgent, snap.InOrder, snap.HasCartItems),
	})
}

func decided(target contractx.AgentType, rationale string) contractx.Turn {
	return contractx.AssistantTurn("", &contractx.ClassificationMemory{
		Agent:     contractx.AgentTypeClassification,
		Decision:  target,
		Rationale: rationale,
	})
}

// Target reads the routing decision from a classification turn.
func Target(turn contractx.Turn) contractx.AgentType {
	if mem, ok := turn.Memory.(*contractx.ClassificationMemory); ok && mem.Decision == contractx.AgentTypeOrder {
		return contractx.AgentTypeOrder
	}
	return contractx.AgentTypeDetails
}
