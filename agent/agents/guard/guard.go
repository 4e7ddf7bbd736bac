package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	gatewayx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/gateway"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const Refusal = "Sorry, I can't help you with that. Can I help you with something else?"

type Config struct {
	Window   int  `envconfig:"WINDOW" split_words:"true" default:"3"`
	FailOpen bool `envconfig:"FAIL_OPEN" split_words:"true" default:"false"`
}

func (c Config) Validate() error {
	if c.Window < 3 || c.Window > 5 {
		return fmt.Errorf("%w: guard window must be between 3 and 5, got %d", contractx.ErrValidation, c.Window)
	}
	return nil
}

type output struct {
	Rationale string `json:"rationale"`
	Decision  string `json:"decision"`
	Message   string `json:"message"`
}

// Agent screens the latest user message against the store's topic policy.
type Agent struct {
	gateway  contractx.Gateway
	repairer contractx.Repairer
	params   llm.Params
	system   string
	cfg      Config
}

var _ contractx.Stage = (*Agent)(nil)

func New(ctx context.Context, gw contractx.Gateway, repairer contractx.Repairer, params llm.Params, template string, cfg Config) (*Agent, error) {
	if gw == nil {
		return nil, errors.New("guard: gateway is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	system, err := promptx.Render(ctx, template, map[string]any{"refusal": Refusal})
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}
	return &Agent{gateway: gw, repairer: repairer, params: params, system: system, cfg: cfg}, nil
}

// Respond returns a turn whose memory carries the guard decision. Content is
// empty when the message is allowed and the refusal otherwise.
func (a *Agent) Respond(ctx context.Context, history []contractx.Turn) (contractx.Turn, error) {
	raw, err := a.gateway.Generate(ctx, a.params.Request(
		gatewayx.Conversation(a.system, statex.Window(history, a.cfg.Window)),
	))
	if err != nil {
		return contractx.Turn{}, fmt.Errorf("guard: %w", err)
	}

	out, err := gatewayx.DecodeJSON[output](ctx, raw, a.repairer)
	var decision contractx.GuardDecision
	if err == nil {
		decision, err = normalizeDecision(out.Decision)
	}
	if err != nil {
		log.Warn().Err(err).Bool("fail_open", a.cfg.FailOpen).Msg("guard output unusable, using default decision")
		decision = contractx.GuardNotAllowed
		if a.cfg.FailOpen {
			decision = contractx.GuardAllowed
		}
		out = output{Rationale: "unparseable guard output"}
	}

	mem := &contractx.GuardMemory{
		Agent:     contractx.AgentTypeGuard,
		Decision:  decision,
		Rationale: strings.TrimSpace(out.Rationale),
	}
	if decision == contractx.GuardAllowed {
		return contractx.AssistantTurn("", mem), nil
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		message = Refusal
	}
	return contractx.AssistantTurn(message, mem), nil
}

func normalizeDecision(raw string) (contractx.GuardDecision, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.NewReplacer(" ", "_", "-", "_").Replace(d)
	switch contractx.GuardDecision(d) {
	case contractx.GuardAllowed:
		return contractx.GuardAllowed, nil
	case contractx.GuardNotAllowed:
		return contractx.GuardNotAllowed, nil
	default:
		return "", fmt.Errorf("%w: unsupported guard decision=%q", contractx.ErrSchemaViolation, raw)
	}
}

// Blocked reports whether a guard turn refused the message.
func Blocked(turn contractx.Turn) bool {
	mem, ok := turn.Memory.(*contractx.GuardMemory)
	return !ok || mem.Decision != contractx.GuardAllowed
}
