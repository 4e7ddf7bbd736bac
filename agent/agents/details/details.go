package details

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	intentx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/intent"
	knowledgex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/knowledge"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const (
	OrderRedirect = "For orders, please use our order system. Would you like to start an order now?"
	Refusal       = "This information isn't available in our records. Please visit www.plantify.com for details."
	Unavailable   = "I'm having trouble accessing that information. Please try again later."
)

var nonAnswers = []string{"i don't know", "not available", "no information", "not mentioned"}

// Agent answers store questions from the knowledge documents only.
type Agent struct {
	gateway  contractx.Gateway
	params   llm.Params
	template string
	store    *knowledgex.Store
}

var _ contractx.Stage = (*Agent)(nil)

func New(gw contractx.Gateway, params llm.Params, template string, store *knowledgex.Store) (*Agent, error) {
	if gw == nil {
		return nil, errors.New("details: gateway is nil")
	}
	if store == nil {
		return nil, errors.New("details: knowledge store is nil")
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("details: %w", contractx.ErrPromptMissing)
	}
	return &Agent{gateway: gw, params: params, template: template, store: store}, nil
}

// Respond never returns an error: failures become the unavailable reply
// with the error recorded in memory.
func (a *Agent) Respond(ctx context.Context, history []contractx.Turn) (contractx.Turn, error) {
	question, _ := statex.LastUser(history)

	if intentx.IsOrderRequest(question) {
		return contractx.AssistantTurn(OrderRedirect, &contractx.DetailsMemory{
			Agent:  contractx.AgentTypeDetails,
			Action: contractx.DetailsActionOrderRedirect,
		}), nil
	}

	topics := SelectTopics(question, a.store.Topics())
	answer, err := a.answer(ctx, question, topics)
	if err != nil {
		log.Error().Err(err).Strs("sources", topics).Msg("details answer failed")
		return contractx.AssistantTurn(Unavailable, &contractx.DetailsMemory{
			Agent: contractx.AgentTypeDetails,
			Error: err.Error(),
		}), nil
	}

	return contractx.AssistantTurn(answer, &contractx.DetailsMemory{
		Agent:         contractx.AgentTypeDetails,
		Sources:       topics,
		DocumentsUsed: len(topics),
	}), nil
}

func (a *Agent) answer(ctx context.Context, question string, topics []string) (string, error) {
	var docs strings.Builder
	for _, topic := range topics {
		doc, ok := a.store.Lookup(topic)
		if !ok {
			return "", fmt.Errorf("details: unknown topic %q", topic)
		}
		fmt.Fprintf(&docs, "===== %s =====\n%s\n\n", strings.ToUpper(strings.ReplaceAll(topic, "_", " ")), doc.Content)
	}

	system, err := promptx.Render(ctx, a.template, map[string]any{
		"refusal":   Refusal,
		"documents": strings.TrimSpace(docs.String()),
	})
	if err != nil {
		return "", err
	}

	raw, err := a.gateway.Generate(ctx, a.params.Request([]contractx.Message{
		{Role: contractx.RoleSystem, Content: system},
		{Role: contractx.RoleUser, Content: question},
	}))
	if err != nil {
		return "", err
	}
	return Scrub(raw), nil
}

// Scrub replaces empty or evasive answers with the refusal text.
func Scrub(answer string) string {
	answer = strings.TrimSpace(answer)
	lower := strings.ToLower(answer)
	if answer == "" {
		return Refusal
	}
	for _, phrase := range nonAnswers {
		if strings.Contains(lower, phrase) {
			return Refusal
		}
	}
	return answer
}
