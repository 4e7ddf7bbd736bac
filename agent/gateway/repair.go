package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/prompt"
)

// PromptRepairer asks the model, through the gateway, to fix a malformed JSON answer.
type PromptRepairer struct {
	gateway  contractx.Gateway
	template string
	params   llm.Params
}

var _ contractx.Repairer = (*PromptRepairer)(nil)

func NewPromptRepairer(gw contractx.Gateway, template string, params llm.Params) *PromptRepairer {
	return &PromptRepairer{gateway: gw, template: template, params: params}
}

func (r *PromptRepairer) Repair(ctx context.Context, candidate string) (string, error) {
	if r == nil || r.gateway == nil {
		return "", errors.New("repair: gateway is nil")
	}
	text, err := promptx.Render(ctx, r.template, map[string]any{"candidate": candidate})
	if err != nil {
		return "", err
	}
	return r.gateway.Generate(ctx, r.params.Request([]contractx.Message{
		{Role: contractx.RoleUser, Content: text},
	}))
}

// JSONModeRepairer calls the chat completions endpoint directly with the
// json_object response format so the provider enforces syntactic JSON.
type JSONModeRepairer struct {
	client   *openaisdk.Client
	model    string
	template string
}

var _ contractx.Repairer = (*JSONModeRepairer)(nil)

func NewJSONModeRepairer(client *openaisdk.Client, model, template string) (*JSONModeRepairer, error) {
	if client == nil {
		return nil, errors.New("repair: openai client is nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: repair model is required", contractx.ErrValidation)
	}
	return &JSONModeRepairer{client: client, model: strings.TrimSpace(model), template: template}, nil
}

func (r *JSONModeRepairer) Repair(ctx context.Context, candidate string) (string, error) {
	text, err := promptx.Render(ctx, r.template, map[string]any{"candidate": candidate})
	if err != nil {
		return "", err
	}

	resp, err := r.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(0),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: json mode repair: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: json mode repair returned no choices", contractx.ErrModelInvoke)
	}
	return resp.Choices[0].Message.Content, nil
}
