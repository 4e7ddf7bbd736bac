package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/llm"
	metricsx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/metrics"
)

// ChatGateway sends role-tagged messages through an eino chat model.
// With the instruct format the conversation is flattened into a single
// prompt string before it is sent.
type ChatGateway struct {
	model  model.BaseChatModel
	format llm.PromptFormat
}

var _ contractx.Gateway = (*ChatGateway)(nil)

func New(m model.BaseChatModel, format llm.PromptFormat) (*ChatGateway, error) {
	if m == nil {
		return nil, errors.New("gateway: chat model is nil")
	}
	if format == "" {
		format = llm.PromptFormatChat
	}
	return &ChatGateway{model: m, format: format}, nil
}

func (g *ChatGateway) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("%w: no messages", contractx.ErrModelInvoke)
	}

	var input []*schema.Message
	switch g.format {
	case llm.PromptFormatInstruct:
		input = []*schema.Message{schema.UserMessage(RenderInstruct(req.Messages))}
	default:
		input = ToSchema(req.Messages)
	}

	opts := []model.Option{model.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if m := strings.TrimSpace(req.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}

	label := modelLabel(req.Model)
	start := time.Now()
	out, err := g.model.Generate(ctx, input, opts...)
	metricsx.GatewayDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		metricsx.GatewayFailTotal.WithLabelValues(label).Inc()
		log.Warn().Err(err).Str("model", label).Msg("gateway generate failed")
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil {
		metricsx.GatewayFailTotal.WithLabelValues(label).Inc()
		return "", fmt.Errorf("%w: empty response", contractx.ErrModelInvoke)
	}

	return out.Content, nil
}

func modelLabel(name string) string {
	if v := strings.TrimSpace(name); v != "" {
		return v
	}
	return "default"
}
