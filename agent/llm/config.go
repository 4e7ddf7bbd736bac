package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	openrouterx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/openrouter"
)

type PromptFormat string

const (
	PromptFormatChat     PromptFormat = "chat"
	PromptFormatInstruct PromptFormat = "instruct"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"512"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.9"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	PromptFormat       PromptFormat  `envconfig:"PROMPT_FORMAT" split_words:"true" default:"chat"`
	RateLimit          float64       `envconfig:"RATE_LIMIT" split_words:"true" default:"0"`
	RateBurst          int           `envconfig:"RATE_BURST" split_words:"true" default:"4"`
	RepairJSONMode     bool          `envconfig:"REPAIR_JSON_MODE" split_words:"true" default:"false"`

	GuardModel          string  `envconfig:"GUARD_MODEL" split_words:"true"`
	ClassificationModel string  `envconfig:"CLASSIFICATION_MODEL" split_words:"true"`
	DetailsModel        string  `envconfig:"DETAILS_MODEL" split_words:"true"`
	OrderModel          string  `envconfig:"ORDER_MODEL" split_words:"true"`
	RecommendationModel string  `envconfig:"RECOMMENDATION_MODEL" split_words:"true"`
	GuardTemperature    float32 `envconfig:"GUARD_TEMPERATURE" split_words:"true" default:"0"`
	ClassTemperature    float32 `envconfig:"CLASSIFICATION_TEMPERATURE" split_words:"true" default:"0.2"`
	DetailsTemperature  float32 `envconfig:"DETAILS_TEMPERATURE" split_words:"true" default:"0.1"`
	OrderTemperature    float32 `envconfig:"ORDER_TEMPERATURE" split_words:"true" default:"-1"`
	RecoTemperature     float32 `envconfig:"RECOMMENDATION_TEMPERATURE" split_words:"true" default:"-1"`
	DetailsMaxTokens    int     `envconfig:"DETAILS_MAX_TOKENS" split_words:"true" default:"300"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch c.PromptFormat {
	case PromptFormatChat, PromptFormatInstruct:
	default:
		return fmt.Errorf("%w: unsupported prompt format=%q", contractx.ErrValidation, c.PromptFormat)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must be >= 0", contractx.ErrValidation)
	}
	return nil
}

// Params are the per-call sampling settings a stage passes to the gateway.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

func (p Params) Request(messages []contractx.Message) contractx.GenerateRequest {
	return contractx.GenerateRequest{
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Model:       p.Model,
	}
}

func (c Config) ParamsFor(agentType contractx.AgentType) Params {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature
	maxTokens := c.MaxCompletionToken

	override := func(model string, t float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	switch agentType {
	case contractx.AgentTypeGuard:
		override(c.GuardModel, c.GuardTemperature)
	case contractx.AgentTypeClassification:
		override(c.ClassificationModel, c.ClassTemperature)
	case contractx.AgentTypeDetails:
		override(c.DetailsModel, c.DetailsTemperature)
		if c.DetailsMaxTokens > 0 {
			maxTokens = c.DetailsMaxTokens
		}
	case contractx.AgentTypeOrder:
		override(c.OrderModel, c.OrderTemperature)
	case contractx.AgentTypeRecommendation:
		override(c.RecommendationModel, c.RecoTemperature)
	case contractx.AgentTypeRepair:
		temp = 0
	}

	return Params{Model: modelName, Temperature: temp, MaxTokens: maxTokens}
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
