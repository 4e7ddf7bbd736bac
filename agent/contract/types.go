package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

type AgentType string

const (
	AgentTypeGuard          AgentType = "guard_agent"
	AgentTypeClassification AgentType = "classification_agent"
	AgentTypeDetails        AgentType = "details_agent"
	AgentTypeOrder          AgentType = "order_taking_agent"
	AgentTypeRecommendation AgentType = "recommendation_agent"
	AgentTypeRepair         AgentType = "json_repair"
	AgentTypeRouter         AgentType = "router"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Memory is only ever set on
// assistant turns and belongs to the stage that wrote it.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Memory  Memory `json:"memory,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string, memory Memory) Turn {
	return Turn{Role: RoleAssistant, Content: content, Memory: memory}
}

// Memory is the per-stage record attached to an assistant turn.
type Memory interface {
	AgentName() AgentType
}

type GuardDecision string

const (
	GuardAllowed    GuardDecision = "allowed"
	GuardNotAllowed GuardDecision = "not_allowed"
)

type GuardMemory struct {
	Agent     AgentType     `json:"agent"`
	Decision  GuardDecision `json:"decision"`
	Rationale string        `json:"rationale"`
}

func (m *GuardMemory) AgentName() AgentType { return AgentTypeGuard }

type ClassificationMemory struct {
	Agent     AgentType `json:"agent"`
	Decision  AgentType `json:"decision"`
	Rationale string    `json:"rationale"`
}

func (m *ClassificationMemory) AgentName() AgentType { return AgentTypeClassification }

const DetailsActionOrderRedirect = "order_redirect"

type DetailsMemory struct {
	Agent         AgentType `json:"agent"`
	Action        string    `json:"action,omitempty"`
	Sources       []string  `json:"sources,omitempty"`
	DocumentsUsed int       `json:"documents_used"`
	Error         string    `json:"error,omitempty"`
}

func (m *DetailsMemory) AgentName() AgentType { return AgentTypeDetails }

type OrderAction string

const (
	OrderActionAddItems      OrderAction = "add_items"
	OrderActionRemoveItems   OrderAction = "remove_items"
	OrderActionApplyDiscount OrderAction = "apply_discount"
	OrderActionInquireCart   OrderAction = "inquire_cart"
	OrderActionCheckout      OrderAction = "checkout"
	OrderActionChat          OrderAction = "chat"
	OrderActionError         OrderAction = "error"
)

type OrderMemory struct {
	Agent               AgentType   `json:"agent"`
	Action              OrderAction `json:"action"`
	Cart                []CartLine  `json:"cart"`
	DiscountCodes       []string    `json:"discount_codes"`
	Totals              *Totals     `json:"totals,omitempty"`
	RecommendationShown bool        `json:"recommendation_shown"`
	NotFound            []string    `json:"not_found,omitempty"`
	Error               string      `json:"error,omitempty"`
}

func (m *OrderMemory) AgentName() AgentType { return AgentTypeOrder }

// ErrorMemory tags an apology turn with the stage that failed.
type ErrorMemory struct {
	Agent AgentType `json:"agent"`
	Error string    `json:"error"`
}

func (m *ErrorMemory) AgentName() AgentType { return m.Agent }

// MaxQuantity bounds the quantity of a single cart line.
const MaxQuantity = 999

type CartLine struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Unit      string  `json:"unit,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Shipping       float64 `json:"shipping"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

// Message is a role-tagged entry of a gateway request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	Model       string
}

// UnmarshalJSON decodes the memory blob into the variant named by its agent field.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role            `json:"role"`
		Content string          `json:"content"`
		Memory  json.RawMessage `json:"memory,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Role = raw.Role
	t.Content = raw.Content
	t.Memory = nil

	mem, err := DecodeMemory(raw.Memory)
	if err != nil {
		return err
	}
	t.Memory = mem
	return nil
}

func DecodeMemory(data json.RawMessage) (Memory, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var tag struct {
		Agent AgentType `json:"agent"`
		Error string    `json:"error"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("%w: decode memory tag: %v", ErrValidation, err)
	}

	if tag.Error != "" && (tag.Agent == AgentTypeGuard || tag.Agent == AgentTypeClassification) {
		return &ErrorMemory{Agent: tag.Agent, Error: tag.Error}, nil
	}

	var mem Memory
	switch tag.Agent {
	case AgentTypeGuard:
		mem = &GuardMemory{}
	case AgentTypeClassification:
		mem = &ClassificationMemory{}
	case AgentTypeDetails:
		mem = &DetailsMemory{}
	case AgentTypeOrder:
		mem = &OrderMemory{}
	default:
		return &ErrorMemory{Agent: tag.Agent, Error: tag.Error}, nil
	}

	if err := json.Unmarshal(data, mem); err != nil {
		return nil, fmt.Errorf("%w: decode %s memory: %v", ErrValidation, tag.Agent, err)
	}
	return mem, nil
}
