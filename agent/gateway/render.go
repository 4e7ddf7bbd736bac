package gateway

import (
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

// ToSchema maps conversation messages onto eino chat messages.
func ToSchema(messages []contractx.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}

// RenderInstruct flattens messages into the Mistral instruct layout.
// System messages are folded into the next user instruction.
func RenderInstruct(messages []contractx.Message) string {
	var (
		b      strings.Builder
		system strings.Builder
	)
	for _, m := range messages {
		switch m.Role {
		case contractx.RoleSystem:
			system.WriteString("<<SYS>>\n")
			system.WriteString(m.Content)
			system.WriteString("\n<</SYS>>\n\n")
		case contractx.RoleAssistant:
			b.WriteString(" ")
			b.WriteString(m.Content)
			b.WriteString(" </s>")
		default:
			b.WriteString("<s>[INST] ")
			b.WriteString(system.String())
			b.WriteString(m.Content)
			b.WriteString(" [/INST]")
			system.Reset()
		}
	}
	if system.Len() > 0 {
		b.WriteString("<s>[INST] ")
		b.WriteString(strings.TrimRight(system.String(), "\n"))
		b.WriteString(" [/INST]")
	}
	return b.String()
}

// Conversation prefixes turns with a system message. Turns keep their
// role; memory is not sent to the model.
func Conversation(system string, turns []contractx.Turn) []contractx.Message {
	out := make([]contractx.Message, 0, len(turns)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, contractx.Message{Role: contractx.RoleSystem, Content: system})
	}
	for _, t := range turns {
		if t.Role == contractx.RoleSystem {
			continue
		}
		out = append(out, contractx.Message{Role: t.Role, Content: t.Content})
	}
	return out
}
