package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

const ApologyText = "Sorry, something went wrong on our side. Please try again in a moment."

// Apology builds the reply for a failed stage. Order failures keep the
// last known cart so the next fold does not lose it.
func Apology(stage contractx.AgentType, err error, order statex.OrderState) contractx.Turn {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	switch stage {
	case contractx.AgentTypeOrder:
		mem := order.Memory(contractx.OrderActionError)
		mem.Error = msg
		return contractx.AssistantTurn(ApologyText, mem)
	case contractx.AgentTypeDetails:
		return contractx.AssistantTurn(ApologyText, &contractx.DetailsMemory{Agent: stage, Error: msg})
	default:
		return contractx.AssistantTurn(ApologyText, &contractx.ErrorMemory{Agent: stage, Error: msg})
	}
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Done {
		return GraphOutput{}, fmt.Errorf("%w: no stage produced a reply", contractx.ErrStage)
	}

	if strings.TrimSpace(in.Reply.Content) == "" {
		in.fail(in.Stage, fmt.Errorf("%w: %s returned an empty reply", contractx.ErrStage, in.Stage))
	}
	return GraphOutput{Turn: in.Reply, Stage: in.Stage, Failed: in.Failed}, nil
}
