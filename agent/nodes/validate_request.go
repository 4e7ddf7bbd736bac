package routernode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
)

type GraphInput struct {
	History []contractx.Turn
}

type GraphOutput struct {
	Turn   contractx.Turn
	Stage  contractx.AgentType
	Failed bool
}

type GraphState struct {
	History  []contractx.Turn
	Text     string
	Snapshot statex.Snapshot

	Guard  contractx.Turn
	Target contractx.AgentType

	// Reply is set once a node has produced the final turn.
	Reply  contractx.Turn
	Stage  contractx.AgentType
	Done   bool
	Failed bool
}

func ValidateRequest(in GraphInput) (*GraphState, error) {
	if len(in.History) == 0 {
		return nil, fmt.Errorf("%w: history is empty", contractx.ErrInvalidHistory)
	}
	text, ok := statex.LastUser(in.History)
	if !ok {
		return nil, fmt.Errorf("%w: last turn must be a user turn", contractx.ErrInvalidHistory)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: user message is empty", contractx.ErrInvalidHistory)
	}

	return &GraphState{
		History:  in.History,
		Text:     strings.TrimSpace(text),
		Snapshot: statex.Fold(in.History),
	}, nil
}
