package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/classification"
	"github.com/tanpawarit/Plantify-Shopping-Assistant/agent/agents/guard"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

// Screen runs the guard. A refusal or a guard failure finishes the turn.
func Screen(ctx context.Context, in *GraphState, stage contractx.Stage) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turn, err := stage.Respond(ctx, in.History)
	if err != nil {
		in.fail(contractx.AgentTypeGuard, err)
		return in, nil
	}
	in.Guard = turn
	if guard.Blocked(turn) {
		in.finish(contractx.AgentTypeGuard, turn)
	}
	return in, nil
}

// Classify picks the downstream stage.
func Classify(ctx context.Context, in *GraphState, stage contractx.Stage) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turn, err := stage.Respond(ctx, in.History)
	if err != nil {
		in.fail(contractx.AgentTypeClassification, err)
		return in, nil
	}
	in.Target = classification.Target(turn)
	return in, nil
}

// Dispatch runs the selected stage and records its reply.
func Dispatch(ctx context.Context, in *GraphState, stage contractx.Stage, agentType contractx.AgentType) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turn, err := stage.Respond(ctx, in.History)
	if err != nil {
		in.fail(agentType, err)
		return in, nil
	}
	in.finish(agentType, turn)
	return in, nil
}

func (s *GraphState) finish(stage contractx.AgentType, turn contractx.Turn) {
	s.Reply = turn
	s.Stage = stage
	s.Done = true
}

func (s *GraphState) fail(stage contractx.AgentType, err error) {
	log.Error().Err(err).Str("stage", string(stage)).Msg("stage failed, replying with apology")
	s.finish(stage, Apology(stage, err, s.Snapshot.Order))
	s.Failed = true
}
