package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/nodes"
	statex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/state"
	metricsx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/metrics"
)

type Stages struct {
	Guard          contractx.Stage
	Classification contractx.Stage
	Details        contractx.Stage
	Order          contractx.Stage
}

// Router runs guard, classification and one downstream stage per user turn.
type Router struct {
	stages      Stages
	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(stages Stages) (*Router, error) {
	switch {
	case stages.Guard == nil:
		return nil, errors.New("guard stage is required")
	case stages.Classification == nil:
		return nil, errors.New("classification stage is required")
	case stages.Details == nil:
		return nil, errors.New("details stage is required")
	case stages.Order == nil:
		return nil, errors.New("order stage is required")
	}

	r := &Router{stages: stages}
	graphRunner, err := r.compileProcessGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner
	return r, nil
}

// Process returns the assistant turn for the last user message in history.
// The only error it returns wraps ErrInvalidHistory; stage failures become
// apology turns.
func (r *Router) Process(ctx context.Context, history []contractx.Turn) (turn contractx.Turn, err error) {
	if _, err := nodex.ValidateRequest(nodex.GraphInput{History: history}); err != nil {
		return contractx.Turn{}, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("router panicked")
			metricsx.StageFailTotal.WithLabelValues(string(contractx.AgentTypeRouter)).Inc()
			turn = nodex.Apology(contractx.AgentTypeRouter, fmt.Errorf("%w: panic: %v", contractx.ErrStage, rec), statex.Fold(history).Order)
			err = nil
		}
	}()

	out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{History: history})
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidHistory) {
			return contractx.Turn{}, err
		}
		log.Error().Err(err).Msg("router graph failed")
		metricsx.StageFailTotal.WithLabelValues(string(contractx.AgentTypeRouter)).Inc()
		return nodex.Apology(contractx.AgentTypeRouter, err, statex.Fold(history).Order), nil
	}

	if out.Failed {
		metricsx.StageFailTotal.WithLabelValues(string(out.Stage)).Inc()
	}
	metricsx.RouteTotal.WithLabelValues(string(out.Stage)).Inc()
	log.Info().Str("stage", string(out.Stage)).Bool("failed", out.Failed).Msg("reply produced")
	return out.Turn, nil
}
