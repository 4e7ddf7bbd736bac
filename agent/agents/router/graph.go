package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/nodes"
)

const (
	nodeValidate     = "validate_request"
	nodeGuard        = "guard"
	nodeBlockedReply = "blocked_reply"
	nodeRoute        = "route"
	nodeDetails      = "details"
	nodeOrder        = "order"
)

func (r *Router) compileProcessGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodeValidate,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeValidate, err)
	}

	if err := graph.AddLambdaNode(nodeGuard,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Screen(ctx, in, r.stages.Guard)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeGuard, err)
	}

	if err := graph.AddLambdaNode(nodeBlockedReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeBlockedReply, err)
	}

	if err := graph.AddLambdaNode(nodeRoute,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Classify(ctx, in, r.stages.Classification)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRoute, err)
	}

	leaves := map[string]struct {
		stage     contractx.Stage
		agentType contractx.AgentType
	}{
		nodeDetails: {r.stages.Details, contractx.AgentTypeDetails},
		nodeOrder:   {r.stages.Order, contractx.AgentTypeOrder},
	}
	for name, leaf := range leaves {
		leaf := leaf
		if err := graph.AddLambdaNode(name,
			compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
				st, err := nodex.Dispatch(ctx, in, leaf.stage, leaf.agentType)
				if err != nil {
					return nodex.GraphOutput{}, err
				}
				return nodex.FinalizeReply(st)
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
	}

	guardBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Done {
				return nodeBlockedReply, nil
			}
			return nodeRoute, nil
		},
		map[string]bool{nodeBlockedReply: true, nodeRoute: true},
	)
	if err := graph.AddBranch(nodeGuard, guardBranch); err != nil {
		return nil, fmt.Errorf("add branch %s: %w", nodeGuard, err)
	}

	routeBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			switch {
			case in.Done:
				return nodeBlockedReply, nil
			case in.Target == contractx.AgentTypeOrder:
				return nodeOrder, nil
			default:
				return nodeDetails, nil
			}
		},
		map[string]bool{nodeBlockedReply: true, nodeDetails: true, nodeOrder: true},
	)
	if err := graph.AddBranch(nodeRoute, routeBranch); err != nil {
		return nil, fmt.Errorf("add branch %s: %w", nodeRoute, err)
	}

	edges := [][2]string{
		{compose.START, nodeValidate},
		{nodeValidate, nodeGuard},
		{nodeBlockedReply, compose.END},
		{nodeDetails, compose.END},
		{nodeOrder, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.process"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
