package state

import (
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

// Snapshot is the conversation state derived from the turn history.
type Snapshot struct {
	LastAgent    contractx.AgentType
	LastAction   contractx.OrderAction
	InOrder      bool
	HasCartItems bool
	Order        OrderState
}

// Fold rebuilds the state with a single pass over history. Later order
// memories replace earlier ones; turns without memory are skipped.
func Fold(history []contractx.Turn) Snapshot {
	var snap Snapshot
	for _, turn := range history {
		if turn.Role != contractx.RoleAssistant || turn.Memory == nil {
			continue
		}
		snap.LastAgent = turn.Memory.AgentName()
		snap.LastAction = ""

		if m, ok := turn.Memory.(*contractx.OrderMemory); ok {
			snap.Order = FromMemory(m)
			snap.LastAction = m.Action
		}
	}

	snap.HasCartItems = !snap.Order.Empty()
	snap.InOrder = snap.HasCartItems ||
		(snap.LastAgent == contractx.AgentTypeOrder && snap.LastAction != contractx.OrderActionCheckout)
	return snap
}

// LastUser returns the content of the final turn if it is a user turn.
func LastUser(history []contractx.Turn) (string, bool) {
	if len(history) == 0 {
		return "", false
	}
	last := history[len(history)-1]
	if last.Role != contractx.RoleUser {
		return "", false
	}
	return last.Content, true
}

// Window returns at most the last n turns.
func Window(history []contractx.Turn, n int) []contractx.Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
