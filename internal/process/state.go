package process

import (
	"fmt"
	"sync"

	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

// stateHolder guards a server's ServerState and publishes a
// ServerChangeState event on every transition.
type stateHolder struct {
	mu       sync.RWMutex
	state    types.ServerState
	serverID string
	bus      *events.Bus
}

func newStateHolder(serverID string, bus *events.Bus) *stateHolder {
	return &stateHolder{state: types.StateStopped, serverID: serverID, bus: bus}
}

func (h *stateHolder) get() types.ServerState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// set applies the transition unconditionally; validity is checked by
// the caller via allowedTransitions since the set of legal predecessor
// states depends on which operation is driving the change.
func (h *stateHolder) set(next types.ServerState) {
	h.mu.Lock()
	old := h.state
	h.state = next
	h.mu.Unlock()
	if old != next && h.bus != nil {
		h.bus.Publish(events.ServerChangeState{ServerID: h.serverID, Old: old, New: next})
	}
}

// allowedTransitions enumerates the legal predecessor states for each
// target state. A transition not listed here is a programming error,
// not a runtime race — callers hold the process's operation lock while
// evaluating this.
var allowedTransitions = map[types.ServerState][]types.ServerState{
	types.StateStarting: {types.StateStopped, types.StateBuild},
	types.StateStarted:  {types.StateStarting},
	types.StateRunning:  {types.StateStarted},
	types.StateStopping: {types.StateStarting, types.StateStarted, types.StateRunning},
	types.StateStopped:  {types.StateStopping, types.StateStarting, types.StateStarted, types.StateRunning, types.StateUnknown, types.StateBuild},
	types.StateBuild:    {types.StateStopped},
	types.StateUnknown:  {types.StateStopped, types.StateStopping, types.StateStarting, types.StateStarted, types.StateRunning},
}

// checkTransition returns an error if moving from current to next isn't
// a legal state-machine edge.
func checkTransition(current, next types.ServerState) error {
	for _, allowed := range allowedTransitions[next] {
		if allowed == current {
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", current, next)
}
