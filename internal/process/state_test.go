package process

import (
	"testing"

	"github.com/dncore/swi/internal/events"
	"github.com/dncore/swi/pkg/types"
)

func TestStateHolderTransitionsPublishEvent(t *testing.T) {
	bus := events.New()
	var got []types.ServerState
	events.Subscribe(bus, events.PriorityNormal, func(e events.ServerChangeState) {
		got = append(got, e.New)
	})

	h := newStateHolder("srv1", bus)
	h.set(types.StateStarting)
	h.set(types.StateStarted)

	want := []types.ServerState{types.StateStarting, types.StateStarted}
	if len(got) != len(want) {
		t.Fatalf("got %v transitions, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCheckTransitionRejectsIllegalEdge(t *testing.T) {
	if err := checkTransition(types.StateStopped, types.StateRunning); err == nil {
		t.Error("expected error going directly from STOPPED to RUNNING")
	}
	if err := checkTransition(types.StateStopped, types.StateStarting); err != nil {
		t.Errorf("expected STOPPED -> STARTING to be legal, got %v", err)
	}
}
