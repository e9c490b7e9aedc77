package tool

import (
	"math/rand"
	"os"
	"testing"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/zone"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	deckKey := zone.Key(0, "deck", false)
	handKey := zone.Key(0, "hand", false)
	deck := zone.New(deckKey, zone.Config{ID: "deck", MaxCards: -1, DefaultVisibility: card.VisibilityHidden}, 0)
	deck.PushTop(card.New("tmpl-a", card.VisibilityHidden))
	hand := zone.New(handKey, zone.Config{ID: "hand", MaxCards: 1, DefaultVisibility: card.VisibilityPlayerAOnly}, 0)
	s.Zones[deckKey] = deck
	s.Zones[handKey] = hand

	exec := executor.New(executor.Config{RNG: rand.New(rand.NewSource(1))})
	loop := gameloop.New(gameloop.Config{State: s, Executor: exec, Log: testLogger()})
	return &Context{
		State:  s,
		Loop:   loop,
		Player: 0,
		Lookup: func(id string) (string, bool) { return id, true },
	}
}

func newWrapper(registry *Registry, terminal ...string) (*Wrapper, *StepState, *bool, *RewindSignal) {
	step := &StepState{}
	abort := false
	rewind := &RewindSignal{}
	terminalTools := make(map[string]bool, len(terminal))
	for _, name := range terminal {
		terminalTools[name] = true
	}
	w := &Wrapper{
		Registry:      registry,
		TerminalTools: terminalTools,
		Abort:         &abort,
		Step:          step,
		Rewind:        rewind,
	}
	return w, step, &abort, rewind
}

func TestDrawSucceedsAndReportsResult(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRegistry()
	w, step, _, _ := newWrapper(r)

	result := w.Call(ctx, "draw", map[string]any{"fromZone": zone.Key(0, "deck", false), "toZone": zone.Key(0, "hand", false), "count": 1})
	if step.Blocked {
		t.Fatalf("expected draw to succeed, got blocked: %s", result)
	}
	hand := ctx.State.Zones[zone.Key(0, "hand", false)]
	if len(hand.Cards) != 1 {
		t.Fatalf("expected 1 card drawn, got %d", len(hand.Cards))
	}
}

func TestCapacityBlockSetsStepBlocked(t *testing.T) {
	ctx := newTestContext(t)
	hand := ctx.State.Zones[zone.Key(0, "hand", false)]
	hand.PushTop(card.New("tmpl-a", card.VisibilityPlayerAOnly)) // fills maxCards=1

	r := NewRegistry()
	w, step, _, _ := newWrapper(r)
	result := w.Call(ctx, "draw", map[string]any{"fromZone": zone.Key(0, "deck", false), "toZone": zone.Key(0, "hand", false), "count": 1})
	if !step.Blocked {
		t.Fatalf("expected draw into a full zone to block, got %q", result)
	}
}

func TestBlockedStepShortCircuitsSubsequentCalls(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRegistry()
	w, step, _, _ := newWrapper(r)
	step.Blocked = true
	step.BlockedReason = "earlier failure"

	result := w.Call(ctx, "end_turn", map[string]any{})
	if result != "Cancelled: a prior action in this parallel batch was blocked (earlier failure)." {
		t.Fatalf("unexpected short-circuit result: %q", result)
	}
}

func TestTerminalToolSignalsAbortOnSuccess(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRegistry()
	w, _, abort, _ := newWrapper(r, "end_turn")

	w.Call(ctx, "end_turn", map[string]any{})
	if !*abort {
		t.Fatal("expected terminal tool success to set abort")
	}
}

func TestRewindSetsSignalAndBlocksWithoutRestoring(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRegistry()
	restored := false
	w, step, _, rewind := newWrapper(r)
	w.RestoreCheckpoint = func() { restored = true }

	result := w.Call(ctx, "rewind", map[string]any{"reason": "bad line", "guidance": "try the other zone"})
	if !rewind.Triggered || rewind.Reason != "bad line" || rewind.Guidance != "try the other zone" {
		t.Fatalf("expected rewind signal populated, got %+v", rewind)
	}
	if !step.Blocked {
		t.Fatal("expected rewind to block the rest of the batch")
	}
	if restored {
		t.Fatal("expected the wrapper to leave checkpoint restore to the agent runner")
	}
	if result != "Rewinding: bad line" {
		t.Fatalf("unexpected rewind result: %q", result)
	}
}

func TestForModeFiltersByPhase(t *testing.T) {
	r := NewRegistry()
	decisionTools := r.ForMode(ModeDecision)
	found := false
	for _, t := range decisionTools {
		if t.Name == "move_card" {
			found = true
		}
	}
	if found {
		t.Fatal("expected move_card not to be offered during the decision phase")
	}
	var hasResolve bool
	for _, t := range decisionTools {
		if t.Name == "resolve_decision" {
			hasResolve = true
		}
	}
	if !hasResolve {
		t.Fatal("expected resolve_decision to be offered during the decision phase")
	}
}
