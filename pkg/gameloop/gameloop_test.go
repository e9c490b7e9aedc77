package gameloop

import (
	"math/rand"
	"os"
	"testing"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/zone"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

func newTestState() *enginestate.State {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	deckKey := zone.Key(0, "deck", false)
	handKey := zone.Key(0, "hand", false)
	deck := zone.New(deckKey, zone.Config{ID: "deck", MaxCards: -1, DefaultVisibility: card.VisibilityHidden}, 0)
	for i := 0; i < 3; i++ {
		deck.PushTop(card.New("tmpl-a", card.VisibilityHidden))
	}
	hand := zone.New(handKey, zone.Config{ID: "hand", MaxCards: -1, DefaultVisibility: card.VisibilityPlayerAOnly}, 0)
	s.Zones[deckKey] = deck
	s.Zones[handKey] = hand
	return s
}

func newTestLoop(state *enginestate.State, plugins *plugin.Manager) *Loop {
	exec := executor.New(executor.Config{RNG: rand.New(rand.NewSource(1))})
	return New(Config{State: state, Executor: exec, Plugins: plugins, Log: testLogger()})
}

func TestSubmitSyncExecutesAndEmitsEvents(t *testing.T) {
	state := newTestState()
	loop := newTestLoop(state, nil)
	var events []EventType
	loop.Subscribe(func(e Event) { events = append(events, e.Type) })

	a := action.NewDraw(0, zone.Key(0, "deck", false), zone.Key(0, "hand", false), 1, action.SourceUI)
	if err := loop.SubmitSync(a); err != nil {
		t.Fatal(err)
	}
	want := []EventType{EventActionQueued, EventActionExecuting, EventActionExecuted}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestPostHookFollowUpsDrainBeforeReturn(t *testing.T) {
	state := newTestState()
	m := plugin.NewManager(testLogger())
	if err := m.Register(&plugin.Plugin{
		ID: "echo",
		PostHooks: map[action.Type][]plugin.PriorityEntry[plugin.PostHookFunc]{
			action.EndTurn: {{Priority: plugin.DefaultPriority, Fn: func(state *enginestate.State, prev *enginestate.State, a *action.Action) []*action.Action {
				return []*action.Action{action.NewShuffle(0, zone.Key(0, "deck", false), action.SourceUI)}
			}}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	loop := newTestLoop(state, m)
	var events []EventType
	loop.Subscribe(func(e Event) { events = append(events, e.Type) })

	if err := loop.SubmitSync(action.NewEndTurn(0, action.SourceUI)); err != nil {
		t.Fatal(err)
	}
	executedCount := 0
	for _, e := range events {
		if e == EventActionExecuted {
			executedCount++
		}
	}
	if executedCount != 2 {
		t.Fatalf("expected end_turn and its follow-up shuffle both executed, got %d executed events in %v", executedCount, events)
	}
}

func TestBlockerPreventsExecution(t *testing.T) {
	state := newTestState()
	m := plugin.NewManager(testLogger())
	if err := m.Register(&plugin.Plugin{
		ID: "no-shuffles",
		Blockers: []plugin.PriorityEntry[plugin.BlockerFunc]{
			{Priority: plugin.DefaultPriority, Fn: func(state *enginestate.State, a *action.Action) string {
				if a.Type == action.Shuffle {
					return "shuffling is disabled in this test"
				}
				return ""
			}},
		},
	}); err != nil {
		t.Fatal(err)
	}
	loop := newTestLoop(state, m)
	var events []EventType
	loop.Subscribe(func(e Event) { events = append(events, e.Type) })

	before := len(state.Zones[zone.Key(0, "deck", false)].Cards)
	if err := loop.SubmitSync(action.NewShuffle(0, zone.Key(0, "deck", false), action.SourceUI)); err != nil {
		t.Fatal(err)
	}
	after := len(state.Zones[zone.Key(0, "deck", false)].Cards)
	if before != after {
		t.Fatal("expected blocked shuffle not to alter zone")
	}
	found := false
	for _, e := range events {
		if e == EventActionBlocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected action:blocked event, got %v", events)
	}
}

func TestObserverCascadeDrains(t *testing.T) {
	state := newTestState()
	m := plugin.NewManager(testLogger())
	rounds := 0
	if err := m.Register(&plugin.Plugin{
		ID: "flip-once",
		Observers: []plugin.PriorityEntry[plugin.ObserverFunc]{
			{Priority: plugin.DefaultPriority, Fn: func(newState, prevState *enginestate.State, lastAction *action.Action) []*action.Action {
				if rounds > 0 {
					return nil
				}
				rounds++
				return []*action.Action{action.NewCoinFlip(0, action.SourceUI)}
			}},
		},
	}); err != nil {
		t.Fatal(err)
	}
	loop := newTestLoop(state, m)
	var autoQueued int
	loop.Subscribe(func(e Event) {
		if e.Type == EventAutoActionQueued {
			autoQueued++
		}
	})
	if err := loop.SubmitSync(action.NewDraw(0, zone.Key(0, "deck", false), zone.Key(0, "hand", false), 1, action.SourceUI)); err != nil {
		t.Fatal(err)
	}
	if autoQueued != 1 {
		t.Fatalf("expected exactly one observer-produced auto-action, got %d", autoQueued)
	}
}

func TestObserverCascadeCapRaisesInvariantViolation(t *testing.T) {
	state := newTestState()
	m := plugin.NewManager(testLogger())
	if err := m.Register(&plugin.Plugin{
		ID: "infinite",
		Observers: []plugin.PriorityEntry[plugin.ObserverFunc]{
			{Priority: plugin.DefaultPriority, Fn: func(newState, prevState *enginestate.State, lastAction *action.Action) []*action.Action {
				return []*action.Action{action.NewCoinFlip(0, action.SourceUI)}
			}},
		},
	}); err != nil {
		t.Fatal(err)
	}
	exec := executor.New(executor.Config{RNG: rand.New(rand.NewSource(1))})
	loop := New(Config{State: state, Executor: exec, Plugins: m, Log: testLogger(), CascadeCap: 3})
	err := loop.SubmitSync(action.NewCoinFlip(0, action.SourceUI))
	if err == nil {
		t.Fatal("expected cascade cap to raise an error")
	}
	if _, ok := err.(*enginestate.InvariantViolation); !ok {
		t.Fatalf("expected *enginestate.InvariantViolation, got %T: %v", err, err)
	}
}
