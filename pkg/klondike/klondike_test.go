package klondike

import (
	"math/rand"
	"os"
	"testing"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/gametype"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/zone"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

func TestGameTypeBuildsWithoutError(t *testing.T) {
	gt, err := GameType()
	if err != nil {
		t.Fatal(err)
	}
	if len(gt.Templates) != 52 {
		t.Fatalf("expected 52 templates, got %d", len(gt.Templates))
	}
	if len(gt.Playmat.Zones) != 13 { // deck, waste, 4 foundations, 7 tableaus
		t.Fatalf("expected 13 zones, got %d", len(gt.Playmat.Zones))
	}
}

func TestDealFansOutTriangularTableau(t *testing.T) {
	gt, err := GameType()
	if err != nil {
		t.Fatal(err)
	}
	state, err := gametype.NewGame(gt, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	k := New(Templates(), rand.New(rand.NewSource(7)))
	if err := k.OnGameStart(state); err != nil {
		t.Fatal(err)
	}

	total := 0
	for n := 1; n <= 7; n++ {
		z, err := state.Zone(zoneKey(tableauZoneID(n)))
		if err != nil {
			t.Fatal(err)
		}
		if len(z.Cards) != n {
			t.Fatalf("tableau%d has %d cards, want %d", n, len(z.Cards), n)
		}
		for i, c := range z.Cards {
			wantVisible := i == len(z.Cards)-1
			if c.VisibleTo(0) != wantVisible {
				t.Fatalf("tableau%d card %d visible=%v, want %v", n, i, c.VisibleTo(0), wantVisible)
			}
		}
		total += n
	}
	if total != 28 {
		t.Fatalf("dealt %d cards, want 28", total)
	}
	stock, err := state.Zone(zoneKey("deck"))
	if err != nil {
		t.Fatal(err)
	}
	if len(stock.Cards) != 52-28 {
		t.Fatalf("stock has %d cards, want %d", len(stock.Cards), 52-28)
	}
}

// buildSingleTableauState sets up a minimal fixture: one tableau zone
// holding 6 cards (5 hidden, the top one face up) and one empty
// foundation, wired through the full plugin/executor/game-loop chain.
func buildSingleTableauState(t *testing.T) (*enginestate.State, *gameloop.Loop, string) {
	t.Helper()
	gt, err := GameType()
	if err != nil {
		t.Fatal(err)
	}

	cfg := enginestate.Config{GameType: ID, PlayerCount: 1, Zones: gt.Playmat.Zones}
	state := enginestate.New(cfg)

	tKey := zoneKey(tableauZoneID(1))
	tableau := zone.New(tKey, gt.Playmat.Zones["tableau1"], 0)
	// Five face-down filler cards, then an exposed ace of spades on top.
	for i := 0; i < 5; i++ {
		tableau.PushTop(card.New(templateID("clubs", 2+i), card.VisibilityHidden))
	}
	ace := card.New(templateID("spades", 1), card.VisibilityPublic)
	tableau.PushTop(ace)
	state.Zones[tKey] = tableau

	fKey := zoneKey(foundationZoneID("spades"))
	state.Zones[fKey] = zone.New(fKey, gt.Playmat.Zones["foundation_spades"], 0)

	m := plugin.NewManager(testLogger())
	if err := m.Register(New(Templates(), rand.New(rand.NewSource(1)))); err != nil {
		t.Fatal(err)
	}
	exec := executor.New(executor.Config{RNG: rand.New(rand.NewSource(1)), Plugins: m, Log: testLogger()})
	loop := gameloop.New(gameloop.Config{State: state, Executor: exec, Plugins: m, Log: testLogger()})
	return state, loop, ace.InstanceID
}

// Exercises spec §8 scenario 3: a tableau of 6 hidden-under-one-face-up
// cards, moving the exposed top card away, and the observer flipping
// the newly exposed card face up after the queue drains.
func TestTableauAutoFlipsAfterExposedCardMoves(t *testing.T) {
	state, loop, aceID := buildSingleTableauState(t)
	tKey := zoneKey(tableauZoneID(1))
	fKey := zoneKey(foundationZoneID("spades"))

	outcome, err := loop.SubmitSyncResult(action.NewMoveCard(0, aceID, tKey, fKey, action.SourceUI, false))
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Executed {
		t.Fatalf("expected the move to execute, got %+v", outcome)
	}

	tableau, err := state.Zone(tKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(tableau.Cards) != 5 {
		t.Fatalf("tableau has %d cards, want 5", len(tableau.Cards))
	}
	faceUp := 0
	for _, c := range tableau.Cards {
		if c.VisibleTo(0) {
			faceUp++
		}
	}
	if faceUp != 1 {
		t.Fatalf("tableau has %d face-up cards, want exactly 1", faceUp)
	}
	if !tableau.Top().VisibleTo(0) {
		t.Fatal("expected the new top card to be face up")
	}

	foundation, err := state.Zone(fKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(foundation.Cards) != 1 {
		t.Fatalf("foundation has %d cards, want 1", len(foundation.Cards))
	}
}

// validateMove is exercised directly (rather than through a full
// gameloop.Loop) since it is a pure function of state and action: this
// isolates the placement rule from the universal zone/capacity checks
// already covered by pkg/executor's own tests.
func moveHook(t *testing.T) plugin.PreHookFunc {
	t.Helper()
	p := New(Templates(), nil)
	hooks := p.PreHooks[action.MoveCard]
	if len(hooks) != 1 {
		t.Fatalf("expected exactly one move_card pre-hook, got %d", len(hooks))
	}
	return hooks[0].Fn
}

func TestValidateMoveRejectsSameColorOntoTableau(t *testing.T) {
	cfg := enginestate.Config{GameType: ID, PlayerCount: 1}
	state := enginestate.New(cfg)

	fromKey := zoneKey("waste")
	state.Zones[fromKey] = zone.New(fromKey, zone.Config{ID: "waste"}, 0)
	moving := card.New(templateID("clubs", 4), card.VisibilityPublic)
	state.Zones[fromKey].PushTop(moving)

	toKey := zoneKey(tableauZoneID(1))
	to := zone.New(toKey, zone.Config{ID: "tableau1"}, 0)
	to.PushTop(card.New(templateID("spades", 5), card.VisibilityPublic)) // black 5, same color as the moving black 4
	state.Zones[toKey] = to

	hook := moveHook(t)
	res := hook(state, action.NewMoveCard(0, moving.InstanceID, fromKey, toKey, action.SourceUI, false))
	if res.Kind != plugin.Block {
		t.Fatalf("expected same-color move to be blocked, got %+v", res)
	}
}

func TestValidateMoveAllowsOppositeColorDescendingRank(t *testing.T) {
	cfg := enginestate.Config{GameType: ID, PlayerCount: 1}
	state := enginestate.New(cfg)

	fromKey := zoneKey("waste")
	state.Zones[fromKey] = zone.New(fromKey, zone.Config{ID: "waste"}, 0)
	moving := card.New(templateID("hearts", 4), card.VisibilityPublic)
	state.Zones[fromKey].PushTop(moving)

	toKey := zoneKey(tableauZoneID(1))
	to := zone.New(toKey, zone.Config{ID: "tableau1"}, 0)
	to.PushTop(card.New(templateID("spades", 5), card.VisibilityPublic)) // black 5 accepts a red 4
	state.Zones[toKey] = to

	hook := moveHook(t)
	res := hook(state, action.NewMoveCard(0, moving.InstanceID, fromKey, toKey, action.SourceUI, false))
	if res.Kind != plugin.Continue {
		t.Fatalf("expected opposite-color descending-rank move to be allowed, got %+v", res)
	}
}

func TestValidateMoveBlocksFaceDownCard(t *testing.T) {
	cfg := enginestate.Config{GameType: ID, PlayerCount: 1}
	state := enginestate.New(cfg)

	fromKey := zoneKey(tableauZoneID(2))
	from := zone.New(fromKey, zone.Config{ID: "tableau2"}, 0)
	hidden := card.New(templateID("diamonds", 6), card.VisibilityHidden)
	from.PushTop(hidden)
	state.Zones[fromKey] = from

	toKey := zoneKey(tableauZoneID(1))
	state.Zones[toKey] = zone.New(toKey, zone.Config{ID: "tableau1"}, 0)

	hook := moveHook(t)
	res := hook(state, action.NewMoveCard(0, hidden.InstanceID, fromKey, toKey, action.SourceUI, false))
	if res.Kind != plugin.Block {
		t.Fatalf("expected a face-down card move to be blocked, got %+v", res)
	}
}

func TestDeclareVictoryWhenAllFoundationsComplete(t *testing.T) {
	cfg := enginestate.Config{GameType: ID, PlayerCount: 1}
	state := enginestate.New(cfg)
	for _, s := range suits {
		key := zoneKey(foundationZoneID(s))
		z := zone.New(key, zone.Config{ID: foundationZoneID(s), MaxCards: 13, DefaultVisibility: card.VisibilityPublic}, 0)
		for _, r := range ranks {
			z.PushTop(card.New(templateID(s, r), card.VisibilityPublic))
		}
		state.Zones[key] = z
	}

	auto := declareVictoryWhenSolved(state, state, nil)
	if len(auto) != 1 || auto[0].Type != action.DeclareVictory {
		t.Fatalf("expected a single declare_victory auto-action, got %+v", auto)
	}
}

func TestDeclareVictoryStaysQuietWhenIncomplete(t *testing.T) {
	cfg := enginestate.Config{GameType: ID, PlayerCount: 1}
	state := enginestate.New(cfg)
	key := zoneKey(foundationZoneID("spades"))
	state.Zones[key] = zone.New(key, zone.Config{ID: foundationZoneID("spades"), MaxCards: 13}, 0)

	if auto := declareVictoryWhenSolved(state, state, nil); auto != nil {
		t.Fatalf("expected no auto-action with incomplete foundations, got %+v", auto)
	}
}

func TestAgentConfigNamesTerminalTools(t *testing.T) {
	p := New(Templates(), nil)
	cfg := p.GetAgentConfig(nil, "main")
	if cfg.SystemPrompt == "" {
		t.Fatal("expected a non-empty system prompt")
	}
	found := false
	for _, tool := range cfg.TerminalTools {
		if tool == "declare_victory" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected declare_victory among the terminal tools")
	}
}
