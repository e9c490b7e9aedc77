package gametype

import (
	"os"
	"testing"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/zone"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("test")
	log.SetLevel(slog.LevelError)
	return log
}

func sampleGameType(t *testing.T) *GameType {
	t.Helper()
	pm, err := ParsePlaymat([]byte(samplePlaymat))
	if err != nil {
		t.Fatal(err)
	}
	deck, err := ParseDeck([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}
	templates, err := ParseTemplates([]byte(`[{"id":"2S","name":"Two of Spades"},{"id":"3S","name":"Three of Spades"}]`))
	if err != nil {
		t.Fatal(err)
	}
	return &GameType{
		ID:        "klondike",
		Playmat:   pm,
		Decks:     map[int]*Deck{0: deck},
		Templates: templates,
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	gt := sampleGameType(t)
	if err := r.Register(gt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := r.Get("klondike")
	if !ok || got != gt {
		t.Fatal("expected to get back the registered game type")
	}
	if err := r.Register(gt); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestGameTypeLookupResolvesTemplateNames(t *testing.T) {
	gt := sampleGameType(t)
	lookup := gt.Lookup()
	name, ok := lookup("2S")
	if !ok || name != "Two of Spades" {
		t.Fatalf("unexpected lookup result: %q, %v", name, ok)
	}
	if _, ok := lookup("ghost"); ok {
		t.Fatal("expected unknown template id to miss")
	}
}

func TestNewGameBuildsZonesAndPopulatesDeck(t *testing.T) {
	gt := sampleGameType(t)
	state, err := NewGame(gt, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deckKey := zone.Key(0, "deck", false)
	deckZone, ok := state.Zones[deckKey]
	if !ok {
		t.Fatalf("expected deck zone %q to exist", deckKey)
	}
	if len(deckZone.Cards) != 2 {
		t.Fatalf("expected the sample deck's 2 cards to populate the deck zone, got %d", len(deckZone.Cards))
	}
	tableauKey := zone.Key(0, "tableau", false)
	if tableauZone, ok := state.Zones[tableauKey]; !ok || len(tableauZone.Cards) != 0 {
		t.Fatalf("expected an empty tableau zone, got %+v", tableauZone)
	}
	for _, c := range deckZone.Cards {
		if c.Visibility != card.VisibilityHidden {
			t.Fatalf("expected deck cards to carry the zone's default visibility, got %+v", c.Visibility)
		}
	}
}

func TestNewGameRejectsMissingPlaymat(t *testing.T) {
	gt := &GameType{ID: "no-playmat"}
	if _, err := NewGame(gt, nil, testLogger()); err == nil {
		t.Fatal("expected a game type with no playmat to fail")
	}
}
