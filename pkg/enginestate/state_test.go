package enginestate

import (
	"testing"

	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/zone"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	cfg := Config{
		GameType:    "test",
		PlayerCount: 2,
		Zones: map[string]zone.Config{
			"hand": {ID: "hand", MaxCards: 7, DefaultVisibility: card.VisibilityPlayerAOnly},
			"deck": {ID: "deck", Ordered: true, MaxCards: -1},
		},
	}
	s := New(cfg)
	s.Zones[zone.Key(0, "hand", false)] = zone.New(zone.Key(0, "hand", false), cfg.Zones["hand"], 0)
	s.Zones[zone.Key(0, "deck", false)] = zone.New(zone.Key(0, "deck", false), cfg.Zones["deck"], 0)
	return s
}

func TestAppendLogPrefixesPlayer(t *testing.T) {
	s := newTestState(t)
	s.AppendLog(0, "drew %d cards", 2)
	if got := s.Log[len(s.Log)-1]; got != "[Player 0] drew 2 cards" {
		t.Fatalf("log entry = %q", got)
	}
	s.AppendLog(-1, "game created")
	if got := s.Log[len(s.Log)-1]; got != "game created" {
		t.Fatalf("unattributed log entry = %q", got)
	}
}

func TestFindCard(t *testing.T) {
	s := newTestState(t)
	c := card.New("tmpl", card.VisibilityHidden)
	s.Zones[zone.Key(0, "hand", false)].PushTop(c)

	z, idx, found := s.FindCard(c.InstanceID)
	if !found || z.Key != zone.Key(0, "hand", false) || idx != 0 {
		t.Fatalf("FindCard = (%v, %d, %v)", z, idx, found)
	}
	if _, _, found := s.FindCard("nonexistent"); found {
		t.Fatal("expected not found for unknown instance id")
	}
}

func TestSnapshotRestoreIsolation(t *testing.T) {
	s := newTestState(t)
	c := card.New("tmpl", card.VisibilityHidden)
	s.Zones[zone.Key(0, "hand", false)].PushTop(c)

	snap := s.Snapshot()

	// Mutate live state after the snapshot.
	s.Zones[zone.Key(0, "hand", false)].Cards[0].AddCounter("x", 5)
	s.AppendLog(0, "mutated after snapshot")

	if snap.Zones[zone.Key(0, "hand", false)].Cards[0].Counter("x") != 0 {
		t.Fatal("snapshot was not isolated from later mutation")
	}

	s.Restore(snap)
	if s.Zones[zone.Key(0, "hand", false)].Cards[0].Counter("x") != 0 {
		t.Fatal("restore did not roll back counter mutation")
	}
	if len(s.Log) != len(snap.Log) {
		t.Fatal("restore did not roll back log growth")
	}
}

func TestCheckCardConservationDetectsDuplication(t *testing.T) {
	s := newTestState(t)
	c := card.New("tmpl", card.VisibilityHidden)
	handKey := zone.Key(0, "hand", false)
	deckKey := zone.Key(0, "deck", false)
	s.Zones[handKey].PushTop(c)
	s.Zones[deckKey].PushTop(c) // simulate corruption: same instance in two zones

	err := s.CheckCardConservation()
	if err == nil {
		t.Fatal("expected invariant violation for duplicated card")
	}
	iv, ok := err.(*InvariantViolation)
	if !ok {
		t.Fatalf("expected *InvariantViolation, got %T", err)
	}
	_ = iv
}

func TestOpponent(t *testing.T) {
	if Opponent(0) != 1 || Opponent(1) != 0 {
		t.Fatal("Opponent should flip between 0 and 1")
	}
}
