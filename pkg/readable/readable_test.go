package readable

import (
	"testing"

	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/zone"
)

func lookup(templates map[string]string) TemplateLookup {
	return func(id string) (string, bool) {
		n, ok := templates[id]
		return n, ok
	}
}

func TestProjectHidesInvisibleCards(t *testing.T) {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	key := zone.Key(0, "hand", false)
	z := zone.New(key, zone.Config{ID: "hand", OpponentCanSeeCount: true}, 0)
	c := card.New("tmpl-fox", card.VisibilityPlayerAOnly)
	c.SetCounter("energy", 3)
	z.PushTop(c)
	s.Zones[key] = z

	view := Project(s, 1, lookup(map[string]string{"tmpl-fox": "Fox"}), nil)
	zv := view.Zones[key]
	if zv.Count != 1 {
		t.Fatalf("expected opponent to see count even when card hidden, got %d", zv.Count)
	}
	if !zv.Cards[0].Hidden || zv.Cards[0].DisplayName != HiddenCardName {
		t.Fatalf("expected hidden card sentinel, got %+v", zv.Cards[0])
	}
	if zv.Cards[0].Counters != nil {
		t.Fatalf("expected counters stripped from hidden card, got %v", zv.Cards[0].Counters)
	}

	ownerView := Project(s, 0, lookup(map[string]string{"tmpl-fox": "Fox"}), nil)
	ownerZV := ownerView.Zones[key]
	if ownerZV.Cards[0].DisplayName != "Fox" {
		t.Fatalf("expected owner to see template name, got %q", ownerZV.Cards[0].DisplayName)
	}
}

func TestProjectMasksCountWhenOpponentCannotSeeCount(t *testing.T) {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	key := zone.Key(0, "hand", false)
	z := zone.New(key, zone.Config{ID: "hand", OpponentCanSeeCount: false}, 0)
	z.PushTop(card.New("tmpl-fox", card.VisibilityPlayerAOnly))
	z.PushTop(card.New("tmpl-fox", card.VisibilityPlayerAOnly))
	s.Zones[key] = z

	opponentView := Project(s, 1, lookup(map[string]string{"tmpl-fox": "Fox"}), nil)
	zv := opponentView.Zones[key]
	if zv.Count != 0 {
		t.Fatalf("expected count masked for opponent, got %d", zv.Count)
	}
	if len(zv.Cards) != 1 {
		t.Fatalf("expected a single sizeless placeholder, got %d cards", len(zv.Cards))
	}
	if !zv.Cards[0].Hidden || zv.Cards[0].DisplayName != HiddenCardName {
		t.Fatalf("expected hidden card sentinel, got %+v", zv.Cards[0])
	}

	ownerView := Project(s, 0, lookup(map[string]string{"tmpl-fox": "Fox"}), nil)
	ownerZV := ownerView.Zones[key]
	if ownerZV.Count != 2 {
		t.Fatalf("expected owner to see true count, got %d", ownerZV.Count)
	}
}

func TestProjectStableDuplicateNames(t *testing.T) {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	key := zone.Key(0, "hand", false)
	z := zone.New(key, zone.Config{ID: "hand"}, 0)
	for i := 0; i < 3; i++ {
		z.PushTop(card.New("tmpl-wolf", card.VisibilityPublic))
	}
	s.Zones[key] = z

	view := Project(s, 0, lookup(map[string]string{"tmpl-wolf": "Wolf"}), nil)
	names := []string{view.Zones[key].Cards[0].DisplayName, view.Zones[key].Cards[1].DisplayName, view.Zones[key].Cards[2].DisplayName}
	want := []string{"Wolf", "Wolf_1", "Wolf_2"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestProjectLogTruncation(t *testing.T) {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	for i := 0; i < 150; i++ {
		s.AppendLog(-1, "entry %d", i)
	}
	view := Project(s, 0, lookup(nil), nil)
	if len(view.Log) != maxLogEntries {
		t.Fatalf("expected log truncated to %d entries, got %d", maxLogEntries, len(view.Log))
	}
	if view.Log[len(view.Log)-1] != "entry 149" {
		t.Fatalf("expected most recent entry last, got %q", view.Log[len(view.Log)-1])
	}
}

func TestProjectAppliesModifier(t *testing.T) {
	s := enginestate.New(enginestate.Config{PlayerCount: 2})
	modifier := func(v *View, state *enginestate.State, viewer int) *View {
		if v.Annotations == nil {
			v.Annotations = map[string]any{}
		}
		v.Annotations["flavor"] = "test"
		return v
	}
	view := Project(s, 0, lookup(nil), modifier)
	if view.Annotations["flavor"] != "test" {
		t.Fatal("expected modifier annotation to be applied")
	}
}
