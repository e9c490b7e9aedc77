package gametype

import (
	"testing"

	"github.com/vctt94/cardengine/pkg/card"
)

const sampleDeck = `{
  "id": "standard-52",
  "name": "Standard 52",
  "cards": [
    {"templateId": "2S", "count": 1},
    {"templateId": "3S", "count": 1}
  ],
  "maxSize": 2
}`

func TestParseDeckSucceeds(t *testing.T) {
	d, err := ParseDeck([]byte(sampleDeck))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != "standard-52" || len(d.Cards) != 2 {
		t.Fatalf("unexpected deck: %+v", d)
	}
}

func TestParseDeckRejectsOversizedComposition(t *testing.T) {
	bad := `{"id":"x","cards":[{"templateId":"A","count":5}],"maxSize":2}`
	if _, err := ParseDeck([]byte(bad)); err == nil {
		t.Fatal("expected total count exceeding maxSize to be rejected")
	}
}

func TestParseDeckRejectsEmptyComposition(t *testing.T) {
	bad := `{"id":"x","cards":[]}`
	if _, err := ParseDeck([]byte(bad)); err == nil {
		t.Fatal("expected an empty deck to be rejected")
	}
}

func TestDeckInstantiateBuildsOneInstancePerCard(t *testing.T) {
	d, err := ParseDeck([]byte(sampleDeck))
	if err != nil {
		t.Fatal(err)
	}
	cards := d.Instantiate(card.VisibilityHidden)
	if len(cards) != 2 {
		t.Fatalf("expected 2 card instances, got %d", len(cards))
	}
	if cards[0].InstanceID == cards[1].InstanceID {
		t.Fatal("expected distinct instance ids")
	}
	for _, c := range cards {
		if c.Visibility != card.VisibilityHidden {
			t.Fatalf("expected instantiated cards to carry the given visibility, got %+v", c.Visibility)
		}
	}
}

func TestParseTemplatesKeysByID(t *testing.T) {
	data := `[{"id":"2S","name":"Two of Spades"},{"id":"3S","name":"Three of Spades"}]`
	templates, err := ParseTemplates([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if templates["2S"].Name != "Two of Spades" {
		t.Fatalf("unexpected template lookup: %+v", templates["2S"])
	}
}
