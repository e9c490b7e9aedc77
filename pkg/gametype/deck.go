package gametype

import (
	"encoding/json"
	"fmt"

	"github.com/vctt94/cardengine/pkg/card"
)

// DeckEntry is one line of a deck's composition (spec §6).
type DeckEntry struct {
	TemplateID string `json:"templateId"`
	Count      int    `json:"count"`
}

// DeckList pairs a deck with an agent-facing play strategy hint
// (spec §6: "optional paired {deckList, strategy} for agent play").
// The core never reads Strategy; it is surfaced to the agent runner's
// system prompt by whatever plugin cares about it.
type DeckList struct {
	Cards    []string `json:"deckList"`
	Strategy string   `json:"strategy"`
}

// Deck is a named card composition (spec §6).
type Deck struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Cards    []DeckEntry `json:"cards"`
	MaxSize  int         `json:"maxSize,omitempty"`
	DeckList *DeckList   `json:"deckList,omitempty"`
}

// ParseDeck decodes a deck JSON document (spec §6).
func ParseDeck(data []byte) (*Deck, error) {
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("gametype: parse deck: %w", err)
	}
	if len(d.Cards) == 0 {
		return nil, fmt.Errorf("gametype: deck %q: no card entries", d.ID)
	}
	total := 0
	for _, e := range d.Cards {
		if e.Count < 0 {
			return nil, fmt.Errorf("gametype: deck %q: entry %q has negative count %d", d.ID, e.TemplateID, e.Count)
		}
		total += e.Count
	}
	if d.MaxSize > 0 && total > d.MaxSize {
		return nil, fmt.Errorf("gametype: deck %q: %d total cards exceeds maxSize %d", d.ID, total, d.MaxSize)
	}
	return &d, nil
}

// Instantiate builds one fresh card.Instance per card in the deck, in
// declaration order, each visible per vis (typically the owning
// zone's DefaultVisibility). This is the only place deck composition
// turns into live card instances, keeping the many-to-one
// template-to-instance fan-out in one spot.
func (d *Deck) Instantiate(vis card.Visibility) []*card.Instance {
	cards := make([]*card.Instance, 0, len(d.Cards))
	for _, e := range d.Cards {
		for i := 0; i < e.Count; i++ {
			cards = append(cards, card.New(e.TemplateID, vis))
		}
	}
	return cards
}

// ParseTemplates decodes a flat JSON array of card.Template records
// into a lookup keyed by template id.
func ParseTemplates(data []byte) (map[string]*card.Template, error) {
	var list []*card.Template
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("gametype: parse templates: %w", err)
	}
	byID := make(map[string]*card.Template, len(list))
	for _, t := range list {
		if t.ID == "" {
			return nil, fmt.Errorf("gametype: template with empty id")
		}
		byID[t.ID] = t
	}
	return byID, nil
}
