// Package klondike is a reference game plugin: Klondike solitaire,
// built on top of the headless engine the same way a real game
// plugin would be. It exists to exercise pkg/gametype, pkg/plugin,
// and pkg/gameloop through a real hook chain rather than mocks, and
// to give the core's tableau-cascade invariant (spec §8 scenario 3) a
// concrete game to run against. It is not a claim that Klondike's
// rules belong in the core.
package klondike

import (
	"fmt"
	"math/rand"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/gametype"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/zone"
)

// ID is the plugin and game-type registry id.
const ID = "klondike"

var suits = []string{"clubs", "diamonds", "hearts", "spades"}
var ranks = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

var rankNames = map[int]string{1: "A", 11: "J", 12: "Q", 13: "K"}

func rankName(r int) string {
	if n, ok := rankNames[r]; ok {
		return n
	}
	return fmt.Sprintf("%d", r)
}

func color(suit string) string {
	if suit == "hearts" || suit == "diamonds" {
		return "red"
	}
	return "black"
}

func templateID(suit string, rank int) string {
	return fmt.Sprintf("%s_%d", suit, rank)
}

// Templates builds the 52 standard card templates, each carrying its
// suit, rank, and color in Extra so the plugin's own rule checks can
// recover them without re-parsing a display name (mirrors the
// teacher's suit/value nested-loop deck construction in
// pkg/poker/deck.go, generalized from Card values to card.Template
// records).
func Templates() map[string]*card.Template {
	out := make(map[string]*card.Template, 52)
	for _, s := range suits {
		for _, r := range ranks {
			id := templateID(s, r)
			out[id] = &card.Template{
				ID:   id,
				Name: fmt.Sprintf("%s of %s", rankName(r), s),
				Extra: map[string]any{
					"suit":  s,
					"rank":  r,
					"color": color(s),
				},
			}
		}
	}
	return out
}

// StandardDeck builds the 52-card composition targeting the stock
// zone (spec §6: a deck is a flat {templateId,count} list).
func StandardDeck() *gametype.Deck {
	d := &gametype.Deck{ID: "klondike-standard", Name: "Standard 52-card deck"}
	for _, s := range suits {
		for _, r := range ranks {
			d.Cards = append(d.Cards, gametype.DeckEntry{TemplateID: templateID(s, r), Count: 1})
		}
	}
	return d
}

func foundationZoneID(suit string) string { return "foundation_" + suit }
func tableauZoneID(n int) string          { return fmt.Sprintf("tableau%d", n) }

// playmatJSON is the one-player board: a stock ("deck"), a waste, four
// suit foundations, and seven cascading tableau piles (spec §6 shape).
const playmatJSON = `{
  "id": "klondike",
  "name": "Klondike Solitaire",
  "gameType": "klondike",
  "playerCount": 1,
  "layout": {"rows": 2, "cols": 7, "slots": [
    {"id": "stock-slot", "zoneId": "deck", "position": {"row": 0, "col": 0}},
    {"id": "waste-slot", "zoneId": "waste", "position": {"row": 0, "col": 1}},
    {"id": "f-clubs", "zoneId": "foundation_clubs", "position": {"row": 0, "col": 3}},
    {"id": "f-diamonds", "zoneId": "foundation_diamonds", "position": {"row": 0, "col": 4}},
    {"id": "f-hearts", "zoneId": "foundation_hearts", "position": {"row": 0, "col": 5}},
    {"id": "f-spades", "zoneId": "foundation_spades", "position": {"row": 0, "col": 6}},
    {"id": "t1", "zoneId": "tableau1", "position": {"row": 1, "col": 0}, "stackDirection": "down"},
    {"id": "t2", "zoneId": "tableau2", "position": {"row": 1, "col": 1}, "stackDirection": "down"},
    {"id": "t3", "zoneId": "tableau3", "position": {"row": 1, "col": 2}, "stackDirection": "down"},
    {"id": "t4", "zoneId": "tableau4", "position": {"row": 1, "col": 3}, "stackDirection": "down"},
    {"id": "t5", "zoneId": "tableau5", "position": {"row": 1, "col": 4}, "stackDirection": "down"},
    {"id": "t6", "zoneId": "tableau6", "position": {"row": 1, "col": 5}, "stackDirection": "down"},
    {"id": "t7", "zoneId": "tableau7", "position": {"row": 1, "col": 6}, "stackDirection": "down"}
  ]},
  "zones": {
    "deck": {"id": "deck", "name": "Stock", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden", "shuffleable": true},
    "waste": {"id": "waste", "name": "Waste", "ordered": true, "maxCards": -1, "defaultVisibility": "public"},
    "foundation_clubs": {"id": "foundation_clubs", "name": "Clubs foundation", "ordered": true, "maxCards": 13, "defaultVisibility": "public"},
    "foundation_diamonds": {"id": "foundation_diamonds", "name": "Diamonds foundation", "ordered": true, "maxCards": 13, "defaultVisibility": "public"},
    "foundation_hearts": {"id": "foundation_hearts", "name": "Hearts foundation", "ordered": true, "maxCards": 13, "defaultVisibility": "public"},
    "foundation_spades": {"id": "foundation_spades", "name": "Spades foundation", "ordered": true, "maxCards": 13, "defaultVisibility": "public"},
    "tableau1": {"id": "tableau1", "name": "Tableau 1", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau2": {"id": "tableau2", "name": "Tableau 2", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau3": {"id": "tableau3", "name": "Tableau 3", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau4": {"id": "tableau4", "name": "Tableau 4", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau5": {"id": "tableau5", "name": "Tableau 5", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau6": {"id": "tableau6", "name": "Tableau 6", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"},
    "tableau7": {"id": "tableau7", "name": "Tableau 7", "ordered": true, "maxCards": -1, "defaultVisibility": "hidden"}
  },
  "playerSlots": {"0": ["stock-slot", "waste-slot", "f-clubs", "f-diamonds", "f-hearts", "f-spades", "t1", "t2", "t3", "t4", "t5", "t6", "t7"]}
}`

// Playmat parses the embedded board description.
func Playmat() (*gametype.Playmat, error) {
	return gametype.ParsePlaymat([]byte(playmatJSON))
}

// GameType assembles the full gametype.GameType the registry needs:
// playmat, starting deck (targeting the stock zone by the "deck" id
// convention documented on gametype.NewGame), and the template catalog.
func GameType() (*gametype.GameType, error) {
	pm, err := Playmat()
	if err != nil {
		return nil, err
	}
	return &gametype.GameType{
		ID:        ID,
		Playmat:   pm,
		Decks:     map[int]*gametype.Deck{0: StandardDeck()},
		Templates: Templates(),
	}, nil
}

func zoneKey(id string) string { return zone.Key(0, id, false) }

// deal implements OnGameStart: gametype.NewGame's generic
// deck-instantiation step has already populated the stock zone in
// declaration order (it targets "deck" since that is this board's
// stock zone id). deal shuffles the stock in place, then fans 1..7
// cards out into the seven tableau piles and flips each pile's top
// card face up, leaving the remainder as the stock.
func (k *plugin_) deal(state *enginestate.State) error {
	stock, err := state.Zone(zoneKey("deck"))
	if err != nil {
		return err
	}
	k.rng.Shuffle(len(stock.Cards), func(i, j int) {
		stock.Cards[i], stock.Cards[j] = stock.Cards[j], stock.Cards[i]
	})
	for n := 1; n <= 7; n++ {
		t, err := state.Zone(zoneKey(tableauZoneID(n)))
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			c, err := stock.PopTop()
			if err != nil {
				return fmt.Errorf("klondike: deal: stock ran out dealing tableau %d: %w", n, err)
			}
			t.PushTop(c)
		}
		if top := t.Top(); top != nil {
			top.Visibility = card.VisibilityPublic
		}
	}
	return nil
}

// suitAndRank recovers a card's suit/rank/color from the template
// catalog captured at plugin construction. Hidden cards are still
// looked up here (the plugin sees the true state); only the agent's
// readable projection hides them.
func (k *plugin_) suitAndRank(templateID string) (suit string, rank int, ok bool) {
	t, exists := k.templates[templateID]
	if !exists {
		return "", 0, false
	}
	suit, _ = t.Extra["suit"].(string)
	rank, _ = t.Extra["rank"].(int)
	return suit, rank, suit != "" && rank != 0
}

// plugin_ holds the template catalog and RNG the pre-hooks, observers,
// and deal close over. It is not exported; New returns a ready-made
// *plugin.Plugin.
type plugin_ struct {
	templates map[string]*card.Template
	rng       *rand.Rand
}

// New builds the Klondike rules plugin. templates is normally
// Templates()'s return value; callers that load a custom card set
// (spec §6 card template JSON) may pass their own. rng seeds the
// initial shuffle (nil gets a fixed seed, mirroring executor.New's
// reproducible-by-default convention).
func New(templates map[string]*card.Template, rng *rand.Rand) *plugin.Plugin {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	k := &plugin_{templates: templates, rng: rng}

	return &plugin.Plugin{
		ID:          ID,
		OnGameStart: k.deal,
		PreHooks: map[action.Type][]plugin.PriorityEntry[plugin.PreHookFunc]{
			action.MoveCard: {{Priority: plugin.DefaultPriority, Fn: k.validateMove}},
		},
		Observers: []plugin.PriorityEntry[plugin.ObserverFunc]{
			{Priority: plugin.DefaultPriority, Fn: flipExposedTableauTops},
			{Priority: plugin.DefaultPriority + 10, Fn: declareVictoryWhenSolved},
		},
		GetAgentConfig: k.agentConfig,
	}
}

// validateMove enforces the two Klondike placement rules: a card may
// land on an empty tableau or on an opposite-color, one-rank-higher
// tableau card; it may land on an empty foundation only as an ace, or
// on a same-suit, one-rank-higher foundation card. Any other
// destination (stock, waste) is left to the universal zone-ownership
// rule. A hidden (face-down) card can never be moved.
func (k *plugin_) validateMove(state *enginestate.State, a *action.Action) plugin.HookResult {
	from, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return plugin.BlockResult("klondike: card not found")
	}
	if !from.Cards[idx].VisibleTo(0) {
		return plugin.BlockResult("klondike: cannot move a face-down card")
	}

	to, err := state.Zone(a.ToZone)
	if err != nil {
		return plugin.BlockResult(err.Error())
	}

	suit, rank, ok := k.suitAndRank(from.Cards[idx].TemplateID)
	if !ok {
		return plugin.ContinueResult() // non-standard card, e.g. a test fixture; let it through
	}

	switch {
	case isTableau(to.Config.ID):
		top := to.Top()
		if top == nil {
			return plugin.ContinueResult() // any card may start an empty tableau pile
		}
		topSuit, topRank, ok := k.suitAndRank(top.TemplateID)
		if !ok || color(topSuit) == color(suit) || topRank != rank+1 {
			return plugin.BlockResult(fmt.Sprintf("klondike: %s of %s cannot land on %s of %s", rankName(rank), suit, rankName(topRank), topSuit))
		}
		return plugin.ContinueResult()
	case isFoundation(to.Config.ID):
		wantSuit := to.Config.ID[len("foundation_"):]
		if suit != wantSuit {
			return plugin.BlockResult(fmt.Sprintf("klondike: %s cannot go on the %s foundation", suit, wantSuit))
		}
		top := to.Top()
		if top == nil {
			if rank != 1 {
				return plugin.BlockResult("klondike: only an ace may start a foundation")
			}
			return plugin.ContinueResult()
		}
		_, topRank, _ := k.suitAndRank(top.TemplateID)
		if rank != topRank+1 {
			return plugin.BlockResult(fmt.Sprintf("klondike: foundation needs rank %d next, got %d", topRank+1, rank))
		}
		return plugin.ContinueResult()
	default:
		return plugin.ContinueResult()
	}
}

func isTableau(zoneID string) bool {
	for n := 1; n <= 7; n++ {
		if zoneID == tableauZoneID(n) {
			return true
		}
	}
	return false
}

func isFoundation(zoneID string) bool {
	for _, s := range suits {
		if zoneID == foundationZoneID(s) {
			return true
		}
	}
	return false
}

// flipExposedTableauTops is the spec §8 scenario 3 observer: once the
// queue has drained, any tableau pile whose new top card is still
// face down gets auto-flipped. It runs every drain round, so a chain
// of moves that exposes several piles' tops in one go flips all of
// them before the cascade cap is checked.
func flipExposedTableauTops(newState, prevState *enginestate.State, lastAction *action.Action) []*action.Action {
	var auto []*action.Action
	// Deterministic order keeps the emitted event stream reproducible
	// in tests rather than depending on Go's randomized map iteration.
	for n := 1; n <= 7; n++ {
		z, err := newState.Zone(zoneKey(tableauZoneID(n)))
		if err != nil {
			continue
		}
		top := z.Top()
		if top != nil && !top.VisibleTo(0) {
			auto = append(auto, action.NewFlipCard(0, top.InstanceID, action.SourceUI))
		}
	}
	return auto
}

// declareVictoryWhenSolved auto-submits a victory declaration once
// every foundation holds all 13 ranks of its suit.
func declareVictoryWhenSolved(newState, prevState *enginestate.State, lastAction *action.Action) []*action.Action {
	if newState.Result != nil {
		return nil
	}
	for _, s := range suits {
		z, err := newState.Zone(zoneKey(foundationZoneID(s)))
		if err != nil || len(z.Cards) != 13 {
			return nil
		}
	}
	return []*action.Action{action.NewDeclareVictory(0, "all four foundations complete", action.SourceUI)}
}

// agentConfig supplies the system prompt and terminal tool set an
// agent runner uses while playing this plugin's game (spec §4.H step
// 1). It is identical across modes: Klondike has no setup phase of
// its own (OnGameStart deals the board) and no decision points.
func (k *plugin_) agentConfig(state *enginestate.State, mode string) plugin.AgentConfig {
	return plugin.AgentConfig{
		SystemPrompt: "You are playing Klondike solitaire. Build the four foundations " +
			"up from ace to king, one suit each. Tableau piles accept a card one rank " +
			"lower and the opposite color of the exposed top card, or any card on an " +
			"empty pile. Draw from the stock to the waste to find playable cards. " +
			"Call declare_victory once all four foundations are complete, or concede " +
			"if no move remains.",
		TerminalTools: []string{"declare_victory", "concede"},
	}
}

// TableauZoneKeys returns the seven tableau zone keys in display
// order, for callers (e.g. the CLI driver) that want to render piles
// left to right rather than iterate enginestate.State.Zones in map
// order.
func TableauZoneKeys() []string {
	keys := make([]string, 7)
	for n := 1; n <= 7; n++ {
		keys[n-1] = zoneKey(tableauZoneID(n))
	}
	return keys
}

// FoundationZoneKeys returns the four foundation zone keys, one per
// suit, in the same fixed order Templates()/suits uses.
func FoundationZoneKeys() []string {
	keys := make([]string, len(suits))
	for i, s := range suits {
		keys[i] = zoneKey(foundationZoneID(s))
	}
	return keys
}
