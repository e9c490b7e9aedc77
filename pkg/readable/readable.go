// Package readable projects a raw GameState into a name-based,
// visibility-filtered view intended for a language model (spec §4.F).
package readable

import (
	"encoding/json"
	"fmt"

	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/zone"
)

const maxLogEntries = 100

// HiddenCardName is the sentinel display name for a card not visible
// to the viewing player.
const HiddenCardName = "hidden card"

// CardView is one card as rendered to the viewer.
type CardView struct {
	DisplayName string         `json:"displayName"`
	Orientation string         `json:"orientation,omitempty"`
	Flags       []string       `json:"flags,omitempty"`
	Counters    map[string]int `json:"counters,omitempty"`
	Hidden      bool           `json:"hidden"`
}

// ZoneView mirrors a zone instance's full structure with cards
// projected through CardView.
type ZoneView struct {
	Key    string       `json:"key"`
	Config zone.Config  `json:"config"`
	Owner  int          `json:"owner"`
	Count  int          `json:"count"`
	Cards  []CardView   `json:"cards"`
}

// View is the complete agent-facing projection of a game state for
// one viewing player.
type View struct {
	GameID         string              `json:"gameId"`
	Phase          enginestate.Phase   `json:"phase"`
	TurnNumber     int                 `json:"turnNumber"`
	ActivePlayer   int                 `json:"activePlayer"`
	ViewingPlayer  int                 `json:"viewingPlayer"`
	Zones          map[string]ZoneView `json:"zones"`
	PendingDecision *enginestate.Decision `json:"pendingDecision,omitempty"`
	Result         *enginestate.Result `json:"result,omitempty"`
	Log            []string            `json:"log"`
	Annotations    map[string]any      `json:"annotations,omitempty"`
}

// ModifierFunc is the singular game-specific readable-state hook
// (spec §4.C): the last plugin registered that supplies one wins.
type ModifierFunc func(v *View, state *enginestate.State, viewer int) *View

// TemplateLookup resolves a template id to its display name; supplied
// by the caller (the gametype registry owns the template catalog) so
// this package has no dependency on it.
type TemplateLookup func(templateID string) (name string, ok bool)

// Project builds a View of state for the given viewer, then applies
// modifier if non-nil (spec §4.F).
func Project(state *enginestate.State, viewer int, lookup TemplateLookup, modifier ModifierFunc) *View {
	v := &View{
		GameID:          state.ID,
		Phase:           state.Phase,
		TurnNumber:      state.TurnNumber,
		ActivePlayer:    state.ActivePlayer,
		ViewingPlayer:   viewer,
		Zones:           make(map[string]ZoneView, len(state.Zones)),
		PendingDecision: state.PendingDecision,
		Result:          state.Result,
	}

	for key, z := range state.Zones {
		v.Zones[key] = projectZone(z, viewer, lookup)
	}

	if n := len(state.Log); n > maxLogEntries {
		v.Log = append([]string(nil), state.Log[n-maxLogEntries:]...)
	} else {
		v.Log = append([]string(nil), state.Log...)
	}

	if modifier != nil {
		v = modifier(v, state, viewer)
	}
	return v
}

// Render renders v as the text the agent runner appends to its
// ephemeral "[CURRENT GAME STATE]" message (spec §4.H step 4b). JSON
// keeps the projection's field names stable for the model without a
// second hand-written text format to keep in sync with View.
func (v *View) Render() string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"renderError\": %q}", err.Error())
	}
	return string(b)
}

// projectZone builds one zone's view for viewer. Its seen map tracks
// how many times a template's display name has already been used
// within the zone, so duplicates become Name_1, Name_2, ... in array
// order (spec §4.F).
//
// When the viewer does not own z and z.Config.OpponentCanSeeCount is
// false, neither the card-by-card breakdown nor the zone's size may
// leak to them: a row of one-per-card "hidden card" entries reveals
// the count just as plainly as Count itself, so both are collapsed to
// a single sizeless placeholder.
func projectZone(z *zone.Instance, viewer int, lookup TemplateLookup) ZoneView {
	maskCount := z.Owner != viewer && !z.Config.OpponentCanSeeCount

	zv := ZoneView{
		Key:    z.Key,
		Config: z.Config,
		Owner:  z.Owner,
	}

	if maskCount {
		if len(z.Cards) > 0 {
			zv.Cards = []CardView{{DisplayName: HiddenCardName, Hidden: true}}
		}
		return zv
	}

	zv.Count = len(z.Cards)
	zv.Cards = make([]CardView, len(z.Cards))

	seen := make(map[string]int)
	for i, c := range z.Cards {
		if !c.VisibleTo(viewer) {
			zv.Cards[i] = CardView{DisplayName: HiddenCardName, Hidden: true}
			continue
		}
		name, ok := lookup(c.TemplateID)
		if !ok {
			name = c.TemplateID
		}
		seen[name]++
		display := name
		if n := seen[name]; n > 1 {
			display = fmt.Sprintf("%s_%d", name, n-1)
		}
		zv.Cards[i] = CardView{
			DisplayName: display,
			Orientation: c.Orientation,
			Flags:       c.Flags,
			Counters:    c.Counters,
		}
	}
	return zv
}
