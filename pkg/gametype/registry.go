package gametype

import (
	"fmt"
	"sync"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/readable"
	"github.com/vctt94/cardengine/pkg/zone"
)

// GameType bundles everything a playable game needs beyond its rules
// plugin: the board layout, the starting decks (one per player, or
// one shared), and the card template catalog that gives every
// templateId a display name.
type GameType struct {
	ID        string
	Playmat   *Playmat
	Decks     map[int]*Deck // per-player starting deck; key -1 for a shared deck
	Templates map[string]*card.Template
}

// Lookup builds the readable.TemplateLookup this game type's
// templates satisfy (spec §4.F).
func (gt *GameType) Lookup() readable.TemplateLookup {
	return func(templateID string) (string, bool) {
		t, ok := gt.Templates[templateID]
		if !ok {
			return "", false
		}
		return t.Name, true
	}
}

// Registry holds every known game type, analogous to the teacher's
// table registry (pkg/poker/table.go's NewTable construction path,
// generalized from "one table per game instance" to "one GameType
// template per registered game").
type Registry struct {
	mu    sync.RWMutex
	types map[string]*GameType
}

// NewRegistry creates an empty game-type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*GameType)}
}

// Register adds gt, keyed by gt.ID. It fails on a duplicate id so two
// plugins can never silently shadow each other's game type.
func (r *Registry) Register(gt *GameType) error {
	if gt.ID == "" {
		return fmt.Errorf("gametype: registry: game type id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[gt.ID]; exists {
		return fmt.Errorf("gametype: registry: %q already registered", gt.ID)
	}
	r.types[gt.ID] = gt
	return nil
}

// Get looks up a registered game type by id.
func (r *Registry) Get(id string) (*GameType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gt, ok := r.types[id]
	return gt, ok
}

// NewGame builds a fresh enginestate.State for gt: one zone instance
// per (player, zoneID) pair from the playmat, each per-player deck
// zone populated from gt.Decks, every other zone left empty for the
// plugin's OnGameStart to fill. It then fires the plugin manager's
// OnGameStart lifecycle hook (spec §4.C) before returning.
func NewGame(gt *GameType, plugins *plugin.Manager, log slog.Logger) (*enginestate.State, error) {
	if gt.Playmat == nil {
		return nil, fmt.Errorf("gametype: %q: no playmat configured", gt.ID)
	}

	cfg := enginestate.Config{
		GameType:    gt.ID,
		PlayerCount: gt.Playmat.PlayerCount,
		Zones:       gt.Playmat.Zones,
	}
	state := enginestate.New(cfg)

	for _, owner := range gt.Playmat.ZoneOwners() {
		zoneCfg := gt.Playmat.Zones[owner.zoneID]
		key := zone.Key(owner.player, owner.zoneID, owner.shared)
		instance := zone.New(key, zoneCfg, owner.player)
		state.Zones[key] = instance

		deck, ok := gt.Decks[owner.player]
		if !ok && owner.shared {
			deck, ok = gt.Decks[-1]
		}
		if ok && deck != nil && deckTargetsZone(zoneCfg) {
			for _, c := range deck.Instantiate(zoneCfg.DefaultVisibility) {
				instance.PushTop(c)
			}
		}
	}

	if plugins != nil {
		if err := plugins.FireGameStart(state); err != nil {
			return nil, fmt.Errorf("gametype: %q: onGameStart: %w", gt.ID, err)
		}
	}

	log.Infof("game %s started: type=%s players=%d", state.ID, gt.ID, gt.Playmat.PlayerCount)
	return state, nil
}

// deckTargetsZone identifies the zone a starting deck populates by
// convention: the zone config whose id is literally "deck". Plugins
// that need a different starting location move cards with an
// OnGameStart hook instead.
func deckTargetsZone(cfg zone.Config) bool {
	return cfg.ID == "deck"
}
