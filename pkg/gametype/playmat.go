// Package gametype is the plugin-agnostic glue between a JSON-described
// game (playmat layout, deck, card templates) and a live enginestate.State
// (spec §4.I, §6). It owns no rules of its own — it only builds the
// zone/card scaffolding a plugin's hooks and the executor then operate on.
package gametype

import (
	"encoding/json"
	"fmt"

	"github.com/vctt94/cardengine/pkg/zone"
)

// StackDirection is how a slot's cards fan out visually. The core
// engine never reads it — it is passed through to whatever renders
// the playmat (cmd/klondikecli) unexamined.
type StackDirection string

const (
	StackNone  StackDirection = "none"
	StackDown  StackDirection = "down"
	StackUp    StackDirection = "up"
	StackRight StackDirection = "right"
	StackFan   StackDirection = "fan"
)

// Position places a slot on the playmat grid (spec §6).
type Position struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	RowSpan int `json:"rowSpan,omitempty"`
	ColSpan int `json:"colSpan,omitempty"`
}

// Slot is one rendered location on the playmat, bound to a zone.
type Slot struct {
	ID             string         `json:"id"`
	ZoneID         string         `json:"zoneId"`
	Position       Position       `json:"position"`
	Label          string         `json:"label,omitempty"`
	StackDirection StackDirection `json:"stackDirection,omitempty"`
	FixedSize      bool           `json:"fixedSize,omitempty"`
	Scale          float64        `json:"scale,omitempty"`
	ShowCount      bool           `json:"showCount,omitempty"`
	Align          string         `json:"align,omitempty"`
	Group          string         `json:"group,omitempty"`
	GroupRow       int            `json:"groupRow,omitempty"`
	GroupCol       int            `json:"groupCol,omitempty"`
}

// Layout is the playmat's grid description (spec §6).
type Layout struct {
	Rows          int              `json:"rows"`
	Cols          int              `json:"cols"`
	ColumnScales  []float64        `json:"columnScales,omitempty"`
	RowHeights    []float64        `json:"rowHeights,omitempty"`
	Slots         []Slot           `json:"slots"`
	Groups        []string         `json:"groups,omitempty"`
}

// Playmat is the full JSON-described game board (spec §6): its zone
// configs, its visual layout, and which slots belong to which player.
type Playmat struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	GameType    string                 `json:"gameType"`
	PlayerCount int                    `json:"playerCount"`
	Layout      Layout                 `json:"layout"`
	Zones       map[string]zone.Config `json:"zones"`
	PlayerSlots map[string][]string    `json:"playerSlots"`
}

// ParsePlaymat decodes a playmat JSON document and validates the
// spec §6 shape constraints this package is responsible for
// enforcing (the executor/loop enforce the rest at runtime).
func ParsePlaymat(data []byte) (*Playmat, error) {
	var pm Playmat
	if err := json.Unmarshal(data, &pm); err != nil {
		return nil, fmt.Errorf("gametype: parse playmat: %w", err)
	}
	if pm.PlayerCount != 1 && pm.PlayerCount != 2 {
		return nil, fmt.Errorf("gametype: playmat %q: playerCount must be 1 or 2, got %d", pm.ID, pm.PlayerCount)
	}
	if len(pm.Zones) == 0 {
		return nil, fmt.Errorf("gametype: playmat %q: no zones declared", pm.ID)
	}
	for _, slot := range pm.Layout.Slots {
		if _, ok := pm.Zones[slot.ZoneID]; !ok {
			return nil, fmt.Errorf("gametype: playmat %q: slot %q references unknown zone %q", pm.ID, slot.ID, slot.ZoneID)
		}
	}
	for playerKey, slots := range pm.PlayerSlots {
		for _, slotID := range slots {
			found := false
			for _, s := range pm.Layout.Slots {
				if s.ID == slotID {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("gametype: playmat %q: playerSlots[%q] references unknown slot %q", pm.ID, playerKey, slotID)
			}
		}
	}
	return &pm, nil
}

// ZoneOwners enumerates the (player, zoneID, shared) tuples the
// setup orchestration must instantiate for this playmat: one instance
// per player for a non-shared zone config, one instance total for a
// shared one.
func (pm *Playmat) ZoneOwners() []zoneOwner {
	owners := make([]zoneOwner, 0, len(pm.Zones))
	for id, cfg := range pm.Zones {
		if cfg.Shared {
			owners = append(owners, zoneOwner{zoneID: id, player: -1, shared: true})
			continue
		}
		for p := 0; p < pm.PlayerCount; p++ {
			owners = append(owners, zoneOwner{zoneID: id, player: p, shared: false})
		}
	}
	return owners
}

type zoneOwner struct {
	zoneID string
	player int
	shared bool
}
