// Package card defines the static card template and runtime card
// instance that every zone and action operates on.
package card

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Template is the static, immutable description of a card. Game
// plugins attach their own fields through Extra rather than by
// subclassing; the core never reads Extra itself.
type Template struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	ImageRef string         `json:"imageRef,omitempty"`
	Rotation int            `json:"rotation,omitempty"` // display rotation, degrees
	Extra    map[string]any `json:"extra,omitempty"`
}

// Visibility is the per-card, per-player visibility tuple.
type Visibility struct {
	PlayerA bool `json:"playerA"`
	PlayerB bool `json:"playerB"`
}

var (
	VisibilityHidden      = Visibility{PlayerA: false, PlayerB: false}
	VisibilityPublic      = Visibility{PlayerA: true, PlayerB: true}
	VisibilityPlayerAOnly = Visibility{PlayerA: true, PlayerB: false}
	VisibilityPlayerBOnly = Visibility{PlayerA: false, PlayerB: true}
)

// ParseVisibility accepts the playmat JSON shorthands from spec §6.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "hidden":
		return VisibilityHidden, nil
	case "public":
		return VisibilityPublic, nil
	case "player_a_only":
		return VisibilityPlayerAOnly, nil
	case "player_b_only":
		return VisibilityPlayerBOnly, nil
	default:
		return Visibility{}, fmt.Errorf("card: unknown visibility shorthand %q", s)
	}
}

// SeenBy reports whether the given zero-based player index can see
// the card this visibility tuple is attached to.
func (v Visibility) SeenBy(player int) bool {
	switch player {
	case 0:
		return v.PlayerA
	case 1:
		return v.PlayerB
	default:
		return false
	}
}

// Instance is the runtime, process-unique card. Flags is an ordered
// multiset (duplicates allowed, order preserved) of engine markers
// such as "played_this_turn"; Counters maps a counter-kind to a
// non-negative count.
type Instance struct {
	InstanceID  string         `json:"instanceId"`
	TemplateID  string         `json:"templateId"`
	Visibility  Visibility     `json:"visibility"`
	Orientation string         `json:"orientation,omitempty"`
	Flags       []string       `json:"flags,omitempty"`
	Counters    map[string]int `json:"counters,omitempty"`
}

// New creates a fresh card instance with a process-unique id.
func New(templateID string, vis Visibility) *Instance {
	return &Instance{
		InstanceID: uuid.NewString(),
		TemplateID: templateID,
		Visibility: vis,
		Counters:   make(map[string]int),
	}
}

// AddFlag appends a flag, preserving duplicates (it's a multiset).
func (i *Instance) AddFlag(flag string) {
	i.Flags = append(i.Flags, flag)
}

// RemoveFlag removes the first occurrence of flag, reporting whether
// one was found.
func (i *Instance) RemoveFlag(flag string) bool {
	for idx, f := range i.Flags {
		if f == flag {
			i.Flags = append(i.Flags[:idx], i.Flags[idx+1:]...)
			return true
		}
	}
	return false
}

// HasFlag reports whether flag is present at least once.
func (i *Instance) HasFlag(flag string) bool {
	for _, f := range i.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Counter returns the current value for kind, defaulting to zero.
func (i *Instance) Counter(kind string) int {
	return i.Counters[kind]
}

// SetCounter clamps value to a non-negative floor, per spec §4.D.
func (i *Instance) SetCounter(kind string, value int) {
	if value < 0 {
		value = 0
	}
	if i.Counters == nil {
		i.Counters = make(map[string]int)
	}
	i.Counters[kind] = value
}

// AddCounter adds amount, floored at zero.
func (i *Instance) AddCounter(kind string, amount int) {
	i.SetCounter(kind, i.Counter(kind)+amount)
}

// RemoveCounter subtracts amount, floored at zero.
func (i *Instance) RemoveCounter(kind string, amount int) {
	i.SetCounter(kind, i.Counter(kind)-amount)
}

// MarshalJSON emits a Visibility using the spec §6 shorthand string
// when it matches one of the four named tuples, falling back to the
// {playerA,playerB} object form for anything else (a game-specific
// asymmetric visibility no shorthand names).
func (v Visibility) MarshalJSON() ([]byte, error) {
	switch v {
	case VisibilityHidden:
		return json.Marshal("hidden")
	case VisibilityPublic:
		return json.Marshal("public")
	case VisibilityPlayerAOnly:
		return json.Marshal("player_a_only")
	case VisibilityPlayerBOnly:
		return json.Marshal("player_b_only")
	default:
		return json.Marshal(struct {
			PlayerA bool `json:"playerA"`
			PlayerB bool `json:"playerB"`
		}{v.PlayerA, v.PlayerB})
	}
}

// UnmarshalJSON accepts either a spec §6 shorthand string or the
// explicit {playerA,playerB} object, tolerant-parsing in the same
// style as the teacher's CardJSON (pkg/poker/deck.go).
func (v *Visibility) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseVisibility(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	var obj struct {
		PlayerA bool `json:"playerA"`
		PlayerB bool `json:"playerB"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("card: visibility must be a shorthand string or {playerA,playerB}: %w", err)
	}
	v.PlayerA, v.PlayerB = obj.PlayerA, obj.PlayerB
	return nil
}

// VisibleTo reports whether this instance is visible to player.
func (i *Instance) VisibleTo(player int) bool {
	return i.Visibility.SeenBy(player)
}

// Clone returns a deep copy, used when snapshotting game state for
// checkpoints (spec §5, §9).
func (i *Instance) Clone() *Instance {
	clone := *i
	if i.Flags != nil {
		clone.Flags = append([]string(nil), i.Flags...)
	}
	if i.Counters != nil {
		clone.Counters = make(map[string]int, len(i.Counters))
		for k, v := range i.Counters {
			clone.Counters[k] = v
		}
	}
	return &clone
}
