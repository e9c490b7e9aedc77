// Package enginestate holds the aggregate GameState root: zones,
// players, turn/decision bookkeeping, the result, and the opaque
// per-plugin state bag. Every action mutates exactly this structure.
package enginestate

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vctt94/cardengine/pkg/zone"
)

// Phase is the coarse game phase. Only decision creation and
// resolution and end-of-turn transitions (or an explicit plugin
// override at setup-complete) may change it or the active player.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseDecision Phase = "decision"
)

// PlayerInfo is the per-player bookkeeping record.
type PlayerInfo struct {
	Index              int
	ExternalID         string
	HasConceded        bool
	HasDeclaredVictory bool
}

// Turn describes the currently-open turn.
type Turn struct {
	Number       int
	ActivePlayer int
	ActionLog    []string
	Ended        bool
}

// Decision is the single outstanding decision a target player must
// resolve before play continues. RevealedZones lists zone keys that
// revert to their configured default visibility on resolve.
type Decision struct {
	CreatedBy     int
	TargetPlayer  int
	Message       string
	RevealedZones []string
}

// Result records how the game ended.
type Result struct {
	Winner  int
	Reason  string
	Details string
}

// Config is the static configuration a game was started with: its
// zone layout and player count. GameType is a free-form identifier
// used by pkg/gametype's registry and by readable-state annotation.
type Config struct {
	GameType   string
	PlayerCount int
	Zones      map[string]zone.Config // keyed by bare zone id, not zone key
}

// State is the full game-state aggregate (spec §3).
type State struct {
	ID             string
	Config         Config
	Phase          Phase
	SetupComplete  [2]bool
	TurnNumber     int
	ActivePlayer   int
	Zones          map[string]*zone.Instance // keyed by zone key
	Players        [2]PlayerInfo
	CurrentTurn    Turn
	PendingDecision *Decision
	Result         *Result
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Log            []string
	PluginState    map[string]any
}

// New creates a fresh game state in the setup phase with no zones
// populated; callers (typically pkg/gametype's setup orchestration)
// add zone instances afterward.
func New(cfg Config) *State {
	now := time.Now()
	s := &State{
		ID:          uuid.NewString(),
		Config:      cfg,
		Phase:       PhaseSetup,
		Zones:       make(map[string]*zone.Instance),
		CreatedAt:   now,
		UpdatedAt:   now,
		PluginState: make(map[string]any),
	}
	for i := 0; i < cfg.PlayerCount; i++ {
		s.Players[i] = PlayerInfo{Index: i}
	}
	s.CurrentTurn = Turn{Number: 1, ActivePlayer: 0}
	s.TurnNumber = 1
	return s
}

// AppendLog appends a human-readable entry, auto-prefixing it with
// "[Player N]" when player is non-negative (spec §4.D point 12).
func (s *State) AppendLog(player int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if player >= 0 {
		msg = fmt.Sprintf("[Player %d] %s", player, msg)
	}
	s.Log = append(s.Log, msg)
	s.CurrentTurn.ActionLog = append(s.CurrentTurn.ActionLog, msg)
	s.UpdatedAt = time.Now()
}

// FindCard locates the zone and index of the card with the given
// instance id. Because every card must exist in exactly one zone
// (spec §3 invariant), this never finds more than one match.
func (s *State) FindCard(instanceID string) (z *zone.Instance, index int, found bool) {
	for _, z := range s.Zones {
		if idx := z.IndexOf(instanceID); idx >= 0 {
			return z, idx, true
		}
	}
	return nil, -1, false
}

// Zone looks up a zone instance by its canonical key.
func (s *State) Zone(key string) (*zone.Instance, error) {
	z, ok := s.Zones[key]
	if !ok {
		return nil, fmt.Errorf("enginestate: unknown zone %q", key)
	}
	return z, nil
}

// Opponent returns the index of the player opposite player.
func Opponent(player int) int {
	if player == 0 {
		return 1
	}
	return 0
}

// Snapshot returns a deep value-copy of the state, suitable as a
// checkpoint (spec §5, §9): restoration is wholesale replacement via
// Restore, never field-by-field merging.
func (s *State) Snapshot() *State {
	clone := *s
	clone.Zones = make(map[string]*zone.Instance, len(s.Zones))
	for k, z := range s.Zones {
		clone.Zones[k] = z.Clone()
	}
	clone.CurrentTurn = s.CurrentTurn
	clone.CurrentTurn.ActionLog = append([]string(nil), s.CurrentTurn.ActionLog...)
	clone.Log = append([]string(nil), s.Log...)
	if s.PendingDecision != nil {
		d := *s.PendingDecision
		d.RevealedZones = append([]string(nil), s.PendingDecision.RevealedZones...)
		clone.PendingDecision = &d
	}
	if s.Result != nil {
		r := *s.Result
		clone.Result = &r
	}
	clone.PluginState = make(map[string]any, len(s.PluginState))
	for k, v := range s.PluginState {
		clone.PluginState[k] = v
	}
	return &clone
}

// Restore replaces s's contents wholesale with other's, per the
// checkpoint/rewind contract (spec §4.H, §5): no partial merge.
func (s *State) Restore(other *State) {
	*s = *other
}

// InvariantViolation marks a bug-class error: an unreachable branch,
// a cascade-cap overrun, or a structural corruption such as a card
// present in two zones (spec §7). It is fatal and distinguished so
// callers can errors.As it specifically rather than treat it like an
// ordinary rejected action.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Reason)
}

// CheckCardConservation verifies every card instance exists in exactly
// one zone — the core card-conservation invariant from spec §8. It is
// intended for tests and optional runtime assertions, not the hot path.
func (s *State) CheckCardConservation() error {
	seen := make(map[string]string) // instanceID -> zone key
	for key, z := range s.Zones {
		for _, c := range z.Cards {
			if prev, dup := seen[c.InstanceID]; dup {
				return &InvariantViolation{Reason: fmt.Sprintf("card %s present in both %s and %s", c.InstanceID, prev, key)}
			}
			seen[c.InstanceID] = key
		}
	}
	return nil
}
