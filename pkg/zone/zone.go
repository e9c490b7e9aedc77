// Package zone implements zone configuration and the zone instances
// that hold ordered card sequences for a game.
package zone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vctt94/cardengine/pkg/card"
)

// Config is the static description of a zone, shared by every game
// that uses it (decks, hands, discard piles, tableaus, ...).
type Config struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Ordered             bool            `json:"ordered"`
	DefaultVisibility   card.Visibility `json:"defaultVisibility"`
	MaxCards            int             `json:"maxCards"` // -1 = unlimited
	OwnerCanSeeContents bool            `json:"ownerCanSeeContents"`
	OpponentCanSeeCount bool            `json:"opponentCanSeeCount"`
	Shared              bool            `json:"shared,omitempty"`
	CanHaveCounters     bool            `json:"canHaveCounters,omitempty"`
	Shuffleable         bool            `json:"shuffleable,omitempty"`
}

// Key builds the canonical zone-key string per spec §6:
// "playerN_zoneId" for per-player zones, bare "zoneId" for shared ones.
func Key(player int, zoneID string, shared bool) string {
	if shared {
		return zoneID
	}
	return fmt.Sprintf("player%d_%s", player, zoneID)
}

// ParseKey splits a zone key back into its player index (or -1 for a
// shared zone) and zone id.
func ParseKey(key string) (player int, zoneID string, shared bool, err error) {
	if !strings.HasPrefix(key, "player") {
		return -1, key, true, nil
	}
	rest := key[len("player"):]
	idx := strings.IndexByte(rest, '_')
	if idx < 0 {
		return 0, "", false, fmt.Errorf("zone: malformed key %q", key)
	}
	n, err := strconv.Atoi(rest[:idx])
	if err != nil {
		return 0, "", false, fmt.Errorf("zone: malformed player index in key %q: %w", key, err)
	}
	return n, rest[idx+1:], false, nil
}

// Instance is one concrete zone belonging to a game: its static
// Config plus the live ordered sequence of cards. Cards[0] is the
// visual bottom; the last element is the visual top.
type Instance struct {
	Key    string          `json:"key"`
	Config Config          `json:"config"`
	Owner  int             `json:"owner"` // -1 for shared zones
	Cards  []*card.Instance `json:"cards"`
}

// New creates an empty zone instance.
func New(key string, cfg Config, owner int) *Instance {
	return &Instance{
		Key:    key,
		Config: cfg,
		Owner:  owner,
		Cards:  make([]*card.Instance, 0),
	}
}

// Full reports whether the zone is at its configured capacity.
func (z *Instance) Full() bool {
	return z.Config.MaxCards >= 0 && len(z.Cards) >= z.Config.MaxCards
}

// WouldOverflow reports whether adding n cards would exceed capacity.
func (z *Instance) WouldOverflow(n int) bool {
	return z.Config.MaxCards >= 0 && len(z.Cards)+n > z.Config.MaxCards
}

// PushTop appends a card at the visual top (back of the slice).
func (z *Instance) PushTop(c *card.Instance) {
	z.Cards = append(z.Cards, c)
}

// PushBottom inserts a card at the visual bottom (front of the slice).
func (z *Instance) PushBottom(c *card.Instance) {
	z.Cards = append([]*card.Instance{c}, z.Cards...)
}

// Top returns the visual top card, or nil if the zone is empty.
func (z *Instance) Top() *card.Instance {
	if len(z.Cards) == 0 {
		return nil
	}
	return z.Cards[len(z.Cards)-1]
}

// PopTop removes and returns the visual top card.
func (z *Instance) PopTop() (*card.Instance, error) {
	if len(z.Cards) == 0 {
		return nil, fmt.Errorf("zone %s: cannot pop from empty zone", z.Key)
	}
	c := z.Cards[len(z.Cards)-1]
	z.Cards = z.Cards[:len(z.Cards)-1]
	return c, nil
}

// IndexOf returns the index of the card with the given instance id,
// or -1 if not present.
func (z *Instance) IndexOf(instanceID string) int {
	for i, c := range z.Cards {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// RemoveAt removes and returns the card at idx.
func (z *Instance) RemoveAt(idx int) (*card.Instance, error) {
	if idx < 0 || idx >= len(z.Cards) {
		return nil, fmt.Errorf("zone %s: index %d out of range (len=%d)", z.Key, idx, len(z.Cards))
	}
	c := z.Cards[idx]
	z.Cards = append(z.Cards[:idx], z.Cards[idx+1:]...)
	return c, nil
}

// InsertAt inserts c at idx, shifting subsequent cards up.
func (z *Instance) InsertAt(idx int, c *card.Instance) error {
	if idx < 0 || idx > len(z.Cards) {
		return fmt.Errorf("zone %s: insert index %d out of range (len=%d)", z.Key, idx, len(z.Cards))
	}
	z.Cards = append(z.Cards, nil)
	copy(z.Cards[idx+1:], z.Cards[idx:])
	z.Cards[idx] = c
	return nil
}

// Reorder replaces the zone's card order with the cards named by
// instanceIDs, which must be a permutation of the zone's current
// contents (used by the rearrange_zone action).
func (z *Instance) Reorder(instanceIDs []string) error {
	if len(instanceIDs) != len(z.Cards) {
		return fmt.Errorf("zone %s: reorder list has %d ids, zone has %d cards", z.Key, len(instanceIDs), len(z.Cards))
	}
	byID := make(map[string]*card.Instance, len(z.Cards))
	for _, c := range z.Cards {
		byID[c.InstanceID] = c
	}
	reordered := make([]*card.Instance, len(instanceIDs))
	for i, id := range instanceIDs {
		c, ok := byID[id]
		if !ok {
			return fmt.Errorf("zone %s: reorder references unknown card %s", z.Key, id)
		}
		reordered[i] = c
	}
	z.Cards = reordered
	return nil
}

// ApplyDefaultVisibility resets every card in the zone to the zone's
// configured default visibility, used on decision resolution.
func (z *Instance) ApplyDefaultVisibility() {
	for _, c := range z.Cards {
		c.Visibility = z.Config.DefaultVisibility
	}
}

// Clone returns a deep copy of the zone instance, used for checkpoint
// snapshots (spec §5, §9).
func (z *Instance) Clone() *Instance {
	clone := &Instance{Key: z.Key, Config: z.Config, Owner: z.Owner}
	clone.Cards = make([]*card.Instance, len(z.Cards))
	for i, c := range z.Cards {
		clone.Cards[i] = c.Clone()
	}
	return clone
}
