// Package action defines the closed set of tagged-variant actions that
// flow through the game loop, and the canonical factory functions that
// are the only supported way to construct one.
package action

import "fmt"

// Type is one of the 25 built-in action kinds (spec §4.A/§9). Plugins
// never introduce new Types; they instead register a custom executor
// for one of these, or express game-specific behavior through
// declare_action's DeclarationType/Name.
type Type string

const (
	Draw            Type = "draw"
	MoveCard        Type = "move_card"
	MoveCardStack   Type = "move_card_stack"
	PlaceOnZone     Type = "place_on_zone"
	Shuffle         Type = "shuffle"
	SearchZone      Type = "search_zone"
	FlipCard        Type = "flip_card"
	SetOrientation  Type = "set_orientation"
	AddCounter      Type = "add_counter"
	RemoveCounter   Type = "remove_counter"
	SetCounter      Type = "set_counter"
	CoinFlip        Type = "coin_flip"
	DiceRoll        Type = "dice_roll"
	EndTurn         Type = "end_turn"
	Concede         Type = "concede"
	DeclareVictory  Type = "declare_victory"
	CreateDecision  Type = "create_decision"
	ResolveDecision Type = "resolve_decision"
	RevealHand      Type = "reveal_hand"
	Reveal          Type = "reveal"
	Peek            Type = "peek"
	Mulligan        Type = "mulligan"
	SwapCardStacks  Type = "swap_card_stacks"
	RearrangeZone   Type = "rearrange_zone"
	DeclareAction   Type = "declare_action"
)

// Source indicates who issued the action. UI-sourced pre-hook warnings
// are logged but do not block; AI-sourced warnings are enforced as
// blocks (spec §4.C rationale: humans can knowingly override, models
// must obey rules).
type Source string

const (
	SourceUI Source = "ui"
	SourceAI Source = "ai"
)

// Position selects which end of a zone place_on_zone targets.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Action is a single mutation request. It is intentionally a flat
// struct rather than one-interface-per-variant: the executor
// dispatches on Type in one exhaustive switch (spec §9), and only the
// fields relevant to that Type are populated. Factory functions below
// are the only supported construction path. Validate rejects a literal
// built by hand that omits Source or carries an out-of-range Player;
// an omitted Player reads as player 0 and is not detected.
type Action struct {
	Type            Type
	Player          int
	AllowedByEffect bool
	Source          Source

	Count         int      // draw count
	FromZone      string   // zone key
	ToZone        string   // zone key
	InstanceID    string   // single-card reference
	InstanceIDs   []string // move_card_stack / swap_card_stacks
	Position      Position // place_on_zone
	Orientation   string   // set_orientation
	CounterKind   string   // counter ops
	Amount        int      // add_counter/remove_counter
	Value         int      // set_counter
	Sides         int      // dice_roll die size
	Results       []int    // coin_flip/dice_roll outcomes, populated by the executor
	TargetPlayer  int      // create_decision / reveal / reveal_hand
	Message       string   // create_decision
	RevealedZones []string // create_decision auto-hide-on-resolve list
	Query         string   // search_zone filter, opaque to the core
	Order         []string // rearrange_zone target order (instance ids)

	DeclarationType string // declare_action
	Name            string // declare_action
}

// Validate reports whether a is well-formed enough to submit to a
// game loop. It does not check game-specific legality (that is a
// plugin's job); it only catches malformed literals built by hand
// instead of through a factory.
func (a *Action) Validate() error {
	if a == nil {
		return fmt.Errorf("action: nil action")
	}
	if a.Type == "" {
		return fmt.Errorf("action: missing type")
	}
	if a.Player != 0 && a.Player != 1 {
		return fmt.Errorf("action: player must be 0 or 1, got %d", a.Player)
	}
	if a.Source != SourceUI && a.Source != SourceAI {
		return fmt.Errorf("action: missing or invalid source %q", a.Source)
	}
	switch a.Type {
	case Draw:
		if a.Count <= 0 {
			return fmt.Errorf("action: draw requires a positive count")
		}
	case MoveCard:
		if a.InstanceID == "" || a.FromZone == "" || a.ToZone == "" {
			return fmt.Errorf("action: move_card requires instanceId, fromZone, toZone")
		}
	case MoveCardStack, SwapCardStacks:
		if len(a.InstanceIDs) == 0 || a.FromZone == "" || a.ToZone == "" {
			return fmt.Errorf("action: %s requires instanceIds, fromZone, toZone", a.Type)
		}
	case PlaceOnZone:
		if a.InstanceID == "" || a.ToZone == "" || (a.Position != PositionTop && a.Position != PositionBottom) {
			return fmt.Errorf("action: place_on_zone requires instanceId, toZone, position")
		}
	case Shuffle:
		if a.FromZone == "" {
			return fmt.Errorf("action: shuffle requires fromZone")
		}
	case FlipCard:
		if a.InstanceID == "" {
			return fmt.Errorf("action: flip_card requires instanceId")
		}
	case AddCounter, RemoveCounter:
		if a.InstanceID == "" || a.CounterKind == "" {
			return fmt.Errorf("action: %s requires instanceId and counterKind", a.Type)
		}
	case SetCounter:
		if a.InstanceID == "" || a.CounterKind == "" {
			return fmt.Errorf("action: set_counter requires instanceId and counterKind")
		}
	case CreateDecision:
		if a.Message == "" {
			return fmt.Errorf("action: create_decision requires a message")
		}
	case RearrangeZone:
		if a.FromZone == "" || len(a.Order) == 0 {
			return fmt.Errorf("action: rearrange_zone requires fromZone and order")
		}
	case DeclareAction:
		if a.DeclarationType == "" || a.Name == "" {
			return fmt.Errorf("action: declare_action requires declarationType and name")
		}
	}
	return nil
}

func newBase(t Type, player int, source Source, allowedByEffect bool) Action {
	return Action{Type: t, Player: player, Source: source, AllowedByEffect: allowedByEffect}
}

// NewDraw builds a draw action moving count cards from the player's
// deck zone to their hand.
func NewDraw(player int, fromZone, toZone string, count int, source Source) *Action {
	a := newBase(Draw, player, source, false)
	a.FromZone, a.ToZone, a.Count = fromZone, toZone, count
	return &a
}

// NewMoveCard builds a single-card move between two zones.
func NewMoveCard(player int, instanceID, fromZone, toZone string, source Source, allowedByEffect bool) *Action {
	a := newBase(MoveCard, player, source, allowedByEffect)
	a.InstanceID, a.FromZone, a.ToZone = instanceID, fromZone, toZone
	return &a
}

// NewMoveCardStack builds a multi-card move between two zones,
// preserving the given relative order.
func NewMoveCardStack(player int, instanceIDs []string, fromZone, toZone string, source Source, allowedByEffect bool) *Action {
	a := newBase(MoveCardStack, player, source, allowedByEffect)
	a.InstanceIDs, a.FromZone, a.ToZone = instanceIDs, fromZone, toZone
	return &a
}

// NewPlaceOnZone builds an action placing a single card at the top or
// bottom of a zone (e.g. "put this on top of the discard pile").
func NewPlaceOnZone(player int, instanceID, toZone string, pos Position, source Source, allowedByEffect bool) *Action {
	a := newBase(PlaceOnZone, player, source, allowedByEffect)
	a.InstanceID, a.ToZone, a.Position = instanceID, toZone, pos
	return &a
}

// NewShuffle builds a shuffle action over an ordered zone.
func NewShuffle(player int, zoneKey string, source Source) *Action {
	a := newBase(Shuffle, player, source, false)
	a.FromZone = zoneKey
	return &a
}

// NewSearchZone builds a search over a zone; Query is opaque to the
// core and interpreted by the tool/plugin that issued it.
func NewSearchZone(player int, zoneKey, query string, source Source) *Action {
	a := newBase(SearchZone, player, source, false)
	a.FromZone, a.Query = zoneKey, query
	return &a
}

// NewFlipCard builds an action inverting a card's visibility for both
// players; it takes no target visibility.
func NewFlipCard(player int, instanceID string, source Source) *Action {
	a := newBase(FlipCard, player, source, false)
	a.InstanceID = instanceID
	return &a
}

// NewSetOrientation builds an action setting a card's free-form
// orientation string (e.g. a rotation marker).
func NewSetOrientation(player int, instanceID, orientation string, source Source) *Action {
	a := newBase(SetOrientation, player, source, false)
	a.InstanceID, a.Orientation = instanceID, orientation
	return &a
}

// NewAddCounter builds a counter increment, floored at zero by the executor.
func NewAddCounter(player int, instanceID, kind string, amount int, source Source) *Action {
	a := newBase(AddCounter, player, source, false)
	a.InstanceID, a.CounterKind, a.Amount = instanceID, kind, amount
	return &a
}

// NewRemoveCounter builds a counter decrement, floored at zero by the executor.
func NewRemoveCounter(player int, instanceID, kind string, amount int, source Source) *Action {
	a := newBase(RemoveCounter, player, source, false)
	a.InstanceID, a.CounterKind, a.Amount = instanceID, kind, amount
	return &a
}

// NewSetCounter builds an absolute counter assignment, floored at zero.
func NewSetCounter(player int, instanceID, kind string, value int, source Source) *Action {
	a := newBase(SetCounter, player, source, false)
	a.InstanceID, a.CounterKind, a.Value = instanceID, kind, value
	return &a
}

// NewCoinFlip builds a coin flip; Results is populated by the executor.
func NewCoinFlip(player int, source Source) *Action {
	return &Action{Type: CoinFlip, Player: player, Source: source}
}

// NewDiceRoll builds a dice roll of the given number of sides; Results
// is populated by the executor.
func NewDiceRoll(player, sides int, source Source) *Action {
	a := newBase(DiceRoll, player, source, false)
	a.Sides = sides
	return &a
}

// NewEndTurn builds an end-of-turn action.
func NewEndTurn(player int, source Source) *Action {
	return &Action{Type: EndTurn, Player: player, Source: source}
}

// NewConcede builds a concession action.
func NewConcede(player int, source Source) *Action {
	return &Action{Type: Concede, Player: player, Source: source}
}

// NewDeclareVictory builds a victory-declaration action; executing it
// records the declaring player as the winner.
func NewDeclareVictory(player int, reason string, source Source) *Action {
	a := newBase(DeclareVictory, player, source, false)
	a.Message = reason
	return &a
}

// NewCreateDecision builds a decision the target player must resolve
// before play continues; revealedZones auto-hide once resolved.
func NewCreateDecision(player, targetPlayer int, message string, revealedZones []string, source Source) *Action {
	a := newBase(CreateDecision, player, source, false)
	a.TargetPlayer, a.Message, a.RevealedZones = targetPlayer, message, revealedZones
	return &a
}

// NewResolveDecision builds the resolution of the current pending decision.
func NewResolveDecision(player int, source Source) *Action {
	return &Action{Type: ResolveDecision, Player: player, Source: source}
}

// NewRevealHand builds an action revealing a player's whole hand to
// the opponent until the caller chooses to re-hide it (via flip_card).
func NewRevealHand(player, targetPlayer int, source Source) *Action {
	a := newBase(RevealHand, player, source, false)
	a.TargetPlayer = targetPlayer
	return &a
}

// NewReveal builds an action revealing a single card to targetPlayer.
func NewReveal(player int, instanceID string, targetPlayer int, source Source) *Action {
	a := newBase(Reveal, player, source, false)
	a.InstanceID, a.TargetPlayer = instanceID, targetPlayer
	return &a
}

// NewPeek builds an action letting player look at a zone without
// revealing it to the opponent; result is a tool-level concern, not a
// state mutation.
func NewPeek(player int, zoneKey string, source Source) *Action {
	a := newBase(Peek, player, source, false)
	a.FromZone = zoneKey
	return &a
}

// NewMulligan builds a mulligan request; plugins decide the concrete
// reshuffle-and-redraw semantics via a custom executor or post-hook.
func NewMulligan(player int, source Source) *Action {
	return &Action{Type: Mulligan, Player: player, Source: source}
}

// NewSwapCardStacks builds an action moving the named cards from
// fromZone to toZone; the executor runs it exactly like
// move_card_stack, so no cards move back from toZone.
func NewSwapCardStacks(player int, instanceIDs []string, fromZone, toZone string, source Source, allowedByEffect bool) *Action {
	a := newBase(SwapCardStacks, player, source, allowedByEffect)
	a.InstanceIDs, a.FromZone, a.ToZone = instanceIDs, fromZone, toZone
	return &a
}

// NewRearrangeZone builds an action permuting a zone's card order in place.
func NewRearrangeZone(player int, zoneKey string, order []string, source Source) *Action {
	a := newBase(RearrangeZone, player, source, false)
	a.FromZone, a.Order = zoneKey, order
	return &a
}

// NewDeclareAction builds a plugin-defined named declaration (e.g.
// "attack X", "use ability Y"). The core only logs and fires hooks;
// plugins validate declarationType/name themselves (spec §9 open
// question (b)).
func NewDeclareAction(player int, declarationType, name, message string, source Source) *Action {
	a := newBase(DeclareAction, player, source, false)
	a.DeclarationType, a.Name, a.Message = declarationType, name, message
	return &a
}
