// Package executor applies one action to a game state, enforcing the
// universal opponent-zone and capacity rules and the per-variant
// built-in semantics (spec §4.D).
package executor

import (
	"fmt"
	"math/rand"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/card"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/zone"
)

// Config configures an Executor. RNG is injectable so shuffles, coin
// flips, and dice rolls are reproducible in tests (spec §4.D point 5,
// §8 idempotence law) — mirrors the teacher's NewDeck(rng) convention
// of threading a *rand.Rand through construction rather than reading
// a package-global source.
type Config struct {
	RNG     *rand.Rand
	Plugins *plugin.Manager // may be nil; custom executors are then never consulted
	Log     slog.Logger
}

// Executor applies actions to game state.
type Executor struct {
	cfg Config
}

// New creates an Executor. If cfg.RNG is nil, a fixed-seed source
// (seed 1) is used, so shuffles and rolls are reproducible by default.
func New(cfg Config) *Executor {
	if cfg.RNG == nil {
		cfg.RNG = rand.New(rand.NewSource(1))
	}
	return &Executor{cfg: cfg}
}

// Rejected marks an action that a universal rule refused before it
// ever reached built-in or custom semantics (the opponent-zone and
// capacity checks from spec §4.D points 2-3). Blocked is true when
// the rule is hard-enforced (capacity, or opponent-zone with an
// AI-sourced action); when false (opponent-zone with a UI-sourced
// action) the caller should log Reason as a warning and still execute
// the action — see gameloop, which is the only intended caller of
// CheckUniversalRules.
type Rejected struct {
	Blocked bool
	Reason  string
}

func (r *Rejected) Error() string { return r.Reason }

// CheckUniversalRules enforces the opponent-zone and capacity rules
// that apply to every move_card / move_card_stack / place_on_zone
// action regardless of game (spec §4.D points 2-3, §8 invariants).
// It never mutates state.
func (e *Executor) CheckUniversalRules(state *enginestate.State, a *action.Action) *Rejected {
	n := 1
	switch a.Type {
	case action.Draw:
		n = a.Count
	case action.MoveCardStack, action.SwapCardStacks:
		n = len(a.InstanceIDs)
	case action.MoveCard, action.PlaceOnZone:
	default:
		return nil
	}

	toZone, err := state.Zone(a.ToZone)
	if err != nil {
		return &Rejected{Blocked: true, Reason: err.Error()}
	}

	// The opponent-zone rule only governs a player moving a card they
	// already control; draw always targets the drawing player's own zone.
	if a.Type != action.Draw && !toZone.Config.Shared && toZone.Owner != a.Player && !a.AllowedByEffect {
		reason := fmt.Sprintf("cannot move into opponent's %s without an effect override", toZone.Config.Name)
		// AI warnings are enforced as blocks; UI warnings are logged only.
		return &Rejected{Blocked: a.Source == action.SourceAI, Reason: reason}
	}

	if toZone.WouldOverflow(n) {
		return &Rejected{Blocked: true, Reason: fmt.Sprintf("zone %s is full", toZone.Key)}
	}
	return nil
}

// Execute applies a to state. The caller (gameloop) is responsible for
// having already run blockers, CheckUniversalRules, and the pre-hook
// chain; Execute assumes a has survived all of that and focuses only
// on applying semantics.
func (e *Executor) Execute(state *enginestate.State, a *action.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}

	if e.cfg.Plugins != nil {
		if custom, ok := e.cfg.Plugins.CustomExecutor(a.Type); ok {
			if err := custom(state, a); err != nil {
				return err
			}
			state.AppendLog(a.Player, "%s", describe(a))
			return nil
		}
	}

	var err error
	switch a.Type {
	case action.Draw:
		err = e.executeDraw(state, a)
	case action.MoveCard:
		err = e.executeMoveCard(state, a)
	case action.MoveCardStack, action.SwapCardStacks:
		err = e.executeMoveCardStack(state, a)
	case action.PlaceOnZone:
		err = e.executePlaceOnZone(state, a)
	case action.Shuffle:
		err = e.executeShuffle(state, a)
	case action.SearchZone, action.Peek:
		// Pure read operations: no state mutation, just a log entry so
		// the action is visible in history. Result delivery to the
		// caller is a tool-layer concern (pkg/tool), not a state change.
	case action.FlipCard:
		err = e.executeFlipCard(state, a)
	case action.SetOrientation:
		err = e.executeSetOrientation(state, a)
	case action.AddCounter:
		err = e.executeCounterOp(state, a, counterAdd)
	case action.RemoveCounter:
		err = e.executeCounterOp(state, a, counterRemove)
	case action.SetCounter:
		err = e.executeCounterOp(state, a, counterSet)
	case action.CoinFlip:
		e.executeCoinFlip(a)
	case action.DiceRoll:
		e.executeDiceRoll(a)
	case action.EndTurn:
		err = e.executeEndTurn(state, a)
	case action.Concede:
		err = e.executeConcede(state, a)
	case action.DeclareVictory:
		err = e.executeDeclareVictory(state, a)
	case action.CreateDecision:
		err = e.executeCreateDecision(state, a)
	case action.ResolveDecision:
		err = e.executeResolveDecision(state, a)
	case action.RevealHand:
		err = e.executeRevealHand(state, a)
	case action.Reveal:
		err = e.executeReveal(state, a)
	case action.Mulligan:
		// The core has no built-in mulligan semantics; a plugin must
		// supply a custom executor or post-hook. Logging only here
		// documents that the declaration happened.
	case action.RearrangeZone:
		err = e.executeRearrangeZone(state, a)
	case action.DeclareAction:
		// Plugins validate declarationType/name themselves (spec §9
		// open question b); the core only logs and fires hooks.
	default:
		return &enginestate.InvariantViolation{Reason: fmt.Sprintf("unreachable action type %q", a.Type)}
	}
	if err != nil {
		return err
	}

	state.AppendLog(a.Player, "%s", describe(a))
	return nil
}

func describe(a *action.Action) string {
	switch a.Type {
	case action.Draw:
		return fmt.Sprintf("drew %d from %s", a.Count, a.FromZone)
	case action.MoveCard:
		return fmt.Sprintf("moved a card from %s to %s", a.FromZone, a.ToZone)
	case action.MoveCardStack, action.SwapCardStacks:
		return fmt.Sprintf("moved %d cards from %s to %s", len(a.InstanceIDs), a.FromZone, a.ToZone)
	case action.PlaceOnZone:
		return fmt.Sprintf("placed a card on %s of %s", a.Position, a.ToZone)
	case action.Shuffle:
		return fmt.Sprintf("shuffled %s", a.FromZone)
	case action.FlipCard:
		return "flipped a card"
	case action.CoinFlip:
		return fmt.Sprintf("flipped a coin: %v", a.Results)
	case action.DiceRoll:
		return fmt.Sprintf("rolled a d%d: %v", a.Sides, a.Results)
	case action.EndTurn:
		return "ended their turn"
	case action.Concede:
		return "conceded"
	case action.DeclareVictory:
		return fmt.Sprintf("declared victory: %s", a.Message)
	case action.CreateDecision:
		return fmt.Sprintf("created a decision: %s", a.Message)
	case action.ResolveDecision:
		return "resolved the pending decision"
	case action.DeclareAction:
		return fmt.Sprintf("declared %s: %s", a.DeclarationType, a.Name)
	default:
		return string(a.Type)
	}
}

func (e *Executor) executeDraw(state *enginestate.State, a *action.Action) error {
	from, err := state.Zone(a.FromZone)
	if err != nil {
		return err
	}
	to, err := state.Zone(a.ToZone)
	if err != nil {
		return err
	}
	actual := a.Count
	if len(from.Cards) < actual {
		actual = len(from.Cards)
	}
	if to.WouldOverflow(actual) {
		return &enginestate.InvariantViolation{Reason: fmt.Sprintf("draw would overflow %s past its blocker check", to.Key)}
	}
	for i := 0; i < a.Count; i++ {
		if len(from.Cards) == 0 {
			// Deck-out semantics are plugin/observer-driven (spec §4.D
			// point 4); the built-in behavior is simply to stop early.
			break
		}
		c, err := from.PopTop()
		if err != nil {
			return err
		}
		// Visibility-monotone-at-entry (spec §8): draw is a hand-entry
		// path like move_card/move_card_stack/place_on_zone, so it gets
		// the same owner-only auto-reveal rather than the zone's default.
		if isHandZone(to) {
			c.Visibility = ownerOnlyVisibility(to.Owner)
		} else {
			c.Visibility = to.Config.DefaultVisibility
		}
		to.PushTop(c)
	}
	return nil
}

func (e *Executor) executeMoveCard(state *enginestate.State, a *action.Action) error {
	from, err := state.Zone(a.FromZone)
	if err != nil {
		return err
	}
	to, err := state.Zone(a.ToZone)
	if err != nil {
		return err
	}
	idx := from.IndexOf(a.InstanceID)
	if idx < 0 {
		return fmt.Errorf("card %s not found in %s", a.InstanceID, from.Key)
	}
	c, err := from.RemoveAt(idx)
	if err != nil {
		return err
	}
	// Visibility-monotone-at-entry (spec §8): a card entering a zone
	// gets the zone's default visibility unless it's entering a hand
	// (universal auto-reveal to its owner). flip_card, reveal,
	// reveal_hand and decision resolution change visibility on their
	// own paths, and none of them calls this.
	if isHandZone(to) {
		c.Visibility = ownerOnlyVisibility(to.Owner)
	} else {
		c.Visibility = to.Config.DefaultVisibility
	}
	to.PushTop(c)
	return nil
}

func (e *Executor) executeMoveCardStack(state *enginestate.State, a *action.Action) error {
	from, err := state.Zone(a.FromZone)
	if err != nil {
		return err
	}
	to, err := state.Zone(a.ToZone)
	if err != nil {
		return err
	}
	moved := make([]*card.Instance, 0, len(a.InstanceIDs))
	for _, id := range a.InstanceIDs {
		idx := from.IndexOf(id)
		if idx < 0 {
			return fmt.Errorf("card %s not found in %s", id, from.Key)
		}
		c, err := from.RemoveAt(idx)
		if err != nil {
			return err
		}
		moved = append(moved, c)
	}
	for _, c := range moved {
		if isHandZone(to) {
			c.Visibility = ownerOnlyVisibility(to.Owner)
		} else {
			c.Visibility = to.Config.DefaultVisibility
		}
		to.PushTop(c)
	}
	return nil
}

func (e *Executor) executePlaceOnZone(state *enginestate.State, a *action.Action) error {
	z, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return fmt.Errorf("card %s not found in any zone", a.InstanceID)
	}
	to, err := state.Zone(a.ToZone)
	if err != nil {
		return err
	}
	c, err := z.RemoveAt(idx)
	if err != nil {
		return err
	}
	if isHandZone(to) {
		c.Visibility = ownerOnlyVisibility(to.Owner)
	} else {
		c.Visibility = to.Config.DefaultVisibility
	}
	if a.Position == action.PositionBottom {
		to.PushBottom(c)
	} else {
		to.PushTop(c)
	}
	return nil
}

func (e *Executor) executeShuffle(state *enginestate.State, a *action.Action) error {
	z, err := state.Zone(a.FromZone)
	if err != nil {
		return err
	}
	e.cfg.RNG.Shuffle(len(z.Cards), func(i, j int) {
		z.Cards[i], z.Cards[j] = z.Cards[j], z.Cards[i]
	})
	return nil
}

func (e *Executor) executeFlipCard(state *enginestate.State, a *action.Action) error {
	z, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return fmt.Errorf("card %s not found in any zone", a.InstanceID)
	}
	c := z.Cards[idx]
	c.Visibility = card.Visibility{PlayerA: !c.Visibility.PlayerA, PlayerB: !c.Visibility.PlayerB}
	return nil
}

func (e *Executor) executeSetOrientation(state *enginestate.State, a *action.Action) error {
	z, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return fmt.Errorf("card %s not found in any zone", a.InstanceID)
	}
	z.Cards[idx].Orientation = a.Orientation
	return nil
}

type counterOp int

const (
	counterAdd counterOp = iota
	counterRemove
	counterSet
)

func (e *Executor) executeCounterOp(state *enginestate.State, a *action.Action, op counterOp) error {
	z, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return fmt.Errorf("card %s not found in any zone", a.InstanceID)
	}
	c := z.Cards[idx]
	switch op {
	case counterAdd:
		c.AddCounter(a.CounterKind, a.Amount)
	case counterRemove:
		c.RemoveCounter(a.CounterKind, a.Amount)
	case counterSet:
		c.SetCounter(a.CounterKind, a.Value)
	}
	return nil
}

func (e *Executor) executeCoinFlip(a *action.Action) {
	if e.cfg.RNG.Intn(2) == 0 {
		a.Results = []int{0} // heads
	} else {
		a.Results = []int{1} // tails
	}
}

func (e *Executor) executeDiceRoll(a *action.Action) {
	sides := a.Sides
	if sides <= 0 {
		sides = 6
	}
	a.Results = []int{e.cfg.RNG.Intn(sides) + 1}
}

func (e *Executor) executeEndTurn(state *enginestate.State, a *action.Action) error {
	if state.PendingDecision != nil {
		return &Rejected{Blocked: true, Reason: "cannot end turn while a decision is pending"}
	}
	state.CurrentTurn.Ended = true
	state.TurnNumber++
	state.ActivePlayer = enginestate.Opponent(state.ActivePlayer)
	state.CurrentTurn = enginestate.Turn{Number: state.TurnNumber, ActivePlayer: state.ActivePlayer}

	for _, z := range state.Zones {
		for _, c := range z.Cards {
			c.RemoveFlag("played_this_turn")
		}
	}
	return nil
}

func (e *Executor) executeConcede(state *enginestate.State, a *action.Action) error {
	state.Players[a.Player].HasConceded = true
	state.Result = &enginestate.Result{
		Winner: enginestate.Opponent(a.Player),
		Reason: "concede",
	}
	return nil
}

func (e *Executor) executeDeclareVictory(state *enginestate.State, a *action.Action) error {
	state.Players[a.Player].HasDeclaredVictory = true
	state.Result = &enginestate.Result{
		Winner:  a.Player,
		Reason:  "declared",
		Details: a.Message,
	}
	return nil
}

func (e *Executor) executeCreateDecision(state *enginestate.State, a *action.Action) error {
	if state.PendingDecision != nil {
		return &Rejected{Blocked: true, Reason: "a decision is already pending"}
	}
	state.PendingDecision = &enginestate.Decision{
		CreatedBy:     a.Player,
		TargetPlayer:  a.TargetPlayer,
		Message:       a.Message,
		RevealedZones: a.RevealedZones,
	}
	state.Phase = enginestate.PhaseDecision
	return nil
}

func (e *Executor) executeResolveDecision(state *enginestate.State, a *action.Action) error {
	d := state.PendingDecision
	if d == nil {
		return &Rejected{Blocked: true, Reason: "no decision is pending"}
	}
	if a.Player != d.TargetPlayer {
		return &Rejected{Blocked: true, Reason: "only the target player may resolve this decision"}
	}
	for _, key := range d.RevealedZones {
		if z, ok := state.Zones[key]; ok {
			z.ApplyDefaultVisibility()
		}
	}
	state.PendingDecision = nil
	if state.Phase == enginestate.PhaseDecision {
		if state.SetupComplete[0] && state.SetupComplete[1] {
			state.Phase = enginestate.PhasePlaying
		} else {
			state.Phase = enginestate.PhaseSetup
		}
	}
	return nil
}

func (e *Executor) executeRevealHand(state *enginestate.State, a *action.Action) error {
	handKey := zone.Key(a.Player, "hand", false)
	z, ok := state.Zones[handKey]
	if !ok {
		return fmt.Errorf("player %d has no hand zone", a.Player)
	}
	vis := card.VisibilityPublic
	for _, c := range z.Cards {
		c.Visibility = vis
	}
	return nil
}

func (e *Executor) executeReveal(state *enginestate.State, a *action.Action) error {
	z, idx, found := state.FindCard(a.InstanceID)
	if !found {
		return fmt.Errorf("card %s not found in any zone", a.InstanceID)
	}
	c := z.Cards[idx]
	if a.TargetPlayer == 0 {
		c.Visibility.PlayerA = true
	} else {
		c.Visibility.PlayerB = true
	}
	return nil
}

func (e *Executor) executeRearrangeZone(state *enginestate.State, a *action.Action) error {
	z, err := state.Zone(a.FromZone)
	if err != nil {
		return err
	}
	return z.Reorder(a.Order)
}

func isHandZone(z *zone.Instance) bool {
	return z.Config.ID == "hand"
}

func ownerOnlyVisibility(owner int) card.Visibility {
	if owner == 0 {
		return card.VisibilityPlayerAOnly
	}
	return card.VisibilityPlayerBOnly
}
