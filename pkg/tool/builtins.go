package tool

import (
	"fmt"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/gameloop"
)

// outcomeToString translates a gameloop.Outcome into the string shape
// the model expects (spec §6's "Action blocked: ..."/"Error: ..."
// prefixes, or a plain success description).
func outcomeToString(outcome gameloop.Outcome, err error, onSuccess string) string {
	if err != nil {
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if outcome.Blocked {
		return fmt.Sprintf("Action blocked: %s", outcome.Reason)
	}
	if outcome.Rejected {
		return fmt.Sprintf("Action blocked: %s", outcome.Reason)
	}
	return onSuccess
}

func str(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func strSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func num(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// builtins returns the universal, game-agnostic tools every engine
// instance ships (spec §4.G).
func builtins() []*Tool {
	return []*Tool{
		{
			Name:        "draw",
			Description: "Draw cards from a zone into another zone, typically from a deck to your hand.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fromZone": map[string]any{"type": "string"},
					"toZone":   map[string]any{"type": "string"},
					"count":    map[string]any{"type": "integer"},
				},
				"required": []string{"fromZone", "toZone", "count"},
			},
			Modes: []Mode{ModeSetup, ModeStartOfTurn, ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewDraw(ctx.Player, str(args, "fromZone"), str(args, "toZone"), num(args, "count"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Drew %d card(s) from %s to %s.", num(args, "count"), str(args, "fromZone"), str(args, "toZone")))
			},
		},
		{
			Name:        "move_card",
			Description: "Move a single card, by instance id, from one zone to another.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId": map[string]any{"type": "string"},
					"fromZone":   map[string]any{"type": "string"},
					"toZone":     map[string]any{"type": "string"},
				},
				"required": []string{"instanceId", "fromZone", "toZone"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewMoveCard(ctx.Player, str(args, "instanceId"), str(args, "fromZone"), str(args, "toZone"), action.SourceAI, false)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Moved card to %s.", str(args, "toZone")))
			},
		},
		{
			Name:        "flip_card",
			Description: "Flip a card's visibility (reveal if hidden, hide if revealed).",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"instanceId": map[string]any{"type": "string"}},
				"required":   []string{"instanceId"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewFlipCard(ctx.Player, str(args, "instanceId"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Flipped the card.")
			},
		},
		{
			Name:        "set_orientation",
			Description: "Set a card's free-form orientation marker (e.g. a rotation state).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId":  map[string]any{"type": "string"},
					"orientation": map[string]any{"type": "string"},
				},
				"required": []string{"instanceId", "orientation"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewSetOrientation(ctx.Player, str(args, "instanceId"), str(args, "orientation"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Set orientation to %s.", str(args, "orientation")))
			},
		},
		{
			Name:        "add_counter",
			Description: "Add amount to a card's counter of the given kind.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId":  map[string]any{"type": "string"},
					"counterKind": map[string]any{"type": "string"},
					"amount":      map[string]any{"type": "integer"},
				},
				"required": []string{"instanceId", "counterKind", "amount"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewAddCounter(ctx.Player, str(args, "instanceId"), str(args, "counterKind"), num(args, "amount"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Added %d to %s.", num(args, "amount"), str(args, "counterKind")))
			},
		},
		{
			Name:        "remove_counter",
			Description: "Remove amount from a card's counter of the given kind, floored at zero.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId":  map[string]any{"type": "string"},
					"counterKind": map[string]any{"type": "string"},
					"amount":      map[string]any{"type": "integer"},
				},
				"required": []string{"instanceId", "counterKind", "amount"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewRemoveCounter(ctx.Player, str(args, "instanceId"), str(args, "counterKind"), num(args, "amount"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Removed %d from %s.", num(args, "amount"), str(args, "counterKind")))
			},
		},
		{
			Name:        "set_counter",
			Description: "Set a card's counter of the given kind to an absolute value, floored at zero.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId":  map[string]any{"type": "string"},
					"counterKind": map[string]any{"type": "string"},
					"value":       map[string]any{"type": "integer"},
				},
				"required": []string{"instanceId", "counterKind", "value"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewSetCounter(ctx.Player, str(args, "instanceId"), str(args, "counterKind"), num(args, "value"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Set %s to %d.", str(args, "counterKind"), num(args, "value")))
			},
		},
		{
			Name:        "coin_flip",
			Description: "Flip a coin; the result is recorded in the event log.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Modes:       []Mode{ModeMain, ModeSetup},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewCoinFlip(ctx.Player, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				if err != nil || outcome.Blocked || outcome.Rejected {
					return outcomeToString(outcome, err, "")
				}
				if len(outcome.Action.Results) > 0 && outcome.Action.Results[0] == 0 {
					return "Coin flip: heads."
				}
				return "Coin flip: tails."
			},
		},
		{
			Name:        "dice_roll",
			Description: "Roll a die with the given number of sides (default 6).",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"sides": map[string]any{"type": "integer"}},
			},
			Modes: []Mode{ModeMain, ModeSetup},
			Execute: func(ctx *Context, args map[string]any) string {
				sides := num(args, "sides")
				a := action.NewDiceRoll(ctx.Player, sides, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				if err != nil || outcome.Blocked || outcome.Rejected {
					return outcomeToString(outcome, err, "")
				}
				return fmt.Sprintf("Dice roll: %d.", outcome.Action.Results[0])
			},
		},
		{
			Name:        "peek",
			Description: "Look at a zone's contents without revealing it to the opponent.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"zoneKey": map[string]any{"type": "string"}},
				"required":   []string{"zoneKey"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				zoneKey := str(args, "zoneKey")
				a := action.NewPeek(ctx.Player, zoneKey, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				if err != nil || outcome.Blocked || outcome.Rejected {
					return outcomeToString(outcome, err, "")
				}
				z, zerr := ctx.State.Zone(zoneKey)
				if zerr != nil {
					return fmt.Sprintf("Error: %s", zerr.Error())
				}
				names := make([]string, 0, len(z.Cards))
				for _, c := range z.Cards {
					name, ok := ctx.Lookup(c.TemplateID)
					if !ok {
						name = c.TemplateID
					}
					names = append(names, name)
				}
				return fmt.Sprintf("Peeked at %s: %v", zoneKey, names)
			},
		},
		{
			Name:        "search_zone",
			Description: "Search a zone with a free-form query; the result is left for game-specific interpretation.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"zoneKey": map[string]any{"type": "string"},
					"query":   map[string]any{"type": "string"},
				},
				"required": []string{"zoneKey"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewSearchZone(ctx.Player, str(args, "zoneKey"), str(args, "query"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Searched %s for %q.", str(args, "zoneKey"), str(args, "query")))
			},
		},
		{
			Name:        "reveal",
			Description: "Reveal a single card to a specific player.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"instanceId":   map[string]any{"type": "string"},
					"targetPlayer": map[string]any{"type": "integer"},
				},
				"required": []string{"instanceId", "targetPlayer"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewReveal(ctx.Player, str(args, "instanceId"), num(args, "targetPlayer"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Revealed the card.")
			},
		},
		{
			Name:        "reveal_hand",
			Description: "Reveal your entire hand to a specific player.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"targetPlayer": map[string]any{"type": "integer"}},
				"required":   []string{"targetPlayer"},
			},
			Modes: []Mode{ModeMain, ModeDecision},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewRevealHand(ctx.Player, num(args, "targetPlayer"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Revealed your hand.")
			},
		},
		{
			Name:        "end_turn",
			Description: "End your current turn.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Modes:       []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewEndTurn(ctx.Player, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Turn ended.")
			},
		},
		{
			Name:        "concede",
			Description: "Concede the game; your opponent wins.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Modes:       []Mode{ModeMain, ModeDecision, ModeStartOfTurn},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewConcede(ctx.Player, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "You conceded.")
			},
		},
		{
			Name:        "declare_victory",
			Description: "Declare victory with a reason; you are recorded as the winner.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"reason": map[string]any{"type": "string"}},
				"required":   []string{"reason"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewDeclareVictory(ctx.Player, str(args, "reason"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, fmt.Sprintf("Declared victory: %s", str(args, "reason")))
			},
		},
		{
			Name:        "create_decision",
			Description: "Create a decision the target player must resolve before play continues.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"targetPlayer":  map[string]any{"type": "integer"},
					"message":       map[string]any{"type": "string"},
					"revealedZones": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"targetPlayer", "message"},
			},
			Modes: []Mode{ModeMain},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewCreateDecision(ctx.Player, num(args, "targetPlayer"), str(args, "message"), strSlice(args, "revealedZones"), action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Created a decision for the opponent.")
			},
		},
		{
			Name:        "resolve_decision",
			Description: "Resolve the currently pending decision.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Modes:       []Mode{ModeDecision},
			Execute: func(ctx *Context, args map[string]any) string {
				a := action.NewResolveDecision(ctx.Player, action.SourceAI)
				outcome, err := ctx.Loop.SubmitSyncResult(a)
				return outcomeToString(outcome, err, "Resolved the pending decision.")
			},
		},
		{
			Name:        "rewind",
			Description: "Undo every action taken since this agent run began by restoring its checkpoint, with guidance for what to do instead.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"reason":   map[string]any{"type": "string"},
					"guidance": map[string]any{"type": "string"},
				},
				"required": []string{"reason", "guidance"},
			},
			Modes: []Mode{ModeMain, ModeDecision},
			// Execute is never reached: Wrapper.Call intercepts "rewind"
			// before dispatching to the registry, since rewind needs
			// direct access to the wrapper's signal and checkpoint.
			Execute: func(ctx *Context, args map[string]any) string {
				return "Error: rewind must be invoked through the tool wrapper"
			},
		},
	}
}
