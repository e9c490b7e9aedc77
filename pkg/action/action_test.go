package action

import "testing"

func TestFactoriesValidate(t *testing.T) {
	acts := []*Action{
		NewDraw(0, "player0_deck", "player0_hand", 1, SourceUI),
		NewMoveCard(0, "c1", "player0_hand", "player0_field", SourceUI, false),
		NewMoveCardStack(0, []string{"c1", "c2"}, "player0_hand", "player0_field", SourceAI, false),
		NewPlaceOnZone(0, "c1", "player0_discard", PositionTop, SourceUI, false),
		NewShuffle(0, "player0_deck", SourceUI),
		NewSearchZone(0, "player0_deck", "name:foo", SourceAI),
		NewFlipCard(0, "c1", SourceUI),
		NewSetOrientation(0, "c1", "rotated", SourceUI),
		NewAddCounter(0, "c1", "damage", 2, SourceUI),
		NewRemoveCounter(0, "c1", "damage", 1, SourceUI),
		NewSetCounter(0, "c1", "damage", 0, SourceUI),
		NewCoinFlip(0, SourceUI),
		NewDiceRoll(0, 6, SourceUI),
		NewEndTurn(0, SourceUI),
		NewConcede(0, SourceUI),
		NewDeclareVictory(0, "opponent deck-out", SourceUI),
		NewCreateDecision(0, 1, "mulligan?", []string{"player1_hand"}, SourceUI),
		NewResolveDecision(1, SourceUI),
		NewRevealHand(0, 1, SourceUI),
		NewReveal(0, "c1", 1, SourceUI),
		NewPeek(0, "player1_deck", SourceAI),
		NewMulligan(0, SourceUI),
		NewSwapCardStacks(0, []string{"c1"}, "player0_hand", "player0_sideboard", SourceUI, false),
		NewRearrangeZone(0, "player0_hand", []string{"c1", "c2"}, SourceUI),
		NewDeclareAction(0, "attack", "GX Attack", "", SourceAI),
	}
	for _, a := range acts {
		if err := a.Validate(); err != nil {
			t.Errorf("%s: factory-built action failed validation: %v", a.Type, err)
		}
	}
}

func TestValidateRejectsHandBuiltLiteral(t *testing.T) {
	a := &Action{Type: MoveCard} // no Player, no Source, missing required fields
	if err := a.Validate(); err == nil {
		t.Fatal("expected validation error for a stray literal missing player/source")
	}
}

func TestValidateRejectsBadPlayerIndex(t *testing.T) {
	a := NewEndTurn(0, SourceUI)
	a.Player = 7
	if err := a.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range player index")
	}
}

func TestValidateNilAction(t *testing.T) {
	var a *Action
	if err := a.Validate(); err == nil {
		t.Fatal("expected error validating nil action")
	}
}
