package main

import (
	"context"

	"github.com/vctt94/cardengine/pkg/statemachine"
	"github.com/vctt94/cardengine/pkg/tool"
)

// The demo's three phases use the teacher's generic Rob Pike
// state-function pattern (pkg/statemachine), generalized here from
// poker's own (unused in this module) phase tracking to the scripted
// run's own setup/turn/finished sequence.

func stateDealt(d *demo, cb func(string, statemachine.StateEvent)) statemachine.StateFn[demo] {
	cb("dealt", statemachine.StateEntered)
	stock, err := d.state.Zone("player0_deck")
	if err != nil {
		d.log.Errorf("demo: reading stock zone: %v", err)
		return stateFinished
	}
	d.log.Infof("demo: deal complete, %d cards remain in the stock", len(stock.Cards))
	return stateAgentTurn
}

func stateAgentTurn(d *demo, cb func(string, statemachine.StateEvent)) statemachine.StateFn[demo] {
	cb("agentTurn", statemachine.StateEntered)
	gctx := &tool.Context{State: d.state, Loop: d.loop, Plugins: d.plugins, Player: 0, Lookup: d.lookup}
	result, err := d.runner.Run(context.Background(), gctx, tool.ModeMain, 10)
	if err != nil {
		d.log.Errorf("demo: agent run: %v", err)
		return stateFinished
	}
	d.log.Infof("demo: agent turn finished after %d step(s): %q", result.StepCount, result.Text)
	return stateFinished
}

func stateFinished(d *demo, cb func(string, statemachine.StateEvent)) statemachine.StateFn[demo] {
	cb("finished", statemachine.StateEntered)
	if d.state.Result != nil {
		d.log.Infof("demo: game result winner=player%d reason=%s %s", d.state.Result.Winner, d.state.Result.Reason, d.state.Result.Details)
	} else {
		d.log.Infof("demo: scripted run complete with no declared result")
	}
	return nil
}
