// Command enginedemo wires a scripted single run of the Klondike
// reference plugin end to end: register plugin, deal the deck, drive
// a handful of agent steps against a canned llm.Client, printing event
// and log output (SPEC_FULL §4.K). Flag/logger bootstrap is grounded
// on cmd/pokersrv/main.go's shape.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/agent"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/gametype"
	"github.com/vctt94/cardengine/pkg/klondike"
	"github.com/vctt94/cardengine/pkg/llm"
	"github.com/vctt94/cardengine/pkg/llm/fake"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/readable"
	"github.com/vctt94/cardengine/pkg/statemachine"
	"github.com/vctt94/cardengine/pkg/tool"
	"github.com/vctt94/cardengine/pkg/zone"
)

func main() {
	var debugLevel string
	flag.StringVar(&debugLevel, "debuglevel", "info", "logging level: trace, debug, info, warn, error")
	flag.Parse()

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("enginedemo")
	log.SetLevel(levelFromString(debugLevel))

	gt, err := klondike.GameType()
	if err != nil {
		fmt.Fprintf(os.Stderr, "enginedemo: building game type: %v\n", err)
		os.Exit(1)
	}

	plugins := plugin.NewManager(log)
	if err := plugins.Register(klondike.New(klondike.Templates(), nil)); err != nil {
		fmt.Fprintf(os.Stderr, "enginedemo: registering plugin: %v\n", err)
		os.Exit(1)
	}

	state, err := gametype.NewGame(gt, plugins, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "enginedemo: starting game: %v\n", err)
		os.Exit(1)
	}

	exec := executor.New(executor.Config{Plugins: plugins, Log: log})
	loop := gameloop.New(gameloop.Config{State: state, Executor: exec, Plugins: plugins, Log: log})
	loop.Subscribe(func(e gameloop.Event) {
		if e.Action != nil {
			log.Infof("event: %s action=%s player=%d reason=%s", e.Type, e.Action.Type, e.Action.Player, e.Reason)
		} else {
			log.Infof("event: %s reason=%s", e.Type, e.Reason)
		}
	})

	client := fake.New(
		llm.Response{
			Content: "Drawing three cards from the stock to see what's playable.",
			ToolCalls: []llm.ToolCall{
				fake.Tool("1", "draw", map[string]any{
					"fromZone": zone.Key(0, "deck", false),
					"toZone":   zone.Key(0, "waste", false),
					"count":    3,
				}),
			},
		},
		llm.Response{
			Content:   "Nothing playable yet; ending the turn.",
			ToolCalls: []llm.ToolCall{fake.Tool("2", "end_turn", map[string]any{})},
		},
		llm.Response{Content: "That's the end of the scripted demo."},
	)

	runner := agent.New(agent.Config{
		Client:   client,
		Registry: tool.NewRegistry(),
		Plugins:  plugins,
		Lookup:   gt.Lookup(),
		Log:      log,
	})

	d := &demo{
		state:   state,
		loop:    loop,
		plugins: plugins,
		runner:  runner,
		log:     log,
		lookup:  gt.Lookup(),
	}
	sm := statemachine.NewStateMachine(d, stateDealt)
	for sm.GetCurrentState() != nil {
		sm.Dispatch(func(name string, event statemachine.StateEvent) {
			log.Debugf("demo: phase %s event=%d", name, event)
		})
	}
}

// demo is the entity the scripted run's state machine drives: the
// state functions in states.go only read/mutate it, never package
// globals, so the sequence (dealt -> agent turn -> finished) stays
// testable in isolation from main's flag/bootstrap plumbing.
type demo struct {
	state   *enginestate.State
	loop    *gameloop.Loop
	plugins *plugin.Manager
	runner  *agent.Runner
	log     slog.Logger
	lookup  readable.TemplateLookup
}

func levelFromString(s string) slog.Level {
	switch s {
	case "trace":
		return slog.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
