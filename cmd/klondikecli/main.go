// Command klondikecli is an interactive human driver for the Klondike
// reference plugin (spec §4.K): it wires the same
// gametype/plugin/executor/gameloop chain the agent runner uses, then
// lets a person play through Bubble Tea instead of an LLM client.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/gametype"
	"github.com/vctt94/cardengine/pkg/klondike"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/tool"
)

func main() {
	var (
		seed  int64
		debug bool
	)
	flag.Int64Var(&seed, "seed", 0, "deal shuffle seed (0 = fixed, deterministic deal)")
	flag.BoolVar(&debug, "debug", false, "enable debug-level logging to stderr")
	flag.Parse()

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("klondikecli")
	if debug {
		log.SetLevel(slog.LevelDebug)
	} else {
		log.SetLevel(slog.LevelWarn)
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	gt, err := klondike.GameType()
	if err != nil {
		fmt.Fprintf(os.Stderr, "klondikecli: building game type: %v\n", err)
		os.Exit(1)
	}

	plugins := plugin.NewManager(log)
	if err := plugins.Register(klondike.New(klondike.Templates(), rng)); err != nil {
		fmt.Fprintf(os.Stderr, "klondikecli: registering plugin: %v\n", err)
		os.Exit(1)
	}

	state, err := gametype.NewGame(gt, plugins, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "klondikecli: starting game: %v\n", err)
		os.Exit(1)
	}

	exec := executor.New(executor.Config{RNG: rng, Plugins: plugins, Log: log})
	loop := gameloop.New(gameloop.Config{State: state, Executor: exec, Plugins: plugins, Log: log})
	registry := tool.NewRegistry()

	m := newModel(gt, state, loop, registry, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "klondikecli: %v\n", err)
		os.Exit(1)
	}
}
