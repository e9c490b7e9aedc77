// Package tool implements the tool registry and execution wrapper that
// exposes engine actions to a language model (spec §4.G).
package tool

import (
	"fmt"
	"strings"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/readable"
)

// Mode is an agent invocation phase; plugins mode-filter which tools
// are exposed per phase (spec §4.G).
type Mode string

const (
	ModeSetup       Mode = "setup"
	ModeStartOfTurn Mode = "startOfTurn"
	ModeMain        Mode = "main"
	ModeDecision    Mode = "decision"
)

// Context is the per-run execution context a wrapped tool's Execute
// receives: state read/write through the loop, plus the acting player.
type Context struct {
	State   *enginestate.State
	Loop    *gameloop.Loop
	Plugins *plugin.Manager
	Player  int
	Lookup  readable.TemplateLookup
}

// Tool is a single callable the model can invoke: a name, a
// description, a JSON-schema-equivalent parameter map, and an execute
// function returning a single result string (spec §4.G).
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Modes       []Mode // phases this tool is offered in; nil means every phase
	Execute     func(ctx *Context, args map[string]any) string
}

func (t *Tool) allowedIn(mode Mode) bool {
	if len(t.Modes) == 0 {
		return true
	}
	for _, m := range t.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Registry holds the full set of tools available to an engine
// instance: the universal built-ins plus any plugin-contributed tools.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates a registry with the universal built-in tools
// already registered (spec §4.G's named list).
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range builtins() {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ForMode returns every registered tool allowed in mode, in
// registration order.
func (r *Registry) ForMode(mode Mode) []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		if t.allowedIn(mode) {
			out = append(out, t)
		}
	}
	return out
}

// StepState is the per-step bookkeeping cell the wrapper shares across
// every tool call in a step (spec §4.G): a parallel-batch short
// circuit, since this engine serializes tool calls within a step
// rather than truly parallelizing them (spec §9 design note).
type StepState struct {
	Blocked       bool
	BlockedReason string
}

// RewindSignal records a rewind tool invocation for the agent runner
// to act on after the wrapped execute returns.
type RewindSignal struct {
	Triggered bool
	Reason    string
	Guidance  string
}

// Wrapper wraps every tool call made during one agent step with the
// shared short-circuit, result-prefix inspection, terminal-tool abort,
// and rewind handling described in spec §4.G.
type Wrapper struct {
	Registry          *Registry
	TerminalTools     map[string]bool
	Abort             *bool
	Step              *StepState
	Rewind            *RewindSignal
	RestoreCheckpoint func()
}

// Call looks up name in the wrapper's registry and runs it through the
// wrapping contract, returning the string the model will see.
func (w *Wrapper) Call(ctx *Context, name string, args map[string]any) string {
	if w.Step.Blocked {
		return fmt.Sprintf("Cancelled: a prior action in this parallel batch was blocked (%s).", w.Step.BlockedReason)
	}

	if name == "rewind" {
		return w.callRewind(args)
	}

	t, ok := w.Registry.Get(name)
	if !ok {
		result := fmt.Sprintf("Error: unknown tool %q", name)
		w.Step.Blocked = true
		w.Step.BlockedReason = result
		return result
	}

	result := w.safeExecute(t, ctx, args)

	if strings.HasPrefix(result, "Action blocked:") || strings.HasPrefix(result, "Error:") {
		w.Step.Blocked = true
		w.Step.BlockedReason = result
	}

	if w.TerminalTools[name] && !w.Step.Blocked {
		*w.Abort = true
	}

	return result
}

// callRewind handles the rewind tool directly rather than through the
// registry: it cancels sibling tool calls in the same batch and
// records the rewind signal for the agent runner. It does not restore
// the checkpoint itself — the runner owns the MaxRewinds budget and
// only restores when the rewind is actually granted (spec §4.G, §8
// scenario 5: a denied rewind leaves state untouched).
func (w *Wrapper) callRewind(args map[string]any) string {
	reason, _ := args["reason"].(string)
	guidance, _ := args["guidance"].(string)
	w.Rewind.Triggered = true
	w.Rewind.Reason = reason
	w.Rewind.Guidance = guidance
	w.Step.Blocked = true
	w.Step.BlockedReason = fmt.Sprintf("rewind requested: %s", reason)
	return fmt.Sprintf("Rewinding: %s", reason)
}

func (w *Wrapper) safeExecute(t *Tool, ctx *Context, args map[string]any) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("Error: %v", r)
		}
	}()
	return t.Execute(ctx, args)
}
