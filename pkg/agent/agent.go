// Package agent implements the step-by-step runner that drives one
// language-model-backed turn: it streams the model, executes the tool
// calls it requests, condenses tool-result history, and supports
// bounded checkpoint/rewind (spec §4.H). Grounded on
// kadirpekel-hector's llmagent step-loop/config shape, adapted to the
// spec's stricter ephemeral-state-message and rewind contract.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/llm"
	"github.com/vctt94/cardengine/pkg/plugin"
	"github.com/vctt94/cardengine/pkg/readable"
	"github.com/vctt94/cardengine/pkg/tool"
)

// Environment knobs with the defaults spec §6 names.
const (
	DefaultMaxTokensPerStep   = 16384
	DefaultMaxStepsMain       = 75
	DefaultMaxStepsStartOfTurn = 15
	DefaultMinPacing          = time.Second
	MaxRewinds                = 2
)

// KeepLatestInfo names tools whose most recent result survives
// condensation; only the latest of either is kept since a later
// search_zone invalidates an earlier peek's positions (spec §4.H).
var KeepLatestInfo = map[string]bool{"search_zone": true, "peek": true}

// AlwaysPreserve names tools whose results are never condensed:
// randomness outcomes the model must keep verbatim to avoid
// re-rolling in its own head.
var AlwaysPreserve = map[string]bool{"coin_flip": true, "dice_roll": true}

// Config configures a Runner. One Runner is reused across every mode
// and every turn; per-run state (history, checkpoints) lives in Run's
// locals, not on the Runner.
type Config struct {
	Client   llm.Client
	Registry *tool.Registry
	Plugins  *plugin.Manager
	Lookup   readable.TemplateLookup
	Log      slog.Logger

	MaxTokensPerStep int           // defaults to DefaultMaxTokensPerStep
	MinPacing        time.Duration // defaults to DefaultMinPacing; minimum gap between model calls
}

// Runner runs agent invocations against a tool.Context.
type Runner struct {
	client    llm.Client
	registry  *tool.Registry
	plugins   *plugin.Manager
	lookup    readable.TemplateLookup
	log       slog.Logger
	maxTokens int
	minPacing time.Duration
}

// New builds a Runner from cfg, applying defaults for zero fields.
func New(cfg Config) *Runner {
	maxTokens := cfg.MaxTokensPerStep
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokensPerStep
	}
	minPacing := cfg.MinPacing
	if minPacing == 0 {
		minPacing = DefaultMinPacing
	}
	return &Runner{
		client:    cfg.Client,
		registry:  cfg.Registry,
		plugins:   cfg.Plugins,
		lookup:    cfg.Lookup,
		log:       cfg.Log,
		maxTokens: maxTokens,
		minPacing: minPacing,
	}
}

// Result is the outcome of one agent invocation (spec §4.H step 5).
type Result struct {
	Text      string
	StepCount int
	Aborted   bool
}

// rewindCapable reports whether mode snapshots a checkpoint and honors
// the rewind tool (spec §4.H step 2, "Autonomous turn orchestration":
// main and decision run with rewind enabled; setup and startOfTurn do
// not).
func rewindCapable(mode tool.Mode) bool {
	return mode == tool.ModeMain || mode == tool.ModeDecision
}

// agentConfig fetches the active plugin's AgentConfig for mode,
// tolerating a nil Plugins manager (plugin-free engines/tests).
func (r *Runner) agentConfig(state *enginestate.State, mode tool.Mode) plugin.AgentConfig {
	if r.plugins == nil {
		return plugin.AgentConfig{}
	}
	return r.plugins.AgentConfigFor(state, string(mode))
}

func (r *Runner) skipStartOfTurn(state *enginestate.State) bool {
	if r.plugins == nil {
		return false
	}
	return r.plugins.ShouldSkipStartOfTurn(state)
}

func (r *Runner) readableModifier() readable.ModifierFunc {
	if r.plugins == nil {
		return nil
	}
	return r.plugins.ReadableModifier()
}

// Run executes one agent invocation in mode for gctx.Player, for up to
// maxSteps steps (spec §4.H algorithm, steps 1-5).
func (r *Runner) Run(ctx context.Context, gctx *tool.Context, mode tool.Mode, maxSteps int) (Result, error) {
	agentCfg := r.agentConfig(gctx.State, mode)
	terminal := make(map[string]bool, len(agentCfg.TerminalTools))
	for _, name := range agentCfg.TerminalTools {
		terminal[name] = true
	}

	toolList := r.registry.ForMode(mode)
	specs := make([]llm.ToolSpec, len(toolList))
	for i, t := range toolList {
		specs[i] = llm.ToolSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
	}

	step := &tool.StepState{}
	abort := false
	rewind := &tool.RewindSignal{}
	wrapper := &tool.Wrapper{
		Registry:      r.registry,
		TerminalTools: terminal,
		Abort:         &abort,
		Step:          step,
		Rewind:        rewind,
	}

	if rewindCapable(mode) {
		checkpoint := gctx.State.Snapshot()
		wrapper.RestoreCheckpoint = func() { gctx.State.Restore(checkpoint) }
	}

	var history []llm.Message
	rewindCount := 0
	stepsTaken := 0
	var lastText string

	for i := 0; i < maxSteps; i++ {
		stepsTaken = i + 1
		step.Blocked = false
		step.BlockedReason = ""

		if i > 0 && r.minPacing > 0 {
			t := time.NewTimer(r.minPacing)
			select {
			case <-ctx.Done():
				t.Stop()
				return Result{Text: lastText, StepCount: stepsTaken, Aborted: abort}, ctx.Err()
			case <-t.C:
			}
		}

		view := readable.Project(gctx.State, gctx.Player, r.lookup, r.readableModifier())
		stateMsg := llm.Message{Role: llm.RoleUser, Content: "[CURRENT GAME STATE]\n" + view.Render()}
		messages := make([]llm.Message, 0, len(history)+1)
		messages = append(messages, history...)
		messages = append(messages, stateMsg)

		resp, err := r.client.Stream(ctx, llm.Request{
			System:    agentCfg.SystemPrompt,
			Tools:     specs,
			Messages:  messages,
			MaxTokens: r.maxTokens,
		})
		if err != nil {
			return Result{Text: lastText, StepCount: stepsTaken, Aborted: abort}, fmt.Errorf("agent runner: model stream: %w", err)
		}
		lastText = resp.Content

		assistantMsg := llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls}
		toolMsgs := make([]llm.Message, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			result := wrapper.Call(gctx, tc.Name, tc.Arguments)
			toolMsgs = append(toolMsgs, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: tc.ID, ToolName: tc.Name})
		}

		if rewind.Triggered {
			rewindCount++
			if rewindCount > MaxRewinds {
				history = append(history, llm.Message{
					Role:    llm.RoleUser,
					Content: "[REWIND DENIED] maximum rewinds exceeded; continue from the current state.",
				})
			} else {
				if wrapper.RestoreCheckpoint != nil {
					wrapper.RestoreCheckpoint()
				}
				history = []llm.Message{{
					Role:    llm.RoleUser,
					Content: fmt.Sprintf("[REWIND APPLIED] %s Guidance: %s", rewind.Reason, rewind.Guidance),
				}}
			}
			rewind.Triggered = false
			rewind.Reason = ""
			rewind.Guidance = ""
			r.log.Debugf("agent runner: rewind (count=%d)", rewindCount)
			continue
		}

		cutoff := len(history) + 1 // assistantMsg occupies the next slot, tool messages follow
		history = append(history, assistantMsg)
		history = append(history, toolMsgs...)
		condense(history, cutoff)

		if abort {
			return Result{Text: lastText, StepCount: stepsTaken, Aborted: true}, nil
		}
	}
	return Result{Text: lastText, StepCount: stepsTaken, Aborted: abort}, nil
}

// condense implements the tool-result condensation pass (spec §4.H):
// it finds the single most recent KeepLatestInfo tool result across
// the whole history, then replaces every other condensable tool
// result from index from onward with a short summary. Earlier
// messages were already condensed by prior calls, except a
// KeepLatestInfo result that was the latest at the time: once a newer
// one supersedes it, it is condensed here as well.
func condense(history []llm.Message, from int) {
	keepIdx := -1
	for i, m := range history {
		if m.Role == llm.RoleTool && KeepLatestInfo[m.ToolName] {
			keepIdx = i
		}
	}

	for i := 0; i < len(history); i++ {
		m := &history[i]
		if m.Role != llm.RoleTool {
			continue
		}
		if i < from && (!KeepLatestInfo[m.ToolName] || strings.HasPrefix(m.Content, "["+m.ToolName+" ")) {
			continue
		}
		if AlwaysPreserve[m.ToolName] {
			continue
		}
		if i == keepIdx {
			continue
		}
		if strings.HasPrefix(m.Content, "Action blocked:") || strings.HasPrefix(m.Content, "Error:") {
			c := m.Content
			if len(c) > 200 {
				c = c[:200]
			}
			m.Content = fmt.Sprintf("[%s failed: %s]", m.ToolName, c)
		} else {
			m.Content = fmt.Sprintf("[%s succeeded]", m.ToolName)
		}
	}
}

// RunTurn implements the autonomous turn orchestration (spec §4.H):
// setup while phase=setup, an optional startOfTurn check-up then the
// main agent while phase=playing with no pending decision, or the
// decision agent while phase=decision. It returns every Result
// produced, in run order.
func (r *Runner) RunTurn(ctx context.Context, gctx *tool.Context) ([]Result, error) {
	switch gctx.State.Phase {
	case enginestate.PhaseSetup:
		res, err := r.Run(ctx, gctx, tool.ModeSetup, DefaultMaxStepsMain)
		return []Result{res}, err

	case enginestate.PhaseDecision:
		res, err := r.Run(ctx, gctx, tool.ModeDecision, DefaultMaxStepsMain)
		return []Result{res}, err

	case enginestate.PhasePlaying:
		if gctx.State.PendingDecision != nil {
			return nil, fmt.Errorf("agent runner: phase playing with a pending decision")
		}
		var results []Result
		if !r.skipStartOfTurn(gctx.State) {
			res, err := r.Run(ctx, gctx, tool.ModeStartOfTurn, DefaultMaxStepsStartOfTurn)
			results = append(results, res)
			if err != nil {
				return results, err
			}
		}
		res, err := r.Run(ctx, gctx, tool.ModeMain, DefaultMaxStepsMain)
		results = append(results, res)
		return results, err

	default:
		return nil, fmt.Errorf("agent runner: unknown phase %q", gctx.State.Phase)
	}
}
