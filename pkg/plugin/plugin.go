// Package plugin implements the plugin manager: registration with
// dependency checking, priority-sorted hook aggregation, and dispatch
// of pre-hooks, post-hooks, state observers, blockers, and the
// singular readable-state modifier (spec §4.C).
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/readable"
)

// DefaultPriority is used when a hook does not specify one.
const DefaultPriority = 100

// Wildcard is the action-type key meaning "run for every action type".
const Wildcard action.Type = "*"

// HookResultKind is one of the four pre-hook outcomes.
type HookResultKind string

const (
	Continue HookResultKind = "continue"
	Warn     HookResultKind = "warn"
	Block    HookResultKind = "block"
	Replace  HookResultKind = "replace"
)

// HookResult is what a pre-hook returns.
type HookResult struct {
	Kind      HookResultKind
	Reason    string
	NewAction *action.Action
}

func ContinueResult() HookResult                  { return HookResult{Kind: Continue} }
func WarnResult(reason string) HookResult         { return HookResult{Kind: Warn, Reason: reason} }
func BlockResult(reason string) HookResult        { return HookResult{Kind: Block, Reason: reason} }
func ReplaceResult(a *action.Action) HookResult   { return HookResult{Kind: Replace, NewAction: a} }

// PreHookFunc inspects (and may veto or replace) an action before execution.
type PreHookFunc func(state *enginestate.State, a *action.Action) HookResult

// PostHookFunc runs after execution and may enqueue follow-up actions.
type PostHookFunc func(state *enginestate.State, prevState *enginestate.State, a *action.Action) []*action.Action

// ObserverFunc runs once the queue has fully drained and may enqueue
// auto-actions. Observers must be pure functions of their inputs.
type ObserverFunc func(newState, prevState *enginestate.State, lastAction *action.Action) []*action.Action

// BlockerFunc is a cheap pre-flight invariant check distinct from
// pre-hooks: it returns a non-empty reason to block, or "" to pass.
type BlockerFunc func(state *enginestate.State, a *action.Action) string

// CustomExecutorFunc lets a plugin fully replace the built-in
// semantics for one action type.
type CustomExecutorFunc func(state *enginestate.State, a *action.Action) error

// LifecycleFunc covers onRegister/onUnregister/onGameStart/onGameEnd.
type LifecycleFunc func(state *enginestate.State) error

// AgentConfig is what a plugin supplies for one agent-runner mode
// (spec §4.H step 1): a fresh base system prompt and which tool names
// count as terminal for that mode. Modes are passed as plain strings
// ("setup", "startOfTurn", "main", "decision") rather than pkg/tool's
// Mode type, since pkg/tool already imports pkg/plugin.
type AgentConfig struct {
	SystemPrompt  string
	TerminalTools []string
}

// AgentConfigFunc builds a fresh AgentConfig for one agent-runner mode.
type AgentConfigFunc func(state *enginestate.State, mode string) AgentConfig

// SkipStartOfTurnFunc lets a plugin skip the optional startOfTurn
// agent run for the current state (spec §4.H: "optionally run a
// startOfTurn agent (skippable via plugin hook)").
type SkipStartOfTurnFunc func(state *enginestate.State) bool

type prioritized[F any] struct {
	pluginID string
	priority int
	fn       F
}

// Plugin is a record identified by a unique id (spec §4.C).
type Plugin struct {
	ID           string
	Dependencies []string

	OnRegister   func(m *Manager) error
	OnUnregister func(m *Manager) error
	OnGameStart  LifecycleFunc
	OnGameEnd    LifecycleFunc

	// Keyed by action.Type; use Wildcard for "*".
	PreHooks  map[action.Type][]PriorityEntry[PreHookFunc]
	PostHooks map[action.Type][]PriorityEntry[PostHookFunc]

	Observers []PriorityEntry[ObserverFunc]
	Blockers  []PriorityEntry[BlockerFunc]

	CustomExecutors map[action.Type]CustomExecutorFunc

	ReadableModifier readable.ModifierFunc

	GetAgentConfig  AgentConfigFunc
	SkipStartOfTurn SkipStartOfTurnFunc
}

// PriorityEntry pairs a hook function with its dispatch priority.
// Lower runs first. Priority is used exactly as given: a zero value
// is priority 0 and runs ahead of DefaultPriority (100) entries; no
// default is substituted for it.
type PriorityEntry[F any] struct {
	Priority int
	Fn       F
}

// registration-time errors
type DependencyError struct {
	PluginID string
	Reason   string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("plugin %q: %s", e.PluginID, e.Reason)
}

// Manager aggregates every registered plugin's hooks into
// priority-sorted per-action-type dispatch tables, rebuilt on every
// register/unregister (spec §9 allows precomputing instead of
// re-sorting per dispatch; externally the ordering is identical).
type Manager struct {
	mu      sync.RWMutex
	log     slog.Logger
	plugins map[string]*Plugin
	order   []string // registration order, for stable re-aggregation

	preHooks  map[action.Type][]prioritized[PreHookFunc]
	postHooks map[action.Type][]prioritized[PostHookFunc]
	observers []prioritized[ObserverFunc]
	blockers  []prioritized[BlockerFunc]

	customExecutors map[action.Type]CustomExecutorFunc
	customOwner     map[action.Type]string // plugin id owning a custom executor

	readableModifier   readable.ModifierFunc
	readableModifierBy string

	agentConfig      AgentConfigFunc
	skipStartOfTurns []SkipStartOfTurnFunc
}

// NewManager creates an empty plugin manager.
func NewManager(log slog.Logger) *Manager {
	return &Manager{
		log:             log,
		plugins:         make(map[string]*Plugin),
		preHooks:        make(map[action.Type][]prioritized[PreHookFunc]),
		postHooks:       make(map[action.Type][]prioritized[PostHookFunc]),
		customExecutors: make(map[action.Type]CustomExecutorFunc),
		customOwner:     make(map[action.Type]string),
	}
}

// Register adds p to the manager. It fails if id collides, if any
// declared dependency is not yet registered, or if any custom action
// type collides with an existing executor (spec §4.C).
func (m *Manager) Register(p *Plugin) error {
	if p.ID == "" {
		return &DependencyError{PluginID: "", Reason: "plugin id must not be empty"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[p.ID]; exists {
		return &DependencyError{PluginID: p.ID, Reason: "already registered"}
	}
	for _, dep := range p.Dependencies {
		if _, ok := m.plugins[dep]; !ok {
			return &DependencyError{PluginID: p.ID, Reason: fmt.Sprintf("dependency %q not registered", dep)}
		}
	}
	for t := range p.CustomExecutors {
		if owner, exists := m.customOwner[t]; exists {
			return &DependencyError{PluginID: p.ID, Reason: fmt.Sprintf("custom executor for %q already provided by %q", t, owner)}
		}
	}

	m.plugins[p.ID] = p
	m.order = append(m.order, p.ID)

	if p.OnRegister != nil {
		if err := p.OnRegister(m); err != nil {
			// Roll back registration on failure.
			delete(m.plugins, p.ID)
			m.order = m.order[:len(m.order)-1]
			return fmt.Errorf("plugin %q onRegister: %w", p.ID, err)
		}
	}

	m.reaggregateLocked()
	m.log.Infof("plugin registered: %s", p.ID)
	return nil
}

// Unregister removes the plugin with the given id. It fails if any
// other registered plugin declares it as a dependency.
func (m *Manager) Unregister(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plugins[id]
	if !ok {
		return &DependencyError{PluginID: id, Reason: "not registered"}
	}
	for _, other := range m.plugins {
		for _, dep := range other.Dependencies {
			if dep == id {
				return &DependencyError{PluginID: id, Reason: fmt.Sprintf("plugin %q depends on it", other.ID)}
			}
		}
	}

	if p.OnUnregister != nil {
		if err := p.OnUnregister(m); err != nil {
			return fmt.Errorf("plugin %q onUnregister: %w", id, err)
		}
	}

	delete(m.plugins, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	m.reaggregateLocked()
	m.log.Infof("plugin unregistered: %s", id)
	return nil
}

// reaggregateLocked rebuilds every dispatch table from scratch. Called
// with m.mu held.
func (m *Manager) reaggregateLocked() {
	m.preHooks = make(map[action.Type][]prioritized[PreHookFunc])
	m.postHooks = make(map[action.Type][]prioritized[PostHookFunc])
	m.observers = nil
	m.blockers = nil
	m.customExecutors = make(map[action.Type]CustomExecutorFunc)
	m.customOwner = make(map[action.Type]string)
	m.readableModifier = nil
	m.readableModifierBy = ""
	m.agentConfig = nil
	m.skipStartOfTurns = nil

	for _, id := range m.order {
		p := m.plugins[id]
		for t, entries := range p.PreHooks {
			for _, e := range entries {
				m.preHooks[t] = append(m.preHooks[t], prioritized[PreHookFunc]{pluginID: id, priority: e.Priority, fn: e.Fn})
			}
		}
		for t, entries := range p.PostHooks {
			for _, e := range entries {
				m.postHooks[t] = append(m.postHooks[t], prioritized[PostHookFunc]{pluginID: id, priority: e.Priority, fn: e.Fn})
			}
		}
		for _, e := range p.Observers {
			m.observers = append(m.observers, prioritized[ObserverFunc]{pluginID: id, priority: e.Priority, fn: e.Fn})
		}
		for _, e := range p.Blockers {
			m.blockers = append(m.blockers, prioritized[BlockerFunc]{pluginID: id, priority: e.Priority, fn: e.Fn})
		}
		for t, fn := range p.CustomExecutors {
			m.customExecutors[t] = fn
			m.customOwner[t] = id
		}
		if p.ReadableModifier != nil {
			// Last registered wins (spec §4.C).
			m.readableModifier = p.ReadableModifier
			m.readableModifierBy = id
		}
		if p.GetAgentConfig != nil {
			// Last registered wins, same as ReadableModifier: exactly
			// one plugin (the active game type) is expected to supply
			// agent configuration.
			m.agentConfig = p.GetAgentConfig
		}
		if p.SkipStartOfTurn != nil {
			m.skipStartOfTurns = append(m.skipStartOfTurns, p.SkipStartOfTurn)
		}
	}

	for t := range m.preHooks {
		sortByPriority(m.preHooks[t])
	}
	for t := range m.postHooks {
		sortByPriority(m.postHooks[t])
	}
	sortByPriority(m.observers)
	sortByPriority(m.blockers)
}

func sortByPriority[F any](entries []prioritized[F]) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
}

// PreHooksFor returns the merged, priority-sorted pre-hook chain for
// actionType: its specific hooks combined with wildcard hooks,
// re-sorted as one list (spec §4.C).
func (m *Manager) PreHooksFor(actionType action.Type) []PreHookFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	merged := append(append([]prioritized[PreHookFunc]{}, m.preHooks[actionType]...), m.preHooks[Wildcard]...)
	sortByPriority(merged)
	fns := make([]PreHookFunc, len(merged))
	for i, e := range merged {
		fns[i] = e.fn
	}
	return fns
}

// PostHooksFor returns the merged, priority-sorted post-hook chain.
func (m *Manager) PostHooksFor(actionType action.Type) []PostHookFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	merged := append(append([]prioritized[PostHookFunc]{}, m.postHooks[actionType]...), m.postHooks[Wildcard]...)
	sortByPriority(merged)
	fns := make([]PostHookFunc, len(merged))
	for i, e := range merged {
		fns[i] = e.fn
	}
	return fns
}

// Observers returns all registered state observers, priority-sorted.
func (m *Manager) Observers() []ObserverFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fns := make([]ObserverFunc, len(m.observers))
	for i, e := range m.observers {
		fns[i] = e.fn
	}
	return fns
}

// Blockers returns all registered blockers, priority-sorted.
func (m *Manager) Blockers() []BlockerFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fns := make([]BlockerFunc, len(m.blockers))
	for i, e := range m.blockers {
		fns[i] = e.fn
	}
	return fns
}

// CustomExecutor returns the plugin-supplied executor for actionType,
// if any plugin registered one.
func (m *Manager) CustomExecutor(actionType action.Type) (CustomExecutorFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.customExecutors[actionType]
	return fn, ok
}

// ReadableModifier returns the last-registered modifier, or nil.
func (m *Manager) ReadableModifier() readable.ModifierFunc {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readableModifier
}

// AgentConfigFor returns the last-registered plugin's agent config for
// mode, or the zero AgentConfig if none was registered.
func (m *Manager) AgentConfigFor(state *enginestate.State, mode string) AgentConfig {
	m.mu.RLock()
	fn := m.agentConfig
	m.mu.RUnlock()
	if fn == nil {
		return AgentConfig{}
	}
	return fn(state, mode)
}

// ShouldSkipStartOfTurn reports whether any registered plugin wants to
// skip the optional startOfTurn agent run for state.
func (m *Manager) ShouldSkipStartOfTurn(state *enginestate.State) bool {
	m.mu.RLock()
	fns := append([]SkipStartOfTurnFunc(nil), m.skipStartOfTurns...)
	m.mu.RUnlock()
	for _, fn := range fns {
		if fn(state) {
			return true
		}
	}
	return false
}

// FireGameStart calls every registered plugin's OnGameStart, in
// registration order.
func (m *Manager) FireGameStart(state *enginestate.State) error {
	m.mu.RLock()
	order := append([]string(nil), m.order...)
	m.mu.RUnlock()
	for _, id := range order {
		p := m.plugins[id]
		if p.OnGameStart != nil {
			if err := p.OnGameStart(state); err != nil {
				return fmt.Errorf("plugin %q onGameStart: %w", id, err)
			}
		}
	}
	return nil
}

// FireGameEnd calls every registered plugin's OnGameEnd, in
// registration order.
func (m *Manager) FireGameEnd(state *enginestate.State) error {
	m.mu.RLock()
	order := append([]string(nil), m.order...)
	m.mu.RUnlock()
	for _, id := range order {
		p := m.plugins[id]
		if p.OnGameEnd != nil {
			if err := p.OnGameEnd(state); err != nil {
				return fmt.Errorf("plugin %q onGameEnd: %w", id, err)
			}
		}
	}
	return nil
}

// Has reports whether a plugin with id is currently registered.
func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[id]
	return ok
}
