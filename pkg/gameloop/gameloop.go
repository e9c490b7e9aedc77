// Package gameloop is the single-writer, event-emitting queue that
// serializes submitted actions, drains cascading follow-ups, and
// manages turn/decision lifecycle (spec §4.E, §5).
package gameloop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/action"
	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/executor"
	"github.com/vctt94/cardengine/pkg/plugin"
)

// EventType names one of the loop's emitted event kinds (spec §4.E).
type EventType string

const (
	EventActionQueued     EventType = "action:queued"
	EventActionExecuting  EventType = "action:executing"
	EventActionExecuted   EventType = "action:executed"
	EventActionRejected   EventType = "action:rejected"
	EventActionBlocked    EventType = "action:blocked"
	EventActionReplaced   EventType = "action:replaced"
	EventAutoActionQueued EventType = "auto-action:queued"
	EventTurnStarted      EventType = "turn:started"
	EventTurnEnded        EventType = "turn:ended"
)

// Event is an immutable notification the loop hands to subscribers.
// Handlers must not submit actions synchronously; a handler that
// calls SubmitAction is fine because submission only enqueues onto the
// channel the run goroutine reads — it is processed after the current
// drain finishes, per spec §5.
type Event struct {
	Type      EventType
	Action    *action.Action
	Reason    string
	Timestamp time.Time
}

// Handler receives emitted events synchronously, in emission order.
type Handler func(Event)

const defaultCascadeCap = 64
const submitQueueSize = 256

// Config configures a Loop.
type Config struct {
	State      *enginestate.State
	Executor   *executor.Executor
	Plugins    *plugin.Manager
	Log        slog.Logger
	CascadeCap int // defaults to 64 (spec §9 open question (c): nominal, tunable per game)
}

// Loop is the single-writer action queue.
type Loop struct {
	state      *enginestate.State
	exec       *executor.Executor
	plugins    *plugin.Manager
	log        slog.Logger
	cascadeCap int

	handlersMu sync.RWMutex
	handlers   []Handler

	mu      sync.Mutex
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
	submit  chan *action.Action

	lastAction    *action.Action
	lastPrevState *enginestate.State // state as of just before lastAction executed

	lastCascadeRounds int64 // atomic; rounds the most recent drainAll took (spec §4.J metrics)
}

// New creates a Loop. cfg.Plugins may be nil for a plugin-free engine
// (the Klondike demo always supplies one, but unit tests of the core
// loop do not need to).
func New(cfg Config) *Loop {
	cap := cfg.CascadeCap
	if cap <= 0 {
		cap = defaultCascadeCap
	}
	return &Loop{
		state:      cfg.State,
		exec:       cfg.Executor,
		plugins:    cfg.Plugins,
		log:        cfg.Log,
		cascadeCap: cap,
		submit:     make(chan *action.Action, submitQueueSize),
	}
}

// QueueDepth reports how many submitted actions are waiting to be
// drained (spec §4.J metrics snapshot).
func (l *Loop) QueueDepth() int {
	return len(l.submit)
}

// LastCascadeDepth reports how many observer-drain rounds the most
// recently completed drainAll took, for the metrics poller (spec §4.J).
func (l *Loop) LastCascadeDepth() int {
	return int(atomic.LoadInt64(&l.lastCascadeRounds))
}

// Subscribe registers a handler for every event the loop emits.
func (l *Loop) Subscribe(h Handler) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.handlers = append(l.handlers, h)
}

func (l *Loop) emit(e Event) {
	e.Timestamp = time.Now()
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	for _, h := range l.handlers {
		h(e)
	}
}

// Start begins processing submitted actions on an internal goroutine.
// Mirrors the teacher's EventProcessor Start/Stop lifecycle
// (mutex-guarded started flag, idempotent Start/Stop).
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	l.done = make(chan struct{})
	l.wg.Add(1)
	go l.run()
}

// Stop drains no further actions and waits for the run goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.started = false
	done := l.done
	l.mu.Unlock()

	close(done)
	l.wg.Wait()
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case a := <-l.submit:
			if _, err := l.drainAll(a); err != nil {
				l.log.Errorf("game loop: %v", err)
			}
		}
	}
}

// SubmitAction enqueues a for FIFO processing (spec §4.E). It returns
// an error only if a is malformed or the submit queue is saturated;
// game-rule rejection happens asynchronously and is observable only
// through emitted events.
func (l *Loop) SubmitAction(a *action.Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	select {
	case l.submit <- a:
		l.emit(Event{Type: EventActionQueued, Action: a})
		return nil
	default:
		return fmt.Errorf("gameloop: submit queue full")
	}
}

// SubmitSync runs a through the full loop synchronously without
// requiring Start/Stop, for tests and for the CLI/demo driver's
// turn-by-turn stepping where an internal goroutine adds nothing.
func (l *Loop) SubmitSync(a *action.Action) error {
	_, err := l.SubmitSyncResult(a)
	return err
}

// Outcome reports what happened to the specific action a caller
// submitted (not to any cascading follow-up or auto-action it
// triggered), so a tool wrapper (spec §4.G) can translate it into the
// "Action blocked: ..."/"Error: ..." strings the model expects.
type Outcome struct {
	Executed bool
	Blocked  bool
	Rejected bool
	Reason   string
	Action   *action.Action // may differ from the submitted action if a pre-hook replaced it
}

// SubmitSyncResult runs a (and every cascading follow-up/auto-action it
// triggers) synchronously, returning the Outcome of a itself.
func (l *Loop) SubmitSyncResult(a *action.Action) (Outcome, error) {
	if err := a.Validate(); err != nil {
		return Outcome{}, err
	}
	l.emit(Event{Type: EventActionQueued, Action: a})
	return l.drainAll(a)
}

// drainAll processes initial and every cascading follow-up/auto-action
// to quiescence, enforcing the cascade iteration cap (spec §4.E.f, §8),
// and returns the Outcome of initial specifically.
func (l *Loop) drainAll(initial *action.Action) (Outcome, error) {
	queue := []*action.Action{initial}
	rounds := 0
	var initialOutcome Outcome
	first := true
	for {
		for len(queue) > 0 {
			a := queue[0]
			queue = queue[1:]
			outcome, follow, err := l.processOne(a)
			if first {
				initialOutcome = outcome
				first = false
			}
			if err != nil {
				return initialOutcome, err
			}
			// Post-hook follow-ups go to the head of the queue,
			// preserving cascade locality (spec §4.D doc comment,
			// §4.E.e): all follow-ups of action X run before the next
			// caller-submitted action.
			queue = append(follow, queue...)
		}

		rounds++
		if rounds > l.cascadeCap {
			atomic.StoreInt64(&l.lastCascadeRounds, int64(rounds))
			return initialOutcome, &enginestate.InvariantViolation{Reason: "observer cascade cap exceeded"}
		}
		auto := l.runObservers()
		if len(auto) == 0 {
			atomic.StoreInt64(&l.lastCascadeRounds, int64(rounds))
			return initialOutcome, nil
		}
		for _, a := range auto {
			l.emit(Event{Type: EventAutoActionQueued, Action: a})
		}
		queue = auto
	}
}

// processOne runs one action through blockers, the pre-hook chain,
// execution, and post-hooks, returning its Outcome and any follow-up
// actions the post-hooks produced.
func (l *Loop) processOne(a *action.Action) (Outcome, []*action.Action, error) {
	l.emit(Event{Type: EventActionExecuting, Action: a})

	if reason, blocked := l.runBlockers(a); blocked {
		l.emit(Event{Type: EventActionBlocked, Action: a, Reason: reason})
		return Outcome{Blocked: true, Reason: reason, Action: a}, nil, nil
	}

	var err error
	a, err = l.runPreHooks(a)
	if err != nil {
		if rej, ok := err.(*blockedError); ok {
			l.emit(Event{Type: EventActionBlocked, Action: a, Reason: rej.reason})
			return Outcome{Blocked: true, Reason: rej.reason, Action: a}, nil, nil
		}
		return Outcome{}, nil, err
	}

	prevState := l.state.Snapshot()

	if err := l.exec.Execute(l.state, a); err != nil {
		if rej, ok := err.(*executor.Rejected); ok {
			l.state.Restore(prevState)
			l.emit(Event{Type: EventActionRejected, Action: a, Reason: rej.Reason})
			return Outcome{Rejected: true, Reason: rej.Reason, Action: a}, nil, nil
		}
		// Invariant violations and malformed-input errors fail loudly
		// to the caller; the loop is left in its last-good state
		// (spec §7).
		l.state.Restore(prevState)
		return Outcome{}, nil, err
	}

	l.lastAction = a
	l.lastPrevState = prevState
	l.emit(Event{Type: EventActionExecuted, Action: a})
	if a.Type == action.EndTurn {
		l.emit(Event{Type: EventTurnEnded, Action: a})
		l.emit(Event{Type: EventTurnStarted, Action: a})
	}

	return Outcome{Executed: true, Action: a}, l.runPostHooks(a, prevState), nil
}

// runBlockers enforces the opponent-zone/capacity core rules and any
// plugin blockers (spec §4.E.a). The first refusal wins.
func (l *Loop) runBlockers(a *action.Action) (reason string, blocked bool) {
	if rej := l.exec.CheckUniversalRules(l.state, a); rej != nil {
		if rej.Blocked {
			return rej.Reason, true
		}
		l.log.Warnf("action warning (not enforced, UI-sourced): %s", rej.Reason)
	}
	if l.plugins == nil {
		return "", false
	}
	for _, blocker := range l.plugins.Blockers() {
		if reason := blocker(l.state, a); reason != "" {
			return reason, true
		}
	}
	return "", false
}

// blockedError signals a pre-hook block, distinguishing it from a
// genuine propagation-worthy error.
type blockedError struct{ reason string }

func (e *blockedError) Error() string { return e.reason }

// runPreHooks runs the priority-ordered pre-hook chain for a.Type,
// applying warn/block/replace semantics (spec §4.C, §4.E.b). A warn
// does not stop the chain: it is only remembered and enforced (block
// for an AI-sourced action, log for a UI-sourced one) once the chain
// ends without a block or replace, so a later hook still gets a
// chance to replace or otherwise override the warned action.
func (l *Loop) runPreHooks(a *action.Action) (*action.Action, error) {
	if l.plugins == nil {
		return a, nil
	}
	var warned, replaced bool
	var warnReason string
	for _, hook := range l.plugins.PreHooksFor(a.Type) {
		res := hook(l.state, a)
		switch res.Kind {
		case plugin.Block:
			return a, &blockedError{reason: res.Reason}
		case plugin.Replace:
			l.emit(Event{Type: EventActionReplaced, Action: res.NewAction, Reason: res.Reason})
			a = res.NewAction
			replaced = true
		case plugin.Warn:
			warned = true
			warnReason = res.Reason
		}
	}
	if warned && !replaced {
		if a.Source == action.SourceAI {
			return a, &blockedError{reason: warnReason}
		}
		l.log.Warnf("action warning: %s", warnReason)
	}
	return a, nil
}

// runPostHooks runs the priority-ordered post-hook chain for a.Type,
// collecting every follow-up action in chain order (spec §4.E.e).
func (l *Loop) runPostHooks(a *action.Action, prevState *enginestate.State) []*action.Action {
	if l.plugins == nil {
		return nil
	}
	var follow []*action.Action
	for _, hook := range l.plugins.PostHooksFor(a.Type) {
		follow = append(follow, hook(l.state, prevState, a)...)
	}
	return follow
}

// runObservers runs every registered state observer once, collecting
// their auto-actions (spec §4.E.f). Observers see the state as of
// just before lastAction executed, not a fresh snapshot of the
// already-mutated current state, so a diffing observer can actually
// see what lastAction changed.
func (l *Loop) runObservers() []*action.Action {
	if l.plugins == nil {
		return nil
	}
	prevState := l.lastPrevState
	var auto []*action.Action
	for _, obs := range l.plugins.Observers() {
		auto = append(auto, obs(l.state, prevState, l.lastAction)...)
	}
	return auto
}
