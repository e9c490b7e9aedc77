package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/decred/slog"

	"github.com/vctt94/cardengine/pkg/enginestate"
	"github.com/vctt94/cardengine/pkg/gameloop"
	"github.com/vctt94/cardengine/pkg/gametype"
	"github.com/vctt94/cardengine/pkg/klondike"
	"github.com/vctt94/cardengine/pkg/readable"
	"github.com/vctt94/cardengine/pkg/tool"
	"github.com/vctt94/cardengine/pkg/zone"
)

const maxScrollback = 12

// model is the Bubble Tea driver over a single Klondike game: it holds
// no game logic of its own, only a command line that turns short
// commands into tool.Registry calls against the shared engine state
// (spec §4.K). Adapted from the teacher's PokerUI (pkg/ui/ui.go), with
// the grpc-backed lobby/table screens replaced by one always-on board
// view since Klondike is a single-player, single-screen game.
type model struct {
	gt       *gametype.GameType
	state    *enginestate.State
	loop     *gameloop.Loop
	registry *tool.Registry
	log      slog.Logger
	lookup   readable.TemplateLookup

	input    string
	lines    []string
	quitting bool
}

func newModel(gt *gametype.GameType, state *enginestate.State, loop *gameloop.Loop, registry *tool.Registry, log slog.Logger) *model {
	return &model{
		gt:       gt,
		state:    state,
		loop:     loop,
		registry: registry,
		log:      log,
		lookup:   gt.Lookup(),
		lines:    []string{"Klondike solitaire. Type \"help\" for commands."},
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input)
			m.input = ""
			if line != "" {
				m.appendLine(promptStyle.Render("> ") + line)
				m.runCommand(line)
			}
			if m.quitting {
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		case tea.KeySpace:
			m.input += " "
			return m, nil
		case tea.KeyRunes:
			m.input += string(msg.Runes)
			return m, nil
		}
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Klondike"))
	b.WriteString("\n")
	b.WriteString(boardStyle.Render(m.renderBoard()))
	b.WriteString("\n")
	b.WriteString(m.renderScrollback())
	b.WriteString("\n")
	b.WriteString(promptStyle.Render("> ") + m.input + "_")
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("help | draw | move <from> <to> | flip <zone> | victory [reason] | concede | end | quit"))
	return b.String()
}

func (m *model) appendLine(s string) {
	m.lines = append(m.lines, s)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}

func (m *model) appendErr(s string) {
	m.appendLine(errorStyle.Render(s))
}

func (m *model) renderScrollback() string {
	return strings.Join(m.lines, "\n")
}

// zoneKey maps the short zone ids the CLI accepts from typed commands
// (deck, waste, foundation_spades, tableau3, ...) to the engine's
// canonical per-player key. Klondike is always single-player, never
// shared, so this is the one place the CLI hardcodes that.
func zoneKey(short string) string {
	return zone.Key(0, short, false)
}

func (m *model) topCardID(key string) (string, bool) {
	z, err := m.state.Zone(key)
	if err != nil {
		return "", false
	}
	top := z.Top()
	if top == nil {
		return "", false
	}
	return top.InstanceID, true
}

// callTool looks up name in the CLI's tool.Registry and runs it
// directly against the shared state/loop, the same contract a
// plugin-contributed or built-in tool exposes to an agent runner
// (spec §4.G), just invoked by a human's typed command instead of a
// model's tool call.
func (m *model) callTool(name string, args map[string]any) {
	t, ok := m.registry.Get(name)
	if !ok {
		m.appendErr(fmt.Sprintf("no such tool: %s", name))
		return
	}
	ctx := &tool.Context{State: m.state, Loop: m.loop, Plugins: nil, Player: 0, Lookup: m.lookup}
	result := t.Execute(ctx, args)
	if strings.HasPrefix(result, "Action blocked:") || strings.HasPrefix(result, "Error:") {
		m.appendErr(result)
	} else {
		m.appendLine(result)
	}
	if m.state.Result != nil {
		m.appendLine(fmt.Sprintf("Game over: winner=player%d (%s) %s", m.state.Result.Winner, m.state.Result.Reason, m.state.Result.Details))
	}
}

func (m *model) runCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "help", "h":
		m.appendLine("commands: state, draw [n], move <from> <to>, flip <zone>, victory [reason], concede, end, quit")
		m.appendLine("zones: deck, waste, foundation_clubs, foundation_diamonds, foundation_hearts, foundation_spades, tableau1..tableau7")
	case "state", "s":
		m.appendLine(readable.Project(m.state, 0, m.lookup, nil).Render())
	case "draw", "d":
		n := 1
		if len(fields) > 1 {
			if parsed, err := strconv.Atoi(fields[1]); err == nil && parsed > 0 {
				n = parsed
			}
		}
		m.callTool("draw", map[string]any{"fromZone": zoneKey("deck"), "toZone": zoneKey("waste"), "count": n})
	case "move", "mv", "m":
		if len(fields) != 3 {
			m.appendErr("usage: move <fromZone> <toZone>")
			return
		}
		from, to := zoneKey(fields[1]), zoneKey(fields[2])
		id, ok := m.topCardID(from)
		if !ok {
			m.appendErr(fmt.Sprintf("%s has no card to move", fields[1]))
			return
		}
		m.callTool("move_card", map[string]any{"instanceId": id, "fromZone": from, "toZone": to})
	case "flip", "f":
		if len(fields) != 2 {
			m.appendErr("usage: flip <zone>")
			return
		}
		z := zoneKey(fields[1])
		id, ok := m.topCardID(z)
		if !ok {
			m.appendErr(fmt.Sprintf("%s has no card to flip", fields[1]))
			return
		}
		m.callTool("flip_card", map[string]any{"instanceId": id})
	case "victory", "win":
		reason := strings.Join(fields[1:], " ")
		if reason == "" {
			reason = "all foundations complete"
		}
		m.callTool("declare_victory", map[string]any{"reason": reason})
	case "concede":
		m.callTool("concede", nil)
	case "end":
		m.callTool("end_turn", nil)
	case "quit", "q", "exit":
		m.quitting = true
	default:
		m.appendErr(fmt.Sprintf("unknown command: %s (try \"help\")", fields[0]))
	}
}

// renderBoard draws the stock/waste/foundations row and the seven
// tableau piles beneath it, using klondike.TableauZoneKeys and
// klondike.FoundationZoneKeys so the display order matches the
// plugin's own fixed iteration order rather than Go's randomized map
// order.
func (m *model) renderBoard() string {
	var rows []string

	top := []string{
		m.renderZoneSummary("deck", "Stock"),
		m.renderZoneSummary("waste", "Waste"),
	}
	for _, key := range klondike.FoundationZoneKeys() {
		top = append(top, m.renderFoundation(key))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, top...))

	var piles []string
	for _, key := range klondike.TableauZoneKeys() {
		piles = append(piles, m.renderTableau(key))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, piles...))

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *model) renderZoneSummary(shortID, label string) string {
	z, err := m.state.Zone(zoneKey(shortID))
	if err != nil {
		return emptySlotStyle.Render(label)
	}
	if len(z.Cards) == 0 {
		return emptySlotStyle.Render(label + "\n(empty)")
	}
	top := z.Top()
	if !top.VisibleTo(0) {
		return cardBackStyle.Render(fmt.Sprintf("%s\n%d cards", label, len(z.Cards)))
	}
	return m.cardStyleFor(top.TemplateID).Render(fmt.Sprintf("%s\n%s", label, m.displayName(top.TemplateID)))
}

func (m *model) renderFoundation(key string) string {
	z, err := m.state.Zone(key)
	if err != nil {
		return emptySlotStyle.Render("foundation")
	}
	_, zoneID, _, _ := zone.ParseKey(key)
	label := strings.TrimPrefix(zoneID, "foundation_")
	if len(z.Cards) == 0 {
		return emptySlotStyle.Render(label + "\n-")
	}
	top := z.Top()
	body := fmt.Sprintf("%s\n%s", label, m.displayName(top.TemplateID))
	if len(z.Cards) == 13 {
		return foundationCompleteStyle.Render(body)
	}
	return m.cardStyleFor(top.TemplateID).Render(body)
}

func (m *model) renderTableau(key string) string {
	z, err := m.state.Zone(key)
	if err != nil || len(z.Cards) == 0 {
		return emptySlotStyle.Render("-")
	}
	var lines []string
	for _, c := range z.Cards {
		if !c.VisibleTo(0) {
			lines = append(lines, cardBackStyle.Render("###"))
			continue
		}
		lines = append(lines, m.cardStyleFor(c.TemplateID).Render(m.displayName(c.TemplateID)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *model) displayName(templateID string) string {
	name, ok := m.lookup(templateID)
	if !ok {
		return templateID
	}
	return name
}

// cardStyleFor colors a face-up card by suit, read from the template
// catalog's Extra metadata (klondike.Templates' convention) rather
// than re-parsing the display name.
func (m *model) cardStyleFor(templateID string) lipgloss.Style {
	t, ok := m.gt.Templates[templateID]
	if !ok {
		return cardFaceStyle
	}
	if color, _ := t.Extra["color"].(string); color == "red" {
		return cardFaceRedStyle
	}
	return cardFaceStyle
}
