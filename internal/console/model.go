package console

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/ui/components"
	"github.com/abhisek/cardbot/internal/ui/layout"
	"github.com/abhisek/cardbot/internal/ui/theme"
)

// focus points at an inline button; msgID 0 means the text field.
type focus struct {
	msgID chat.MessageID
	index int
}

type target struct {
	msgID  chat.MessageID
	button chat.Button
}

type model struct {
	ctx     context.Context
	console *Console
	input   components.TextInput
	focus   focus
	menuPos int
	width   int
	height  int
}

func newModel(ctx context.Context, c *Console) model {
	return model{
		ctx:     ctx,
		console: c,
		input:   components.NewTextInput("Type a message or command", 2000),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.input.Init(), m.console.emit(m.ctx, m.console.Say("/start")))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		if _, ok := m.focused(); !ok {
			m.focus = focus{}
		}
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.focus = m.step(1)
			return m, nil
		case "shift+tab":
			m.focus = m.step(-1)
			return m, nil
		case "esc":
			m.focus = focus{}
			return m, nil
		case "ctrl+k":
			m.input.SetValue(m.nextMenuLabel())
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	if m.focus.msgID != 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit presses the focused button, or sends the typed text.
func (m model) submit() (tea.Model, tea.Cmd) {
	if t, ok := m.focused(); ok {
		m.focus = focus{}
		return m, m.console.emit(m.ctx, m.console.Press(t.msgID, t.button))
	}
	text, ok := m.input.Take()
	if !ok {
		return m, nil
	}
	m.menuPos = 0
	return m, m.console.emit(m.ctx, m.console.Say(text))
}

// targets lists every pressable button, newest message first.
func (m model) targets() []target {
	entries := m.console.Entries()
	var out []target
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		for _, b := range e.Keyboard.Buttons() {
			out = append(out, target{msgID: e.ID, button: b})
		}
	}
	return out
}

func (m model) focused() (target, bool) {
	if m.focus.msgID == 0 {
		return target{}, false
	}
	n := 0
	for _, t := range m.targets() {
		if t.msgID != m.focus.msgID {
			continue
		}
		if n == m.focus.index {
			return t, true
		}
		n++
	}
	return target{}, false
}

// step moves the focus through the buttons and back to the text field.
func (m model) step(delta int) focus {
	ts := m.targets()
	if len(ts) == 0 {
		return focus{}
	}
	pos := -1 // text field
	if t, ok := m.focused(); ok {
		for i, c := range ts {
			if c.msgID == t.msgID && c.button == t.button {
				pos = i
				break
			}
		}
	}
	pos += delta
	if pos < -1 {
		pos = len(ts) - 1
	}
	if pos == -1 || pos >= len(ts) {
		return focus{}
	}
	index := 0
	for i := 0; i < pos; i++ {
		if ts[i].msgID == ts[pos].msgID {
			index++
		}
	}
	return focus{msgID: ts[pos].msgID, index: index}
}

func (m *model) nextMenuLabel() string {
	var labels []string
	for _, row := range m.console.Menu() {
		labels = append(labels, row...)
	}
	if len(labels) == 0 {
		return m.input.Value()
	}
	l := labels[m.menuPos%len(labels)]
	m.menuPos++
	return l
}

func (m model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.console.userName, m.width)
	footer := layout.RenderFooter([]layout.KeyHint{
		{Key: "Enter", Description: "Send/Press"},
		{Key: "Tab", Description: "Buttons"},
		{Key: "Ctrl+K", Description: "Menu"},
		{Key: "Ctrl+C", Description: "Quit"},
	}, m.width)

	body := m.transcript(m.width-2) + "\n\n" + m.input.View()
	v.SetContent(layout.RenderFrame(header, body, footer, m.width, m.height))
	return v
}

// transcript renders every entry with its keyboard.
func (m model) transcript(width int) string {
	active, hasFocus := m.focused()
	var b strings.Builder
	for _, e := range m.console.Entries() {
		label := theme.BotLabel.Render("bot")
		if e.From == FromUser {
			label = theme.UserLabel.Render(m.console.userName)
		}
		b.WriteString(label + "\n")
		b.WriteString(theme.Bubble.MaxWidth(width).Render(theme.Body.Render(e.Text)))
		b.WriteString("\n")

		if e.Keyboard == nil {
			continue
		}
		for _, row := range e.Keyboard.Rows {
			buttons := make([]components.Button, len(row))
			for i, btn := range row {
				on := hasFocus && active.msgID == e.ID && active.button == btn
				buttons[i] = components.NewButton(btn.Text, on)
			}
			b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(components.ButtonRow(buttons)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
