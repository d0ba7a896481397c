package components

import (
	"strings"

	"github.com/abhisek/cardbot/internal/ui/theme"
)

// Button is an inline keyboard button as drawn in the transcript.
type Button struct {
	Label  string
	Active bool
}

// NewButton creates a new button.
func NewButton(label string, active bool) Button {
	return Button{Label: label, Active: active}
}

// View renders the button.
func (b Button) View() string {
	label := b.Label
	if b.Active {
		return theme.ButtonActive.Render("▸ " + label)
	}
	return theme.ButtonInactive.Render("  " + label)
}

// ButtonRow renders buttons side by side, one space apart.
func ButtonRow(buttons []Button) string {
	parts := make([]string, len(buttons))
	for i, b := range buttons {
		parts[i] = b.View()
	}
	return strings.Join(parts, " ")
}
