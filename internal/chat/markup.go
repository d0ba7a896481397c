package chat

// Markup is attached to an outbound message.
type Markup interface {
	markup()
}

// ReplyKeyboard is the persistent keyboard shown under the input field.
type ReplyKeyboard struct {
	Rows [][]string
}

// Button is an inline button. Data is an encoded Payload.
type Button struct {
	Text string
	Data string
}

// InlineKeyboard is a grid of buttons attached to a message.
type InlineKeyboard struct {
	Rows [][]Button
}

func (*ReplyKeyboard) markup()  {}
func (*InlineKeyboard) markup() {}

// NewButton returns a button carrying p.
func NewButton(text string, p Payload) Button {
	return Button{Text: text, Data: p.Encode()}
}

// Inline builds a keyboard from rows of buttons.
func Inline(rows ...[]Button) *InlineKeyboard {
	return &InlineKeyboard{Rows: rows}
}

// Row groups buttons into one keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Buttons returns every button in reading order.
func (k *InlineKeyboard) Buttons() []Button {
	if k == nil {
		return nil
	}
	var out []Button
	for _, row := range k.Rows {
		out = append(out, row...)
	}
	return out
}

// Find returns the first button labelled text.
func (k *InlineKeyboard) Find(text string) (Button, bool) {
	for _, b := range k.Buttons() {
		if b.Text == text {
			return b, true
		}
	}
	return Button{}, false
}
