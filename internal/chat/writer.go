package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer is a Client that prints every outbound call as a line of text.
// It backs one-shot commands that have no live chat to deliver to.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	nextID MessageID
}

var _ Client = (*Writer)(nil)

// NewWriter creates a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (c *Writer) Send(_ context.Context, chatID int64, text string, markup Markup) (MessageID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	if err := c.print(fmt.Sprintf("chat %d #%d", chatID, c.nextID), text, markup); err != nil {
		return 0, err
	}
	return c.nextID, nil
}

func (c *Writer) Edit(_ context.Context, chatID int64, msgID MessageID, text string, markup Markup) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.print(fmt.Sprintf("chat %d #%d edited", chatID, msgID), text, markup)
}

func (c *Writer) Delete(_ context.Context, chatID int64, msgID MessageID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "[chat %d #%d deleted]\n", chatID, msgID)
	return err
}

func (c *Writer) AckCallback(context.Context, string) error { return nil }

func (c *Writer) print(head, text string, markup Markup) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", head, text)
	switch k := markup.(type) {
	case *InlineKeyboard:
		for _, row := range k.Rows {
			labels := make([]string, len(row))
			for i, btn := range row {
				labels[i] = "[" + btn.Text + "]"
			}
			fmt.Fprintf(&b, "  %s\n", strings.Join(labels, " "))
		}
	case *ReplyKeyboard:
		for _, row := range k.Rows {
			fmt.Fprintf(&b, "  %s\n", strings.Join(row, " | "))
		}
	}
	_, err := io.WriteString(c.w, b.String())
	return err
}
