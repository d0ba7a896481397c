// Package console is a terminal chat client. It implements chat.Client by
// keeping a transcript that a Bubble Tea program renders, and turns what
// the user types or presses into chat events.
package console

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/logging"
)

// Options configures a Console.
type Options struct {
	UserID    int64 // doubles as the chat id, like a private chat
	UserName  string
	QueueSize int
	Logger    *logging.Logger
}

// Sender is who wrote a transcript entry.
type Sender int

const (
	FromBot Sender = iota
	FromUser
)

// Entry is one message in the transcript.
type Entry struct {
	ID       chat.MessageID
	From     Sender
	Text     string
	Keyboard *chat.InlineKeyboard
}

// Console is the transcript shared between the bot and the program.
type Console struct {
	userID   int64
	userName string
	log      *logging.Logger

	mu      sync.Mutex
	entries []*Entry
	nextID  chat.MessageID
	menu    [][]string
	acks    int
	nextCB  int
	program *tea.Program

	events chan chat.Event
}

var _ chat.Client = (*Console)(nil)

// New creates a Console.
func New(opts Options) *Console {
	if opts.UserID == 0 {
		opts.UserID = 1
	}
	if opts.UserName == "" {
		opts.UserName = "you"
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Console{
		userID:   opts.UserID,
		userName: opts.UserName,
		log:      log.Named("console"),
		events:   make(chan chat.Event, opts.QueueSize),
	}
}

// Events returns the inbound events produced by the user.
func (c *Console) Events() <-chan chat.Event {
	return c.events
}

// Send appends a bot message to the transcript.
func (c *Console) Send(_ context.Context, chatID int64, text string, markup chat.Markup) (chat.MessageID, error) {
	if err := c.checkChat(chatID); err != nil {
		return 0, err
	}
	c.mu.Lock()
	if k, ok := markup.(*chat.ReplyKeyboard); ok {
		c.menu = k.Rows
	}
	e := c.appendLocked(FromBot, text)
	e.Keyboard = inline(markup)
	id := e.ID
	c.mu.Unlock()

	c.refresh()
	return id, nil
}

// Edit replaces the content of a bot message.
func (c *Console) Edit(_ context.Context, chatID int64, msgID chat.MessageID, text string, markup chat.Markup) error {
	if err := c.checkChat(chatID); err != nil {
		return err
	}
	c.mu.Lock()
	e := c.findLocked(msgID)
	if e == nil || e.From != FromBot {
		c.mu.Unlock()
		return fmt.Errorf("message %d not found", msgID)
	}
	e.Text = text
	e.Keyboard = inline(markup)
	c.mu.Unlock()

	c.refresh()
	return nil
}

// Delete removes a message from the transcript.
func (c *Console) Delete(_ context.Context, chatID int64, msgID chat.MessageID) error {
	if err := c.checkChat(chatID); err != nil {
		return err
	}
	c.mu.Lock()
	found := false
	for i, e := range c.entries {
		if e.ID == msgID {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return fmt.Errorf("message %d not found", msgID)
	}
	c.refresh()
	return nil
}

// AckCallback counts the acknowledgement; a terminal has no spinner to stop.
func (c *Console) AckCallback(_ context.Context, _ string) error {
	c.mu.Lock()
	c.acks++
	c.mu.Unlock()
	return nil
}

// Entries returns a copy of the transcript.
func (c *Console) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = *e
	}
	return out
}

// Menu returns the rows of the last reply keyboard.
func (c *Console) Menu() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menu
}

// Acks returns the number of acknowledged callbacks.
func (c *Console) Acks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acks
}

// Say records a user message and returns the event for it.
func (c *Console) Say(text string) chat.Event {
	c.mu.Lock()
	e := c.appendLocked(FromUser, text)
	id := e.ID
	c.mu.Unlock()

	return chat.Event{Message: &chat.Message{
		ChatID:    c.userID,
		UserID:    c.userID,
		UserName:  c.userName,
		MessageID: id,
		Text:      text,
	}}
}

// Press returns the callback event for a button on message msgID.
func (c *Console) Press(msgID chat.MessageID, b chat.Button) chat.Event {
	c.mu.Lock()
	c.nextCB++
	id := strconv.Itoa(c.nextCB)
	c.mu.Unlock()

	return chat.Event{Callback: &chat.Callback{
		ID:        id,
		ChatID:    c.userID,
		UserID:    c.userID,
		UserName:  c.userName,
		MessageID: msgID,
		Data:      b.Data,
	}}
}

// Run shows the console until the user quits or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	p := tea.NewProgram(newModel(ctx, c))

	c.mu.Lock()
	c.program = p
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.program = nil
		c.mu.Unlock()
	}()

	stop := context.AfterFunc(ctx, p.Quit)
	defer stop()

	c.log.Debug(ctx, "console started")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	c.log.Debug(ctx, "console stopped")
	return nil
}

// emit queues ev for the bot without blocking the program's event loop.
func (c *Console) emit(ctx context.Context, ev chat.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case c.events <- ev:
		case <-ctx.Done():
		}
		return nil
	}
}

type refreshMsg struct{}

func (c *Console) refresh() {
	c.mu.Lock()
	p := c.program
	c.mu.Unlock()
	if p != nil {
		go p.Send(refreshMsg{})
	}
}

func (c *Console) checkChat(chatID int64) error {
	if chatID != c.userID {
		return fmt.Errorf("unknown chat %d", chatID)
	}
	return nil
}

func (c *Console) appendLocked(from Sender, text string) *Entry {
	c.nextID++
	e := &Entry{ID: c.nextID, From: from, Text: text}
	c.entries = append(c.entries, e)
	return e
}

func (c *Console) findLocked(id chat.MessageID) *Entry {
	for _, e := range c.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func inline(m chat.Markup) *chat.InlineKeyboard {
	k, _ := m.(*chat.InlineKeyboard)
	return k
}
