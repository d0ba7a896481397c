package chat

import (
	"context"
	"sync"
)

// Operation names used in Op and DeliveryError.
const (
	OpSend   = "send"
	OpEdit   = "edit"
	OpDelete = "delete"
	OpAck    = "ack"
)

// Op is one recorded client call.
type Op struct {
	Name       string
	ChatID     int64
	MessageID  MessageID
	Text       string
	Markup     Markup
	CallbackID string
}

// Inline returns the op's inline keyboard, or nil.
func (o Op) Inline() *InlineKeyboard {
	k, _ := o.Markup.(*InlineKeyboard)
	return k
}

// Screen is the current content of a delivered message.
type Screen struct {
	Text    string
	Markup  Markup
	Deleted bool
}

// Recorder is an in-memory Client that records every call. It keeps the
// latest content of each message so tests can inspect what a user sees.
type Recorder struct {
	mu      sync.Mutex
	ops     []Op
	screens map[MessageID]*Screen
	nextID  MessageID
	fail    map[string]error
}

var _ Client = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		screens: make(map[MessageID]*Screen),
		fail:    make(map[string]error),
	}
}

// Fail makes every later call of op return err. A nil err clears it.
// Failed calls are still recorded.
func (r *Recorder) Fail(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

func (r *Recorder) Send(_ context.Context, chatID int64, text string, markup Markup) (MessageID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Name: OpSend, ChatID: chatID, Text: text, Markup: markup})
	if err := r.fail[OpSend]; err != nil {
		return 0, err
	}
	r.nextID++
	r.ops[len(r.ops)-1].MessageID = r.nextID
	r.screens[r.nextID] = &Screen{Text: text, Markup: markup}
	return r.nextID, nil
}

func (r *Recorder) Edit(_ context.Context, chatID int64, msgID MessageID, text string, markup Markup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Name: OpEdit, ChatID: chatID, MessageID: msgID, Text: text, Markup: markup})
	if err := r.fail[OpEdit]; err != nil {
		return err
	}
	if s, ok := r.screens[msgID]; ok && !s.Deleted {
		s.Text, s.Markup = text, markup
	}
	return nil
}

func (r *Recorder) Delete(_ context.Context, chatID int64, msgID MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Name: OpDelete, ChatID: chatID, MessageID: msgID})
	if err := r.fail[OpDelete]; err != nil {
		return err
	}
	if s, ok := r.screens[msgID]; ok {
		s.Deleted = true
	}
	return nil
}

func (r *Recorder) AckCallback(_ context.Context, callbackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Name: OpAck, CallbackID: callbackID})
	return r.fail[OpAck]
}

// Ops returns a copy of every recorded call in order.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Last returns the most recent call, if any.
func (r *Recorder) Last() (Op, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ops) == 0 {
		return Op{}, false
	}
	return r.ops[len(r.ops)-1], true
}

// LastSend returns the most recent successful send.
func (r *Recorder) LastSend() (Op, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ops) - 1; i >= 0; i-- {
		if op := r.ops[i]; op.Name == OpSend && op.MessageID != 0 {
			return op, true
		}
	}
	return Op{}, false
}

// Screen returns the current content of a sent message.
func (r *Recorder) Screen(msgID MessageID) (Screen, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.screens[msgID]
	if !ok {
		return Screen{}, false
	}
	return *s, true
}

// Acks counts acknowledgements of callbackID.
func (r *Recorder) Acks(callbackID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Name == OpAck && op.CallbackID == callbackID {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps message contents and ids.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = nil
}
