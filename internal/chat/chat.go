// Package chat defines the boundary between the bot and a chat platform:
// inbound events, outbound markup and the client that delivers it.
package chat

import (
	"context"
	"fmt"
)

// MessageID identifies a delivered message within a chat.
type MessageID int64

// Message is an inbound text message.
type Message struct {
	ChatID    int64
	UserID    int64 // platform user id
	UserName  string
	MessageID MessageID
	Text      string
}

// Callback is an inbound inline-button press.
type Callback struct {
	ID        string
	ChatID    int64
	UserID    int64
	UserName  string
	MessageID MessageID // message carrying the pressed button
	Data      string    // encoded Payload
}

// Event is exactly one of Message or Callback.
type Event struct {
	Message  *Message
	Callback *Callback
}

// UserID returns the platform user id of the event's sender.
func (e Event) UserID() int64 {
	switch {
	case e.Message != nil:
		return e.Message.UserID
	case e.Callback != nil:
		return e.Callback.UserID
	}
	return 0
}

// Client delivers bot output to the platform. markup is nil, a
// *ReplyKeyboard or an *InlineKeyboard.
type Client interface {
	Send(ctx context.Context, chatID int64, text string, markup Markup) (MessageID, error)
	Edit(ctx context.Context, chatID int64, msgID MessageID, text string, markup Markup) error
	Delete(ctx context.Context, chatID int64, msgID MessageID) error
	AckCallback(ctx context.Context, callbackID string) error
}

// DeliveryError wraps a failed outbound call.
type DeliveryError struct {
	Op     string // send, edit, delete, ack
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("chat %s to %d: %v", e.Op, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
