// Package bot turns inbound chat events into card, set and learning
// operations and renders the results back to the chat.
package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/convstate"
	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/metrics"
	"github.com/abhisek/cardbot/internal/session"
	"github.com/abhisek/cardbot/internal/stats"
	"github.com/abhisek/cardbot/internal/store"
)

const (
	DefaultPageSize = 10
	DefaultGoal     = 10
)

// Options holds the bot's collaborators. Logger and Metrics may be nil.
type Options struct {
	Client   chat.Client
	Users    store.UserRepo
	Cards    *cards.Service
	Sessions *session.Controller
	States   convstate.Store
	Stats    *stats.Service
	Logger   *logging.Logger
	Metrics  *metrics.Metrics

	PageSize int // cards per list page
	Goal     int // goal offered by the goal buttons
}

// Bot handles chat events. It holds no per-user state of its own;
// everything lives in the state stores, so one Bot serves concurrent
// events.
type Bot struct {
	client   chat.Client
	users    store.UserRepo
	cards    *cards.Service
	sessions *session.Controller
	states   convstate.Store
	stats    *stats.Service
	log      *logging.Logger
	metrics  *metrics.Metrics
	pageSize int
	goal     int
}

// New creates a Bot.
func New(opts Options) *Bot {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	b := &Bot{
		client:   opts.Client,
		users:    opts.Users,
		cards:    opts.Cards,
		sessions: opts.Sessions,
		states:   opts.States,
		stats:    opts.Stats,
		log:      log.Named("bot"),
		metrics:  opts.Metrics,
		pageSize: opts.PageSize,
		goal:     opts.Goal,
	}
	if b.pageSize < 1 {
		b.pageSize = DefaultPageSize
	}
	if b.goal < 1 {
		b.goal = DefaultGoal
	}
	return b
}

// request is the per-event context handed to handlers.
type request struct {
	chatID int64
	userID int64 // internal user id
	name   string
}

// HandleMessage processes a text message. Errors are reported to the
// user and logged; they never escape.
func (b *Bot) HandleMessage(ctx context.Context, msg chat.Message) {
	start := time.Now()
	defer func() { b.metrics.RecordEvent("message", time.Since(start)) }()

	ctx = logging.WithUserID(ctx, msg.UserID)
	req, err := b.resolve(ctx, msg.ChatID, msg.UserID, msg.UserName)
	if err == nil {
		err = b.route(ctx, req, msg.Text)
	}
	if err != nil {
		b.fail(ctx, msg.ChatID, err)
	}
}

// HandleCallback processes a button press. The callback is acknowledged
// exactly once whatever the outcome.
func (b *Bot) HandleCallback(ctx context.Context, cb chat.Callback) {
	start := time.Now()
	defer func() { b.metrics.RecordEvent("callback", time.Since(start)) }()

	ctx = logging.WithUserID(ctx, cb.UserID)
	defer b.ack(ctx, cb.ChatID, cb.ID)

	p, err := chat.DecodePayload(cb.Data)
	if err != nil {
		b.log.Warn(ctx, "undecodable callback", zap.String("data", cb.Data), zap.Error(err))
		return
	}
	b.metrics.RecordCallback(payloadKind(p))

	req, err := b.resolve(ctx, cb.ChatID, cb.UserID, cb.UserName)
	if err == nil {
		err = b.dispatch(ctx, req, cb.MessageID, p)
	}
	if err != nil {
		b.fail(ctx, cb.ChatID, err)
	}
}

func (b *Bot) resolve(ctx context.Context, chatID, platformID int64, name string) (*request, error) {
	u, err := b.users.FindOrCreate(ctx, platformID, name)
	if err != nil {
		return nil, err
	}
	return &request{chatID: chatID, userID: u.ID, name: name}, nil
}

// fail reports err to the user. Expected errors are shown as they are;
// anything else is logged and replaced with a generic message.
func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	if text, ok := userError(err); ok {
		b.log.Debug(ctx, "request rejected", zap.Error(err))
		b.send(ctx, chatID, text, nil)
		return
	}
	b.log.Error(ctx, "event handling failed", zap.Int64("chat.id", chatID), zap.Error(err))
	b.send(ctx, chatID, msgInternalError, nil)
}

// The methods below are the delivery boundary: failures are logged and
// counted, and the state change that led to them stands.

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup chat.Markup) chat.MessageID {
	id, err := b.client.Send(ctx, chatID, text, markup)
	if err != nil {
		b.deliveryFailed(ctx, &chat.DeliveryError{Op: chat.OpSend, ChatID: chatID, Err: err})
		return 0
	}
	return id
}

func (b *Bot) sendScreen(ctx context.Context, chatID int64, s screen) chat.MessageID {
	return b.send(ctx, chatID, s.text, s.markup)
}

func (b *Bot) edit(ctx context.Context, chatID int64, msgID chat.MessageID, text string, markup chat.Markup) {
	if err := b.client.Edit(ctx, chatID, msgID, text, markup); err != nil {
		b.deliveryFailed(ctx, &chat.DeliveryError{Op: chat.OpEdit, ChatID: chatID, Err: err})
	}
}

func (b *Bot) editScreen(ctx context.Context, chatID int64, msgID chat.MessageID, s screen) {
	b.edit(ctx, chatID, msgID, s.text, s.markup)
}

func (b *Bot) delete(ctx context.Context, chatID int64, msgID chat.MessageID) {
	if err := b.client.Delete(ctx, chatID, msgID); err != nil {
		b.deliveryFailed(ctx, &chat.DeliveryError{Op: chat.OpDelete, ChatID: chatID, Err: err})
	}
}

func (b *Bot) ack(ctx context.Context, chatID int64, callbackID string) {
	if err := b.client.AckCallback(ctx, callbackID); err != nil {
		b.deliveryFailed(ctx, &chat.DeliveryError{Op: chat.OpAck, ChatID: chatID, Err: err})
	}
}

func (b *Bot) deliveryFailed(ctx context.Context, err *chat.DeliveryError) {
	b.metrics.RecordDeliveryFailure(err.Op)
	b.log.Warn(ctx, "chat delivery failed",
		zap.String("op", err.Op),
		zap.Int64("chat.id", err.ChatID),
		zap.Error(err.Err),
	)
}

// userError returns the text to show for an expected failure, or false
// for errors that are not the user's to see.
func userError(err error) (string, bool) {
	var verr *cards.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Msg, true
	case errors.Is(err, errSetNotFound):
		return msgSetNotFound, true
	case errors.Is(err, cards.ErrNotFound):
		return msgCardNotFound, true
	case errors.Is(err, cards.ErrEmpty):
		return msgEmptyInput, true
	case errors.Is(err, session.ErrNoCards):
		return msgNoCardsInSet, true
	case errors.Is(err, session.ErrNoSession):
		return msgNoSession, true
	}
	return "", false
}
