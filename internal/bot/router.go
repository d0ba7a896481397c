package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/convstate"
	"github.com/abhisek/cardbot/internal/store"
)

var errSetNotFound = errors.New("set not found")

// route dispatches a text message. The order of checks matters:
//  1. any command leaves typed-answer mode; /cancel stops there
//  2. /cancel clears whatever input was awaited
//  3. /sets always opens set management
//  4. awaited input goes to its continuation
//  5. everything else is a command or unknown
func (b *Bot) route(ctx context.Context, req *request, text string) error {
	text = strings.TrimSpace(text)
	cmd, arg := parseCommand(text)

	st, err := b.states.Get(ctx, req.userID)
	if err != nil {
		return fmt.Errorf("load conversation state: %w", err)
	}

	switch {
	case st.Kind == convstate.AwaitingTypedAnswer && cmd != cmdNone:
		if err := b.leaveTyped(ctx, req.userID); err != nil {
			return err
		}
		if cmd == cmdCancel {
			b.send(ctx, req.chatID, msgTypedCancelled, nil)
			return nil
		}
		st = convstate.State{}
	case cmd == cmdCancel:
		if err := b.states.Clear(ctx, req.userID); err != nil {
			return err
		}
		b.send(ctx, req.chatID, msgCancelled, nil)
		return nil
	}

	if cmd == cmdSets {
		return b.showSets(ctx, req, 0)
	}

	if st.Awaiting() {
		return b.continueInput(ctx, req, st, text)
	}

	switch cmd {
	case cmdStart:
		b.send(ctx, req.chatID, welcomeText(req.name), menuKeyboard())
	case cmdHelp:
		b.send(ctx, req.chatID, helpText, menuKeyboard())
	case cmdAdd:
		return b.startAdd(ctx, req, arg)
	case cmdLearn:
		return b.startLearn(ctx, req)
	case cmdList:
		return b.showListChoice(ctx, req)
	case cmdStats:
		return b.showStats(ctx, req)
	default:
		b.send(ctx, req.chatID, msgUnknownCommand, nil)
	}
	return nil
}

// continueInput hands text to the dialogue the user is inside.
func (b *Bot) continueInput(ctx context.Context, req *request, st convstate.State, text string) error {
	taken, ok, err := b.take(ctx, req.userID, st.Kind)
	if err != nil || !ok {
		// Another event consumed the state first.
		return err
	}
	switch taken.Kind {
	case convstate.AwaitingCardEdit:
		return b.editInput(ctx, req, taken.CardID, text)
	case convstate.AwaitingSetName:
		return b.setNameInput(ctx, req, text)
	case convstate.AwaitingNewCard:
		return b.addInput(ctx, req, text)
	case convstate.AwaitingTypedAnswer:
		return b.typedAnswer(ctx, req, taken.CardID, text)
	}
	return nil
}

// take clears the user's state if it is of kind, atomically, and returns
// the state it cleared.
func (b *Bot) take(ctx context.Context, userID int64, kind convstate.Kind) (convstate.State, bool, error) {
	var prev convstate.State
	_, err := b.states.Update(ctx, userID, func(s convstate.State) convstate.State {
		prev = s
		if s.Kind == kind {
			return convstate.State{}
		}
		return s
	})
	if err != nil {
		return convstate.State{}, false, fmt.Errorf("update conversation state: %w", err)
	}
	return prev, prev.Kind == kind, nil
}

// await puts the user into an input dialogue, replacing any other.
func (b *Bot) await(ctx context.Context, userID int64, st convstate.State) error {
	if err := b.states.Set(ctx, userID, st); err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}

// retryable reports whether an input error should leave the dialogue open.
func retryable(err error) bool {
	var verr *cards.ValidationError
	return errors.As(err, &verr) || errors.Is(err, cards.ErrEmpty)
}

// dispatch routes a decoded button press.
func (b *Bot) dispatch(ctx context.Context, req *request, msgID chat.MessageID, p chat.Payload) error {
	switch p := p.(type) {
	case chat.ShowCard:
		return b.reveal(ctx, req, msgID, p)
	case chat.Advance:
		return b.advance(ctx, req, msgID)
	case chat.EndSession:
		return b.endSession(ctx, req, msgID)
	case chat.RemindLearn:
		return b.remindLearn(ctx, req, msgID)
	case chat.LearnSet:
		return b.showModes(ctx, req, msgID, p.Filter)
	case chat.LearnMode:
		return b.startReveal(ctx, req, msgID, p)
	case chat.LearnInput:
		return b.startTyped(ctx, req, msgID, p)
	case chat.InputSkip:
		return b.skipTyped(ctx, req, msgID)
	case chat.InputExit:
		return b.exitTyped(ctx, req, msgID)
	case chat.ListPage:
		return b.showList(ctx, req, msgID, p.Filter, p.Page)
	case chat.EditCard:
		return b.startEdit(ctx, req, p.CardID)
	case chat.MoveCard:
		return b.showMove(ctx, req, msgID, p.CardID)
	case chat.MoveTo:
		return b.moveCard(ctx, req, msgID, p.CardID, p.SetID)
	case chat.DeleteCard:
		return b.confirmDelete(ctx, req, msgID, p.CardID)
	case chat.DeleteYes:
		return b.deleteCard(ctx, req, msgID, p.CardID)
	case chat.DeleteNo:
		return b.showList(ctx, req, msgID, store.AllSets(), 0)
	case chat.AddSet:
		return b.startAddSet(ctx, req)
	case chat.DeleteSet:
		return b.confirmDeleteSet(ctx, req, msgID, p.SetID)
	case chat.DeleteSetYes:
		return b.deleteSet(ctx, req, msgID, p.SetID)
	case chat.DeleteSetNo:
		return b.showSets(ctx, req, msgID)
	}
	return fmt.Errorf("unhandled payload %T", p)
}

func payloadKind(p chat.Payload) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", p), "chat.")
}

// checkFilter reports errSetNotFound when f names a set the user does
// not have.
func (b *Bot) checkFilter(ctx context.Context, userID int64, f store.SetFilter) error {
	if f.Kind != store.FilterSet {
		return nil
	}
	_, err := b.cards.GetSet(ctx, userID, f.SetID)
	if errors.Is(err, cards.ErrNotFound) {
		return errSetNotFound
	}
	return err
}

func (b *Bot) showStats(ctx context.Context, req *request) error {
	sum, err := b.stats.Summary(ctx, req.userID)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	b.send(ctx, req.chatID, sum.Text(), nil)
	return nil
}
