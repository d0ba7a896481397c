package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/convstate"
	"github.com/abhisek/cardbot/internal/session"
	"github.com/abhisek/cardbot/internal/store"
)

func (b *Bot) startLearn(ctx context.Context, req *request) error {
	total, err := b.cards.Count(ctx, req.userID, store.AllSets())
	if err != nil {
		return err
	}
	if total == 0 {
		b.send(ctx, req.chatID, msgNoCardsToLearn, nil)
		return nil
	}
	s, err := b.scopeChoice(ctx, req.userID, msgChooseLearnSet, func(f store.SetFilter) chat.Payload {
		return chat.LearnSet{Filter: f}
	})
	if err != nil {
		return err
	}
	b.sendScreen(ctx, req.chatID, s)
	return nil
}

// scopeChoice builds the all / no set / per-set picker.
func (b *Bot) scopeChoice(ctx context.Context, userID int64, text string, pick func(store.SetFilter) chat.Payload) (screen, error) {
	noSet, err := b.cards.Count(ctx, userID, store.NoSet())
	if err != nil {
		return screen{}, err
	}
	sets, err := b.cards.Sets(ctx, userID)
	if err != nil {
		return screen{}, err
	}
	return setChoice(text, noSet, sets, pick), nil
}

// showModes replaces the set picker with the mode menu.
func (b *Bot) showModes(ctx context.Context, req *request, msgID chat.MessageID, f store.SetFilter) error {
	if err := b.checkFilter(ctx, req.userID, f); err != nil {
		return err
	}
	b.delete(ctx, req.chatID, msgID)
	b.sendScreen(ctx, req.chatID, modeScreen(f, b.goal))
	return nil
}

func (b *Bot) startReveal(ctx context.Context, req *request, msgID chat.MessageID, p chat.LearnMode) error {
	opts := session.Options{
		Filter:    p.Filter,
		Direction: direction(p.Reverse),
		Policy:    session.Random,
		Mode:      session.ShowReveal,
		Goal:      p.Goal,
	}
	if p.Sequential {
		opts.Policy = session.Sequential
	}
	card, err := b.start(ctx, req, msgID, opts)
	if err != nil {
		return err
	}
	b.sendScreen(ctx, req.chatID, cardScreen(card, opts.Direction, session.FormatProgress(0, opts.Goal)))
	return nil
}

func (b *Bot) startTyped(ctx context.Context, req *request, msgID chat.MessageID, p chat.LearnInput) error {
	opts := session.Options{
		Filter:    p.Filter,
		Direction: direction(p.Reverse),
		Policy:    session.Random,
		Mode:      session.TypedInput,
		Goal:      p.Goal,
	}
	card, err := b.start(ctx, req, msgID, opts)
	if err != nil {
		return err
	}
	return b.askTyped(ctx, req, card, opts.Direction, session.FormatProgress(0, opts.Goal))
}

// start removes the mode menu and begins a session. A pending typed
// answer from an earlier session is dropped.
func (b *Bot) start(ctx context.Context, req *request, msgID chat.MessageID, opts session.Options) (*store.Card, error) {
	if err := b.checkFilter(ctx, req.userID, opts.Filter); err != nil {
		return nil, err
	}
	b.delete(ctx, req.chatID, msgID)
	if _, _, err := b.take(ctx, req.userID, convstate.AwaitingTypedAnswer); err != nil {
		return nil, err
	}
	card, err := b.sessions.Start(ctx, req.userID, opts)
	if err != nil {
		return nil, err
	}
	mode := "reveal"
	if opts.Mode == session.TypedInput {
		mode = "typed"
	}
	b.metrics.RecordSessionStart(mode)
	return card, nil
}

func direction(reverse bool) session.Direction {
	if reverse {
		return session.Reverse
	}
	return session.Forward
}

// reveal logs a view and turns the card message into its answer.
func (b *Bot) reveal(ctx context.Context, req *request, msgID chat.MessageID, p chat.ShowCard) error {
	card, err := b.cards.Get(ctx, req.userID, p.CardID)
	if err != nil {
		return err
	}
	if err := b.sessions.Reveal(ctx, req.userID, card); err != nil {
		return err
	}
	b.editScreen(ctx, req.chatID, msgID, revealedScreen(card, direction(p.Reverse)))
	return nil
}

// advance resolves the card on screen and shows what comes next. A stale
// Next button with no session shows a random card instead.
func (b *Bot) advance(ctx context.Context, req *request, msgID chat.MessageID) error {
	out, err := b.sessions.Advance(ctx, req.userID)
	if errors.Is(err, session.ErrNoSession) {
		return b.showRandom(ctx, req, msgID)
	}
	if err != nil {
		return err
	}
	switch out.Kind {
	case session.OutcomeGoalReached:
		b.edit(ctx, req.chatID, msgID, goalReachedText(out.Viewed), nil)
	case session.OutcomeExhausted:
		b.edit(ctx, req.chatID, msgID, msgExhausted, nil)
	default:
		b.editScreen(ctx, req.chatID, msgID, cardScreen(out.Card, b.sessions.Direction(ctx, req.userID), out.Progress()))
	}
	return nil
}

func (b *Bot) endSession(ctx context.Context, req *request, msgID chat.MessageID) error {
	if err := b.sessions.End(ctx, req.userID); err != nil {
		return err
	}
	b.edit(ctx, req.chatID, msgID, msgSessionEnded, nil)
	return nil
}

// remindLearn turns a reminder into a card to review.
func (b *Bot) remindLearn(ctx context.Context, req *request, msgID chat.MessageID) error {
	return b.showRandom(ctx, req, msgID)
}

func (b *Bot) showRandom(ctx context.Context, req *request, msgID chat.MessageID) error {
	card, err := b.sessions.Draw(ctx, req.userID, store.AllSets())
	if errors.Is(err, session.ErrNoCards) {
		b.edit(ctx, req.chatID, msgID, msgNoCardsToLearn, nil)
		return nil
	}
	if err != nil {
		return err
	}
	b.editScreen(ctx, req.chatID, msgID, cardScreen(card, session.Forward, ""))
	return nil
}

// askTyped sends card as a typed-answer prompt and waits for the answer.
func (b *Bot) askTyped(ctx context.Context, req *request, card *store.Card, d session.Direction, progress string) error {
	if err := b.await(ctx, req.userID, convstate.TypedAnswer(card.ID)); err != nil {
		return err
	}
	b.sendScreen(ctx, req.chatID, typedScreen(card, d, progress))
	return nil
}

// typedAnswer grades text against the awaited card.
func (b *Bot) typedAnswer(ctx context.Context, req *request, cardID int64, text string) error {
	card, err := b.cards.Get(ctx, req.userID, cardID)
	if errors.Is(err, cards.ErrNotFound) {
		return b.replaceTyped(ctx, req)
	}
	if err != nil {
		return err
	}
	res, err := b.sessions.RecordAnswer(ctx, req.userID, card, text)
	if err != nil {
		return err
	}
	if res.Correct {
		b.send(ctx, req.chatID, msgCorrect, nil)
	} else {
		b.send(ctx, req.chatID, wrongText(res.Expected), nil)
	}
	return b.followTyped(ctx, req, res.Outcome)
}

// replaceTyped draws a new card for a typed session whose awaited card
// was deleted. The missing card is not counted.
func (b *Bot) replaceTyped(ctx context.Context, req *request) error {
	b.send(ctx, req.chatID, msgCardNotFound, nil)
	card, err := b.sessions.Next(ctx, req.userID)
	switch {
	case errors.Is(err, session.ErrExhausted):
		b.send(ctx, req.chatID, msgExhausted, nil)
		return nil
	case errors.Is(err, session.ErrNoSession):
		return nil
	case err != nil:
		return err
	}
	s, ok, err := b.sessions.Active(ctx, req.userID)
	if err != nil {
		return err
	}
	d := session.Forward
	if ok {
		d = s.Direction
	}
	return b.askTyped(ctx, req, card, d, s.Progress())
}

// followTyped continues a typed session after a resolution.
func (b *Bot) followTyped(ctx context.Context, req *request, out session.Outcome) error {
	switch out.Kind {
	case session.OutcomeGoalReached:
		b.send(ctx, req.chatID, goalReachedText(out.Viewed), nil)
	case session.OutcomeExhausted:
		b.send(ctx, req.chatID, msgExhausted, nil)
	default:
		return b.askTyped(ctx, req, out.Card, b.sessions.Direction(ctx, req.userID), out.Progress())
	}
	return nil
}

// skipTyped reveals the awaited card and moves on. Presses without a
// pending typed answer do nothing.
func (b *Bot) skipTyped(ctx context.Context, req *request, msgID chat.MessageID) error {
	st, ok, err := b.take(ctx, req.userID, convstate.AwaitingTypedAnswer)
	if err != nil || !ok {
		return err
	}
	card, err := b.cards.Get(ctx, req.userID, st.CardID)
	if errors.Is(err, cards.ErrNotFound) {
		return b.replaceTyped(ctx, req)
	}
	if err != nil {
		return err
	}
	expected, out, err := b.sessions.Skip(ctx, req.userID, card)
	if err != nil {
		return err
	}
	b.edit(ctx, req.chatID, msgID, skippedText(expected), nil)
	return b.followTyped(ctx, req, out)
}

func (b *Bot) exitTyped(ctx context.Context, req *request, msgID chat.MessageID) error {
	if err := b.leaveTyped(ctx, req.userID); err != nil {
		return err
	}
	b.edit(ctx, req.chatID, msgID, msgTypedExited, nil)
	return nil
}

// leaveTyped clears both the awaited answer and the session.
func (b *Bot) leaveTyped(ctx context.Context, userID int64) error {
	if err := b.states.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	return b.sessions.End(ctx, userID)
}
