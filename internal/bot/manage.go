package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/convstate"
	"github.com/abhisek/cardbot/internal/pager"
	"github.com/abhisek/cardbot/internal/store"
)

// startAdd adds inline input right away, or waits for it.
func (b *Bot) startAdd(ctx context.Context, req *request, arg string) error {
	if arg == "" {
		if err := b.await(ctx, req.userID, convstate.NewCard()); err != nil {
			return err
		}
		b.send(ctx, req.chatID, msgAddPrompt, nil)
		return nil
	}
	return b.add(ctx, req, arg)
}

// addInput handles awaited card input. Bad input keeps the dialogue open.
func (b *Bot) addInput(ctx context.Context, req *request, text string) error {
	err := b.add(ctx, req, text)
	if retryable(err) {
		if serr := b.await(ctx, req.userID, convstate.NewCard()); serr != nil {
			return serr
		}
	}
	return err
}

func (b *Bot) add(ctx context.Context, req *request, input string) error {
	res, err := b.cards.AddInput(ctx, req.userID, input)
	if err != nil {
		return err
	}
	if res.Bulk != nil {
		b.send(ctx, req.chatID, bulkText(res.Bulk), nil)
		return nil
	}
	b.send(ctx, req.chatID, addedText(res.Card), nil)
	return nil
}

func (b *Bot) startEdit(ctx context.Context, req *request, cardID int64) error {
	card, err := b.cards.Get(ctx, req.userID, cardID)
	if err != nil {
		return err
	}
	if err := b.await(ctx, req.userID, convstate.EditCard(card.ID)); err != nil {
		return err
	}
	b.send(ctx, req.chatID, fmt.Sprintf("Editing: %s\n\nSend the new value: word - translation\nOr /cancel to abort", cardLine(card)), nil)
	return nil
}

func (b *Bot) editInput(ctx context.Context, req *request, cardID int64, text string) error {
	card, err := b.cards.Edit(ctx, req.userID, cardID, text)
	if retryable(err) {
		if serr := b.await(ctx, req.userID, convstate.EditCard(cardID)); serr != nil {
			return serr
		}
	}
	if err != nil {
		return err
	}
	b.send(ctx, req.chatID, "Card updated: "+cardLine(card), nil)
	return nil
}

func (b *Bot) showListChoice(ctx context.Context, req *request) error {
	total, err := b.cards.Count(ctx, req.userID, store.AllSets())
	if err != nil {
		return err
	}
	if total == 0 {
		b.send(ctx, req.chatID, msgNoCards, nil)
		return nil
	}
	s, err := b.scopeChoice(ctx, req.userID, msgChooseListSet, func(f store.SetFilter) chat.Payload {
		return chat.ListPage{Filter: f}
	})
	if err != nil {
		return err
	}
	b.sendScreen(ctx, req.chatID, s)
	return nil
}

// showList renders a page of cards into msgID.
func (b *Bot) showList(ctx context.Context, req *request, msgID chat.MessageID, f store.SetFilter, page int) error {
	if err := b.checkFilter(ctx, req.userID, f); err != nil {
		return err
	}
	list, err := b.cards.List(ctx, req.userID, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		b.edit(ctx, req.chatID, msgID, msgNoCards, nil)
		return nil
	}
	b.editScreen(ctx, req.chatID, msgID, listScreen(pager.Page(list, b.pageSize, page), len(list), f))
	return nil
}

func (b *Bot) showMove(ctx context.Context, req *request, msgID chat.MessageID, cardID int64) error {
	card, err := b.cards.Get(ctx, req.userID, cardID)
	if err != nil {
		return err
	}
	sets, err := b.cards.Sets(ctx, req.userID)
	if err != nil {
		return err
	}
	b.editScreen(ctx, req.chatID, msgID, moveScreen(card, sets))
	return nil
}

func (b *Bot) moveCard(ctx context.Context, req *request, msgID chat.MessageID, cardID int64, setID *int64) error {
	card, set, err := b.cards.Move(ctx, req.userID, cardID, setID)
	if err != nil {
		return err
	}
	text := "Card removed from its set: " + cardLine(card)
	if set != nil {
		text = fmt.Sprintf("Card moved to set «%s»: %s", set.Name, cardLine(card))
	}
	b.edit(ctx, req.chatID, msgID, text, nil)
	return nil
}

func (b *Bot) confirmDelete(ctx context.Context, req *request, msgID chat.MessageID, cardID int64) error {
	card, err := b.cards.Get(ctx, req.userID, cardID)
	if err != nil {
		return err
	}
	b.editScreen(ctx, req.chatID, msgID, confirmDeleteCard(card))
	return nil
}

func (b *Bot) deleteCard(ctx context.Context, req *request, msgID chat.MessageID, cardID int64) error {
	if err := b.cards.Delete(ctx, req.userID, cardID); err != nil {
		return err
	}
	b.edit(ctx, req.chatID, msgID, msgCardDeleted, nil)
	return nil
}

// showSets sends the set overview, or edits it into msgID when non-zero.
func (b *Bot) showSets(ctx context.Context, req *request, msgID chat.MessageID) error {
	noSet, err := b.cards.Count(ctx, req.userID, store.NoSet())
	if err != nil {
		return err
	}
	sets, err := b.cards.Sets(ctx, req.userID)
	if err != nil {
		return err
	}
	s := setsScreen(noSet, sets)
	if msgID == 0 {
		b.sendScreen(ctx, req.chatID, s)
	} else {
		b.editScreen(ctx, req.chatID, msgID, s)
	}
	return nil
}

func (b *Bot) startAddSet(ctx context.Context, req *request) error {
	if err := b.await(ctx, req.userID, convstate.SetName()); err != nil {
		return err
	}
	b.send(ctx, req.chatID, msgSetNamePrompt, nil)
	return nil
}

func (b *Bot) setNameInput(ctx context.Context, req *request, text string) error {
	set, err := b.cards.CreateSet(ctx, req.userID, text)
	if retryable(err) {
		if serr := b.await(ctx, req.userID, convstate.SetName()); serr != nil {
			return serr
		}
	}
	if err != nil {
		return err
	}
	b.send(ctx, req.chatID, fmt.Sprintf("Set «%s» created.", set.Name), nil)
	return nil
}

func (b *Bot) confirmDeleteSet(ctx context.Context, req *request, msgID chat.MessageID, setID int64) error {
	set, err := b.cards.GetSet(ctx, req.userID, setID)
	if err != nil {
		return setErr(err)
	}
	b.editScreen(ctx, req.chatID, msgID, confirmDeleteSet(set))
	return nil
}

func (b *Bot) deleteSet(ctx context.Context, req *request, msgID chat.MessageID, setID int64) error {
	if _, err := b.cards.DeleteSet(ctx, req.userID, setID); err != nil {
		return setErr(err)
	}
	b.edit(ctx, req.chatID, msgID, msgSetDeleted, nil)
	return nil
}

func setErr(err error) error {
	if errors.Is(err, cards.ErrNotFound) {
		return errSetNotFound
	}
	return err
}
