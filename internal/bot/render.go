package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/pager"
	"github.com/abhisek/cardbot/internal/session"
	"github.com/abhisek/cardbot/internal/store"
)

// screen is the text and markup of one message.
type screen struct {
	text   string
	markup chat.Markup
}

func cardLine(c *store.Card) string {
	return c.Word + " — " + c.Translation
}

// prompt renders the side of c shown to the learner. The hint belongs
// to the word and is shown only when the word is the prompt.
func prompt(c *store.Card, d session.Direction, progress string) string {
	var b strings.Builder
	b.WriteString(d.Prompt(c))
	if d == session.Forward && c.Hint != "" {
		b.WriteString("\n" + c.Hint)
	}
	if progress != "" {
		b.WriteString("\n\n" + progress)
	}
	return b.String()
}

func showLabel(d session.Direction) string {
	if d == session.Reverse {
		return btnShowWord
	}
	return btnShowTranslation
}

func nextEndRow() []chat.Button {
	return chat.Row(
		chat.NewButton(btnNext, chat.Advance{}),
		chat.NewButton(btnEnd, chat.EndSession{}),
	)
}

// cardScreen is a show/reveal card awaiting the reveal.
func cardScreen(c *store.Card, d session.Direction, progress string) screen {
	return screen{
		text: prompt(c, d, progress),
		markup: chat.Inline(
			chat.Row(chat.NewButton(showLabel(d), chat.ShowCard{CardID: c.ID, Reverse: d == session.Reverse})),
			nextEndRow(),
		),
	}
}

// revealedScreen shows both sides of c.
func revealedScreen(c *store.Card, d session.Direction) screen {
	word := c.Word
	if c.Hint != "" {
		word += " [" + c.Hint + "]"
	}
	text := word + " — " + c.Translation
	if d == session.Reverse {
		text = c.Translation + " — " + word
	}
	return screen{text: text, markup: chat.Inline(nextEndRow())}
}

// typedScreen asks for a free-text answer.
func typedScreen(c *store.Card, d session.Direction, progress string) screen {
	ask := msgTypeTranslation
	if d == session.Reverse {
		ask = msgTypeWord
	}
	text := prompt(c, d, "") + "\n\n" + ask
	if progress != "" {
		text += "\n\n" + progress
	}
	return screen{
		text: text,
		markup: chat.Inline(chat.Row(
			chat.NewButton(btnSkip, chat.InputSkip{}),
			chat.NewButton(btnExit, chat.InputExit{}),
		)),
	}
}

// setChoice lists the scopes a user can pick for learning or listing.
// Empty scopes other than "all" are left out.
func setChoice(text string, noSet int, sets []cards.SetCount, pick func(store.SetFilter) chat.Payload) screen {
	rows := [][]chat.Button{chat.Row(chat.NewButton(btnAllCards, pick(store.AllSets())))}
	if noSet > 0 {
		rows = append(rows, chat.Row(chat.NewButton(fmt.Sprintf("%s (%d)", btnNoSet, noSet), pick(store.NoSet()))))
	}
	for _, sc := range sets {
		if sc.Cards == 0 {
			continue
		}
		label := fmt.Sprintf("📁 %s (%d)", sc.Set.Name, sc.Cards)
		rows = append(rows, chat.Row(chat.NewButton(label, pick(store.InSet(sc.Set.ID)))))
	}
	return screen{text: text, markup: chat.Inline(rows...)}
}

// modeScreen offers the learning modes for f.
func modeScreen(f store.SetFilter, goal int) screen {
	mode := func(label string, reverse, sequential bool, goal int) chat.Button {
		return chat.NewButton(label, chat.LearnMode{Filter: f, Reverse: reverse, Sequential: sequential, Goal: goal})
	}
	typed := func(label string, reverse bool, goal int) chat.Button {
		return chat.NewButton(label, chat.LearnInput{Filter: f, Reverse: reverse, Goal: goal})
	}
	goalSuffix := fmt.Sprintf(" · %d cards", goal)
	return screen{
		text: msgChooseMode,
		markup: chat.Inline(
			chat.Row(mode("Forward · random", false, false, 0), mode("Forward · in order", false, true, 0)),
			chat.Row(mode("Reverse · random", true, false, 0), mode("Reverse · in order", true, true, 0)),
			chat.Row(mode(fmt.Sprintf("Goal: %d cards", goal), false, false, goal)),
			chat.Row(typed("✏️ Type (reverse)", true, 0), typed("✏️ Type (forward)", false, 0)),
			chat.Row(typed("✏️ Type (reverse)"+goalSuffix, true, goal), typed("✏️ Type (forward)"+goalSuffix, false, goal)),
		),
	}
}

// listScreen renders one page of cards with per-row actions.
func listScreen(page pager.Result[store.Card], total int, f store.SetFilter) screen {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Your cards (%d-%d of %d)\n\n", page.First(), page.Last(), total)

	rows := make([][]chat.Button, 0, len(page.Items)+1)
	for _, item := range page.Items {
		c := item.Value
		n := strconv.Itoa(item.Ordinal)
		fmt.Fprintf(&b, "%s. %s", n, cardLine(&c))
		if c.SetName != "" {
			fmt.Fprintf(&b, " (%s)", c.SetName)
		}
		b.WriteString("\n")
		rows = append(rows, chat.Row(
			chat.NewButton("✏️ "+n, chat.EditCard{CardID: c.ID}),
			chat.NewButton("📁 "+n, chat.MoveCard{CardID: c.ID}),
			chat.NewButton("🗑 "+n, chat.DeleteCard{CardID: c.ID}),
		))
	}

	var nav []chat.Button
	if page.HasPrev {
		nav = append(nav, chat.NewButton(btnPrevPage, chat.ListPage{Filter: f, Page: page.Index - 1}))
	}
	if page.HasNext {
		nav = append(nav, chat.NewButton(btnNextPage, chat.ListPage{Filter: f, Page: page.Index + 1}))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return screen{text: strings.TrimRight(b.String(), "\n"), markup: chat.Inline(rows...)}
}

// moveScreen offers the targets for moving c.
func moveScreen(c *store.Card, sets []cards.SetCount) screen {
	rows := [][]chat.Button{chat.Row(chat.NewButton(btnNoSet, chat.MoveTo{CardID: c.ID}))}
	for _, sc := range sets {
		id := sc.Set.ID
		rows = append(rows, chat.Row(chat.NewButton("📁 "+sc.Set.Name, chat.MoveTo{CardID: c.ID, SetID: &id})))
	}
	return screen{
		text:   fmt.Sprintf("Move «%s» to set:", cardLine(c)),
		markup: chat.Inline(rows...),
	}
}

func confirmDeleteCard(c *store.Card) screen {
	return screen{
		text: fmt.Sprintf("Delete card «%s»?", cardLine(c)),
		markup: chat.Inline(chat.Row(
			chat.NewButton(btnYesDelete, chat.DeleteYes{CardID: c.ID}),
			chat.NewButton(btnNo, chat.DeleteNo{}),
		)),
	}
}

// setsScreen is the set-management overview.
func setsScreen(noSet int, sets []cards.SetCount) screen {
	var b strings.Builder
	b.WriteString("📁 Card sets:\n\n")
	fmt.Fprintf(&b, "• No set: %d cards\n", noSet)
	rows := [][]chat.Button{chat.Row(chat.NewButton(btnCreateSet, chat.AddSet{}))}
	for _, sc := range sets {
		fmt.Fprintf(&b, "• %s: %d cards\n", sc.Set.Name, sc.Cards)
		rows = append(rows, chat.Row(
			chat.NewButton("📁 "+sc.Set.Name, chat.ListPage{Filter: store.InSet(sc.Set.ID)}),
			chat.NewButton(btnDeleteSet, chat.DeleteSet{SetID: sc.Set.ID}),
		))
	}
	return screen{text: strings.TrimRight(b.String(), "\n"), markup: chat.Inline(rows...)}
}

func confirmDeleteSet(set *store.CardSet) screen {
	return screen{
		text: fmt.Sprintf("Delete set «%s»? Its cards will stay without a set.", set.Name),
		markup: chat.Inline(chat.Row(
			chat.NewButton(btnYesDelete, chat.DeleteSetYes{SetID: set.ID}),
			chat.NewButton(btnNo, chat.DeleteSetNo{}),
		)),
	}
}

// ReminderScreen is the daily reminder with a shortcut into learning.
func ReminderScreen() (string, *chat.InlineKeyboard) {
	return msgReminder, chat.Inline(chat.Row(chat.NewButton(LabelLearn, chat.RemindLearn{})))
}

func addedText(c *store.Card) string {
	if c.SetName != "" {
		return fmt.Sprintf("Card added to set «%s»: %s", c.SetName, cardLine(c))
	}
	return "Card added: " + cardLine(c)
}

func bulkText(res *cards.BulkResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d cards.", res.Added)
	if len(res.Errors) > 0 {
		b.WriteString("\n\nSkipped:\n")
		b.WriteString(strings.Join(res.Errors, "\n"))
	}
	return b.String()
}
