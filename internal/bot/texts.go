package bot

import "fmt"

const (
	helpText = `📖 Help

➕ Add: add a new card. Press the button, then send:
• word - translation (for example: apple - яблоко)
• set: word - translation (for example: animals: dog - собака)
• several spellings: word - translation1|translation2 (for example: go - идти|ходить)
• a pronunciation hint: word [hint] - translation
Several lines add several cards at once.

📚 Learn: drill your cards. Pick a set, then a mode: forward or reverse, random or in order, a goal for the session, or typed answers (case does not matter).

📋 List: browse your cards. Pick a set to see its cards. You can edit (✏️), move to a set (📁) and delete (🗑) them.

📊 Stats: how many cards you have and how often you review them.

📁 Sets: create and delete card sets.

❓ Help: this message.

/cancel cancels the current action.`

	msgAddPrompt = "Send a card: word - translation\n\n" +
		"Example: apple - яблоко\n" +
		"Example: animals: dog - собака\n\n" +
		"Or /cancel to abort."
	msgEmptyInput      = "Empty input. Try again or /cancel"
	msgUnknownCommand  = "Unknown command. Use /help"
	msgCancelled       = "Cancelled."
	msgTypedCancelled  = "Typed answer mode cancelled."
	msgInternalError   = "Something went wrong. Please try again later."
	msgCardNotFound    = "Card not found."
	msgSetNotFound     = "Set not found."
	msgNoCardsToLearn  = "No cards to learn. Add some with /add"
	msgNoCards         = "No cards. Add some with /add"
	msgNoCardsInSet    = "No cards in the chosen set."
	msgChooseLearnSet  = "Choose a set to learn:"
	msgChooseListSet   = "Choose a set:"
	msgChooseMode      = "Choose a mode:"
	msgSessionEnded    = "Session ended. Press /learn to continue."
	msgExhausted       = "No more cards. Press /learn for a new session."
	msgTypedExited     = "Typed answer mode ended. Press /learn for a new session."
	msgCorrect         = "✅ Correct!"
	msgNoSession       = "No active session. Press /learn to start."
	msgCardDeleted     = "Card deleted."
	msgSetDeleted      = "Set deleted."
	msgSetNamePrompt   = "Send a name for the set (for example: Animals, Travel). Or /cancel to abort."
	msgReminder        = "Time to review your cards!"
	msgTypeWord        = "Type the word:"
	msgTypeTranslation = "Type the translation:"

	btnShowTranslation = "Show translation"
	btnShowWord        = "Show word"
	btnNext            = "Next"
	btnEnd             = "End"
	btnSkip            = "⏭ Skip"
	btnExit            = "🚪 Exit"
	btnAllCards        = "📚 All cards"
	btnNoSet           = "📋 No set"
	btnPrevPage        = "◀ Back"
	btnNextPage        = "Next ▶"
	btnYesDelete       = "Yes, delete"
	btnNo              = "No"
	btnCreateSet       = "➕ Create set"
	btnDeleteSet       = "🗑 Delete"
)

func welcomeText(name string) string {
	if name == "" {
		name = "friend"
	}
	return fmt.Sprintf("Hi, %s! 👋\n\n"+
		"I help you learn vocabulary with flash cards.\n\n"+
		"Commands:\n"+
		"/add word - translation: add a card\n"+
		"/add set: word - translation: add a card to a set\n"+
		"/learn: start learning\n"+
		"/list: your cards\n"+
		"/sets: manage sets\n"+
		"/stats: statistics\n"+
		"/cancel: cancel the current action\n"+
		"/help: help", name)
}

func wrongText(expected string) string {
	return "❌ Wrong. Correct: " + expected
}

func skippedText(expected string) string {
	return "⏭ Skipped. Correct: " + expected
}

func goalReachedText(viewed int) string {
	return fmt.Sprintf("🎉 Session complete! %d cards. Press /learn for a new session.", viewed)
}
