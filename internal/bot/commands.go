package bot

import (
	"strings"

	"github.com/abhisek/cardbot/internal/chat"
)

// command is a normalised top-level command.
type command string

const (
	cmdNone   command = ""
	cmdStart  command = "/start"
	cmdAdd    command = "/add"
	cmdLearn  command = "/learn"
	cmdList   command = "/list"
	cmdSets   command = "/sets"
	cmdStats  command = "/stats"
	cmdHelp   command = "/help"
	cmdCancel command = "/cancel"
)

// Persistent menu labels.
const (
	LabelAdd   = "➕ Add"
	LabelLearn = "📚 Learn"
	LabelList  = "📋 List"
	LabelStats = "📊 Stats"
	LabelSets  = "📁 Sets"
	LabelHelp  = "❓ Help"
)

// commands in match order. Matching is by prefix, so "/add x" is cmdAdd.
var commands = []command{cmdStart, cmdAdd, cmdLearn, cmdList, cmdSets, cmdStats, cmdHelp, cmdCancel}

var labels = map[string]command{
	LabelAdd:   cmdAdd,
	LabelLearn: cmdLearn,
	LabelList:  cmdList,
	LabelStats: cmdStats,
	LabelSets:  cmdSets,
	LabelHelp:  cmdHelp,
}

// parseCommand maps text to a command and the inline argument that
// follows it. Menu labels never carry an argument.
func parseCommand(text string) (command, string) {
	text = strings.TrimSpace(text)
	if cmd, ok := labels[text]; ok {
		return cmd, ""
	}
	for _, cmd := range commands {
		if rest, ok := strings.CutPrefix(text, string(cmd)); ok {
			return cmd, strings.TrimSpace(rest)
		}
	}
	return cmdNone, ""
}

// menuKeyboard is the persistent keyboard sent with start and help.
func menuKeyboard() *chat.ReplyKeyboard {
	return &chat.ReplyKeyboard{Rows: [][]string{
		{LabelAdd, LabelLearn},
		{LabelList, LabelStats},
		{LabelSets, LabelHelp},
	}}
}
