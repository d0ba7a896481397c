package cards

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MsgInvalidFormat is shown when a card line cannot be parsed.
const MsgInvalidFormat = "Invalid format. Use: word - translation\nExample: apple - яблоко"

// bulkPreview is how many runes of a failed bulk line are echoed back.
const bulkPreview = 50

// separator splits word from translation; only the first match counts.
var separator = regexp.MustCompile(`\s*[-—]\s*`)

// Parsed is one card line.
type Parsed struct {
	SetName     string // "" when the line has no set prefix
	Word        string
	Translation string
	Hint        string
}

// ParseLine parses "[set:] word [hint] - translation". A set prefix is
// the text before the first ':' when both sides of it are non-empty.
func ParseLine(input string) (Parsed, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Parsed{}, ErrEmpty
	}

	var setName string
	if before, after, ok := strings.Cut(input, ":"); ok {
		before, after = strings.TrimSpace(before), strings.TrimSpace(after)
		if before != "" && after != "" {
			setName, input = before, after
		}
	}

	p, err := ParseCard(input)
	if err != nil {
		return Parsed{}, err
	}
	p.SetName = setName
	return p, nil
}

// ParseCard parses "word [hint] - translation" without a set prefix.
func ParseCard(input string) (Parsed, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Parsed{}, ErrEmpty
	}

	loc := separator.FindStringIndex(input)
	if loc == nil {
		return Parsed{}, &ValidationError{Msg: MsgInvalidFormat}
	}
	word := strings.TrimSpace(input[:loc[0]])
	translation := strings.TrimSpace(input[loc[1]:])

	var hint string
	word, hint = splitHint(word)
	if word == "" || translation == "" {
		return Parsed{}, &ValidationError{Msg: MsgInvalidFormat}
	}
	return Parsed{Word: word, Translation: translation, Hint: hint}, nil
}

// splitHint separates a trailing "[hint]" from the word side.
func splitHint(word string) (string, string) {
	if !strings.HasSuffix(word, "]") {
		return word, ""
	}
	open := strings.LastIndex(word, "[")
	if open < 0 {
		return word, ""
	}
	hint := strings.TrimSpace(word[open+1 : len(word)-1])
	return strings.TrimSpace(word[:open]), hint
}

// IsBulk reports whether input holds more than one non-empty line.
func IsBulk(input string) bool {
	n := 0
	for _, line := range splitLines(input) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n > 1
}

func splitLines(input string) []string {
	return strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
}

// lineError renders a failed bulk line as "Line N: text", truncated.
func lineError(n int, line string) string {
	preview := line
	if utf8.RuneCountInString(line) > bulkPreview {
		preview = string([]rune(line)[:bulkPreview]) + "…"
	}
	return fmt.Sprintf("Line %d: %s", n, preview)
}
