package session

import "fmt"

// Progress renders "(n/goal)" for the card on screen, where n counts it
// as already resolved. It returns "" when the session has no goal.
func (s *Session) Progress() string {
	if s == nil {
		return ""
	}
	return FormatProgress(s.Viewed, s.Goal)
}

// FormatProgress renders the position of the next card after viewed
// resolutions.
func FormatProgress(viewed, goal int) string {
	if goal <= 0 {
		return ""
	}
	return fmt.Sprintf("(%d/%d)", viewed+1, goal)
}
