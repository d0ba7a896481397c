// Package cards implements card and set management on top of the store:
// input parsing, validation and the optional hint suggester.
package cards

import "errors"

var (
	// ErrNotFound is returned when a card or set does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty input")
)

// ValidationError carries a message meant for the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
