package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies provider failures.
type Kind int

const (
	KindUnavailable Kind = iota // network failure or 5xx
	KindRateLimited
	KindRejected // the provider refused the request, e.g. a bad key
	KindInvalid  // the answer did not match the schema
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "rejected"
	case KindInvalid:
		return "invalid response"
	case KindTruncated:
		return "truncated response"
	default:
		return "unavailable"
	}
}

// Error is returned by every provider in this package.
type Error struct {
	Kind       Kind
	Provider   string
	RetryAfter time.Duration   // set by some rate limit responses
	Content    json.RawMessage // the offending answer for KindInvalid and KindTruncated
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// statusError classifies an HTTP status returned by a provider SDK.
func statusError(provider string, status int, err error) *Error {
	e := &Error{Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status == http.StatusRequestTimeout, status >= 500, status == 0:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindRejected
	}
	return e
}

// contextError returns err when it comes from a cancelled or expired
// context. Those are passed through unclassified.
func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
