// Package llm sends short single-turn prompts to hosted language models
// and returns their structured answers. cardbot uses it for card
// annotations such as pronunciation hints, so requests are small and
// responses are expected to fit in a few dozen tokens.
package llm

import (
	"context"
	"encoding/json"
)

// DefaultMaxTokens bounds a response when the request sets no limit.
const DefaultMaxTokens = 64

// Provider generates a response for one prompt.
type Provider interface {
	// Generate sends req and returns the answer. When req.Schema is set
	// the returned Content is a JSON object that passed the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model the provider sends requests to.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string

	// Schema, when set, asks the provider for structured output and
	// has the answer validated against it. Nil means free text.
	Schema *Schema

	MaxTokens   int     // 0 means DefaultMaxTokens
	Temperature float64 // 0 leaves the provider default
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// Response is a provider answer.
type Response struct {
	// Content is the validated JSON object for schema requests, or the
	// answer text encoded as a JSON string otherwise.
	Content json.RawMessage

	Usage     Usage
	Model     string // model that served the request
	Truncated bool   // generation stopped at the token limit
}

// Usage counts the tokens of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// finish turns raw provider output into a Response. A truncated or
// non-conforming structured answer is an error; the Response is still
// returned so its usage can be logged.
func finish(provider string, req Request, model, text string, usage Usage, truncated bool) (*Response, error) {
	resp := &Response{Model: model, Usage: usage, Truncated: truncated}
	if req.Schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return resp, &Error{Kind: KindInvalid, Provider: provider, Err: err}
		}
		resp.Content = b
		return resp, nil
	}

	raw := json.RawMessage(text)
	if truncated {
		return resp, &Error{Kind: KindTruncated, Provider: provider, Content: raw}
	}
	if err := req.Schema.Check(raw); err != nil {
		return resp, &Error{Kind: KindInvalid, Provider: provider, Content: raw, Err: err}
	}
	resp.Content = raw
	return resp, nil
}
