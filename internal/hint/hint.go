// Package hint asks an LLM for a short pronunciation hint for a new card.
package hint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhisek/cardbot/internal/llm"
)

// MaxLen caps the hint length in runes; longer suggestions are dropped.
const MaxLen = 40

// HintSchema is the structured output the model must return.
var HintSchema = &llm.Schema{
	Name:        "pronunciation-hint",
	Description: "A short pronunciation hint for a vocabulary word",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "Pronunciation of the word in IPA or simple transcription, without brackets; empty if unsure",
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You help language learners with flash cards. Given a word and its translation, reply with how the word is pronounced. Keep it short. If you are not sure, return an empty hint.`

// Config holds hint generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns sensible defaults for hint generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   64,
		Temperature: 0,
		Timeout:     10 * time.Second,
	}
}

// Suggester proposes hints through an LLM provider.
type Suggester struct {
	provider llm.Provider
	cfg      Config
}

// NewSuggester creates a Suggester.
func NewSuggester(provider llm.Provider, cfg Config) *Suggester {
	return &Suggester{provider: provider, cfg: cfg}
}

type output struct {
	Hint string `json:"hint"`
}

// Suggest returns a hint for word, or "" when the model has none.
func (s *Suggester) Suggest(ctx context.Context, word, translation string) (string, error) {
	ctx = llm.WithPurpose(ctx, "hint")
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf("Word: %s\nTranslation: %s", word, translation),
		Schema:      HintSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("hint generation: %w", err)
	}

	var out output
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse hint response: %w", err)
	}
	return clean(out.Hint), nil
}

// clean strips wrapping brackets and slashes and rejects hints that do
// not fit on a card.
func clean(h string) string {
	h = strings.TrimSpace(h)
	h = strings.Trim(h, "[]/ ")
	if utf8.RuneCountInString(h) > MaxLen || strings.ContainsAny(h, "\n[]") {
		return ""
	}
	return h
}
