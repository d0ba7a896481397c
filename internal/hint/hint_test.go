package hint

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/cardbot/internal/llm"
)

func TestSuggest(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: `{"hint":" [ˈæp.əl] "}`})
	s := NewSuggester(mock, DefaultConfig())

	got, err := s.Suggest(context.Background(), "apple", "яблоко")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if got != "ˈæp.əl" {
		t.Errorf("Suggest() = %q, want %q", got, "ˈæp.əl")
	}

	req := mock.Calls()[0]
	if req.Schema != HintSchema {
		t.Error("request does not carry the hint schema")
	}
	if !strings.Contains(req.Prompt, "Word: apple") {
		t.Errorf("prompt = %q, want it to name the word", req.Prompt)
	}
}

func TestSuggestErrors(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider error", llm.MockResponse{Err: errors.New("down")}},
		{"bad json", llm.MockResponse{Text: `not json`}},
		{"wrong shape", llm.MockResponse{Text: `{"ipa":"x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSuggester(llm.NewMockProvider(tt.resp), Config{})
			if _, err := s.Suggest(context.Background(), "a", "b"); err == nil {
				t.Error("Suggest() error = nil, want error")
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hai", "hai"},
		{"/həˈloʊ/", "həˈloʊ"},
		{"  ", ""},
		{"two\nlines", ""},
		{"a [nested] hint", ""},
		{strings.Repeat("x", MaxLen+1), ""},
	}
	for _, tt := range tests {
		if got := clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
