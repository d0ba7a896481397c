package llm

import (
	"context"
	"sync"
)

// MockResponse is one scripted answer of a MockProvider.
type MockResponse struct {
	Text      string
	Usage     Usage
	Truncated bool
	Err       error
}

// MockProvider answers from a script, in order, and records every
// request. Answers pass through the same schema checks as real ones.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Request
}

// NewMockProvider creates a MockProvider that replies with script.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Generate returns the next scripted answer. An exhausted script makes
// the provider unavailable.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &Error{Kind: KindUnavailable, Provider: "mock"}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return finish("mock", req, "mock", next.Text, next.Usage, next.Truncated)
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// Reply appends answers to the script.
func (m *MockProvider) Reply(script ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, script...)
}

// Calls returns the requests received so far.
func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
