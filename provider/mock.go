package provider

import (
	"context"
	"strings"
	"sync"
)

// MockProvider is an in-memory backend for tests and dry runs.
type MockProvider struct {
	Translations map[string]string        // Fixed answers by source text
	Fn           func(text string) string // Used for texts missing from Translations
	Err          error                    // Returned instead of translating when set
	Drop         int                      // Number of trailing results to omit

	mu          sync.Mutex
	callCount   int
	lastRequest *TranslateRequest
}

// NewMockProvider creates a mock that upper-cases every text.
func NewMockProvider() *MockProvider {
	return &MockProvider{Fn: strings.ToUpper}
}

// Translate returns the configured answers.
func (m *MockProvider) Translate(_ context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	results := make([]string, 0, len(req.Texts))
	for _, text := range req.Texts {
		if t, ok := m.Translations[text]; ok {
			results = append(results, t)
		} else if m.Fn != nil {
			results = append(results, m.Fn(text))
		} else {
			results = append(results, text)
		}
	}
	if m.Drop > 0 {
		results = results[:max(0, len(results)-m.Drop)]
	}
	return results, nil
}

// CallCount returns how many times Translate ran.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset clears the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
