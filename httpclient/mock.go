package httpclient

import (
	"context"
	"sync"
)

// MockTokenProvider is a TokenProvider for tests. It records the scopes it was
// asked for.
type MockTokenProvider struct {
	Token string
	Error error

	mu     sync.Mutex
	scopes []string
}

// GetToken returns the configured token or error.
func (m *MockTokenProvider) GetToken(ctx context.Context, scope string) (string, error) {
	m.mu.Lock()
	m.scopes = append(m.scopes, scope)
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	return m.Token, nil
}

// Scopes returns the scopes requested so far.
func (m *MockTokenProvider) Scopes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.scopes...)
}
