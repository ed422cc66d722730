package mock

import (
	"context"
	"sync"

	"github.com/poiesic/secondbrain/ai"
)

// ChatCall records the prompts of one Complete invocation.
type ChatCall struct {
	System string
	User   string
}

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Response and Err are returned.
	CompleteFunc func(ctx context.Context, system, user string) (string, error)

	// Response is returned when CompleteFunc is nil.
	Response string

	// Err is returned when CompleteFunc is nil.
	Err error

	mu    sync.Mutex
	calls []ChatCall
}

var _ ai.ChatModel = (*MockChatModel)(nil)

// NewMockChatModel creates a mock chat model that answers with an empty JSON object.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{Response: "{}"}
}

// NewMockChatModelWithResponse creates a mock chat model with a fixed reply.
func NewMockChatModelWithResponse(response string) *MockChatModel {
	return &MockChatModel{Response: response}
}

// Complete records the call and returns the injected behavior.
func (m *MockChatModel) Complete(ctx context.Context, system, user string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{System: system, User: user})
	fn := m.CompleteFunc
	response, err := m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, user)
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockChatModel) Calls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCall(nil), m.calls...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
	m.Response = "{}"
	m.Err = nil
}
