package llmprovider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockProvider is a test implementation of the Provider interface
type mockProvider struct {
	name       string
	model      string
	shouldFail bool
	failTimes  int
	response   *Response
	callCount  int
}

func (m *mockProvider) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	m.callCount++
	if m.shouldFail || m.callCount <= m.failTimes {
		return nil, errors.New("mock provider error")
	}
	return m.response, nil
}

func (m *mockProvider) Name() string  { return m.name }
func (m *mockProvider) Model() string { return m.model }

// mockLogger records info and warn templates
type mockLogger struct {
	infoMessages []string
	warnMessages []string
}

func (m *mockLogger) Debug(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) Debugf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Info(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Infof(ctx context.Context, template string, arg ...any) {
	m.infoMessages = append(m.infoMessages, template)
}
func (m *mockLogger) Warn(ctx context.Context, arg ...any) {}
func (m *mockLogger) Warnf(ctx context.Context, template string, arg ...any) {
	m.warnMessages = append(m.warnMessages, template)
}
func (m *mockLogger) Error(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Errorf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) DPanic(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) DPanicf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Panic(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Panicf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Fatalf(ctx context.Context, template string, arg ...any)  {}

func hello() *Request {
	return UserText("", "Hello")
}

func TestGenerateContent_SuccessWithPrimaryProvider(t *testing.T) {
	primary := &mockProvider{
		name:     "primary",
		model:    "primary-model",
		response: &Response{Text: "Hello from primary provider", ProviderName: "primary", Usage: Usage{InputTokens: 100, OutputTokens: 50}},
	}
	logger := &mockLogger{}
	manager := NewManager([]Provider{primary}, &Config{FallbackEnabled: true, RetryAttempts: 3, RetryDelay: 100 * time.Millisecond}, logger)

	resp, err := manager.GenerateContent(context.Background(), hello())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if resp.ProviderName != "primary" {
		t.Errorf("Expected provider name 'primary', got: %s", resp.ProviderName)
	}
	if primary.callCount != 1 {
		t.Errorf("Expected primary provider to be called once, got: %d", primary.callCount)
	}
	if len(logger.infoMessages) != 1 || len(logger.warnMessages) != 0 {
		t.Errorf("Expected 1 info and 0 warn messages, got %d/%d", len(logger.infoMessages), len(logger.warnMessages))
	}
}

func TestGenerateContent_RetriesBeforeSucceeding(t *testing.T) {
	primary := &mockProvider{name: "primary", failTimes: 2, response: &Response{Text: "ok"}}
	manager := NewManager([]Provider{primary}, &Config{RetryAttempts: 3, RetryDelay: time.Millisecond}, &mockLogger{})

	resp, err := manager.GenerateContent(context.Background(), hello())
	if err != nil || resp.Text != "ok" {
		t.Fatalf("expected success on third attempt, got %v, %v", resp, err)
	}
	if primary.callCount != 3 {
		t.Errorf("expected 3 calls, got %d", primary.callCount)
	}
}

func TestGenerateContent_FallbackToSecondaryProvider(t *testing.T) {
	primary := &mockProvider{name: "primary", model: "primary-model", shouldFail: true}
	secondary := &mockProvider{
		name:     "secondary",
		model:    "secondary-model",
		response: &Response{Text: "Hello from secondary provider", ProviderName: "secondary"},
	}
	logger := &mockLogger{}
	manager := NewManager([]Provider{primary, secondary}, &Config{FallbackEnabled: true, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}, logger)

	resp, err := manager.GenerateContent(context.Background(), hello())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if resp.ProviderName != "secondary" {
		t.Errorf("Expected provider name 'secondary', got: %s", resp.ProviderName)
	}
	if primary.callCount != 2 {
		t.Errorf("Expected primary provider to be called 2 times, got: %d", primary.callCount)
	}
	if secondary.callCount != 1 {
		t.Errorf("Expected secondary provider to be called once, got: %d", secondary.callCount)
	}
	if len(logger.infoMessages) != 1 || len(logger.warnMessages) != 1 {
		t.Errorf("Expected 1 info and 1 warn messages, got %d/%d", len(logger.infoMessages), len(logger.warnMessages))
	}
}

func TestGenerateContent_AllProvidersFail(t *testing.T) {
	primary := &mockProvider{name: "primary", shouldFail: true}
	secondary := &mockProvider{name: "secondary", shouldFail: true}
	logger := &mockLogger{}
	manager := NewManager([]Provider{primary, secondary}, &Config{FallbackEnabled: true, RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}, logger)

	resp, err := manager.GenerateContent(context.Background(), hello())
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("Expected ErrAllProvidersFailed, got: %v", err)
	}
	if resp != nil {
		t.Errorf("Expected nil response, got: %v", resp)
	}
	if primary.callCount != 2 || secondary.callCount != 2 {
		t.Errorf("Expected 2 calls each, got %d/%d", primary.callCount, secondary.callCount)
	}
	if len(logger.warnMessages) != 2 {
		t.Errorf("Expected 2 warn log messages, got: %d", len(logger.warnMessages))
	}
}

func TestGenerateContent_NoFallbackWhenDisabled(t *testing.T) {
	primary := &mockProvider{name: "primary", shouldFail: true}
	secondary := &mockProvider{name: "secondary", response: &Response{ProviderName: "secondary"}}
	manager := NewManager([]Provider{primary, secondary}, &Config{RetryAttempts: 2, RetryDelay: 10 * time.Millisecond}, &mockLogger{})

	resp, err := manager.GenerateContent(context.Background(), hello())
	if err == nil || resp != nil {
		t.Fatalf("Expected error when primary fails and fallback is disabled, got %v, %v", resp, err)
	}
	if secondary.callCount != 0 {
		t.Errorf("Expected secondary provider to NOT be called, got: %d calls", secondary.callCount)
	}
}

func TestGenerateContent_InvalidInput(t *testing.T) {
	manager := NewManager([]Provider{}, nil, &mockLogger{})
	if _, err := manager.GenerateContent(context.Background(), hello()); !errors.Is(err, ErrNoProvidersConfigured) {
		t.Errorf("Expected ErrNoProvidersConfigured, got: %v", err)
	}

	manager = NewManager([]Provider{&mockProvider{name: "p"}}, nil, &mockLogger{})
	if _, err := manager.GenerateContent(context.Background(), &Request{}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got: %v", err)
	}
}

func TestGenerateContent_ExpiredContext(t *testing.T) {
	primary := &mockProvider{name: "primary", response: &Response{}}
	manager := NewManager([]Provider{primary}, &Config{FallbackEnabled: true}, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := manager.GenerateContent(ctx, hello()); !errors.Is(err, ErrProviderTimeout) {
		t.Errorf("Expected ErrProviderTimeout, got: %v", err)
	}
	if primary.callCount != 0 {
		t.Errorf("provider must not be called after cancellation")
	}
}
