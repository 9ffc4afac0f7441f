package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/cardforge/internal/provider"
)

// ChatCall records one CompleteChat invocation.
type ChatCall struct {
	Messages []provider.Message
	Options  provider.ChatOptions
}

// MockChatClient implements provider.ChatClient for testing.
type MockChatClient struct {
	// CompleteChatFn allows test cases to mock the CompleteChat behavior
	CompleteChatFn func(ctx context.Context, messages []provider.Message, opts provider.ChatOptions) (string, error)

	// Default response values
	Response string
	Err      error

	mu    sync.Mutex
	calls []ChatCall
}

// CompleteChat implements provider.ChatClient.
func (m *MockChatClient) CompleteChat(
	ctx context.Context,
	messages []provider.Message,
	opts provider.ChatOptions,
) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ChatCall{Messages: messages, Options: opts})
	m.mu.Unlock()

	if m.CompleteChatFn != nil {
		return m.CompleteChatFn(ctx, messages, opts)
	}
	return m.Response, m.Err
}

// Calls returns a copy of the recorded calls.
func (m *MockChatClient) Calls() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Models returns the model of every recorded call in call order.
func (m *MockChatClient) Models() []string {
	calls := m.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Options.Model
	}
	return out
}

// MockImageClient implements provider.ImageClient for testing.
type MockImageClient struct {
	GenerateImageFn func(ctx context.Context, prompt string, opts provider.ImageOptions) ([]provider.GeneratedImage, error)

	Images []provider.GeneratedImage
	Err    error

	mu      sync.Mutex
	Prompts []string
	Options []provider.ImageOptions
}

// GenerateImage implements provider.ImageClient.
func (m *MockImageClient) GenerateImage(
	ctx context.Context,
	prompt string,
	opts provider.ImageOptions,
) ([]provider.GeneratedImage, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, opts)
	m.mu.Unlock()

	if m.GenerateImageFn != nil {
		return m.GenerateImageFn(ctx, prompt, opts)
	}
	return m.Images, m.Err
}

// CallCount returns the number of GenerateImage calls.
func (m *MockImageClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// MockSpeechClient implements provider.SpeechClient for testing.
type MockSpeechClient struct {
	SynthesizeSpeechFn func(ctx context.Context, text string, opts provider.SpeechOptions) ([]byte, error)

	Audio []byte
	Err   error

	mu      sync.Mutex
	Texts   []string
	Options []provider.SpeechOptions
}

// SynthesizeSpeech implements provider.SpeechClient.
func (m *MockSpeechClient) SynthesizeSpeech(
	ctx context.Context,
	text string,
	opts provider.SpeechOptions,
) ([]byte, error) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.Options = append(m.Options, opts)
	m.mu.Unlock()

	if m.SynthesizeSpeechFn != nil {
		return m.SynthesizeSpeechFn(ctx, text, opts)
	}
	return m.Audio, m.Err
}

// MockTranscriptionClient implements provider.TranscriptionClient for testing.
type MockTranscriptionClient struct {
	TranscribeFn func(ctx context.Context, audio []byte, opts provider.TranscriptionOptions) (string, error)

	Text string
	Err  error

	mu      sync.Mutex
	Options []provider.TranscriptionOptions
}

// Transcribe implements provider.TranscriptionClient.
func (m *MockTranscriptionClient) Transcribe(
	ctx context.Context,
	audio []byte,
	opts provider.TranscriptionOptions,
) (string, error) {
	m.mu.Lock()
	m.Options = append(m.Options, opts)
	m.mu.Unlock()

	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, audio, opts)
	}
	return m.Text, m.Err
}
