// Package provider defines the opaque capabilities the generation pipeline
// needs from an AI vendor: chat completion, image generation, speech
// synthesis and transcription. Concrete clients live under internal/platform.
package provider

import (
	"context"

	"github.com/phrazzld/cardforge/internal/catalog"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImagePart is binary image data attached to a message.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Message is a provider-agnostic chat message.
type Message struct {
	Role   Role
	Text   string
	Images []ImagePart
}

// ChatOptions configures one chat completion.
type ChatOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ImageOptions configures one image generation call.
type ImageOptions struct {
	Model   string
	Count   int
	Size    string
	Quality string
	Style   string
}

// GeneratedImage is one image returned by a provider. Either URL or Data is set.
type GeneratedImage struct {
	URL           string
	Data          []byte
	MIMEType      string
	RevisedPrompt string
}

// SpeechOptions configures speech synthesis.
type SpeechOptions struct {
	Model  string
	Voice  string
	Speed  float64
	Format string
}

// TranscriptionOptions configures transcription.
type TranscriptionOptions struct {
	Model    string
	Filename string
	Language string
	Prompt   string
}

// ChatClient completes chat conversations.
type ChatClient interface {
	CompleteChat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

// ImageClient generates images from a prompt.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]GeneratedImage, error)
}

// SpeechClient synthesizes speech.
type SpeechClient interface {
	SynthesizeSpeech(ctx context.Context, text string, opts SpeechOptions) ([]byte, error)
}

// TranscriptionClient converts speech to text.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audio []byte, opts TranscriptionOptions) (string, error)
}

// Handle bundles the capabilities one provider offers. Nil fields are
// capabilities the provider does not have.
type Handle struct {
	Provider      catalog.Provider
	Chat          ChatClient
	Image         ImageClient
	Speech        SpeechClient
	Transcription TranscriptionClient
}
