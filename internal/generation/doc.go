// Package generation runs AI operations against multiple providers.
//
// An Operation is one of a closed set of variants (text, prompt or image to
// flashcards, summaries, speech synthesis, transcription and image
// generation). The Orchestrator validates the operation, picks the requested
// or default model from the catalog, calls the provider through the selector
// and parses the reply. When the primary model fails, the configured fallback
// models are tried in order; chat, image, speech and transcription calls share
// that protocol through one generic engine.
package generation
