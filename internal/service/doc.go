// Package service contains the application-specific use cases. It sits
// between the HTTP API and the generation pipeline.
//
// GenerationService:
//   - Verifies that the caller owns the deck a request targets
//   - Runs the requested operation through the fallback orchestrator
//   - Caches successful results by a hash of operation, model and payload
//   - Stores generated flashcards when the caller asks for it
//
// NewContentSource adapts the deck and flashcard stores to the
// generation.ContentSource collaborator used by deck and flashcard summaries.
//
// The service layer depends on domain entities and repository interfaces (from store),
// but never on specific infrastructure implementations.
package service
