// Package selector maps catalog models to live provider clients and performs
// the pre-flight size check of text against a model's context window.
package selector

import (
	"errors"
	"fmt"

	"github.com/phrazzld/cardforge/internal/catalog"
	"github.com/phrazzld/cardforge/internal/provider"
)

var (
	// ErrProviderUnavailable is returned when the model's provider has no client.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrTextTooLong is returned when text exceeds a model's context window.
	ErrTextTooLong = errors.New("text too long for model")
)

// charsPerToken is the coarse ratio used by EstimateTokens.
const charsPerToken = 4

// Selector resolves provider handles for models. Availability is decided once
// at construction and never re-checked.
type Selector struct {
	catalog *catalog.Catalog
	handles map[catalog.Provider]provider.Handle
}

// New creates a Selector over the given handles. Handles are keyed by their
// Provider field; later duplicates replace earlier ones.
func New(c *catalog.Catalog, handles ...provider.Handle) *Selector {
	s := &Selector{
		catalog: c,
		handles: make(map[catalog.Provider]provider.Handle, len(handles)),
	}
	for _, h := range handles {
		s.handles[h.Provider] = h
	}
	return s
}

// Catalog returns the catalog the selector resolves against.
func (s *Selector) Catalog() *catalog.Catalog {
	return s.catalog
}

// ResolveClient returns the handle serving model.
func (s *Selector) ResolveClient(model catalog.Model) (provider.Handle, error) {
	h, ok := s.handles[model.Provider]
	if !ok {
		return provider.Handle{}, fmt.Errorf("%w: %s (model %s)", ErrProviderUnavailable, model.Provider, model.ID)
	}
	return h, nil
}

// IsAvailable reports whether model's provider has a client.
func (s *Selector) IsAvailable(model catalog.Model) bool {
	_, ok := s.handles[model.Provider]
	return ok
}

// AvailableModels returns the catalog models whose provider has a client.
func (s *Selector) AvailableModels() []catalog.Model {
	var out []catalog.Model
	for _, m := range s.catalog.Models() {
		if s.IsAvailable(m) {
			out = append(out, m)
		}
	}
	return out
}

// EstimateTokens approximates the token count of text as len(text)/4.
// It is a pre-flight heuristic, not a tokenizer.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// ValidateModelForText rejects text whose estimated size exceeds the model's
// context window. Models without a declared window accept any text.
func ValidateModelForText(model catalog.Model, text string) error {
	if model.MaxContextTokens <= 0 {
		return nil
	}
	if tokens := EstimateTokens(text); tokens > model.MaxContextTokens {
		return fmt.Errorf("%w: %s accepts %d tokens, text needs about %d",
			ErrTextTooLong, model.ID, model.MaxContextTokens, tokens)
	}
	return nil
}
