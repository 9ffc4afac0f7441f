package catalog

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// overlayFile is the TOML layout of a catalog overlay:
//
//	[[models]]
//	id = "gpt-4o-2024-11-20"
//	name = "GPT_4O_2024_11_20"
//	display_name = "GPT-4 Omni (Nov 2024)"
//	provider = "openai"
//	supports_vision = true
//	max_context_tokens = 128000
//	max_output_tokens = 16384
//	cost_per_1k_tokens = 0.0025
type overlayFile struct {
	Models []overlayModel `toml:"models"`
}

type overlayModel struct {
	ID                       string  `toml:"id"`
	Name                     string  `toml:"name"`
	DisplayName              string  `toml:"display_name"`
	Provider                 string  `toml:"provider"`
	SupportsVision           bool    `toml:"supports_vision"`
	SupportsImageGeneration  bool    `toml:"supports_image_generation"`
	SupportsSpeech           bool    `toml:"supports_speech"`
	SupportsTranscription    bool    `toml:"supports_transcription"`
	RecommendedForFlashcards bool    `toml:"recommended_for_flashcards"`
	MaxContextTokens         int     `toml:"max_context_tokens"`
	MaxOutputTokens          int     `toml:"max_output_tokens"`
	CostPer1KTokens          float64 `toml:"cost_per_1k_tokens"`
}

// LoadOverlay reads additional models from a TOML file. Unknown keys are
// rejected so a typo cannot silently drop a capability flag.
func LoadOverlay(path string) ([]Model, error) {
	var f overlayFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode overlay: %w", ErrInvalidCatalog, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown overlay keys %v", ErrInvalidCatalog, undecoded)
	}

	models := make([]Model, 0, len(f.Models))
	for _, om := range f.Models {
		p, err := ParseProvider(om.Provider)
		if err != nil {
			return nil, fmt.Errorf("%w: overlay model %s: %w", ErrInvalidCatalog, om.ID, err)
		}
		display := om.DisplayName
		if display == "" {
			display = om.ID
		}
		models = append(models, Model{
			ID:                       om.ID,
			Name:                     om.Name,
			DisplayName:              display,
			Provider:                 p,
			SupportsVision:           om.SupportsVision,
			SupportsImageGeneration:  om.SupportsImageGeneration,
			SupportsSpeech:           om.SupportsSpeech,
			SupportsTranscription:    om.SupportsTranscription,
			RecommendedForFlashcards: om.RecommendedForFlashcards,
			MaxContextTokens:         om.MaxContextTokens,
			MaxOutputTokens:          om.MaxOutputTokens,
			CostPer1KTokens:          om.CostPer1KTokens,
		})
	}
	return models, nil
}

// Load returns the built-in catalog, extended with the models of the
// overlay at path when path is non-empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	extra, err := LoadOverlay(path)
	if err != nil {
		return nil, err
	}
	return New(append(builtinModels(), extra...), builtinDefaults)
}
