package catalog

import "errors"

var (
	// ErrUnknownModel is returned when an id or name matches no catalog entry.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownProvider is returned for a provider code outside the fixed set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidCatalog is returned when the model table fails its self-test.
	ErrInvalidCatalog = errors.New("invalid model catalog")
)
