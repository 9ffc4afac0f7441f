package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Catalog is an immutable, validated model table.
type Catalog struct {
	models   []Model
	byID     map[string]int
	byName   map[string]int
	defaults map[Provider]int
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := New(builtinModels(), builtinDefaults)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the catalog built from the built-in model table.
// It panics if the built-in table fails its self-test, which is a
// programming error that must surface at startup.
func Default() *Catalog {
	return defaultCatalog()
}

// New builds a catalog from models and per-provider default model names,
// running the self-test. All violations are reported together.
func New(models []Model, defaults map[Provider]string) (*Catalog, error) {
	c := &Catalog{
		models:   make([]Model, len(models)),
		byID:     make(map[string]int, len(models)),
		byName:   make(map[string]int, len(models)),
		defaults: make(map[Provider]int, len(defaults)),
	}
	copy(c.models, models)

	var errs []error
	for i, m := range c.models {
		if m.ID == "" || m.Name == "" {
			errs = append(errs, fmt.Errorf("model at index %d has empty id or name", i))
			continue
		}
		if !knownProvider(m.Provider) {
			errs = append(errs, fmt.Errorf("model %s: provider %q: %w", m.ID, m.Provider, ErrUnknownProvider))
		}
		if m.MaxContextTokens < 0 || m.MaxOutputTokens < 0 {
			errs = append(errs, fmt.Errorf("model %s: negative token limit", m.ID))
		}
		if _, dup := c.byID[m.ID]; dup {
			errs = append(errs, fmt.Errorf("model %s: duplicate id", m.ID))
		}
		key := normalize(m.Name)
		if _, dup := c.byName[key]; dup {
			errs = append(errs, fmt.Errorf("model %s: duplicate name %s", m.ID, m.Name))
		}
		c.byID[m.ID] = i
		c.byName[key] = i
	}

	for _, info := range providers {
		name, ok := defaults[info.Code]
		if !ok {
			errs = append(errs, fmt.Errorf("provider %s has no default model", info.Code))
			continue
		}
		idx, ok := c.byName[normalize(name)]
		if !ok {
			errs = append(errs, fmt.Errorf("provider %s default %s: %w", info.Code, name, ErrUnknownModel))
			continue
		}
		if c.models[idx].Provider != info.Code {
			errs = append(errs, fmt.Errorf("provider %s default %s belongs to %s",
				info.Code, name, c.models[idx].Provider))
			continue
		}
		c.defaults[info.Code] = idx
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return c, nil
}

// LookupByID returns the model whose wire identifier is id.
func (c *Catalog) LookupByID(id string) (Model, error) {
	if idx, ok := c.byID[strings.TrimSpace(id)]; ok {
		return c.models[idx], nil
	}
	return Model{}, fmt.Errorf("%w: id %q", ErrUnknownModel, id)
}

// LookupByName returns the model whose symbolic name matches name,
// ignoring case and treating '-' and '.' as '_'.
func (c *Catalog) LookupByName(name string) (Model, error) {
	if idx, ok := c.byName[normalize(name)]; ok {
		return c.models[idx], nil
	}
	return Model{}, fmt.Errorf("%w: name %q", ErrUnknownModel, name)
}

// Resolve accepts either an id or a name.
func (c *Catalog) Resolve(ref string) (Model, error) {
	if m, err := c.LookupByID(ref); err == nil {
		return m, nil
	}
	if m, err := c.LookupByName(ref); err == nil {
		return m, nil
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, ref)
}

// ModelsForProvider returns the provider's models in table order.
func (c *Catalog) ModelsForProvider(p Provider) []Model {
	var out []Model
	for _, m := range c.models {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

// DefaultForProvider returns the provider's default model.
func (c *Catalog) DefaultForProvider(p Provider) (Model, error) {
	idx, ok := c.defaults[p]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
	return c.models[idx], nil
}

// Models returns a copy of every model in table order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Providers returns the fixed provider set.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(providers))
	copy(out, providers)
	return out
}

func knownProvider(p Provider) bool {
	for _, info := range providers {
		if info.Code == p {
			return true
		}
	}
	return false
}

func normalize(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(strings.TrimSpace(name)))
}
