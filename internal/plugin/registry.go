package plugin

import (
	"sort"
	"sync"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

// Factory constructs a plugin instance from its configured name and raw
// options. Construction resolves and validates the full configuration, so
// invalid options fail the build before any file I/O.
type Factory func(instance string, options map[string]string) (Plugin, error)

// Registry maps plugin family names to factories. It carries no global
// state; callers construct one and register the families they ship.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a family name. Duplicate families are a
// programming error and rejected.
func (r *Registry) Register(family string, f Factory) error {
	if family == "" || f == nil {
		return rgerrors.InternalError("plugin family registration needs a name and a factory", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[family]; exists {
		return rgerrors.InternalError("plugin family already registered", nil).
			WithContext("family", family)
	}
	r.factories[family] = f
	return nil
}

// Create instantiates a plugin from the named family and validates its
// metadata.
func (r *Registry) Create(family, instance string, options map[string]string) (Plugin, error) {
	r.mu.RLock()
	f, ok := r.factories[family]
	r.mu.RUnlock()

	if !ok {
		return nil, rgerrors.New(rgerrors.CategoryConfig, rgerrors.SeverityFatal, "unknown plugin family").
			WithContext("family", family).
			WithContext("instance", instance)
	}

	p, err := f(instance, options)
	if err != nil {
		return nil, err
	}
	if err := p.Metadata().Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Has reports whether a family is registered.
func (r *Registry) Has(family string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[family]
	return ok
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
