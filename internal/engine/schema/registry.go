package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSchema is returned when a registry has no schema by that name.
var ErrUnknownSchema = errors.New("unknown schema")

// Registry maps schema names to compiled schemas.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates a registry holding the built-in "basic" and "letter"
// schemas.
func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]*Schema{
			"basic":  Basic(),
			"letter": Letter(),
		},
	}
}

// Register compiles spec and stores it under name.
func (r *Registry) Register(name string, spec Spec) (*Schema, error) {
	s, err := New(spec)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	if err := r.Add(name, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Add stores an already compiled schema.
func (r *Registry) Add(name string, s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[name]; exists {
		return fmt.Errorf("schema %q: %w", name, ErrDuplicateName)
	}
	r.schemas[name] = s
	return nil
}

// LoadFile compiles the spec file at path and registers it under name.
func (r *Registry) LoadFile(name, path string) (*Schema, error) {
	spec, err := LoadSpecFile(path)
	if err != nil {
		return nil, err
	}
	return r.Register(name, spec)
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
