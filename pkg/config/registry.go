package config

import (
	"sort"
	"sync"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/limit"
)

// Registry holds named limits for lookup by surrounding infrastructure
// (middleware, RPC interceptors, job runners). Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	limits map[string]limit.Limit
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{limits: make(map[string]limit.Limit)}
}

// Register adds a limit under its name. Duplicate names are rejected so a
// lookup never silently changes meaning.
func (r *Registry) Register(l limit.Limit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := l.Name()
	if name == "" {
		return gaerrors.NewValidationError("registry", "name", "", "cannot be empty").
			WithHint("give every registered limit a name")
	}
	if _, exists := r.limits[name]; exists {
		return gaerrors.NewValidationError("registry", "name", name, "already registered")
	}
	r.limits[name] = l
	return nil
}

// Get returns the limit registered under name.
func (r *Registry) Get(name string) (limit.Limit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.limits[name]
	return l, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.limits))
	for name := range r.limits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
