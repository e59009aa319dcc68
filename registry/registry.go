// Package registry manages the modules a regression discovers tests from.
// A module is a named builder function returning its exported test
// descriptors; the regression manager only ever consumes the returned
// collection.
package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/verilab/regress/types"
)

// Builder produces the exported tests of one module.
type Builder func() []*types.Test

// Registry maps module names to their test builders.
type Registry struct {
	config  Config
	mu      sync.RWMutex
	modules map[string]Builder
	order   []string
}

// Config contains registry configuration.
type Config struct {
	Log log.Logger
}

// NewRegistry creates a new registry instance.
func NewRegistry(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Registry{
		config:  cfg,
		modules: make(map[string]Builder),
	}
}

// RegisterModule registers a module's test builder under name. Registering
// the same name twice is an error.
func (r *Registry) RegisterModule(name string, build Builder) error {
	if name == "" {
		return fmt.Errorf("module name is required")
	}
	if build == nil {
		return fmt.Errorf("module %q has no test builder", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %q is already registered", name)
	}
	r.modules[name] = build
	r.order = append(r.order, name)
	r.config.Log.Debug("Registered module", "module", name)
	return nil
}

// ModuleTests resolves the exported tests of the named module.
func (r *Registry) ModuleTests(name string) ([]*types.Test, error) {
	r.mu.RLock()
	build, ok := r.modules[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown module %q", name)
	}
	return build(), nil
}

// Modules returns the registered module names in registration order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
