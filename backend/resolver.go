package backend

import (
	"sync"

	"github.com/wippyai/xpu-interop/dispatch"
	"github.com/wippyai/xpu-interop/errors"
)

// Resolver maps a backend Kind to the call table used for every native call of
// an import. Lookups are read-mostly and safe for concurrent use.
type Resolver struct {
	plugins map[Kind]dispatch.Plugin
	mu      sync.RWMutex
}

// NewResolver creates a resolver over the given plugins. Entries for kinds
// outside the supported set are ignored.
func NewResolver(plugins map[Kind]dispatch.Plugin) *Resolver {
	r := &Resolver{plugins: make(map[Kind]dispatch.Plugin, len(plugins))}
	for k, p := range plugins {
		if k.Supported() && p != nil {
			r.plugins[k] = p
		}
	}
	return r
}

// Register installs or replaces the plugin for k.
func (r *Resolver) Register(k Kind, p dispatch.Plugin) error {
	if !k.Supported() {
		return errors.UnsupportedBackend(k.String(), "cannot register a call table")
	}
	if p == nil {
		return errors.InvalidInput(errors.PhaseResolve, "nil plugin")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[k] = p
	return nil
}

// Unregister removes the plugin for k.
// This is useful for testing.
func (r *Resolver) Unregister(k Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plugins, k)
}

// Resolve returns the call table for k. Kinds outside the supported set,
// including the Unknown sentinel, fail with an unsupported_backend error, as
// does a supported kind whose plugin was never loaded.
func (r *Resolver) Resolve(k Kind) (dispatch.Plugin, error) {
	if !k.Supported() {
		detail := "no call table for backend"
		if k == Unknown {
			detail = "no call table for the unknown backend (unmapped platform tag?)"
		}
		return nil, errors.UnsupportedBackend(k.String(), detail)
	}

	r.mu.RLock()
	p, ok := r.plugins[k]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnsupportedBackend(k.String(), "plugin not loaded")
	}
	return p, nil
}

// Loaded returns the kinds that currently have a plugin, in SupportedKinds order.
func (r *Resolver) Loaded() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kinds []Kind
	for _, k := range SupportedKinds() {
		if _, ok := r.plugins[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
