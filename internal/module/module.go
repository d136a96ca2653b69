// Copyright 2024 The NGC Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package module is the top-level-scope collaborator: a [Module] is one
// source's named symbol set, able to import other modules by name, and a
// [Registry] loads modules idempotently per canonicalized path while
// tolerating circular imports between them.
package module

import (
	"fmt"
	"path"
	"sync"

	"github.com/ngc-lang/ngc/internal/core/graph"
)

// Module is a top-level scope fed by one source: a named symbol set, plus
// the other modules it imports by name.
type Module struct {
	Path string

	mu      sync.RWMutex
	symbols map[string]*graph.Node
	imports map[string]*Module
}

// New creates an empty Module for the given (not yet canonicalized) path.
func New(path_ string) *Module {
	return &Module{
		Path:    canonicalize(path_),
		symbols: make(map[string]*graph.Node),
		imports: make(map[string]*Module),
	}
}

// Define adds name to this module's symbol set. A later Define of the same
// name replaces the earlier one; no duplicate-name detection is done.
func (m *Module) Define(name string, n *graph.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[name] = n
}

// Lookup returns the node bound to name in this module's own symbol set.
// It does not search imported modules; use LookupImported for that.
func (m *Module) Lookup(name string) (*graph.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.symbols[name]
	return n, ok
}

// Import records that this module imports other by its path, making
// other's symbols reachable through LookupImported. Importing the
// same path twice is a no-op past the first call.
func (m *Module) Import(other *Module) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[other.Path] = other
}

// Imported returns the module this module imported under path, if any.
func (m *Module) Imported(path_ string) (*Module, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	other, ok := m.imports[canonicalize(path_)]
	return other, ok
}

// LookupImported resolves name within the module imported under
// importPath. It tolerates the imported module still being mid-load (its
// symbol set may be empty or partial if this call is reached from within a
// circular import chain) — it simply reports name as not found in that
// case, rather than blocking or erroring, since circular imports are only
// invalid when a symbol requires the cycle to resolve eagerly.
func (m *Module) LookupImported(importPath, name string) (*graph.Node, bool) {
	other, ok := m.Imported(importPath)
	if !ok {
		return nil, false
	}
	return other.Lookup(name)
}

// Loader builds the Module for a canonicalized path. Implementations that
// import other modules should do so through the same Registry.Load call
// that is loading them, so a cycle resolves to the same in-progress Module
// instead of recursing.
type Loader func(path string) (*Module, error)

// Registry caches modules by canonicalized path so loading the same path
// twice returns the same Module, and so a module that (directly or
// transitively) imports itself while loading observes the same in-progress
// Module rather than looping forever.
type Registry struct {
	mu      sync.Mutex
	modules map[string]*Module
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Load returns the Module for path, loading it via load on the first call
// for that canonicalized path and caching a successful result for every
// call after. A failed load is not cached: the next call for that path
// invokes load again. A load reached again for the same path while it is
// still in progress — a circular import — receives the same placeholder
// Module pointer immediately instead of re-invoking load; that placeholder
// is filled in once the original load call returns, so symbols defined by
// either side of the cycle become visible to the other as soon as both
// loads complete.
func (r *Registry) Load(path_ string, load Loader) (*Module, error) {
	key := canonicalize(path_)

	r.mu.Lock()
	if m, ok := r.modules[key]; ok {
		r.mu.Unlock()
		return m, nil
	}
	placeholder := New(key)
	r.modules[key] = placeholder
	r.mu.Unlock()

	built, err := load(key)
	if err != nil {
		r.mu.Lock()
		delete(r.modules, key)
		r.mu.Unlock()
		return nil, fmt.Errorf("module: loading %q: %w", key, err)
	}

	placeholder.mu.Lock()
	placeholder.symbols = built.symbols
	placeholder.imports = built.imports
	placeholder.mu.Unlock()

	return placeholder, nil
}

// Get returns the module already cached for path, if any, without
// triggering a load.
func (r *Registry) Get(path_ string) (*Module, bool) {
	key := canonicalize(path_)
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.modules[key]
	return m, ok
}

// canonicalize matches lang/source's own path canonicalization so a module
// path and the source name it was loaded from agree on identity.
func canonicalize(p string) string {
	return path.Clean(p)
}
