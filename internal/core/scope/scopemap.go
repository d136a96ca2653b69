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

package scope

import (
	"sync"

	"github.com/ngc-lang/ngc/internal/core/graph"
)

// Map binds values of type V to [graph.Key]s, each possibly scoped to a
// sub-range of offsets, and orders them for draining by precedence. V is
// almost always an operator or a small handle to one; Precedence extracts
// the ordering value used by [Map.ShiftNext].
//
// A resolver running with Config.Parallel fans Operator.Apply calls for one
// generation out across goroutines, and an operator may call
// [Context.AddNode] from inside Apply to register a node it just created.
// Those calls land on the same Map concurrently with no ordering between
// them, so every exported method takes mu: writers the full lock, Get the
// read lock. ShiftNext mutates the heap (it drains a generation), so it
// takes the full lock too.
type Map[V any] struct {
	mu sync.RWMutex

	precedence func(V) int
	table      map[graph.Key]*scopeTree[V]
	values     *valueTable[V]
}

// New creates an empty map. precedence must return the generation a value
// belongs to; lower runs first.
func New[V any](precedence func(V) int) *Map[V] {
	return &Map[V]{
		precedence: precedence,
		table:      make(map[graph.Key]*scopeTree[V]),
		values:     newValueTable(precedence),
	}
}

func (m *Map[V]) treeFor(key graph.Key) *scopeTree[V] {
	tree, ok := m.table[key]
	if !ok {
		tree = newScopeTree[V](m.values)
		m.table[key] = tree
	}
	return tree
}

// Bind installs value for key over scope. A narrower scope overrides a
// wider one wherever their ranges overlap; two binds whose ranges only
// partially intersect panic rather than produce an ambiguous partition.
func (m *Map[V]) Bind(key graph.Key, scope Range, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treeFor(key).bind(m.values, scope, value)
}

// Get returns the value bound to key at offset, if any.
func (m *Map[V]) Get(key graph.Key, offset int) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tree, ok := m.table[key]
	if !ok {
		var zero V
		return zero, false
	}
	return tree.get(m.values, offset)
}

// AddNode registers node under its own key, in whichever segment covers its
// offset.
func (m *Map[V]) AddNode(node *graph.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.treeFor(node.Key()).addNode(m.values, node)
}

// RemoveNode drops node from whichever segment it is currently bound to.
func (m *Map[V]) RemoveNode(node *graph.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tree, ok := m.table[node.Key()]; ok {
		tree.removeNode(m.values, node)
	}
}

// ReindexNode moves node from oldKey to its current key, a no-op if the key
// did not actually change, for a caller that changes a registered node's
// key with [graph.Node.Set] and keeps it registered. The resolver's Retag
// path does not call it; it retires the node instead.
func (m *Map[V]) ReindexNode(node *graph.Node, oldKey graph.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if node.Key() == oldKey {
		return
	}
	if tree, ok := m.table[oldKey]; ok {
		tree.removeNode(m.values, node)
	}
	m.treeFor(node.Key()).addNode(m.values, node)
}

// Generation is one precedence tier drained by [Map.ShiftNext]: every value
// tied for the lowest remaining precedence, paired with the nodes currently
// bound to it.
type Generation[V any] struct {
	Value V
	Nodes []*graph.Node
}

// ShiftNext drains every value tied for the lowest precedence still present
// across every key, returning false once nothing remains; this is the
// resolver's outer generation loop primitive.
func (m *Map[V]) ShiftNext() ([]Generation[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.values.shiftNext()
	if !ok {
		return nil, false
	}
	out := make([]Generation[V], 0, len(entries))
	for _, e := range entries {
		out = append(out, Generation[V]{Value: e.value, Nodes: e.nodes.list()})
	}
	return out, true
}
