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

// Package graph holds the identity-stable, versioned node graph that the
// resolver mutates. Node identity is a permanent integer assigned at
// construction; node value is a replaceable tagged union ([Expr]).
// Separating the two is what lets the scope map tombstone and re-tag
// membership without invalidating any other reference to the node.
package graph

import (
	"sync"
	"sync/atomic"

	"github.com/ngc-lang/ngc/lang/token"
)

// ScopeHandle is an opaque, process-wide identifier for a lexical scope.
// The scope package owns the inheritance chain; graph only needs a
// comparable value to stamp on nodes and lists.
type ScopeHandle uint64

// RootScope is the handle for the unbounded root scope.
const RootScope ScopeHandle = 0

var nextID atomic.Uint64

// nextNodeID issues the next permanent node identity.
func nextNodeID() uint64 { return nextID.Add(1) }

// Node is an identity plus a (value, span, scope, version) quadruple.
// Identity never changes; Value, Span, and Version can be updated in place
// by [Node.Set], which is how an operator "owns" and rewrites a node it is
// currently processing.
type Node struct {
	id uint64

	mu      sync.RWMutex
	value   Expr
	span    token.Span
	scope   ScopeHandle
	version uint64

	// binding is the CAS-style membership stamp used by the scope map's
	// BoundNodes; 0 means unbound.
	binding atomic.Uint32
}

// New allocates a node with a fresh identity and version 0.
func New(value Expr, scope ScopeHandle, span token.Span) *Node {
	return &Node{id: nextNodeID(), value: value, span: span, scope: scope}
}

// ID returns the node's permanent identity.
func (n *Node) ID() uint64 { return n.id }

// Val returns the node's current value.
func (n *Node) Val() Expr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

// Span returns the node's current span.
func (n *Node) Span() token.Span {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.span
}

// Scope returns the node's scope handle.
func (n *Node) Scope() ScopeHandle {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scope
}

// Version returns the node's current version.
func (n *Node) Version() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.version
}

// Offset returns the node's byte offset, the coordinate scope ranges and
// BoundNodes ordering are defined over.
func (n *Node) Offset() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.span.Offset
}

// Set overwrites the node's value and span in place and bumps its version.
// The scope handle is immutable once the node exists.
func (n *Node) Set(value Expr, span token.Span) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.value = value
	n.span = span
	n.version++
}

// Children invokes cb once per direct child node, in declaration order.
func (n *Node) Children(cb func(*Node)) {
	for _, c := range n.Val().Children() {
		cb(c)
	}
}

// Key derives the scope-map lookup coordinate for this node.
func (n *Node) Key() Key { return n.Val().Key() }

// Equal reports node equality: same identity, or structurally equal value
// with matching scope.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n.id == other.id {
		return true
	}
	return n.Scope() == other.Scope() && exprEqual(n.Val(), other.Val())
}

// HashKey returns a value suitable for use as a map key that hashes only
// the node's value, excluding scope, so that hashing stays stable across
// rebinding. Structural values (which are never value-equal across nodes)
// fall back to the node's own identity pointer.
func (n *Node) HashKey() any {
	if k := exprHashKey(n.Val()); k != nil {
		return k
	}
	return n
}

// binding is read/written exclusively by package scope via the accessors
// below, implementing the single-atomic CAS membership stamp.

// CompareAndSwapBinding attempts to move the node from the old binding id to
// the new one, returning false if the node's current stamp does not match
// old (a double-add or stale removal).
func (n *Node) CompareAndSwapBinding(old, new uint32) bool {
	return n.binding.CompareAndSwap(old, new)
}

// BindingID returns the node's current binding-set stamp (0 if unbound).
func (n *Node) BindingID() uint32 { return n.binding.Load() }
