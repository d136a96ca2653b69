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

package graph

import (
	"sync"

	"github.com/ngc-lang/ngc/lang/token"
)

// NodeList is a versioned, scope-sharing ordered run of sibling nodes. Its
// span is always the merge of its members' spans; every mutating method
// recomputes it. The zero value is not usable; use [NewList].
type NodeList struct {
	mu      sync.RWMutex
	scope   ScopeHandle
	nodes   []*Node
	version uint64
	span    token.Span
}

// NewList builds a list from an initial, owned slice of nodes.
func NewList(scope ScopeHandle, nodes []*Node) *NodeList {
	owned := append([]*Node(nil), nodes...)
	return &NodeList{scope: scope, nodes: owned, span: mergeSpans(owned)}
}

// FromSingle wraps a single node in a one-element list.
func FromSingle(scope ScopeHandle, node *Node) *NodeList {
	return NewList(scope, []*Node{node})
}

func mergeSpans(nodes []*Node) token.Span {
	if len(nodes) == 0 {
		return token.Span{}
	}
	span := nodes[0].Span()
	for _, n := range nodes[1:] {
		span = token.Merge(span, n.Span())
	}
	return span
}

// Scope returns the scope handle shared by every member of the list.
func (l *NodeList) Scope() ScopeHandle { return l.scope }

// Version returns the list's edit counter, bumped on every mutation that
// actually changed its contents.
func (l *NodeList) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Span returns the merge of every member's span, or the zero span when
// empty.
func (l *NodeList) Span() token.Span {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.span
}

// Len returns the number of nodes currently in the list.
func (l *NodeList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.nodes)
}

// At returns the node at index i, or nil if out of range.
func (l *NodeList) At(i int) *Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.nodes) {
		return nil
	}
	return l.nodes[i]
}

// Slice returns a new, independent list over the half-open range [lo, hi),
// sharing the same scope handle.
func (l *NodeList) Slice(lo, hi int) *NodeList {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if lo < 0 {
		lo = 0
	}
	if hi > len(l.nodes) {
		hi = len(l.nodes)
	}
	if lo >= hi {
		return NewList(l.scope, nil)
	}
	return NewList(l.scope, l.nodes[lo:hi])
}

// Snapshot returns an owned copy of the list's current nodes, safe to
// range over without holding the list's lock.
func (l *NodeList) Snapshot() []*Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Node, len(l.nodes))
	copy(out, l.nodes)
	return out
}

// Contains reports whether any member satisfies pred.
func (l *NodeList) Contains(pred func(*Node) bool) bool {
	for _, n := range l.Snapshot() {
		if pred(n) {
			return true
		}
	}
	return false
}

// Write mutates the list's backing slice in place through fn. If the
// returned slice differs from the current one, the span is recomputed and
// the version is bumped.
func (l *NodeList) Write(fn func(nodes []*Node) []*Node) {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := fn(l.nodes)
	if sameSlice(l.nodes, next) {
		return
	}
	l.nodes = next
	l.version++
	l.span = mergeSpans(next)
}

// WriteRes is like Write but fn may fail; on error the list is left
// untouched and the error is returned.
func (l *NodeList) WriteRes(fn func(nodes []*Node) ([]*Node, bool, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, changed, err := fn(l.nodes)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	l.nodes = next
	l.version++
	l.span = mergeSpans(next)
	return nil
}

func sameSlice(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
