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
	"sort"
	"sync/atomic"

	"github.com/ngc-lang/ngc/internal/core/graph"
)

var nextBindingID atomic.Uint32

// newBindingID hands out a fresh, never-zero binding stamp; zero means
// "unbound" on a [graph.Node].
func newBindingID() uint32 {
	for {
		id := nextBindingID.Add(1)
		if id != 0 {
			return id
		}
	}
}

// boundNodes is the set of nodes currently bound to one value-table entry.
// Removal is lazy: remove only stamps the node back to unbound and
// flags the set dirty; compaction happens the next time the set is read,
// matching byte-rs's fix_nodes.
type boundNodes struct {
	id      uint32
	nodes   []*graph.Node
	sorted  int
	removed bool
}

func newBoundNodes() *boundNodes {
	return &boundNodes{id: newBindingID()}
}

// add stamps node with this set's binding id and appends it, panicking if
// the node was already bound elsewhere (a resolver bug, not user error).
func (b *boundNodes) add(node *graph.Node) {
	if b.removed {
		// compact first, so a node removed from this set and added back is
		// not listed twice
		b.fix()
	}
	wasSorted := b.sorted == len(b.nodes) && (len(b.nodes) == 0 || b.nodes[len(b.nodes)-1].Offset() < node.Offset())
	if !node.CompareAndSwapBinding(0, b.id) {
		panic("scope: adding a node that is already bound")
	}
	b.nodes = append(b.nodes, node)
	if wasSorted {
		b.sorted = len(b.nodes)
	}
}

// remove stamps node back to unbound and marks the set for compaction.
func (b *boundNodes) remove(node *graph.Node) {
	if !node.CompareAndSwapBinding(b.id, 0) {
		panic("scope: removing a node that is not on this set")
	}
	b.removed = true
}

// extractRange removes and returns, as a freshly stamped set, every node
// whose offset falls in [sta, end].
func (b *boundNodes) extractRange(sta, end int) *boundNodes {
	b.fix()
	head := sort.Search(len(b.nodes), func(i int) bool { return b.nodes[i].Offset() >= sta })
	tail := b.nodes[head:]
	length := sort.Search(len(tail), func(i int) bool { return tail[i].Offset() > end })

	extracted := append([]*graph.Node(nil), b.nodes[head:head+length]...)
	b.nodes = append(b.nodes[:head], b.nodes[head+length:]...)
	if b.sorted > head {
		b.sorted = head
	}

	out := &boundNodes{id: newBindingID(), nodes: extracted, sorted: length}
	for _, n := range extracted {
		if !n.CompareAndSwapBinding(b.id, out.id) {
			panic("scope: extracted node was rebound concurrently")
		}
	}
	return out
}

// list returns the set's members sorted by offset, compacting tombstones
// first.
func (b *boundNodes) list() []*graph.Node {
	b.fix()
	return b.nodes
}

func (b *boundNodes) fix() {
	if b.removed {
		live := b.nodes[:0]
		for _, n := range b.nodes {
			if n.BindingID() == b.id {
				live = append(live, n)
			}
		}
		b.nodes = live
		b.removed = false
		b.sorted = 0
	}
	if b.sorted < len(b.nodes) {
		sort.Slice(b.nodes, func(i, j int) bool { return b.nodes[i].Offset() < b.nodes[j].Offset() })
		b.sorted = len(b.nodes)
	}
}
