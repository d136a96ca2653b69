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

package graph_test

import (
	"errors"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/lang/token"
)

var errExample = errors.New("boom")

func sp(off, length int) token.Span {
	return token.Span{Source: "m.ngc", Offset: off, Length: length, Line: 1, Column: off + 1}
}

func TestNodeIdentityStableAcrossSet(t *testing.T) {
	n := graph.New(graph.Word{Name: "x"}, graph.RootScope, sp(0, 1))
	id := n.ID()
	qt.Assert(t, qt.Equals(n.Version(), uint64(0)))

	n.Set(graph.Word{Name: "y"}, sp(0, 1))
	qt.Assert(t, qt.Equals(n.ID(), id))
	qt.Assert(t, qt.Equals(n.Version(), uint64(1)))
	qt.Assert(t, qt.Equals(n.Val().(graph.Word).Name, token.Symbol("y")))
}

func TestNodeChildrenOrder(t *testing.T) {
	a := graph.New(graph.Word{Name: "a"}, graph.RootScope, sp(0, 1))
	b := graph.New(graph.Word{Name: "b"}, graph.RootScope, sp(2, 1))
	raw := graph.New(graph.Raw{Items: []*graph.Node{a, b}}, graph.RootScope, sp(0, 3))

	var got []*graph.Node
	raw.Children(func(n *graph.Node) { got = append(got, n) })
	qt.Assert(t, qt.DeepEquals(got, []*graph.Node{a, b}))
}

func TestNodeEqualityIdentityAndStructural(t *testing.T) {
	a := graph.New(graph.Word{Name: "x"}, graph.RootScope, sp(0, 1))
	qt.Assert(t, qt.IsTrue(a.Equal(a)))

	b := graph.New(graph.Word{Name: "x"}, graph.RootScope, sp(5, 1))
	qt.Assert(t, qt.IsTrue(a.Equal(b))) // structurally equal, different identity, same scope

	c := graph.New(graph.Word{Name: "x"}, graph.ScopeHandle(7), sp(5, 1))
	qt.Assert(t, qt.IsFalse(a.Equal(c))) // different scope

	d := graph.New(graph.Word{Name: "y"}, graph.RootScope, sp(0, 1))
	qt.Assert(t, qt.IsFalse(a.Equal(d)))
}

func TestNodeHashKeyExcludesScope(t *testing.T) {
	a := graph.New(graph.Word{Name: "x"}, graph.RootScope, sp(0, 1))
	b := graph.New(graph.Word{Name: "x"}, graph.ScopeHandle(3), sp(9, 1))
	qt.Assert(t, qt.Equals(a.HashKey(), b.HashKey()))

	// Structural values fall back to node identity: two distinct Raw nodes
	// never collide even when their children happen to match.
	r1 := graph.New(graph.Raw{}, graph.RootScope, sp(0, 0))
	r2 := graph.New(graph.Raw{}, graph.RootScope, sp(0, 0))
	qt.Assert(t, qt.Not(qt.Equals(r1.HashKey(), r2.HashKey())))
}

func TestBindingCompareAndSwap(t *testing.T) {
	n := graph.New(graph.Word{Name: "x"}, graph.RootScope, sp(0, 1))
	qt.Assert(t, qt.Equals(n.BindingID(), uint32(0)))
	qt.Assert(t, qt.IsTrue(n.CompareAndSwapBinding(0, 1)))
	qt.Assert(t, qt.Equals(n.BindingID(), uint32(1)))
	qt.Assert(t, qt.IsFalse(n.CompareAndSwapBinding(0, 2))) // stale old value
}

func TestNodeListSpanIsMergeOfMembers(t *testing.T) {
	a := graph.New(graph.Word{Name: "a"}, graph.RootScope, sp(0, 1))
	b := graph.New(graph.Word{Name: "b"}, graph.RootScope, sp(4, 1))
	list := graph.NewList(graph.RootScope, []*graph.Node{a, b})

	span := list.Span()
	qt.Assert(t, qt.Equals(span.Offset, 0))
	qt.Assert(t, qt.Equals(span.Length, 5))
}

func TestNodeListWriteBumpsVersionAndSpan(t *testing.T) {
	a := graph.New(graph.Word{Name: "a"}, graph.RootScope, sp(0, 1))
	list := graph.FromSingle(graph.RootScope, a)
	qt.Assert(t, qt.Equals(list.Version(), uint64(0)))

	c := graph.New(graph.Word{Name: "c"}, graph.RootScope, sp(10, 2))
	list.Write(func(nodes []*graph.Node) []*graph.Node {
		return append(nodes, c)
	})
	qt.Assert(t, qt.Equals(list.Version(), uint64(1)))
	qt.Assert(t, qt.Equals(list.Len(), 2))
	qt.Assert(t, qt.Equals(list.Span().Length, 12))

	// A write that returns the identical slice must not bump the version.
	list.Write(func(nodes []*graph.Node) []*graph.Node { return nodes })
	qt.Assert(t, qt.Equals(list.Version(), uint64(1)))
}

func TestNodeListSliceIsIndependent(t *testing.T) {
	a := graph.New(graph.Word{Name: "a"}, graph.RootScope, sp(0, 1))
	b := graph.New(graph.Word{Name: "b"}, graph.RootScope, sp(2, 1))
	c := graph.New(graph.Word{Name: "c"}, graph.RootScope, sp(4, 1))
	list := graph.NewList(graph.RootScope, []*graph.Node{a, b, c})

	sub := list.Slice(1, 3)
	qt.Assert(t, qt.Equals(sub.Len(), 2))
	qt.Assert(t, qt.Equals(sub.At(0).ID(), b.ID()))

	sub.Write(func(nodes []*graph.Node) []*graph.Node { return nodes[:1] })
	qt.Assert(t, qt.Equals(sub.Len(), 1))
	qt.Assert(t, qt.Equals(list.Len(), 3)) // original untouched
}

func TestNodeListWriteResPropagatesError(t *testing.T) {
	a := graph.New(graph.Word{Name: "a"}, graph.RootScope, sp(0, 1))
	list := graph.FromSingle(graph.RootScope, a)

	called := false
	err := list.WriteRes(func(nodes []*graph.Node) ([]*graph.Node, bool, error) {
		called = true
		return nodes, false, errExample
	})
	qt.Assert(t, qt.IsTrue(called))
	qt.Assert(t, qt.ErrorIs(err, errExample))
	qt.Assert(t, qt.Equals(list.Version(), uint64(0)))
}
