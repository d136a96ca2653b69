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
	"fmt"
	"sort"

	"github.com/ngc-lang/ngc/internal/core/graph"
)

// bindSegment is one maximal run of offsets bound to a single value-table
// entry for one key. scopeSta/scopeEnd record the full range the bind call
// that produced this segment asked for, which is what later, more specific
// binds compare against to decide whether they are allowed to overwrite it.
type bindSegment struct {
	scopeSta, scopeEnd int
	sta, end           int
	index              int
}

// canBind reports whether a bind over [newSta, newEnd] may overwrite this
// segment: only an equal-or-narrower scope may. A scope that only partially
// overlaps this segment's original bind is a binding conflict and panics,
// mirroring byte-rs's refusal to silently resolve ambiguous scope nesting.
func (s bindSegment) canBind(newSta, newEnd int) bool {
	curSta, curEnd := s.scopeSta, s.scopeEnd
	partial := (curSta > newSta && newEnd < curEnd) || (newSta > curSta && curEnd < newEnd)
	if partial {
		panic(fmt.Sprintf("scope: partially overlapping scopes are not allowed: %d-%d with %d-%d", curSta, curEnd, newSta, newEnd))
	}
	return newSta >= curSta && newEnd <= curEnd
}

// scopeTree maps offsets to value-table entries for a single key: an
// implicit root entry plus a sorted, non-overlapping list of narrower
// segments.
type scopeTree[V any] struct {
	rootIndex int
	rootValue bool
	segments  []bindSegment
}

func newScopeTree[V any](values *valueTable[V]) *scopeTree[V] {
	return &scopeTree[V]{rootIndex: values.newEntry(*new(V), newBoundNodes())}
}

// bind installs value over r, splitting and overwriting existing segments
// as needed so the tree stays a sorted, non-overlapping partition.
func (t *scopeTree[V]) bind(values *valueTable[V], r Range, value V) {
	if r.IsRoot() {
		t.rootValue = true
		values.setValue(t.rootIndex, value)
		return
	}

	scopeSta, scopeEnd := r.sta, r.end
	length := len(t.segments)
	index := sort.Search(length, func(i int) bool { return t.segments[i].end >= scopeSta })

	if index >= length || t.segments[index].sta > scopeEnd {
		nodes := values.extractRange(t.rootIndex, scopeSta, scopeEnd)
		t.segments = append(t.segments, bindSegment{
			scopeSta: scopeSta, scopeEnd: scopeEnd,
			sta: scopeSta, end: scopeEnd,
			index: values.newEntry(value, nodes),
		})
		t.sortSegments()
		return
	}

	if next := t.segments[index]; scopeSta < next.sta {
		sta, end := scopeSta, next.sta-1
		nodes := values.extractRange(t.rootIndex, sta, end)
		t.segments = append(t.segments, bindSegment{
			scopeSta: scopeSta, scopeEnd: scopeEnd,
			sta: sta, end: end,
			index: values.newEntry(value, nodes),
		})
		index++
	}

	var prev int
	havePrev := false
	for index < length && t.segments[index].sta <= scopeEnd {
		item := t.segments[index]
		index++

		if havePrev && item.sta-prev > 1 {
			sta, end := prev+1, item.sta-1
			nodes := values.extractRange(t.rootIndex, sta, end)
			t.segments = append(t.segments, bindSegment{
				scopeSta: scopeSta, scopeEnd: scopeEnd,
				sta: sta, end: end,
				index: values.newEntry(value, nodes),
			})
		}
		prev, havePrev = item.end, true

		if !item.canBind(scopeSta, scopeEnd) {
			continue
		}

		switch {
		case scopeSta > item.sta:
			sta, end := scopeSta, item.end
			nodes := values.extractRange(item.index, sta, end)
			t.setSegmentEnd(item.index, sta-1)
			t.segments = append(t.segments, bindSegment{
				scopeSta: scopeSta, scopeEnd: scopeEnd,
				sta: sta, end: end,
				index: values.newEntry(value, nodes),
			})
		case scopeEnd < item.end:
			sta, end := item.sta, scopeEnd
			nodes := values.extractRange(item.index, sta, end)
			t.setSegmentSta(item.index, end+1)
			t.segments = append(t.segments, bindSegment{
				scopeSta: scopeSta, scopeEnd: scopeEnd,
				sta: sta, end: end,
				index: values.newEntry(value, nodes),
			})
		default:
			t.setSegmentScope(item.index, scopeSta, scopeEnd)
			values.setValue(item.index, value)
		}
	}

	t.sortSegments()
}

func (t *scopeTree[V]) sortSegments() {
	sort.Slice(t.segments, func(i, j int) bool { return t.segments[i].sta < t.segments[j].sta })
}

// the three helpers below locate a segment by its value-table index, since
// bind mutates a segment found earlier in the same pass after segments may
// have been appended (and thus reallocated) since.
func (t *scopeTree[V]) setSegmentEnd(index, end int) {
	for i := range t.segments {
		if t.segments[i].index == index {
			t.segments[i].end = end
			return
		}
	}
}

func (t *scopeTree[V]) setSegmentSta(index, sta int) {
	for i := range t.segments {
		if t.segments[i].index == index {
			t.segments[i].sta = sta
			return
		}
	}
}

func (t *scopeTree[V]) setSegmentScope(index, sta, end int) {
	for i := range t.segments {
		if t.segments[i].index == index {
			t.segments[i].scopeSta = sta
			t.segments[i].scopeEnd = end
			return
		}
	}
}

// get returns the value bound at offset, preferring the narrowest segment
// that covers it and falling back to the root value.
func (t *scopeTree[V]) get(values *valueTable[V], offset int) (V, bool) {
	index := sort.Search(len(t.segments), func(i int) bool { return t.segments[i].end >= offset })
	if index < len(t.segments) {
		item := t.segments[index]
		if offset >= item.sta && offset <= item.end {
			return values.getValue(item.index), true
		}
	}
	if t.rootValue {
		return values.getValue(t.rootIndex), true
	}
	var zero V
	return zero, false
}

func (t *scopeTree[V]) findSegment(offset int) (bindSegment, bool) {
	i := sort.Search(len(t.segments), func(i int) bool { return t.segments[i].end >= offset })
	if i < len(t.segments) && t.segments[i].sta <= offset && offset <= t.segments[i].end {
		return t.segments[i], true
	}
	return bindSegment{}, false
}

func (t *scopeTree[V]) addNode(values *valueTable[V], node *graph.Node) {
	if seg, ok := t.findSegment(node.Offset()); ok {
		values.nodesAt(seg.index).add(node)
	} else {
		values.nodesAt(t.rootIndex).add(node)
	}
}

func (t *scopeTree[V]) removeNode(values *valueTable[V], node *graph.Node) {
	if seg, ok := t.findSegment(node.Offset()); ok {
		values.nodesAt(seg.index).remove(node)
	} else {
		values.nodesAt(t.rootIndex).remove(node)
	}
}
