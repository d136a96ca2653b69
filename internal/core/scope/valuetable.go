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

import "math/bits"

// valueEntry pairs one bound value with the nodes currently waiting on it.
type valueEntry[V any] struct {
	value V
	nodes *boundNodes
}

// valueTable stores one entry per (key, segment) pair across every key in a
// [Map] and doubles as a binary min-heap over operator precedence, so
// [valueTable.shiftNext] can drain exactly one precedence generation at a
// time without re-scanning every entry. Ported from byte-rs's ValueTable:
// heap_to_list/list_to_heap keep two inverse permutation arrays so a heap
// swap and a "find this list entry's heap slot" lookup are both O(1).
type valueTable[V any] struct {
	precedence func(V) int

	list       []valueEntry[V]
	heapToList []int
	listToHeap []int
	heapSorted int
	heapLength int
}

func newValueTable[V any](precedence func(V) int) *valueTable[V] {
	return &valueTable[V]{precedence: precedence}
}

// newEntry appends a fresh (value, nodes) pair and returns its list index.
func (t *valueTable[V]) newEntry(value V, nodes *boundNodes) int {
	index := len(t.list)
	t.list = append(t.list, valueEntry[V]{value: value, nodes: nodes})
	t.heapToList = append(t.heapToList, index)
	t.listToHeap = append(t.listToHeap, index)
	if index > t.heapLength {
		t.heapSwap(index, t.heapLength)
	}
	t.heapLength++
	return index
}

func (t *valueTable[V]) extractRange(index, sta, end int) *boundNodes {
	return t.list[index].nodes.extractRange(sta, end)
}

func (t *valueTable[V]) getValue(index int) V { return t.list[index].value }

func (t *valueTable[V]) setValue(index int, value V) {
	t.list[index].value = value
	if pos := t.listToHeap[index]; pos >= t.heapLength {
		// shiftNext already drained this entry; binding it again puts it
		// back among the active slots, where the next heapify sorts it in.
		t.heapSwap(pos, t.heapLength)
		t.heapLength++
		return
	}
	t.heapFixup(t.listToHeap[index], false)
}

func (t *valueTable[V]) nodesAt(index int) *boundNodes { return t.list[index].nodes }

// shiftNext pops every entry tied for the lowest precedence value currently
// in the heap, fixes their node sets (dropping tombstones, sorting by
// offset), and returns them. It reports ok=false once the heap is empty.
func (t *valueTable[V]) shiftNext() (entries []valueEntry[V], ok bool) {
	if t.heapSorted < t.heapLength {
		t.heapify()
	}
	if t.heapLength == 0 {
		return nil, false
	}

	value := t.heapValue(0)
	count := 0
	for {
		t.list[t.heapToList[0]].nodes.fix()
		count++
		t.heapSwap(0, t.heapLength-1)
		t.heapLength--
		t.heapSorted--
		if t.heapLength == 0 {
			break
		}
		next := t.heapValue(0)
		if next != value {
			t.heapShiftDown(0, next, t.heapLength)
			break
		}
		t.heapShiftDown(0, next, t.heapLength)
	}

	start := t.heapLength
	end := t.heapLength + count
	out := make([]valueEntry[V], 0, count)
	for i := start; i < end; i++ {
		out = append(out, t.list[t.heapToList[i]])
	}
	return out, true
}

// --- heap machinery, verbatim structure from the byte-rs ValueTable ------

func (t *valueTable[V]) heapify() {
	entries := t.heapLength
	added := entries - t.heapSorted
	if added == 0 {
		return
	}

	rebuild := true
	if t.heapSorted > 0 {
		logN := bits.Len(uint(entries))
		rebuild = entries/added <= logN
	}

	if !rebuild {
		for t.heapSorted < entries {
			next := t.heapSorted
			t.heapSorted++
			t.heapFixup(next, true)
		}
		return
	}

	last := (entries - 1) / 2
	for pos := 0; pos <= last; pos++ {
		val := t.heapValue(pos)
		t.heapShiftDown(pos, val, entries)
	}
	t.heapSorted = entries
}

func (t *valueTable[V]) heapValue(pos int) int {
	return t.precedence(t.list[t.heapToList[pos]].value)
}

func (t *valueTable[V]) heapSwap(posA, posB int) {
	idxA, idxB := t.heapToList[posA], t.heapToList[posB]
	t.heapToList[posA], t.heapToList[posB] = t.heapToList[posB], t.heapToList[posA]
	t.listToHeap[idxA], t.listToHeap[idxB] = t.listToHeap[idxB], t.listToHeap[idxA]
}

func (t *valueTable[V]) heapFixup(pos int, upOnly bool) {
	if pos >= t.heapSorted {
		return
	}
	val := t.heapValue(pos)
	for pos > 0 {
		parent := (pos - 1) / 2
		parentVal := t.heapValue(parent)
		if val < parentVal {
			t.heapSwap(pos, parent)
			pos = parent
		} else {
			break
		}
	}
	if !upOnly {
		t.heapShiftDown(pos, val, t.heapSorted)
	}
}

func (t *valueTable[V]) heapShiftDown(pos, val, heapLen int) {
	for {
		lhs := pos*2 + 1
		rhs := pos*2 + 2
		if lhs >= heapLen {
			break
		}
		childPos, childVal := lhs, t.heapValue(lhs)
		if rhs < heapLen {
			if rhsVal := t.heapValue(rhs); rhsVal < childVal {
				childPos, childVal = rhs, rhsVal
			}
		}
		if childVal < val {
			t.heapSwap(pos, childPos)
			pos = childPos
		} else {
			break
		}
	}
}
