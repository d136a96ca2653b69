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

// Package arena implements the bulk, append-only, pointer-stable allocator
// that backs every node, node-list, and scope-tree record for the lifetime
// of one compile. It is ported from the fixed-page raw arena in
// byte-rs/src/byte/engine/arena.rs: pages of a fixed element capacity that
// never reallocate, an atomic cursor handing out slots, and a short write
// lock only when a new page must be appended.
package arena

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultPageSize is the number of elements per page when none is given.
const DefaultPageSize = 256

// Arena is a typed bulk allocator for T. The zero value is not usable; use
// [New].
type Arena[T any] struct {
	id       uuid.UUID
	pageSize int
	onRelease func(*T)

	mu      sync.RWMutex
	pages   []*page[T]
	cursor  atomic.Int64 // next global element index to hand out
	released bool
}

type page[T any] struct {
	data []T
}

// New creates an arena with the default page size and no release callback.
func New[T any]() *Arena[T] {
	return NewSized[T](DefaultPageSize, nil)
}

// NewSized creates an arena with an explicit page size and an optional
// onRelease callback invoked once per element, in unspecified order, when
// [Arena.Release] runs (mirrors the Rust allocator's per-element Drop).
func NewSized[T any](pageSize int, onRelease func(*T)) *Arena[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Arena[T]{id: uuid.New(), pageSize: pageSize, onRelease: onRelease}
}

// ID identifies this arena instance for correlating trace logs across a
// single compile session.
func (a *Arena[T]) ID() uuid.UUID { return a.id }

// Push appends value and returns a pointer valid until [Arena.Release].
func (a *Arena[T]) Push(value T) *T {
	index := a.cursor.Add(1) - 1
	pageIndex := int(index) / a.pageSize
	slot := int(index) % a.pageSize

	p := a.pageFor(pageIndex)
	p.data[slot] = value
	return &p.data[slot]
}

// pageFor returns the page at pageIndex, allocating it (and any pages
// before it, defensively) under a short write lock if necessary.
func (a *Arena[T]) pageFor(pageIndex int) *page[T] {
	a.mu.RLock()
	if pageIndex < len(a.pages) {
		p := a.pages[pageIndex]
		a.mu.RUnlock()
		return p
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.pages) <= pageIndex {
		a.pages = append(a.pages, &page[T]{data: make([]T, a.pageSize)})
	}
	return a.pages[pageIndex]
}

// Get retrieves the i-th previously pushed value.
func (a *Arena[T]) Get(i int) *T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pageIndex := i / a.pageSize
	slot := i % a.pageSize
	return &a.pages[pageIndex].data[slot]
}

// SliceAt returns a real (non-copying) view over the n elements starting at
// global index start. Pointer stability guarantees the returned slice stays
// valid until [Arena.Release]. The caller must ensure the range
// [start, start+n) does not cross a page boundary; [Buffer] arranges its
// allocations so this always holds.
func (a *Arena[T]) SliceAt(start, n int) []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	pageIndex := start / a.pageSize
	slot := start % a.pageSize
	if slot+n > a.pageSize {
		panic("arena: SliceAt range crosses a page boundary")
	}
	return a.pages[pageIndex].data[slot : slot+n : slot+n]
}

// Len reports how many elements have been pushed so far.
func (a *Arena[T]) Len() int {
	return int(a.cursor.Load())
}

// Release destroys every pushed element exactly once (calling onRelease, if
// set) and drops the underlying pages. The arena must not be used again
// afterward.
func (a *Arena[T]) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.released = true
	if a.onRelease != nil {
		n := int(a.cursor.Load())
		for i := 0; i < n; i++ {
			pageIndex := i / a.pageSize
			slot := i % a.pageSize
			a.onRelease(&a.pages[pageIndex].data[slot])
		}
	}
	a.pages = nil
}
