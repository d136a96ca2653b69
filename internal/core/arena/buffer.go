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

package arena

import "sync"

// bucketSizes are the size classes served by [Buffer], matching the
// byte-rs reference allocator's 8..256 byte buckets.
var bucketSizes = [...]int{8, 16, 32, 64, 128, 256}

// Buffer is an untyped arena for variable-sized, plain byte allocations. It
// routes small requests to a size-classed bucket (a []byte arena grown in
// pages) and falls back to an individually owned slice for anything larger
// than the biggest bucket. All memory is released at once by [Buffer.Release].
type Buffer struct {
	buckets [len(bucketSizes)]*Arena[byte]

	mu    sync.Mutex
	large [][]byte
}

// NewBuffer creates an empty variable-size buffer.
func NewBuffer() *Buffer {
	b := &Buffer{}
	for i, size := range bucketSizes {
		pageElems := DefaultPageSize * size
		b.buckets[i] = NewSized[byte](pageElems, nil)
	}
	return b
}

// Alloc returns a zeroed byte slice of exactly size bytes, served from the
// smallest bucket that fits or from a dedicated allocation if size exceeds
// every bucket.
func (b *Buffer) Alloc(size int) []byte {
	for i, bucket := range bucketSizes {
		if size <= bucket {
			arena := b.buckets[i]
			start := arena.Len()
			for n := 0; n < bucket; n++ {
				arena.Push(0)
			}
			return arena.SliceAt(start, size)
		}
	}
	buf := make([]byte, size)
	b.mu.Lock()
	b.large = append(b.large, buf)
	b.mu.Unlock()
	return buf
}

// Release frees every bucket and every large allocation.
func (b *Buffer) Release() {
	for _, bucket := range b.buckets {
		bucket.Release()
	}
	b.mu.Lock()
	b.large = nil
	b.mu.Unlock()
}
