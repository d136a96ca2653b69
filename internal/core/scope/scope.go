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

// Package scope implements the per-key binding map the resolver consults to
// decide which operator value applies to a node at a given offset (spec
// §4.3). Binds are scoped to an offset range; a narrower scope overrides a
// wider one for the offsets it covers, and two binds whose ranges only
// partially overlap are rejected as ambiguous rather than silently merged.
//
// This is a close port of the scope map in byte-rs/src/byte/engine/scope.rs:
// a [scopeTree] of non-overlapping [bindSegment]s per key, backed by a
// shared value table that doubles as a binary min-heap over operator
// precedence so the resolver can drain one precedence generation at a time.
package scope

// Range is a Root bind (applies everywhere a key has no more specific
// bind) or an inclusive offset Range(sta, end).
type Range struct {
	root     bool
	sta, end int
}

// Root is the scope covering every offset not claimed by a narrower bind.
func Root() Range { return Range{root: true} }

// Of returns the inclusive offset range [sta, end].
func Of(sta, end int) Range { return Range{sta: sta, end: end} }

// IsRoot reports whether r is the root scope.
func (r Range) IsRoot() bool { return r.root }
