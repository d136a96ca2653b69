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

package resolve

import "github.com/ngc-lang/ngc/internal/core/graph"

// Operator is the uniform interface every parsing/expansion stage
// implements — tokenization, bracket matching, line splitting, expression
// shunting-yard, keyword recognition, and so on. Precedence determines
// draining order (lower runs first); Applies lets the resolver skip a node
// this operator would decline anyway without paying for a full Apply;
// Apply does the actual work and reports what it wants to change.
type Operator interface {
	// Precedence returns this operator's generation. Operators sharing a
	// precedence value are drained together in one generation.
	Precedence() int

	// Applies reports whether this operator is willing to act on node at
	// all. It must be side-effect free and fast: the resolver may call it
	// speculatively.
	Applies(node *graph.Node) bool

	// Apply processes one bound node for this operator's key and reports
	// what it wants changed for that node; the resolver calls it once per
	// node in a generation. siblings is the list node currently owns a
	// slot in; Apply may read it but must request any edit through the
	// returned Result rather than mutating it directly.
	Apply(ctx *Context, node *graph.Node, siblings *graph.NodeList) (Result, error)
}

// ResultKind discriminates [Result].
type ResultKind int

const (
	// Done means node needs no further dispatch; the resolver retires it
	// from the scope map.
	Done ResultKind = iota
	// Pass means the operator declined to act this round; the resolver
	// re-queues node onto a fresh, node-sized scope so it is offered again
	// in a later generation at the same key.
	Pass
	// Changed means the operator requests the attached edits be committed.
	Changed
)

// Result is what an [Operator.Apply] call reports for one node.
type Result struct {
	Kind    ResultKind
	Changes []Change
}

// DoneResult reports that node is fully resolved.
func DoneResult() Result { return Result{Kind: Done} }

// PassResult reports that the operator declined to act this round.
func PassResult() Result { return Result{Kind: Pass} }

// ChangedResult reports the edits to commit for this node.
func ChangedResult(changes ...Change) Result { return Result{Kind: Changed, Changes: changes} }
