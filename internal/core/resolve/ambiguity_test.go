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

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/lang/token"
)

// TestCommitFlagsAmbiguityForDoubleClaimedNode exercises commit directly
// (white-box, since applyResult and commit are unexported) with two Changed
// results for the same node identity — the shape a scope-map dispatch bug
// would produce if the same node were ever bound into one generation twice.
// Both edits must be reported and neither applied.
func TestCommitFlagsAmbiguityForDoubleClaimedNode(t *testing.T) {
	r := NewResolver(Config{})
	n := graph.New(graph.Word{Name: "a"}, graph.RootScope, token.Span{Source: "m.ngc", Offset: 0, Length: 1, Line: 1})

	err := r.commit([]applyResult{
		{node: n, result: ChangedResult(Change{Kind: Retag, NewValue: graph.Literal{Value: 1}})},
		{node: n, result: ChangedResult(Change{Kind: Retag, NewValue: graph.Literal{Value: 2}})},
	})
	qt.Assert(t, qt.IsNil(err))

	diags := r.Diagnostics()
	qt.Assert(t, qt.HasLen(diags, 1))
	qt.Assert(t, qt.Equals(diags[0].Kind, ErrAmbiguity))

	// Neither conflicting Retag should have landed.
	qt.Assert(t, qt.Equals(n.Val(), graph.Expr(graph.Word{Name: "a"})))
}

// TestCommitAppliesSoleClaimNormally is the control: a single Changed result
// for a node is unaffected by the conflict check.
func TestCommitAppliesSoleClaimNormally(t *testing.T) {
	r := NewResolver(Config{})
	n := graph.New(graph.Word{Name: "a"}, graph.RootScope, token.Span{Source: "m.ngc", Offset: 0, Length: 1, Line: 1})

	err := r.commit([]applyResult{
		{node: n, result: ChangedResult(Change{Kind: Retag, NewValue: graph.Literal{Value: 1}})},
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(r.Diagnostics(), 0))
	qt.Assert(t, qt.Equals(n.Val(), graph.Expr(graph.Literal{Value: 1})))
}
