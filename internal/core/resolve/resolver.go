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
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/internal/core/scope"
	"github.com/ngc-lang/ngc/lang/token"
)

// forwardUnbounded stands in for "to end of source" when binding a name
// from its declaration point forward; real spans never reach this offset.
const forwardUnbounded = math.MaxInt32

// regEntry records one operator registration so [Resolver.Schedule] can
// re-bind every builtin operator onto a freshly discovered sub-list's
// offset range, letting a bracket body or block body resolve under the
// same rule set as its enclosing scope.
type regEntry struct {
	key graph.Key
	op  Operator
}

// Diagnostic is one resolver-reported problem, independent of the
// lang/errors wire format so this package stays free of a dependency on
// the diagnostics collaborator. Nothing in this package converts a
// Diagnostic into a lang/errors value.
type Diagnostic struct {
	Kind  ErrorKind
	Span  token.Span
	Blame token.Span
	Msg   string
}

// Config tunes the resolver loop; the zero value is usable and runs
// generations sequentially.
type Config struct {
	// Parallel runs every node in one generation concurrently via
	// golang.org/x/sync/errgroup instead of sequentially.
	Parallel bool
	// MaxGenerations bounds the outer loop as a termination backstop; 0
	// means unbounded.
	MaxGenerations int
	// Trace, if set, is called once per generation before it is applied.
	Trace func(generationNum int, precedence int, nodeCount int)
}

// Resolver drives a node graph to a fixed point by repeatedly draining the
// lowest-precedence operator generation from an internal scope map and
// committing its requested edits.
type Resolver struct {
	cfg      Config
	ops      *scope.Map[Operator]
	bindings *scope.Map[*graph.Node]
	builtins []regEntry

	owner map[uint64]*graph.NodeList // node id -> its current list

	diags []Diagnostic
}

// NewResolver creates an empty resolver; call Register for each operator
// before Schedule-ing any node lists.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{
		cfg:      cfg,
		ops:      scope.New[Operator](operatorPrecedence),
		bindings: scope.New[*graph.Node](func(*graph.Node) int { return 0 }),
		owner:    make(map[uint64]*graph.NodeList),
	}
}

// operatorPrecedence is the scope map's precedence extractor for
// Operator-valued entries. A key's root scope-tree entry starts out with a
// nil Operator (no bind has happened yet for it); such entries must sort,
// not panic, so they drain last.
func operatorPrecedence(op Operator) int {
	if op == nil {
		return math.MaxInt
	}
	return op.Precedence()
}

// Register binds op at Root scope for key and records it as a builtin so
// future recursive scopes inherit it automatically.
func (r *Resolver) Register(key graph.Key, op Operator) {
	r.ops.Bind(key, scope.Root(), op)
	r.builtins = append(r.builtins, regEntry{key: key, op: op})
}

// Schedule adds every node in list to the dispatch map and re-binds every
// registered builtin operator onto list's own offset range, so a freshly
// produced bracket or block body resolves under the same operators as its
// parent.
func (r *Resolver) Schedule(list *graph.NodeList) {
	span := list.Span()
	if span.Length > 0 {
		rng := scope.Of(span.Offset, span.End()-1)
		for _, entry := range r.builtins {
			r.ops.Bind(entry.key, rng, entry.op)
		}
	}
	for _, n := range list.Snapshot() {
		r.owner[n.ID()] = list
		r.addNode(n)
	}
}

// addNode registers n for dispatch unless its key is [graph.WildcardKey]:
// a wildcard-keyed node is, by construction, a fully resolved value or a
// pure container that no operator ever binds against, so adding it would
// only ever drain as a spurious "no operator claims this node" diagnostic.
func (r *Resolver) addNode(n *graph.Node) {
	if n.Key() == graph.WildcardKey {
		return
	}
	r.ops.AddNode(n)
}

// Diagnostics returns every problem reported so far.
func (r *Resolver) Diagnostics() []Diagnostic { return r.diags }

func (r *Resolver) reportf(kind ErrorKind, span token.Span, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{Kind: kind, Span: span, Msg: fmt.Sprintf(format, args...)})
}

func (r *Resolver) reportfBlame(kind ErrorKind, span, blame token.Span, format string, args ...any) {
	r.diags = append(r.diags, Diagnostic{Kind: kind, Span: span, Blame: blame, Msg: fmt.Sprintf(format, args...)})
}

// applyResult is one Apply call's outcome, kept alongside the node it was
// computed for so Run can commit edits after a generation's fan-out
// completes.
type applyResult struct {
	node   *graph.Node
	result Result
	err    error
}

// Run drains generations until the scope map is empty, committing edits as
// it goes, and returns the first internal (fatal) error encountered, if
// any. Structural/binding/ambiguity problems are recorded as diagnostics
// and do not stop the loop.
func (r *Resolver) Run(ctx context.Context) error {
	generationNum := 0
	for {
		if r.cfg.MaxGenerations > 0 && generationNum >= r.cfg.MaxGenerations {
			r.reportf(ErrInternal, token.Span{}, "resolver: exceeded max generations (%d)", r.cfg.MaxGenerations)
			return fmt.Errorf("resolve: exceeded %d generations without reaching a fixed point", r.cfg.MaxGenerations)
		}

		gens, ok := r.ops.ShiftNext()
		if !ok {
			return nil
		}

		for _, gen := range gens {
			generationNum++
			if r.cfg.Trace != nil {
				r.cfg.Trace(generationNum, operatorPrecedence(gen.Value), len(gen.Nodes))
			}
			if err := r.runGeneration(ctx, gen); err != nil {
				return err
			}
		}
	}
}

func (r *Resolver) runGeneration(ctx context.Context, gen scope.Generation[Operator]) error {
	op := gen.Value
	if op == nil {
		for _, n := range gen.Nodes {
			r.reportf(ErrUnresolved, n.Span(), "no operator claims this node")
		}
		return nil
	}

	results := make([]applyResult, len(gen.Nodes))
	rc := &Context{r: r}

	run := func(i int) error {
		n := gen.Nodes[i]
		list := r.owner[n.ID()]
		res, err := op.Apply(rc, n, list)
		results[i] = applyResult{node: n, result: res, err: err}
		return nil
	}

	if r.cfg.Parallel {
		g, _ := errgroup.WithContext(ctx)
		for i := range gen.Nodes {
			i := i
			g.Go(func() error { return run(i) })
		}
		_ = g.Wait() // run() never returns an error; per-node errors are captured in results
	} else {
		for i := range gen.Nodes {
			if err := run(i); err != nil {
				return err
			}
		}
	}

	for _, res := range results {
		if res.result.Kind == Pass {
			r.requeue(op, res.node)
		}
	}

	return r.commit(results)
}

// requeue forces node back onto the active heap at the same key and
// operator. A drained value-table entry never reappears in ShiftNext on its
// own — only a Bind puts an entry back on the heap — so a Pass result
// re-binds a node-sized segment: that either splits a new entry off the
// node's wider segment or, when the node already sits in a segment of
// exactly that size, re-activates that segment's drained entry.
func (r *Resolver) requeue(op Operator, n *graph.Node) {
	off := n.Offset()
	r.ops.Bind(n.Key(), scope.Of(off, off), op)
}

// commit applies every Changed result from one generation, sorted so that
// edits that insert nodes run after edits that don't at the same list
// index, and larger edits before smaller ones — avoiding an edit
// invalidating the position another edit in the same generation still
// needs.
func (r *Resolver) commit(results []applyResult) error {
	type commitEntry struct {
		index     int
		hasInsert bool
		count     int
		apply     func()
	}
	var entries []commitEntry

	// Two results in the same generation conflict when they are both
	// Changed for the same node identity: the same node dispatched twice
	// this generation, with two independent sets of edits racing for the
	// same slot. That is the operator-ambiguity error kind; a hard error,
	// but non-fatal, so every conflicting result is reported and dropped
	// rather than applied.
	claims := make(map[uint64][]int)
	for i, res := range results {
		if res.result.Kind == Changed {
			claims[res.node.ID()] = append(claims[res.node.ID()], i)
		}
	}
	conflicted := make(map[int]bool)
	var firstErr error
	for _, idxs := range claims {
		if len(idxs) < 2 {
			continue
		}
		first := results[idxs[0]].node
		for _, j := range idxs[1:] {
			other := results[j].node
			r.reportfBlame(ErrAmbiguity, first.Span(), other.Span(),
				"two resolutions both claim node %d in the same generation", first.ID())
		}
		for _, j := range idxs {
			conflicted[j] = true
		}
	}

	for i, res := range results {
		if res.err != nil {
			r.reportf(ErrInternal, res.node.Span(), "operator error: %v", res.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("resolve: operator error: %w", res.err)
			}
		}
		if conflicted[i] {
			continue
		}
		switch res.result.Kind {
		case Done:
			r.retire(res.node)
		case Pass:
			// handled in runGeneration via requeue, before commit runs.
		case Changed:
			n := res.node
			list := r.owner[n.ID()]
			idx := indexOf(list, n)
			changes := res.result.Changes
			hasInsert := false
			for _, c := range changes {
				if c.Kind == Append || (c.Kind == Replace && list != nil && len(c.Replacement) > 1) {
					hasInsert = true
				}
			}
			entries = append(entries, commitEntry{
				index: idx, hasInsert: hasInsert, count: len(changes),
				apply: func() { r.applyChanges(n, list, changes) },
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.index != b.index {
			return a.index < b.index
		}
		if a.hasInsert != b.hasInsert {
			return !a.hasInsert // edits with no insertion commit before ones that insert
		}
		return a.count > b.count
	})
	for _, e := range entries {
		e.apply()
	}
	return firstErr
}

func indexOf(list *graph.NodeList, n *graph.Node) int {
	if list == nil {
		return -1
	}
	for i := 0; i < list.Len(); i++ {
		if list.At(i) == n {
			return i
		}
	}
	return -1
}

// retire removes a fully resolved node from every tracking map.
func (r *Resolver) retire(n *graph.Node) {
	r.ops.RemoveNode(n)
	delete(r.owner, n.ID())
}

// applyChanges commits one node's edits against its owning list and the
// scope maps.
func (r *Resolver) applyChanges(n *graph.Node, list *graph.NodeList, changes []Change) {
	for _, c := range changes {
		switch c.Kind {
		case Declare, Export:
			r.bindings.Bind(graph.Key{Symbol: token.Symbol(c.Name)}, scope.Of(n.Offset(), forwardUnbounded), c.Value)
		case Import:
			if v, ok := r.bindings.Get(graph.Key{Symbol: token.Symbol(c.Name)}, n.Offset()); ok {
				r.bindings.Bind(graph.Key{Symbol: token.Symbol(c.Name)}, scope.Of(n.Offset(), forwardUnbounded), v)
			}
		case RemoveSelf:
			r.retire(n)
			if list != nil {
				list.Write(func(nodes []*graph.Node) []*graph.Node {
					return removeNode(nodes, n)
				})
			}
		case Replace:
			r.retire(n)
			if list != nil {
				list.Write(func(nodes []*graph.Node) []*graph.Node {
					return replaceNode(nodes, n, c.Replacement)
				})
			}
			for _, rn := range c.Replacement {
				r.owner[rn.ID()] = list
				r.addNode(rn)
			}
		case Append:
			if list != nil {
				list.Write(func(nodes []*graph.Node) []*graph.Node {
					return insertAfter(nodes, n, c.Appended)
				})
			}
			for _, an := range c.Appended {
				r.owner[an.ID()] = list
				r.addNode(an)
			}
		case Retag:
			// retire must run before Set: it removes n from the scope tree
			// keyed by n's *current* value, and Set is what changes that
			// key (e.g. a Line retagged to a Let moves from LineKey to a
			// name key).
			r.retire(n)
			n.Set(c.NewValue, c.NewSpan)
		}
	}
}

func removeNode(nodes []*graph.Node, target *graph.Node) []*graph.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

func replaceNode(nodes []*graph.Node, target *graph.Node, with []*graph.Node) []*graph.Node {
	var out []*graph.Node
	for _, n := range nodes {
		if n == target {
			out = append(out, with...)
		} else {
			out = append(out, n)
		}
	}
	return out
}

func insertAfter(nodes []*graph.Node, target *graph.Node, extra []*graph.Node) []*graph.Node {
	var out []*graph.Node
	for _, n := range nodes {
		out = append(out, n)
		if n == target {
			out = append(out, extra...)
		}
	}
	return out
}
