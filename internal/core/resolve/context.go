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
	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/lang/token"
)

// Context is the per-apply handle an [Operator] uses to read bindings and
// report diagnostics. It never exposes the resolver's internals (the
// operator map, the commit queue); it only exposes what an operator is
// allowed to touch directly.
type Context struct {
	r *Resolver
}

// Lookup resolves name at offset against the current binding scope: a
// reference sees whichever `let`/`const` declared before it at the
// narrowest enclosing scope.
func (c *Context) Lookup(name token.Symbol, offset int) (*graph.Node, bool) {
	return c.r.bindings.Get(graph.Key{Symbol: name}, offset)
}

// Errorf queues a diagnostic without aborting resolution; structural and
// binding errors are non-fatal.
func (c *Context) Errorf(kind ErrorKind, span token.Span, format string, args ...any) {
	c.r.reportf(kind, span, format, args...)
}

// ErrorfBlame is like Errorf but attaches a related span (e.g. the opening
// bracket that a close failed to match).
func (c *Context) ErrorfBlame(kind ErrorKind, span, blame token.Span, format string, args ...any) {
	c.r.reportfBlame(kind, span, blame, format, args...)
}

// NewNode allocates a fresh node sharing the resolver's arena bookkeeping.
// Operators should use this instead of constructing *graph.Node directly so
// every node the resolver ever sees has gone through one allocation path.
func (c *Context) NewNode(value graph.Expr, s graph.ScopeHandle, span token.Span) *graph.Node {
	return graph.New(value, s, span)
}

// AddNode registers n for dispatch directly, without going through a
// [Change]. Operators use this for nodes that don't occupy a slot in any
// [graph.NodeList] of their own — the lines of a bracket body, or a
// block's head/body line — but still need to reach the scope map so their
// own key's operator gets a chance at them. A node keyed [graph.WildcardKey]
// is silently ignored: nothing is ever registered against that key, so
// adding one would only surface as a bogus unresolved diagnostic.
func (c *Context) AddNode(n *graph.Node) {
	c.r.addNode(n)
}

// ErrorKind mirrors [github.com/ngc-lang/ngc/lang/errors.Kind] without
// importing it here, so resolve stays independent of the diagnostics
// collaborator's wire format. The two share the same order of kinds;
// nothing in this package converts one into the other.
type ErrorKind int

const (
	ErrLexical ErrorKind = iota
	ErrStructural
	ErrBinding
	ErrAmbiguity
	ErrUnresolved
	ErrInternal
)
