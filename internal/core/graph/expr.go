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

package graph

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/ngc-lang/ngc/lang/token"
)

// Key is the scope-map lookup coordinate a node resolves against: a symbol
// for anything that binds by name, a reserved structural key (below) for
// structural nodes, or [WildcardKey] for nodes that are never dispatched.
type Key struct {
	// Symbol is the interned name this node binds under. Zero value means
	// the node carries no name and uses the Wildcard key instead.
	Symbol token.Symbol
	// Wildcard marks [WildcardKey], independent of Symbol; no operator is
	// ever bound to it.
	Wildcard bool
}

// WildcardKey is the key for values that are never themselves dispatch
// targets (fully resolved values, or containers whose members — not the
// container — are what operators look up). It exists so every [Expr] has
// some key, but the resolver never binds an operator to it.
var WildcardKey = Key{Wildcard: true}

// reserved structural keys: distinct from any user symbol (the section
// mark cannot appear in scanned source), one per dispatch group — two
// nodes hash-equal as keys iff they should be processed by the same
// operator.
var (
	// RawKey is the dispatch key for an unprocessed run of sibling tokens:
	// the target of bracket-pair expansion and line/indent segmentation.
	RawKey = Key{Symbol: "§raw"}
	// LineKey is the dispatch key for one segmented logical line awaiting
	// expression parsing.
	LineKey = Key{Symbol: "§line"}
)

// Expr is the tagged union of language elements a [Node] can hold. Each
// variant is a small, comparable-by-convention struct; Children
// reports dependency edges in declaration order and Key reports the scope
// lookup coordinate.
type Expr interface {
	// Children returns this node's direct dependencies, in order.
	Children() []*Node
	// Key returns the scope-map lookup coordinate for this value.
	Key() Key
	// String renders a short, human-readable form for diagnostics and trace
	// logs.
	String() string
}

func wordKey(s token.Symbol) Key { return Key{Symbol: s} }

// --- leaf values --------------------------------------------------------

// Word is an identifier-shaped token that has not yet been classified by an
// operator (a bareword, potential keyword, or reference).
type Word struct{ Name token.Symbol }

func (w Word) Children() []*Node { return nil }
func (w Word) Key() Key          { return wordKey(w.Name) }
func (w Word) String() string    { return string(w.Name) }

// SymbolTok is a punctuation or operator token, not yet grouped.
type SymbolTok struct{ Name token.Symbol }

func (s SymbolTok) Children() []*Node { return nil }
func (s SymbolTok) Key() Key          { return wordKey(s.Name) }
func (s SymbolTok) String() string    { return string(s.Name) }

// Integer is an arbitrary-precision integer literal, backed by apd so large
// source literals never lose precision during constant folding.
type Integer struct{ Value apd.Decimal }

func (i Integer) Children() []*Node { return nil }
func (i Integer) Key() Key          { return WildcardKey }
func (i Integer) String() string    { return i.Value.String() }

// StringLit is a quoted string literal with escapes already resolved.
type StringLit struct{ Value string }

func (s StringLit) Children() []*Node { return nil }
func (s StringLit) Key() Key          { return WildcardKey }
func (s StringLit) String() string    { return fmt.Sprintf("%q", s.Value) }

// Literal is a fully resolved constant of a builtin type (bool, null, ...).
type Literal struct{ Value any }

func (l Literal) Children() []*Node { return nil }
func (l Literal) Key() Key          { return WildcardKey }
func (l Literal) String() string    { return fmt.Sprintf("%v", l.Value) }

// LineBreak marks a scanner-emitted newline, consumed by segmentation
// operators and never reaching the resolved output.
type LineBreak struct{}

func (LineBreak) Children() []*Node { return nil }
func (LineBreak) Key() Key          { return WildcardKey }
func (LineBreak) String() string    { return "<break>" }

// Indent marks an increase in leading whitespace.
type Indent struct{ Width int }

func (i Indent) Children() []*Node { return nil }
func (i Indent) Key() Key          { return WildcardKey }
func (i Indent) String() string    { return fmt.Sprintf("<indent %d>", i.Width) }

// Dedent marks a decrease in leading whitespace.
type Dedent struct{ Width int }

func (d Dedent) Children() []*Node { return nil }
func (d Dedent) Key() Key          { return WildcardKey }
func (d Dedent) String() string    { return fmt.Sprintf("<dedent %d>", d.Width) }

// --- structural values ---------------------------------------------------

// Raw is an unprocessed run of sibling nodes sharing one scope, the shape
// every source file starts as before any operator runs.
type Raw struct{ Items []*Node }

func (r Raw) Children() []*Node { return r.Items }
func (r Raw) Key() Key          { return RawKey }
func (r Raw) String() string    { return fmt.Sprintf("Raw(%d)", len(r.Items)) }

// Group is a bracketed sub-expression, produced by bracket-pair expansion.
type Group struct {
	Open, Close token.Symbol
	Body        *Node
}

func (g Group) Children() []*Node { return []*Node{g.Body} }
func (g Group) Key() Key          { return WildcardKey }
func (g Group) String() string    { return string(g.Open) + "..." + string(g.Close) }

// Block pairs a header node with an indented body node.
type Block struct{ Head, Body *Node }

func (b Block) Children() []*Node { return []*Node{b.Head, b.Body} }
func (b Block) Key() Key          { return WildcardKey }
func (b Block) String() string    { return "Block" }

// Sequence is an ordered run of fully resolved statements.
type Sequence struct{ Items []*Node }

func (s Sequence) Children() []*Node { return s.Items }
func (s Sequence) Key() Key          { return WildcardKey }
func (s Sequence) String() string    { return fmt.Sprintf("Sequence(%d)", len(s.Items)) }

// Line is one physical/logical line produced by segmentation, still holding
// its own raw content pending expression parsing.
type Line struct{ Content *Node }

func (l Line) Children() []*Node { return []*Node{l.Content} }
func (l Line) Key() Key          { return LineKey }
func (l Line) String() string    { return "Line" }

// --- language constructs --------------------------------------------------

// If is a conditional statement with an optional else branch.
type If struct {
	Cond, Then *Node
	Else       *Node // nil if absent
}

func (i If) Children() []*Node {
	if i.Else != nil {
		return []*Node{i.Cond, i.Then, i.Else}
	}
	return []*Node{i.Cond, i.Then}
}
func (i If) Key() Key       { return WildcardKey }
func (i If) String() string { return "If" }

// For is a bounded range loop: `for Var in From .. To : Body`.
type For struct {
	Var            token.Symbol
	From, To, Body *Node
}

func (f For) Children() []*Node { return []*Node{f.From, f.To, f.Body} }
func (f For) Key() Key          { return WildcardKey }
func (f For) String() string    { return fmt.Sprintf("For(%s)", f.Var) }

// Conditional is the ternary expression form `cond ? a : b`.
type Conditional struct{ Cond, IfTrue, IfFalse *Node }

func (c Conditional) Children() []*Node { return []*Node{c.Cond, c.IfTrue, c.IfFalse} }
func (c Conditional) Key() Key          { return WildcardKey }
func (c Conditional) String() string    { return "Conditional" }

// Let declares a name bound to an expression's value in the enclosing
// scope, visible from the declaration point forward.
type Let struct {
	Name  token.Symbol
	Const bool
	Value *Node
}

func (l Let) Children() []*Node { return []*Node{l.Value} }
func (l Let) Key() Key          { return wordKey(l.Name) }
func (l Let) String() string {
	if l.Const {
		return fmt.Sprintf("const %s", l.Name)
	}
	return fmt.Sprintf("let %s", l.Name)
}

// Unary is a prefix or postfix operator application.
type Unary struct {
	Op       token.Symbol
	Operand  *Node
	Postfix  bool
}

func (u Unary) Children() []*Node { return []*Node{u.Operand} }
func (u Unary) Key() Key          { return WildcardKey }
func (u Unary) String() string    { return fmt.Sprintf("Unary(%s)", u.Op) }

// Binary is an infix operator application.
type Binary struct {
	Op          token.Symbol
	Left, Right *Node
}

func (b Binary) Children() []*Node { return []*Node{b.Left, b.Right} }
func (b Binary) Key() Key          { return WildcardKey }
func (b Binary) String() string    { return fmt.Sprintf("Binary(%s)", b.Op) }

// Variable is a resolved reference to a Let binding.
type Variable struct {
	Name   token.Symbol
	Target *Node // the Let node this resolved to, once known
}

func (v Variable) Children() []*Node { return nil }
func (v Variable) Key() Key          { return WildcardKey }
func (v Variable) String() string    { return fmt.Sprintf("Variable(%s)", v.Name) }

// --- equality and hashing -------------------------------------------------

// exprEqual implements structural equality between two values of possibly
// different concrete types; false whenever the dynamic types differ.
func exprEqual(a, b Expr) bool {
	switch av := a.(type) {
	case Word:
		bv, ok := b.(Word)
		return ok && av.Name == bv.Name
	case SymbolTok:
		bv, ok := b.(SymbolTok)
		return ok && av.Name == bv.Name
	case StringLit:
		bv, ok := b.(StringLit)
		return ok && av.Value == bv.Value
	case Integer:
		bv, ok := b.(Integer)
		return ok && av.Value.Cmp(&bv.Value) == 0
	case Variable:
		bv, ok := b.(Variable)
		return ok && av.Name == bv.Name
	case Let:
		bv, ok := b.(Let)
		return ok && av.Name == bv.Name && av.Const == bv.Const
	default:
		// Structural nodes are identity-compared one level up by Node.Equal;
		// two distinct structural values are never considered equal here.
		return false
	}
}

// exprHashKey returns a comparable value usable as a Go map key, derived
// only from the value and never the scope, so hashing stays stable across
// rebinding. It returns nil for structural values (Raw, Group, Block, ...),
// which are never value-equal across distinct nodes and so must hash by
// node identity instead; see [Node.HashKey].
func exprHashKey(e Expr) any {
	switch v := e.(type) {
	case Word:
		return [2]any{"Word", v.Name}
	case SymbolTok:
		return [2]any{"Symbol", v.Name}
	case StringLit:
		return [2]any{"String", v.Value}
	case Integer:
		return [2]any{"Integer", v.Value.String()}
	case Variable:
		return [2]any{"Variable", v.Name}
	case Let:
		return [2]any{"Let", v.Name, v.Const}
	default:
		return nil
	}
}
