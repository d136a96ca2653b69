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

package operators

import (
	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/internal/core/resolve"
	"github.com/ngc-lang/ngc/lang/token"
)

type assoc int

const (
	leftAssoc assoc = iota
	rightAssoc
)

type binaryDef struct {
	precedence int
	assoc      assoc
}

// ExprOperator is bound to [graph.LineKey]. It recognizes the `let`/`const`
// and `print` keywords at the head of a line, and otherwise parses the
// line's content as an expression via recursive precedence climbing
// (adapted from parser/expr.rs's operator-stack shunting-yard: the two are
// equivalent for a strictly left/right-associative binary grammar, and the
// recursive form reads closer to the rest of this package).
type ExprOperator struct {
	binary map[token.Symbol]binaryDef
	prefix map[token.Symbol]int // symbol -> precedence
}

// NewExprOperator builds an ExprOperator over a small, representative
// operator table: comparison, logical, and arithmetic binaries, unary
// `-`/`!`, and the `cond ? a : b` ternary.
func NewExprOperator() *ExprOperator {
	return &ExprOperator{
		binary: map[token.Symbol]binaryDef{
			"||": {1, leftAssoc},
			"&&": {2, leftAssoc},
			"==": {3, leftAssoc},
			"!=": {3, leftAssoc},
			"<":  {4, leftAssoc},
			"<=": {4, leftAssoc},
			">":  {4, leftAssoc},
			">=": {4, leftAssoc},
			"+":  {5, leftAssoc},
			"-":  {5, leftAssoc},
			"*":  {6, leftAssoc},
			"/":  {6, leftAssoc},
			"%":  {6, leftAssoc},
		},
		prefix: map[token.Symbol]int{
			"-": 7,
			"!": 7,
		},
	}
}

func (op *ExprOperator) Precedence() int { return 20 }

func (op *ExprOperator) Applies(n *graph.Node) bool {
	_, ok := n.Val().(graph.Line)
	return ok
}

func (op *ExprOperator) Apply(ctx *resolve.Context, n *graph.Node, _ *graph.NodeList) (resolve.Result, error) {
	line, ok := n.Val().(graph.Line)
	if !ok {
		return resolve.DoneResult(), nil
	}
	content, ok := line.Content.Val().(graph.Raw)
	if !ok {
		return resolve.DoneResult(), nil
	}
	items := content.Items
	if len(items) == 0 {
		return retag(n, graph.Literal{Value: nil}), nil
	}

	if w, ok := items[0].Val().(graph.Word); ok {
		switch w.Name {
		case "let", "const":
			return op.parseLet(ctx, n, items, w.Name == "const")
		case "print":
			return op.parsePrint(ctx, n, items)
		}
	}

	sc := n.Scope()
	expr, rest, status := op.parseExpr(ctx, sc, items, 0)
	switch status {
	case atomNotReady:
		return resolve.PassResult(), nil
	case atomMalformed:
		ctx.Errorf(resolve.ErrStructural, n.Span(), "could not parse expression")
		return resolve.DoneResult(), nil
	}
	if rest < len(items) {
		ctx.Errorf(resolve.ErrStructural, items[rest].Span(), "unexpected token after expression")
	}
	return retag(n, expr.Val()), nil
}

func retag(n *graph.Node, value graph.Expr) resolve.Result {
	return resolve.ChangedResult(resolve.Change{Kind: resolve.Retag, NewValue: value, NewSpan: n.Span()})
}

func (op *ExprOperator) parseLet(ctx *resolve.Context, n *graph.Node, items []*graph.Node, isConst bool) (resolve.Result, error) {
	kw := letKeyword(isConst)
	if len(items) < 3 {
		ctx.Errorf(resolve.ErrStructural, n.Span(), "malformed %s declaration", kw)
		return resolve.DoneResult(), nil
	}
	name, ok := items[1].Val().(graph.Word)
	if !ok {
		ctx.Errorf(resolve.ErrStructural, items[1].Span(), "expected a name after %s", kw)
		return resolve.DoneResult(), nil
	}
	eq, ok := items[2].Val().(graph.SymbolTok)
	if !ok || eq.Name != "=" {
		ctx.Errorf(resolve.ErrStructural, items[2].Span(), "expected '=' after %s %s", kw, name.Name)
		return resolve.DoneResult(), nil
	}

	sc := n.Scope()
	value, rest, status := op.parseExpr(ctx, sc, items, 3)
	switch status {
	case atomNotReady:
		return resolve.PassResult(), nil
	case atomMalformed:
		ctx.Errorf(resolve.ErrStructural, n.Span(), "malformed expression in %s %s", kw, name.Name)
		return resolve.DoneResult(), nil
	}
	if rest < len(items) {
		ctx.Errorf(resolve.ErrStructural, items[rest].Span(), "unexpected token after declaration")
	}

	// Declare's Value points at n itself: n's identity is permanent, and the
	// paired Retag below is what makes n's value actually become the Let by
	// the time anything reads it back through the binding.
	return resolve.ChangedResult(
		resolve.Change{Kind: resolve.Declare, Name: string(name.Name), Value: n},
		resolve.Change{Kind: resolve.Retag, NewValue: graph.Let{Name: name.Name, Const: isConst, Value: value}, NewSpan: n.Span()},
	), nil
}

func (op *ExprOperator) parsePrint(ctx *resolve.Context, n *graph.Node, items []*graph.Node) (resolve.Result, error) {
	sc := n.Scope()
	value, rest, status := op.parseExpr(ctx, sc, items, 1)
	switch status {
	case atomNotReady:
		return resolve.PassResult(), nil
	case atomMalformed:
		ctx.Errorf(resolve.ErrStructural, n.Span(), "malformed expression after print")
		return resolve.DoneResult(), nil
	}
	if rest < len(items) {
		ctx.Errorf(resolve.ErrStructural, items[rest].Span(), "unexpected token after print statement")
	}
	return retag(n, graph.Unary{Op: "print", Operand: value}), nil
}

func letKeyword(isConst bool) string {
	if isConst {
		return "const"
	}
	return "let"
}

// atomStatus distinguishes a genuine syntax error from an expression that
// simply can't be finished yet because it names something not bound at
// this offset in the current generation — the latter asks the resolver to
// retry in a later generation (via [resolve.PassResult]) instead of
// reporting a diagnostic, since the binding may still be one generation
// away from existing.
type atomStatus int

const (
	atomOK atomStatus = iota
	atomNotReady
	atomMalformed
)

// parseExpr parses the lowest-precedence grammar rule (the ternary) at
// items[pos], which in turn parses a binary expression, which parses a
// chain of prefix unary operators around an atom.
func (op *ExprOperator) parseExpr(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos int) (*graph.Node, int, atomStatus) {
	left, pos, status := op.parseUnary(ctx, sc, items, pos)
	if status != atomOK {
		return left, pos, status
	}
	left, pos, status = op.parseBinary(ctx, sc, items, pos, left, 0)
	if status != atomOK {
		return left, pos, status
	}
	return op.parseTernary(ctx, sc, items, pos, left)
}

func (op *ExprOperator) parseTernary(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos int, cond *graph.Node) (*graph.Node, int, atomStatus) {
	if pos >= len(items) {
		return cond, pos, atomOK
	}
	sym, ok := items[pos].Val().(graph.SymbolTok)
	if !ok || sym.Name != "?" {
		return cond, pos, atomOK
	}
	pos++
	ifTrue, pos, status := op.parseExpr(ctx, sc, items, pos)
	if status != atomOK {
		return ifTrue, pos, status
	}
	if pos >= len(items) {
		return nil, pos, atomMalformed
	}
	colon, ok := items[pos].Val().(graph.SymbolTok)
	if !ok || colon.Name != ":" {
		return nil, pos, atomMalformed
	}
	pos++
	ifFalse, pos, status := op.parseExpr(ctx, sc, items, pos)
	if status != atomOK {
		return ifFalse, pos, status
	}
	span := safeMerge(cond.Span(), ifFalse.Span())
	return ctx.NewNode(graph.Conditional{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}, sc, span), pos, atomOK
}

// parseBinary is the textbook precedence-climbing loop: fold every binary
// operator at or above minPrec into left, recursing for a higher-binding
// (or, for a right-associative operator, equal-binding) run of operators
// on the right before folding.
func (op *ExprOperator) parseBinary(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos int, left *graph.Node, minPrec int) (*graph.Node, int, atomStatus) {
	for {
		if pos >= len(items) {
			return left, pos, atomOK
		}
		sym, ok := items[pos].Val().(graph.SymbolTok)
		if !ok {
			return left, pos, atomOK
		}
		def, ok := op.binary[sym.Name]
		if !ok || def.precedence < minPrec {
			return left, pos, atomOK
		}
		pos++

		right, rpos, status := op.parseUnary(ctx, sc, items, pos)
		if status != atomOK {
			return right, rpos, status
		}
		pos = rpos

		for pos < len(items) {
			next, ok := items[pos].Val().(graph.SymbolTok)
			if !ok {
				break
			}
			nextDef, ok := op.binary[next.Name]
			if !ok {
				break
			}
			if nextDef.precedence > def.precedence || (nextDef.precedence == def.precedence && nextDef.assoc == rightAssoc) {
				right, pos, status = op.parseBinary(ctx, sc, items, pos, right, nextDef.precedence)
				if status != atomOK {
					return right, pos, status
				}
				continue
			}
			break
		}

		span := safeMerge(left.Span(), right.Span())
		left = ctx.NewNode(graph.Binary{Op: sym.Name, Left: left, Right: right}, sc, span)
	}
}

func (op *ExprOperator) parseUnary(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos int) (*graph.Node, int, atomStatus) {
	if pos < len(items) {
		if sym, ok := items[pos].Val().(graph.SymbolTok); ok {
			if _, ok := op.prefix[sym.Name]; ok {
				opTok := items[pos]
				operand, rpos, status := op.parseUnary(ctx, sc, items, pos+1)
				if status != atomOK {
					return operand, rpos, status
				}
				span := safeMerge(opTok.Span(), operand.Span())
				return ctx.NewNode(graph.Unary{Op: sym.Name, Operand: operand}, sc, span), rpos, atomOK
			}
		}
	}
	return op.parseAtom(ctx, sc, items, pos)
}

func (op *ExprOperator) parseAtom(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos int) (*graph.Node, int, atomStatus) {
	if pos >= len(items) {
		return nil, pos, atomMalformed
	}
	it := items[pos]
	switch v := it.Val().(type) {
	case graph.Word:
		switch v.Name {
		case "true":
			return ctx.NewNode(graph.Literal{Value: true}, sc, it.Span()), pos + 1, atomOK
		case "false":
			return ctx.NewNode(graph.Literal{Value: false}, sc, it.Span()), pos + 1, atomOK
		case "null":
			return ctx.NewNode(graph.Literal{Value: nil}, sc, it.Span()), pos + 1, atomOK
		default:
			target, found := ctx.Lookup(v.Name, it.Offset())
			if !found {
				return nil, pos, atomNotReady
			}
			return ctx.NewNode(graph.Variable{Name: v.Name, Target: target}, sc, it.Span()), pos + 1, atomOK
		}
	case graph.Integer, graph.StringLit, graph.Literal:
		return it, pos + 1, atomOK
	case graph.Group:
		// The body was segmented into a Sequence of Lines when the bracket
		// was matched (see StructureOperator.expand); each Line retags
		// itself in place once ExprOperator reaches it, so Group.Body keeps
		// pointing at the same Sequence node throughout. Wait (atomNotReady)
		// until every line underneath has resolved past Line, then return
		// the Group itself unchanged: it is the resolved value, not
		// something to unwrap.
		body, ok := v.Body.Val().(graph.Sequence)
		if !ok {
			return nil, pos, atomMalformed
		}
		for _, line := range body.Items {
			if _, stillLine := line.Val().(graph.Line); stillLine {
				return nil, pos, atomNotReady
			}
		}
		return it, pos + 1, atomOK
	default:
		return nil, pos, atomMalformed
	}
}
