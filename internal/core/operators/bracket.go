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

// Package operators holds the representative operator family registered
// against a fresh [resolve.Resolver]: bracket-pair expansion and
// line/indent segmentation (both over [graph.RawKey]), and the
// expression/keyword operator (over [graph.LineKey]).
package operators

import (
	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/internal/core/resolve"
	"github.com/ngc-lang/ngc/lang/token"
)

// defaultBrackets is the open-to-close symbol table a [StructureOperator]
// matches. Unlike a BTreeMap-backed registry with a constructor callback
// per pair, every pair here produces a plain [graph.Group]; callers wanting
// a different bracket vocabulary build their own table and construct
// [StructureOperator] directly rather than going through a package-level
// default.
var defaultBrackets = map[token.Symbol]token.Symbol{
	"(": ")",
	"[": "]",
	"{": "}",
}

func closingSet(pairs map[token.Symbol]token.Symbol) map[token.Symbol]bool {
	out := make(map[token.Symbol]bool, len(pairs))
	for _, c := range pairs {
		out[c] = true
	}
	return out
}

// StructureOperator is bound to [graph.RawKey]. It turns one unprocessed
// run of sibling tokens into bracket-expanded, line/indent-segmented
// structure in a single pass: matched bracket pairs (nested ones included,
// matched recursively within the same pass) become [graph.Group] nodes
// whose body is segmented right away into a [graph.Sequence] of lines, each
// line registered for dispatch on its own, and the remaining flat run is
// split on line breaks and indent/dedent pairs into [graph.Line] and
// [graph.Block] nodes.
type StructureOperator struct {
	closeFor map[token.Symbol]token.Symbol
	isClose  map[token.Symbol]bool
}

// NewStructureOperator builds a StructureOperator over the default bracket
// vocabulary: (), [], {}.
func NewStructureOperator() *StructureOperator {
	return newStructureOperator(defaultBrackets)
}

func newStructureOperator(pairs map[token.Symbol]token.Symbol) *StructureOperator {
	return &StructureOperator{closeFor: pairs, isClose: closingSet(pairs)}
}

// Precedence drains structure before any expression or keyword operator
// gets a look at the line it produces.
func (op *StructureOperator) Precedence() int { return 10 }

func (op *StructureOperator) Applies(n *graph.Node) bool {
	_, ok := n.Val().(graph.Raw)
	return ok
}

func (op *StructureOperator) Apply(ctx *resolve.Context, n *graph.Node, _ *graph.NodeList) (resolve.Result, error) {
	raw, ok := n.Val().(graph.Raw)
	if !ok {
		return resolve.DoneResult(), nil
	}
	sc := n.Scope()
	pos := 0
	expanded := op.expand(ctx, sc, raw.Items, &pos, nil, "")
	top := op.segment(ctx, sc, expanded)
	for _, t := range top {
		op.registerNested(ctx, t)
	}
	return resolve.ChangedResult(resolve.Change{Kind: resolve.Replace, Replacement: top}), nil
}

// expand performs the bracket-pair matching pass, grounded on
// bracket.rs's recursive-descent parse_bracket: it consumes items[*pos:]
// until it sees a symbol equal to closeSym (consuming it) or runs out of
// input. opening is the token that opened this nesting level, used to
// blame an unterminated bracket; nil at the top level, where closeSym is
// empty and running out of input is not an error.
func (op *StructureOperator) expand(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node, pos *int, opening *graph.Node, closeSym token.Symbol) []*graph.Node {
	var out []*graph.Node
	for *pos < len(items) {
		it := items[*pos]
		sym, isSym := it.Val().(graph.SymbolTok)
		if isSym && closeSym != "" && sym.Name == closeSym {
			*pos++
			return out
		}
		if isSym {
			if closeTok, isOpen := op.closeFor[sym.Name]; isOpen {
				*pos++
				body := op.expand(ctx, sc, items, pos, it, closeTok)
				bodySpan := spanOf(it.Span(), body)
				// Segment the body synchronously, the same pass that already
				// matched its brackets recursively, instead of scheduling it
				// as a fresh Raw for a later generation: a Raw dispatched
				// through the resolver resolves by Replace, which needs an
				// owning NodeList to write its result back into, and a
				// bracket body is a single *Node field on Group, not a list
				// slot. Wrapping the segmented lines in a Sequence and
				// registering each line individually (as registerNested
				// already does for every other Sequence) lets each line
				// retag itself in place instead, so Group.Body keeps
				// pointing at one stable node throughout.
				bodyLines := op.segment(ctx, sc, body)
				bodyNode := ctx.NewNode(graph.Sequence{Items: bodyLines}, sc, bodySpan)
				op.registerNested(ctx, bodyNode)
				group := graph.Group{Open: sym.Name, Close: closeTok, Body: bodyNode}
				out = append(out, ctx.NewNode(group, sc, bodySpan))
				continue
			}
			if op.isClose[sym.Name] {
				ctx.ErrorfBlame(resolve.ErrStructural, it.Span(), token.Span{}, "unmatched closing bracket %q", sym.Name)
				*pos++
				continue
			}
		}
		out = append(out, it)
		*pos++
	}
	if closeSym != "" {
		openSym := opening.Val().(graph.SymbolTok).Name
		ctx.ErrorfBlame(resolve.ErrStructural, opening.Span(), opening.Span(), "bracket %q is never closed", openSym)
	}
	return out
}

// segment splits a flat, already bracket-clean token run into Line nodes,
// folding a following Indent/Dedent region into a Block whose Head is the
// line that preceded it (an empty Sequence head if there wasn't one).
func (op *StructureOperator) segment(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node) []*graph.Node {
	var out []*graph.Node
	var cur []*graph.Node
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, makeLine(ctx, sc, cur))
		cur = nil
	}

	i := 0
	for i < len(items) {
		switch items[i].Val().(type) {
		case graph.LineBreak:
			// A break immediately followed by an Indent is the line break
			// that always precedes a block's body; absorb it instead of
			// flushing so the header tokens are still in cur when the
			// Indent case below looks for a keyword block header.
			if i+1 < len(items) {
				if _, isIndent := items[i+1].Val().(graph.Indent); isIndent {
					i++
					continue
				}
			}
			flush()
			i++
		case graph.Indent:
			headTokens := cur
			cur = nil
			i++
			start := i
			depth := 1
			for i < len(items) && depth > 0 {
				switch items[i].Val().(type) {
				case graph.Indent:
					depth++
				case graph.Dedent:
					depth--
				}
				if depth > 0 {
					i++
				}
			}
			bodyItems := items[start:i]
			if i < len(items) {
				i++ // consume the matching Dedent
			}
			bodyLines := op.segment(ctx, sc, bodyItems)
			bodySpan := spanOfNodes(bodyLines)

			if kw, ok := op.keywordBlock(ctx, sc, headTokens, bodyLines, bodySpan); ok {
				out = append(out, kw)
				continue
			}

			var head *graph.Node
			if len(headTokens) > 0 {
				head = makeLine(ctx, sc, headTokens)
			} else {
				head = ctx.NewNode(graph.Sequence{}, sc, token.Span{})
			}
			bodyNode := ctx.NewNode(graph.Sequence{Items: bodyLines}, sc, bodySpan)
			blockSpan := safeMerge(head.Span(), bodySpan)
			out = append(out, ctx.NewNode(graph.Block{Head: head, Body: bodyNode}, sc, blockSpan))
		case graph.Dedent:
			// a stray Dedent with no opening Indent in this run: flush whatever
			// line was in progress and drop it.
			flush()
			i++
		default:
			cur = append(cur, items[i])
			i++
		}
	}
	flush()
	return out
}

// keywordBlock recognizes the two structural keywords whose body is an
// indented block rather than a trailing expression: `if <cond>` and
// `for <var> in <from> .. <to>`. headTokens is the (still unparsed) line
// that preceded the indent; the condition/range fragments are wrapped as
// fresh Line nodes so the expression operator parses them on their own.
// ok is false for any other (or malformed) header, in which case the
// caller falls back to a generic Block.
func (op *StructureOperator) keywordBlock(ctx *resolve.Context, sc graph.ScopeHandle, headTokens, bodyLines []*graph.Node, bodySpan token.Span) (*graph.Node, bool) {
	if len(headTokens) == 0 {
		return nil, false
	}
	kw, ok := headTokens[0].Val().(graph.Word)
	if !ok {
		return nil, false
	}
	bodyNode := ctx.NewNode(graph.Sequence{Items: bodyLines}, sc, bodySpan)

	switch kw.Name {
	case "if":
		if len(headTokens) < 2 {
			return nil, false
		}
		cond := makeLine(ctx, sc, headTokens[1:])
		ctx.AddNode(cond)
		span := safeMerge(headTokens[0].Span(), bodySpan)
		return ctx.NewNode(graph.If{Cond: cond, Then: bodyNode}, sc, span), true

	case "for":
		rest := headTokens[1:]
		if len(rest) < 4 {
			return nil, false
		}
		loopVar, ok := rest[0].Val().(graph.Word)
		if !ok {
			return nil, false
		}
		inKw, ok := rest[1].Val().(graph.Word)
		if !ok || inKw.Name != "in" {
			return nil, false
		}
		rangeTokens := rest[2:]
		split := -1
		for i, t := range rangeTokens {
			if s, ok := t.Val().(graph.SymbolTok); ok && s.Name == ".." {
				split = i
				break
			}
		}
		if split < 0 {
			return nil, false
		}
		from := makeLine(ctx, sc, rangeTokens[:split])
		to := makeLine(ctx, sc, rangeTokens[split+1:])
		ctx.AddNode(from)
		ctx.AddNode(to)
		span := safeMerge(headTokens[0].Span(), bodySpan)
		return ctx.NewNode(graph.For{Var: loopVar.Name, From: from, To: to, Body: bodyNode}, sc, span), true

	default:
		return nil, false
	}
}

// registerNested registers every Line buried inside a freshly produced
// Block/Sequence/If/For tree for dispatch; top-level nodes are already
// registered by the resolver's own Replace handling, and keywordBlock
// already registered the Cond/From/To fragments it built directly.
func (op *StructureOperator) registerNested(ctx *resolve.Context, n *graph.Node) {
	switch v := n.Val().(type) {
	case graph.Block:
		ctx.AddNode(v.Head)
		op.registerNested(ctx, v.Head)
		ctx.AddNode(v.Body)
		op.registerNested(ctx, v.Body)
	case graph.Sequence:
		for _, it := range v.Items {
			ctx.AddNode(it)
			op.registerNested(ctx, it)
		}
	case graph.If:
		op.registerNested(ctx, v.Then)
		if v.Else != nil {
			op.registerNested(ctx, v.Else)
		}
	case graph.For:
		op.registerNested(ctx, v.Body)
	}
}

func makeLine(ctx *resolve.Context, sc graph.ScopeHandle, items []*graph.Node) *graph.Node {
	span := spanOfNodes(items)
	content := ctx.NewNode(graph.Raw{Items: items}, sc, span)
	return ctx.NewNode(graph.Line{Content: content}, sc, span)
}

func spanOf(first token.Span, rest []*graph.Node) token.Span {
	out := first
	for _, n := range rest {
		out = safeMerge(out, n.Span())
	}
	return out
}

func spanOfNodes(nodes []*graph.Node) token.Span {
	var out token.Span
	for _, n := range nodes {
		out = safeMerge(out, n.Span())
	}
	return out
}

// safeMerge is [token.Merge] tolerant of either side being the zero Span
// (a synthetic node with no real source position, such as a blockless
// Block's empty head), which token.Merge itself refuses to handle.
func safeMerge(a, b token.Span) token.Span {
	if a == (token.Span{}) {
		return b
	}
	if b == (token.Span{}) {
		return a
	}
	return token.Merge(a, b)
}
