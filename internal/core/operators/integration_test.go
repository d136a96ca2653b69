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

package operators_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"

	"github.com/ngc-lang/ngc/internal/config"
	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/internal/core/operators"
	"github.com/ngc-lang/ngc/internal/core/resolve"
	"github.com/ngc-lang/ngc/internal/tracelog"
	"github.com/ngc-lang/ngc/lang/scanner"
	"github.com/ngc-lang/ngc/lang/source"
	"github.com/ngc-lang/ngc/lang/token"
)

// toNodes converts a scanned token stream into the raw node list a
// resolver run starts from, the same shape the rest of this package's
// tests build by hand via word/sym/integer/indent/dedent. EOF carries no
// useful node of its own and is dropped.
func toNodes(toks []scanner.Token) []*graph.Node {
	var out []*graph.Node
	for _, tok := range toks {
		span := tok.Span
		switch tok.Kind {
		case token.WORD:
			out = append(out, graph.New(graph.Word{Name: token.Intern(tok.Literal)}, graph.RootScope, span))
		case token.SYMBOL:
			out = append(out, graph.New(graph.SymbolTok{Name: token.Intern(tok.Literal)}, graph.RootScope, span))
		case token.INTEGER:
			d, _, _ := apd.NewFromString(tok.Literal)
			out = append(out, graph.New(graph.Integer{Value: *d}, graph.RootScope, span))
		case token.STRING:
			out = append(out, graph.New(graph.StringLit{Value: tok.Literal}, graph.RootScope, span))
		case token.BREAK:
			out = append(out, graph.New(graph.LineBreak{}, graph.RootScope, span))
		case token.INDENT:
			out = append(out, graph.New(graph.Indent{Width: span.Length}, graph.RootScope, span))
		case token.DEDENT:
			out = append(out, graph.New(graph.Dedent{Width: span.Length}, graph.RootScope, span))
		}
	}
	return out
}

// describe renders a resolved node as a nested, comparable shape: its
// Expr's String() label followed by a describe of each non-nil child, in
// declaration order. It is generic over every Expr variant since it walks
// Children() rather than switching on concrete type.
func describe(n *graph.Node) any {
	if n == nil {
		return nil
	}
	val := n.Val()
	kids := val.Children()
	if len(kids) == 0 {
		return val.String()
	}
	shape := []any{val.String()}
	for _, k := range kids {
		if k == nil {
			continue
		}
		shape = append(shape, describe(k))
	}
	return shape
}

// TestEndToEndIfBlockWithTracingAndConfig scans real source text through
// lang/scanner (fed by lang/source), resolves it with both builtin
// operators registered and a tracer and resolver config wired in exactly
// the way a real caller assembles them, then diffs the resolved tree's
// shape against what parsing "if true\n  let y = 1\n" should produce.
func TestEndToEndIfBlockWithTracingAndConfig(t *testing.T) {
	provider := source.MapProvider{"main.ngc": "if true\n  let y = 1\n"}
	sourceFset := token.NewFileSet()
	caching, err := source.NewCachingProvider(provider, sourceFset, 8)
	if err != nil {
		t.Fatalf("building caching provider: %v", err)
	}
	src, err := caching.Load("main.ngc")
	if err != nil {
		t.Fatalf("loading source: %v", err)
	}

	cfg := config.Default()
	scanFset := token.NewFileSet()
	file := scanFset.AddFile(src.Name, len(src.Text))
	sc := scanner.New(file, []byte(src.Text), nil, scanner.WithTabWidth(cfg.TabWidth))
	toks := sc.Tokenize()

	var traceOut bytes.Buffer
	tracer := tracelog.New(true, tracelog.WithOutput(&traceOut))

	r := resolve.NewResolver(resolve.Config{
		Parallel:       cfg.Parallel,
		MaxGenerations: cfg.MaxGenerations,
		Trace:          tracer.Func(),
	})
	r.Register(graph.RawKey, operators.NewStructureOperator())
	r.Register(graph.LineKey, operators.NewExprOperator())

	raw := graph.New(graph.Raw{Items: toNodes(toks)}, graph.RootScope, token.Span{Source: "main.ngc"})
	list := graph.NewList(graph.RootScope, []*graph.Node{raw})
	r.Schedule(list)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("resolve run: %v", err)
	}
	if diags := r.Diagnostics(); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if traceOut.Len() == 0 {
		t.Fatal("expected tracer to log at least one generation")
	}

	if list.Len() != 1 {
		t.Fatalf("expected one top-level node, got %d", list.Len())
	}

	got := describe(list.At(0))
	want := []any{
		"If",
		"true",
		[]any{"Sequence(1)", []any{"let y", "1"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved shape mismatch (-want +got):\n%s", diff)
	}
}
