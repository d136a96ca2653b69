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

package scanner_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/lang/errors"
	"github.com/ngc-lang/ngc/lang/scanner"
	"github.com/ngc-lang/ngc/lang/token"
)

func tokenize(t *testing.T, src string, opts ...scanner.Option) ([]scanner.Token, []errors.Error) {
	t.Helper()
	fset := token.NewFileSet()
	f := fset.AddFile("t.ngc", len(src))
	var diags []errors.Error
	s := scanner.New(f, []byte(src), func(e errors.Error) { diags = append(diags, e) }, opts...)
	return s.Tokenize(), diags
}

func kinds(toks []scanner.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanWordsAndSymbols(t *testing.T) {
	toks, diags := tokenize(t, "let x = 1")
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{
		token.WORD, token.WORD, token.SYMBOL, token.INTEGER, token.EOF,
	}))
	qt.Assert(t, qt.Equals(toks[0].Literal, "let"))
	qt.Assert(t, qt.Equals(toks[1].Literal, "x"))
	qt.Assert(t, qt.Equals(toks[2].Literal, "="))
	qt.Assert(t, qt.Equals(toks[3].Literal, "1"))
}

func TestScanPrefersLongestSymbol(t *testing.T) {
	toks, diags := tokenize(t, "a == b")
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{
		token.WORD, token.SYMBOL, token.WORD, token.EOF,
	}))
	qt.Assert(t, qt.Equals(toks[1].Literal, "=="))
}

func TestScanDotDotIsRangeNotTwoDots(t *testing.T) {
	toks, diags := tokenize(t, "1..3")
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{
		token.INTEGER, token.SYMBOL, token.INTEGER, token.EOF,
	}))
	qt.Assert(t, qt.Equals(toks[1].Literal, ".."))
}

func TestScanIndentAndDedent(t *testing.T) {
	src := "if x\n  print x\n  print x\nprint y\n"
	toks, diags := tokenize(t, src)
	qt.Assert(t, qt.HasLen(diags, 0))

	var got []token.Kind
	for _, tok := range toks {
		got = append(got, tok.Kind)
	}
	// if x <BREAK> <INDENT> print x <BREAK> print x <BREAK> <DEDENT> print y <BREAK> EOF
	want := []token.Kind{
		token.WORD, token.WORD, token.BREAK,
		token.INDENT,
		token.WORD, token.WORD, token.BREAK,
		token.WORD, token.WORD, token.BREAK,
		token.DEDENT,
		token.WORD, token.WORD, token.BREAK,
		token.EOF,
	}
	qt.Assert(t, qt.DeepEquals(got, want))
}

func TestScanMultipleDedentsAtOnce(t *testing.T) {
	src := "if a\n  if b\n    print x\nprint y\n"
	toks, diags := tokenize(t, src)
	qt.Assert(t, qt.HasLen(diags, 0))

	dedents := 0
	for _, tok := range toks {
		if tok.Kind == token.DEDENT {
			dedents++
		}
	}
	qt.Assert(t, qt.Equals(dedents, 2))
}

func TestScanBlankLinesDoNotAffectIndent(t *testing.T) {
	src := "if x\n  print x\n\n  print x\nprint y\n"
	toks, diags := tokenize(t, src)
	qt.Assert(t, qt.HasLen(diags, 0))

	indents, dedents := 0, 0
	for _, tok := range toks {
		switch tok.Kind {
		case token.INDENT:
			indents++
		case token.DEDENT:
			dedents++
		}
	}
	qt.Assert(t, qt.Equals(indents, 1))
	qt.Assert(t, qt.Equals(dedents, 1))
}

func TestScanTabWidthOption(t *testing.T) {
	src := "if x\n\tprint x\nprint y\n"
	toks, diags := tokenize(t, src, scanner.WithTabWidth(2))
	qt.Assert(t, qt.HasLen(diags, 0))

	var indentSpans []int
	for _, tok := range toks {
		if tok.Kind == token.INDENT {
			indentSpans = append(indentSpans, tok.Span.Length)
		}
	}
	qt.Assert(t, qt.HasLen(indentSpans, 1))
}

func TestScanStringEscapes(t *testing.T) {
	toks, diags := tokenize(t, `"a\nb"`)
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{token.STRING, token.EOF}))
	qt.Assert(t, qt.Equals(toks[0].Literal, "a\nb"))
}

func TestScanStringUnterminatedReportsDiagnostic(t *testing.T) {
	_, diags := tokenize(t, `"abc`)
	qt.Assert(t, qt.HasLen(diags, 1))
	qt.Assert(t, qt.Equals(diags[0].Kind(), errors.Lexical))
}

func TestScanSkipsLineComments(t *testing.T) {
	toks, diags := tokenize(t, "let x = 1 // trailing comment\nlet y = 2\n")
	qt.Assert(t, qt.HasLen(diags, 0))
	for _, tok := range toks {
		qt.Assert(t, qt.Not(qt.Equals(tok.Literal, "trailing")))
	}
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{
		token.WORD, token.WORD, token.SYMBOL, token.INTEGER, token.BREAK,
		token.WORD, token.WORD, token.SYMBOL, token.INTEGER, token.BREAK,
		token.EOF,
	}))
}

func TestScanReportsIllegalCharacter(t *testing.T) {
	toks, diags := tokenize(t, "a $ b")
	qt.Assert(t, qt.HasLen(diags, 1))
	qt.Assert(t, qt.Equals(diags[0].Kind(), errors.Lexical))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{token.WORD, token.WORD, token.EOF}))
}

func TestScanNormalizesIdentifierToNFC(t *testing.T) {
	precomposed := "caf\u00e9"  // single codepoint e-acute
	decomposed := "cafe\u0301" // 'e' plus combining acute accent
	toksA, diagsA := tokenize(t, precomposed)
	toksB, diagsB := tokenize(t, decomposed)
	qt.Assert(t, qt.HasLen(diagsA, 0))
	qt.Assert(t, qt.HasLen(diagsB, 0))
	qt.Assert(t, qt.Equals(toksA[0].Literal, toksB[0].Literal))
}

func TestScanCustomSymbolVocabulary(t *testing.T) {
	toks, diags := tokenize(t, "a -> b", scanner.WithSymbols([]string{"->"}))
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{
		token.WORD, token.SYMBOL, token.WORD, token.EOF,
	}))
	qt.Assert(t, qt.Equals(toks[1].Literal, "->"))
}

func TestScanEmptySourceProducesOnlyEOF(t *testing.T) {
	toks, diags := tokenize(t, "")
	qt.Assert(t, qt.HasLen(diags, 0))
	qt.Assert(t, qt.DeepEquals(kinds(toks), []token.Kind{token.EOF}))
}
