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

// Package scanner turns raw source bytes into a stream of primitive
// tokens: words, symbols, integers, strings, line breaks, and
// indent/dedent markers. It is parameterized by a symbol trie (for the
// punctuation/operator alphabet) and a registry of pluggable matchers
// (identifier, integer, string, comment, line break), mirroring
// cue/scanner's rune-reader shape but generalized so the symbol and
// matcher vocabularies are data rather than a hardcoded switch.
package scanner

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ngc-lang/ngc/lang/errors"
	"github.com/ngc-lang/ngc/lang/token"
)

// defaultTabWidth is the indent width, in columns, a single tab expands
// to when no explicit [WithTabWidth] option is given.
const defaultTabWidth = 4

const bom = 0xFEFF

// Handler receives one diagnostic as it is discovered. A nil Handler
// discards diagnostics; the scanner still counts them internally via
// ErrorCount.
type Handler func(errors.Error)

// Token is one primitive lexical unit: its [token.Kind], literal text
// (meaning depends on Kind: the identifier spelling for WORD, the symbol
// spelling for SYMBOL, the decoded value for STRING, and so on), and the
// span it occupies in the source.
type Token struct {
	Kind    token.Kind
	Literal string
	Span    token.Span
}

// Matcher recognizes one token shape at the scanner's current position.
// Match must leave the scanner untouched when it reports ok=false, so
// matchers can be tried in sequence without backtracking state.
type Matcher interface {
	Match(s *Scanner) (tok Token, ok bool)
}

// commentKind is an internal sentinel Kind (outside [token.Kind]'s public
// range) a comment [Matcher] uses to say "consumed, produces no token";
// Scan loops back to try again rather than surfacing it.
const commentKind token.Kind = -1

// Scanner holds the mutable state of one tokenization pass. It must be
// created via [New]; the zero value is not usable.
type Scanner struct {
	file *token.File
	src  []byte
	err  Handler

	tabWidth int
	matchers []Matcher
	trie     *symbolTrie

	ch       rune
	offset   int
	rdOffset int

	atLineStart bool
	indents     []int // active indent-width stack; indents[0] == 0
	pendingDed  int    // dedents still owed before resuming normal scanning
	done        bool

	// ErrorCount is the number of diagnostics reported through err (or
	// dropped, if err is nil) so far.
	ErrorCount int
}

// Option configures a [Scanner] at construction time.
type Option func(*Scanner)

// WithTabWidth overrides the column width a tab expands to when measuring
// leading indentation.
func WithTabWidth(n int) Option {
	return func(s *Scanner) { s.tabWidth = n }
}

// WithSymbols replaces the default punctuation/operator vocabulary with
// sym, a flat list of symbol spellings (e.g. "==", "(", ".."). Longer
// symbols take precedence over any of their own prefixes.
func WithSymbols(sym []string) Option {
	return func(s *Scanner) {
		s.trie = newSymbolTrie()
		for _, sy := range sym {
			s.trie.insert(sy)
		}
	}
}

// WithMatchers replaces the default matcher registry (identifier,
// integer, string, comment, line break) with m, tried in order before the
// symbol trie.
func WithMatchers(m []Matcher) Option {
	return func(s *Scanner) { s.matchers = m }
}

// defaultSymbols is the punctuation/operator vocabulary exercised by
// internal/core/operators: bracket pairs, the representative expression
// operators' binary/prefix symbols, and the structural keyword
// separators (`:`, `?`, `..`, `,`).
var defaultSymbols = []string{
	"(", ")", "[", "]", "{", "}",
	"==", "!=", "<=", ">=", "<", ">",
	"=", "+", "-", "*", "/", "%",
	"&&", "||", "!",
	":", "?", "..", ",",
}

func defaultMatchers() []Matcher {
	return []Matcher{
		identifierMatcher{},
		integerMatcher{},
		stringMatcher{},
		commentMatcher{},
		lineBreakMatcher{},
	}
}

// New prepares a Scanner to tokenize src, whose size must match file's
// registered size (New panics otherwise, mirroring cue/scanner.Init).
func New(file *token.File, src []byte, err Handler, opts ...Option) *Scanner {
	if file.Size() != len(src) {
		panic("scanner: file size does not match src length")
	}
	s := &Scanner{
		file:     file,
		src:      src,
		err:      err,
		tabWidth: defaultTabWidth,
		matchers: defaultMatchers(),
		trie:     newSymbolTrie(),
		indents:  []int{0},
	}
	for _, sy := range defaultSymbols {
		s.trie.insert(sy)
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ch = ' '
	s.offset = 0
	s.rdOffset = 0
	s.atLineStart = true
	s.next()
	if s.ch == bom {
		s.next()
	}
	return s
}

// next reads the next rune into s.ch, recording a new line start with the
// file whenever the rune just consumed was a newline. s.ch == -1 at EOF.
func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		r, w := rune(s.src[s.rdOffset]), 1
		if r >= utf8.RuneSelf {
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
			if r == utf8.RuneError && w == 1 {
				s.error(s.offset, 1, errors.Lexical, "illegal UTF-8 encoding")
			} else if r == bom && s.offset > 0 {
				s.error(s.offset, 1, errors.Lexical, "illegal byte order mark")
			}
		}
		s.rdOffset += w
		s.ch = r
	} else {
		s.offset = len(s.src)
		if s.ch == '\n' {
			s.file.AddLine(s.offset)
		}
		s.ch = -1
	}
}

func (s *Scanner) error(offs, length int, kind errors.Kind, format string, args ...any) {
	s.ErrorCount++
	if s.err == nil {
		return
	}
	s.err(errors.New(kind, s.spanAt(offs, length), format, args...))
}

func (s *Scanner) spanAt(offset, length int) token.Span {
	pos := s.file.Position(s.file.Pos(offset))
	return token.Span{
		Source: s.file.Name(),
		Offset: offset,
		Length: length,
		Line:   pos.Line,
		Column: pos.Column,
		Indent: pos.Indent,
	}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' ||
		ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9' || ch >= utf8.RuneSelf && unicode.IsDigit(ch)
}

// isIdentCont additionally admits combining marks, so a decomposed
// identifier (base letter followed by a combining diacritic) scans as one
// WORD and normalizes to the same interned symbol NFC would produce from
// its precomposed spelling.
func isIdentCont(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || unicode.IsMark(ch)
}

// measureIndent runs at the start of a line: it consumes leading spaces
// and tabs, returning the resulting column width. A blank line (one that
// ends in a line break or EOF before any other content) reports width -1
// so the caller leaves the indent stack untouched.
func (s *Scanner) measureIndent() int {
	width := 0
	for {
		switch s.ch {
		case ' ':
			width++
		case '\t':
			width += s.tabWidth
		case '\r':
			// ignored entirely; does not contribute to width.
		case '\n', -1:
			return -1
		default:
			return width
		}
		s.next()
	}
}

// scanIndent consumes leading whitespace on a fresh line and, if the
// resulting width differs from the top of the indent stack, returns the
// Indent/Dedent token to emit; ok is false for a blank line or a line
// whose width matches the current indent (normal token scanning resumes
// immediately).
func (s *Scanner) scanIndent() (Token, bool) {
	offset := s.offset
	width := s.measureIndent()
	s.atLineStart = false
	if width < 0 {
		return Token{}, false
	}
	top := s.indents[len(s.indents)-1]
	switch {
	case width > top:
		s.indents = append(s.indents, width)
		return Token{Kind: token.INDENT, Span: s.spanAt(offset, s.offset-offset)}, true
	case width < top:
		popped := 0
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			popped++
		}
		if s.indents[len(s.indents)-1] != width {
			s.error(offset, s.offset-offset, errors.Lexical, "unindent does not match any outer indentation level")
			s.indents = append(s.indents, width)
		}
		s.pendingDed = popped - 1
		return Token{Kind: token.DEDENT, Span: s.spanAt(offset, s.offset-offset)}, true
	default:
		return Token{}, false
	}
}

// Scan returns the next token. The final token returned has Kind ==
// token.EOF; ok is false only once Scan has already returned that token
// (calling Scan again after EOF is a no-op, not a panic).
func (s *Scanner) Scan() (Token, bool) {
	if s.done {
		return Token{}, false
	}

scanAgain:
	if s.pendingDed > 0 {
		offset := s.offset
		s.pendingDed--
		return Token{Kind: token.DEDENT, Span: s.spanAt(offset, 0)}, true
	}
	if s.atLineStart {
		if tok, ok := s.scanIndent(); ok {
			return tok, true
		}
	}
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\r' {
		s.next()
	}

	if s.ch < 0 {
		if len(s.indents) > 1 {
			offset := s.offset
			s.indents = s.indents[:len(s.indents)-1]
			return Token{Kind: token.DEDENT, Span: s.spanAt(offset, 0)}, true
		}
		s.done = true
		return Token{Kind: token.EOF, Span: s.spanAt(s.offset, 0)}, true
	}

	for _, m := range s.matchers {
		tok, ok := m.Match(s)
		if !ok {
			continue
		}
		if tok.Kind == commentKind {
			goto scanAgain
		}
		return tok, true
	}

	if sym, n := s.trie.match(s.src, s.offset); n > 0 {
		offset := s.offset
		for range sym {
			s.next()
		}
		return Token{Kind: token.SYMBOL, Literal: token.Intern(sym), Span: s.spanAt(offset, len(sym))}, true
	}

	offset, ch := s.offset, s.ch
	s.error(offset, 1, errors.Lexical, "illegal character %q", ch)
	s.next()
	goto scanAgain
}

// Tokenize runs s to completion and returns every token, including the
// final EOF.
func (s *Scanner) Tokenize() []Token {
	var out []Token
	for {
		tok, ok := s.Scan()
		if !ok {
			return out
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// -----------------------------------------------------------------------
// default matchers

type identifierMatcher struct{}

func (identifierMatcher) Match(s *Scanner) (Token, bool) {
	if !isLetter(s.ch) {
		return Token{}, false
	}
	offset := s.offset
	for isIdentCont(s.ch) {
		s.next()
	}
	lit := norm.NFC.String(string(s.src[offset:s.offset]))
	return Token{Kind: token.WORD, Literal: token.Intern(lit), Span: s.spanAt(offset, s.offset-offset)}, true
}

type integerMatcher struct{}

func (integerMatcher) Match(s *Scanner) (Token, bool) {
	if !('0' <= s.ch && s.ch <= '9') {
		return Token{}, false
	}
	offset := s.offset
	var digits []byte
	for isDigit(s.ch) || s.ch == '_' {
		if s.ch != '_' {
			digits = append(digits, byte(s.ch))
		}
		s.next()
	}
	return Token{Kind: token.INTEGER, Literal: string(digits), Span: s.spanAt(offset, s.offset-offset)}, true
}

type stringMatcher struct{}

func (stringMatcher) Match(s *Scanner) (Token, bool) {
	if s.ch != '"' {
		return Token{}, false
	}
	offset := s.offset
	s.next() // consume opening quote
	var out []rune
	for {
		switch {
		case s.ch < 0 || s.ch == '\n':
			s.error(offset, s.offset-offset, errors.Lexical, "string literal not terminated")
			return Token{Kind: token.STRING, Literal: string(out), Span: s.spanAt(offset, s.offset-offset)}, true
		case s.ch == '"':
			s.next()
			return Token{Kind: token.STRING, Literal: string(out), Span: s.spanAt(offset, s.offset-offset)}, true
		case s.ch == '\\':
			s.next()
			out = append(out, decodeEscape(s))
		default:
			out = append(out, s.ch)
			s.next()
		}
	}
}

func decodeEscape(s *Scanner) rune {
	ch := s.ch
	switch ch {
	case 'n':
		s.next()
		return '\n'
	case 't':
		s.next()
		return '\t'
	case 'r':
		s.next()
		return '\r'
	case '\\', '"':
		s.next()
		return ch
	default:
		if ch >= 0 {
			s.error(s.offset, 1, errors.Lexical, "unknown escape sequence %q", ch)
			s.next()
		}
		return ch
	}
}

type commentMatcher struct{}

func (commentMatcher) Match(s *Scanner) (Token, bool) {
	if s.ch != '/' {
		return Token{}, false
	}
	if s.rdOffset >= len(s.src) || s.src[s.rdOffset] != '/' {
		return Token{}, false
	}
	s.next() // consume first '/'
	s.next() // consume second '/'
	for s.ch != '\n' && s.ch >= 0 {
		s.next()
	}
	return Token{Kind: commentKind}, true
}

type lineBreakMatcher struct{}

func (lineBreakMatcher) Match(s *Scanner) (Token, bool) {
	if s.ch != '\n' {
		return Token{}, false
	}
	offset := s.offset
	s.next()
	s.atLineStart = true
	return Token{Kind: token.BREAK, Span: s.spanAt(offset, 1)}, true
}

// -----------------------------------------------------------------------
// symbol trie

// symbolTrie is a trie over UTF-8 code points with a per-state terminal
// flag, used to greedily match the longest known symbol spelling at a
// given offset (so "==" is preferred over "=" followed by "=").
type symbolTrie struct {
	children map[rune]*symbolTrie
	terminal bool
}

func newSymbolTrie() *symbolTrie {
	return &symbolTrie{children: make(map[rune]*symbolTrie)}
}

func (t *symbolTrie) insert(sym string) {
	n := t
	for _, r := range sym {
		c, ok := n.children[r]
		if !ok {
			c = newSymbolTrie()
			n.children[r] = c
		}
		n = c
	}
	n.terminal = true
}

// match reports the longest symbol in the trie that prefixes src[offset:],
// and its byte length. length is 0 if no symbol in the trie matches.
func (t *symbolTrie) match(src []byte, offset int) (string, int) {
	n := t
	pos := offset
	bestLen := 0
	for pos < len(src) {
		r, w := utf8.DecodeRune(src[pos:])
		c, ok := n.children[r]
		if !ok {
			break
		}
		n = c
		pos += w
		if n.terminal {
			bestLen = pos - offset
		}
	}
	if bestLen == 0 {
		return "", 0
	}
	return string(src[offset : offset+bestLen]), bestLen
}
