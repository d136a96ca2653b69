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

// Package errors defines the diagnostic types shared across the resolver.
// Every error carries a primary span, a [Kind], a message, and optionally
// a related "blame" span (e.g. the opening bracket for an unmatched
// close).
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/ngc-lang/ngc/lang/token"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// Lexical: unknown symbol, unterminated literal, bad indentation.
	Lexical Kind = iota
	// Structural: unmatched bracket, unexpected dedent, missing expression.
	Structural
	// Binding: duplicate name in non-shadowing scope, partial scope overlap.
	Binding
	// Ambiguity: two operators at the same precedence both claim a node.
	Ambiguity
	// Unresolved: the resolver reached fixpoint with Pass nodes remaining.
	Unresolved
	// Internal: arena/scope invariants violated; never user-triggerable.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Structural:
		return "structural"
	case Binding:
		return "binding"
	case Ambiguity:
		return "operator ambiguity"
	case Unresolved:
		return "unresolved"
	case Internal:
		return "internal"
	default:
		return "error"
	}
}

// Error is the common diagnostic interface.
type Error interface {
	error
	// Position is the primary span of the error.
	Position() token.Span
	// Blame is a secondary, related span (e.g. the opening bracket for an
	// unmatched close); the zero Span means there is none.
	Blame() token.Span
	// Kind classifies the error.
	Kind() Kind
}

type diag struct {
	kind  Kind
	pos   token.Span
	blame token.Span
	msg   string
}

func (e *diag) Error() string       { return e.msg }
func (e *diag) Position() token.Span { return e.pos }
func (e *diag) Blame() token.Span    { return e.blame }
func (e *diag) Kind() Kind           { return e.kind }

// New creates a diagnostic of the given kind at pos.
func New(kind Kind, pos token.Span, format string, args ...interface{}) Error {
	return &diag{kind: kind, pos: pos, msg: fmt.Sprintf(format, args...)}
}

// NewWithBlame is like [New] but also records a related span.
func NewWithBlame(kind Kind, pos, blame token.Span, format string, args ...interface{}) Error {
	return &diag{kind: kind, pos: pos, blame: blame, msg: fmt.Sprintf(format, args...)}
}

// Is reports whether target has the same [Kind] as err, supporting
// errors.Is-style kind checks without exposing the concrete type.
func (e *diag) Is(target error) bool {
	other, ok := target.(Error)
	return ok && other.Kind() == e.kind
}

// List collects diagnostics from an entire resolution run. Fatal-internal
// errors (Kind == Internal) halt the run; everything else is recorded and
// resolution continues.
type List []Error

// Add appends err, flattening any nested List.
func (l *List) Add(err error) {
	if err == nil {
		return
	}
	if nested, ok := err.(List); ok {
		*l = append(*l, nested...)
		return
	}
	if e, ok := err.(Error); ok {
		*l = append(*l, e)
		return
	}
	*l = append(*l, &diag{kind: Internal, msg: err.Error()})
}

// HasFatal reports whether any recorded error is Kind == Internal.
func (l List) HasFatal() bool {
	for _, e := range l {
		if e.Kind() == Internal {
			return true
		}
	}
	return false
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return ""
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

// Sanitize sorts by source position and removes exact duplicates.
func (l List) Sanitize() List {
	if len(l) < 2 {
		return l
	}
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Position(), out[j].Position()
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Offset < b.Offset
	})
	dedup := out[:0]
	for i, e := range out {
		if i > 0 && e.Error() == out[i-1].Error() && e.Position() == out[i-1].Position() {
			continue
		}
		dedup = append(dedup, e)
	}
	return dedup
}

// Is supports errors.Is against a [Kind] wrapped in a sentinel [Error].
func Is(err error, target error) bool { return stderrors.Is(err, target) }
