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

// Package resolve drives the node graph to a fixed point by repeatedly
// taking the lowest-precedence group of (operator, bound nodes) off the
// scope map, applying the operator, and committing whatever edits it
// requests. Every edit an operator makes is expressed as a [Change] value —
// there is no other way to mutate the tree — which is what lets the
// resolver detect two operators fighting over the same node before either
// edit lands.
package resolve

import (
	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/lang/token"
)

// Change is one tree-edit primitive an [Operator] can request. Exactly one
// of the typed fields is meaningful per Kind.
type Change struct {
	Kind ChangeKind

	// Declare/Export/Import: the name being bound and, for Declare and
	// Export, the node it resolves to (Import uses Name only).
	Name  string
	Value *graph.Node

	// RemoveSelf: no extra data, acts on the node the operator was invoked
	// for.

	// Replace: the node(s) to substitute in place of the current node(s).
	Replacement []*graph.Node

	// Append: node(s) to insert immediately after the current position.
	Appended []*graph.Node

	// Retag: the node's new value and span.
	NewValue graph.Expr
	NewSpan  token.Span
}

// ChangeKind discriminates [Change] values.
type ChangeKind int

const (
	// Declare introduces Name bound to Value in the current scope, visible
	// from the declaration point forward (as with `let`/`const`).
	Declare ChangeKind = iota
	// Export is committed exactly like Declare; no separate visibility to
	// importing modules is recorded.
	Export
	// Import re-binds Name, from the node's offset forward, to the node Name
	// already resolves to at that offset, and does nothing if Name is unbound
	// there. It neither loads nor consults any other module.
	Import
	// RemoveSelf deletes the node the operator was invoked for from its
	// containing list, with no replacement.
	RemoveSelf
	// Replace substitutes the node the operator was invoked for with
	// Replacement, which may be any length including zero.
	Replace
	// Append inserts Appended immediately after the current node, without
	// removing it.
	Append
	// Retag overwrites the node's value and span in place (via [graph.Node.Set])
	// and retires it from dispatch, for an operator that fully resolves a
	// node's content without changing its position in any list.
	Retag
)

func (k ChangeKind) String() string {
	switch k {
	case Declare:
		return "Declare"
	case Export:
		return "Export"
	case Import:
		return "Import"
	case RemoveSelf:
		return "RemoveSelf"
	case Replace:
		return "Replace"
	case Append:
		return "Append"
	case Retag:
		return "Retag"
	default:
		return "Change(?)"
	}
}
