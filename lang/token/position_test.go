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

package token_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/lang/token"
)

func TestFileSetDisjointBases(t *testing.T) {
	fset := token.NewFileSet()
	a := fset.AddFile("a.ngc", 10)
	b := fset.AddFile("b.ngc", 20)

	qt.Assert(t, qt.Equals(a.Base() < b.Base(), true))
	qt.Assert(t, qt.Equals(b.Base() > a.Base()+a.Size(), true))
}

func TestPositionRoundTrip(t *testing.T) {
	fset := token.NewFileSet()
	content := "let x = 1\nlet y = 2\n"
	f := fset.AddFile("m.ngc", len(content))
	for i, c := range content {
		if c == '\n' {
			f.AddLine(i + 1)
		}
	}

	p := f.Pos(10) // 'l' of second "let"
	pos := fset.Position(p)
	qt.Assert(t, qt.Equals(pos.Line, 2))
	qt.Assert(t, qt.Equals(pos.Column, 1))
}

func TestSpanMerge(t *testing.T) {
	a := token.Span{Source: "m.ngc", Offset: 0, Length: 3}
	b := token.Span{Source: "m.ngc", Offset: 5, Length: 2}
	m := token.Merge(a, b)
	qt.Assert(t, qt.Equals(m.Offset, 0))
	qt.Assert(t, qt.Equals(m.End(), 7))
}

func TestInternSharesStorage(t *testing.T) {
	a := token.Intern("let")
	b := token.Intern("let")
	qt.Assert(t, qt.Equals(a, b))
}
