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

package module_test

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/internal/core/graph"
	"github.com/ngc-lang/ngc/internal/module"
	"github.com/ngc-lang/ngc/lang/token"
)

func word(name string) *graph.Node {
	return graph.New(graph.Word{Name: token.Intern(name)}, graph.RootScope, token.Span{})
}

func TestDefineAndLookup(t *testing.T) {
	m := module.New("main")
	n := word("x")
	m.Define("x", n)

	got, ok := m.Lookup("x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, n))

	_, ok = m.Lookup("y")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestImportAndLookupImported(t *testing.T) {
	lib := module.New("lib")
	helper := word("helper")
	lib.Define("helper", helper)

	main := module.New("main")
	main.Import(lib)

	got, ok := main.LookupImported("lib", "helper")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, helper))
}

func TestLookupImportedUnknownPathReportsNotFound(t *testing.T) {
	main := module.New("main")
	_, ok := main.LookupImported("missing", "x")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestRegistryLoadIsIdempotent(t *testing.T) {
	r := module.NewRegistry()
	calls := 0
	load := func(path string) (*module.Module, error) {
		calls++
		m := module.New(path)
		m.Define("x", word("x"))
		return m, nil
	}

	a, err := r.Load("main", load)
	qt.Assert(t, qt.IsNil(err))
	b, err := r.Load("main", load)
	qt.Assert(t, qt.IsNil(err))

	qt.Assert(t, qt.Equals(a, b))
	qt.Assert(t, qt.Equals(calls, 1))
}

func TestRegistryLoadCanonicalizesPath(t *testing.T) {
	r := module.NewRegistry()
	load := func(path string) (*module.Module, error) { return module.New(path), nil }

	a, err := r.Load("pkg/sub", load)
	qt.Assert(t, qt.IsNil(err))
	b, err := r.Load("pkg/./sub", load)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(a, b))
}

func TestRegistryLoadFailureIsNotCached(t *testing.T) {
	r := module.NewRegistry()
	calls := 0
	load := func(path string) (*module.Module, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("boom")
		}
		return module.New(path), nil
	}

	_, err := r.Load("main", load)
	qt.Assert(t, qt.IsNotNil(err))

	m, err := r.Load("main", load)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(m))
	qt.Assert(t, qt.Equals(calls, 2))
}

// TestRegistryToleratesCircularImport models two modules that import each
// other: a's loader imports b mid-load (before b itself has finished
// loading), relying on the Registry to hand back the same in-progress
// Module rather than recursing forever.
func TestRegistryToleratesCircularImport(t *testing.T) {
	r := module.NewRegistry()

	var loadA, loadB module.Loader
	loadA = func(path string) (*module.Module, error) {
		m := module.New(path)
		b, err := r.Load("b", loadB)
		qt.Assert(t, qt.IsNil(err))
		m.Import(b)
		m.Define("a-symbol", word("a-symbol"))
		return m, nil
	}
	loadB = func(path string) (*module.Module, error) {
		m := module.New(path)
		a, err := r.Load("a", loadA)
		qt.Assert(t, qt.IsNil(err))
		m.Import(a)
		m.Define("b-symbol", word("b-symbol"))
		return m, nil
	}

	a, err := r.Load("a", loadA)
	qt.Assert(t, qt.IsNil(err))

	// By the time the outer Load call returns, both sides of the cycle
	// have finished loading and each other's symbols are visible.
	_, ok := a.LookupImported("b", "b-symbol")
	qt.Assert(t, qt.IsTrue(ok))

	b, ok := r.Get("b")
	qt.Assert(t, qt.IsTrue(ok))
	_, ok = b.LookupImported("a", "a-symbol")
	qt.Assert(t, qt.IsTrue(ok))
}
