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

// Package source defines the external collaborator that maps a name (a
// file path or an in-memory identifier) to source text: a [Provider],
// the [Source] value it produces, and a caching decorator that makes
// repeated loads of the same name — including repeated failures — cheap.
package source

import (
	"fmt"
	"path"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ngc-lang/ngc/lang/token"
)

// Source is one loaded unit of text: its canonical name, its full text,
// and the global base offset a [token.FileSet] assigned it. BaseOffset is
// zero until the source has passed through a [CachingProvider], which is
// the only thing in this package that registers a [token.File].
type Source struct {
	Name       string
	Text       string
	BaseOffset int
}

// Provider loads source text by name. A Provider is free to be stateless
// (reading straight from a filesystem or network) since caching is this
// package's own separate concern, layered on top via [CachingProvider].
type Provider interface {
	Load(name string) (*Source, error)
}

// MapProvider is an in-memory [Provider] backed by a plain name-to-text
// map; the non-filesystem provider this module ships, since walking a
// real filesystem is explicitly out of scope.
type MapProvider map[string]string

// Load returns the text registered under name, or an error if absent.
func (m MapProvider) Load(name string) (*Source, error) {
	text, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("source: no such source %q", name)
	}
	return &Source{Name: name, Text: text}, nil
}

type cacheEntry struct {
	src *Source
	err error
}

// CachingProvider wraps another [Provider], caching both successful loads
// and failures by canonicalized name so that a repeated failing load does
// not re-hit the underlying provider. Every fresh successful load is also
// registered with fset, which assigns the returned [Source] its globally
// unique BaseOffset.
type CachingProvider struct {
	next  Provider
	fset  *token.FileSet
	cache *lru.Cache[string, cacheEntry]
}

// NewCachingProvider builds a CachingProvider over next, bounded to size
// entries (least-recently-used eviction beyond that).
func NewCachingProvider(next Provider, fset *token.FileSet, size int) (*CachingProvider, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("source: building cache: %w", err)
	}
	return &CachingProvider{next: next, fset: fset, cache: cache}, nil
}

// Load returns the cached result for name if one exists, otherwise loads
// it from the wrapped provider, registers it with the file set on
// success, and caches whatever was returned (success or failure) before
// returning it.
func (p *CachingProvider) Load(name string) (*Source, error) {
	key := canonicalize(name)
	if e, ok := p.cache.Get(key); ok {
		return e.src, e.err
	}

	src, err := p.next.Load(key)
	if err == nil && src != nil {
		file := p.fset.AddFile(src.Name, len(src.Text))
		src.BaseOffset = file.Base()
	}
	p.cache.Add(key, cacheEntry{src: src, err: err})
	return src, err
}

// canonicalize normalizes a source name the way a loaded module expects
// to see its own import path: "." and ".." segments collapsed, trailing
// slashes dropped. Names that are not filesystem-shaped (an in-memory
// fixture identifier, say) pass through path.Clean unchanged.
func canonicalize(name string) string {
	return path.Clean(name)
}
