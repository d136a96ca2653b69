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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/ngc-lang/ngc/internal/config"
)

func TestDefaultIsUsableUntouched(t *testing.T) {
	def := config.Default()
	qt.Assert(t, qt.Equals(def.TabWidth > 0, true))
	qt.Assert(t, qt.Equals(def.ArenaPageSize > 0, true))
}

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(cfg, config.Default()))
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ngc.toml")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("tab_width = 2\nmax_generations = 500\n"), 0o644)))

	cfg, err := config.Load(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(cfg.TabWidth, 2))
	qt.Assert(t, qt.Equals(cfg.MaxGenerations, 500))
	qt.Assert(t, qt.Equals(cfg.Parallel, true)) // untouched key keeps its default
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ngc.toml")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("tab_width = 2\n"), 0o644)))

	t.Setenv("NGC_TAB_WIDTH", "8")
	cfg, err := config.Load(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(cfg.TabWidth, 8))
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestLoadRejectsNonPositiveTabWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ngc.toml")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("tab_width = 0\n"), 0o644)))

	_, err := config.Load(path)
	qt.Assert(t, qt.IsNotNil(err))
}
