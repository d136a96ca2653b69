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

// Package config loads the knobs that parameterize a resolver run — scanner
// tab width, arena page size, the resolver's generation backstop and fan-out
// mode, and whether tracing is on — from the environment and an optional
// config file, with defaults that make every knob usable untouched.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/ngc-lang/ngc/internal/core/arena"
)

// envPrefix namespaces every environment variable this package reads, so
// NGC_TAB_WIDTH sets tab_width, NGC_MAX_GENERATIONS sets max_generations,
// and so on.
const envPrefix = "NGC"

// ResolverConfig collects the knobs a resolver run needs end to end: the
// scanner's indentation width, the arena's page size, the resolver loop's
// termination backstop and fan-out mode, and whether per-generation
// tracing is enabled.
type ResolverConfig struct {
	TabWidth       int
	ArenaPageSize  int
	MaxGenerations int
	Parallel       bool
	Trace          bool
}

// Default returns the knob set a resolver run uses when no environment
// variable or config file overrides it.
func Default() ResolverConfig {
	return ResolverConfig{
		TabWidth:       4,
		ArenaPageSize:  arena.DefaultPageSize,
		MaxGenerations: 10000,
		Parallel:       true,
		Trace:          false,
	}
}

// Load builds a ResolverConfig from defaults, overlaid with an optional
// config file at path (TOML, YAML, and JSON are all recognized by
// extension; pass "" to skip), overlaid with any NGC_-prefixed environment
// variable.
func Load(path string) (ResolverConfig, error) {
	def := Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("tab_width", def.TabWidth)
	v.SetDefault("arena_page_size", def.ArenaPageSize)
	v.SetDefault("max_generations", def.MaxGenerations)
	v.SetDefault("parallel", def.Parallel)
	v.SetDefault("trace", def.Trace)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ResolverConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := ResolverConfig{
		TabWidth:       v.GetInt("tab_width"),
		ArenaPageSize:  v.GetInt("arena_page_size"),
		MaxGenerations: v.GetInt("max_generations"),
		Parallel:       v.GetBool("parallel"),
		Trace:          v.GetBool("trace"),
	}
	if cfg.TabWidth <= 0 {
		return ResolverConfig{}, fmt.Errorf("config: tab_width must be positive, got %d", cfg.TabWidth)
	}
	if cfg.ArenaPageSize <= 0 {
		return ResolverConfig{}, fmt.Errorf("config: arena_page_size must be positive, got %d", cfg.ArenaPageSize)
	}
	return cfg, nil
}
