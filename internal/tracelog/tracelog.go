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

// Package tracelog adapts structured, per-generation logging onto a
// resolver run. It is disabled by default: building a [Tracer] with
// tracing off costs a disabled logger and nothing else, and its
// [Tracer.Func] is what a resolver's Config.Trace field expects.
package tracelog

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Tracer emits one structured log entry per resolver generation.
type Tracer struct {
	log     *logrus.Logger
	enabled bool
	last    time.Time
}

// Option configures a Tracer at construction.
type Option func(*Tracer)

// WithOutput redirects a Tracer's log entries to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(t *Tracer) { t.log.SetOutput(w) }
}

// WithLevel sets the minimum level a Tracer logs at; it defaults to
// logrus.DebugLevel since generation traces are a diagnostic tool, not
// routine operational output.
func WithLevel(level logrus.Level) Option {
	return func(t *Tracer) { t.log.SetLevel(level) }
}

// New builds a Tracer. When enabled is false, Func still returns a valid
// callback but every entry it would log is discarded before formatting.
func New(enabled bool, opts ...Option) *Tracer {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	t := &Tracer{log: log, enabled: enabled}
	for _, opt := range opts {
		opt(t)
	}
	if !enabled {
		t.log.SetOutput(io.Discard)
	}
	return t
}

// Func returns the per-generation callback a resolver's Config.Trace field
// expects: generation number, the precedence level drained this round, and
// how many nodes were in that generation. Each entry also carries the wall
// time elapsed since the previous call, so a trace log doubles as a crude
// per-generation timing profile; the first call in a run has no prior call
// to measure against and logs a zero elapsed.
func (t *Tracer) Func() func(generationNum, precedence, nodeCount int) {
	return func(generationNum, precedence, nodeCount int) {
		if !t.enabled {
			return
		}
		now := time.Now()
		var elapsed time.Duration
		if !t.last.IsZero() {
			elapsed = now.Sub(t.last)
		}
		t.last = now
		t.log.WithFields(logrus.Fields{
			"generation": generationNum,
			"precedence": precedence,
			"nodes":      nodeCount,
			"elapsed":    elapsed,
		}).Debug("resolving generation")
	}
}

// Enabled reports whether this Tracer logs anything.
func (t *Tracer) Enabled() bool {
	return t.enabled
}
