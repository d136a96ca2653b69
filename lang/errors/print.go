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

package errors

import (
	"fmt"
	"io"
	"strings"
)

// LineSource looks up the raw text of a single line for diagnostic display.
// The collaborator that owns source bytes (package source) implements this;
// package errors only formats.
type LineSource func(file string, line int) (text string, ok bool)

// Print writes one formatted block per diagnostic in l (sanitized first) to
// w. If src is non-nil, the offending source line is included with a caret
// under the column, and the blame span (if any) is shown as a second line.
func Print(w io.Writer, l List, src LineSource) {
	for _, e := range l.Sanitize() {
		printOne(w, e, src)
	}
}

func printOne(w io.Writer, e Error, src LineSource) {
	pos := e.Position()
	fmt.Fprintf(w, "%s: %s\n", e.Kind(), e.Error())
	if pos.Source != "" {
		fmt.Fprintf(w, "    at %s\n", pos.String())
		if src != nil {
			if text, ok := src(pos.Source, pos.Line); ok {
				fmt.Fprintf(w, "    %s\n", text)
				fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", max0(pos.Column-1)))
			}
		}
	}
	if blame := e.Blame(); blame.Source != "" {
		fmt.Fprintf(w, "    related: %s\n", blame.String())
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Details renders l the same way [Print] does and returns it as a string.
func Details(l List, src LineSource) string {
	var b strings.Builder
	Print(&b, l, src)
	return b.String()
}
