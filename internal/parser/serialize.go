// Copyright 2014 The Cayley Authors. All rights reserved.
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

package parser

import (
	"bytes"
	"fmt"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// SerializeQuads writes quads through the named format's Writer into an
// in-memory buffer and returns the result, used by `exportGraph` and by
// `fetchQuadsPage`'s optional `serialize` flag (§6).
func SerializeQuads(format string, quads []quadmodel.Quad) (string, error) {
	f := FormatByName(format)
	if f == nil {
		if byMime := FormatByMime(format); byMime != nil {
			f = byMime
		}
	}
	if f == nil {
		return "", fmt.Errorf("parser: unknown export format %q", format)
	}
	var buf bytes.Buffer
	w := f.Writer(&buf)
	for _, q := range quads {
		if err := w.WriteQuad(q); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
