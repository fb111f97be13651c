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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

func TestJSONLDReaderExpandsInlineContext(t *testing.T) {
	doc := `{
		"@context": {"name": "http://example.org/name", "@vocab": "http://example.org/"},
		"@id": "http://example.org/alice",
		"@type": "Person",
		"name": "Alice"
	}`
	r := newJSONLDReader(strings.NewReader(doc), "")
	quads := readAll(t, r)
	require.NotEmpty(t, quads)

	var sawName, sawType bool
	for _, q := range quads {
		require.Equal(t, quadmodel.IRI("http://example.org/alice"), q.Subject)
		switch pred := q.Predicate.(type) {
		case quadmodel.IRI:
			if string(pred) == "http://example.org/name" {
				sawName = true
				require.Equal(t, "Alice", q.Object.(quadmodel.Literal).Lexical)
			}
			if string(pred) == "http://www.w3.org/1999/02/22-rdf-syntax-ns#type" {
				sawType = true
				require.Equal(t, quadmodel.IRI("http://example.org/Person"), q.Object)
			}
		}
	}
	require.True(t, sawName)
	require.True(t, sawType)
}

func TestJSONLDReaderRejectsMalformedJSON(t *testing.T) {
	r := newJSONLDReader(strings.NewReader("not json"), "")
	_, err := r.ReadQuad()
	require.Error(t, err)
}

func TestJSONLDWriterRoundTrip(t *testing.T) {
	quads := []quadmodel.Quad{
		{Subject: quadmodel.IRI("http://ex/a"), Predicate: quadmodel.IRI("http://ex/p"), Object: quadmodel.Literal{Lexical: "hi"}, Graph: quadmodel.DefaultGraph},
	}
	out, err := serializeQuads("ld+json", quads)
	require.NoError(t, err)
	require.Contains(t, out, "http://ex/p")
}
