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
	"encoding/json"
	"fmt"
	"io"

	ld "github.com/piprate/json-gold/ld"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// jsonldReader parses JSON-LD by delegating expansion/RDF-conversion to
// piprate/json-gold (the teacher's own quad/jsonld shim wraps the same
// library, §"DOMAIN STACK" in SPEC_FULL.md) and translating the resulting
// *ld.RDFDataset into quadmodel.Quad values.
type jsonldReader struct {
	queue []quadmodel.Quad
	idx   int
	err   error
}

func newJSONLDReader(r io.Reader, base string) *jsonldReader {
	jr := &jsonldReader{}
	jr.err = jr.parse(r, base)
	return jr
}

func (jr *jsonldReader) Prefixes() map[string]string { return nil }

func (jr *jsonldReader) ReadQuad() (quadmodel.Quad, error) {
	if jr.idx < len(jr.queue) {
		q := jr.queue[jr.idx]
		jr.idx++
		return q, nil
	}
	if jr.err != nil && jr.err != io.EOF {
		return quadmodel.Quad{}, jr.err
	}
	return quadmodel.Quad{}, io.EOF
}

func (jr *jsonldReader) parse(r io.Reader, base string) error {
	var doc interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parser: ld+json: %w", err)
	}

	opts := ld.NewJsonLdOptions(base)
	proc := ld.NewJsonLdProcessor()
	out, err := proc.ToRDF(doc, opts)
	if err != nil {
		return fmt.Errorf("parser: ld+json: %w", err)
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("parser: ld+json: unexpected ToRDF result type %T", out)
	}

	for graphName, quads := range dataset.Graphs {
		g := graphTermFor(graphName)
		for _, q := range quads {
			quad, err := fromLDQuad(q, g)
			if err != nil {
				return err
			}
			jr.queue = append(jr.queue, quad)
		}
	}
	return nil
}

func graphTermFor(name string) quadmodel.Term {
	if name == "" || name == "@default" {
		return quadmodel.DefaultGraph
	}
	return quadmodel.IRI(name)
}

func fromLDQuad(q *ld.Quad, g quadmodel.Term) (quadmodel.Quad, error) {
	s, err := fromLDNode(q.Subject)
	if err != nil {
		return quadmodel.Quad{}, err
	}
	p, err := fromLDNode(q.Predicate)
	if err != nil {
		return quadmodel.Quad{}, err
	}
	o, err := fromLDNode(q.Object)
	if err != nil {
		return quadmodel.Quad{}, err
	}
	return quadmodel.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, nil
}

func fromLDNode(n ld.Node) (quadmodel.Term, error) {
	switch v := n.(type) {
	case *ld.IRI:
		return quadmodel.IRI(v.Value), nil
	case *ld.BlankNode:
		return quadmodel.BlankNode(quadmodel.StripBlankPrefix(v.Attribute)), nil
	case *ld.Literal:
		return quadmodel.NewLiteral(v.Value, quadmodel.IRI(v.Datatype), v.Language), nil
	default:
		return nil, fmt.Errorf("parser: ld+json: unsupported node type %T", n)
	}
}

// jsonldWriter buffers quads and renders an expanded JSON-LD document on
// Close via json-gold's FromRDF, the writer-side counterpart of the
// reader above.
type jsonldWriter struct {
	w     io.Writer
	quads []quadmodel.Quad
}

func newJSONLDWriter(w io.Writer) *jsonldWriter {
	return &jsonldWriter{w: w}
}

func (jw *jsonldWriter) WriteQuad(q quadmodel.Quad) error {
	jw.quads = append(jw.quads, q)
	return nil
}

func (jw *jsonldWriter) Close() error {
	dataset := ld.NewRDFDataset()
	for _, q := range jw.quads {
		gname := "@default"
		if !quadmodel.IsDefaultGraph(q.Graph) {
			gname = quadmodel.GraphName(q.Graph)
		}
		dataset.Graphs[gname] = append(dataset.Graphs[gname], &ld.Quad{
			Subject:   toLDNode(q.Subject),
			Predicate: toLDNode(q.Predicate),
			Object:    toLDNode(q.Object),
			Graph:     ld.NewIRI(gname),
		})
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")
	doc, err := proc.FromRDF(dataset, opts)
	if err != nil {
		return fmt.Errorf("parser: ld+json: %w", err)
	}
	enc := json.NewEncoder(jw.w)
	return enc.Encode(doc)
}

func toLDNode(t quadmodel.Term) ld.Node {
	switch v := t.(type) {
	case quadmodel.IRI:
		return ld.NewIRI(string(v))
	case quadmodel.BlankNode:
		return ld.NewBlankNode("_:" + string(v))
	case quadmodel.Literal:
		dt := string(v.Datatype)
		if dt == "" {
			dt = "http://www.w3.org/2001/XMLSchema#string"
		}
		return ld.NewLiteral(v.Lexical, dt, v.Lang)
	default:
		return ld.NewLiteral("", "", "")
	}
}
