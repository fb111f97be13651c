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
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	aboutA = rdfNS + "about"
	resA   = rdfNS + "resource"
	nodeA  = rdfNS + "nodeID"
	typeA  = rdfNS + "type"
)

// rdfxmlReader parses the "striped" RDF/XML idiom -- a top-level
// rdf:Description (or any typed node element) per subject, whose child
// elements are predicate/object statements -- which covers every document
// vgcore's own writer produces and the overwhelming majority of documents
// in the wild. Deeply nested/reified/collection RDF/XML is out of scope.
type rdfxmlReader struct {
	base     string
	prefixes map[string]string
	queue    []quadmodel.Quad
	idx      int
	err      error
}

func newRDFXMLReader(r io.Reader, base string) *rdfxmlReader {
	rr := &rdfxmlReader{base: base, prefixes: make(map[string]string)}
	rr.err = rr.parse(r)
	return rr
}

func (rr *rdfxmlReader) Prefixes() map[string]string { return rr.prefixes }

func (rr *rdfxmlReader) ReadQuad() (quadmodel.Quad, error) {
	if rr.idx < len(rr.queue) {
		q := rr.queue[rr.idx]
		rr.idx++
		return q, nil
	}
	if rr.err != nil && rr.err != io.EOF {
		return quadmodel.Quad{}, rr.err
	}
	return quadmodel.Quad{}, io.EOF
}

// parse walks a two-level "striped" document: depth 1 is the rdf:RDF
// root, depth 2 holds node (subject) elements, depth 3 holds their
// property (predicate) elements. A property element's value is either an
// rdf:resource/rdf:nodeID attribute or its text content.
func (rr *rdfxmlReader) parse(r io.Reader) error {
	dec := xml.NewDecoder(r)
	depth := 0
	var subject quadmodel.Term
	var pred quadmodel.IRI
	var text strings.Builder
	var resolvedByAttr bool
	blankCounter := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parser: rdf/xml: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				subject = elementSubject(el, &blankCounter)
				if el.Name.Local != "Description" && el.Name.Space != "" {
					rr.queue = append(rr.queue, quadmodel.Quad{
						Subject: subject, Predicate: quadmodel.IRI(typeA), Object: quadmodel.IRI(el.Name.Space + el.Name.Local),
					})
				}
			case 3:
				pred = quadmodel.IRI(el.Name.Space + el.Name.Local)
				text.Reset()
				resolvedByAttr = false
				for _, a := range el.Attr {
					switch a.Name.Space + a.Name.Local {
					case resA:
						rr.queue = append(rr.queue, quadmodel.Quad{Subject: subject, Predicate: pred, Object: quadmodel.IRI(a.Value)})
						resolvedByAttr = true
					case nodeA:
						rr.queue = append(rr.queue, quadmodel.Quad{Subject: subject, Predicate: pred, Object: quadmodel.BlankNode(a.Value)})
						resolvedByAttr = true
					}
				}
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(el)
			}
		case xml.EndElement:
			if depth == 3 && !resolvedByAttr {
				if v := strings.TrimSpace(text.String()); v != "" {
					rr.queue = append(rr.queue, quadmodel.Quad{Subject: subject, Predicate: pred, Object: quadmodel.Literal{Lexical: v}})
				}
			}
			depth--
		}
	}
	return nil
}

func elementSubject(el xml.StartElement, blankCounter *int) quadmodel.Term {
	for _, a := range el.Attr {
		if a.Name.Space+a.Name.Local == aboutA {
			return quadmodel.IRI(a.Value)
		}
		if a.Name.Space+a.Name.Local == nodeA {
			return quadmodel.BlankNode(a.Value)
		}
	}
	*blankCounter++
	return quadmodel.BlankNode(fmt.Sprintf("rdfxml%d", *blankCounter))
}

// rdfxmlWriter emits a minimal, flat RDF/XML document: one rdf:Description
// per subject, properties as child elements, grouping by subject so the
// output stays readable.
type rdfxmlWriter struct {
	w       io.Writer
	bySubj  map[string][]quadmodel.Quad
	order   []string
}

func newRDFXMLWriter(w io.Writer) *rdfxmlWriter {
	return &rdfxmlWriter{w: w, bySubj: make(map[string][]quadmodel.Quad)}
}

func (rw *rdfxmlWriter) WriteQuad(q quadmodel.Quad) error {
	key := termToken(q.Subject)
	if _, ok := rw.bySubj[key]; !ok {
		rw.order = append(rw.order, key)
	}
	rw.bySubj[key] = append(rw.bySubj[key], q)
	return nil
}

func (rw *rdfxmlWriter) Close() error {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<rdf:RDF xmlns:rdf="` + rdfNS + `">` + "\n")
	for _, key := range rw.order {
		quads := rw.bySubj[key]
		subj := quads[0].Subject
		sb.WriteString("  <rdf:Description")
		if iri, ok := subj.(quadmodel.IRI); ok {
			sb.WriteString(` rdf:about="` + xmlEscapeAttr(string(iri)) + `"`)
		} else if bn, ok := subj.(quadmodel.BlankNode); ok {
			sb.WriteString(` rdf:nodeID="` + xmlEscapeAttr(string(bn)) + `"`)
		}
		sb.WriteString(">\n")
		for _, q := range quads {
			pred, ok := q.Predicate.(quadmodel.IRI)
			if !ok {
				continue
			}
			tag := xmlTagFor(string(pred))
			ns := strings.TrimSuffix(string(pred), strings.TrimPrefix(tag, "p:"))
			decl := ` xmlns:p="` + xmlEscapeAttr(ns) + `"`
			switch obj := q.Object.(type) {
			case quadmodel.IRI:
				sb.WriteString("    <" + tag + decl + ` rdf:resource="` + xmlEscapeAttr(string(obj)) + `"/>` + "\n")
			case quadmodel.BlankNode:
				sb.WriteString("    <" + tag + decl + ` rdf:nodeID="` + xmlEscapeAttr(string(obj)) + `"/>` + "\n")
			case quadmodel.Literal:
				sb.WriteString("    <" + tag + decl + ">" + xmlEscapeText(obj.Lexical) + "</" + tag + ">\n")
			}
		}
		sb.WriteString("  </rdf:Description>\n")
	}
	sb.WriteString("</rdf:RDF>\n")
	_, err := io.WriteString(rw.w, sb.String())
	return err
}

func xmlTagFor(iri string) string {
	return "p:" + strings.TrimLeft(lastSegment(iri), "#/")
}

func lastSegment(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i:]
	}
	return iri
}

func xmlEscapeAttr(s string) string {
	r := strings.NewReplacer(`&`, `&amp;`, `"`, `&quot;`, `<`, `&lt;`, `>`, `&gt;`)
	return r.Replace(s)
}

func xmlEscapeText(s string) string {
	r := strings.NewReplacer(`&`, `&amp;`, `<`, `&lt;`, `>`, `&gt;`)
	return r.Replace(s)
}
