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

// Package quadmodel defines the canonical RDF term and quad value types
// that cross the worker/host channel.
package quadmodel

import (
	"strconv"
	"strings"
	"time"
)

// Term is a tagged RDF value: an IRI, a blank node, a literal, or the
// default-graph sentinel. It crosses the wire in every quad position.
type Term interface {
	// String renders the term in N-Quads notation (e.g. <iri>, _:b1, "lex"^^<dt>).
	String() string
	// Native converts the term to the closest native Go type, falling back
	// to the term itself when there is no native analog.
	Native() interface{}
	termTag()
}

// IRI is an absolute RDF Internationalized Resource Identifier.
type IRI string

func (i IRI) String() string      { return "<" + string(i) + ">" }
func (i IRI) Native() interface{} { return string(i) }
func (IRI) termTag()              {}

// BlankNode is a bare blank-node identifier; the "_:" prefix is stripped on
// ingress and re-applied only by serializers (§4.1).
type BlankNode string

func (b BlankNode) String() string      { return "_:" + string(b) }
func (b BlankNode) Native() interface{} { return string(b) }
func (BlankNode) termTag()              {}

// xsdString is the datatype elided from storage per §4.1.
const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// XSDString is the exported form of xsdString, for callers outside this
// package (e.g. the protocol codec) that need to normalize an incoming
// datatype before constructing a Literal.
const XSDString = xsdString

// RDFLangString is the conceptual (non-materialized) datatype of a literal
// carrying a language tag.
const RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// Literal is a lexical form with an optional datatype (absent implies
// xsd:string) and an optional language tag, mutually exclusive with a
// non-string datatype.
type Literal struct {
	Lexical  string
	Datatype IRI // "" means xsd:string
	Lang     string
}

var escaper = strings.NewReplacer(
	"\\", "\\\\",
	"\"", "\\\"",
	"\n", "\\n",
	"\r", "\\r",
	"\t", "\\t",
)

func (l Literal) String() string {
	s := `"` + escaper.Replace(l.Lexical) + `"`
	if l.Lang != "" {
		return s + "@" + l.Lang
	}
	if l.Datatype != "" && l.Datatype != xsdString {
		return s + "^^" + l.Datatype.String()
	}
	return s
}

func (Literal) termTag() {}

// NewLiteral builds a Literal, normalizing an explicit xsd:string datatype
// to the elided "" form (§4.1 "a datatype equal to xsd:string is dropped
// from the stored form") so that a host-supplied literal with
// objectDatatype==xsd:string dedups and round-trips identically to one
// with no datatype at all.
func NewLiteral(lexical string, datatype IRI, lang string) Literal {
	if datatype == xsdString {
		datatype = ""
	}
	return Literal{Lexical: lexical, Datatype: datatype, Lang: lang}
}

// Native converts the literal to a native Go type using the datatype
// conversion table (int64, float64, bool, time.Time), falling back to the
// lexical string.
func (l Literal) Native() interface{} {
	if l.Lang != "" || l.Datatype == "" {
		return l.Lexical
	}
	if fn, ok := nativeConversions[string(l.Datatype)]; ok {
		if v, err := fn(l.Lexical); err == nil {
			return v
		}
	}
	return l.Lexical
}

// defaultGraph is the valueless sentinel used only in the graph position.
type defaultGraphTerm struct{}

// DefaultGraph is the sentinel Term occupying the graph position of quads
// that are not assigned to a named graph.
var DefaultGraph Term = defaultGraphTerm{}

func (defaultGraphTerm) String() string      { return "" }
func (defaultGraphTerm) Native() interface{} { return nil }
func (defaultGraphTerm) termTag()            {}

// IsDefaultGraph reports whether t is the DefaultGraph sentinel.
func IsDefaultGraph(t Term) bool {
	_, ok := t.(defaultGraphTerm)
	return ok
}

// nativeConversions mirrors quad.RegisterStringConversion from the teacher,
// scoped to the four xsd types the spec's fat-map/export paths care about.
var nativeConversions = map[string]func(string) (interface{}, error){
	"http://www.w3.org/2001/XMLSchema#integer": func(s string) (interface{}, error) { return strconv.ParseInt(s, 10, 64) },
	"http://www.w3.org/2001/XMLSchema#long":    func(s string) (interface{}, error) { return strconv.ParseInt(s, 10, 64) },
	"http://www.w3.org/2001/XMLSchema#boolean":  func(s string) (interface{}, error) { return strconv.ParseBool(s) },
	"http://www.w3.org/2001/XMLSchema#double":   func(s string) (interface{}, error) { return strconv.ParseFloat(s, 64) },
	"http://www.w3.org/2001/XMLSchema#dateTime": func(s string) (interface{}, error) { return time.Parse(time.RFC3339, s) },
}

// CoerceTerm converts a raw incoming string into a Term following the
// ingress rule in §4.1: a string matching an absolute-IRI scheme prefix is
// an IRI; a "_:"-prefixed string is a BlankNode; otherwise, in object
// position it becomes a Literal, and in any other position an IRI.
func CoerceTerm(raw string, objectPosition bool) Term {
	if looksLikeIRI(raw) {
		return IRI(raw)
	}
	if strings.HasPrefix(raw, "_:") {
		return BlankNode(raw[2:])
	}
	if objectPosition {
		return Literal{Lexical: raw}
	}
	return IRI(raw)
}

// looksLikeIRI reports whether s matches the absolute-IRI scheme grammar
// `^[a-z][a-z0-9+.-]*:` used by the ingress coercion rule.
func looksLikeIRI(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return false
	}
	scheme := s[:i]
	c := scheme[0]
	if c < 'a' || c > 'z' {
		return false
	}
	for j := 1; j < len(scheme); j++ {
		c := scheme[j]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

// CoerceGraphTerm collapses any non-named term to DefaultGraph in the graph
// position, per §4.1 ("In graph position, any non-named term collapses to
// DefaultGraph").
func CoerceGraphTerm(raw string) Term {
	if raw == "" || raw == "default" {
		return DefaultGraph
	}
	if looksLikeIRI(raw) {
		return IRI(raw)
	}
	return DefaultGraph
}

// TermEqual reports whether two terms are structurally equal, including
// literal datatype/language (§4.1, §4.3 duplicate-detection invariant).
func TermEqual(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Literal:
		bv, ok := b.(Literal)
		return ok && av == bv
	default:
		return a == b
	}
}
