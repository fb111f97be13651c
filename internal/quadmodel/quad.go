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

package quadmodel

import "strings"

// Quad is an RDF triple plus an explicit named-graph term (§3 "Quad").
//
// Subject is IRI or BlankNode, Predicate is IRI, Object is any Term except
// DefaultGraph, Graph is IRI or DefaultGraph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// QuadUpdate is a removal pattern: (subject, predicate, graph) with an
// optional object. A nil Object matches every object for that
// subject/predicate/graph (§3 "QuadUpdate").
type QuadUpdate struct {
	Subject   Term
	Predicate Term
	Object    Term // nil means wildcard
	Graph     Term
}

// QuadKey returns the stable dedup string "subject|predicate|object|graph"
// used by the store's duplicate-detection and by reasoner insertion capture
// (§4.1 "quadKey").
func QuadKey(q Quad) string {
	return TermKey(q.Subject) + "|" + TermKey(q.Predicate) + "|" + TermKey(q.Object) + "|" + TermKey(q.Graph)
}

// TermKey returns a stable string encoding of a term suitable for use as a
// map key, distinguishing literals by datatype/language from plain IRIs
// that happen to share a lexical form.
func TermKey(t Term) string {
	if t == nil {
		return ""
	}
	if lit, ok := t.(Literal); ok {
		return "\"" + lit.Lexical + "\"^^" + string(lit.Datatype) + "@" + lit.Lang
	}
	return t.String()
}

// QuadEqual reports whether two quads are structurally equal across all
// four term positions, including literal datatype/language (§4.3 duplicate
// detection invariant).
func QuadEqual(a, b Quad) bool {
	return TermEqual(a.Subject, b.Subject) &&
		TermEqual(a.Predicate, b.Predicate) &&
		TermEqual(a.Object, b.Object) &&
		TermEqual(a.Graph, b.Graph)
}

// GraphName returns the canonical string form of a graph term for use as a
// quad-store partition key: "default" for DefaultGraph, else the bare IRI
// value (no angle brackets).
func GraphName(t Term) string {
	if t == nil || IsDefaultGraph(t) {
		return "default"
	}
	if iri, ok := t.(IRI); ok {
		return string(iri)
	}
	return "default"
}

// GraphTerm is the inverse of GraphName: turns a graph-name string (as used
// in command payloads) into a graph Term.
func GraphTerm(name string) Term {
	return CoerceGraphTerm(name)
}

// StripBlankPrefix removes a leading "_:" from a raw identifier, per the
// ingress rule that blank-node values are stored without it (§4.1).
func StripBlankPrefix(s string) string {
	return strings.TrimPrefix(s, "_:")
}
