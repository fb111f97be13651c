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

// Package projector implements the Subject Reconciliation Projector
// (§4.7): given touched subjects (post-mutation) or parsed quads
// (post-parse), it assembles the quad lists and type/label snapshot that
// become the `subjects` event.
package projector

import (
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
)

// Entry is the fat-map snapshot entry of §3.
type Entry struct {
	IRI      string
	Types    []string
	Label    string
	HasLabel bool
}

// Result is the packaged output that becomes a `subjects` event payload.
type Result struct {
	Subjects       []string
	QuadsBySubject map[string][]quadmodel.Quad
	Snapshot       []Entry
}

// Project scans subjects against reg's blacklist, dropping blacklisted
// ones silently, and builds quad lists + a snapshot for the survivors, in
// the order subjects were given (duplicates collapsed to first occurrence).
func Project(st *store.Store, reg *store.Registry, subjects []quadmodel.Term) Result {
	res := Result{QuadsBySubject: make(map[string][]quadmodel.Quad)}
	seen := make(map[string]bool)

	for _, subj := range subjects {
		iri := subjectString(subj)
		if seen[iri] {
			continue
		}
		seen[iri] = true
		if reg.IsBlacklisted(iri) {
			continue
		}
		quads := st.QuadsBySubject(subj)
		res.Subjects = append(res.Subjects, iri)
		res.QuadsBySubject[iri] = quads
		res.Snapshot = append(res.Snapshot, snapshotOf(iri, quads))
	}
	return res
}

// SubjectsFromQuads returns the distinct subjects of quads, in first-seen
// order, for use as Project's input after a parse (§4.7 "a list of quads
// (post-parse)").
func SubjectsFromQuads(quads []quadmodel.Quad) []quadmodel.Term {
	seen := make(map[string]bool)
	var out []quadmodel.Term
	for _, q := range quads {
		k := quadmodel.TermKey(q.Subject)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q.Subject)
	}
	return out
}

func subjectString(t quadmodel.Term) string {
	switch v := t.(type) {
	case quadmodel.IRI:
		return string(v)
	case quadmodel.BlankNode:
		return "_:" + string(v)
	default:
		return t.String()
	}
}

// snapshotOf derives {iri, types, label?} from a subject's full quad list
// (§3 "Fat-Map Snapshot Entry"): rdf:type objects populate types, the
// first rdfs:label literal populates label.
func snapshotOf(iri string, quads []quadmodel.Quad) Entry {
	e := Entry{IRI: iri}
	for _, q := range quads {
		pred, ok := q.Predicate.(quadmodel.IRI)
		if !ok {
			continue
		}
		switch string(pred) {
		case store.RDFType:
			if obj, ok := q.Object.(quadmodel.IRI); ok {
				e.Types = append(e.Types, string(obj))
			}
		case store.RDFSLabel:
			if !e.HasLabel {
				if lit, ok := q.Object.(quadmodel.Literal); ok {
					e.Label = lit.Lexical
					e.HasLabel = true
				}
			}
		}
	}
	return e
}
