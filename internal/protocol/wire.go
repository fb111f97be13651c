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

// Package protocol implements the typed inbound/outbound message envelope
// of §4.2: per-command payload validation, and the cross-channel quad
// encoding used by every command and event that carries quads.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// QuadWire is the cross-channel encoding of a quadmodel.Quad (§4.5 step 3,
// "serialise into a cross-channel form"). Subject/predicate/graph are
// plain strings coerced by quadmodel.CoerceTerm; object additionally
// carries datatype/lang so literals round-trip without ambiguity.
type QuadWire struct {
	Subject        string `json:"subject"`
	Predicate      string `json:"predicate"`
	Object         string `json:"object"`
	ObjectDatatype string `json:"objectDatatype,omitempty"`
	ObjectLang     string `json:"objectLang,omitempty"`
	Graph          string `json:"graph,omitempty"`
}

// ToQuad coerces the wire form into a quadmodel.Quad, applying the ingress
// coercion rule of §4.1 to subject/predicate and using the explicit
// datatype/lang (if any) for the object.
func (w QuadWire) ToQuad() (quadmodel.Quad, error) {
	if w.Subject == "" {
		return quadmodel.Quad{}, fmt.Errorf("quad: empty subject")
	}
	if w.Predicate == "" {
		return quadmodel.Quad{}, fmt.Errorf("quad: empty predicate")
	}
	s := quadmodel.CoerceTerm(w.Subject, false)
	p := quadmodel.CoerceTerm(w.Predicate, false)
	if _, ok := p.(quadmodel.IRI); !ok {
		return quadmodel.Quad{}, fmt.Errorf("quad: predicate %q is not an IRI", w.Predicate)
	}

	var o quadmodel.Term
	switch {
	case w.ObjectDatatype != "" || w.ObjectLang != "":
		o = quadmodel.NewLiteral(w.Object, quadmodel.IRI(w.ObjectDatatype), w.ObjectLang)
	default:
		o = quadmodel.CoerceTerm(w.Object, true)
	}

	g := quadmodel.CoerceGraphTerm(w.Graph)
	return quadmodel.Quad{Subject: s, Predicate: p, Object: o, Graph: g}, nil
}

// FromQuad encodes a quadmodel.Quad into its cross-channel wire form.
func FromQuad(q quadmodel.Quad) QuadWire {
	w := QuadWire{
		Subject:   termValue(q.Subject),
		Predicate: termValue(q.Predicate),
		Object:    termValue(q.Object),
		Graph:     quadmodel.GraphName(q.Graph),
	}
	if lit, ok := q.Object.(quadmodel.Literal); ok {
		w.ObjectDatatype = string(lit.Datatype)
		w.ObjectLang = lit.Lang
	}
	return w
}

func termValue(t quadmodel.Term) string {
	switch v := t.(type) {
	case quadmodel.IRI:
		return string(v)
	case quadmodel.BlankNode:
		return "_:" + string(v)
	case quadmodel.Literal:
		return v.Lexical
	default:
		return ""
	}
}

// QuadUpdateWire is the wire form of a removal pattern (§3 "QuadUpdate").
// Object is a pointer so an absent field is distinguishable from an
// explicit empty-string object.
type QuadUpdateWire struct {
	Subject        string  `json:"subject"`
	Predicate      string  `json:"predicate"`
	Object         *string `json:"object,omitempty"`
	ObjectDatatype string  `json:"objectDatatype,omitempty"`
	ObjectLang     string  `json:"objectLang,omitempty"`
	Graph          string  `json:"graph,omitempty"`
}

func (w QuadUpdateWire) ToQuadUpdate() (quadmodel.QuadUpdate, error) {
	if w.Subject == "" || w.Predicate == "" {
		return quadmodel.QuadUpdate{}, fmt.Errorf("quadUpdate: subject and predicate are required")
	}
	u := quadmodel.QuadUpdate{
		Subject:   quadmodel.CoerceTerm(w.Subject, false),
		Predicate: quadmodel.CoerceTerm(w.Predicate, false),
		Graph:     quadmodel.CoerceGraphTerm(w.Graph),
	}
	if w.Object != nil {
		if w.ObjectDatatype != "" || w.ObjectLang != "" {
			u.Object = quadmodel.Literal{Lexical: *w.Object, Datatype: quadmodel.IRI(w.ObjectDatatype), Lang: w.ObjectLang}
		} else {
			u.Object = quadmodel.CoerceTerm(*w.Object, true)
		}
	}
	return u, nil
}

// SnapshotEntry is the fat-map snapshot entry of §3.
type SnapshotEntry struct {
	IRI    string   `json:"iri"`
	Types  []string `json:"types"`
	Label  string   `json:"label,omitempty"`
	hasLbl bool
}

// MarshalJSON omits Label when it was never populated, matching the
// optional `label?` field of §3.
func (s SnapshotEntry) MarshalJSON() ([]byte, error) {
	type alias struct {
		IRI   string   `json:"iri"`
		Types []string `json:"types"`
		Label *string  `json:"label,omitempty"`
	}
	a := alias{IRI: s.IRI, Types: s.Types}
	if s.hasLbl {
		a.Label = &s.Label
	}
	return json.Marshal(a)
}

// SetLabel records that this entry has a label (even an empty-string one).
func (s *SnapshotEntry) SetLabel(v string) {
	s.Label = v
	s.hasLbl = true
}
