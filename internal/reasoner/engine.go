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

// Package reasoner implements the Reasoner Harness (§4.8): an N3 rule
// parser and non-incremental forward-chaining fixed-point evaluator,
// grounded on the teacher's inference/inference.go for the general shape
// of "apply rules against a working store, capture the derived facts" --
// no ecosystem N3/EYE-style library exists in the example pack (see
// DESIGN.md), so the rule engine itself is hand-written.
package reasoner

import "github.com/visgraph/vgcore/internal/quadmodel"

// maxIterations bounds the fixed-point loop; a well-formed rule set over a
// finite term universe converges long before this, it exists only as a
// runaway backstop.
const maxIterations = 1000

type bindings map[string]quadmodel.Term

func (b bindings) clone() bindings {
	c := make(bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

func matchTerm(pt patternTerm, t quadmodel.Term, b bindings) (bindings, bool) {
	if pt.isVar() {
		if existing, ok := b[pt.variable]; ok {
			if quadmodel.TermEqual(existing, t) {
				return b, true
			}
			return nil, false
		}
		nb := b.clone()
		nb[pt.variable] = t
		return nb, true
	}
	if quadmodel.TermEqual(pt.bound, t) {
		return b, true
	}
	return nil, false
}

func matchPattern(pat TriplePattern, q quadmodel.Quad, b bindings) (bindings, bool) {
	b, ok := matchTerm(pat.Subject, q.Subject, b)
	if !ok {
		return nil, false
	}
	b, ok = matchTerm(pat.Predicate, q.Predicate, b)
	if !ok {
		return nil, false
	}
	return matchTerm(pat.Object, q.Object, b)
}

// joinPatterns returns every binding set that satisfies all of patterns
// against quads, in the naive nested-loop-join way -- adequate for the
// small rule/fact sizes this harness targets (§4.8 has no performance
// invariant for the reasoner itself).
func joinPatterns(patterns []TriplePattern, quads []quadmodel.Quad) []bindings {
	results := []bindings{{}}
	for _, pat := range patterns {
		var next []bindings
		for _, b := range results {
			for _, q := range quads {
				if nb, ok := matchPattern(pat, q, b); ok {
					next = append(next, nb)
				}
			}
		}
		results = next
		if len(results) == 0 {
			return nil
		}
	}
	return results
}

func resolveTerm(pt patternTerm, b bindings) (quadmodel.Term, bool) {
	if pt.isVar() {
		t, ok := b[pt.variable]
		return t, ok
	}
	return pt.bound, true
}

func instantiate(pat TriplePattern, b bindings) (quadmodel.Quad, bool) {
	s, ok := resolveTerm(pat.Subject, b)
	if !ok {
		return quadmodel.Quad{}, false
	}
	p, ok := resolveTerm(pat.Predicate, b)
	if !ok {
		return quadmodel.Quad{}, false
	}
	o, ok := resolveTerm(pat.Object, b)
	if !ok {
		return quadmodel.Quad{}, false
	}
	return quadmodel.Quad{Subject: s, Predicate: p, Object: o, Graph: quadmodel.DefaultGraph}, true
}

// tripleKey dedups derived facts on (s,p,o) alone -- the reasoner operates
// over triples, graph-agnostic, per §4.8 step 5's "(s, p, o, originalGraphKey)"
// capture (graph is tracked separately by the caller, not part of identity
// during fixed-point evaluation).
func tripleKey(q quadmodel.Quad) string {
	return quadmodel.TermKey(q.Subject) + "|" + quadmodel.TermKey(q.Predicate) + "|" + quadmodel.TermKey(q.Object)
}

// ForwardChain runs rules to a fixed point starting from initial facts and
// returns every newly-derived triple in derivation order, deduplicated
// against both the initial set and each other (§4.8 step 6/step 5 capture).
func ForwardChain(rules []Rule, initial []quadmodel.Quad) []quadmodel.Quad {
	known := append([]quadmodel.Quad(nil), initial...)
	seen := make(map[string]bool, len(initial))
	for _, q := range known {
		seen[tripleKey(q)] = true
	}

	var inserted []quadmodel.Quad
	for iter := 0; iter < maxIterations; iter++ {
		added := false
		for _, rule := range rules {
			for _, b := range joinPatterns(rule.Antecedent, known) {
				for _, cpat := range rule.Consequent {
					q, ok := instantiate(cpat, b)
					if !ok {
						continue
					}
					key := tripleKey(q)
					if seen[key] {
						continue
					}
					seen[key] = true
					known = append(known, q)
					inserted = append(inserted, q)
					added = true
				}
			}
		}
		if !added {
			break
		}
	}
	return inserted
}
