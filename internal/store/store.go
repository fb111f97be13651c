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

// Package store implements the quad store and graph manager (§4.3): the
// authoritative, named-graph-partitioned quad storage with SPO+G lookup,
// dedup, and a monotonic change counter.
package store

import (
	"errors"
	"sync"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// Sentinel errors, grounded on the teacher's graph package
// (graph.ErrDatabaseExists, graph.ErrNotInitialized) — vgcore's in-memory
// worker has an analogous small set for invariant violations (§4.3 Failure
// semantics: "Invariant violations panic within the worker").
var (
	ErrNonIRIPredicate = errors.New("store: predicate must be an IRI")
	ErrNonNamedSubject = errors.New("store: subject must be an IRI or blank node")
	ErrDefaultGraphObj = errors.New("store: object may not be DefaultGraph")
)

// Reserved named graphs (§3 "Named Graph").
const (
	GraphData       = "urn:vg:data"
	GraphOntologies = "urn:vg:ontologies"
	GraphWorkflows  = "urn:vg:workflows"
	GraphInferred   = "urn:vg:inferred"
	GraphDefault    = "default"
)

// Store is the concurrent, named-graph-partitioned quad store (§4.3). It is
// owned exclusively by a single worker goroutine (§5 "Shared resources"),
// but the mutex lets tests and read-only HTTP views (GET of a snapshot)
// safely share it.
type Store struct {
	mu sync.RWMutex

	quads map[string]quadmodel.Quad // global quad key -> quad

	byGraph map[string]map[string]struct{} // graph name -> set of quad keys
	bySubj  map[string]map[string]struct{} // subject term key -> set of quad keys
	byPred  map[string]map[string]struct{} // predicate term key -> set of quad keys
	byObj   map[string]map[string]struct{} // object term key -> set of quad keys

	changeCount int64
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.quads = make(map[string]quadmodel.Quad)
	s.byGraph = make(map[string]map[string]struct{})
	s.bySubj = make(map[string]map[string]struct{})
	s.byPred = make(map[string]map[string]struct{})
	s.byObj = make(map[string]map[string]struct{})
	s.changeCount = 0
}

// Validate enforces the store's typed-position invariants (§4.3, §4.1
// "Quad"): subject is IRI/BlankNode, predicate is IRI, object is never
// DefaultGraph. Violations are returned as ErrNonNamedSubject,
// ErrNonIRIPredicate or ErrDefaultGraphObj; AddQuad does not call Validate.
func Validate(q quadmodel.Quad) error {
	switch q.Subject.(type) {
	case quadmodel.IRI, quadmodel.BlankNode:
	default:
		return ErrNonNamedSubject
	}
	if _, ok := q.Predicate.(quadmodel.IRI); !ok {
		return ErrNonIRIPredicate
	}
	if quadmodel.IsDefaultGraph(q.Object) {
		return ErrDefaultGraphObj
	}
	return nil
}

func addIndex(idx map[string]map[string]struct{}, k, quadKey string) {
	set, ok := idx[k]
	if !ok {
		set = make(map[string]struct{})
		idx[k] = set
	}
	set[quadKey] = struct{}{}
}

func removeIndex(idx map[string]map[string]struct{}, k, quadKey string) {
	set, ok := idx[k]
	if !ok {
		return
	}
	delete(set, quadKey)
	if len(set) == 0 {
		delete(idx, k)
	}
}

// AddQuad inserts q, returning false without mutation if an identical quad
// already exists in the same graph (§4.3 "addQuad").
func (s *Store) AddQuad(q quadmodel.Quad) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addQuadLocked(q)
}

func (s *Store) addQuadLocked(q quadmodel.Quad) bool {
	key := quadmodel.QuadKey(q)
	if _, exists := s.quads[key]; exists {
		return false
	}
	s.quads[key] = q
	addIndex(s.byGraph, quadmodel.GraphName(q.Graph), key)
	addIndex(s.bySubj, quadmodel.TermKey(q.Subject), key)
	addIndex(s.byPred, quadmodel.TermKey(q.Predicate), key)
	addIndex(s.byObj, quadmodel.TermKey(q.Object), key)
	return true
}

// RemoveQuad removes the structural match of q, if any (§4.3 "removeQuad").
func (s *Store) RemoveQuad(q quadmodel.Quad) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeQuadLocked(q)
}

func (s *Store) removeQuadLocked(q quadmodel.Quad) bool {
	key := quadmodel.QuadKey(q)
	if _, exists := s.quads[key]; !exists {
		return false
	}
	s.deleteKeyLocked(key, q)
	return true
}

func (s *Store) deleteKeyLocked(key string, q quadmodel.Quad) {
	delete(s.quads, key)
	removeIndex(s.byGraph, quadmodel.GraphName(q.Graph), key)
	removeIndex(s.bySubj, quadmodel.TermKey(q.Subject), key)
	removeIndex(s.byPred, quadmodel.TermKey(q.Predicate), key)
	removeIndex(s.byObj, quadmodel.TermKey(q.Object), key)
}

// candidateKeysLocked picks the narrowest candidate key set among the
// non-nil filters, falling back to a full scan when every position is a
// wildcard.
func (s *Store) candidateKeysLocked(subject, predicate, object quadmodel.Term, graph string, hasGraph bool) []string {
	var best map[string]struct{}
	pick := func(idx map[string]map[string]struct{}, t quadmodel.Term) bool {
		if t == nil {
			return false
		}
		set, ok := idx[quadmodel.TermKey(t)]
		if !ok {
			best = nil
			return true
		}
		if best == nil || len(set) < len(best) {
			best = set
		}
		return false
	}
	stop := pick(s.bySubj, subject)
	if !stop {
		stop = pick(s.byPred, predicate)
	}
	if !stop {
		stop = pick(s.byObj, object)
	}
	if !stop && hasGraph {
		if set, ok := s.byGraph[graph]; ok {
			if best == nil || len(set) < len(best) {
				best = set
			}
		} else {
			best = map[string]struct{}{}
		}
	}
	if best == nil {
		best = make(map[string]struct{}, len(s.quads))
		for k := range s.quads {
			best[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(best))
	for k := range best {
		out = append(out, k)
	}
	return out
}

// GetQuads returns every quad matching the given wildcards (nil = any) in
// subject/predicate/object/graph position (§4.3 "getQuads"). Results are
// not ordered.
func (s *Store) GetQuads(subject, predicate, object, graph quadmodel.Term) []quadmodel.Quad {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hasGraph := graph != nil
	gName := ""
	if hasGraph {
		gName = quadmodel.GraphName(graph)
	}
	keys := s.candidateKeysLocked(subject, predicate, object, gName, hasGraph)
	out := make([]quadmodel.Quad, 0, len(keys))
	for _, k := range keys {
		q, ok := s.quads[k]
		if !ok {
			continue
		}
		if subject != nil && !quadmodel.TermEqual(q.Subject, subject) {
			continue
		}
		if predicate != nil && !quadmodel.TermEqual(q.Predicate, predicate) {
			continue
		}
		if object != nil && !quadmodel.TermEqual(q.Object, object) {
			continue
		}
		if hasGraph && quadmodel.GraphName(q.Graph) != gName {
			continue
		}
		out = append(out, q)
	}
	return out
}

// CountQuads counts quads matching the given wildcard pattern.
func (s *Store) CountQuads(subject, predicate, object, graph quadmodel.Term) int {
	return len(s.GetQuads(subject, predicate, object, graph))
}

// CountByGraph returns the number of quads stored per named graph
// (§4.3 "countByGraph").
func (s *Store) CountByGraph() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.byGraph))
	for g, set := range s.byGraph {
		out[g] = len(set)
	}
	return out
}

// ClearGraph removes every quad whose graph equals g ("default" meaning
// DefaultGraph per §4.3 "clearGraph"). Returns the number removed.
func (s *Store) ClearGraph(g string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byGraph[g]
	if !ok {
		return 0
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	for _, k := range keys {
		q := s.quads[k]
		s.deleteKeyLocked(k, q)
	}
	return len(keys)
}

// Clear resets the store to empty and resets the change counter to zero
// (§3 "Reset to zero only on clear").
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// IncrementChangeCount bumps the monotonic change counter and returns the
// new value (§3 "Change Counter").
func (s *Store) IncrementChangeCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeCount++
	return s.changeCount
}

// ChangeCount returns the current change counter value.
func (s *Store) ChangeCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changeCount
}

// QuadsBySubject returns every quad in the store (any graph) where subject
// equals the given term, used by the Subject Reconciliation Projector
// (§4.7 "quadsBySubject").
func (s *Store) QuadsBySubject(subject quadmodel.Term) []quadmodel.Quad {
	return s.GetQuads(subject, nil, nil, nil)
}

// DistinctSubjects returns every distinct subject in the given graph, used
// by the `emitAllSubjects` command (§4.7).
func (s *Store) DistinctSubjects(graph string) []quadmodel.Term {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]quadmodel.Term)
	var order []string
	set, ok := s.byGraph[graph]
	if !ok {
		return nil
	}
	for k := range set {
		q := s.quads[k]
		sk := quadmodel.TermKey(q.Subject)
		if _, ok := seen[sk]; !ok {
			seen[sk] = q.Subject
			order = append(order, sk)
		}
	}
	out := make([]quadmodel.Term, 0, len(order))
	for _, sk := range order {
		out = append(out, seen[sk])
	}
	return out
}
