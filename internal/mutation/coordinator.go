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

// Package mutation implements the Mutation Coordinator (§4.6): batch
// apply/remove, delta counting, and change & subject event emission.
package mutation

import (
	"strings"

	"github.com/visgraph/vgcore/internal/broker"
	"github.com/visgraph/vgcore/internal/metrics"
	"github.com/visgraph/vgcore/internal/projector"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
)

// Coordinator applies mutation commands to a Store/Registry pair and
// emits `change`/`subjects` events through a Broker.
type Coordinator struct {
	Store    *store.Store
	Registry *store.Registry
	Broker   *broker.Broker
}

// New returns a Coordinator wired to st/reg/br.
func New(st *store.Store, reg *store.Registry, br *broker.Broker) *Coordinator {
	return &Coordinator{Store: st, Registry: reg, Broker: br}
}

// resolveGraph returns q's own graph if it names one, else the fallback
// graph name coerced to a Term (§4.5 step 3's re-homing rule, reused here
// for batch-scoped quads that omit a graph).
func resolveGraph(g quadmodel.Term, fallback string) quadmodel.Term {
	if g == nil || quadmodel.IsDefaultGraph(g) {
		return quadmodel.GraphTerm(fallback)
	}
	return g
}

// BatchResult is the outcome of SyncBatch (§6 "syncBatch" result).
type BatchResult struct {
	Added   int
	Removed int
}

// SyncBatch applies removes then adds within one batch and emits events
// per §4.6: removes before adds; duplicate adds within one batch insert
// once; change precedes subjects; suppressSubjects skips the `subjects`
// emission.
func (c *Coordinator) SyncBatch(adds []quadmodel.Quad, removes []quadmodel.QuadUpdate, graphName string, suppressSubjects bool) BatchResult {
	touchedOrder := newSubjectSet()

	removed := 0
	for _, u := range removes {
		g := resolveGraph(u.Graph, graphName)
		removed += c.applyRemoval(u, g)
		touchedOrder.add(u.Subject)
	}

	added := 0
	for _, q := range adds {
		q.Graph = resolveGraph(q.Graph, graphName)
		if c.Store.AddQuad(q) {
			added++
			touchedOrder.add(q.Subject)
		}
	}

	if added > 0 || removed > 0 {
		c.emitChange("syncBatch", map[string]interface{}{
			"graphName": graphName,
			"added":     added,
			"removed":   removed,
		})
		if !suppressSubjects {
			c.emitSubjects(touchedOrder.list())
		}
	}
	return BatchResult{Added: added, Removed: removed}
}

// applyRemoval removes quads matching u in graph g, applying the
// absent-object wildcard and the lexical-value literal fallback of §4.6
// step 1 / §9 Open Question (b).
func (c *Coordinator) applyRemoval(u quadmodel.QuadUpdate, g quadmodel.Term) int {
	if u.Object == nil {
		matches := c.Store.GetQuads(u.Subject, u.Predicate, nil, g)
		for _, m := range matches {
			c.Store.RemoveQuad(m)
		}
		return len(matches)
	}

	candidate := quadmodel.Quad{Subject: u.Subject, Predicate: u.Predicate, Object: u.Object, Graph: g}
	if c.Store.RemoveQuad(candidate) {
		return 1
	}

	// Lexical-value fallback: if the removal object is a literal and no
	// structural match exists, match on lexical form alone regardless of
	// datatype/language (kept for compatibility, §9 Open Question (b)).
	if lit, ok := u.Object.(quadmodel.Literal); ok {
		matches := c.Store.GetQuads(u.Subject, u.Predicate, nil, g)
		for _, m := range matches {
			if mlit, ok := m.Object.(quadmodel.Literal); ok && mlit.Lexical == lit.Lexical {
				c.Store.RemoveQuad(m)
				return 1
			}
		}
	}
	return 0
}

// SyncLoadResult is the outcome of SyncLoad (§6 "syncLoad" result).
type SyncLoadResult struct {
	GraphName string
	Added     int
	Removed   int
}

// SyncLoad replaces the entire contents of graphName with quads, merging
// prefixes if the graph is data/ontologies (§4.6 "syncLoad").
func (c *Coordinator) SyncLoad(quads []quadmodel.Quad, graphName string, prefixes map[string]string) SyncLoadResult {
	removed := c.Store.ClearGraph(graphName)

	touched := newSubjectSet()
	added := 0
	g := quadmodel.GraphTerm(graphName)
	for _, q := range quads {
		q.Graph = g
		if c.Store.AddQuad(q) {
			added++
		}
		touched.add(q.Subject)
	}

	c.Registry.MergePrefixes(prefixes, graphName)

	if added > 0 || removed > 0 {
		c.emitChange("syncLoad", map[string]interface{}{
			"graphName": graphName,
			"added":     added,
			"removed":   removed,
		})
		c.emitSubjects(touched.list())
	}
	return SyncLoadResult{GraphName: graphName, Added: added, Removed: removed}
}

// SyncRemoveGraph deletes every quad in graphName (§4.6, §8 idempotence law).
func (c *Coordinator) SyncRemoveGraph(graphName string) int {
	subjects := c.Store.DistinctSubjects(graphName)
	removed := c.Store.ClearGraph(graphName)
	if removed > 0 {
		c.emitChange("syncRemoveGraph", map[string]interface{}{
			"graphName": graphName,
			"removed":   removed,
		})
		terms := make([]quadmodel.Term, len(subjects))
		copy(terms, subjects)
		c.emitSubjects(terms)
	}
	return removed
}

// SyncRemoveAllQuadsForIriResult is the outcome of
// syncRemoveAllQuadsForIri (§6).
type SyncRemoveAllQuadsForIriResult struct {
	RemovedSubjects int
	RemovedObjects  int
}

// SyncRemoveAllQuadsForIri removes every quad where iri appears as subject
// and every quad where it appears as object, within graphName (§4.6).
func (c *Coordinator) SyncRemoveAllQuadsForIri(iri, graphName string) SyncRemoveAllQuadsForIriResult {
	subj := quadmodel.IRI(iri)
	g := quadmodel.GraphTerm(graphName)

	asSubject := c.Store.GetQuads(subj, nil, nil, g)
	for _, q := range asSubject {
		c.Store.RemoveQuad(q)
	}
	asObject := c.Store.GetQuads(nil, nil, subj, g)
	for _, q := range asObject {
		c.Store.RemoveQuad(q)
	}

	removed := len(asSubject) + len(asObject)
	if removed > 0 {
		c.emitChange("syncRemoveAllQuadsForIri", map[string]interface{}{
			"graphName": graphName,
			"iri":       iri,
			"removed":   removed,
		})
		touched := newSubjectSet()
		touched.add(subj)
		for _, q := range asObject {
			touched.add(q.Subject)
		}
		c.emitSubjects(touched.list())
	}
	return SyncRemoveAllQuadsForIriResult{RemovedSubjects: len(asSubject), RemovedObjects: len(asObject)}
}

// RemoveQuadsByNamespace removes every quad whose subject, predicate, or
// object IRI begins with any listed namespace, within graphName (§4.6).
func (c *Coordinator) RemoveQuadsByNamespace(graphName string, namespaceURIs []string) int {
	g := quadmodel.GraphTerm(graphName)
	all := c.Store.GetQuads(nil, nil, nil, g)
	removed := 0
	touched := newSubjectSet()
	for _, q := range all {
		if matchesAnyNamespace(q, namespaceURIs) {
			c.Store.RemoveQuad(q)
			removed++
			touched.add(q.Subject)
		}
	}
	if removed > 0 {
		c.emitChange("removeQuadsByNamespace", map[string]interface{}{
			"graphName": graphName,
			"removed":   removed,
		})
		c.emitSubjects(touched.list())
	}
	return removed
}

func matchesAnyNamespace(q quadmodel.Quad, namespaces []string) bool {
	for _, ns := range namespaces {
		if termStartsWith(q.Subject, ns) || termStartsWith(q.Predicate, ns) || termStartsWith(q.Object, ns) {
			return true
		}
	}
	return false
}

func termStartsWith(t quadmodel.Term, prefix string) bool {
	iri, ok := t.(quadmodel.IRI)
	return ok && strings.HasPrefix(string(iri), prefix)
}

// PurgeNamespaceResult is the outcome of purgeNamespace (§6).
type PurgeNamespaceResult struct {
	Removed        int
	NamespaceURI   string
	PrefixRemoved  bool
}

// PurgeNamespace resolves prefixOrURI to a namespace URI (via the prefix
// registry, or used directly if already absolute), removes the prefix
// binding, and removes every quad in every graph whose subject/predicate/
// object begins with that URI (§4.6).
func (c *Coordinator) PurgeNamespace(prefixOrURI string) PurgeNamespaceResult {
	uri := prefixOrURI
	prefixRemoved := false
	if !strings.HasPrefix(prefixOrURI, "http://") && !strings.HasPrefix(prefixOrURI, "https://") {
		if bound, ok := c.Registry.ResolvePrefix(prefixOrURI); ok {
			uri = bound
		}
	}
	if _, ok := c.Registry.ResolvePrefix(prefixOrURI); ok {
		c.Registry.RemovePrefix(prefixOrURI)
		prefixRemoved = true
	}

	all := c.Store.GetQuads(nil, nil, nil, nil)
	removed := 0
	touched := newSubjectSet()
	for _, q := range all {
		if matchesAnyNamespace(q, []string{uri}) {
			c.Store.RemoveQuad(q)
			removed++
			touched.add(q.Subject)
		}
	}
	if removed > 0 {
		c.emitChange("purgeNamespace", map[string]interface{}{
			"namespaceUri": uri,
			"removed":      removed,
		})
		c.emitSubjects(touched.list())
	}
	return PurgeNamespaceResult{Removed: removed, NamespaceURI: uri, PrefixRemoved: prefixRemoved}
}

// Clear resets the store (§6 "clear"): resets store, registries, counter;
// emits `change`, `subjects{[]}` unconditionally.
func (c *Coordinator) Clear(freshRegistry *store.Registry) {
	c.Store.Clear()
	*c.Registry = *freshRegistry
	metrics.ChangeCount.Set(0)
	c.Broker.Emit(protocol.EventChange, protocol.ChangePayload{ChangeCount: c.Store.ChangeCount(), Meta: map[string]interface{}{"reason": "clear"}})
	c.emitSubjects(nil)
}

// EmitAllSubjects scans every distinct subject in graphName and emits once
// (§4.7 "emitAllSubjects").
func (c *Coordinator) EmitAllSubjects(graphName string) int {
	subjects := c.Store.DistinctSubjects(graphName)
	c.emitSubjects(subjects)
	return len(subjects)
}

// TriggerSubjects forces re-emission for a given subject list without any
// mutation (§4.7 "triggerSubjects").
func (c *Coordinator) TriggerSubjects(subjects []string) int {
	terms := make([]quadmodel.Term, 0, len(subjects))
	for _, s := range subjects {
		terms = append(terms, quadmodel.CoerceTerm(s, false))
	}
	c.emitSubjects(terms)
	return len(terms)
}

// EmitChange emits a `change` event with the given reason/meta, incrementing
// the store's change counter. Exported for callers outside this package that
// perform their own mutations against the same Store (the parser dispatcher's
// importSerialized/loadFromUrl ingest, the reasoner's insertion capture).
func (c *Coordinator) EmitChange(reason string, extra map[string]interface{}) {
	c.emitChange(reason, extra)
}

// EmitSubjects projects and emits a `subjects` event for the given subject
// terms. Exported for the same cross-package reuse as EmitChange.
func (c *Coordinator) EmitSubjects(subjects []quadmodel.Term) {
	c.emitSubjects(subjects)
}

func (c *Coordinator) emitChange(reason string, extra map[string]interface{}) {
	meta := map[string]interface{}{"reason": reason}
	for k, v := range extra {
		meta[k] = v
	}
	cc := c.Store.IncrementChangeCount()
	metrics.ChangeCount.Set(float64(cc))
	if added, ok := extra["added"].(int); ok && added > 0 {
		metrics.QuadsIngested.WithLabelValues(reason).Add(float64(added))
	}
	if removed, ok := extra["removed"].(int); ok && removed > 0 {
		metrics.QuadsRemoved.WithLabelValues(reason).Add(float64(removed))
	}
	c.Broker.Emit(protocol.EventChange, protocol.ChangePayload{ChangeCount: cc, Meta: meta})
}

func (c *Coordinator) emitSubjects(subjects []quadmodel.Term) {
	res := projector.Project(c.Store, c.Registry, subjects)
	c.Broker.Emit(protocol.EventSubjects, toSubjectsPayload(res))
}

func toSubjectsPayload(res projector.Result) protocol.SubjectsPayload {
	p := protocol.SubjectsPayload{Subjects: res.Subjects}
	if len(res.QuadsBySubject) > 0 {
		p.Quads = make(map[string][]protocol.QuadWire, len(res.QuadsBySubject))
		for iri, quads := range res.QuadsBySubject {
			wires := make([]protocol.QuadWire, len(quads))
			for i, q := range quads {
				wires[i] = protocol.FromQuad(q)
			}
			p.Quads[iri] = wires
		}
	}
	for _, e := range res.Snapshot {
		se := protocol.SnapshotEntry{IRI: e.IRI, Types: e.Types}
		if e.HasLabel {
			se.SetLabel(e.Label)
		}
		p.Snapshot = append(p.Snapshot, se)
	}
	return p
}

// subjectSet preserves first-seen insertion order while deduping, used to
// accumulate touched subjects across a batch (§4.6 "Record touched subjects").
type subjectSet struct {
	seen  map[string]bool
	order []quadmodel.Term
}

func newSubjectSet() *subjectSet {
	return &subjectSet{seen: make(map[string]bool)}
}

func (s *subjectSet) add(t quadmodel.Term) {
	if t == nil {
		return
	}
	k := quadmodel.TermKey(t)
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.order = append(s.order, t)
}

func (s *subjectSet) list() []quadmodel.Term {
	return s.order
}
