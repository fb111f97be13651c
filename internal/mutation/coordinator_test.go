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

package mutation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/broker"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
)

// recorder captures every event the Coordinator emits, in order, for
// assertions on §4.6's change-then-subjects ordering guarantee.
type recorder struct {
	kinds []string
	evs   []protocol.Event
}

func newRecorder(br *broker.Broker) *recorder {
	r := &recorder{}
	br.Subscribe(nil, func(ev protocol.Event) {
		r.kinds = append(r.kinds, ev.Event)
		r.evs = append(r.evs, ev)
	})
	return r
}

func newFixture() (*mutationFixture, *recorder) {
	st := store.New()
	reg := store.NewRegistry()
	br := broker.New()
	c := New(st, reg, br)
	return &mutationFixture{Store: st, Registry: reg, Coordinator: c}, newRecorder(br)
}

type mutationFixture struct {
	Store       *store.Store
	Registry    *store.Registry
	Coordinator *Coordinator
}

func q(s, p, o, g string) quadmodel.Quad {
	return quadmodel.Quad{Subject: quadmodel.IRI(s), Predicate: quadmodel.IRI(p), Object: quadmodel.IRI(o), Graph: quadmodel.IRI(g)}
}

func TestSyncBatchAddsEmitChangeThenSubjects(t *testing.T) {
	f, rec := newFixture()
	res := f.Coordinator.SyncBatch([]quadmodel.Quad{q("http://ex/a", "http://ex/p", "http://ex/b", store.GraphData)}, nil, store.GraphData, false)
	require.Equal(t, BatchResult{Added: 1, Removed: 0}, res)
	require.Equal(t, []string{protocol.EventChange, protocol.EventSubjects}, rec.kinds)
}

func TestSyncBatchEmptyProducesNoChangeEvent(t *testing.T) {
	f, rec := newFixture()
	res := f.Coordinator.SyncBatch(nil, nil, store.GraphData, false)
	require.Equal(t, BatchResult{}, res)
	require.Empty(t, rec.kinds)
}

func TestSyncBatchDedupesWithinBatchAndAcrossCalls(t *testing.T) {
	f, rec := newFixture()
	quad := q("http://ex/a", "http://ex/p", "http://ex/b", store.GraphData)

	first := f.Coordinator.SyncBatch([]quadmodel.Quad{quad}, nil, store.GraphData, false)
	require.Equal(t, 1, first.Added)

	rec.kinds = nil
	second := f.Coordinator.SyncBatch([]quadmodel.Quad{quad}, nil, store.GraphData, false)
	require.Equal(t, 0, second.Added)
	require.Empty(t, rec.kinds, "no change event on a no-op batch")
}

func TestSyncBatchBlacklistedSubjectOmittedFromSubjectsEvent(t *testing.T) {
	f, _ := newFixture()
	owlThing := "http://www.w3.org/2002/07/owl#Thing"
	res := f.Coordinator.SyncBatch([]quadmodel.Quad{
		{Subject: quadmodel.IRI(owlThing), Predicate: quadmodel.IRI(store.RDFType), Object: quadmodel.IRI("http://www.w3.org/2002/07/owl#Class"), Graph: quadmodel.IRI(store.GraphData)},
	}, nil, store.GraphData, false)
	require.Equal(t, 1, res.Added)

	var gotSubjects protocol.SubjectsPayload
	br := broker.New()
	f.Coordinator.Broker = br
	br.Subscribe([]string{protocol.EventSubjects}, func(ev protocol.Event) {
		gotSubjects = ev.Payload.(protocol.SubjectsPayload)
	})
	f.Coordinator.EmitSubjects([]quadmodel.Term{quadmodel.IRI(owlThing)})
	require.Empty(t, gotSubjects.Subjects)
}

func TestSyncBatchRemovesBeforeAddsWithinBatch(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://ex/a", "http://ex/p", "http://ex/old", store.GraphData))

	res := f.Coordinator.SyncBatch(
		[]quadmodel.Quad{q("http://ex/a", "http://ex/p", "http://ex/new", store.GraphData)},
		[]quadmodel.QuadUpdate{{Subject: quadmodel.IRI("http://ex/a"), Predicate: quadmodel.IRI("http://ex/p"), Graph: quadmodel.IRI(store.GraphData)}},
		store.GraphData, false,
	)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, 1, res.Added)
	require.Equal(t, 1, f.Store.CountQuads(quadmodel.IRI("http://ex/a"), nil, nil, nil))
}

func TestSyncBatchRemovePatternWithoutObjectMatchesAll(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://ex/s", "http://ex/p", "http://ex/o1", store.GraphData))
	f.Store.AddQuad(q("http://ex/s", "http://ex/p", "http://ex/o2", store.GraphData))

	res := f.Coordinator.SyncBatch(nil, []quadmodel.QuadUpdate{
		{Subject: quadmodel.IRI("http://ex/s"), Predicate: quadmodel.IRI("http://ex/p"), Graph: quadmodel.IRI(store.GraphData)},
	}, store.GraphData, false)
	require.Equal(t, 2, res.Removed)
}

func TestSyncLoadReplacesGraphContents(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://ex/old", "http://ex/p", "http://ex/o", store.GraphData))

	res := f.Coordinator.SyncLoad([]quadmodel.Quad{
		q("http://ex/new", "http://ex/p", "http://ex/o", store.GraphDefault),
	}, store.GraphData, nil)
	require.Equal(t, 1, res.Removed)
	require.Equal(t, 1, res.Added)
	require.Equal(t, 0, f.Store.CountQuads(quadmodel.IRI("http://ex/old"), nil, nil, nil))
}

func TestSyncRemoveGraphIdempotent(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://ex/a", "http://ex/p", "http://ex/b", store.GraphData))

	require.Equal(t, 1, f.Coordinator.SyncRemoveGraph(store.GraphData))
	require.Equal(t, 0, f.Coordinator.SyncRemoveGraph(store.GraphData))
}

func TestSyncRemoveAllQuadsForIri(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://ex/a", "http://ex/p", "http://ex/b", store.GraphData))
	f.Store.AddQuad(q("http://ex/c", "http://ex/p", "http://ex/a", store.GraphData))

	res := f.Coordinator.SyncRemoveAllQuadsForIri("http://ex/a", store.GraphData)
	require.Equal(t, 1, res.RemovedSubjects)
	require.Equal(t, 1, res.RemovedObjects)
	require.Equal(t, 0, f.Store.CountQuads(nil, nil, nil, nil))
}

func TestPurgeNamespaceIdempotent(t *testing.T) {
	f, _ := newFixture()
	f.Registry.SetNamespaces(map[string]string{"ex": "http://example.org/"}, true)
	f.Store.AddQuad(q("http://example.org/a", "http://ex/p", "http://ex/b", store.GraphData))

	first := f.Coordinator.PurgeNamespace("ex")
	require.Equal(t, 1, first.Removed)
	require.True(t, first.PrefixRemoved)

	second := f.Coordinator.PurgeNamespace("ex")
	require.Equal(t, 0, second.Removed)
	require.False(t, second.PrefixRemoved)
}

func TestClearResetsEverythingAndEmitsEmptySubjects(t *testing.T) {
	f, rec := newFixture()
	f.Store.AddQuad(q("http://ex/a", "http://ex/p", "http://ex/b", store.GraphData))
	f.Store.IncrementChangeCount()

	f.Coordinator.Clear(store.NewRegistry())
	require.Empty(t, f.Store.CountByGraph())
	require.Equal(t, int64(0), f.Store.ChangeCount())
	require.Equal(t, []string{protocol.EventChange, protocol.EventSubjects}, rec.kinds)

	subjEv := rec.evs[1].Payload.(protocol.SubjectsPayload)
	require.Empty(t, subjEv.Subjects)
}

func TestRemoveQuadsByNamespace(t *testing.T) {
	f, _ := newFixture()
	f.Store.AddQuad(q("http://example.org/a", "http://ex/p", "http://ex/b", store.GraphData))
	f.Store.AddQuad(q("http://other.org/a", "http://ex/p", "http://ex/b", store.GraphData))

	removed := f.Coordinator.RemoveQuadsByNamespace(store.GraphData, []string{"http://example.org/"})
	require.Equal(t, 1, removed)
	require.Equal(t, 1, f.Store.CountQuads(nil, nil, nil, nil))
}
