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

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

func mkQuad(s, p, o, g string) quadmodel.Quad {
	return quadmodel.Quad{
		Subject:   quadmodel.IRI(s),
		Predicate: quadmodel.IRI(p),
		Object:    quadmodel.IRI(o),
		Graph:     quadmodel.IRI(g),
	}
}

func TestAddQuadRejectsExactDuplicate(t *testing.T) {
	s := New()
	q := mkQuad("http://ex/a", "http://ex/p", "http://ex/b", GraphData)
	require.True(t, s.AddQuad(q))
	require.False(t, s.AddQuad(q))
	require.Equal(t, 1, s.CountQuads(nil, nil, nil, nil))
}

func TestRemoveQuadStructuralMatch(t *testing.T) {
	s := New()
	q := mkQuad("http://ex/a", "http://ex/p", "http://ex/b", GraphData)
	s.AddQuad(q)
	require.True(t, s.RemoveQuad(q))
	require.False(t, s.RemoveQuad(q))
	require.Equal(t, 0, s.CountQuads(nil, nil, nil, nil))
}

func TestGetQuadsWildcards(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p1", "http://ex/x", GraphData))
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p2", "http://ex/y", GraphData))
	s.AddQuad(mkQuad("http://ex/b", "http://ex/p1", "http://ex/x", GraphOntologies))

	bySubj := s.GetQuads(quadmodel.IRI("http://ex/a"), nil, nil, nil)
	require.Len(t, bySubj, 2)

	byGraph := s.GetQuads(nil, nil, nil, quadmodel.IRI(GraphOntologies))
	require.Len(t, byGraph, 1)

	all := s.GetQuads(nil, nil, nil, nil)
	require.Len(t, all, 3)
}

func TestCountByGraph(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/x", GraphData))
	s.AddQuad(mkQuad("http://ex/b", "http://ex/p", "http://ex/y", GraphData))
	s.AddQuad(mkQuad("http://ex/c", "http://ex/p", "http://ex/z", GraphOntologies))

	counts := s.CountByGraph()
	require.Equal(t, 2, counts[GraphData])
	require.Equal(t, 1, counts[GraphOntologies])
}

func TestClearGraphOnlyAffectsNamedGraph(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/x", GraphData))
	s.AddQuad(mkQuad("http://ex/b", "http://ex/p", "http://ex/y", GraphOntologies))

	removed := s.ClearGraph(GraphData)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, s.CountQuads(nil, nil, nil, quadmodel.IRI(GraphData)))
	require.Equal(t, 1, s.CountQuads(nil, nil, nil, quadmodel.IRI(GraphOntologies)))

	// Idempotent: clearing again removes nothing further (§8 idempotence law).
	require.Equal(t, 0, s.ClearGraph(GraphData))
}

func TestClearResetsChangeCounter(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/x", GraphData))
	s.IncrementChangeCount()
	require.Equal(t, int64(1), s.ChangeCount())

	s.Clear()
	require.Equal(t, int64(0), s.ChangeCount())
	require.Empty(t, s.CountByGraph())
}

func TestValidateRejectsInvariantViolations(t *testing.T) {
	bad := quadmodel.Quad{
		Subject:   quadmodel.Literal{Lexical: "not a subject"},
		Predicate: quadmodel.IRI("http://ex/p"),
		Object:    quadmodel.IRI("http://ex/o"),
		Graph:     quadmodel.IRI(GraphData),
	}
	require.ErrorIs(t, Validate(bad), ErrNonNamedSubject)

	badPred := mkQuad("http://ex/a", "http://ex/p", "http://ex/o", GraphData)
	badPred.Predicate = quadmodel.Literal{Lexical: "p"}
	require.ErrorIs(t, Validate(badPred), ErrNonIRIPredicate)

	badObj := mkQuad("http://ex/a", "http://ex/p", "http://ex/o", GraphData)
	badObj.Object = quadmodel.DefaultGraph
	require.ErrorIs(t, Validate(badObj), ErrDefaultGraphObj)

	require.NoError(t, Validate(mkQuad("http://ex/a", "http://ex/p", "http://ex/o", GraphData)))
}

func TestDistinctSubjectsPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/b", "http://ex/p", "http://ex/x", GraphData))
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/y", GraphData))
	s.AddQuad(mkQuad("http://ex/b", "http://ex/p2", "http://ex/z", GraphData))

	subjects := s.DistinctSubjects(GraphData)
	require.Len(t, subjects, 2)
	require.Equal(t, quadmodel.IRI("http://ex/b"), subjects[0])
	require.Equal(t, quadmodel.IRI("http://ex/a"), subjects[1])
}

func TestQuadsBySubjectSpansAllGraphs(t *testing.T) {
	s := New()
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/x", GraphData))
	s.AddQuad(mkQuad("http://ex/a", "http://ex/p", "http://ex/y", GraphOntologies))

	quads := s.QuadsBySubject(quadmodel.IRI("http://ex/a"))
	require.Len(t, quads, 2)
}
