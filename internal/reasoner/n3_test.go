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

package reasoner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

func TestParseN3SingleRuleWithPrefixAndTypeShorthand(t *testing.T) {
	doc := `
@prefix ex: <http://example.org/> .
{ ?x a ex:Manager } => { ?x a ex:Employee } .
`
	rules, quadCount, err := ParseN3(doc)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, 2, quadCount)

	r := rules[0]
	require.Len(t, r.Antecedent, 1)
	require.True(t, r.Antecedent[0].Subject.isVar())
	require.Equal(t, quadmodel.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"), r.Antecedent[0].Predicate.bound)
	require.Equal(t, quadmodel.IRI("http://example.org/Manager"), r.Antecedent[0].Object.bound)
	require.Equal(t, quadmodel.IRI("http://example.org/Employee"), r.Consequent[0].Object.bound)
}

func TestParseN3MultipleRulesAndTriplesPerGroup(t *testing.T) {
	doc := `
@prefix ex: <http://example.org/> .
{ ?x ex:manages ?y . ?y ex:reportsTo ?x } => { ?x ex:oversees ?y } .
{ ?x a ex:Manager } => { ?x a ex:Employee } .
`
	rules, _, err := ParseN3(doc)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	require.Len(t, rules[0].Antecedent, 2)
}

func TestParseN3LiteralWithDatatypeAndLanguage(t *testing.T) {
	doc := `
@prefix ex: <http://example.org/> .
{ ?x ex:score "1"^^<http://www.w3.org/2001/XMLSchema#integer> } => { ?x ex:flagged "yes"@en } .
`
	rules, _, err := ParseN3(doc)
	require.NoError(t, err)
	anteLit := rules[0].Antecedent[0].Object.bound.(quadmodel.Literal)
	require.Equal(t, "1", anteLit.Lexical)
	require.Equal(t, quadmodel.IRI("http://www.w3.org/2001/XMLSchema#integer"), anteLit.Datatype)

	consLit := rules[0].Consequent[0].Object.bound.(quadmodel.Literal)
	require.Equal(t, "yes", consLit.Lexical)
	require.Equal(t, "en", consLit.Lang)
}

func TestParseN3RejectsUnknownPrefix(t *testing.T) {
	doc := `{ ?x a unknown:Thing } => { ?x a unknown:Other } .`
	_, _, err := ParseN3(doc)
	require.Error(t, err)
}

func TestParseN3RejectsMissingImplicationArrow(t *testing.T) {
	doc := `{ ?x a <http://ex/Thing> } { ?x a <http://ex/Other> } .`
	_, _, err := ParseN3(doc)
	require.Error(t, err)
}

func TestParseN3IgnoresComments(t *testing.T) {
	doc := `
# a comment
@prefix ex: <http://example.org/> . # trailing comment
{ ?x a ex:Manager } => { ?x a ex:Employee } .
`
	rules, _, err := ParseN3(doc)
	require.NoError(t, err)
	require.Len(t, rules, 1)
}

func TestParseN3AbsoluteIRITerm(t *testing.T) {
	doc := `{ <http://ex/bob> a <http://ex/Manager> } => { <http://ex/bob> a <http://ex/Employee> } .`
	rules, _, err := ParseN3(doc)
	require.NoError(t, err)
	require.Equal(t, quadmodel.IRI("http://ex/bob"), rules[0].Antecedent[0].Subject.bound)
}
