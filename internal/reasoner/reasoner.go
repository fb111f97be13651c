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
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visgraph/vgcore/internal/metrics"
	"github.com/visgraph/vgcore/internal/mutation"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
	"github.com/visgraph/vgcore/internal/vglog"
)

// Reasoner executes `runReasoning` commands (§4.8).
type Reasoner struct {
	Coordinator *mutation.Coordinator
	HTTPClient  *http.Client
}

// defaultRulesetTimeout is the rule-bundle fetch timeout (§5 "HTTP fetches
// honour timeoutMs (default 15 s for rule fetches ...)").
const defaultRulesetTimeout = 15 * time.Second

// New returns a Reasoner wired to c, with a default HTTP client.
func New(c *mutation.Coordinator) *Reasoner {
	return &Reasoner{Coordinator: c, HTTPClient: &http.Client{Timeout: defaultRulesetTimeout}}
}

// fetchRuleset tries the candidate URLs of §4.8 step 3 in order, returning
// the first non-empty successful body.
func (r *Reasoner) fetchRuleset(ctx context.Context, baseURL, name string) (string, bool) {
	candidates := []string{
		joinURL(baseURL, "reasoning-rules/"+name),
		"/reasoning-rules/" + name,
		joinURL(baseURL, name),
		name,
	}
	for _, u := range candidates {
		if body, ok := r.tryFetch(ctx, u); ok {
			return body, true
		}
	}
	return "", false
}

func joinURL(base, rel string) string {
	if base == "" {
		return rel
	}
	if strings.HasSuffix(base, "/") {
		return base + rel
	}
	return base + "/" + rel
}

func (r *Reasoner) tryFetch(ctx context.Context, u string) (string, bool) {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", false
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil || len(b) == 0 {
		return "", false
	}
	return string(b), true
}

// Run executes one `runReasoning` command end to end (§4.8 steps 1-11),
// emitting `reasoningStage` events as it progresses and returning the
// final `reasoningResult` payload for the caller to both emit as an event
// and embed in the command response.
func (r *Reasoner) Run(ctx context.Context, p protocol.RunReasoningPayload, emit func(kind string, payload interface{})) protocol.ReasoningResultPayload {
	start := time.Now()
	emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{ID: p.ReasoningID, Stage: "start"})

	inPlace := len(p.Quads) == 0

	var working []quadmodel.Quad
	if inPlace {
		working = r.Coordinator.Store.GetQuads(nil, nil, nil, nil)
	} else {
		for _, w := range p.Quads {
			q, err := w.ToQuad()
			if err != nil {
				continue
			}
			working = append(working, q)
		}
	}

	var rules []Rule
	ruleQuadCount := 0
	anyFetched := false
	for _, name := range p.Rulesets {
		emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{ID: p.ReasoningID, Stage: "fetch-ruleset", Meta: map[string]interface{}{"name": name}})
		body, ok := r.fetchRuleset(ctx, p.BaseURL, name)
		if !ok {
			emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{ID: p.ReasoningID, Stage: "ruleset-parse-error", Meta: map[string]interface{}{"name": name}})
			continue
		}
		anyFetched = true
		parsed, qc, err := ParseN3(body)
		if err != nil {
			vglog.Warningf("reasoner: ruleset %q: %v", name, err)
			emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{ID: p.ReasoningID, Stage: "ruleset-parse-error", Meta: map[string]interface{}{"name": name}})
			continue
		}
		rules = append(rules, parsed...)
		ruleQuadCount += qc
		emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{ID: p.ReasoningID, Stage: "ruleset-parsed", Meta: map[string]interface{}{"name": name, "quadCount": qc}})
	}

	if !anyFetched {
		result := protocol.ReasoningResultPayload{
			ID:         p.ReasoningID,
			DurationMs: time.Since(start).Milliseconds(),
			Errors:     []protocol.ValidationEntry{},
			Warnings: []protocol.ValidationEntry{
				{Severity: "warning", Message: "Reasoner unavailable; no inferred triples were generated."},
			},
			Inferences: []protocol.InferenceEntry{},
			Meta:       protocol.ReasoningResultMeta{UsedReasoner: false, TotalDurationMs: time.Since(start).Milliseconds()},
		}
		metrics.ReasoningRuns.WithLabelValues("false").Inc()
		metrics.ReasoningDuration.Observe(time.Since(start).Seconds())
		emit(protocol.EventReasoningResult, result)
		return result
	}

	workerStart := time.Now()
	derived := ForwardChain(rules, working)
	workerDuration := time.Since(workerStart)
	emit(protocol.EventReasoningStage, protocol.ReasoningStagePayload{
		ID: p.ReasoningID, Stage: "reasoner-complete",
		Meta: map[string]interface{}{"durationMs": workerDuration.Milliseconds(), "ruleQuadCount": ruleQuadCount},
	})

	inferredGraph := quadmodel.IRI(store.GraphInferred)
	var promoted []quadmodel.Quad
	touched := make(map[string]quadmodel.Term)
	var touchedOrder []quadmodel.Term

	addTouched := func(t quadmodel.Term) {
		k := quadmodel.TermKey(t)
		if _, ok := touched[k]; ok {
			return
		}
		touched[k] = t
		touchedOrder = append(touchedOrder, t)
	}

	for _, q := range derived {
		q.Graph = inferredGraph
		if inPlace {
			existing := r.Coordinator.Store.GetQuads(q.Subject, q.Predicate, q.Object, nil)
			for _, m := range existing {
				if quadmodel.GraphName(m.Graph) != store.GraphInferred {
					r.Coordinator.Store.RemoveQuad(m)
				}
			}
			r.Coordinator.Store.AddQuad(q)
		}
		promoted = append(promoted, q)
		addTouched(q.Subject)
	}

	errors, warnings := extractValidation(promoted)
	inferences := buildInferences(promoted)

	if inPlace && len(promoted) > 0 {
		r.Coordinator.EmitChange("runReasoning", map[string]interface{}{
			"reasoningId": p.ReasoningID,
			"added":       len(promoted),
		})
		if p.EmitSubjects {
			r.Coordinator.EmitSubjects(touchedOrder)
		}
	}

	result := protocol.ReasoningResultPayload{
		ID:         p.ReasoningID,
		DurationMs: time.Since(start).Milliseconds(),
		Errors:     errors,
		Warnings:   warnings,
		Inferences: inferences,
		Meta: protocol.ReasoningResultMeta{
			UsedReasoner:     true,
			RuleQuadCount:    ruleQuadCount,
			AddedCount:       len(promoted),
			WorkerDurationMs: workerDuration.Milliseconds(),
			TotalDurationMs:  time.Since(start).Milliseconds(),
		},
	}
	metrics.ReasoningRuns.WithLabelValues("true").Inc()
	metrics.ReasoningDuration.Observe(time.Since(start).Seconds())
	emit(protocol.EventReasoningResult, result)
	return result
}

// extractValidation scans promoted (already-graph-homed) quads for SHACL
// ValidationResult subjects, grouping focus nodes/message/severity per
// subject and classifying by whether the severity IRI contains "Violation"
// (§4.8 step 8).
func extractValidation(quads []quadmodel.Quad) (errors, warnings []protocol.ValidationEntry) {
	type acc struct {
		focus    []string
		message  string
		severity string
		isResult bool
	}
	bySubject := make(map[string]*acc)
	order := []string{}

	get := func(subj quadmodel.Term) *acc {
		k := quadmodel.TermKey(subj)
		a, ok := bySubject[k]
		if !ok {
			a = &acc{}
			bySubject[k] = a
			order = append(order, k)
		}
		return a
	}

	for _, q := range quads {
		pred, ok := q.Predicate.(quadmodel.IRI)
		if !ok {
			continue
		}
		a := get(q.Subject)
		switch string(pred) {
		case store.RDFType:
			if obj, ok := q.Object.(quadmodel.IRI); ok && string(obj) == store.SHResult {
				a.isResult = true
			}
		case store.SHFocus:
			a.focus = append(a.focus, q.Object.String())
		case store.SHMessage:
			if lit, ok := q.Object.(quadmodel.Literal); ok {
				a.message = lit.Lexical
			}
		case store.SHSeverity:
			if obj, ok := q.Object.(quadmodel.IRI); ok {
				a.severity = string(obj)
			}
		}
	}

	for _, k := range order {
		a := bySubject[k]
		if !a.isResult {
			continue
		}
		entry := protocol.ValidationEntry{FocusNodes: a.focus, Message: a.message}
		if strings.Contains(a.severity, "Violation") {
			entry.Severity = "critical"
			errors = append(errors, entry)
		} else {
			entry.Severity = "warning"
			warnings = append(warnings, entry)
		}
	}
	if errors == nil {
		errors = []protocol.ValidationEntry{}
	}
	if warnings == nil {
		warnings = []protocol.ValidationEntry{}
	}
	return errors, warnings
}

// buildInferences classifies each promoted quad as "class" (rdf:type
// predicate, confidence 0.95) or "relationship" (confidence 0.9), per
// §4.8 step 9.
func buildInferences(quads []quadmodel.Quad) []protocol.InferenceEntry {
	out := make([]protocol.InferenceEntry, 0, len(quads))
	for _, q := range quads {
		kind, confidence := "relationship", 0.9
		if pred, ok := q.Predicate.(quadmodel.IRI); ok && string(pred) == store.RDFType {
			kind, confidence = "class", 0.95
		}
		out = append(out, protocol.InferenceEntry{
			Type:       kind,
			Subject:    q.Subject.String(),
			Predicate:  q.Predicate.String(),
			Object:     q.Object.String(),
			Confidence: confidence,
		})
	}
	return out
}
