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

// Package dispatcher implements the Streaming Parser Dispatcher (§4.5):
// content-type resolution, stream parsing, and batched/back-pressured quad
// delivery for loadFromUrl, plus the synchronous importSerialized path.
// Grounded on the teacher's internal.Load/DecompressAndLoad (internal/load.go)
// for the fetch-then-parse shape, generalized to the worker's event-driven
// ack protocol instead of a blocking quad.Writer.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/visgraph/vgcore/internal/mutation"
	"github.com/visgraph/vgcore/internal/parser"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
	"github.com/visgraph/vgcore/internal/vglog"
)

// batchSize is the back-pressure flush threshold of §4.5 step 4.
const batchSize = 1000

// defaultTimeout is the loadFromUrl fetch timeout when the host omits
// timeoutMs (§5 "HTTP fetches honour timeoutMs (default ... 120 s for data
// loads)").
const defaultTimeout = 120 * time.Second

// Sink receives the ordered loadFromUrl stream (§4.5 steps 4-7) and blocks
// on WaitAck until the host acknowledges the batch just sent, implementing
// the one-ack-per-batch-in-order back-pressure rule.
type Sink interface {
	Send(protocol.StreamMessage) error
	WaitAck(ctx context.Context, id string) error
}

// Dispatcher turns serialized RDF bytes into store mutations.
type Dispatcher struct {
	Coordinator *mutation.Coordinator
	HTTPClient  *http.Client
}

// New returns a Dispatcher wired to c, with a default HTTP client.
func New(c *mutation.Coordinator) *Dispatcher {
	return &Dispatcher{Coordinator: c, HTTPClient: &http.Client{}}
}

// ImportResult is the synchronous response to `importSerialized` (§6
// "importSerialized" response shape).
type ImportResult struct {
	GraphName string
	Added     int
	Prefixes  map[string]string
	Quads     []protocol.QuadWire
}

// ImportSerialized parses p.Content in one shot and applies it to the store
// (§4.5, the non-streaming command form of the dispatcher).
func (d *Dispatcher) ImportSerialized(p protocol.ImportSerializedPayload) (ImportResult, error) {
	f, err := parser.ResolveFormat(p.ContentType, "", p.Filename, "", []byte(p.Content))
	if err != nil {
		return ImportResult{}, err
	}
	r := f.Reader(strings.NewReader(p.Content), p.BaseIRI)

	res, err := d.ingestAll(r, p.GraphName)
	if err != nil {
		return ImportResult{}, err
	}
	d.Coordinator.Registry.MergePrefixes(res.prefixes, p.GraphName)

	if res.added > 0 {
		d.Coordinator.EmitChange("importSerialized", map[string]interface{}{
			"graphName": p.GraphName,
			"added":     res.added,
		})
		d.Coordinator.EmitSubjects(res.touched.list())
	}
	return ImportResult{GraphName: p.GraphName, Added: res.added, Prefixes: res.prefixes, Quads: res.wires}, nil
}

// LoadFromURL implements the full §4.5 algorithm: fetch, resolve media
// type, stream-parse with batched/acked delivery, and final change/subjects
// emission. It blocks until the stream completes or fails; sink.Send
// ordering and ack-waiting implement the back-pressure contract.
func (d *Dispatcher) LoadFromURL(ctx context.Context, id string, p protocol.LoadFromURLPayload, sink Sink) error {
	graphName := p.GraphName
	if graphName == "" {
		graphName = store.GraphData
	}
	timeout := defaultTimeout
	if p.TimeoutMs > 0 {
		timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sink.Send(stageMsg(id, "start", nil)); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return d.fail(id, sink, err)
	}
	req.Header.Set("Accept", "text/turtle, application/rdf+xml, application/ld+json, */*")
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return d.fail(id, sink, fmt.Errorf("loadFromUrl: fetch %s: %w", p.URL, err))
	}
	defer resp.Body.Close()

	if err := sink.Send(stageMsg(id, "fetched", map[string]interface{}{"status": resp.StatusCode})); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return d.fail(id, sink, fmt.Errorf("loadFromUrl: %s returned status %d", p.URL, resp.StatusCode))
	}

	sniff := make([]byte, 1024)
	n, _ := io.ReadFull(resp.Body, sniff)
	sniff = sniff[:n]
	body := io.MultiReader(bytes.NewReader(sniff), resp.Body)

	filename := path.Base(resp.Request.URL.Path)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if name := filenameFromDisposition(cd); name != "" {
			filename = name
		}
	}

	f, err := parser.ResolveFormat("", resp.Header.Get("Content-Type"), filename, p.URL, sniff)
	if err != nil {
		return d.fail(id, sink, err)
	}
	r := f.Reader(body, p.URL)

	quadCount := 0
	touched := newTouchedSet()
	prefixesSent := make(map[string]string)
	var pending []protocol.QuadWire

	flush := func(final bool) error {
		if len(pending) == 0 && !final {
			return nil
		}
		msg := protocol.StreamMessage{Type: protocol.TypeStream, ID: id, Kind: protocol.StreamQuads, Quads: pending, Final: final}
		if err := sink.Send(msg); err != nil {
			return err
		}
		if err := sink.WaitAck(ctx, id); err != nil {
			return err
		}
		pending = nil
		return nil
	}

	for {
		q, err := r.ReadQuad()
		if err == io.EOF {
			break
		}
		if err != nil {
			return d.fail(id, sink, fmt.Errorf("loadFromUrl: parse: %w", err))
		}

		if quadmodel.IsDefaultGraph(q.Graph) {
			q.Graph = quadmodel.GraphTerm(graphName)
		}

		if d.Coordinator.Store.AddQuad(q) {
			quadCount++
			touched.add(q.Subject)
			pending = append(pending, protocol.FromQuad(q))
		}

		for pfx, iri := range r.Prefixes() {
			if prefixesSent[pfx] != iri {
				prefixesSent[pfx] = iri
				if err := sink.Send(protocol.StreamMessage{
					Type: protocol.TypeStream, ID: id, Kind: protocol.StreamPrefix,
					Prefixes: map[string]string{pfx: iri},
				}); err != nil {
					return err
				}
			}
		}

		if len(pending) >= batchSize {
			if err := flush(false); err != nil {
				return err
			}
		}
	}

	if err := flush(true); err != nil {
		return err
	}

	d.Coordinator.Registry.MergePrefixes(r.Prefixes(), graphName)

	if quadCount > 0 {
		d.Coordinator.EmitChange("loadFromUrl", map[string]interface{}{
			"graphName": graphName,
			"url":       p.URL,
			"added":     quadCount,
		})
		d.Coordinator.EmitSubjects(touched.list())
	}

	subjects := make([]string, 0, len(touched.list()))
	for _, t := range touched.list() {
		subjects = append(subjects, t.String())
	}
	return sink.Send(protocol.StreamMessage{
		Type: protocol.TypeStream, ID: id, Kind: protocol.StreamEnd,
		Prefixes: r.Prefixes(), QuadCount: quadCount, TouchedSubjects: subjects,
	})
}

func (d *Dispatcher) fail(id string, sink Sink, err error) error {
	vglog.Errorf("dispatcher: %v", err)
	_ = sink.Send(protocol.StreamMessage{Type: protocol.TypeStream, ID: id, Kind: protocol.StreamError, Message: err.Error()})
	return err
}

func stageMsg(id, stage string, meta map[string]interface{}) protocol.StreamMessage {
	return protocol.StreamMessage{Type: protocol.TypeStream, ID: id, Kind: protocol.StreamStage, Stage: stage, Meta: meta}
}

func filenameFromDisposition(cd string) string {
	const key = "filename="
	i := strings.Index(cd, key)
	if i < 0 {
		return ""
	}
	v := strings.Trim(cd[i+len(key):], `"`)
	if j := strings.IndexByte(v, ';'); j >= 0 {
		v = v[:j]
	}
	return strings.TrimSpace(v)
}

// ingestResult accumulates the full (non-streaming) ingest of one document.
type ingestResult struct {
	added    int
	wires    []protocol.QuadWire
	prefixes map[string]string
	touched  *touchedSet
}

func (d *Dispatcher) ingestAll(r parser.Reader, graphName string) (ingestResult, error) {
	res := ingestResult{prefixes: make(map[string]string), touched: newTouchedSet()}
	for {
		q, err := r.ReadQuad()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("importSerialized: parse: %w", err)
		}
		if quadmodel.IsDefaultGraph(q.Graph) {
			q.Graph = quadmodel.GraphTerm(graphName)
		}
		if d.Coordinator.Store.AddQuad(q) {
			res.added++
			res.touched.add(q.Subject)
			res.wires = append(res.wires, protocol.FromQuad(q))
		}
	}
	for pfx, iri := range r.Prefixes() {
		res.prefixes[pfx] = iri
	}
	return res, nil
}

// touchedSet preserves first-seen order while deduping subjects, mirroring
// the Mutation Coordinator's own subjectSet (§4.6); kept as a private
// duplicate here rather than exported from mutation to avoid coupling the
// two packages' internals beyond the Coordinator's public surface.
type touchedSet struct {
	seen  map[string]bool
	order []quadmodel.Term
}

func newTouchedSet() *touchedSet { return &touchedSet{seen: make(map[string]bool)} }

func (s *touchedSet) add(t quadmodel.Term) {
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

func (s *touchedSet) list() []quadmodel.Term { return s.order }
