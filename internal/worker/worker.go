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

// Package worker implements the single-threaded cooperative core (§2
// "the worker"): it owns the Store/Registry/Broker and wires every
// component (Coordinator, Dispatcher, Projector, Reasoner) behind one
// command-dispatch entry point, grounded on the teacher's internal/http
// handlers (api_v1.go) for the "decode envelope, switch on command name,
// build a response" shape, generalized from HTTP handlers to the
// channel-agnostic InboundEnvelope/Response pair of §4.2.
package worker

import (
	"context"
	"fmt"

	"time"

	"github.com/visgraph/vgcore/internal/broker"
	"github.com/visgraph/vgcore/internal/dispatcher"
	"github.com/visgraph/vgcore/internal/metrics"
	"github.com/visgraph/vgcore/internal/mutation"
	"github.com/visgraph/vgcore/internal/parser"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/reasoner"
	"github.com/visgraph/vgcore/internal/store"
	"github.com/visgraph/vgcore/internal/vglog"
)

// Worker owns every piece of mutable state and dispatches decoded commands
// against it. It is not safe for concurrent use from multiple goroutines
// without external serialization -- callers (the transport layer) are
// expected to run one command at a time per §5 "single-threaded
// cooperative".
type Worker struct {
	Store       *store.Store
	Registry    *store.Registry
	Broker      *broker.Broker
	Coordinator *mutation.Coordinator
	Dispatcher  *dispatcher.Dispatcher
	Reasoner    *reasoner.Reasoner

	ReadOnly bool
}

// New constructs a fully wired Worker with fresh state.
func New() *Worker {
	st := store.New()
	reg := store.NewRegistry()
	br := broker.New()
	coord := mutation.New(st, reg, br)
	return &Worker{
		Store:       st,
		Registry:    reg,
		Broker:      br,
		Coordinator: coord,
		Dispatcher:  dispatcher.New(coord),
		Reasoner:    reasoner.New(coord),
	}
}

// HandleEnvelope decodes and routes one inbound command envelope,
// returning the Response to send back (§4.2). loadFromUrl and subscribe/
// unsubscribe/ack are not commands and are not handled here -- see
// HandleLoadFromURL and the transport layer's subscription bookkeeping.
func (w *Worker) HandleEnvelope(ctx context.Context, env protocol.InboundEnvelope) protocol.Response {
	payload, err := protocol.DecodeCommandPayload(env.Command, env.Payload)
	if err != nil {
		return protocol.NewErrResponse(env.ID, err)
	}
	result, err := w.Dispatch(ctx, env.Command, payload)
	if err != nil {
		return protocol.NewErrResponse(env.ID, err)
	}
	return protocol.NewOKResponse(env.ID, result)
}

// Dispatch executes one already-decoded command and returns its result
// value (to be wrapped in a Response by the caller).
func (w *Worker) Dispatch(ctx context.Context, command string, payload interface{}) (interface{}, error) {
	start := time.Now()
	defer func() { metrics.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds()) }()

	if w.ReadOnly && isMutating(command) {
		return nil, fmt.Errorf("worker: %q is disabled in read-only mode", command)
	}
	switch command {
	case protocol.CmdPing:
		return "pong", nil

	case protocol.CmdClear:
		w.Coordinator.Clear(store.NewRegistry())
		return true, nil

	case protocol.CmdGetGraphCounts:
		return w.Store.CountByGraph(), nil

	case protocol.CmdGetNamespaces:
		return w.Registry.Namespaces(), nil

	case protocol.CmdSetNamespaces:
		p := payload.(protocol.SetNamespacesPayload)
		return w.Registry.SetNamespaces(p.Namespaces, p.Replace), nil

	case protocol.CmdGetBlacklist:
		return w.Registry.GetBlacklist(), nil

	case protocol.CmdSetBlacklist:
		p := payload.(protocol.SetBlacklistPayload)
		return w.Registry.SetBlacklist(p.Prefixes, p.URIs), nil

	case protocol.CmdSyncBatch:
		p := payload.(protocol.SyncBatchPayload)
		return w.syncBatch(p)

	case protocol.CmdSyncLoad:
		p := payload.(protocol.SyncLoadPayload)
		quads, err := decodeQuads(p.Quads)
		if err != nil {
			return nil, err
		}
		return w.Coordinator.SyncLoad(quads, p.GraphName, p.Prefixes), nil

	case protocol.CmdSyncRemoveGraph:
		p := payload.(protocol.SyncRemoveGraphPayload)
		return map[string]interface{}{"removed": w.Coordinator.SyncRemoveGraph(p.GraphName)}, nil

	case protocol.CmdSyncRemoveAllQuadsForIri:
		p := payload.(protocol.SyncRemoveAllQuadsForIriPayload)
		return w.Coordinator.SyncRemoveAllQuadsForIri(p.IRI, p.GraphName), nil

	case protocol.CmdImportSerialized:
		p := payload.(protocol.ImportSerializedPayload)
		res, err := w.Dispatcher.ImportSerialized(p)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"graphName": res.GraphName,
			"added":     res.Added,
			"prefixes":  res.Prefixes,
			"quads":     res.Quads,
		}, nil

	case protocol.CmdExportGraph:
		p := payload.(protocol.ExportGraphPayload)
		return w.exportGraph(p)

	case protocol.CmdRemoveQuadsByNamespace:
		p := payload.(protocol.RemoveQuadsByNamespacePayload)
		return map[string]interface{}{"removed": w.Coordinator.RemoveQuadsByNamespace(p.GraphName, p.NamespaceURIs)}, nil

	case protocol.CmdPurgeNamespace:
		p := payload.(protocol.PurgeNamespacePayload)
		return w.Coordinator.PurgeNamespace(p.PrefixOrURI), nil

	case protocol.CmdEmitAllSubjects:
		p := payload.(protocol.EmitAllSubjectsPayload)
		graph := p.GraphName
		if graph == "" {
			graph = store.GraphData
		}
		return map[string]interface{}{"count": w.Coordinator.EmitAllSubjects(graph)}, nil

	case protocol.CmdTriggerSubjects:
		p := payload.(protocol.TriggerSubjectsPayload)
		return map[string]interface{}{"count": w.Coordinator.TriggerSubjects(p.Subjects)}, nil

	case protocol.CmdFetchQuadsPage:
		p := payload.(protocol.FetchQuadsPagePayload)
		return w.fetchQuadsPage(p)

	case protocol.CmdGetQuads:
		p := payload.(protocol.GetQuadsPayload)
		return w.getQuads(p)

	case protocol.CmdRunReasoning:
		p := payload.(protocol.RunReasoningPayload)
		return w.Reasoner.Run(ctx, p, w.Broker.Emit), nil

	default:
		return nil, fmt.Errorf("worker: unhandled command %q", command)
	}
}

// mutatingCommands lists every command that can change store/registry
// state; Dispatch rejects them while Worker.ReadOnly is set.
var mutatingCommands = map[string]bool{
	protocol.CmdClear: true, protocol.CmdSetNamespaces: true, protocol.CmdSetBlacklist: true,
	protocol.CmdSyncBatch: true, protocol.CmdSyncLoad: true, protocol.CmdSyncRemoveGraph: true,
	protocol.CmdSyncRemoveAllQuadsForIri: true, protocol.CmdImportSerialized: true,
	protocol.CmdRemoveQuadsByNamespace: true, protocol.CmdPurgeNamespace: true,
	protocol.CmdRunReasoning: true,
}

func isMutating(command string) bool { return mutatingCommands[command] }

func (w *Worker) syncBatch(p protocol.SyncBatchPayload) (interface{}, error) {
	adds, err := decodeQuads(p.Adds)
	if err != nil {
		return nil, err
	}
	removes := make([]quadmodel.QuadUpdate, 0, len(p.Removes))
	for _, rw := range p.Removes {
		u, err := rw.ToQuadUpdate()
		if err != nil {
			return nil, err
		}
		removes = append(removes, u)
	}
	res := w.Coordinator.SyncBatch(adds, removes, p.GraphName, p.Options.SuppressSubjects)
	return map[string]interface{}{"added": res.Added, "removed": res.Removed}, nil
}

func decodeQuads(wires []protocol.QuadWire) ([]quadmodel.Quad, error) {
	out := make([]quadmodel.Quad, 0, len(wires))
	for _, w := range wires {
		q, err := w.ToQuad()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func (w *Worker) exportGraph(p protocol.ExportGraphPayload) (interface{}, error) {
	g := quadmodel.GraphTerm(p.GraphName)
	quads := w.Store.GetQuads(nil, nil, nil, g)
	name, ok := parser.CanonicalizeMime(p.Format)
	if !ok {
		name = p.Format
	}
	content, err := serializeExport(name, quads)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"graphName": p.GraphName, "format": name, "content": content, "quadCount": len(quads)}, nil
}

func (w *Worker) fetchQuadsPage(p protocol.FetchQuadsPagePayload) (interface{}, error) {
	var s, pr, o, g quadmodel.Term
	if p.Filter != nil {
		if p.Filter.Subject != "" {
			s = quadmodel.CoerceTerm(p.Filter.Subject, false)
		}
		if p.Filter.Predicate != "" {
			pr = quadmodel.CoerceTerm(p.Filter.Predicate, false)
		}
		if p.Filter.Object != "" {
			o = quadmodel.CoerceTerm(p.Filter.Object, true)
		}
		if p.Filter.GraphName != "" {
			g = quadmodel.GraphTerm(p.Filter.GraphName)
		}
	}
	all := w.Store.GetQuads(s, pr, o, g)
	total := len(all)

	end := total
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	start := p.Offset
	if start > total {
		start = total
	}
	if end < start {
		end = start
	}
	page := all[start:end]

	wires := make([]protocol.QuadWire, len(page))
	for i, q := range page {
		wires[i] = protocol.FromQuad(q)
	}
	result := map[string]interface{}{
		"total":     total,
		"offset":    p.Offset,
		"limit":     p.Limit,
		"items":     wires,
		"serialize": p.Serialize,
	}
	if p.Serialize {
		content, err := serializeExport("turtle", page)
		if err == nil {
			result["serialized"] = content
		}
	}
	return result, nil
}

func (w *Worker) getQuads(p protocol.GetQuadsPayload) (interface{}, error) {
	var s, pr, o, g quadmodel.Term
	if p.Subject != "" {
		s = quadmodel.CoerceTerm(p.Subject, false)
	}
	if p.Predicate != "" {
		pr = quadmodel.CoerceTerm(p.Predicate, false)
	}
	if p.Object != "" {
		o = quadmodel.CoerceTerm(p.Object, true)
	}
	if p.GraphName != "" {
		g = quadmodel.GraphTerm(p.GraphName)
	}
	quads := w.Store.GetQuads(s, pr, o, g)
	wires := make([]protocol.QuadWire, len(quads))
	for i, q := range quads {
		wires[i] = protocol.FromQuad(q)
	}
	return wires, nil
}

// HandleLoadFromURL runs the streaming loadFromUrl path (§4.5), logging
// and swallowing the error since the dispatcher has already reported it to
// the sink as a `stream{kind:"error"}` message.
func (w *Worker) HandleLoadFromURL(ctx context.Context, env protocol.InboundEnvelope, sink dispatcher.Sink) {
	p := protocol.LoadFromURLPayload{URL: env.URL, GraphName: env.GraphName, TimeoutMs: env.TimeoutMs, Headers: env.Headers}
	if err := p.Validate(); err != nil {
		_ = sink.Send(protocol.StreamMessage{Type: protocol.TypeStream, ID: env.ID, Kind: protocol.StreamError, Message: err.Error()})
		return
	}
	if err := w.Dispatcher.LoadFromURL(ctx, env.ID, p, sink); err != nil {
		vglog.Warningf("worker: loadFromUrl %s: %v", p.URL, err)
	}
}

func serializeExport(format string, quads []quadmodel.Quad) (string, error) {
	return parser.SerializeQuads(format, quads)
}
