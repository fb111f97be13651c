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

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/dispatcher"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/quadmodel"
	"github.com/visgraph/vgcore/internal/store"
)

func envelope(t *testing.T, id, command string, payload interface{}) protocol.InboundEnvelope {
	t.Helper()
	env := protocol.InboundEnvelope{Type: protocol.TypeCommand, ID: id, Command: command}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		env.Payload = raw
	}
	return env
}

func TestHandleEnvelopePing(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdPing, nil))
	require.True(t, resp.OK)
	require.Equal(t, "1", resp.ID)
	require.Equal(t, "pong", resp.Result)
}

func TestHandleEnvelopeUnknownCommandIsErrResponse(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", "bogus", nil))
	require.False(t, resp.OK)
	require.NotEmpty(t, resp.Error)
}

func TestHandleEnvelopeSyncBatchAddsQuadsAndGetQuadsReturnsThem(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdSyncBatch, protocol.SyncBatchPayload{
		GraphName: store.GraphData,
		Adds: []protocol.QuadWire{
			{Subject: "http://ex/a", Predicate: "http://ex/p", Object: "http://ex/b"},
		},
	}))
	require.True(t, resp.OK)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, 1, result["added"])

	resp = w.HandleEnvelope(context.Background(), envelope(t, "2", protocol.CmdGetQuads, protocol.GetQuadsPayload{
		Subject: "http://ex/a",
	}))
	require.True(t, resp.OK)
	wires := resp.Result.([]protocol.QuadWire)
	require.Len(t, wires, 1)
	require.Equal(t, "http://ex/a", wires[0].Subject)
}

func TestHandleEnvelopeSyncBatchRejectsMissingGraphName(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdSyncBatch, protocol.SyncBatchPayload{
		Adds: []protocol.QuadWire{{Subject: "http://ex/a", Predicate: "http://ex/p", Object: "http://ex/b"}},
	}))
	require.False(t, resp.OK)
}

func TestHandleEnvelopeClearResetsStore(t *testing.T) {
	w := New()
	w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdSyncBatch, protocol.SyncBatchPayload{
		GraphName: store.GraphData,
		Adds:      []protocol.QuadWire{{Subject: "http://ex/a", Predicate: "http://ex/p", Object: "http://ex/b"}},
	}))
	resp := w.HandleEnvelope(context.Background(), envelope(t, "2", protocol.CmdClear, nil))
	require.True(t, resp.OK)
	require.Equal(t, 0, w.Store.CountQuads(nil, nil, nil, nil))
}

func TestHandleEnvelopeGetGraphCountsAndNamespaces(t *testing.T) {
	w := New()
	w.Registry.SetNamespaces(map[string]string{"ex": "http://example.org/"}, false)
	w.Store.AddQuad(quadmodel.Quad{
		Subject: quadmodel.IRI("http://ex/a"), Predicate: quadmodel.IRI("http://ex/p"),
		Object: quadmodel.IRI("http://ex/b"), Graph: quadmodel.IRI(store.GraphData),
	})

	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdGetGraphCounts, nil))
	require.True(t, resp.OK)
	counts := resp.Result.(map[string]int)
	require.Equal(t, 1, counts[store.GraphData])

	resp = w.HandleEnvelope(context.Background(), envelope(t, "2", protocol.CmdGetNamespaces, nil))
	require.True(t, resp.OK)
	ns := resp.Result.(map[string]string)
	require.Equal(t, "http://example.org/", ns["ex"])
}

func TestHandleEnvelopeSetAndGetBlacklist(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdSetBlacklist, protocol.SetBlacklistPayload{
		Prefixes: []string{"http://www.w3.org/2002/07/owl#"},
	}))
	require.True(t, resp.OK)

	resp = w.HandleEnvelope(context.Background(), envelope(t, "2", protocol.CmdGetBlacklist, nil))
	require.True(t, resp.OK)
}

func TestHandleEnvelopeExportGraphRejectsUnsupportedFormat(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdExportGraph, protocol.ExportGraphPayload{
		GraphName: store.GraphData, Format: "text/csv",
	}))
	require.False(t, resp.OK)
}

func TestHandleEnvelopeExportGraphSerializesStoredQuads(t *testing.T) {
	w := New()
	w.Store.AddQuad(quadmodel.Quad{
		Subject: quadmodel.IRI("http://ex/a"), Predicate: quadmodel.IRI("http://ex/p"),
		Object: quadmodel.Literal{Lexical: "v"}, Graph: quadmodel.IRI(store.GraphData),
	})
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdExportGraph, protocol.ExportGraphPayload{
		GraphName: store.GraphData, Format: "n-quads",
	}))
	require.True(t, resp.OK)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, 1, result["quadCount"])
	require.Contains(t, result["content"], "http://ex/a")
}

func TestHandleEnvelopeFetchQuadsPageAppliesOffsetAndLimit(t *testing.T) {
	w := New()
	for i := 0; i < 5; i++ {
		w.Store.AddQuad(quadmodel.Quad{
			Subject:   quadmodel.IRI("http://ex/s"),
			Predicate: quadmodel.IRI("http://ex/p"),
			Object:    quadmodel.IRI(string(rune('a' + i))),
			Graph:     quadmodel.IRI(store.GraphData),
		})
	}
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdFetchQuadsPage, protocol.FetchQuadsPagePayload{
		Offset: 2, Limit: 2,
	}))
	require.True(t, resp.OK)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, 5, result["total"])
	require.Equal(t, 2, result["offset"])
	require.Equal(t, 2, result["limit"])
	require.Len(t, result["items"].([]protocol.QuadWire), 2)
}

func TestHandleEnvelopeFetchQuadsPageRejectsNegativeOffset(t *testing.T) {
	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdFetchQuadsPage, protocol.FetchQuadsPagePayload{
		Offset: -1,
	}))
	require.False(t, resp.OK)
}

func TestHandleEnvelopeEmitAllSubjectsDefaultsToGraphData(t *testing.T) {
	w := New()
	w.Store.AddQuad(quadmodel.Quad{
		Subject: quadmodel.IRI("http://ex/a"), Predicate: quadmodel.IRI(store.RDFType),
		Object: quadmodel.IRI("http://ex/Thing"), Graph: quadmodel.IRI(store.GraphData),
	})
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdEmitAllSubjects, protocol.EmitAllSubjectsPayload{}))
	require.True(t, resp.OK)
	result := resp.Result.(map[string]interface{})
	require.Equal(t, 1, result["count"])
}

func TestHandleEnvelopeRunReasoningSideChannelDoesNotMutateStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `@prefix ex: <http://ex/> . { ?s ex:p ?o } => { ?s ex:q ?o } .`)
	}))
	defer srv.Close()

	w := New()
	resp := w.HandleEnvelope(context.Background(), envelope(t, "1", protocol.CmdRunReasoning, protocol.RunReasoningPayload{
		ReasoningID: "r1",
		Rulesets:    []string{srv.URL + "/rules.n3"},
		Quads: []protocol.QuadWire{
			{Subject: "http://ex/a", Predicate: "http://ex/p", Object: "http://ex/b"},
		},
	}))
	require.True(t, resp.OK)
	require.Equal(t, 0, w.Store.CountQuads(nil, nil, nil, nil))
}

func TestDispatchReadOnlyRejectsMutatingCommands(t *testing.T) {
	w := New()
	w.ReadOnly = true
	_, err := w.Dispatch(context.Background(), protocol.CmdSyncBatch, protocol.SyncBatchPayload{GraphName: store.GraphData})
	require.Error(t, err)

	_, err = w.Dispatch(context.Background(), protocol.CmdPing, nil)
	require.NoError(t, err)

	_, err = w.Dispatch(context.Background(), protocol.CmdGetGraphCounts, nil)
	require.NoError(t, err)
}

func TestHandleLoadFromURLValidatesBeforeDispatching(t *testing.T) {
	w := New()
	sink := &recordingSink{}
	env := protocol.InboundEnvelope{Type: protocol.TypeLoadFromURL, ID: "req-1"}
	w.HandleLoadFromURL(context.Background(), env, sink)

	require.Len(t, sink.messages, 1)
	require.Equal(t, protocol.StreamError, sink.messages[0].Kind)
}

func TestHandleLoadFromURLDispatchesToDispatcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/n-triples")
		fmt.Fprint(w, "<http://ex/a> <http://ex/p> <http://ex/b> .")
	}))
	defer srv.Close()

	w := New()
	w.Dispatcher.HTTPClient = srv.Client()
	sink := &recordingSink{}
	env := protocol.InboundEnvelope{Type: protocol.TypeLoadFromURL, ID: "req-1", URL: srv.URL}
	w.HandleLoadFromURL(context.Background(), env, sink)

	require.Equal(t, 1, w.Store.CountQuads(nil, nil, nil, nil))
	var sawEnd bool
	for _, m := range sink.messages {
		if m.Kind == protocol.StreamEnd {
			sawEnd = true
		}
	}
	require.True(t, sawEnd)
}

type recordingSink struct {
	messages []protocol.StreamMessage
}

func (s *recordingSink) Send(msg protocol.StreamMessage) error {
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) WaitAck(ctx context.Context, id string) error { return nil }

var _ dispatcher.Sink = (*recordingSink)(nil)
