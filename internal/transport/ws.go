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

// Package transport carries protocol envelopes between the host (editor
// front-end) and the Worker over a single bidirectional WebSocket
// connection per session (§2 "one worker per editor session"), grounded on
// the teacher's internal/http request-handling shape but generalized from
// request/response HTTP handlers to a long-lived duplex connection, since
// the protocol's event/stream push model has no natural request/response
// mapping.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/visgraph/vgcore/internal/broker"
	"github.com/visgraph/vgcore/internal/dispatcher"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/vglog"
	"github.com/visgraph/vgcore/internal/worker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Session binds one WebSocket connection to its own Worker instance and
// runs the read loop that decodes inbound envelopes and routes them. It
// implements dispatcher.Sink so a running loadFromUrl stream can write
// back through the same connection it was requested on.
type Session struct {
	id     string
	conn   *websocket.Conn
	worker *worker.Worker

	writeMu sync.Mutex

	ackMu   sync.Mutex
	ackCh   map[string]chan struct{}

	subMu sync.Mutex
	subs  map[string]broker.Handle
}

// NewSession wraps conn with a fresh Worker and wires its event broker to
// push `event` envelopes straight back down the socket for any subscribed
// kind (§4.9 "multi-subscriber fan-out"). Each session gets a random id
// (the host never supplies one for the connection itself) so its log lines
// can be correlated across a reconnect-heavy host.
func NewSession(conn *websocket.Conn) *Session {
	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		worker: worker.New(),
		ackCh:  make(map[string]chan struct{}),
		subs:   make(map[string]broker.Handle),
	}
	return s
}

// Serve runs the read loop until the connection closes or ctx is canceled.
func (s *Session) Serve(ctx context.Context) {
	log := vglog.WithFields(vglog.Fields{"session": s.id})
	log.Infof("transport: session opened")
	defer log.Infof("transport: session closed")
	defer s.conn.Close()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				vglog.Warningf("transport: session closed unexpectedly: %v", err)
			}
			return
		}
		s.handle(ctx, raw)
	}
}

func (s *Session) handle(ctx context.Context, raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		_ = s.writeJSON(protocol.NewErrResponse("", err))
		return
	}

	switch env.Type {
	case protocol.TypeCommand:
		resp := s.worker.HandleEnvelope(ctx, env)
		_ = s.writeJSON(resp)

	case protocol.TypeLoadFromURL:
		go s.worker.HandleLoadFromURL(ctx, env, s)

	case protocol.TypeSubscribe:
		s.subscribe(env)

	case protocol.TypeUnsubscribe:
		s.unsubscribe(env)

	case protocol.TypeAck:
		s.signalAck(env.ID)

	case protocol.TypeCancel:
		// A cancel envelope is ignored: there is no per-stream cancel
		// registry. An in-flight loadFromUrl stops when the host closes the
		// socket or when the request's own timeout expires.

	default:
		_ = s.writeJSON(protocol.NewErrResponse(env.ID, errUnknownType(env.Type)))
	}
}

func (s *Session) subscribe(env protocol.InboundEnvelope) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	h := s.worker.Broker.Subscribe(env.Events, func(ev protocol.Event) {
		_ = s.writeJSON(ev)
	})
	s.subs[env.ID] = h
}

func (s *Session) unsubscribe(env protocol.InboundEnvelope) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if h, ok := s.subs[env.ID]; ok {
		s.worker.Broker.Unsubscribe(h)
		delete(s.subs, env.ID)
	}
}

// Send implements dispatcher.Sink: writes one stream message down the
// socket.
func (s *Session) Send(msg protocol.StreamMessage) error {
	return s.writeJSON(msg)
}

// WaitAck implements dispatcher.Sink: blocks until the host sends an `ack`
// envelope for id, or ctx is done (§4.5 back-pressure).
func (s *Session) WaitAck(ctx context.Context, id string) error {
	ch := s.ackChannel(id)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) ackChannel(id string) chan struct{} {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	ch, ok := s.ackCh[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.ackCh[id] = ch
	}
	return ch
}

func (s *Session) signalAck(id string) {
	ch := s.ackChannel(id)
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Session) writeJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

var _ dispatcher.Sink = (*Session)(nil)

type unknownTypeError string

func (e unknownTypeError) Error() string { return "transport: unknown message type " + string(e) }

func errUnknownType(t string) error { return unknownTypeError(t) }
