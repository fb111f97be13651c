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

// Package broker implements the Event Broker (§4.9): multi-subscriber
// fan-out for the five event streams, with index-based subscriber handles
// rather than a cyclic owner/subscriber graph (§9 "Cyclic owner/subscriber
// graph").
package broker

import (
	"sync"

	"github.com/visgraph/vgcore/internal/metrics"
	"github.com/visgraph/vgcore/internal/protocol"
	"github.com/visgraph/vgcore/internal/vglog"
)

// Handle identifies a registered subscription; it is returned by Subscribe
// and consumed by Unsubscribe.
type Handle int64

// Callback receives one event at a time, synchronously, in emission order
// (§5 "Subscriber callbacks run synchronously in emission order").
type Callback func(protocol.Event)

type subscription struct {
	handle Handle
	kinds  map[string]bool // nil/empty means "all kinds"
	cb     Callback
}

// Broker is the worker's single Event Broker instance. It is not safe to
// call Emit concurrently with itself from multiple goroutines; the worker
// that owns it is single-threaded cooperative (§5).
type Broker struct {
	mu   sync.Mutex
	subs map[Handle]*subscription
	next Handle
}

// New returns an empty Broker.
func New() *Broker {
	return &Broker{subs: make(map[Handle]*subscription)}
}

// Subscribe registers cb for the given event kinds (empty/nil = all kinds)
// and returns a handle for later Unsubscribe.
func (b *Broker) Subscribe(kinds []string, cb Callback) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	h := b.next
	var set map[string]bool
	if len(kinds) > 0 {
		set = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			set[k] = true
		}
	}
	b.subs[h] = &subscription{handle: h, kinds: set, cb: cb}
	return h
}

// Unsubscribe removes a previously registered subscription. Unsubscribing
// an unknown or already-removed handle is a no-op.
func (b *Broker) Unsubscribe(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, h)
}

// Emit delivers kind/payload to every interested subscriber, in a stable
// snapshot of the subscriber set taken at call time. A panicking
// subscriber is logged and does not block delivery to its siblings
// (§4.9 "errors are logged, not propagated").
func (b *Broker) Emit(kind string, payload interface{}) {
	metrics.EventsEmitted.WithLabelValues(kind).Inc()
	ev := protocol.NewEvent(kind, payload)

	b.mu.Lock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.kinds == nil || s.kinds[kind] {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		deliver(s, ev)
	}
}

func deliver(s *subscription, ev protocol.Event) {
	defer func() {
		if r := recover(); r != nil {
			vglog.Errorf("broker: subscriber panicked delivering %q: %v", ev.Event, r)
		}
	}()
	s.cb(ev)
}
