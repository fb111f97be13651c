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

package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/visgraph/vgcore/internal/protocol"
)

func TestEmitDeliversToAllSubscribersInOrder(t *testing.T) {
	b := New()
	var a, c []string
	b.Subscribe(nil, func(ev protocol.Event) { a = append(a, ev.Event) })
	b.Subscribe(nil, func(ev protocol.Event) { c = append(c, ev.Event) })

	b.Emit("change", nil)
	b.Emit("subjects", nil)

	require.Equal(t, []string{"change", "subjects"}, a)
	require.Equal(t, []string{"change", "subjects"}, c)
}

func TestEmitFiltersByKind(t *testing.T) {
	b := New()
	var got []string
	b.Subscribe([]string{"change"}, func(ev protocol.Event) { got = append(got, ev.Event) })

	b.Emit("change", nil)
	b.Emit("subjects", nil)
	b.Emit("change", nil)

	require.Equal(t, []string{"change", "change"}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	h := b.Subscribe(nil, func(ev protocol.Event) { calls++ })

	b.Emit("change", nil)
	b.Unsubscribe(h)
	b.Emit("change", nil)

	require.Equal(t, 1, calls)
}

func TestUnsubscribeUnknownHandleIsNoop(t *testing.T) {
	b := New()
	require.NotPanics(t, func() { b.Unsubscribe(Handle(999)) })
}

func TestEmitSurvivesPanickingSubscriber(t *testing.T) {
	b := New()
	calls := 0
	b.Subscribe(nil, func(ev protocol.Event) { panic("boom") })
	b.Subscribe(nil, func(ev protocol.Event) { calls++ })

	require.NotPanics(t, func() { b.Emit("change", nil) })
	require.Equal(t, 1, calls)
}

func TestEmitPassesPayloadThrough(t *testing.T) {
	b := New()
	var got interface{}
	b.Subscribe(nil, func(ev protocol.Event) { got = ev.Payload })

	b.Emit("change", map[string]int{"added": 1})
	require.Equal(t, map[string]int{"added": 1}, got)
}
