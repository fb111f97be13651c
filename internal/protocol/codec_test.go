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

package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeRequiresTypeAndID(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"id":"1"}`))
	require.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"type":"command"}`))
	require.Error(t, err)

	env, err := DecodeEnvelope([]byte(`{"type":"command","id":"1","command":"ping"}`))
	require.NoError(t, err)
	require.Equal(t, "ping", env.Command)
}

func TestDecodeEnvelopeRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json`))
	require.Error(t, err)
}

func TestDecodeCommandPayloadRejectsUnknownCommand(t *testing.T) {
	_, err := DecodeCommandPayload("doSomethingElse", nil)
	require.Error(t, err)
}

func TestDecodeCommandPayloadNoPayloadCommandsReturnNil(t *testing.T) {
	for _, cmd := range []string{CmdPing, CmdClear, CmdGetGraphCounts, CmdGetNamespaces, CmdGetBlacklist} {
		p, err := DecodeCommandPayload(cmd, nil)
		require.NoError(t, err)
		require.Nil(t, p)
	}
}

func TestDecodeCommandPayloadRequiresPayloadWhenExpected(t *testing.T) {
	_, err := DecodeCommandPayload(CmdSyncBatch, nil)
	require.Error(t, err)
}

func TestDecodeCommandPayloadValidatesSyncBatch(t *testing.T) {
	raw := json.RawMessage(`{"adds":[],"removes":[]}`)
	_, err := DecodeCommandPayload(CmdSyncBatch, raw)
	require.Error(t, err)

	raw = json.RawMessage(`{"graphName":"urn:vg:data","adds":[{"subject":"http://ex/a","predicate":"http://ex/p","object":"v"}]}`)
	p, err := DecodeCommandPayload(CmdSyncBatch, raw)
	require.NoError(t, err)
	payload := p.(SyncBatchPayload)
	require.Equal(t, "urn:vg:data", payload.GraphName)
	require.Len(t, payload.Adds, 1)
}

func TestDecodeCommandPayloadExportGraphRejectsUnsupportedFormat(t *testing.T) {
	raw := json.RawMessage(`{"graphName":"urn:vg:data","format":"text/csv"}`)
	_, err := DecodeCommandPayload(CmdExportGraph, raw)
	require.Error(t, err)

	raw = json.RawMessage(`{"graphName":"urn:vg:data","format":"turtle"}`)
	_, err = DecodeCommandPayload(CmdExportGraph, raw)
	require.NoError(t, err)
}

func TestDecodeCommandPayloadRunReasoningDerivesSideChannel(t *testing.T) {
	raw := json.RawMessage(`{"reasoningId":"r1","rulesets":["http://ex/rules.n3"],"quads":[{"subject":"http://ex/a","predicate":"http://ex/p","object":"v"}]}`)
	p, err := DecodeCommandPayload(CmdRunReasoning, raw)
	require.NoError(t, err)
	payload := p.(RunReasoningPayload)
	require.True(t, payload.SideChannel)

	raw = json.RawMessage(`{"reasoningId":"r1","rulesets":["http://ex/rules.n3"]}`)
	p, err = DecodeCommandPayload(CmdRunReasoning, raw)
	require.NoError(t, err)
	require.False(t, p.(RunReasoningPayload).SideChannel)
}

func TestDecodeCommandPayloadRunReasoningRequiresRulesets(t *testing.T) {
	raw := json.RawMessage(`{"reasoningId":"r1"}`)
	_, err := DecodeCommandPayload(CmdRunReasoning, raw)
	require.Error(t, err)
}

func TestFetchQuadsPageRejectsNegativeOffsetOrLimit(t *testing.T) {
	raw := json.RawMessage(`{"graphName":"urn:vg:data","offset":-1,"limit":10}`)
	_, err := DecodeCommandPayload(CmdFetchQuadsPage, raw)
	require.Error(t, err)

	raw = json.RawMessage(`{"graphName":"urn:vg:data","offset":0,"limit":-1}`)
	_, err = DecodeCommandPayload(CmdFetchQuadsPage, raw)
	require.Error(t, err)
}
