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
	"fmt"
)

// validator is implemented by payload types that carry shape constraints
// beyond what encoding/json itself enforces.
type validator interface {
	Validate() error
}

// DecodeEnvelope parses the generic inbound envelope and fails fast on a
// malformed top-level shape (§4.2 "fails fast on malformed input").
func DecodeEnvelope(raw []byte) (InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("protocol: malformed envelope: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("protocol: missing \"type\"")
	}
	if env.ID == "" {
		return env, fmt.Errorf("protocol: missing \"id\"")
	}
	return env, nil
}

// DecodeCommandPayload unmarshals and validates the payload for a known
// command name, returning a *typed* payload value. Unknown commands and
// malformed payloads are ProtocolErrors with no state change (§4.2, §7).
func DecodeCommandPayload(command string, raw json.RawMessage) (interface{}, error) {
	if !IsKnownCommand(command) {
		return nil, fmt.Errorf("protocol: unknown command %q", command)
	}

	// Commands with no payload.
	switch command {
	case CmdPing, CmdClear, CmdGetGraphCounts, CmdGetNamespaces, CmdGetBlacklist:
		return nil, nil
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("protocol: command %q requires a payload", command)
	}

	var (
		payload interface{}
		err     error
	)
	switch command {
	case CmdSetNamespaces:
		payload, err = decode[SetNamespacesPayload](raw)
	case CmdSetBlacklist:
		payload, err = decode[SetBlacklistPayload](raw)
	case CmdSyncBatch:
		payload, err = decode[SyncBatchPayload](raw)
	case CmdSyncLoad:
		payload, err = decode[SyncLoadPayload](raw)
	case CmdSyncRemoveGraph:
		payload, err = decode[SyncRemoveGraphPayload](raw)
	case CmdSyncRemoveAllQuadsForIri:
		payload, err = decode[SyncRemoveAllQuadsForIriPayload](raw)
	case CmdImportSerialized:
		payload, err = decode[ImportSerializedPayload](raw)
	case CmdExportGraph:
		payload, err = decode[ExportGraphPayload](raw)
	case CmdRemoveQuadsByNamespace:
		payload, err = decode[RemoveQuadsByNamespacePayload](raw)
	case CmdPurgeNamespace:
		payload, err = decode[PurgeNamespacePayload](raw)
	case CmdEmitAllSubjects:
		payload, err = decode[EmitAllSubjectsPayload](raw)
	case CmdTriggerSubjects:
		payload, err = decode[TriggerSubjectsPayload](raw)
	case CmdFetchQuadsPage:
		payload, err = decode[FetchQuadsPagePayload](raw)
	case CmdGetQuads:
		payload, err = decode[GetQuadsPayload](raw)
	case CmdRunReasoning:
		var p RunReasoningPayload
		if uerr := json.Unmarshal(raw, &p); uerr != nil {
			return nil, fmt.Errorf("protocol: bad payload for %q: %w", command, uerr)
		}
		p.SideChannel = p.Quads != nil
		if verr := p.Validate(); verr != nil {
			return nil, fmt.Errorf("protocol: %w", verr)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("protocol: unknown command %q", command)
	}
	if err != nil {
		return nil, fmt.Errorf("protocol: %w", err)
	}
	return payload, nil
}

// decode unmarshals raw into a T and runs its Validate method if present.
func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("bad payload shape: %w", err)
	}
	if val, ok := any(v).(validator); ok {
		if err := val.Validate(); err != nil {
			return v, err
		}
	}
	return v, nil
}
