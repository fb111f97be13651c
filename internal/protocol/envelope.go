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

import "encoding/json"

// Inbound message types (§4.2).
const (
	TypeCommand     = "command"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeAck         = "ack"
	TypeLoadFromURL = "loadFromUrl"
	TypeCancel      = "cancel"
)

// Outbound message types (§4.2).
const (
	TypeResponse = "response"
	TypeEvent    = "event"
	TypeStream   = "stream"
)

// Event kinds (§4.2, §6 "Event envelope").
const (
	EventChange          = "change"
	EventSubjects         = "subjects"
	EventReasoningStage  = "reasoningStage"
	EventReasoningResult = "reasoningResult"
	EventReasoningError  = "reasoningError"
)

// Streaming (loadFromUrl) message kinds (§4.5, §6).
const (
	StreamStage  = "stage"
	StreamPrefix = "prefix"
	StreamQuads  = "quads"
	StreamEnd    = "end"
	StreamError  = "error"
)

// InboundEnvelope is the generic host->worker message shape. Every inbound
// message carries at least {type, id}; Command/Payload are populated for
// type=="command", URL/GraphName/... for type=="loadFromUrl", Events for
// subscribe/unsubscribe.
type InboundEnvelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Command string          `json:"command,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Events  []string        `json:"events,omitempty"`

	// loadFromUrl fields, present only when Type == TypeLoadFromURL.
	URL       string            `json:"url,omitempty"`
	GraphName string            `json:"graphName,omitempty"`
	TimeoutMs int               `json:"timeoutMs,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Response is the worker->host envelope for a completed command
// (§4.2 "response", §6).
type Response struct {
	Type  string      `json:"type"`
	ID    string      `json:"id"`
	OK    bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
	Stack  string      `json:"stack,omitempty"`
}

// NewOKResponse builds a successful response envelope.
func NewOKResponse(id string, result interface{}) Response {
	return Response{Type: TypeResponse, ID: id, OK: true, Result: result}
}

// NewErrResponse builds a failed response envelope (§4.2, §7 "ProtocolError").
func NewErrResponse(id string, err error) Response {
	return Response{Type: TypeResponse, ID: id, OK: false, Error: err.Error()}
}

// Event is the worker->host envelope for one of the five event kinds
// (§6 "Event envelope").
type Event struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// NewEvent builds an event envelope.
func NewEvent(kind string, payload interface{}) Event {
	return Event{Type: TypeEvent, Event: kind, Payload: payload}
}

// ChangePayload is the `change` event payload (§6).
type ChangePayload struct {
	ChangeCount int64                  `json:"changeCount"`
	Meta        map[string]interface{} `json:"meta"`
}

// SubjectsPayload is the `subjects` event payload (§6, §4.7).
type SubjectsPayload struct {
	Subjects []string                  `json:"subjects"`
	Quads    map[string][]QuadWire     `json:"quads,omitempty"`
	Snapshot []SnapshotEntry           `json:"snapshot,omitempty"`
	Meta     map[string]interface{}    `json:"meta,omitempty"`
}

// ReasoningStagePayload is the `reasoningStage` event payload (§4.8 step 1/3/6).
type ReasoningStagePayload struct {
	ID    string                 `json:"id"`
	Stage string                 `json:"stage"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// ValidationEntry is one SHACL-style violation/warning record (§4.8 step 8).
type ValidationEntry struct {
	FocusNodes []string `json:"focusNodes"`
	Message    string   `json:"message,omitempty"`
	Severity   string   `json:"severity"`
}

// InferenceEntry is one derived-triple record (§4.8 step 9).
type InferenceEntry struct {
	Type       string  `json:"type"` // "class" or "relationship"
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// ReasoningResultMeta is the `meta` object of a `reasoningResult` event
// (§4.8 step 10).
type ReasoningResultMeta struct {
	UsedReasoner     bool  `json:"usedReasoner"`
	RuleQuadCount    int   `json:"ruleQuadCount"`
	AddedCount       int   `json:"addedCount"`
	WorkerDurationMs int64 `json:"workerDurationMs"`
	TotalDurationMs  int64 `json:"totalDurationMs"`
}

// ReasoningResultPayload is the `reasoningResult` event payload (§4.8 step 10).
type ReasoningResultPayload struct {
	ID          string               `json:"id"`
	DurationMs  int64                `json:"durationMs"`
	Errors      []ValidationEntry   `json:"errors"`
	Warnings    []ValidationEntry   `json:"warnings"`
	Inferences  []InferenceEntry    `json:"inferences"`
	Meta        ReasoningResultMeta `json:"meta"`
}

// ReasoningErrorPayload is the `reasoningError` event payload (§6).
type ReasoningErrorPayload struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// StreamMessage is one message of the loadFromUrl streaming reply
// (§4.5, §6): stage / prefix / quads / end / error, keyed by id.
type StreamMessage struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Kind  string `json:"kind"`

	Stage string                 `json:"stage,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`

	Prefixes map[string]string `json:"prefixes,omitempty"`

	Quads []QuadWire `json:"quads,omitempty"`
	Final bool       `json:"final,omitempty"`

	QuadCount       int      `json:"quadCount,omitempty"`
	TouchedSubjects []string `json:"touchedSubjects,omitempty"`

	Message string `json:"message,omitempty"`
}
