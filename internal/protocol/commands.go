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

import "fmt"

// Command names, the closed set the codec dispatches on (§6 "Command inventory").
const (
	CmdPing                     = "ping"
	CmdClear                    = "clear"
	CmdGetGraphCounts           = "getGraphCounts"
	CmdGetNamespaces            = "getNamespaces"
	CmdSetNamespaces            = "setNamespaces"
	CmdGetBlacklist             = "getBlacklist"
	CmdSetBlacklist             = "setBlacklist"
	CmdSyncBatch                = "syncBatch"
	CmdSyncLoad                 = "syncLoad"
	CmdSyncRemoveGraph          = "syncRemoveGraph"
	CmdSyncRemoveAllQuadsForIri = "syncRemoveAllQuadsForIri"
	CmdImportSerialized         = "importSerialized"
	CmdExportGraph              = "exportGraph"
	CmdRemoveQuadsByNamespace   = "removeQuadsByNamespace"
	CmdPurgeNamespace           = "purgeNamespace"
	CmdEmitAllSubjects          = "emitAllSubjects"
	CmdTriggerSubjects          = "triggerSubjects"
	CmdFetchQuadsPage           = "fetchQuadsPage"
	CmdGetQuads                 = "getQuads"
	CmdRunReasoning             = "runReasoning"
)

// knownCommands is the closed set the codec accepts; anything else is a
// ProtocolError ("unknown command name", §4.2).
var knownCommands = map[string]bool{
	CmdPing: true, CmdClear: true, CmdGetGraphCounts: true, CmdGetNamespaces: true,
	CmdSetNamespaces: true, CmdGetBlacklist: true, CmdSetBlacklist: true,
	CmdSyncBatch: true, CmdSyncLoad: true, CmdSyncRemoveGraph: true,
	CmdSyncRemoveAllQuadsForIri: true, CmdImportSerialized: true, CmdExportGraph: true,
	CmdRemoveQuadsByNamespace: true, CmdPurgeNamespace: true, CmdEmitAllSubjects: true,
	CmdTriggerSubjects: true, CmdFetchQuadsPage: true, CmdGetQuads: true,
	CmdRunReasoning: true,
}

// IsKnownCommand reports whether name is in the closed command set.
func IsKnownCommand(name string) bool { return knownCommands[name] }

// SetNamespacesPayload is the payload of `setNamespaces`.
type SetNamespacesPayload struct {
	Namespaces map[string]string `json:"namespaces"`
	Replace    bool              `json:"replace,omitempty"`
}

// SetBlacklistPayload is the payload of `setBlacklist`.
type SetBlacklistPayload struct {
	Prefixes []string `json:"prefixes"`
	URIs     []string `json:"uris"`
}

// SyncBatchOptions carries `syncBatch.options`.
type SyncBatchOptions struct {
	SuppressSubjects bool `json:"suppressSubjects,omitempty"`
}

// SyncBatchPayload is the payload of `syncBatch` (§4.6).
type SyncBatchPayload struct {
	Adds      []QuadWire       `json:"adds"`
	Removes   []QuadUpdateWire `json:"removes"`
	Options   SyncBatchOptions `json:"options,omitempty"`
	GraphName string           `json:"graphName"`
}

func (p SyncBatchPayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("syncBatch: graphName is required")
	}
	return nil
}

// SyncLoadPayload is the payload of `syncLoad` (§4.6).
type SyncLoadPayload struct {
	Quads     []QuadWire        `json:"quads"`
	GraphName string            `json:"graphName"`
	Prefixes  map[string]string `json:"prefixes,omitempty"`
}

func (p SyncLoadPayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("syncLoad: graphName is required")
	}
	return nil
}

// SyncRemoveGraphPayload is the payload of `syncRemoveGraph`.
type SyncRemoveGraphPayload struct {
	GraphName string `json:"graphName"`
}

func (p SyncRemoveGraphPayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("syncRemoveGraph: graphName is required")
	}
	return nil
}

// SyncRemoveAllQuadsForIriPayload is the payload of `syncRemoveAllQuadsForIri`.
type SyncRemoveAllQuadsForIriPayload struct {
	IRI       string `json:"iri"`
	GraphName string `json:"graphName,omitempty"`
}

func (p SyncRemoveAllQuadsForIriPayload) Validate() error {
	if p.IRI == "" {
		return fmt.Errorf("syncRemoveAllQuadsForIri: iri is required")
	}
	return nil
}

// ImportSerializedPayload is the payload of `importSerialized` (§4.5).
type ImportSerializedPayload struct {
	Content     string `json:"content"`
	GraphName   string `json:"graphName"`
	ContentType string `json:"contentType,omitempty"`
	Filename    string `json:"filename,omitempty"`
	BaseIRI     string `json:"baseIri,omitempty"`
}

func (p ImportSerializedPayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("importSerialized: graphName is required")
	}
	return nil
}

// ExportGraphPayload is the payload of `exportGraph` (§6).
type ExportGraphPayload struct {
	GraphName string `json:"graphName"`
	Format    string `json:"format"`
}

func (p ExportGraphPayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("exportGraph: graphName is required")
	}
	switch p.Format {
	case "text/turtle", "turtle", "ld+json", "application/ld+json", "rdf+xml", "application/rdf+xml", "n-quads", "application/n-quads":
		return nil
	default:
		return fmt.Errorf("exportGraph: unsupported format %q", p.Format)
	}
}

// RemoveQuadsByNamespacePayload is the payload of `removeQuadsByNamespace`.
type RemoveQuadsByNamespacePayload struct {
	GraphName     string   `json:"graphName"`
	NamespaceURIs []string `json:"namespaceUris"`
}

func (p RemoveQuadsByNamespacePayload) Validate() error {
	if p.GraphName == "" {
		return fmt.Errorf("removeQuadsByNamespace: graphName is required")
	}
	return nil
}

// PurgeNamespacePayload is the payload of `purgeNamespace`.
type PurgeNamespacePayload struct {
	PrefixOrURI string `json:"prefixOrUri"`
}

func (p PurgeNamespacePayload) Validate() error {
	if p.PrefixOrURI == "" {
		return fmt.Errorf("purgeNamespace: prefixOrUri is required")
	}
	return nil
}

// EmitAllSubjectsPayload is the payload of `emitAllSubjects`.
type EmitAllSubjectsPayload struct {
	GraphName string `json:"graphName,omitempty"`
}

// TriggerSubjectsPayload is the payload of `triggerSubjects`.
type TriggerSubjectsPayload struct {
	Subjects []string `json:"subjects"`
}

// FetchQuadsPageFilter is an optional s/p/o/g filter for `fetchQuadsPage`.
type FetchQuadsPageFilter struct {
	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	GraphName string `json:"graphName,omitempty"`
}

// FetchQuadsPagePayload is the payload of `fetchQuadsPage`.
type FetchQuadsPagePayload struct {
	GraphName string                `json:"graphName"`
	Offset    int                   `json:"offset"`
	Limit     int                   `json:"limit"`
	Filter    *FetchQuadsPageFilter `json:"filter,omitempty"`
	Serialize bool                  `json:"serialize,omitempty"`
}

func (p FetchQuadsPagePayload) Validate() error {
	if p.Offset < 0 {
		return fmt.Errorf("fetchQuadsPage: offset must be >= 0")
	}
	if p.Limit < 0 {
		return fmt.Errorf("fetchQuadsPage: limit must be >= 0")
	}
	return nil
}

// GetQuadsPayload is the payload of `getQuads`.
type GetQuadsPayload struct {
	Subject   string `json:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object,omitempty"`
	GraphName string `json:"graphName,omitempty"`
}

// RunReasoningPayload is the payload of `runReasoning` (§4.8).
type RunReasoningPayload struct {
	ReasoningID   string     `json:"reasoningId"`
	Quads         []QuadWire `json:"quads,omitempty"`
	Rulesets      []string   `json:"rulesets"`
	BaseURL       string     `json:"baseUrl,omitempty"`
	EmitSubjects  bool       `json:"emitSubjects,omitempty"`
	SideChannel   bool       `json:"-"` // derived: true iff Quads != nil
}

func (p RunReasoningPayload) Validate() error {
	if p.ReasoningID == "" {
		return fmt.Errorf("runReasoning: reasoningId is required")
	}
	if len(p.Rulesets) == 0 {
		return fmt.Errorf("runReasoning: rulesets must be non-empty")
	}
	return nil
}

// LoadFromURLPayload is the payload of the streaming `loadFromUrl` message
// type (§6 "Load-from-URL envelope").
type LoadFromURLPayload struct {
	URL       string            `json:"url"`
	GraphName string            `json:"graphName,omitempty"`
	TimeoutMs int               `json:"timeoutMs,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func (p LoadFromURLPayload) Validate() error {
	if p.URL == "" {
		return fmt.Errorf("loadFromUrl: url is required")
	}
	return nil
}
