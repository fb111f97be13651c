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

package store

import (
	"strings"
	"sync"
)

// mergeableGraphs is the set of graphs for which mergePrefixes actually
// applies (§3 "Namespace Registry", §4.4 "Merge policy").
var mergeableGraphs = map[string]bool{
	GraphData:       true,
	GraphOntologies: true,
	GraphDefault:    true,
}

// Registry holds the namespace/prefix bindings and the subject blacklist
// (§4.4). It is safe for concurrent use, grounded on the teacher's
// voc.Namespaces (prefix->IRI map behind a mutex), generalized to also
// carry the blacklist sets.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]string
	blPrefixes map[string]struct{}
	blURIs     map[string]struct{}
}

// NewRegistry returns a Registry pre-seeded with the default blacklist
// (§3 "Default blacklist: prefixes {owl, rdf, rdfs, xml, xsd}").
func NewRegistry() *Registry {
	r := &Registry{
		namespaces: make(map[string]string),
		blPrefixes: make(map[string]struct{}),
		blURIs:     make(map[string]struct{}),
	}
	for pfx := range WellKnownPrefixes {
		r.blPrefixes[pfx] = struct{}{}
	}
	for _, uri := range WellKnownPrefixes {
		r.blURIs[uri] = struct{}{}
	}
	return r
}

// Namespaces returns a copy of the current prefix->IRI bindings.
func (r *Registry) Namespaces() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.namespaces))
	for k, v := range r.namespaces {
		out[k] = v
	}
	return out
}

// SetNamespaces installs m. If replace is true the existing map is
// discarded first; otherwise m is merged over it, overwriting conflicts
// (§6 "setNamespaces").
func (r *Registry) SetNamespaces(m map[string]string, replace bool) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if replace {
		r.namespaces = make(map[string]string, len(m))
	}
	for k, v := range m {
		r.namespaces[k] = v
	}
	out := make(map[string]string, len(r.namespaces))
	for k, v := range r.namespaces {
		out[k] = v
	}
	return out
}

// MergePrefixes applies incoming prefix bindings only when graph is one of
// the data/ontologies/default graphs (§4.4 "Merge policy"); conflicting
// existing bindings are overwritten. The reserved empty-prefix entry, if
// present in incoming, is preserved like any other key.
func (r *Registry) MergePrefixes(incoming map[string]string, graph string) {
	if !mergeableGraphs[graph] || len(incoming) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range incoming {
		r.namespaces[k] = v
	}
}

// RemovePrefix removes a single binding, used by purgeNamespace (§4.6).
func (r *Registry) RemovePrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.namespaces, prefix)
}

// ResolvePrefix returns the IRI bound to prefix, if any.
func (r *Registry) ResolvePrefix(prefix string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.namespaces[prefix]
	return v, ok
}

// Blacklist is the current {prefixes, uris} pair (§6 "getBlacklist").
type Blacklist struct {
	Prefixes []string
	URIs     []string
}

// GetBlacklist returns the current blacklist sets.
func (r *Registry) GetBlacklist() Blacklist {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Blacklist{
		Prefixes: setToSlice(r.blPrefixes),
		URIs:     setToSlice(r.blURIs),
	}
}

// SetBlacklist replaces the blacklist wholesale (§6 "setBlacklist").
func (r *Registry) SetBlacklist(prefixes, uris []string) Blacklist {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blPrefixes = sliceToSet(prefixes)
	r.blURIs = sliceToSet(uris)
	return Blacklist{Prefixes: setToSlice(r.blPrefixes), URIs: setToSlice(r.blURIs)}
}

func setToSlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sliceToSet(s []string) map[string]struct{} {
	m := make(map[string]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

// IsBlacklisted implements the ordered predicate of §4.4:
//  1. Blank-node forms are never blacklisted.
//  2. A "prefix:local" value (not "http(s)://...") whose prefix is
//     blacklisted is blacklisted.
//  3. Build candidate URIs from explicit blacklisted URIs, current
//     namespace bindings of blacklisted prefixes, and well-known mappings
//     for those prefixes.
//  4. Normalize each candidate by adding/removing a trailing "#" or "/".
//  5. Return true iff value begins with any normalized candidate.
func (r *Registry) IsBlacklisted(value string) bool {
	if strings.HasPrefix(value, "_:") {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := strings.IndexByte(value, ':'); i > 0 &&
		!strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		prefix := value[:i]
		if _, ok := r.blPrefixes[prefix]; ok {
			return true
		}
	}

	candidates := make(map[string]struct{}, len(r.blURIs))
	for uri := range r.blURIs {
		candidates[uri] = struct{}{}
	}
	for prefix := range r.blPrefixes {
		if iri, ok := r.namespaces[prefix]; ok {
			candidates[iri] = struct{}{}
		}
		if iri, ok := WellKnownPrefixes[prefix]; ok {
			candidates[iri] = struct{}{}
		}
	}

	for cand := range candidates {
		for _, norm := range normalizeTrailing(cand) {
			if strings.HasPrefix(value, norm) {
				return true
			}
		}
	}
	return false
}

// normalizeTrailing returns s with its trailing "#"/"/" stripped, with one
// added, and unmodified, covering all three normalized candidate forms
// mentioned by §4.4 step 4.
func normalizeTrailing(s string) []string {
	trimmed := strings.TrimRight(s, "#/")
	return []string{s, trimmed, trimmed + "#", trimmed + "/"}
}
