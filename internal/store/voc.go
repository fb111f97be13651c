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

// WellKnownPrefixes is the built-in prefix->IRI table consulted by
// isBlacklisted step 3 ("well-known mappings for the same prefixes", §4.4)
// when a blacklisted prefix has no explicit namespace binding yet.
// Grounded on the teacher's voc/rdf, voc/rdfs, voc/schema, owl/voc.go
// subpackages, generalized into one table sized to the five prefixes the
// default blacklist names.
var WellKnownPrefixes = map[string]string{
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"owl":  "http://www.w3.org/2002/07/owl#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
	"xml":  "http://www.w3.org/XML/1998/namespace/",
}

// Well-known RDF/RDFS/SHACL term IRIs used by the projector and reasoner.
const (
	RDFType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSLabel  = "http://www.w3.org/2000/01/rdf-schema#label"
	SHFocus    = "http://www.w3.org/ns/shacl#focusNode"
	SHMessage  = "http://www.w3.org/ns/shacl#resultMessage"
	SHSeverity = "http://www.w3.org/ns/shacl#resultSeverity"
	SHResult   = "http://www.w3.org/ns/shacl#ValidationResult"
)
