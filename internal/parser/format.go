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

// Package parser implements the Streaming Parser Dispatcher (§4.5): media
// type resolution, per-format readers/writers and content sniffing. The
// batched/back-pressured ingest loop lives in internal/dispatcher.
package parser

import (
	"io"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// Reader streams quads out of a serialized document. ReadQuad returns
// io.EOF once exhausted, mirroring the teacher's quad.Reader contract
// (quad/rw.go).
type Reader interface {
	ReadQuad() (quadmodel.Quad, error)
	// Prefixes returns any prefix bindings discovered so far (may grow as
	// more of the stream is consumed, for formats that declare them
	// inline).
	Prefixes() map[string]string
}

// Writer serializes quads into a format's wire representation.
type Writer interface {
	WriteQuad(quadmodel.Quad) error
	Close() error
}

// Format is a description for one of the six in-scope RDF serializations
// (§4.5 step 2), generalized from the teacher's quad.Format (quad/formats.go)
// down to exactly the formats spec.md names.
type Format struct {
	Name   string
	Ext    []string
	Mime   []string
	Reader func(io.Reader, string) Reader // second arg: base IRI
	Writer func(io.Writer) Writer
}

var (
	byName = make(map[string]*Format)
	byExt  = make(map[string]*Format)
	byMime = make(map[string]*Format)
)

func registerFormat(f Format) {
	byName[f.Name] = &f
	for _, e := range f.Ext {
		byExt[e] = &f
	}
	for _, m := range f.Mime {
		byMime[m] = &f
	}
}

// FormatByName looks up a format by its canonical name ("turtle",
// "n-triples", "n-quads", "trig", "rdf+xml", "ld+json").
func FormatByName(name string) *Format { return byName[name] }

// FormatByMime looks up a format by canonical MIME type.
func FormatByMime(mime string) *Format { return byMime[mime] }

// FormatByExt looks up a format by file extension (no leading dot).
func FormatByExt(ext string) *Format { return byExt[ext] }

func init() {
	registerFormat(Format{
		Name: "turtle",
		Ext:  []string{"ttl", "turtle"},
		Mime: []string{"text/turtle"},
		Reader: func(r io.Reader, base string) Reader { return newTurtleReader(r, base, false) },
		Writer: func(w io.Writer) Writer { return newTurtleWriter(w, false) },
	})
	registerFormat(Format{
		Name: "n-triples",
		Ext:  []string{"nt"},
		Mime: []string{"application/n-triples"},
		Reader: func(r io.Reader, base string) Reader { return newTurtleReader(r, base, false) },
		Writer: func(w io.Writer) Writer { return newTurtleWriter(w, false) },
	})
	registerFormat(Format{
		Name: "n-quads",
		Ext:  []string{"nq"},
		Mime: []string{"application/n-quads"},
		Reader: func(r io.Reader, base string) Reader { return newTurtleReader(r, base, true) },
		Writer: func(w io.Writer) Writer { return newTurtleWriter(w, true) },
	})
	registerFormat(Format{
		Name: "trig",
		Ext:  []string{"trig"},
		Mime: []string{"application/trig"},
		Reader: func(r io.Reader, base string) Reader { return newTurtleReader(r, base, true) },
		Writer: func(w io.Writer) Writer { return newTurtleWriter(w, true) },
	})
	registerFormat(Format{
		Name: "rdf+xml",
		Ext:  []string{"rdf", "owl", "xml"},
		Mime: []string{"application/rdf+xml"},
		Reader: func(r io.Reader, base string) Reader { return newRDFXMLReader(r, base) },
		Writer: func(w io.Writer) Writer { return newRDFXMLWriter(w) },
	})
	registerFormat(Format{
		Name: "ld+json",
		Ext:  []string{"jsonld", "json"},
		Mime: []string{"application/ld+json"},
		Reader: func(r io.Reader, base string) Reader { return newJSONLDReader(r, base) },
		Writer: func(w io.Writer) Writer { return newJSONLDWriter(w) },
	})
}
