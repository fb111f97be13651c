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

package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// mimeAliases maps common but non-canonical content-type strings to one of
// the six registered format names (§4.5 step 2.b).
var mimeAliases = map[string]string{
	"text/turtle":          "turtle",
	"application/turtle":   "turtle",
	"application/x-turtle": "turtle",
	"application/n-triples": "n-triples",
	"text/plain+nt":        "n-triples",
	"application/n-quads":  "n-quads",
	"application/trig":     "trig",
	"application/rdf+xml":  "rdf+xml",
	"application/xml":      "rdf+xml",
	"text/xml":             "rdf+xml",
	"application/ld+json":  "ld+json",
	"application/json":     "ld+json",
}

// extToFormat maps filename extensions to format names (§4.5 step 2.c).
var extToFormat = map[string]string{
	"ttl": "turtle", "turtle": "turtle",
	"nt":  "n-triples",
	"nq":  "n-quads",
	"jsonld": "ld+json", "json": "ld+json",
	"rdf": "rdf+xml", "owl": "rdf+xml", "xml": "rdf+xml",
	"trig": "trig",
}

// CanonicalizeMime lowercases and strips parameters (e.g. "; charset=utf-8"),
// then resolves aliases to a canonical registered format name. An
// unrecognized but well-formed MIME type (including the explicitly
// rejected "text/plain") returns "", ok=false.
func CanonicalizeMime(mime string) (string, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		return "", false
	}
	if mime == "text/plain" {
		return "", false
	}
	if name, ok := mimeAliases[mime]; ok {
		return name, true
	}
	if FormatByMime(mime) != nil {
		return FormatByMime(mime).Name, true
	}
	return "", false
}

// ExtFormat resolves a filename (from Content-Disposition, a URL path
// segment, or a query value) to a format name via its extension
// (§4.5 step 2.c).
func ExtFormat(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	name, ok := extToFormat[ext]
	return name, ok
}

// FormatFromURL tries the URL's path segment, then any query-string value
// that looks like a filename, for an extension match.
func FormatFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if name, ok := ExtFormat(path.Base(u.Path)); ok {
		return name, ok
	}
	for _, vs := range u.Query() {
		for _, v := range vs {
			if name, ok := ExtFormat(v); ok {
				return name, ok
			}
		}
	}
	return "", false
}

var turtleTripleLike = regexp.MustCompile(`<[^>]+>\s+a\s+<[^>]+>`)

// SniffContent applies the 1 KiB content sniff of §4.5 step 2.d:
//
//   - '{'/'[' plus "@context"        -> ld+json
//   - "@prefix"/"prefix"             -> turtle
//   - "<?xml" / "<rdf:"              -> rdf+xml
//   - "<token> a <token>" pattern    -> turtle
func SniffContent(b []byte) (string, bool) {
	if len(b) > 1024 {
		b = b[:1024]
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && bytes.Contains(trimmed, []byte("@context")) {
		return "ld+json", true
	}
	lower := bytes.ToLower(trimmed)
	if bytes.HasPrefix(lower, []byte("@prefix")) || bytes.HasPrefix(lower, []byte("prefix")) {
		return "turtle", true
	}
	if bytes.HasPrefix(lower, []byte("<?xml")) || bytes.Contains(lower, []byte("<rdf:")) {
		return "rdf+xml", true
	}
	if turtleTripleLike.Match(trimmed) {
		return "turtle", true
	}
	return "", false
}

// ResolveFormat implements §4.5 step 2 end to end: declared contentType
// wins, then the HTTP Content-Type header, then filename extension, then
// content sniffing. The first non-empty source that yields a known format
// wins; an explicit but unrecognized declared type is an error.
func ResolveFormat(declared, headerCT, filename string, urlStr string, sniff []byte) (*Format, error) {
	if declared != "" {
		name, ok := CanonicalizeMime(declared)
		if !ok {
			return nil, fmt.Errorf("parser: unknown declared content type %q", declared)
		}
		return FormatByName(name), nil
	}
	if headerCT != "" {
		if name, ok := CanonicalizeMime(headerCT); ok {
			return FormatByName(name), nil
		}
	}
	if filename != "" {
		if name, ok := ExtFormat(filename); ok {
			return FormatByName(name), nil
		}
	}
	if urlStr != "" {
		if name, ok := FormatFromURL(urlStr); ok {
			return FormatByName(name), nil
		}
	}
	if name, ok := SniffContent(sniff); ok {
		return FormatByName(name), nil
	}
	return nil, fmt.Errorf("parser: could not resolve a media type")
}
