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

package reasoner

import (
	"fmt"
	"strings"

	"github.com/visgraph/vgcore/internal/quadmodel"
)

// patternTerm is one position of a rule triple: either a bound term or a
// named logic variable (an N3 "?x"-style universal, scoped to the rule).
type patternTerm struct {
	variable string
	bound    quadmodel.Term
}

func (t patternTerm) isVar() bool { return t.variable != "" }

// TriplePattern is one triple of a rule's antecedent or consequent.
type TriplePattern struct {
	Subject, Predicate, Object patternTerm
}

// Rule is one `{antecedent} => {consequent} .` N3 implication, the only
// construct vgcore's reasoner understands (§4.8 "forward-chaining N3
// reasoner").
type Rule struct {
	Antecedent []TriplePattern
	Consequent []TriplePattern
}

// n3Parser is a small hand-rolled recursive-descent parser for the N3
// subset the reasoner needs: @prefix directives and `{...} => {...} .`
// rules, no nested graphs, no built-ins beyond `a`. Grounded on the
// scanning style of internal/parser/turtle.go (same statement-at-a-time,
// rune-peeking approach) but kept independent since N3's `=>`/`?var`
// grammar diverges enough from Turtle to not share a tokenizer directly.
type n3Parser struct {
	src      []rune
	pos      int
	prefixes map[string]string
}

func newN3Parser(s string) *n3Parser {
	return &n3Parser{src: []rune(s), prefixes: make(map[string]string)}
}

// ParseN3 parses an N3 rule-bundle document into its rules, returning the
// number of rule-quads encountered (antecedent+consequent triple count,
// used for `ruleset-parsed` stage reporting) alongside the rules.
func ParseN3(doc string) ([]Rule, int, error) {
	p := newN3Parser(doc)
	var rules []Rule
	quadCount := 0
	for {
		p.skipInsignificant()
		if p.eof() {
			break
		}
		if p.consumeKeyword("@prefix") {
			if err := p.parsePrefixDirective(); err != nil {
				return nil, 0, err
			}
			continue
		}
		rule, err := p.parseRule()
		if err != nil {
			return nil, 0, err
		}
		quadCount += len(rule.Antecedent) + len(rule.Consequent)
		rules = append(rules, rule)
	}
	return rules, quadCount, nil
}

func (p *n3Parser) eof() bool { return p.pos >= len(p.src) }

func (p *n3Parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *n3Parser) skipInsignificant() {
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == '#' {
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *n3Parser) consumeKeyword(kw string) bool {
	r := []rune(kw)
	if p.pos+len(r) > len(p.src) {
		return false
	}
	for i, c := range r {
		if p.src[p.pos+i] != c {
			return false
		}
	}
	p.pos += len(r)
	return true
}

func (p *n3Parser) parsePrefixDirective() error {
	p.skipInsignificant()
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		p.pos++
	}
	name := strings.TrimSpace(string(p.src[start:p.pos]))
	if p.eof() {
		return fmt.Errorf("n3: unterminated @prefix")
	}
	p.pos++ // ':'
	p.skipInsignificant()
	if p.peek() != '<' {
		return fmt.Errorf("n3: expected '<' in @prefix")
	}
	p.pos++
	start = p.pos
	for !p.eof() && p.peek() != '>' {
		p.pos++
	}
	iri := string(p.src[start:p.pos])
	p.pos++ // '>'
	p.prefixes[name] = iri
	p.skipInsignificant()
	if p.peek() == '.' {
		p.pos++
	}
	return nil
}

func (p *n3Parser) parseRule() (Rule, error) {
	ante, err := p.parseBraceGroup()
	if err != nil {
		return Rule{}, err
	}
	p.skipInsignificant()
	if !p.consumeKeyword("=>") {
		return Rule{}, fmt.Errorf("n3: expected '=>' after antecedent")
	}
	cons, err := p.parseBraceGroup()
	if err != nil {
		return Rule{}, err
	}
	p.skipInsignificant()
	if p.peek() == '.' {
		p.pos++
	}
	return Rule{Antecedent: ante, Consequent: cons}, nil
}

func (p *n3Parser) parseBraceGroup() ([]TriplePattern, error) {
	p.skipInsignificant()
	if p.peek() != '{' {
		return nil, fmt.Errorf("n3: expected '{'")
	}
	p.pos++
	var triples []TriplePattern
	for {
		p.skipInsignificant()
		if p.peek() == '}' {
			p.pos++
			break
		}
		t, err := p.parseTriple()
		if err != nil {
			return nil, err
		}
		triples = append(triples, t)
		p.skipInsignificant()
		if p.peek() == '.' {
			p.pos++
		}
	}
	return triples, nil
}

func (p *n3Parser) parseTriple() (TriplePattern, error) {
	s, err := p.parseTerm(false)
	if err != nil {
		return TriplePattern{}, err
	}
	p.skipInsignificant()
	pr, err := p.parsePredicate()
	if err != nil {
		return TriplePattern{}, err
	}
	p.skipInsignificant()
	o, err := p.parseTerm(true)
	if err != nil {
		return TriplePattern{}, err
	}
	return TriplePattern{Subject: s, Predicate: pr, Object: o}, nil
}

func (p *n3Parser) parsePredicate() (patternTerm, error) {
	if p.peek() == 'a' && (p.pos+1 >= len(p.src) || isBoundary(p.src[p.pos+1])) {
		p.pos++
		return patternTerm{bound: quadmodel.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")}, nil
	}
	return p.parseTerm(false)
}

func isBoundary(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *n3Parser) parseTerm(objectPosition bool) (patternTerm, error) {
	switch p.peek() {
	case '?':
		p.pos++
		start := p.pos
		for !p.eof() && isNameChar(p.peek()) {
			p.pos++
		}
		return patternTerm{variable: string(p.src[start:p.pos])}, nil
	case '<':
		p.pos++
		start := p.pos
		for !p.eof() && p.peek() != '>' {
			p.pos++
		}
		iri := string(p.src[start:p.pos])
		p.pos++
		return patternTerm{bound: quadmodel.IRI(iri)}, nil
	case '"':
		p.pos++
		var sb strings.Builder
		for !p.eof() && p.peek() != '"' {
			sb.WriteRune(p.peek())
			p.pos++
		}
		p.pos++
		lit := quadmodel.Literal{Lexical: sb.String()}
		if p.peek() == '^' {
			p.pos += 2
			if p.peek() == '<' {
				p.pos++
				start := p.pos
				for !p.eof() && p.peek() != '>' {
					p.pos++
				}
				lit.Datatype = quadmodel.IRI(string(p.src[start:p.pos]))
				p.pos++
			}
		} else if p.peek() == '@' {
			p.pos++
			start := p.pos
			for !p.eof() && isNameChar(p.peek()) {
				p.pos++
			}
			lit.Lang = string(p.src[start:p.pos])
		}
		return patternTerm{bound: lit}, nil
	default:
		start := p.pos
		for !p.eof() && !isBoundary(p.peek()) && p.peek() != '.' && p.peek() != '}' {
			p.pos++
		}
		tok := string(p.src[start:p.pos])
		i := strings.IndexByte(tok, ':')
		if i < 0 {
			return patternTerm{}, fmt.Errorf("n3: unrecognized term %q", tok)
		}
		ns, ok := p.prefixes[tok[:i]]
		if !ok {
			return patternTerm{}, fmt.Errorf("n3: unknown prefix %q", tok[:i])
		}
		return patternTerm{bound: quadmodel.IRI(ns + tok[i+1:])}, nil
	}
}

func isNameChar(c rune) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
