// Package rdf holds the RDF vocabulary and the N-Triples plumbing shared by
// the JSON-LD engine and the triple store.
package rdf

import (
	"fmt"
	"strings"
)

// RDF namespace constants
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFType      = RDFNamespace + "type"
)

// HasContext links a resource to the IRI of the JSON-LD context it was
// written with.
const HasContext = "https://w3id.org/ldbridge#hasContext"

// DefaultGraph is the graph name json-gold uses for triples.
const DefaultGraph = "@default"

// IRITerm wraps an IRI in angle brackets.
func IRITerm(iri string) string {
	return "<" + iri + ">"
}

// Line renders a subject, predicate and object as one N-Triples statement.
func Line(subject, predicate, object string) string {
	return subject + " " + predicate + " " + object + " ."
}

// SplitStatement breaks an N-Triples or N-Quads statement into its lexical
// terms. The terminating dot is required and not returned.
func SplitStatement(line string) ([]string, error) {
	var terms []string
	rest := strings.TrimSpace(line)
	for rest != "" {
		if rest[0] == '.' {
			if strings.TrimSpace(rest[1:]) != "" {
				return nil, fmt.Errorf("trailing data after statement: %q", rest)
			}
			if len(terms) < 3 || len(terms) > 4 {
				return nil, fmt.Errorf("statement has %d terms: %q", len(terms), line)
			}
			return terms, nil
		}
		n, err := termLen(rest)
		if err != nil {
			return nil, err
		}
		terms = append(terms, rest[:n])
		rest = strings.TrimLeft(rest[n:], " \t")
	}
	return nil, fmt.Errorf("statement is not terminated: %q", line)
}

// termLen returns the length of the term at the start of s.
func termLen(s string) (int, error) {
	switch {
	case s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return 0, fmt.Errorf("unterminated IRI: %q", s)
		}
		return end + 1, nil
	case strings.HasPrefix(s, "_:"):
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return len(s), nil
		}
		return end, nil
	case s[0] == '"':
		i := 1
		for ; i < len(s); i++ {
			if s[i] == '\\' {
				i++
				continue
			}
			if s[i] == '"' {
				break
			}
		}
		if i >= len(s) {
			return 0, fmt.Errorf("unterminated literal: %q", s)
		}
		i++
		switch {
		case strings.HasPrefix(s[i:], "^^<"):
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return 0, fmt.Errorf("unterminated datatype: %q", s)
			}
			i += end + 1
		case i < len(s) && s[i] == '@':
			end := strings.IndexAny(s[i:], " \t")
			if end < 0 {
				return 0, fmt.Errorf("unterminated language tag: %q", s)
			}
			i += end
		}
		return i, nil
	}
	return 0, fmt.Errorf("unexpected term: %q", s)
}
