package rdf

import (
	"fmt"
	"strings"

	"github.com/google/mangle/ast"
)

// TriplePredicate is the Mangle predicate every stored triple is filed under.
// Arguments are the lexical N-Triples terms of subject, predicate and object.
var TriplePredicate = ast.PredicateSym{Symbol: "triple", Arity: 3}

// TripleAtom builds the atom for one triple from its lexical terms.
func TripleAtom(subject, predicate, object string) ast.Atom {
	return ast.Atom{
		Predicate: TriplePredicate,
		Args: []ast.BaseTerm{
			ast.String(subject),
			ast.String(predicate),
			ast.String(object),
		},
	}
}

// TriplePattern builds a query atom. Empty terms become variables.
func TriplePattern(subject, predicate, object string) ast.Atom {
	args := make([]ast.BaseTerm, 0, 3)
	for i, term := range []string{subject, predicate, object} {
		if term == "" {
			args = append(args, ast.Variable{Symbol: fmt.Sprintf("X%d", i)})
			continue
		}
		args = append(args, ast.String(term))
	}
	return ast.Atom{Predicate: TriplePredicate, Args: args}
}

// AtomTerms extracts the lexical terms of a ground triple atom.
func AtomTerms(atom ast.Atom) ([3]string, error) {
	var terms [3]string
	if atom.Predicate != TriplePredicate || len(atom.Args) != 3 {
		return terms, fmt.Errorf("not a triple atom: %v", atom)
	}
	for i, arg := range atom.Args {
		c, ok := arg.(ast.Constant)
		if !ok {
			return terms, fmt.Errorf("triple argument %d is not a constant: %v", i, arg)
		}
		s, err := c.StringValue()
		if err != nil {
			return terms, fmt.Errorf("triple argument %d: %w", i, err)
		}
		terms[i] = s
	}
	return terms, nil
}

// AtomToLine renders a triple atom as an N-Triples statement.
func AtomToLine(atom ast.Atom) (string, error) {
	t, err := AtomTerms(atom)
	if err != nil {
		return "", err
	}
	return Line(t[0], t[1], t[2]), nil
}

// LineToAtom parses one N-Triples statement. Statements naming a graph other
// than the default are rejected.
func LineToAtom(line string) (ast.Atom, error) {
	terms, err := SplitStatement(line)
	if err != nil {
		return ast.Atom{}, err
	}
	if len(terms) == 4 {
		return ast.Atom{}, fmt.Errorf("named graphs are not supported: %q", line)
	}
	return TripleAtom(terms[0], terms[1], terms[2]), nil
}

// ParseLines converts N-Triples text into atoms, skipping blank lines and
// comments.
func ParseLines(text string) ([]ast.Atom, error) {
	var atoms []ast.Atom
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		atom, err := LineToAtom(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		atoms = append(atoms, atom)
	}
	return atoms, nil
}
