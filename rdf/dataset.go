package rdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// Serialize renders a dataset as N-Quads text. Triples in the default graph
// come out as plain N-Triples lines.
func Serialize(ds *ld.RDFDataset) (string, error) {
	out, err := (&ld.NQuadRDFSerializer{}).Serialize(ds)
	if err != nil {
		return "", fmt.Errorf("failed to serialize n-quads: %w", err)
	}
	text, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("unexpected n-quads result %T", out)
	}
	return text, nil
}

// FindObject returns the first IRI object of a triple with the given
// predicate, scanning graphs in name order.
func FindObject(ds *ld.RDFDataset, predicate string) (string, bool) {
	names := make([]string, 0, len(ds.Graphs))
	for name := range ds.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, q := range ds.Graphs[name] {
			if q.Predicate == nil || q.Predicate.GetValue() != predicate {
				continue
			}
			if iri, ok := IRIValue(q.Object); ok {
				return iri, true
			}
		}
	}
	return "", false
}

// IRIValue returns the IRI of node if it is an IRI node.
func IRIValue(node ld.Node) (string, bool) {
	switch v := node.(type) {
	case ld.IRI:
		return v.Value, true
	case *ld.IRI:
		return v.Value, true
	}
	return "", false
}

// JoinLines renders statements one per line with a trailing newline.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
