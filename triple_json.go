package ldbridge

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/mangle/ast"

	"github.com/twinfer/ldbridge/rdf"
)

// tripleJSON is a wrapper around a triple atom that implements
// json.MarshalerTo and json.UnmarshalerFrom as
// {"subject": "...", "predicate": "...", "object": "..."}.
type tripleJSON struct {
	ast.Atom
}

var tripleFields = [3]string{"subject", "predicate", "object"}

// MarshalJSONTo implements json.MarshalerTo for tripleJSON.
func (tj tripleJSON) MarshalJSONTo(enc *jsontext.Encoder) error {
	terms, err := rdf.AtomTerms(tj.Atom)
	if err != nil {
		return err
	}
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for i, field := range tripleFields {
		if err := enc.WriteToken(jsontext.String(field)); err != nil {
			return err
		}
		if err := enc.WriteToken(jsontext.String(terms[i])); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

// UnmarshalJSONFrom implements json.UnmarshalerFrom for tripleJSON.
// Unknown fields are skipped; all three terms are required.
func (tj *tripleJSON) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return fmt.Errorf("failed to read triple start: %w", err)
	}
	if tok.Kind() != '{' {
		return fmt.Errorf("expected triple object start '{', got %c", tok.Kind())
	}

	var terms [3]string
	var seen [3]bool
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return fmt.Errorf("failed to read triple key: %w", err)
		}
		key := tok.String()
		idx := -1
		for i, field := range tripleFields {
			if key == field {
				idx = i
			}
		}
		if idx < 0 {
			if err := dec.SkipValue(); err != nil {
				return fmt.Errorf("failed to skip unknown field %q: %w", key, err)
			}
			continue
		}
		if tok, err = dec.ReadToken(); err != nil || tok.Kind() != '"' {
			return fmt.Errorf("expected string for %q", key)
		}
		terms[idx] = tok.String()
		seen[idx] = true
	}
	if _, err := dec.ReadToken(); err != nil {
		return fmt.Errorf("failed to read triple end: %w", err)
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("triple is missing %q", tripleFields[i])
		}
	}

	tj.Atom = rdf.TripleAtom(terms[0], terms[1], terms[2])
	return nil
}

// ExportJSON writes every triple to w as a JSON array of triple objects,
// sorted like WriteTo.
func (s *TripleStore) ExportJSON(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := jsontext.NewEncoder(cw)

	lines, err := s.Triples()
	if err != nil {
		return 0, err
	}
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return cw.count, err
	}
	for _, line := range lines {
		atom, err := rdf.LineToAtom(line)
		if err != nil {
			return cw.count, err
		}
		if err := (tripleJSON{atom}).MarshalJSONTo(enc); err != nil {
			return cw.count, err
		}
	}
	if err := enc.WriteToken(jsontext.EndArray); err != nil {
		return cw.count, err
	}
	return cw.count, nil
}

// ImportJSON reads a JSON array of triple objects, the format written by
// ExportJSON, and inserts them in batches.
func (s *TripleStore) ImportJSON(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	dec := jsontext.NewDecoder(cr)

	tok, err := dec.ReadToken()
	if err != nil {
		return cr.count, fmt.Errorf("failed to read opening token: %w", err)
	}
	if tok.Kind() != '[' {
		return cr.count, fmt.Errorf("expected JSON array start '[', got %c", tok.Kind())
	}

	const batchSize = 500
	var batch []ast.Atom
	for dec.PeekKind() != ']' {
		var tj tripleJSON
		if err := tj.UnmarshalJSONFrom(dec); err != nil {
			return cr.count, fmt.Errorf("failed to unmarshal triple from stream: %w", err)
		}
		batch = append(batch, tj.Atom)
		if len(batch) >= batchSize {
			if err := s.insertAll(batch); err != nil {
				return cr.count, fmt.Errorf("failed to insert batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.insertAll(batch); err != nil {
			return cr.count, fmt.Errorf("failed to insert final batch: %w", err)
		}
	}
	if _, err := dec.ReadToken(); err != nil {
		return cr.count, fmt.Errorf("failed to read closing token: %w", err)
	}
	return cr.count, nil
}
