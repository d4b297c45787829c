package ldbridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/mangle/ast"

	"github.com/twinfer/ldbridge/rdf"
)

// ErrUnsupportedUpdate is returned for scripts that do not have the
// DELETE/INSERT/WHERE {?s ?p ?o} shape produced by the merge-patch compiler.
var ErrUnsupportedUpdate = errors.New("unsupported SPARQL update")

// Update is a parsed merge-patch script.
type Update struct {
	// Delete lists the predicate IRIs of the "?s <p> ?o ." patterns.
	Delete []string
	// Insert holds the triples of the INSERT block.
	Insert []ast.Atom
}

// ParseUpdate parses a script of the form
//
//	DELETE { ?s <p> ?o . ... } INSERT { <triples> } WHERE {?s ?p ?o}
func ParseUpdate(script string) (*Update, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(script), "DELETE")
	if !ok {
		return nil, fmt.Errorf("%w: missing DELETE", ErrUnsupportedUpdate)
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "{")
	if !ok {
		return nil, fmt.Errorf("%w: missing DELETE block", ErrUnsupportedUpdate)
	}
	// IRIs cannot contain '}', so the first one closes the DELETE block.
	deleteBlock, rest, ok := strings.Cut(rest, "}")
	if !ok {
		return nil, fmt.Errorf("%w: unterminated DELETE block", ErrUnsupportedUpdate)
	}

	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "INSERT")
	if !ok {
		return nil, fmt.Errorf("%w: missing INSERT", ErrUnsupportedUpdate)
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), "{")
	if !ok {
		return nil, fmt.Errorf("%w: missing INSERT block", ErrUnsupportedUpdate)
	}
	where := strings.LastIndex(rest, "WHERE")
	if where < 0 {
		return nil, fmt.Errorf("%w: missing WHERE", ErrUnsupportedUpdate)
	}
	if strings.Join(strings.Fields(rest[where:]), " ") != "WHERE {?s ?p ?o}" {
		return nil, fmt.Errorf("%w: WHERE clause must be {?s ?p ?o}", ErrUnsupportedUpdate)
	}
	insertBlock, ok := strings.CutSuffix(strings.TrimSpace(rest[:where]), "}")
	if !ok {
		return nil, fmt.Errorf("%w: unterminated INSERT block", ErrUnsupportedUpdate)
	}

	u := &Update{}
	for _, line := range strings.Split(deleteBlock, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 || fields[0] != "?s" || fields[2] != "?o" || fields[3] != "." ||
			!strings.HasPrefix(fields[1], "<") || !strings.HasSuffix(fields[1], ">") {
			return nil, fmt.Errorf("%w: bad DELETE pattern %q", ErrUnsupportedUpdate, strings.TrimSpace(line))
		}
		u.Delete = append(u.Delete, strings.TrimSuffix(strings.TrimPrefix(fields[1], "<"), ">"))
	}

	insert, err := rdf.ParseLines(insertBlock)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedUpdate, err)
	}
	u.Insert = insert
	return u, nil
}

// ApplyUpdate executes a merge-patch script in one transaction. WHERE
// {?s ?p ?o} has no solution on an empty store, so nothing changes then.
// Otherwise every triple with a listed predicate is deleted and the
// INSERT triples are added.
func (s *TripleStore) ApplyUpdate(script string) error {
	u, err := ParseUpdate(script)
	if err != nil {
		return err
	}
	if s.EstimateFactCount() == 0 {
		s.log.Debug("update matched no solutions", "deletes", len(u.Delete), "inserts", len(u.Insert))
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback is a no-op if Commit succeeds

	var deleted int64
	for _, p := range u.Delete {
		res, err := tx.Exec(s.dialect.deletePredicateSQL(), rdf.IRITerm(p))
		if err != nil {
			return fmt.Errorf("failed to delete predicate %s: %w", p, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += n
		}
	}
	if err := s.batchInsert(tx, u.Insert); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("applied update", "deleted", deleted, "inserted", len(u.Insert))
	return nil
}
