// Package ldbridge stores RDF triples in SQL databases and applies the
// SPARQL Update scripts produced by the jsonld package to them.
package ldbridge

import (
	"bufio"
	"database/sql"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/factstore"

	"github.com/twinfer/ldbridge/rdf"
)

// Counter for generating unique in-memory database names
var inMemoryDBCounter atomic.Uint64

// TripleStore is a Mangle fact store holding RDF triples. Every fact is a
// triple/3 atom whose arguments are the N-Triples terms of subject,
// predicate and object.
type TripleStore struct {
	db *sql.DB
	// ownsDB is false when the caller supplied db and closes it.
	ownsDB  bool
	dialect dialect
	log     *slog.Logger

	addStmt      *sql.Stmt
	removeStmt   *sql.Stmt
	containsStmt *sql.Stmt
}

var _ factstore.FactStoreWithRemove = (*TripleStore)(nil)

// Add adds a triple atom and returns true if it was not present before.
func (s *TripleStore) Add(atom ast.Atom) bool {
	r, err := atomToRow(atom)
	if err != nil {
		return false
	}
	res, err := s.addStmt.Exec(r.hash, r.subject, r.predicate, r.object)
	if err != nil {
		s.log.Error("TripleStore failed to execute add statement", "err", err)
		return false
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected > 0
}

// Contains returns true if the triple atom is present.
func (s *TripleStore) Contains(atom ast.Atom) bool {
	r, err := atomToRow(atom)
	if err != nil {
		s.log.Error("TripleStore failed to process atom for Contains", "err", err)
		return false
	}
	var count int
	if err := s.containsStmt.QueryRow(r.hash).Scan(&count); err != nil {
		s.log.Error("TripleStore failed to execute contains statement", "err", err)
		return false
	}
	return count > 0
}

// Remove removes a triple atom and returns true if it was present.
func (s *TripleStore) Remove(atom ast.Atom) bool {
	r, err := atomToRow(atom)
	if err != nil {
		s.log.Error("TripleStore failed to process atom for Remove", "err", err)
		return false
	}
	result, err := s.removeStmt.Exec(r.hash)
	if err != nil {
		s.log.Error("TripleStore failed to execute remove statement", "err", err)
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.log.Error("TripleStore failed to get rows affected after remove", "err", err)
		return false
	}
	return rowsAffected > 0
}

// GetFacts streams the triples matching pattern. Variables in the pattern
// match any term.
func (s *TripleStore) GetFacts(pattern ast.Atom, callback func(ast.Atom) error) error {
	if pattern.Predicate != rdf.TriplePredicate {
		return nil
	}

	var queryBuf strings.Builder
	var params []any
	queryBuf.WriteString(s.dialect.selectSQL())
	for i, column := range []string{"subject", "predicate", "object"} {
		if i >= len(pattern.Args) {
			break
		}
		c, ok := pattern.Args[i].(ast.Constant)
		if !ok {
			continue
		}
		term, err := c.StringValue()
		if err != nil {
			return fmt.Errorf("pattern argument %d: %w", i, err)
		}
		queryBuf.WriteString(s.dialect.filterFragment(column, &params))
		params = append(params, term)
	}

	rows, err := s.db.Query(queryBuf.String(), params...)
	if err != nil {
		return fmt.Errorf("failed to query triples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subject, predicate, object string
		if err := rows.Scan(&subject, &predicate, &object); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := callback(rdf.TripleAtom(subject, predicate, object)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ListPredicates returns triple/3 when the store holds any triple.
func (s *TripleStore) ListPredicates() []ast.PredicateSym {
	if s.EstimateFactCount() == 0 {
		return nil
	}
	return []ast.PredicateSym{rdf.TriplePredicate}
}

// EstimateFactCount returns the number of stored triples.
func (s *TripleStore) EstimateFactCount() int {
	const query = "SELECT COUNT(*) FROM triples"
	var count int
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		s.log.Error("TripleStore failed to count triples", "err", err)
		return 0
	}
	return count
}

// Merge copies every triple of other into s.
func (s *TripleStore) Merge(other factstore.ReadOnlyFactStore) {
	var facts []ast.Atom
	for _, predicate := range other.ListPredicates() {
		if predicate != rdf.TriplePredicate {
			continue
		}
		_ = other.GetFacts(ast.NewQuery(predicate), func(atom ast.Atom) error {
			facts = append(facts, atom)
			return nil
		})
	}
	if len(facts) == 0 {
		return
	}
	if err := s.batchInsert(s.db, facts); err != nil {
		s.log.Error("TripleStore failed to batch insert triples", "err", err)
	}
}

// LoadNTriples adds every statement of an N-Triples document and returns
// the number of statements read.
func (s *TripleStore) LoadNTriples(text string) (int, error) {
	atoms, err := rdf.ParseLines(text)
	if err != nil {
		return 0, err
	}
	if err := s.insertAll(atoms); err != nil {
		return 0, err
	}
	return len(atoms), nil
}

// Triples returns every stored triple as a sorted N-Triples line.
func (s *TripleStore) Triples() ([]string, error) {
	return s.Match("", "", "")
}

// Match returns the stored triples whose terms equal the given N-Triples
// terms, as sorted lines. An empty term matches anything.
func (s *TripleStore) Match(subject, predicate, object string) ([]string, error) {
	var lines []string
	err := s.GetFacts(rdf.TriplePattern(subject, predicate, object), func(atom ast.Atom) error {
		line, err := rdf.AtomToLine(atom)
		if err != nil {
			return err
		}
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(lines)
	return lines, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *TripleStore) insertAll(atoms []ast.Atom) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback is a no-op if Commit succeeds

	if err := s.batchInsert(tx, atoms); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// batchInsert inserts atoms with multi-row INSERT statements.
func (s *TripleStore) batchInsert(ex execer, atoms []ast.Atom) error {
	const batchSize = 500

	rows := make([]row, 0, len(atoms))
	for _, atom := range atoms {
		r, err := atomToRow(atom)
		if err != nil {
			continue
		}
		rows = append(rows, r)
	}

	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		batch := rows[i:end]

		params := make([]any, 0, len(batch)*4)
		for _, r := range batch {
			params = append(params, r.hash, r.subject, r.predicate, r.object)
		}
		if _, err := ex.Exec(s.dialect.batchInsertSQL(len(batch)), params...); err != nil {
			return fmt.Errorf("failed to execute batch insert: %w", err)
		}
	}
	return nil
}

// WriteTo writes every triple to w as sorted N-Triples.
// It implements the io.WriterTo interface.
func (s *TripleStore) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	lines, err := s.Triples()
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		if _, err := io.WriteString(cw, line+"\n"); err != nil {
			return cw.count, err
		}
	}
	return cw.count, nil
}

// ReadFrom reads N-Triples from r and inserts them in batches.
// It implements the io.ReaderFrom interface.
func (s *TripleStore) ReadFrom(r io.Reader) (int64, error) {
	const batchSize = 500

	cr := &countingReader{r: r}
	scanner := bufio.NewScanner(cr)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var batch []ast.Atom
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		atom, err := rdf.LineToAtom(line)
		if err != nil {
			return cr.count, fmt.Errorf("line %d: %w", n, err)
		}
		batch = append(batch, atom)
		if len(batch) >= batchSize {
			if err := s.insertAll(batch); err != nil {
				return cr.count, fmt.Errorf("failed to insert batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return cr.count, err
	}
	if len(batch) > 0 {
		if err := s.insertAll(batch); err != nil {
			return cr.count, fmt.Errorf("failed to insert final batch: %w", err)
		}
	}
	return cr.count, nil
}

// countingWriter wraps an io.Writer and counts bytes written.
type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// countingReader wraps an io.Reader and counts bytes read.
type countingReader struct {
	r     io.Reader
	count int64
}

func (cr *countingReader) Read(p []byte) (n int, err error) {
	n, err = cr.r.Read(p)
	cr.count += int64(n)
	return n, err
}

// Close releases the prepared statements and, if the store opened it, the
// database connection.
func (s *TripleStore) Close() error {
	if s.addStmt != nil {
		s.addStmt.Close()
	}
	if s.removeStmt != nil {
		s.removeStmt.Close()
	}
	if s.containsStmt != nil {
		s.containsStmt.Close()
	}
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// row is the stored form of one triple.
type row struct {
	hash                       int64
	subject, predicate, object string
}

// atomToRow converts a ground triple atom to its row. The hash is FNV-1a
// over the three terms separated by NUL bytes.
func atomToRow(atom ast.Atom) (row, error) {
	terms, err := rdf.AtomTerms(atom)
	if err != nil {
		return row{}, err
	}
	h := fnv.New64a()
	for i, term := range terms {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(term))
	}
	// BIGINT keeps the bit pattern of the unsigned hash.
	return row{
		hash:      int64(h.Sum64()),
		subject:   terms[0],
		predicate: terms[1],
		object:    terms[2],
	}, nil
}
