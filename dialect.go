package ldbridge

import (
	"fmt"
	"strings"
)

// dialect generates database-specific SQL for the triples table.
type dialect interface {
	// createTableSQL returns the SQL for creating the 'triples' table.
	createTableSQL() string
	// createIndexSQL returns the SQL for indexing the 'predicate' column.
	createIndexSQL() string
	// addSQL inserts one triple, ignoring duplicates.
	addSQL() string
	removeSQL() string
	containsSQL() string
	// selectSQL is the base query for GetFacts; filters are appended to it.
	selectSQL() string
	// filterFragment appends a filter on column bound to the next parameter.
	filterFragment(column string, params *[]any) string
	// deletePredicateSQL removes every triple with the given predicate.
	deletePredicateSQL() string
	// batchInsertSQL builds a multi-row INSERT statement for numRows rows.
	batchInsertSQL(numRows int) string
}

// --- SQLite Dialect ---

type sqliteDialect struct{}

func (d sqliteDialect) createTableSQL() string {
	return `
		CREATE TABLE IF NOT EXISTS triples (
			triple_hash BIGINT NOT NULL,
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object TEXT NOT NULL,
			PRIMARY KEY(triple_hash)
		) WITHOUT ROWID;
	`
}

func (d sqliteDialect) createIndexSQL() string {
	return `CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);`
}

func (d sqliteDialect) addSQL() string {
	return `
		INSERT INTO triples (triple_hash, subject, predicate, object)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`
}

func (d sqliteDialect) removeSQL() string {
	return `DELETE FROM triples WHERE triple_hash = ?`
}

func (d sqliteDialect) containsSQL() string {
	return `SELECT COUNT(*) FROM triples WHERE triple_hash = ?`
}

func (d sqliteDialect) selectSQL() string {
	return `SELECT subject, predicate, object FROM triples WHERE 1=1`
}

func (d sqliteDialect) filterFragment(column string, params *[]any) string {
	return " AND " + column + " = ?"
}

func (d sqliteDialect) deletePredicateSQL() string {
	return `DELETE FROM triples WHERE predicate = ?`
}

func (d sqliteDialect) batchInsertSQL(numRows int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO triples (triple_hash, subject, predicate, object) VALUES ")
	for i := 0; i < numRows; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?)")
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")
	return sb.String()
}

// --- PostgreSQL Dialect ---

type postgresDialect struct{}

func (d postgresDialect) createTableSQL() string {
	return `
		CREATE TABLE IF NOT EXISTS triples (
			triple_hash BIGINT NOT NULL,
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object TEXT NOT NULL,
			PRIMARY KEY(triple_hash)
		);
	`
}

func (d postgresDialect) createIndexSQL() string {
	return `CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);`
}

func (d postgresDialect) addSQL() string {
	// PostgreSQL requires the conflict target.
	return `
		INSERT INTO triples (triple_hash, subject, predicate, object)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (triple_hash) DO NOTHING
	`
}

func (d postgresDialect) removeSQL() string {
	return `DELETE FROM triples WHERE triple_hash = $1`
}

func (d postgresDialect) containsSQL() string {
	return `SELECT COUNT(*) FROM triples WHERE triple_hash = $1`
}

func (d postgresDialect) selectSQL() string {
	return `SELECT subject, predicate, object FROM triples WHERE 1=1`
}

func (d postgresDialect) filterFragment(column string, params *[]any) string {
	// The placeholder number follows the parameters already bound.
	return fmt.Sprintf(" AND %s = $%d", column, len(*params)+1)
}

func (d postgresDialect) deletePredicateSQL() string {
	return `DELETE FROM triples WHERE predicate = $1`
}

func (d postgresDialect) batchInsertSQL(numRows int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO triples (triple_hash, subject, predicate, object) VALUES ")
	paramIndex := 1
	for i := 0; i < numRows; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", paramIndex, paramIndex+1, paramIndex+2, paramIndex+3)
		paramIndex += 4
	}
	sb.WriteString(" ON CONFLICT (triple_hash) DO NOTHING")
	return sb.String()
}
