package ldbridge

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewTripleStorePostgreSQL opens a PostgreSQL-backed TripleStore from a
// standard connection string. PRAGMA options are ignored.
func NewTripleStorePostgreSQL(connStr string, opts ...StoreOption) (*TripleStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)

	store := &TripleStore{
		db:      db,
		ownsDB:  true,
		dialect: postgresDialect{},
		log:     newConfig(opts).logger,
	}
	if err := store.initSchemaAndStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema for PostgreSQL: %w", err)
	}
	return store, nil
}

// NewTripleStorePostgreSQLFromDB creates a TripleStore on an open
// PostgreSQL connection. The caller keeps ownership of db and must close it.
func NewTripleStorePostgreSQLFromDB(db *sql.DB, opts ...StoreOption) (*TripleStore, error) {
	store := &TripleStore{
		db:      db,
		ownsDB:  false,
		dialect: postgresDialect{},
		log:     newConfig(opts).logger,
	}
	if err := store.initSchemaAndStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema for PostgreSQL: %w", err)
	}
	return store, nil
}
