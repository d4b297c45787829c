package ldbridge

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver
)

// config holds configuration options for a TripleStore.
type config struct {
	pragmas map[string]string
	logger  *slog.Logger
}

// StoreOption configures a TripleStore.
type StoreOption func(*config)

// WithPragma sets a SQLite PRAGMA, overriding its default.
// For example: WithPragma("synchronous", "NORMAL").
func WithPragma(key, value string) StoreOption {
	return func(c *config) {
		if c.pragmas == nil {
			c.pragmas = make(map[string]string)
		}
		c.pragmas[key] = value
	}
}

// WithLogger sets the logger for errors the FactStore interface cannot
// return.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *config) {
		c.logger = logger
	}
}

// defaultConfig returns the default PRAGMA settings.
func defaultConfig() *config {
	return &config{
		pragmas: map[string]string{
			"journal_mode": "WAL",
			"synchronous":  "OFF",
			"cache_size":   "-64000",
			"temp_store":   "MEMORY",
			"busy_timeout": "5000",
			"foreign_keys": "OFF",
		},
		logger: slog.Default(),
	}
}

func newConfig(opts []StoreOption) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// NewTripleStoreSQLite opens a SQLite-backed TripleStore.
// Pass ":memory:" for dbPath to create a private in-memory database.
func NewTripleStoreSQLite(dbPath string, opts ...StoreOption) (*TripleStore, error) {
	// In-memory databases get a unique shared-cache name so that all pooled
	// connections see the same data.
	if dbPath == ":memory:" {
		id := inMemoryDBCounter.Add(1)
		dbPath = fmt.Sprintf("file:ldbridge_%d?mode=memory&cache=shared", id)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)

	cfg := newConfig(opts)
	if err := applyPragmas(db, cfg.pragmas); err != nil {
		db.Close()
		return nil, err
	}

	store := &TripleStore{
		db:      db,
		ownsDB:  true,
		dialect: sqliteDialect{},
		log:     cfg.logger,
	}
	if err := store.initSchemaAndStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// NewTripleStoreSQLiteFromDB creates a TripleStore on an open SQLite
// connection. The caller keeps ownership of db; PRAGMA options are applied.
func NewTripleStoreSQLiteFromDB(db *sql.DB, opts ...StoreOption) (*TripleStore, error) {
	cfg := newConfig(opts)
	if err := applyPragmas(db, cfg.pragmas); err != nil {
		return nil, err
	}
	store := &TripleStore{
		db:      db,
		ownsDB:  false,
		dialect: sqliteDialect{},
		log:     cfg.logger,
	}
	if err := store.initSchemaAndStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func applyPragmas(db *sql.DB, pragmas map[string]string) error {
	// Sorted for a deterministic execution order.
	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pragmaSQL := fmt.Sprintf("PRAGMA %s=%s", key, pragmas[key])
		if _, err := db.Exec(pragmaSQL); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragmaSQL, err)
		}
	}
	return nil
}

// initSchemaAndStatements creates the table, index and prepared statements.
func (s *TripleStore) initSchemaAndStatements() error {
	if _, err := s.db.Exec(s.dialect.createTableSQL()); err != nil {
		return fmt.Errorf("failed to create triples table: %w", err)
	}
	if _, err := s.db.Exec(s.dialect.createIndexSQL()); err != nil {
		return fmt.Errorf("failed to create predicate index: %w", err)
	}

	var err error
	if s.addStmt, err = s.db.Prepare(s.dialect.addSQL()); err != nil {
		return fmt.Errorf("failed to prepare add statement: %w", err)
	}
	if s.removeStmt, err = s.db.Prepare(s.dialect.removeSQL()); err != nil {
		return fmt.Errorf("failed to prepare remove statement: %w", err)
	}
	if s.containsStmt, err = s.db.Prepare(s.dialect.containsSQL()); err != nil {
		return fmt.Errorf("failed to prepare contains statement: %w", err)
	}
	return nil
}
