// Package db opens the analysis database and manages its schema through
// embedded golang-migrate migrations.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the sqlite connection pool.
type DB struct {
	*sql.DB
}

// OpenDB opens the database at path and applies connection pragmas. It does
// not touch the schema; call MigrateUp for that.
func OpenDB(path string) (*DB, error) {
	dsn := path
	if path != MemoryPath {
		// pragmas in the DSN run on every pooled connection
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)" +
			"&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=temp_store(MEMORY)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path != MemoryPath {
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return &DB{db}, nil
	}

	// every pooled connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{db}, nil
}

// Open opens the database at path and migrates it to the latest schema.
func Open(path string) (*DB, error) {
	database, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateUp(Migrations()); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
