package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// busyTimeoutMillis bounds how long a writer waits on a locked file database.
const busyTimeoutMillis = 5000

// OpenDB opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database on a single connection.
// File databases use WAL, a busy timeout and immediate write transactions.
// Runs migrations automatically.
func OpenDB(path string) (*sql.DB, error) {
	dsn := path
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		dsn = fileDSN(path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == MemoryPath {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// OpenReadDB opens a query-only pool on a file database already created by
// OpenDB. Its transactions are deferred, so under WAL they read a committed
// snapshot without waiting for the writer.
func OpenReadDB(path string) (*sql.DB, error) {
	if path == MemoryPath {
		return nil, fmt.Errorf("read pool needs a file database")
	}
	db, err := sql.Open("sqlite", readDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	return db, nil
}

func baseParams() url.Values {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	q.Add("_pragma", "foreign_keys(1)")
	return q
}

// fileDSN is the write pool: every transaction takes the write lock at BEGIN.
func fileDSN(path string) string {
	q := baseParams()
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func readDSN(path string) string {
	q := baseParams()
	q.Add("_pragma", "query_only(1)")
	return "file:" + path + "?" + q.Encode()
}
