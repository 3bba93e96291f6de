package db

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// Connect opens a pooled connection to Postgres and verifies it with a ping.
// Handlers share the returned *sql.DB; the pool bounds are set here so a burst
// of requests cannot exhaust database connections.
func Connect(databaseURL string, maxOpenConns, maxIdleConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
