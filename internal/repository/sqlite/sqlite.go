// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go build of SQLite, so the binary needs no C
// toolchain. The pool is limited to one connection: PRAGMAs are
// per-connection and a ":memory:" database only exists on the connection that
// created it. Code in this package must therefore never run a second query
// while a *sql.Rows is still open or while a transaction is in progress on
// db.conn; inside a transaction, use the *sql.Tx only.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

// DB wraps the connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database at dbPath (":memory:" for tests) and migrates it.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			credits       INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
			github_id     INTEGER UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS game_ideas (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			genre       TEXT NOT NULL DEFAULT '',
			player      TEXT NOT NULL DEFAULT '',
			generated   INTEGER NOT NULL DEFAULT 0,
			image       BLOB,
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_game_ideas_created_at ON game_ideas(created_at);
		CREATE INDEX IF NOT EXISTS idx_game_ideas_user_id ON game_ideas(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating game_ideas table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS similar_games (
			id          TEXT PRIMARY KEY,
			game_id     TEXT NOT NULL REFERENCES game_ideas(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			player      TEXT NOT NULL DEFAULT '',
			genre       TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			link_url    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_similar_games_game_id ON similar_games(game_id, position);
	`)
	if err != nil {
		return fmt.Errorf("creating similar_games table: %w", err)
	}

	_, err = db.conn.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS game_ratings (
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id    TEXT NOT NULL REFERENCES game_ideas(id) ON DELETE CASCADE,
			score      INTEGER NOT NULL CHECK (score BETWEEN 1 AND %d),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, game_id)
		);
		CREATE INDEX IF NOT EXISTS idx_game_ratings_game_id ON game_ratings(game_id);
	`, model.MaxScore))
	if err != nil {
		return fmt.Errorf("creating game_ratings table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS code_languages (
			id             TEXT PRIMARY KEY,
			language       TEXT NOT NULL UNIQUE,
			file_extension TEXT NOT NULL,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating code_languages table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, rolling back when fn fails.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isConstraintViolation reports a UNIQUE or PRIMARY KEY violation.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// isCheckViolation narrows isConstraintViolation to CHECK constraints, so a
// failed foreign key is not mistaken for a bad value.
func isCheckViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK
}

// clampPage applies the default and maximum page size.
func clampPage(opts repository.ListOptions) (limit, offset int) {
	limit, offset = opts.Limit, opts.Offset
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
