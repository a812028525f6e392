package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/stevemurr/movie-catalog/movie"
)

const defaultTable = "movies"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads seed movies from a relational table.
//
// Table:
//
//	movies(id, position, data)  PRIMARY KEY (id)
//
// data holds the movie as a JSON object; rows are returned by position.
type SQLSource struct {
	db     *sql.DB
	table  string
	dollar bool // $1 placeholders instead of ?
}

// NewSQLite opens (and creates if needed) a SQLite seed database.
func NewSQLite(dbPath, table string) (*SQLSource, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return newSQLSource(db, table, false)
}

// NewPostgres opens a PostgreSQL seed database.
func NewPostgres(dsn, table string) (*SQLSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return newSQLSource(db, table, true)
}

func newSQLSource(db *sql.DB, table string, dollar bool) (*SQLSource, error) {
	if table == "" {
		table = defaultTable
	}
	if !tableName.MatchString(table) {
		db.Close()
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + table + ` (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLSource{db: db, table: table, dollar: dollar}, nil
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) Load(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, data FROM "+s.table+" ORDER BY position, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []map[string]any
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("row %q: invalid JSON: %w", id, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		doc["id"] = id
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Save replaces the table contents with movies, keeping their order.
func (s *SQLSource) Save(ctx context.Context, movies []movie.Movie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+s.table); err != nil {
		return err
	}
	insert := "INSERT INTO " + s.table + " (id, position, data) VALUES (?, ?, ?)"
	if s.dollar {
		insert = "INSERT INTO " + s.table + " (id, position, data) VALUES ($1, $2, $3)"
	}
	for i, m := range movies {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert, m.ID, i, string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
