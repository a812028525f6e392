// Package seed loads the initial movie collection at startup.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/stevemurr/movie-catalog/movie"
)

// Source yields the raw seed documents in collection order.
type Source interface {
	Load(ctx context.Context) ([]map[string]any, error)
	Close() error
}

// Error reports seed data that cannot become part of the collection.
// It is fatal at startup.
type Error struct {
	Index int
	ID    string
	Err   error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("seed record %d (id %q): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("seed record %d: %v", e.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrMissingID   = errors.New("missing or non-string id")
	ErrDuplicateID = errors.New("duplicate id")
)

// Load reads every document from src and validates it as a full movie.
// Each document must carry a unique string id.
func Load(ctx context.Context, src Source) ([]movie.Movie, error) {
	docs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	return Decode(docs)
}

// Decode validates already-loaded seed documents.
func Decode(docs []map[string]any) ([]movie.Movie, error) {
	movies := make([]movie.Movie, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for i, doc := range docs {
		id, _ := doc["id"].(string)
		if id == "" {
			return nil, &Error{Index: i, Err: ErrMissingID}
		}
		if seen[id] {
			return nil, &Error{Index: i, ID: id, Err: ErrDuplicateID}
		}
		seen[id] = true

		m, err := movie.ValidateFull(doc)
		if err != nil {
			return nil, &Error{Index: i, ID: id, Err: err}
		}
		m.ID = id
		movies = append(movies, m)
	}
	return movies, nil
}

// Options locates a seed source.
type Options struct {
	// Path is the file for the json, yaml and sqlite backends.
	Path string
	// DSN is the connection string for the postgres and mongo backends.
	DSN string
	// Database and Collection name the mongo collection, or for SQL
	// backends Collection overrides the table name.
	Database   string
	Collection string
}

// New creates a Source based on the backend name.
//
// Supported backends:
//
//	"json"     - JSON array file at Path (default)
//	"yaml"     - YAML sequence file at Path
//	"sqlite"   - SQLite database at Path
//	"postgres" - PostgreSQL database at DSN
//	"mongo"    - MongoDB collection Database.Collection at DSN
//	"memory"   - empty collection
func New(ctx context.Context, backend string, opts Options) (Source, error) {
	switch backend {
	case "json", "":
		return NewJSONFile(opts.Path), nil
	case "yaml":
		return NewYAMLFile(opts.Path), nil
	case "sqlite":
		return NewSQLite(opts.Path, opts.Collection)
	case "postgres":
		return NewPostgres(opts.DSN, opts.Collection)
	case "mongo":
		return NewMongo(ctx, opts.DSN, opts.Database, opts.Collection)
	case "memory":
		return Empty{}, nil
	default:
		return nil, fmt.Errorf("unknown seed backend: %q (supported: json, yaml, sqlite, postgres, mongo, memory)", backend)
	}
}

// Empty is a Source with no documents.
type Empty struct{}

func (Empty) Load(context.Context) ([]map[string]any, error) { return nil, nil }
func (Empty) Close() error                                   { return nil }
