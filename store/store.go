// Package store holds the movie collection.
package store

import "github.com/stevemurr/movie-catalog/movie"

// Store is the interface the HTTP layer depends on. "Not found" is a normal
// outcome reported through the boolean results, never an error.
type Store interface {
	// List returns every movie in stored order.
	List() []movie.Movie

	// ListByGenre returns the movies having a genre equal to tag, ignoring
	// case. No match yields an empty, non-nil slice.
	ListByGenre(tag string) []movie.Movie

	// Get returns the movie with the given id.
	Get(id string) (movie.Movie, bool)

	// Insert assigns a fresh id to m, appends it and returns the stored record.
	Insert(m movie.Movie) movie.Movie

	// Update merges patch over the movie with the given id, keeping its
	// position, and returns the merged record.
	Update(id string, patch movie.Patch) (movie.Movie, bool)

	// Remove deletes the movie with the given id. Returns true if it existed.
	Remove(id string) bool
}
