package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/stevemurr/movie-catalog/movie"
)

// maxIDAttempts bounds how often Insert redraws a colliding or empty id.
const maxIDAttempts = 100

// IDFunc generates record ids.
type IDFunc func() string

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithIDFunc replaces the default random UUID generator.
func WithIDFunc(f IDFunc) Option {
	return func(m *MemoryStore) { m.newID = f }
}

// MemoryStore keeps the collection in memory as an ordered slice.
// Data is lost on restart. Safe for concurrent use: every read-modify-write
// runs under the write lock.
type MemoryStore struct {
	mu     sync.RWMutex
	movies []movie.Movie
	newID  IDFunc
}

// NewMemoryStore returns a store holding a copy of seed, in order. Seed
// records keep their ids.
func NewMemoryStore(seed []movie.Movie, opts ...Option) *MemoryStore {
	m := &MemoryStore{
		movies: make([]movie.Movie, 0, len(seed)),
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	for _, mv := range seed {
		m.movies = append(m.movies, mv.Clone())
	}
	return m
}

func cloneAll(src []movie.Movie) []movie.Movie {
	out := make([]movie.Movie, len(src))
	for i, mv := range src {
		out[i] = mv.Clone()
	}
	return out
}

func (m *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(m.movies, func(mv movie.Movie) bool { return mv.ID == id })
}

func (m *MemoryStore) List() []movie.Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAll(m.movies)
}

func (m *MemoryStore) ListByGenre(tag string) []movie.Movie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := []movie.Movie{}
	for _, mv := range m.movies {
		if mv.HasGenre(tag) {
			result = append(result, mv.Clone())
		}
	}
	return result
}

func (m *MemoryStore) Get(id string) (movie.Movie, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return movie.Movie{}, false
	}
	return m.movies[i].Clone(), true
}

func (m *MemoryStore) Insert(mv movie.Movie) movie.Movie {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv = mv.Clone()
	mv.ID = m.freshID()
	m.movies = append(m.movies, mv)
	return mv.Clone()
}

// freshID draws ids until one is non-empty and unused, and panics once
// maxIDAttempts draws have all collided. Callers must hold m.mu.
func (m *MemoryStore) freshID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := m.newID()
		if id != "" && m.indexOf(id) < 0 {
			return id
		}
	}
	panic(fmt.Sprintf("store: id generator produced no unused id after %d attempts", maxIDAttempts))
}

func (m *MemoryStore) Update(id string, patch movie.Patch) (movie.Movie, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return movie.Movie{}, false
	}
	m.movies[i] = patch.Apply(m.movies[i])
	return m.movies[i].Clone(), true
}

func (m *MemoryStore) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.movies = slices.Delete(m.movies, i, i+1)
	return true
}

// Len returns the number of stored movies.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.movies)
}
