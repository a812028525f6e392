// Package movie defines the movie record and validates untrusted input
// against its schema.
package movie

import (
	"slices"
	"strings"
)

// Genre is one of a fixed set of genre tags.
type Genre string

const (
	Comedy      Genre = "Comedy"
	Drama       Genre = "Drama"
	Action      Genre = "Action"
	Thriller    Genre = "Thriller"
	Horror      Genre = "Horror"
	Romance     Genre = "Romance"
	SciFi       Genre = "Sci-fi"
	Documentary Genre = "Documentary"
	Animation   Genre = "Animation"
	Musical     Genre = "Musical"
	Crime       Genre = "Crime"
)

// Movie is a stored record. ID is assigned by the store on insert.
type Movie struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	Director string  `json:"director"`
	Duration int     `json:"duration"`
	Rate     float64 `json:"rate"`
	Poster   string  `json:"poster"`
	Genre    []Genre `json:"genre"`
}

// HasGenre reports whether any of m's genres equals tag, ignoring case.
func (m Movie) HasGenre(tag string) bool {
	for _, g := range m.Genre {
		if strings.EqualFold(string(g), tag) {
			return true
		}
	}
	return false
}

// Clone returns a copy of m that shares no memory with it.
func (m Movie) Clone() Movie {
	m.Genre = slices.Clone(m.Genre)
	return m
}

// Patch holds the fields of a partial update. Nil fields are absent.
type Patch struct {
	Title    *string  `json:"title,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Director *string  `json:"director,omitempty"`
	Duration *int     `json:"duration,omitempty"`
	Rate     *float64 `json:"rate,omitempty"`
	Poster   *string  `json:"poster,omitempty"`
	Genre    []Genre  `json:"genre,omitempty"`
}

// IsEmpty reports whether p carries no fields.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Year == nil && p.Director == nil &&
		p.Duration == nil && p.Rate == nil && p.Poster == nil && p.Genre == nil
}

// Apply returns m with every field present in p overriding m's value.
// The ID is never changed.
func (p Patch) Apply(m Movie) Movie {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Director != nil {
		out.Director = *p.Director
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.Rate != nil {
		out.Rate = *p.Rate
	}
	if p.Poster != nil {
		out.Poster = *p.Poster
	}
	if p.Genre != nil {
		out.Genre = slices.Clone(p.Genre)
	}
	return out
}
