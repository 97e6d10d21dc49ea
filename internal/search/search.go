// Package search filters notes by case-insensitive substring.
package search

import (
	"iter"
	"strings"

	"github.com/yoav-lavi/pile/internal/models"
)

// Notes yields, in collection order, every note whose rule names, name or
// contents contain query, ignoring case. An empty query yields all notes.
// The sequence holds no state and can be ranged over repeatedly.
func Notes(notes []models.Note, query string) iter.Seq[models.Note] {
	q := strings.ToLower(query)
	return func(yield func(models.Note) bool) {
		for _, n := range notes {
			if !strings.Contains(haystack(n), q) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Matches reports whether n matches query.
func Matches(n models.Note, query string) bool {
	return strings.Contains(haystack(n), strings.ToLower(query))
}

// Collect runs Notes and returns the hits as a slice, at most limit of them
// when limit is positive.
func Collect(notes []models.Note, query string, limit int) []models.Note {
	out := []models.Note{}
	for n := range Notes(notes, query) {
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// haystack is "<rules> <name> <contents>", lower-cased. Fields are joined
// with single spaces, so a query may span a field boundary.
func haystack(n models.Note) string {
	return strings.ToLower(strings.Join(n.Rules, " ") + " " + n.Name + " " + n.Contents)
}
