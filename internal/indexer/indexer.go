// Package indexer recomputes the matched rule names of every note.
package indexer

import (
	"slices"

	"github.com/yoav-lavi/pile/internal/match"
	"github.com/yoav-lavi/pile/internal/models"
)

// Stats summarises one reindex pass.
type Stats struct {
	Notes   int `json:"notes"`   // notes visited
	Changed int `json:"changed"` // notes whose rule list differed from the recomputed one
}

// Reindex overwrites each note's Rules with the rules that currently match
// its contents. It is the only operation that repairs stale rule lists and
// is idempotent for an unchanged rule set.
func Reindex(notes []models.Note, rules []models.Rule) Stats {
	st := Stats{Notes: len(notes)}
	for i := range notes {
		matched := match.MatchingRules(notes[i].Contents, rules)
		if !slices.Equal(notes[i].Rules, matched) {
			st.Changed++
		}
		notes[i].Rules = matched
	}
	return st
}
