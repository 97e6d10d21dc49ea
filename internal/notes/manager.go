// Package notes creates and deletes notes.
package notes

import (
	"fmt"

	"github.com/yoav-lavi/pile/internal/match"
	"github.com/yoav-lavi/pile/internal/models"
)

// Manager creates and deletes notes in a note collection.
type Manager struct {
	clock Clock
}

// NewManager returns a Manager stamping notes with clock. A nil clock uses
// the process-local zone.
func NewManager(clock Clock) *Manager {
	if clock == nil {
		clock = LocalClock("")
	}
	return &Manager{clock: clock}
}

// Create appends a note to nf. Its rules are computed once against rules as
// given; later rule edits only reach it through a reindex.
func (m *Manager) Create(nf *models.NoteFile, rules []models.Rule, name, contents string) (models.Note, error) {
	now, err := m.clock.Now()
	if err != nil {
		return models.Note{}, fmt.Errorf("notes: create %q: %w", name, err)
	}
	n := models.Note{
		Name:     name,
		Contents: contents,
		Time:     now.Format(TimeLayout),
		Rules:    match.MatchingRules(contents, rules),
	}
	nf.Notes = append(nf.Notes, n)
	return n, nil
}

// Delete removes every note named name and returns how many were removed.
// Deleting an absent name is a no-op.
func (m *Manager) Delete(nf *models.NoteFile, name string) int {
	return nf.Delete(name)
}
