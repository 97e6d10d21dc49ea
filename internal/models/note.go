// Package models defines the domain types for pile.
package models

// Note is a timestamped piece of user text annotated with the names of the
// rules that currently match its contents.
type Note struct {
	Name     string   `toml:"name" json:"name"`
	Contents string   `toml:"contents" json:"contents"`
	Time     string   `toml:"time" json:"time"`
	Rules    []string `toml:"rules" json:"rules"`
}

// NoteFile is the persisted note collection. Order is insertion order and
// names are not required to be unique.
type NoteFile struct {
	Notes []Note `toml:"notes" json:"notes"`
}

// Delete removes every note whose name equals name and returns how many
// were removed. The relative order of the remaining notes is preserved.
func (f *NoteFile) Delete(name string) int {
	kept := f.Notes[:0]
	for _, n := range f.Notes {
		if n.Name != name {
			kept = append(kept, n)
		}
	}
	removed := len(f.Notes) - len(kept)
	// Zero the tail so dropped notes don't linger in the backing array.
	clear(f.Notes[len(kept):])
	f.Notes = kept
	return removed
}
