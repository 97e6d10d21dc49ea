package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/models"
)

// File names under the pile root.
const (
	RulesFile = "rules.toml"
	NotesFile = "notes.toml"
)

// DirName is the pile directory created under the user's home.
const DirName = ".pile"

// DefaultRoot returns ~/.pile.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("storage: %w: %v", apperr.ErrHomeUnavailable, err)
	}
	return filepath.Join(home, DirName), nil
}

// Store loads and saves the two TOML collections through a Provider.
type Store struct {
	p Provider
}

// NewStore wraps p.
func NewStore(p Provider) *Store {
	return &Store{p: p}
}

// Open returns a Store on the local file system at root, or at DefaultRoot
// when root is empty.
func Open(root string) (*Store, error) {
	if root == "" {
		var err error
		if root, err = DefaultRoot(); err != nil {
			return nil, err
		}
	}
	p, err := NewFS(root)
	if err != nil {
		return nil, err
	}
	return NewStore(p), nil
}

// Root returns the directory the store writes to.
func (s *Store) Root() string { return s.p.Root() }

// LoadRules reads rules.toml. A missing file yields an empty collection.
func (s *Store) LoadRules() (models.RuleFile, error) {
	var rf models.RuleFile
	if err := s.load(RulesFile, &rf); err != nil {
		return models.RuleFile{}, err
	}
	return rf, nil
}

// LoadNotes reads notes.toml. A missing file yields an empty collection.
func (s *Store) LoadNotes() (models.NoteFile, error) {
	var nf models.NoteFile
	if err := s.load(NotesFile, &nf); err != nil {
		return models.NoteFile{}, err
	}
	return nf, nil
}

// SaveRules replaces rules.toml with rf.
func (s *Store) SaveRules(rf models.RuleFile) error {
	if rf.Rules == nil {
		rf.Rules = []models.Rule{}
	}
	return s.save(RulesFile, rf)
}

// SaveNotes replaces notes.toml with nf.
func (s *Store) SaveNotes(nf models.NoteFile) error {
	if nf.Notes == nil {
		nf.Notes = []models.Note{}
	}
	return s.save(NotesFile, nf)
}

// ReadRaw returns the current bytes of name, or nil when it does not exist.
func (s *Store) ReadRaw(name string) ([]byte, error) {
	data, err := s.p.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (s *Store) load(name string, v any) error {
	data, err := s.p.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: parse %s: %w: %w", name, apperr.ErrParse, err)
	}
	return nil
}

func (s *Store) save(name string, v any) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w: %w", name, apperr.ErrSerialization, err)
	}
	return s.p.Write(name, data)
}
