package storage

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestLoad_MissingFilesAreEmpty(t *testing.T) {
	s := tempStore(t)
	rf, err := s.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	nf, err := s.LoadNotes()
	if err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}
	if len(rf.Rules) != 0 || len(nf.Notes) != 0 {
		t.Errorf("rules=%v notes=%v, want empty", rf.Rules, nf.Notes)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := tempStore(t)
	rf := models.RuleFile{Rules: []models.Rule{
		{Name: "work", Kind: models.RuleKeywords, Keywords: []string{"meeting", "standup"}},
		{Name: "re", Kind: models.RuleRegex, Keywords: []string{}},
	}}
	nf := models.NoteFile{Notes: []models.Note{
		{Name: "standup", Contents: "Team meeting at 10", Time: "2024-03-09 14:05:07.25 +01:00:00", Rules: []string{"work"}},
		{Name: "standup", Contents: "again", Time: "t", Rules: []string{}},
	}}
	if err := s.SaveRules(rf); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}
	if err := s.SaveNotes(nf); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}

	gotR, err := s.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(gotR.Rules) != 2 || gotR.Rules[1].Kind != models.RuleRegex ||
		!slices.Equal(gotR.Rules[0].Keywords, []string{"meeting", "standup"}) {
		t.Errorf("rules = %+v", gotR.Rules)
	}
	gotN, err := s.LoadNotes()
	if err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}
	if len(gotN.Notes) != 2 || gotN.Notes[0].Time != nf.Notes[0].Time || gotN.Notes[1].Contents != "again" {
		t.Errorf("notes = %+v", gotN.Notes)
	}
}

func TestSaveRules_WritesKindAsName(t *testing.T) {
	s := tempStore(t)
	rf := models.RuleFile{Rules: []models.Rule{{Name: "work", Kind: models.RuleKeywords, Keywords: []string{"x"}}}}
	if err := s.SaveRules(rf); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), RulesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Keywords") || !strings.Contains(string(data), "[[rules]]") {
		t.Errorf("unexpected encoding:\n%s", data)
	}
}

func TestLoad_ReadsHandWrittenFile(t *testing.T) {
	s := tempStore(t)
	raw := `
[[rules]]
name = "work"
kind = "Keywords"
keywords = ["meeting"]
`
	if err := os.WriteFile(filepath.Join(s.Root(), RulesFile), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	rf, err := s.LoadRules()
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rf.Rules) != 1 || rf.Rules[0].Name != "work" {
		t.Errorf("rules = %+v", rf.Rules)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"syntax":       "[[rules]\nname = ",
		"unknown kind": "[[rules]]\nname = \"x\"\nkind = \"Fuzzy\"\nkeywords = []\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s := tempStore(t)
			if err := os.WriteFile(filepath.Join(s.Root(), RulesFile), []byte(raw), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := s.LoadRules(); !errors.Is(err, apperr.ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestSaveRules_UnknownKind(t *testing.T) {
	s := tempStore(t)
	rf := models.RuleFile{Rules: []models.Rule{{Name: "x", Kind: models.RuleKind(9)}}}
	if err := s.SaveRules(rf); !errors.Is(err, apperr.ErrSerialization) {
		t.Errorf("err = %v, want ErrSerialization", err)
	}
}

func TestReadRaw(t *testing.T) {
	s := tempStore(t)
	data, err := s.ReadRaw(RulesFile)
	if err != nil || data != nil {
		t.Fatalf("ReadRaw missing = %q, %v", data, err)
	}
	_ = s.SaveRules(models.RuleFile{})
	data, err = s.ReadRaw(RulesFile)
	if err != nil || data == nil {
		t.Fatalf("ReadRaw = %q, %v", data, err)
	}
}

func TestDefaultRoot(t *testing.T) {
	t.Setenv("HOME", "/tmp/pile-home")
	root, err := DefaultRoot()
	if err != nil {
		t.Fatalf("DefaultRoot: %v", err)
	}
	if root != filepath.Join("/tmp/pile-home", DirName) {
		t.Errorf("root = %q", root)
	}
}

func TestDefaultRoot_NoHome(t *testing.T) {
	t.Setenv("HOME", "")
	if _, err := DefaultRoot(); !errors.Is(err, apperr.ErrHomeUnavailable) {
		t.Errorf("err = %v, want ErrHomeUnavailable", err)
	}
}
