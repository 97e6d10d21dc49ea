package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/storage"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "pile")
	cfg := "store:\n  root: " + root + "\n  timezone: UTC\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, root
}

func runPile(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	err := newApp().Run(context.Background(), append([]string{"pile", "--config", cfgPath}, args...))
	return buf.String(), err
}

func TestNoteRuleSearchFlow(t *testing.T) {
	cfg, root := writeConfig(t)

	out, err := runPile(t, cfg, "rule", "--keyword", "Meeting", "work")
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	if !strings.Contains(out, "- work [Keywords]: meeting") {
		t.Errorf("rule output = %q", out)
	}

	if _, err := runPile(t, cfg, "note", "standup", "Team meeting at 10"); err != nil {
		t.Fatalf("note: %v", err)
	}
	if _, err := runPile(t, cfg, "note", "lunch", "sandwich"); err != nil {
		t.Fatalf("note: %v", err)
	}

	out, err = runPile(t, cfg, "search", "WORK")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.HasPrefix(out, "- standup: Team meeting at 10 (") || strings.Contains(out, "lunch") {
		t.Errorf("search output = %q", out)
	}

	out, err = runPile(t, cfg, "rules", "--counts")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if !strings.Contains(out, "- work [Keywords]: 1 note") {
		t.Errorf("rules output = %q", out)
	}

	out, err = runPile(t, cfg, "delete", "standup")
	if err != nil || !strings.Contains(out, "deleted 1 note(s)") {
		t.Errorf("delete = %q, %v", out, err)
	}

	for _, f := range []string{storage.RulesFile, storage.NotesFile} {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
}

func TestIndexAfterHandEdit(t *testing.T) {
	cfg, root := writeConfig(t)
	if _, err := runPile(t, cfg, "note", "a", "buy milk"); err != nil {
		t.Fatal(err)
	}
	rules := "[[rules]]\nname = \"shopping\"\nkind = \"Keywords\"\nkeywords = [\"milk\"]\n"
	if err := os.WriteFile(filepath.Join(root, storage.RulesFile), []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runPile(t, cfg, "index")
	if err != nil || !strings.Contains(out, "reindexed 1 note(s), 1 changed") {
		t.Errorf("index = %q, %v", out, err)
	}
}

func TestCommandErrors(t *testing.T) {
	cfg, _ := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"note missing contents", []string{"note", "a"}, apperr.ErrInvalidInput},
		{"search missing query", []string{"search"}, apperr.ErrInvalidInput},
		{"rule delete", []string{"rule", "--delete", "work"}, apperr.ErrUnsupported},
		{"rule remove", []string{"rule", "--remove", "x", "work"}, apperr.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runPile(t, cfg, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBadTimezone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "store:\n  root: " + filepath.Join(dir, "pile") + "\n  timezone: Nowhere/Void\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runPile(t, path, "note", "a", "b"); !errors.Is(err, apperr.ErrTimeUnavailable) {
		t.Errorf("err = %v, want ErrTimeUnavailable", err)
	}
}
