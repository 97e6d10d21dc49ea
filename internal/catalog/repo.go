package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yoav-lavi/pile/internal/models"
)

const metaChecksum = "source_checksum"

// RuleCount is the number of notes tagged with a rule.
type RuleCount struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Notes int    `json:"notes"`
}

// Checksum returns the source checksum recorded by the last Replace, or ""
// when the catalog has never been filled.
func (db *DB) Checksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaChecksum).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: checksum: %w", err)
	}
	return cs, nil
}

// Replace swaps the whole catalog for rf and nf in one transaction and
// records sum as the source checksum.
func (db *DB) Replace(rf models.RuleFile, nf models.NoteFile, sum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, stmt := range []string{`DELETE FROM note_rules`, `DELETE FROM notes`, `DELETE FROM rules`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("catalog: clear: %w", err)
		}
	}

	ruleStmt, err := tx.Prepare(`INSERT INTO rules (pos, name, kind, keywords) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare rule insert: %w", err)
	}
	defer ruleStmt.Close()
	for i, r := range rf.Rules {
		kw, _ := json.Marshal(nonNil(r.Keywords))
		if _, err := ruleStmt.Exec(i, r.Name, r.Kind.String(), string(kw)); err != nil {
			return fmt.Errorf("catalog: insert rule: %w", err)
		}
	}

	noteStmt, err := tx.Prepare(`INSERT INTO notes (pos, name, contents, time, rules) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare note insert: %w", err)
	}
	defer noteStmt.Close()
	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO note_rules (pos, rule) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()
	for i, n := range nf.Notes {
		rules, _ := json.Marshal(nonNil(n.Rules))
		if _, err := noteStmt.Exec(i, n.Name, n.Contents, n.Time, string(rules)); err != nil {
			return fmt.Errorf("catalog: insert note: %w", err)
		}
		for _, r := range n.Rules {
			if _, err := tagStmt.Exec(i, r); err != nil {
				return fmt.Errorf("catalog: insert tag: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaChecksum, sum); err != nil {
		return fmt.Errorf("catalog: record checksum: %w", err)
	}

	return tx.Commit()
}

// NotesByRule returns the notes tagged with rule, in collection order.
func (db *DB) NotesByRule(rule string) ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT n.name, n.contents, n.time, n.rules
		FROM notes n
		JOIN note_rules r ON r.pos = n.pos
		WHERE r.rule = ?
		ORDER BY n.pos
	`, rule)
	if err != nil {
		return nil, fmt.Errorf("catalog: notes by rule: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		var rulesJSON string
		if err := rows.Scan(&n.Name, &n.Contents, &n.Time, &rulesJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(rulesJSON), &n.Rules)
		out = append(out, n)
	}
	return out, rows.Err()
}

// RuleCounts returns every rule, in rule order, with the number of notes
// currently tagged with its name.
func (db *DB) RuleCounts() ([]RuleCount, error) {
	rows, err := db.conn.Query(`
		SELECT r.name, r.kind, COUNT(nr.pos)
		FROM rules r
		LEFT JOIN note_rules nr ON nr.rule = r.name
		GROUP BY r.pos
		ORDER BY r.pos
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: rule counts: %w", err)
	}
	defer rows.Close()

	out := []RuleCount{}
	for rows.Next() {
		var c RuleCount
		if err := rows.Scan(&c.Name, &c.Kind, &c.Notes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Untagged counts notes no rule matches.
func (db *DB) Untagged() (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM notes n
		WHERE NOT EXISTS (SELECT 1 FROM note_rules r WHERE r.pos = n.pos)
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("catalog: untagged: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
