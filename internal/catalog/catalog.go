package catalog

import (
	"log/slog"

	"github.com/yoav-lavi/pile/internal/checksum"
	"github.com/yoav-lavi/pile/internal/models"
)

// Catalog defines the read and refresh operations the rest of pile needs.
// Consumers should depend on this interface rather than *DB.
type Catalog interface {
	Checksum() (string, error)
	Replace(rf models.RuleFile, nf models.NoteFile, sum string) error
	NotesByRule(rule string) ([]models.Note, error)
	RuleCounts() ([]RuleCount, error)
	Untagged() (int, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)

// SourceSum fingerprints the raw bytes of rules.toml and notes.toml.
func SourceSum(rulesRaw, notesRaw []byte) string {
	return checksum.Sum(rulesRaw) + "." + checksum.Sum(notesRaw)
}

// Sync brings the catalog up to date with rf and nf unless sum matches the
// checksum recorded by the previous refresh. It reports whether anything
// was rewritten.
func Sync(c Catalog, rf models.RuleFile, nf models.NoteFile, sum string, logger *slog.Logger) (bool, error) {
	prev, err := c.Checksum()
	if err != nil {
		return false, err
	}
	if prev == sum && sum != "" {
		logger.Debug("catalog: up to date")
		return false, nil
	}
	if err := c.Replace(rf, nf, sum); err != nil {
		return false, err
	}
	logger.Debug("catalog: synced",
		slog.Int("rules", len(rf.Rules)),
		slog.Int("notes", len(nf.Notes)))
	return true, nil
}
