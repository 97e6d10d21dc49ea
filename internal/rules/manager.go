// Package rules creates and edits tagging rules.
package rules

import (
	"slices"
	"strings"

	"github.com/yoav-lavi/pile/internal/indexer"
	"github.com/yoav-lavi/pile/internal/models"
)

// Result describes the outcome of Upsert.
type Result struct {
	Rule    models.Rule   `json:"rule"`
	Created bool          `json:"created"`
	Index   indexer.Stats `json:"index"`
}

// Upsert finds the rule named name, creating an empty Keywords rule at the
// end of rf when there is none, and appends the lower-cased keyword when one
// is given. Duplicate keywords are kept. Every note in nf is then reindexed
// against the updated rule set, even when nothing changed.
func Upsert(rf *models.RuleFile, nf *models.NoteFile, name string, keyword *string) Result {
	res := Result{}

	existing := rf.Find(name)
	var keywords []string
	if existing != nil {
		keywords = slices.Clone(existing.Keywords)
	}
	if keyword != nil {
		keywords = append(keywords, strings.ToLower(*keyword))
	}

	if existing != nil {
		existing.Keywords = keywords
		res.Rule = *existing
	} else {
		if keywords == nil {
			keywords = []string{}
		}
		res.Rule = models.Rule{Name: name, Kind: models.RuleKeywords, Keywords: keywords}
		res.Created = true
		rf.Rules = append(rf.Rules, res.Rule)
	}

	res.Index = indexer.Reindex(nf.Notes, rf.Rules)
	return res
}
