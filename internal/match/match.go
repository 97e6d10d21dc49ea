// Package match decides which rules apply to a piece of note text.
package match

import (
	"strings"

	"github.com/samber/lo"

	"github.com/yoav-lavi/pile/internal/models"
)

// MatchingRules returns the names of the rules that match contents, in rule
// collection order. Names are returned verbatim and may repeat when rule
// names collide.
func MatchingRules(contents string, rules []models.Rule) []string {
	lowered := strings.ToLower(contents)
	matched := lo.Filter(rules, func(r models.Rule, _ int) bool {
		return Matches(r, lowered)
	})
	return lo.Map(matched, func(r models.Rule, _ int) string {
		return r.Name
	})
}

// Matches reports whether r applies to already lower-cased contents.
func Matches(r models.Rule, lowered string) bool {
	switch r.Kind {
	case models.RuleKeywords:
		return lo.SomeBy(r.Keywords, func(k string) bool {
			return strings.Contains(lowered, k)
		})
	case models.RuleRegex:
		// Regex rules are stored but have no agreed semantics.
		return false
	default:
		return false
	}
}
