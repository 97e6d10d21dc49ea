package models

import "fmt"

// RuleKind selects how a rule is matched against note contents.
type RuleKind int

const (
	// RuleKeywords matches when any keyword is a substring of the contents.
	RuleKeywords RuleKind = iota
	// RuleRegex is part of the persisted format but has no matching semantics yet.
	RuleRegex
)

// String returns the persisted name of the kind.
func (k RuleKind) String() string {
	switch k {
	case RuleKeywords:
		return "Keywords"
	case RuleRegex:
		return "Regex"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k RuleKind) MarshalText() ([]byte, error) {
	switch k {
	case RuleKeywords, RuleRegex:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("unknown rule kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RuleKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Keywords":
		*k = RuleKeywords
	case "Regex":
		*k = RuleRegex
	default:
		return fmt.Errorf("unknown rule kind %q", text)
	}
	return nil
}

// Rule is a named keyword set used to tag notes.
type Rule struct {
	Name     string   `toml:"name" json:"name"`
	Kind     RuleKind `toml:"kind" json:"kind"`
	Keywords []string `toml:"keywords" json:"keywords"`
}

// RuleFile is the persisted rule collection in insertion order.
type RuleFile struct {
	Rules []Rule `toml:"rules" json:"rules"`
}

// Find returns the first rule named name, or nil.
func (f *RuleFile) Find(name string) *Rule {
	for i := range f.Rules {
		if f.Rules[i].Name == name {
			return &f.Rules[i]
		}
	}
	return nil
}
