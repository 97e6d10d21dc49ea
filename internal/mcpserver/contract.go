package mcpserver

// RuleSemanticsURI is the resource URI of RuleSemantics.
const RuleSemanticsURI = "pile://rule-semantics"

// RuleSemantics explains to LLM consumers how pile tags and finds notes.
const RuleSemantics = `# pile rule semantics

pile stores short notes and tags them automatically with rules.

## Notes

- A note has a name, contents, a creation time and the list of rule names
  that matched its contents.
- Names are not unique. Deleting by name removes every note with that name.
- The time is local wall-clock time with its UTC offset, e.g.
  ` + "`2024-03-09 14:05:07.25 +01:00:00`" + `.

## Rules

- A rule has a name, a kind and a list of keywords. Names are not unique;
  lookups use the first rule with the name, compared case-sensitively.
- A ` + "`Keywords`" + ` rule matches when ANY keyword is a substring of the
  lower-cased note contents. Keywords are stored lower-cased.
- A rule with no keywords matches nothing. An empty keyword matches every note.
- ` + "`Regex`" + ` rules are accepted in rules.toml but currently match nothing.
- A note's rule list follows rule order, not keyword order.

## When tags change

- Creating a note tags it with the rules as they are at that moment.
- Upserting a rule (upsert_rule) retags every note.
- Editing rules.toml by hand leaves tags stale until reindex_notes runs
  (or the watcher notices the edit).

## Search

search_notes lower-cases the query and matches it as a substring of
"<rule names joined by spaces> <name> <contents>", lower-cased. The empty query
matches every note. Results keep collection order.

## Not supported

Removing a keyword from a rule and deleting a rule are reserved and fail.
`
