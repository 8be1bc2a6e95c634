// Package classifier matches log lines against a keyword severity table.
package classifier

import (
	"sort"
	"strings"

	"github.com/Hasintha01/logwatcher/internal/incident"
)

// Rule binds one keyword to the severity assigned when it matches.
type Rule struct {
	Keyword  string
	Severity incident.Severity
}

// Rules is an ordered keyword table. Matching walks the slice in order and
// stops at the first hit, so at most one rule fires per line even when several
// keywords are present. The order is fixed at construction (lexicographic by
// keyword); a highest-severity-wins policy was considered but deliberately not
// adopted, so downstream consumers see stable classification for a given table.
//
// A Rules value is immutable after construction and safe for concurrent use
// from multiple tail engines without synchronization.
type Rules []Rule

// Compile builds an ordered rule table from a keyword→severity map. Severities
// outside the known set coerce to Warning; the coerced keywords are returned so
// the caller can log them.
func Compile(keywords map[string]string) (Rules, []string) {
	rules := make(Rules, 0, len(keywords))
	var coerced []string
	for kw, sev := range keywords {
		s, ok := incident.ParseSeverity(sev)
		if !ok {
			coerced = append(coerced, kw)
		}
		rules = append(rules, Rule{Keyword: kw, Severity: s})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Keyword < rules[j].Keyword })
	sort.Strings(coerced)
	return rules, coerced
}

// Classify tests a line against every rule in table order and returns the
// first rule whose keyword occurs as a case-sensitive substring. The second
// return is false when no keyword matches.
func (r Rules) Classify(line string) (Rule, bool) {
	for _, rule := range r {
		if rule.Keyword != "" && strings.Contains(line, rule.Keyword) {
			return rule, true
		}
	}
	return Rule{}, false
}
