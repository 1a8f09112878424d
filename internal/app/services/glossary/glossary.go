// Package glossary rewrites insurance jargon into plain language. The filter
// is a pure substitution over a static dictionary, compiled once into
// case-insensitive word-boundary patterns.
package glossary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/medfin/platform/pkg/logger"
)

// Entry maps one jargon term to its plain-language replacement and a longer
// definition shown on demand.
type Entry struct {
	Term       string `yaml:"term" json:"term"`
	Plain      string `yaml:"plain" json:"plain"`
	Definition string `yaml:"definition" json:"definition"`
}

// Service holds the compiled dictionary.
type Service struct {
	entries  []Entry
	patterns []*regexp.Regexp
	log      *logger.Logger
}

// New compiles the dictionary. Longer terms are applied first so phrases like
// "out-of-pocket maximum" win over their substrings. Entries with invalid
// patterns are skipped with a warning.
func New(entries []Entry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("glossary")
	}
	if len(entries) == 0 {
		entries = DefaultEntries()
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Term) > len(sorted[j].Term)
	})

	s := &Service{log: log}
	for _, e := range sorted {
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(e.Term) + `\b`)
		if err != nil {
			log.WithError(err).WithField("term", e.Term).Warn("skipping glossary term")
			continue
		}
		s.entries = append(s.entries, e)
		s.patterns = append(s.patterns, pattern)
	}
	return s
}

// Simplify replaces every dictionary term in text with its plain form.
func (s *Service) Simplify(text string) string {
	for i, pattern := range s.patterns {
		text = pattern.ReplaceAllString(text, s.entries[i].Plain)
	}
	return text
}

// Define looks up the definition of a term, case-insensitively.
func (s *Service) Define(term string) (Entry, bool) {
	for _, e := range s.entries {
		if strings.EqualFold(e.Term, term) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the active dictionary in application order.
func (s *Service) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// DefaultEntries is the built-in insurance jargon dictionary.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Term:       "prior authorization",
			Plain:      "advance approval from your insurer",
			Definition: "Approval your insurance company requires before it will cover certain services.",
		},
		{
			Term:       "explanation of benefits",
			Plain:      "claim summary from your insurer",
			Definition: "The statement your insurer sends after a claim showing what was billed, covered, and owed. Not a bill.",
		},
		{
			Term:       "out-of-pocket maximum",
			Plain:      "yearly spending cap",
			Definition: "The most you pay for covered care in a plan year; after that, insurance pays 100%.",
		},
		{
			Term:       "deductible",
			Plain:      "amount you pay before coverage kicks in",
			Definition: "What you pay for covered services each year before your insurance starts sharing costs.",
		},
		{
			Term:       "coinsurance",
			Plain:      "your percentage share of the cost",
			Definition: "The percentage of a covered service you pay after meeting your deductible.",
		},
		{
			Term:       "copayment",
			Plain:      "fixed fee per visit",
			Definition: "A flat amount you pay for a covered service, like $25 per office visit.",
		},
		{
			Term:       "in-network",
			Plain:      "covered at contracted rates",
			Definition: "Providers that contracted with your insurer; you pay less when you stay in-network.",
		},
		{
			Term:       "out-of-network",
			Plain:      "not covered at contracted rates",
			Definition: "Providers without a contract with your insurer; your share is usually much higher.",
		},
		{
			Term:       "adjudication",
			Plain:      "claim review",
			Definition: "The insurer's process of deciding how much of a claim it will pay.",
		},
		{
			Term:       "balance billing",
			Plain:      "billing you for the leftover amount",
			Definition: "When a provider bills you for the difference between their charge and what insurance allowed.",
		},
		{
			Term:       "formulary",
			Plain:      "list of covered drugs",
			Definition: "The list of prescription drugs your plan covers, usually grouped into price tiers.",
		},
	}
}
