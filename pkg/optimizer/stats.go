package optimizer

import (
	"strings"

	"github.com/callosum-dsl/callosum/internal/format"
)

// Stats records what the optimizer changed.
type Stats struct {
	Level Level
	// TraitsFolded counts modifiers dropped by FoldModifiers.
	TraitsFolded     int
	DeadRulesRemoved int
	// CachedCalculations is len(CacheHints).
	CachedCalculations   int
	CacheHints           []string
	CommonSubexpressions int
	// RulesReordered counts evolution rules whose position changed.
	RulesReordered int
}

// Changed reports whether any pass rewrote the personality.
func (s *Stats) Changed() bool {
	return s.TraitsFolded > 0 || s.DeadRulesRemoved > 0 || s.RulesReordered > 0
}

// Report renders the statistics as a table.
func (s *Stats) Report(mode format.Mode) string {
	t := format.NewTable(mode, "Optimization ("+s.Level.String()+")").
		Header("Pass", "Count", "Notes").
		Row("modifiers folded", s.TraitsFolded, "").
		Row("dead rules removed", s.DeadRulesRemoved, "").
		Row("cached calculations", s.CachedCalculations, strings.Join(s.CacheHints, ", "))
	if s.Level >= Aggressive {
		t.Row("common subexpressions", s.CommonSubexpressions, "").
			Row("rules reordered", s.RulesReordered, "")
	}
	return t.AlignRight(2).String()
}
