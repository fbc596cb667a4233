// Package optimizer rewrites a personality into an equivalent, smaller one
// and collects statistics about what it changed.
//
// Passes never modify their input. Slices that a pass rewrites are copied;
// untouched slices are shared with the input.
package optimizer

import (
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Level selects which passes run.
type Level uint8

const (
	// None returns the input unchanged.
	None Level = iota
	// Basic folds no-op modifiers, removes dead evolution rules and
	// collects cache hints.
	Basic
	// Aggressive adds common-subexpression counting and evolution rule
	// reordering.
	Aggressive
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Basic:
		return "basic"
	case Aggressive:
		return "aggressive"
	default:
		return "(unknown)"
	}
}

// ParseLevel parses "none", "basic" or "aggressive".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, nil
	case "basic":
		return Basic, nil
	case "aggressive":
		return Aggressive, nil
	default:
		return None, fmt.Errorf("unknown optimization level %q (want none, basic or aggressive)", s)
	}
}

// Pass is a single optimization step.
type Pass func(p types.Personality, stats *Stats) types.Personality

// Passes returns the passes run at level, in order.
func Passes(level Level) []Pass {
	switch level {
	case Basic:
		return []Pass{FoldModifiers, RemoveDeadRules, CacheHints}
	case Aggressive:
		return []Pass{FoldModifiers, RemoveDeadRules, CacheHints, CountCommonSubexpressions, ReorderRules}
	default:
		return nil
	}
}

// Optimize runs the passes of level over p.
func Optimize(p *types.Personality, level Level) (*types.Personality, *Stats) {
	stats := &Stats{Level: level}
	out := *p
	for _, pass := range Passes(level) {
		out = pass(out, stats)
	}
	return &out, stats
}
