package optimizer

import (
	"slices"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// FoldModifiers drops modifiers with no effect: decays at a rate of zero
// or less and amplifications by exactly 1.
func FoldModifiers(p types.Personality, stats *Stats) types.Personality {
	var traits []types.Trait
	for i, t := range p.Traits {
		kept := slices.DeleteFunc(slices.Clone(t.Modifiers), isNoOp)
		dropped := len(t.Modifiers) - len(kept)
		if dropped == 0 {
			continue
		}
		if traits == nil {
			traits = slices.Clone(p.Traits)
		}
		if len(kept) == 0 {
			kept = nil
		}
		traits[i].Modifiers = kept
		stats.TraitsFolded += dropped
	}
	if traits != nil {
		p.Traits = traits
	}
	return p
}

func isNoOp(m types.Modifier) bool {
	switch x := m.(type) {
	case types.Decay:
		return x.Rate <= 0
	case types.Amplifies:
		return x.Factor == 1.0
	default:
		return false
	}
}

// RemoveDeadRules drops evolution rules that can never fire or whose effect
// targets an unknown trait or domain, including new behaviors conditioned
// on an unknown trait. Learns, InteractionCount and
// FeedbackScore triggers are always reachable.
func RemoveDeadRules(p types.Personality, stats *Stats) types.Personality {
	traits := p.TraitNames()
	domains := p.DomainNames()

	live := make([]types.EvolutionRule, 0, len(p.Evolution))
	for _, r := range p.Evolution {
		if isDead(r, traits, domains) {
			stats.DeadRulesRemoved++
			continue
		}
		live = append(live, r)
	}
	if len(live) != len(p.Evolution) {
		if len(live) == 0 {
			live = nil
		}
		p.Evolution = live
	}
	return p
}

func isDead(r types.EvolutionRule, traits, domains map[string]bool) bool {
	if t, ok := r.Trigger.(types.TimeInDomain); ok && !domains[t.Domain] {
		return true
	}
	switch e := r.Effect.(type) {
	case types.TraitAdjust:
		return !traits[e.Trait]
	case types.UnlockDomain:
		return !domains[e.Domain]
	case types.AddConnection:
		return !domains[e.From] || !domains[e.To]
	case types.NewBehavior:
		c, ok := e.Rule.Condition.(types.TraitAbove)
		return ok && !traits[c.Trait]
	}
	return false
}

// CacheHints records traits whose strength depends on time or usage, which
// a runtime should memoize. The personality is returned unchanged.
func CacheHints(p types.Personality, stats *Stats) types.Personality {
	stats.CacheHints = nil
	for _, t := range p.Traits {
		if slices.ContainsFunc(t.Modifiers, isTimeDependent) {
			stats.CacheHints = append(stats.CacheHints, t.Name)
		}
	}
	stats.CachedCalculations = len(stats.CacheHints)
	return p
}

func isTimeDependent(m types.Modifier) bool {
	switch m.(type) {
	case types.Decay, types.TransformsTo:
		return true
	default:
		return false
	}
}

// CountCommonSubexpressions counts distinct modifiers that occur more than
// once across all traits. The modifiers are not shared or rewritten.
func CountCommonSubexpressions(p types.Personality, stats *Stats) types.Personality {
	seen := make(map[types.Modifier]int)
	for _, t := range p.Traits {
		for _, m := range t.Modifiers {
			seen[m]++
		}
	}
	stats.CommonSubexpressions = 0
	for _, n := range seen {
		if n > 1 {
			stats.CommonSubexpressions++
		}
	}
	return p
}

// triggerPriority orders evolution rules; lower runs first.
func triggerPriority(t types.Trigger) int {
	switch t.(type) {
	case types.Learns:
		return 1
	case types.FeedbackScore:
		return 2
	case types.InteractionCount:
		return 3
	case types.TimeInDomain:
		return 4
	default:
		return 5
	}
}

// ReorderRules stable-sorts evolution rules by trigger priority: learning,
// feedback, interaction counts, then time in domain.
func ReorderRules(p types.Personality, stats *Stats) types.Personality {
	sorted := slices.Clone(p.Evolution)
	slices.SortStableFunc(sorted, func(a, b types.EvolutionRule) int {
		return triggerPriority(a.Trigger) - triggerPriority(b.Trigger)
	})
	moved := 0
	for i := range sorted {
		if sorted[i] != p.Evolution[i] {
			moved++
		}
	}
	if moved > 0 {
		stats.RulesReordered += moved
		p.Evolution = sorted
	}
	return p
}
