package types

// CreatePersonality returns an empty personality with the given name.
func CreatePersonality(name string) Personality {
	return Personality{Name: name}
}

// AddTrait returns a copy of p with t appended to its traits.
// The input is never modified and never shares a backing array with the result.
func AddTrait(p Personality, t Trait) Personality {
	p.Traits = appendCopy(p.Traits, t)
	return p
}

// AddKnowledgeDomain returns a copy of p with d appended to its knowledge.
func AddKnowledgeDomain(p Personality, d KnowledgeDomain) Personality {
	p.Knowledge = appendCopy(p.Knowledge, d)
	return p
}

// AddBehavior returns a copy of p with r appended to its behaviors.
func AddBehavior(p Personality, r BehaviorRule) Personality {
	p.Behaviors = appendCopy(p.Behaviors, r)
	return p
}

// AddEvolutionRule returns a copy of p with r appended to its evolution rules.
func AddEvolutionRule(p Personality, r EvolutionRule) Personality {
	p.Evolution = appendCopy(p.Evolution, r)
	return p
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
