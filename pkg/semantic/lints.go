package semantic

import (
	"fmt"
	"math"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// LintUnusedDomains warns about domains no connection points to.
func LintUnusedDomains(p *types.Personality) []Warning {
	targets := make(map[string]bool)
	for _, c := range p.Connections() {
		targets[c.To] = true
	}
	var ws []Warning
	for _, d := range p.Knowledge {
		if !targets[d.Name] {
			ws = append(ws, Warning{Kind: UnusedDomain, Subject: d.Name, Detail: "no connection targets this domain"})
		}
	}
	return ws
}

// LintWeakConnections warns about connections weaker than WeakStrength.
func LintWeakConnections(p *types.Personality) []Warning {
	var ws []Warning
	for _, c := range p.Connections() {
		if c.Strength < WeakStrength {
			ws = append(ws, Warning{
				Kind:    WeakConnection,
				Subject: c.From + " -> " + c.To,
				Detail:  "strength " + types.FormatNumber(c.Strength),
			})
		}
	}
	return ws
}

// LintRedundantModifiers warns about traits with more than one decay.
func LintRedundantModifiers(p *types.Personality) []Warning {
	var ws []Warning
	for _, t := range p.Traits {
		n := 0
		for _, m := range t.Modifiers {
			if _, ok := m.(types.Decay); ok {
				n++
			}
		}
		if n > 1 {
			ws = append(ws, Warning{Kind: RedundantModifier, Subject: t.Name, Detail: fmt.Sprintf("%d decay modifiers", n)})
		}
	}
	return ws
}

// LintSuspiciousEvolution warns about trait adjustments larger than
// SuspiciousDelta.
func LintSuspiciousEvolution(p *types.Personality) []Warning {
	var ws []Warning
	for _, r := range p.Evolution {
		if e, ok := r.Effect.(types.TraitAdjust); ok && math.Abs(e.Delta) > SuspiciousDelta {
			ws = append(ws, Warning{
				Kind:    SuspiciousEvolutionRate,
				Subject: e.Trait,
				Detail:  "delta " + types.FormatNumber(e.Delta),
			})
		}
	}
	return ws
}

// LintModifierTargets warns about amplify and transform targets that are
// unknown or the trait itself.
func LintModifierTargets(p *types.Personality) []Warning {
	traits := p.TraitNames()
	var ws []Warning
	for _, t := range p.Traits {
		for _, m := range t.Modifiers {
			var target string
			switch x := m.(type) {
			case types.Amplifies:
				target = x.Target
			case types.TransformsTo:
				target = x.Target
			default:
				continue
			}
			switch {
			case target == t.Name:
				ws = append(ws, Warning{Kind: SelfReference, Subject: t.Name, Detail: types.FormatModifier(m)})
			case !traits[target]:
				ws = append(ws, Warning{Kind: UnknownModifierTarget, Subject: target, Detail: "used by " + t.Name})
			}
		}
	}
	return ws
}

// LintEmptyDomains warns about domains without topics.
func LintEmptyDomains(p *types.Personality) []Warning {
	var ws []Warning
	for _, d := range p.Knowledge {
		if len(d.Topics) == 0 {
			ws = append(ws, Warning{Kind: EmptyDomain, Subject: d.Name, Detail: "no topics"})
		}
	}
	return ws
}
