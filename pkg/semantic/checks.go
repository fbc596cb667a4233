package semantic

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// CheckCircularDependencies reports every cycle in the domain connection
// graph. A cycle is reported once however many nodes it is reached from;
// its path starts at the smallest domain name.
func CheckCircularDependencies(p *types.Personality) []*Error {
	var nodes []string
	adj := make(map[string][]string)
	addNode := func(n string) {
		if _, ok := adj[n]; !ok {
			adj[n] = nil
			nodes = append(nodes, n)
		}
	}
	for _, d := range p.Knowledge {
		addNode(d.Name)
	}
	for _, c := range p.Connections() {
		addNode(c.From)
		addNode(c.To)
		adj[c.From] = append(adj[c.From], c.To)
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(nodes))
	seen := make(map[string]bool)
	var path []string
	var errs []*Error

	var visit func(n string)
	visit = func(n string) {
		color[n] = grey
		path = append(path, n)
		for _, next := range adj[n] {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				idx := slices.Index(path, next)
				cycle := canonicalCycle(path[idx:])
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					errs = append(errs, &Error{
						Kind:    CircularDependency,
						Subject: cycle[0],
						Path:    cycle,
						Detail:  strings.Join(cycle, " -> "),
					})
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
	}

	for _, n := range nodes {
		if color[n] == white {
			visit(n)
		}
	}
	return errs
}

// canonicalCycle rotates cycle so the smallest name comes first and closes
// it by repeating that name.
func canonicalCycle(cycle []string) []string {
	start := 0
	for i, n := range cycle {
		if n < cycle[start] {
			start = i
		}
	}
	out := make([]string, 0, len(cycle)+1)
	out = append(out, cycle[start:]...)
	out = append(out, cycle[:start]...)
	return append(out, out[0])
}

// CheckTraitConflicts reports traits that are both enabled when and
// suppressed unless the same context.
func CheckTraitConflicts(p *types.Personality) []*Error {
	var errs []*Error
	for _, t := range p.Traits {
		forEachPair(t.Modifiers, func(a, b types.Modifier) {
			if ctx, ok := whenUnless(a, b); ok {
				errs = append(errs, &Error{
					Kind:    TraitConflict,
					Subject: t.Name,
					Detail:  fmt.Sprintf("when and unless on %s", types.Signature(ctx)),
				})
			}
		})
	}
	return errs
}

func whenUnless(a, b types.Modifier) (types.Context, bool) {
	if w, ok := a.(types.When); ok {
		if u, ok := b.(types.Unless); ok && w.Context == u.Context {
			return w.Context, true
		}
	}
	if u, ok := a.(types.Unless); ok {
		if w, ok := b.(types.When); ok && w.Context == u.Context {
			return w.Context, true
		}
	}
	return nil, false
}

// CheckModifierConflicts reports traits that decay at two different rates
// in the same unit.
func CheckModifierConflicts(p *types.Personality) []*Error {
	var errs []*Error
	for _, t := range p.Traits {
		forEachPair(t.Modifiers, func(a, b types.Modifier) {
			da, ok := a.(types.Decay)
			if !ok {
				return
			}
			db, ok := b.(types.Decay)
			if !ok {
				return
			}
			if da.Unit == db.Unit && da.Rate != db.Rate {
				errs = append(errs, &Error{
					Kind:    ModifierConflict,
					Subject: t.Name,
					Detail: fmt.Sprintf("decays at %s and %s per %s",
						types.FormatNumber(da.Rate), types.FormatNumber(db.Rate), da.Unit),
				})
			}
		})
	}
	return errs
}

// CheckEvolutionDeterminism reports triggers shared by rules with
// different effects.
func CheckEvolutionDeterminism(p *types.Personality) []*Error {
	type group struct {
		trigger types.Trigger
		effects []types.Effect
	}
	var groups []*group
	for _, r := range p.Evolution {
		idx := slices.IndexFunc(groups, func(g *group) bool { return g.trigger == r.Trigger })
		if idx < 0 {
			groups = append(groups, &group{trigger: r.Trigger})
			idx = len(groups) - 1
		}
		g := groups[idx]
		if !slices.Contains(g.effects, r.Effect) {
			g.effects = append(g.effects, r.Effect)
		}
	}

	var errs []*Error
	for _, g := range groups {
		if len(g.effects) > 1 {
			errs = append(errs, &Error{
				Kind:    NonDeterministicEvolution,
				Subject: types.Signature(g.trigger),
				Detail:  fmt.Sprintf("%d different effects for the same trigger", len(g.effects)),
			})
		}
	}
	return errs
}

// CheckUnreachableBehaviors reports behaviors conditioned on unknown traits,
// both declared ones and those added by a new_behavior effect.
func CheckUnreachableBehaviors(p *types.Personality) []*Error {
	traits := p.TraitNames()
	var errs []*Error
	check := func(r types.BehaviorRule, where string) {
		if c, ok := r.Condition.(types.TraitAbove); ok && !traits[c.Trait] {
			errs = append(errs, &Error{
				Kind:    UnreachableBehavior,
				Subject: c.Trait,
				Detail:  fmt.Sprintf("condition on unknown trait in %s%q", where, types.FormatBehavior(r)),
			})
		}
	}
	for _, r := range p.Behaviors {
		check(r, "")
	}
	for _, r := range p.Evolution {
		if e, ok := r.Effect.(types.NewBehavior); ok {
			check(e.Rule, "new behavior ")
		}
	}
	return errs
}

// CheckDomainReferences reports domain names used by connections and
// evolution rules that are not declared in the knowledge section. Each
// unknown name is reported once.
func CheckDomainReferences(p *types.Personality) []*Error {
	domains := p.DomainNames()
	reported := make(map[string]bool)
	var errs []*Error
	ref := func(name, where string) {
		if domains[name] || reported[name] {
			return
		}
		reported[name] = true
		errs = append(errs, &Error{
			Kind:    InvalidDomainReference,
			Subject: name,
			Detail:  "referenced by " + where,
		})
	}

	for _, c := range p.Connections() {
		ref(c.From, "a connection")
		ref(c.To, "a connection")
	}
	for _, r := range p.Evolution {
		if t, ok := r.Trigger.(types.TimeInDomain); ok {
			ref(t.Domain, "a time_in trigger")
		}
		switch e := r.Effect.(type) {
		case types.UnlockDomain:
			ref(e.Domain, "an unlock effect")
		case types.AddConnection:
			ref(e.From, "a connect effect")
			ref(e.To, "a connect effect")
		}
	}
	return errs
}

// CheckBehaviorConsistency reports behaviors that both seek or prefer and
// avoid the same thing, and styles set to two different values.
func CheckBehaviorConsistency(p *types.Personality) []*Error {
	var errs []*Error
	forEachPair(p.Behaviors, func(a, b types.BehaviorRule) {
		if v, ok := contradicts(a.Action, b.Action); ok {
			errs = append(errs, &Error{
				Kind:    ContradictoryBehavior,
				Subject: v,
				Detail:  fmt.Sprintf("%s conflicts with %s", types.FormatAction(a.Action), types.FormatAction(b.Action)),
			})
		}
		sa, okA := a.Action.(types.SetStyle)
		sb, okB := b.Action.(types.SetStyle)
		if okA && okB && sa.Key == sb.Key && sa.Value != sb.Value {
			errs = append(errs, &Error{
				Kind:    ConflictingStyle,
				Subject: sa.Key,
				Detail:  fmt.Sprintf("set to %q and %q", sa.Value, sb.Value),
			})
		}
	})
	return errs
}

func contradicts(a, b types.Action) (string, bool) {
	if v, ok := avoided(a, b); ok {
		return v, true
	}
	return avoided(b, a)
}

// avoided reports whether a prefers or seeks the value b avoids.
func avoided(a, b types.Action) (string, bool) {
	av, ok := b.(types.Avoid)
	if !ok {
		return "", false
	}
	switch x := a.(type) {
	case types.Prefer:
		return x.Value, x.Value == av.Value
	case types.Seek:
		return x.Value, x.Value == av.Value
	}
	return "", false
}

// CheckEvolutionSafety reports trait adjustments that are too large or that
// push a trait out of [0, 1], and connect effects on unknown domains.
func CheckEvolutionSafety(p *types.Personality) []*Error {
	domains := p.DomainNames()
	var errs []*Error
	for _, r := range p.Evolution {
		switch e := r.Effect.(type) {
		case types.TraitAdjust:
			if math.Abs(e.Delta) > DangerousDelta {
				errs = append(errs, &Error{
					Kind:    DangerousEvolution,
					Subject: e.Trait,
					Detail:  fmt.Sprintf("delta %s exceeds %s", types.FormatNumber(e.Delta), types.FormatNumber(DangerousDelta)),
				})
			}
			if t, ok := p.FindTrait(e.Trait); ok {
				if v := t.Strength + e.Delta; v < 0 || v > 1 {
					errs = append(errs, &Error{
						Kind:    EvolutionOutOfBounds,
						Subject: e.Trait,
						Detail: fmt.Sprintf("%s %s %s leaves [0, 1]",
							types.FormatNumber(t.Strength), sign(e.Delta), types.FormatNumber(math.Abs(e.Delta))),
					})
				}
			}
		case types.AddConnection:
			if !domains[e.From] || !domains[e.To] {
				errs = append(errs, &Error{
					Kind:    InvalidEvolutionConnection,
					Subject: e.From + " -> " + e.To,
					Detail:  "connect effect on an unknown domain",
				})
			}
		}
	}
	return errs
}

func sign(f float64) string {
	if f < 0 {
		return "-"
	}
	return "+"
}

// CheckDuplicateTraits reports trait names declared more than once.
func CheckDuplicateTraits(p *types.Personality) []*Error {
	count := make(map[string]int, len(p.Traits))
	var errs []*Error
	for _, t := range p.Traits {
		count[t.Name]++
		if count[t.Name] == 2 {
			errs = append(errs, &Error{
				Kind:    DuplicateTrait,
				Subject: t.Name,
				Detail:  "trait declared more than once",
			})
		}
	}
	return errs
}

// forEachPair calls fn for every unordered pair of elements of s.
func forEachPair[T any](s []T, fn func(a, b T)) {
	for i := range s {
		for j := i + 1; j < len(s); j++ {
			fn(s[i], s[j])
		}
	}
}
