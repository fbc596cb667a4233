package compiler

import (
	"fmt"
	"math"

	"github.com/callosum-dsl/callosum/pkg/semantic"
	"github.com/callosum-dsl/callosum/pkg/types"
)

// Validate checks everything that blocks code generation. It returns the
// analysis result, whose warnings are useful even when validation fails,
// and the errors, which are empty when p may be compiled.
//
// A personality built in code may leave a sum-typed field nil. Such a
// personality is not analyzed: the result is empty and only the
// IncompleteNode errors are returned.
func Validate(p *types.Personality) (*semantic.Result, types.CompileErrors) {
	if errs := checkComplete(p); len(errs) > 0 {
		return &semantic.Result{}, errs
	}

	var errs types.CompileErrors

	if p.Name == "" {
		errs = append(errs, &types.CompileError{Kind: types.CompileEmptyName})
	}

	for _, t := range p.Traits {
		if math.IsNaN(t.Strength) || t.Strength < 0 || t.Strength > 1 {
			errs = append(errs, &types.CompileError{
				Kind:  types.CompileInvalidTraitStrength,
				Name:  t.Name,
				Value: t.Strength,
			})
		}
	}

	seen := make(map[string]int, len(p.Knowledge))
	for _, d := range p.Knowledge {
		seen[d.Name]++
		if seen[d.Name] == 2 {
			errs = append(errs, &types.CompileError{Kind: types.CompileDuplicateDomain, Name: d.Name})
		}
	}

	analysis := semantic.Analyze(p)
	if !analysis.Valid() {
		errs = append(errs, &types.CompileError{
			Kind:     types.CompileSemanticErrors,
			Semantic: analysis.Err(),
		})
	}
	return analysis, errs
}

// checkComplete reports every nil modifier, context, condition, action,
// trigger and effect.
func checkComplete(p *types.Personality) types.CompileErrors {
	var errs types.CompileErrors
	missing := func(format string, args ...any) {
		errs = append(errs, &types.CompileError{
			Kind: types.CompileIncompleteNode,
			Name: fmt.Sprintf(format, args...),
		})
	}
	behavior := func(r types.BehaviorRule, where string) {
		if r.Condition == nil {
			missing("%s condition", where)
		}
		if r.Action == nil {
			missing("%s action", where)
		}
	}

	for _, t := range p.Traits {
		for i, m := range t.Modifiers {
			switch x := m.(type) {
			case nil:
				missing("trait %s modifier %d", t.Name, i)
			case types.When:
				if x.Context == nil {
					missing("trait %s modifier %d context", t.Name, i)
				}
			case types.Unless:
				if x.Context == nil {
					missing("trait %s modifier %d context", t.Name, i)
				}
			}
		}
	}
	for i, r := range p.Behaviors {
		behavior(r, fmt.Sprintf("behavior %d", i))
	}
	for i, r := range p.Evolution {
		if r.Trigger == nil {
			missing("evolution %d trigger", i)
		}
		switch e := r.Effect.(type) {
		case nil:
			missing("evolution %d effect", i)
		case types.NewBehavior:
			behavior(e.Rule, fmt.Sprintf("evolution %d new behavior", i))
		}
	}
	return errs
}
