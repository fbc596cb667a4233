// Package semantic checks a parsed personality for cross-reference and
// consistency problems that the grammar cannot express.
//
// Analyze runs every check unconditionally. Each check is also exported on
// its own. A personality is valid when no check reports an error; warnings
// never affect validity.
package semantic

import (
	"github.com/callosum-dsl/callosum/pkg/types"
)

// Thresholds for evolution deltas.
const (
	DangerousDelta  = 0.8
	SuspiciousDelta = 0.5
	WeakStrength    = 0.3
)

// Check is a single error check.
type Check func(p *types.Personality) []*Error

// Lint is a single warning check.
type Lint func(p *types.Personality) []Warning

// Checks lists the error checks in the order Analyze runs them.
var Checks = []Check{
	CheckCircularDependencies,
	CheckTraitConflicts,
	CheckEvolutionDeterminism,
	CheckUnreachableBehaviors,
	CheckDomainReferences,
	CheckModifierConflicts,
	CheckBehaviorConsistency,
	CheckEvolutionSafety,
	CheckDuplicateTraits,
}

// Lints lists the warning checks in the order Analyze runs them.
var Lints = []Lint{
	LintUnusedDomains,
	LintWeakConnections,
	LintRedundantModifiers,
	LintSuspiciousEvolution,
	LintModifierTargets,
	LintEmptyDomains,
}

// Analyze runs every check over p.
func Analyze(p *types.Personality) *Result {
	r := &Result{}
	for _, check := range Checks {
		r.Errors = append(r.Errors, check(p)...)
	}
	for _, lint := range Lints {
		r.Warnings = append(r.Warnings, lint(p)...)
	}
	return r
}
