package semantic

import (
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/internal/format"
)

// ErrorKind classifies a semantic error.
type ErrorKind string

const (
	CircularDependency         ErrorKind = "CircularDependency"
	TraitConflict              ErrorKind = "TraitConflict"
	ModifierConflict           ErrorKind = "ModifierConflict"
	NonDeterministicEvolution  ErrorKind = "NonDeterministicEvolution"
	UnreachableBehavior        ErrorKind = "UnreachableBehavior"
	InvalidDomainReference     ErrorKind = "InvalidDomainReference"
	ContradictoryBehavior      ErrorKind = "ContradictoryBehavior"
	ConflictingStyle           ErrorKind = "ConflictingStyle"
	DangerousEvolution         ErrorKind = "DangerousEvolution"
	EvolutionOutOfBounds       ErrorKind = "EvolutionOutOfBounds"
	InvalidEvolutionConnection ErrorKind = "InvalidEvolutionConnection"
	DuplicateTrait             ErrorKind = "DuplicateTrait"
)

// WarningKind classifies a semantic warning.
type WarningKind string

const (
	UnusedDomain            WarningKind = "UnusedDomain"
	WeakConnection          WarningKind = "WeakConnection"
	RedundantModifier       WarningKind = "RedundantModifier"
	SuspiciousEvolutionRate WarningKind = "SuspiciousEvolutionRate"
	UnknownModifierTarget   WarningKind = "UnknownModifierTarget"
	SelfReference           WarningKind = "SelfReference"
	EmptyDomain             WarningKind = "EmptyDomain"
)

// Error is a semantic error. It carries no source location: the AST does
// not keep positions.
type Error struct {
	Kind ErrorKind
	// Subject names the offending trait, domain, value or signature.
	Subject string
	// Path holds the domain names of a cycle, first name repeated last.
	Path   []string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Subject)
	}
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Subject, e.Detail)
}

// Warning is a semantic finding that never blocks compilation.
type Warning struct {
	Kind    WarningKind
	Subject string
	Detail  string
}

func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s(%s)", w.Kind, w.Subject)
	}
	return fmt.Sprintf("%s(%s): %s", w.Kind, w.Subject, w.Detail)
}

// Result is the outcome of Analyze.
type Result struct {
	Errors   []*Error
	Warnings []Warning
}

// Valid reports whether no errors were found.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the errors as a []error, or nil when the result is valid.
func (r *Result) Err() []error {
	if r.Valid() {
		return nil
	}
	out := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e
	}
	return out
}

// HasError reports whether an error of the given kind was found.
func (r *Result) HasError(kind ErrorKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// HasWarning reports whether a warning of the given kind was found.
func (r *Result) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// Report renders errors and warnings as a table.
func (r *Result) Report(mode format.Mode) string {
	t := format.NewTable(mode, "").Header("Severity", "Kind", "Subject", "Detail")
	for _, e := range r.Errors {
		subject := e.Subject
		if len(e.Path) > 0 {
			subject = strings.Join(e.Path, " -> ")
		}
		t.Row("error", string(e.Kind), subject, e.Detail)
	}
	for _, w := range r.Warnings {
		t.Row("warning", string(w.Kind), w.Subject, w.Detail)
	}
	t.Footer("", "", fmt.Sprintf("%d errors", len(r.Errors)), fmt.Sprintf("%d warnings", len(r.Warnings)))
	return t.String()
}
